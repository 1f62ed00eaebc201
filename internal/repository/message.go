package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"vet_chat/internal/domain"
	"vet_chat/pkg/logger"
)

type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) error
	ListByEventID(ctx context.Context, eventID uuid.UUID) ([]*domain.Message, error)
	MarkRead(ctx context.Context, eventID uuid.UUID, messageIDs []int64) error
}

type messageRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewMessageRepository(db *pgxpool.Pool, log logger.Logger) MessageRepository {
	return &messageRepository{db: db, log: log}
}

func (r *messageRepository) Create(ctx context.Context, message *domain.Message) error {
	// Временную метку назначает хранилище: now() — единственный источник порядка
	query := `
		INSERT INTO messages (event_id, sender_id, sender_role, text, created_at, read)
		VALUES ($1, $2, $3, $4, now(), false)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		message.EventID, message.SenderID, message.SenderRole, message.Text,
	).Scan(&message.ID, &message.CreatedAt)

	if err != nil {
		r.log.Error("Failed to create message", "error", err, "event_id", message.EventID)
		return err
	}

	return nil
}

func (r *messageRepository) ListByEventID(ctx context.Context, eventID uuid.UUID) ([]*domain.Message, error) {
	query := `
		SELECT id, event_id, sender_id, sender_role, text, created_at, read
		FROM messages
		WHERE event_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, eventID)
	if err != nil {
		r.log.Error("Failed to list messages", "error", err, "event_id", eventID)
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		message := &domain.Message{}
		err := rows.Scan(
			&message.ID, &message.EventID, &message.SenderID, &message.SenderRole,
			&message.Text, &message.CreatedAt, &message.Read,
		)
		if err != nil {
			r.log.Error("Failed to scan message", "error", err)
			return nil, err
		}
		messages = append(messages, message)
	}

	return messages, rows.Err()
}

func (r *messageRepository) MarkRead(ctx context.Context, eventID uuid.UUID, messageIDs []int64) error {
	if len(messageIDs) == 0 {
		return nil
	}

	// Несуществующие id просто не попадают под WHERE - best effort
	query := `
		UPDATE messages
		SET read = true
		WHERE event_id = $1 AND id = ANY($2)
	`

	_, err := r.db.Exec(ctx, query, eventID, messageIDs)
	if err != nil {
		r.log.Error("Failed to mark messages read", "error", err, "event_id", eventID)
		return err
	}

	return nil
}
