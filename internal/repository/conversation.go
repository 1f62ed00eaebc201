package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"vet_chat/internal/domain"
	apperrors "vet_chat/pkg/errors"
	"vet_chat/pkg/logger"
)

type ConversationRepository interface {
	// Create создает беседу, если ее еще нет. Возвращает false, когда беседа
	// по этому event_id уже существует (создание идемпотентно).
	Create(ctx context.Context, conversation *domain.Conversation) (bool, error)
	GetByEventID(ctx context.Context, eventID uuid.UUID) (*domain.Conversation, error)
	// FillParticipants заполняет только пустые слоты участников (fill-if-null);
	// уже установленный слот не перезаписывается.
	FillParticipants(ctx context.Context, eventID uuid.UUID, ownerID, vetID *uuid.UUID) (*domain.Conversation, error)
	// SetStatus переводит беседу в новый статус. Возвращает false, если беседа
	// уже была в этом статусе (идемпотентные close/reopen).
	SetStatus(ctx context.Context, eventID uuid.UUID, status string, closedAt *time.Time) (bool, error)
}

type conversationRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewConversationRepository(db *pgxpool.Pool, log logger.Logger) ConversationRepository {
	return &conversationRepository{db: db, log: log}
}

func (r *conversationRepository) Create(ctx context.Context, conversation *domain.Conversation) (bool, error) {
	query := `
		INSERT INTO conversations (event_id, owner_participant_id, vet_participant_id, status, created_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (event_id) DO NOTHING
		RETURNING created_at
	`

	err := r.db.QueryRow(ctx, query,
		conversation.EventID, conversation.OwnerParticipantID, conversation.VetParticipantID,
		conversation.Status,
	).Scan(&conversation.CreatedAt)

	if err != nil {
		// Конфликт по event_id: вставка не произошла, беседа уже существует
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		r.log.Error("Failed to create conversation", "error", err, "event_id", conversation.EventID)
		return false, err
	}

	return true, nil
}

func (r *conversationRepository) GetByEventID(ctx context.Context, eventID uuid.UUID) (*domain.Conversation, error) {
	query := `
		SELECT event_id, owner_participant_id, vet_participant_id, status, created_at, closed_at
		FROM conversations
		WHERE event_id = $1
	`

	conversation := &domain.Conversation{}
	err := r.db.QueryRow(ctx, query, eventID).Scan(
		&conversation.EventID, &conversation.OwnerParticipantID, &conversation.VetParticipantID,
		&conversation.Status, &conversation.CreatedAt, &conversation.ClosedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrConversationNotFound
		}
		r.log.Error("Failed to get conversation", "error", err, "event_id", eventID)
		return nil, err
	}

	return conversation, nil
}

func (r *conversationRepository) FillParticipants(ctx context.Context, eventID uuid.UUID, ownerID, vetID *uuid.UUID) (*domain.Conversation, error) {
	query := `
		UPDATE conversations
		SET owner_participant_id = COALESCE(owner_participant_id, $2),
		    vet_participant_id   = COALESCE(vet_participant_id, $3)
		WHERE event_id = $1
		RETURNING event_id, owner_participant_id, vet_participant_id, status, created_at, closed_at
	`

	conversation := &domain.Conversation{}
	err := r.db.QueryRow(ctx, query, eventID, ownerID, vetID).Scan(
		&conversation.EventID, &conversation.OwnerParticipantID, &conversation.VetParticipantID,
		&conversation.Status, &conversation.CreatedAt, &conversation.ClosedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrConversationNotFound
		}
		r.log.Error("Failed to fill participants", "error", err, "event_id", eventID)
		return nil, err
	}

	return conversation, nil
}

func (r *conversationRepository) SetStatus(ctx context.Context, eventID uuid.UUID, status string, closedAt *time.Time) (bool, error) {
	query := `
		UPDATE conversations
		SET status = $2, closed_at = $3
		WHERE event_id = $1 AND status <> $2
	`

	tag, err := r.db.Exec(ctx, query, eventID, status, closedAt)
	if err != nil {
		r.log.Error("Failed to set conversation status", "error", err, "event_id", eventID, "status", status)
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}
