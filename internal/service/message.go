package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"vet_chat/internal/domain"
	"vet_chat/internal/repository"
	apperrors "vet_chat/pkg/errors"
	"vet_chat/pkg/logger"
)

// MessageService - журнал сообщений беседы: только добавление, порядок задает
// временная метка хранилища.
type MessageService interface {
	Append(ctx context.Context, eventID, senderID uuid.UUID, senderRole, text string) (*domain.Message, error)
	ListOrdered(ctx context.Context, eventID uuid.UUID) ([]*domain.Message, error)
	MarkRead(ctx context.Context, eventID uuid.UUID, messageIDs []int64) error
}

type messageService struct {
	messageRepo   repository.MessageRepository
	auditRepo     repository.AuditRepository
	conversations ConversationService
	lifecycle     LifecycleService
	sync          SyncService
	log           logger.Logger
}

func NewMessageService(
	messageRepo repository.MessageRepository,
	auditRepo repository.AuditRepository,
	conversations ConversationService,
	lifecycle LifecycleService,
	sync SyncService,
	log logger.Logger,
) MessageService {
	return &messageService{
		messageRepo:   messageRepo,
		auditRepo:     auditRepo,
		conversations: conversations,
		lifecycle:     lifecycle,
		sync:          sync,
		log:           log,
	}
}

func (s *messageService) Append(ctx context.Context, eventID, senderID uuid.UUID, senderRole, text string) (*domain.Message, error) {
	// Валидация идет до любого обращения к хранилищу: невалидный запрос
	// не должен материализовать беседу
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > domain.MaxMessageLength {
		return nil, apperrors.ErrMessageTooLong
	}
	if !domain.ValidSenderRole(senderRole) {
		return nil, apperrors.ErrInvalidRole
	}

	// Сообщение может материализовать беседу: ленивое создание со статусом
	// open и пустыми слотами участников
	if _, err := s.conversations.OpenOrCreate(ctx, eventID, nil, nil); err != nil {
		return nil, err
	}

	if err := s.lifecycle.AssertWritable(ctx, eventID); err != nil {
		return nil, err
	}

	message := &domain.Message{
		EventID:    eventID,
		SenderID:   senderID,
		SenderRole: senderRole,
		Text:       text,
	}

	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	s.auditRepo.CreateLog(ctx, &domain.AuditLog{
		EventTime:          time.Now(),
		ActorParticipantID: &senderID,
		ActorRole:          senderRole,
		EventID:            &eventID,
		EventType:          domain.EventTypeMessageSent,
		Payload:            map[string]interface{}{"message_id": message.ID},
	})

	s.sync.PublishMessages(ctx, eventID)
	return message, nil
}

func (s *messageService) ListOrdered(ctx context.Context, eventID uuid.UUID) ([]*domain.Message, error) {
	messages, err := s.messageRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []*domain.Message{}
	}
	return messages, nil
}

func (s *messageService) MarkRead(ctx context.Context, eventID uuid.UUID, messageIDs []int64) error {
	if len(messageIDs) == 0 {
		return nil
	}

	if err := s.messageRepo.MarkRead(ctx, eventID, messageIDs); err != nil {
		return err
	}

	s.sync.PublishMessages(ctx, eventID)
	return nil
}
