package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"vet_chat/internal/domain"
	"vet_chat/internal/repository"
	apperrors "vet_chat/pkg/errors"
	"vet_chat/pkg/logger"
)

// LifecycleService - машина состояний беседы: open <-> closed. Close вызывает
// внешний планировщик по завершении приема, Reopen - административная операция.
// Собственного хранилища нет: читаются и пишутся поля status/closed_at записи
// беседы.
type LifecycleService interface {
	Close(ctx context.Context, eventID uuid.UUID, actorID *uuid.UUID, actorRole string) error
	Reopen(ctx context.Context, eventID uuid.UUID, actorID *uuid.UUID, actorRole string) error
	AssertWritable(ctx context.Context, eventID uuid.UUID) error
}

type lifecycleService struct {
	conversationRepo repository.ConversationRepository
	auditRepo        repository.AuditRepository
	sync             SyncService
	log              logger.Logger
}

func NewLifecycleService(conversationRepo repository.ConversationRepository, auditRepo repository.AuditRepository, sync SyncService, log logger.Logger) LifecycleService {
	return &lifecycleService{
		conversationRepo: conversationRepo,
		auditRepo:        auditRepo,
		sync:             sync,
		log:              log,
	}
}

func (s *lifecycleService) Close(ctx context.Context, eventID uuid.UUID, actorID *uuid.UUID, actorRole string) error {
	conversation, err := s.conversationRepo.GetByEventID(ctx, eventID)
	if err != nil {
		return err
	}

	// Повторное закрытие - no-op, не ошибка
	if conversation.IsClosed() {
		return nil
	}

	closedAt := time.Now()
	updated, err := s.conversationRepo.SetStatus(ctx, eventID, domain.ConversationStatusClosed, &closedAt)
	if err != nil {
		return err
	}
	if !updated {
		return nil
	}

	s.auditRepo.CreateLog(ctx, &domain.AuditLog{
		EventTime:          time.Now(),
		ActorParticipantID: actorID,
		ActorRole:          actorRole,
		EventID:            &eventID,
		EventType:          domain.EventTypeConversationClosed,
		Payload:            map[string]interface{}{},
	})

	s.log.Info("Conversation closed", "event_id", eventID)
	s.sync.PublishConversation(ctx, eventID)
	return nil
}

func (s *lifecycleService) Reopen(ctx context.Context, eventID uuid.UUID, actorID *uuid.UUID, actorRole string) error {
	conversation, err := s.conversationRepo.GetByEventID(ctx, eventID)
	if err != nil {
		return err
	}

	if !conversation.IsClosed() {
		return nil
	}

	updated, err := s.conversationRepo.SetStatus(ctx, eventID, domain.ConversationStatusOpen, nil)
	if err != nil {
		return err
	}
	if !updated {
		return nil
	}

	s.auditRepo.CreateLog(ctx, &domain.AuditLog{
		EventTime:          time.Now(),
		ActorParticipantID: actorID,
		ActorRole:          actorRole,
		EventID:            &eventID,
		EventType:          domain.EventTypeConversationReopened,
		Payload:            map[string]interface{}{},
	})

	s.log.Info("Conversation reopened", "event_id", eventID)
	s.sync.PublishConversation(ctx, eventID)
	return nil
}

// AssertWritable пропускает запись только в открытую беседу. Проверка
// неблокирующая: между ней и вставкой сообщения возможна гонка с параллельным
// Close, одно последнее сообщение может проскочить после закрытия.
func (s *lifecycleService) AssertWritable(ctx context.Context, eventID uuid.UUID) error {
	conversation, err := s.conversationRepo.GetByEventID(ctx, eventID)
	if err != nil {
		return err
	}

	if conversation.IsClosed() {
		return apperrors.ErrConversationClosed
	}

	return nil
}
