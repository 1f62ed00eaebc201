package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"vet_chat/internal/domain"
	"vet_chat/internal/repository"
	apperrors "vet_chat/pkg/errors"
	"vet_chat/pkg/logger"
)

// ConversationService - реестр бесед: на одну запись на прием существует ровно
// одна беседа, ключом служит event_id.
type ConversationService interface {
	OpenOrCreate(ctx context.Context, eventID uuid.UUID, ownerID, vetID *uuid.UUID) (*domain.Conversation, error)
	Get(ctx context.Context, eventID uuid.UUID) (*domain.Conversation, error)
}

type conversationService struct {
	conversationRepo repository.ConversationRepository
	auditRepo        repository.AuditRepository
	sync             SyncService
	log              logger.Logger
}

func NewConversationService(conversationRepo repository.ConversationRepository, auditRepo repository.AuditRepository, sync SyncService, log logger.Logger) ConversationService {
	return &conversationService{
		conversationRepo: conversationRepo,
		auditRepo:        auditRepo,
		sync:             sync,
		log:              log,
	}
}

func (s *conversationService) OpenOrCreate(ctx context.Context, eventID uuid.UUID, ownerID, vetID *uuid.UUID) (*domain.Conversation, error) {
	conversation, err := s.conversationRepo.GetByEventID(ctx, eventID)
	if err != nil && !errors.Is(err, apperrors.ErrConversationNotFound) {
		return nil, err
	}

	if errors.Is(err, apperrors.ErrConversationNotFound) {
		conversation = &domain.Conversation{
			EventID:            eventID,
			OwnerParticipantID: ownerID,
			VetParticipantID:   vetID,
			Status:             domain.ConversationStatusOpen,
		}

		created, err := s.conversationRepo.Create(ctx, conversation)
		if err != nil {
			return nil, err
		}

		if created {
			s.auditRepo.CreateLog(ctx, &domain.AuditLog{
				EventTime: time.Now(),
				ActorRole: domain.ActorRoleSystem,
				EventID:   &eventID,
				EventType: domain.EventTypeConversationCreated,
				Payload:   map[string]interface{}{},
			})
			s.sync.PublishConversation(ctx, eventID)
			return conversation, nil
		}

		// Проиграли гонку параллельному создателю - перечитываем каноническую
		// запись, попутно дозаполняя свои слоты
		conversation, err = s.conversationRepo.FillParticipants(ctx, eventID, ownerID, vetID)
		if err != nil {
			return nil, err
		}
		s.sync.PublishConversation(ctx, eventID)
		return conversation, nil
	}

	// Слоты участников дозаполняются только если были пустыми (fill-if-null),
	// уже известный участник никогда не перезаписывается
	if s.needsFill(conversation, ownerID, vetID) {
		conversation, err = s.conversationRepo.FillParticipants(ctx, eventID, ownerID, vetID)
		if err != nil {
			return nil, err
		}
		s.sync.PublishConversation(ctx, eventID)
	}

	return conversation, nil
}

func (s *conversationService) Get(ctx context.Context, eventID uuid.UUID) (*domain.Conversation, error) {
	return s.conversationRepo.GetByEventID(ctx, eventID)
}

func (s *conversationService) needsFill(conversation *domain.Conversation, ownerID, vetID *uuid.UUID) bool {
	if conversation == nil {
		return false
	}
	if ownerID != nil && conversation.OwnerParticipantID == nil {
		return true
	}
	if vetID != nil && conversation.VetParticipantID == nil {
		return true
	}
	return false
}
