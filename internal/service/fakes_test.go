package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"vet_chat/internal/domain"
	apperrors "vet_chat/pkg/errors"
)

// Фейковые репозитории в памяти для тестов сервисного слоя.

type fakeConversationRepo struct {
	mu            sync.Mutex
	conversations map[uuid.UUID]*domain.Conversation
	failures      bool
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{conversations: make(map[uuid.UUID]*domain.Conversation)}
}

func (r *fakeConversationRepo) Create(ctx context.Context, conversation *domain.Conversation) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failures {
		return false, errors.New("storage unreachable")
	}

	if _, ok := r.conversations[conversation.EventID]; ok {
		return false, nil
	}

	conversation.CreatedAt = time.Now()
	stored := *conversation
	r.conversations[conversation.EventID] = &stored
	return true, nil
}

func (r *fakeConversationRepo) GetByEventID(ctx context.Context, eventID uuid.UUID) (*domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failures {
		return nil, errors.New("storage unreachable")
	}

	conversation, ok := r.conversations[eventID]
	if !ok {
		return nil, apperrors.ErrConversationNotFound
	}

	clone := *conversation
	return &clone, nil
}

func (r *fakeConversationRepo) FillParticipants(ctx context.Context, eventID uuid.UUID, ownerID, vetID *uuid.UUID) (*domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conversation, ok := r.conversations[eventID]
	if !ok {
		return nil, apperrors.ErrConversationNotFound
	}

	if conversation.OwnerParticipantID == nil && ownerID != nil {
		id := *ownerID
		conversation.OwnerParticipantID = &id
	}
	if conversation.VetParticipantID == nil && vetID != nil {
		id := *vetID
		conversation.VetParticipantID = &id
	}

	clone := *conversation
	return &clone, nil
}

func (r *fakeConversationRepo) SetStatus(ctx context.Context, eventID uuid.UUID, status string, closedAt *time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conversation, ok := r.conversations[eventID]
	if !ok {
		return false, nil
	}
	if conversation.Status == status {
		return false, nil
	}

	conversation.Status = status
	conversation.ClosedAt = closedAt
	return true, nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages map[uuid.UUID][]*domain.Message
	nextID   int64
	baseTime time.Time
	failures bool
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{
		messages: make(map[uuid.UUID][]*domain.Message),
		baseTime: time.Now(),
	}
}

func (r *fakeMessageRepo) Create(ctx context.Context, message *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failures {
		return errors.New("storage unreachable")
	}

	r.nextID++
	message.ID = r.nextID
	// Строго возрастающая временная метка, как назначил бы сервер БД
	message.CreatedAt = r.baseTime.Add(time.Duration(r.nextID) * time.Millisecond)

	stored := *message
	r.messages[message.EventID] = append(r.messages[message.EventID], &stored)
	return nil
}

func (r *fakeMessageRepo) ListByEventID(ctx context.Context, eventID uuid.UUID) ([]*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failures {
		return nil, errors.New("storage unreachable")
	}

	list := make([]*domain.Message, 0, len(r.messages[eventID]))
	for _, message := range r.messages[eventID] {
		clone := *message
		list = append(list, &clone)
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})

	return list, nil
}

func (r *fakeMessageRepo) MarkRead(ctx context.Context, eventID uuid.UUID, messageIDs []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	wanted := make(map[int64]bool, len(messageIDs))
	for _, id := range messageIDs {
		wanted[id] = true
	}

	for _, message := range r.messages[eventID] {
		if wanted[message.ID] {
			message.Read = true
		}
	}
	return nil
}

type fakeAuditRepo struct {
	mu   sync.Mutex
	logs []*domain.AuditLog
}

func newFakeAuditRepo() *fakeAuditRepo {
	return &fakeAuditRepo{}
}

func (r *fakeAuditRepo) CreateLog(ctx context.Context, log *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, log)
	return nil
}

func (r *fakeAuditRepo) eventTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.logs))
	for _, log := range r.logs {
		types = append(types, log.EventType)
	}
	return types
}

// stubSync считает публикации, не трогая Redis.
type stubSync struct {
	mu                    sync.Mutex
	conversationPublished int
	messagesPublished     int
}

func (s *stubSync) Start(ctx context.Context) {}

func (s *stubSync) SubscribeConversation(ctx context.Context, eventID uuid.UUID, onChange func(*domain.Conversation)) func() {
	return func() {}
}

func (s *stubSync) SubscribeMessages(ctx context.Context, eventID uuid.UUID, onChange func([]*domain.Message)) func() {
	return func() {}
}

func (s *stubSync) PublishConversation(ctx context.Context, eventID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversationPublished++
}

func (s *stubSync) PublishMessages(ctx context.Context, eventID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messagesPublished++
}
