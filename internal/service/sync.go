package service

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"vet_chat/internal/domain"
	"vet_chat/internal/repository"
	"vet_chat/pkg/logger"
)

const (
	conversationChangedChannel = "chat:conversation:changed"
	messagesChangedChannel     = "chat:messages:changed"
)

// SyncService рассылает подписчикам полные снимки беседы и ленты сообщений
// при каждом изменении. Между экземплярами сервиса изменения распространяются
// через Redis pub/sub, внутри экземпляра - через локальный реестр подписчиков.
// Ошибки доставки не пробрасываются в вызывающий код: лента деградирует до
// пустого списка, уведомления о беседе просто не приходят.
type SyncService interface {
	Start(ctx context.Context)
	SubscribeConversation(ctx context.Context, eventID uuid.UUID, onChange func(*domain.Conversation)) func()
	SubscribeMessages(ctx context.Context, eventID uuid.UUID, onChange func([]*domain.Message)) func()
	PublishConversation(ctx context.Context, eventID uuid.UUID)
	PublishMessages(ctx context.Context, eventID uuid.UUID)
}

type changeNotice struct {
	Origin  uuid.UUID `json:"origin"`
	EventID uuid.UUID `json:"event_id"`
}

type syncService struct {
	rdb              *redis.Client
	conversationRepo repository.ConversationRepository
	messageRepo      repository.MessageRepository
	log              logger.Logger

	// instanceID отличает собственные публикации от чужих в pub/sub,
	// локальная доставка выполняется напрямую без круга через Redis
	instanceID uuid.UUID

	mu               sync.Mutex
	conversationSubs map[uuid.UUID]map[uuid.UUID]func(*domain.Conversation)
	messageSubs      map[uuid.UUID]map[uuid.UUID]func([]*domain.Message)
}

func NewSyncService(rdb *redis.Client, conversationRepo repository.ConversationRepository, messageRepo repository.MessageRepository, log logger.Logger) SyncService {
	return &syncService{
		rdb:              rdb,
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		log:              log,
		instanceID:       uuid.New(),
		conversationSubs: make(map[uuid.UUID]map[uuid.UUID]func(*domain.Conversation)),
		messageSubs:      make(map[uuid.UUID]map[uuid.UUID]func([]*domain.Message)),
	}
}

func (s *syncService) Start(ctx context.Context) {
	pubsub := s.rdb.Subscribe(ctx, conversationChangedChannel, messagesChangedChannel)

	go func() {
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var notice changeNotice
				if err := json.Unmarshal([]byte(msg.Payload), &notice); err != nil {
					s.log.Warn("Failed to decode change notice", "error", err)
					continue
				}
				if notice.Origin == s.instanceID {
					continue
				}

				switch msg.Channel {
				case conversationChangedChannel:
					s.dispatchConversation(ctx, notice.EventID)
				case messagesChangedChannel:
					s.dispatchMessages(ctx, notice.EventID)
				}
			}
		}
	}()
}

func (s *syncService) SubscribeConversation(ctx context.Context, eventID uuid.UUID, onChange func(*domain.Conversation)) func() {
	subID := uuid.New()

	s.mu.Lock()
	if s.conversationSubs[eventID] == nil {
		s.conversationSubs[eventID] = make(map[uuid.UUID]func(*domain.Conversation))
	}
	s.conversationSubs[eventID][subID] = onChange
	s.mu.Unlock()

	// Немедленный начальный снимок; если беседы еще нет - подписчик получит
	// первое уведомление после ее создания
	if conversation, err := s.conversationRepo.GetByEventID(ctx, eventID); err == nil {
		onChange(conversation)
	}

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if subs, ok := s.conversationSubs[eventID]; ok {
			delete(subs, subID)
			if len(subs) == 0 {
				delete(s.conversationSubs, eventID)
			}
		}
	}
}

func (s *syncService) SubscribeMessages(ctx context.Context, eventID uuid.UUID, onChange func([]*domain.Message)) func() {
	subID := uuid.New()

	s.mu.Lock()
	if s.messageSubs[eventID] == nil {
		s.messageSubs[eventID] = make(map[uuid.UUID]func([]*domain.Message))
	}
	s.messageSubs[eventID][subID] = onChange
	s.mu.Unlock()

	onChange(s.snapshotMessages(ctx, eventID))

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if subs, ok := s.messageSubs[eventID]; ok {
			delete(subs, subID)
			if len(subs) == 0 {
				delete(s.messageSubs, eventID)
			}
		}
	}
}

func (s *syncService) PublishConversation(ctx context.Context, eventID uuid.UUID) {
	s.dispatchConversation(ctx, eventID)
	s.publishNotice(ctx, conversationChangedChannel, eventID)
}

func (s *syncService) PublishMessages(ctx context.Context, eventID uuid.UUID) {
	s.dispatchMessages(ctx, eventID)
	s.publishNotice(ctx, messagesChangedChannel, eventID)
}

func (s *syncService) publishNotice(ctx context.Context, channel string, eventID uuid.UUID) {
	payload, err := json.Marshal(changeNotice{Origin: s.instanceID, EventID: eventID})
	if err != nil {
		s.log.Error("Failed to encode change notice", "error", err)
		return
	}

	if err := s.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		s.log.Warn("Failed to publish change notice", "error", err, "channel", channel, "event_id", eventID)
	}
}

func (s *syncService) dispatchConversation(ctx context.Context, eventID uuid.UUID) {
	conversation, err := s.conversationRepo.GetByEventID(ctx, eventID)
	if err != nil {
		s.log.Warn("Failed to load conversation snapshot", "error", err, "event_id", eventID)
		return
	}

	for _, onChange := range s.conversationSubscribers(eventID) {
		onChange(conversation)
	}
}

func (s *syncService) dispatchMessages(ctx context.Context, eventID uuid.UUID) {
	snapshot := s.snapshotMessages(ctx, eventID)
	for _, onChange := range s.messageSubscribers(eventID) {
		onChange(snapshot)
	}
}

func (s *syncService) snapshotMessages(ctx context.Context, eventID uuid.UUID) []*domain.Message {
	messages, err := s.messageRepo.ListByEventID(ctx, eventID)
	if err != nil {
		s.log.Warn("Failed to load messages snapshot", "error", err, "event_id", eventID)
		return []*domain.Message{}
	}
	if messages == nil {
		messages = []*domain.Message{}
	}
	return messages
}

func (s *syncService) conversationSubscribers(eventID uuid.UUID) []func(*domain.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := make([]func(*domain.Conversation), 0, len(s.conversationSubs[eventID]))
	for _, onChange := range s.conversationSubs[eventID] {
		subs = append(subs, onChange)
	}
	return subs
}

func (s *syncService) messageSubscribers(eventID uuid.UUID) []func([]*domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := make([]func([]*domain.Message), 0, len(s.messageSubs[eventID]))
	for _, onChange := range s.messageSubs[eventID] {
		subs = append(subs, onChange)
	}
	return subs
}
