package service

import (
	"github.com/redis/go-redis/v9"
	"vet_chat/internal/config"
	"vet_chat/internal/repository"
	"vet_chat/pkg/logger"
)

type Services struct {
	Conversation ConversationService
	Message      MessageService
	Lifecycle    LifecycleService
	Sync         SyncService
	RateLimit    RateLimitService
}

func NewServices(repos *repository.Repositories, rdb *redis.Client, cfg *config.Config, log logger.Logger) *Services {
	sync := NewSyncService(rdb, repos.Conversation, repos.Message, log)
	conversations := NewConversationService(repos.Conversation, repos.Audit, sync, log)
	lifecycle := NewLifecycleService(repos.Conversation, repos.Audit, sync, log)

	return &Services{
		Conversation: conversations,
		Message:      NewMessageService(repos.Message, repos.Audit, conversations, lifecycle, sync, log),
		Lifecycle:    lifecycle,
		Sync:         sync,
		RateLimit:    NewRateLimitService(repos.RateLimit, log),
	}
}
