package handler

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"vet_chat/internal/service"
	"vet_chat/pkg/logger"
)

type Handlers struct {
	Health    *HealthHandler
	Chat      *ChatHandler
	Lifecycle *LifecycleHandler
	WebSocket *WebSocketHandler
}

func NewHandlers(services *service.Services, db *pgxpool.Pool, rdb *redis.Client, log logger.Logger) *Handlers {
	return &Handlers{
		Health:    NewHealthHandler(db, rdb),
		Chat:      NewChatHandler(services.Conversation, services.Message, log),
		Lifecycle: NewLifecycleHandler(services.Lifecycle, log),
		WebSocket: NewWebSocketHandler(services.Sync, log),
	}
}
