package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vet_chat/internal/config"
	"vet_chat/internal/domain"
	"vet_chat/internal/handler"
	"vet_chat/internal/middleware"
	"vet_chat/internal/repository"
	"vet_chat/internal/service"
	"vet_chat/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.Log.Level)

	dbPool, err := pgxpool.New(context.Background(), cfg.Database.DSN)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", "error", err)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(context.Background()); err != nil {
		appLogger.Fatal("Failed to ping database", "error", err)
	}
	appLogger.Info("Database connection established")

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		appLogger.Fatal("Failed to connect to Redis", "error", err)
	}
	appLogger.Info("Redis connection established")

	repos := repository.NewRepositories(dbPool, rdb, appLogger)
	services := service.NewServices(repos, rdb, cfg, appLogger)

	// Подписка на изменения из других экземпляров сервиса
	syncCtx, stopSync := context.WithCancel(context.Background())
	defer stopSync()
	services.Sync.Start(syncCtx)

	identityMiddleware := middleware.NewIdentityMiddleware(cfg.Identity, appLogger)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(services.RateLimit, appLogger)

	handlers := handler.NewHandlers(services, dbPool, rdb, appLogger)

	router := setupRouter(handlers, identityMiddleware, rateLimitMiddleware, cfg, appLogger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		appLogger.Info("Starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	stopSync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", "error", err)
	}

	appLogger.Info("Server exited")
}

func setupRouter(
	handlers *handler.Handlers,
	identityMiddleware *middleware.IdentityMiddleware,
	rateLimitMiddleware *middleware.RateLimitMiddleware,
	cfg *config.Config,
	log logger.Logger,
) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.ErrorHandler())

	router.GET("/health", handlers.Health.Check)

	v1 := router.Group("/api/v1")
	v1.Use(identityMiddleware.RequireIdentity())
	{
		chat := v1.Group("/appointments/:id/chat")
		{
			chat.POST("", handlers.Chat.OpenOrCreate)
			chat.GET("", handlers.Chat.Get)
			chat.GET("/messages", handlers.Chat.GetMessages)
			chat.POST("/messages", rateLimitMiddleware.Limit(30, 60), handlers.Chat.SendMessage)
			chat.POST("/messages/read", handlers.Chat.MarkRead)

			// Жизненный цикл управляется внешним планировщиком приемов
			scheduler := chat.Group("")
			scheduler.Use(identityMiddleware.RequireRole(domain.RoleScheduler))
			{
				scheduler.POST("/close", handlers.Lifecycle.Close)
				scheduler.POST("/reopen", handlers.Lifecycle.Reopen)
			}
		}
	}

	// WebSocket endpoint для живых обновлений чата
	ws := router.Group("/ws")
	ws.Use(identityMiddleware.RequireIdentity())
	{
		ws.GET("/appointments/:id/chat", handlers.WebSocket.HandleChat)
	}

	return router
}
