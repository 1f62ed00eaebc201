package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"vet_chat/internal/domain"
	"vet_chat/internal/service"
	"vet_chat/pkg/logger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // В продакшене нужно проверять origin
	},
}

const (
	FrameTypeConversation = "conversation"
	FrameTypeMessages     = "messages"
)

// ChatFrame - кадр, уходящий в websocket: полный снимок беседы или ленты
// сообщений, не дифф.
type ChatFrame struct {
	Type         string               `json:"type"`
	Conversation *domain.Conversation `json:"conversation,omitempty"`
	Messages     []*domain.Message    `json:"messages,omitempty"`
}

type WebSocketHandler struct {
	syncService service.SyncService
	log         logger.Logger
}

func NewWebSocketHandler(syncService service.SyncService, log logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		syncService: syncService,
		log:         log,
	}
}

// HandleChat держит долгоживущее соединение: сразу после подписки клиент
// получает начальные снимки беседы и сообщений, затем снимок на каждое
// изменение до отключения.
func (h *WebSocketHandler) HandleChat(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid appointment ID"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return
	}
	defer conn.Close()

	frames := make(chan ChatFrame, 32)

	unsubscribeConversation := h.syncService.SubscribeConversation(c.Request.Context(), eventID, func(conversation *domain.Conversation) {
		h.enqueue(frames, ChatFrame{Type: FrameTypeConversation, Conversation: conversation})
	})
	defer unsubscribeConversation()

	unsubscribeMessages := h.syncService.SubscribeMessages(c.Request.Context(), eventID, func(messages []*domain.Message) {
		h.enqueue(frames, ChatFrame{Type: FrameTypeMessages, Messages: messages})
	})
	defer unsubscribeMessages()

	// Читаем только для обнаружения закрытия со стороны клиента
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case frame := <-frames:
			if err := conn.WriteJSON(frame); err != nil {
				h.log.Warn("Failed to write frame", "error", err, "event_id", eventID)
				return
			}
		}
	}
}

func (h *WebSocketHandler) enqueue(frames chan ChatFrame, frame ChatFrame) {
	select {
	case frames <- frame:
	default:
		// Медленный клиент: снимок самодостаточен, пропуск не ломает состояние
		h.log.Warn("Dropping frame for slow subscriber", "type", frame.Type)
	}
}
