package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"vet_chat/internal/domain"
	"vet_chat/internal/middleware"
	"vet_chat/internal/service"
	apperrors "vet_chat/pkg/errors"
	"vet_chat/pkg/logger"
)

type ChatHandler struct {
	conversationService service.ConversationService
	messageService      service.MessageService
	log                 logger.Logger
}

func NewChatHandler(conversationService service.ConversationService, messageService service.MessageService, log logger.Logger) *ChatHandler {
	return &ChatHandler{
		conversationService: conversationService,
		messageService:      messageService,
		log:                 log,
	}
}

// OpenOrCreate открывает чат по записи на прием. Вызывающий заполняет слот
// своей роли; слот второго участника заполнится его собственным вызовом.
func (h *ChatHandler) OpenOrCreate(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid appointment ID"})
		return
	}

	participantID, role, ok := callerIdentity(c)
	if !ok {
		return
	}

	var ownerID, vetID *uuid.UUID
	switch role {
	case domain.RoleOwner:
		ownerID = &participantID
	case domain.RoleVet:
		vetID = &participantID
	default:
		c.JSON(http.StatusForbidden, gin.H{"error": "only chat participants can open a conversation"})
		return
	}

	conversation, err := h.conversationService.OpenOrCreate(c.Request.Context(), eventID, ownerID, vetID)
	if err != nil {
		c.JSON(apperrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, conversation)
}

func (h *ChatHandler) Get(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid appointment ID"})
		return
	}

	conversation, err := h.conversationService.Get(c.Request.Context(), eventID)
	if err != nil {
		c.JSON(apperrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, conversation)
}

func (h *ChatHandler) GetMessages(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid appointment ID"})
		return
	}

	messages, err := h.messageService.ListOrdered(c.Request.Context(), eventID)
	if err != nil {
		c.JSON(apperrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, messages)
}

type SendMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid appointment ID"})
		return
	}

	participantID, role, ok := callerIdentity(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := h.messageService.Append(c.Request.Context(), eventID, participantID, role, req.Text)
	if err != nil {
		c.JSON(apperrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, message)
}

type MarkReadRequest struct {
	MessageIDs []int64 `json:"message_ids" binding:"required"`
}

func (h *ChatHandler) MarkRead(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid appointment ID"})
		return
	}

	var req MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.messageService.MarkRead(c.Request.Context(), eventID, req.MessageIDs); err != nil {
		c.JSON(apperrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func callerIdentity(c *gin.Context) (uuid.UUID, string, bool) {
	participantID, exists := c.Get(middleware.ContextParticipantID)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "participant not authenticated"})
		return uuid.Nil, "", false
	}

	role, exists := c.Get(middleware.ContextParticipantRole)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "participant role missing"})
		return uuid.Nil, "", false
	}

	return participantID.(uuid.UUID), role.(string), true
}
