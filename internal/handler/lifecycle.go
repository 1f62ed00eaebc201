package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"vet_chat/internal/service"
	apperrors "vet_chat/pkg/errors"
	"vet_chat/pkg/logger"
)

// LifecycleHandler - endpoints для внешнего планировщика приемов: закрытие
// чата по завершении приема и административное переоткрытие.
type LifecycleHandler struct {
	lifecycleService service.LifecycleService
	log              logger.Logger
}

func NewLifecycleHandler(lifecycleService service.LifecycleService, log logger.Logger) *LifecycleHandler {
	return &LifecycleHandler{
		lifecycleService: lifecycleService,
		log:              log,
	}
}

func (h *LifecycleHandler) Close(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid appointment ID"})
		return
	}

	actorID, role, ok := callerIdentity(c)
	if !ok {
		return
	}

	if err := h.lifecycleService.Close(c.Request.Context(), eventID, &actorID, role); err != nil {
		c.JSON(apperrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "closed"})
}

func (h *LifecycleHandler) Reopen(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid appointment ID"})
		return
	}

	actorID, role, ok := callerIdentity(c)
	if !ok {
		return
	}

	if err := h.lifecycleService.Reopen(c.Request.Context(), eventID, &actorID, role); err != nil {
		c.JSON(apperrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "open"})
}
