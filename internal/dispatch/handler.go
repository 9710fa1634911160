package dispatch

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"runmatch/internal/offer"
	"runmatch/internal/task"
)

// signalRequest is the body of accept/decline calls.
type signalRequest struct {
	PerformerID string `json:"performer_id" binding:"required"`
}

// Handler exposes the dispatch HTTP endpoints.
type Handler struct {
	svc     *Dispatcher
	timeout time.Duration
}

// NewHandler creates the dispatch handler.
func NewHandler(svc *Dispatcher) *Handler {
	return &Handler{
		svc:     svc,
		timeout: 5 * time.Second,
	}
}

// RegisterRoutes registers the /tasks and /offers routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/tasks/:id", h.dispatch)
	rg.GET("/tasks/:id", h.status)
	rg.POST("/tasks/:id/cancel", h.cancel)
	rg.POST("/offers/:id/accept", h.accept)
	rg.POST("/offers/:id/decline", h.decline)
}

func (h *Handler) dispatch(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	err := h.svc.Dispatch(ctx, c.Param("id"))
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, gin.H{"status": "dispatching"})
	case errors.Is(err, task.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown task"})
	case errors.Is(err, task.ErrInvalidTask):
		c.JSON(http.StatusBadRequest, gin.H{"error": "task has no categories or no origin"})
	case errors.Is(err, ErrAlreadyDispatching), errors.Is(err, task.ErrStatusConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "task is not pending dispatch"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "dispatch failed"})
	}
}

func (h *Handler) status(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	st, err := h.svc.Status(ctx, c.Param("id"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, st)
	case errors.Is(err, task.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown task"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "status lookup failed"})
	}
}

func (h *Handler) cancel(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	err := h.svc.Cancel(ctx, c.Param("id"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
	case errors.Is(err, task.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown task"})
	case errors.Is(err, task.ErrStatusConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "task already settled"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cancel failed"})
	}
}

func (h *Handler) accept(c *gin.Context) {
	h.signal(c, h.svc.Accept)
}

func (h *Handler) decline(c *gin.Context) {
	h.signal(c, h.svc.Decline)
}

func (h *Handler) signal(c *gin.Context, deliver func(context.Context, string, string) error) {
	var req signalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload", "details": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	err := deliver(ctx, c.Param("id"), req.PerformerID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "delivered"})
	case errors.Is(err, offer.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown offer"})
	case errors.Is(err, offer.ErrStaleTransition):
		// Resolved already; the signal is a no-op, not a failure.
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signal delivery failed"})
	}
}
