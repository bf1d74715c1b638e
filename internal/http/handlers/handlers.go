package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/admission-desk/backend/internal/db"
	"github.com/admission-desk/backend/internal/http/middleware"
	"github.com/admission-desk/backend/internal/models"
	"github.com/admission-desk/backend/internal/service"
)

type Handler struct {
	Store       *db.Store
	Coordinator *service.Coordinator
	Tracker     *service.Tracker
	Validator   *validator.Validate
	Logger      zerolog.Logger
}

func writeError(c *gin.Context, status int, code, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// writeServiceError maps the core error taxonomy onto HTTP statuses.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrQueueEmpty):
		writeError(c, http.StatusNotFound, "QUEUE_EMPTY", "No claimable application in queue", nil)
	case errors.Is(err, service.ErrNotFound):
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Unknown id", nil)
	case errors.Is(err, service.ErrPermissionDenied):
		writeError(c, http.StatusForbidden, "PERMISSION_DENIED", "Capability check failed", nil)
	case errors.Is(err, service.ErrInvalidTransition):
		writeError(c, http.StatusConflict, "INVALID_TRANSITION", "State and action do not match; refresh and retry", nil)
	case errors.Is(err, service.ErrInvalidWorkdayTransition):
		writeError(c, http.StatusConflict, "INVALID_WORKDAY_TRANSITION", "Work day state does not allow this event", nil)
	default:
		writeError(c, http.StatusInternalServerError, "INTERNAL", "Internal error", err.Error())
	}
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary List a queue
// @Description Applications waiting in one queue, priority first, oldest first
// @Tags queues
// @Produce json
// @Param queue path string true "queue type" Enums(lk, epgu, epgu_mail, epgu_problem)
// @Success 200 {array} models.Application
// @Failure 403 {object} map[string]any
// @Router /api/queues/{queue} [get]
func (h *Handler) QueueList(c *gin.Context) {
	queue := models.QueueType(c.Param("queue"))
	apps, err := h.Coordinator.ListQueue(c.Request.Context(), middleware.CallerIdentity(c), queue)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

// @Summary Search a queue
// @Tags queues
// @Produce json
// @Param queue path string true "queue type"
// @Param q query string true "name substring or application id"
// @Success 200 {array} models.Application
// @Router /api/queues/{queue}/search [get]
func (h *Handler) QueueSearch(c *gin.Context) {
	queue := models.QueueType(c.Param("queue"))
	query := c.Query("q")
	if query == "" {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "q parameter required", nil)
		return
	}
	apps, err := h.Coordinator.SearchQueue(c.Request.Context(), middleware.CallerIdentity(c), queue, query)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

// @Summary Take the next application
// @Description Atomically claims the queue head for the caller
// @Tags queues
// @Produce json
// @Param queue path string true "queue type"
// @Success 200 {object} models.Application
// @Failure 404 {object} map[string]any "queue empty"
// @Router /api/queues/{queue}/take [post]
func (h *Handler) TakeNext(c *gin.Context) {
	queue := models.QueueType(c.Param("queue"))
	app, err := h.Coordinator.TakeNext(c.Request.Context(), middleware.CallerIdentity(c), queue)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

type processRequest struct {
	Action models.Action `json:"action" validate:"required"`
	Reason string        `json:"reason"`
}

// @Summary Process a claimed application
// @Description Applies one lifecycle action; the caller must hold the claim
// @Tags applications
// @Accept json
// @Produce json
// @Param id path int true "application id"
// @Param request body processRequest true "action and optional reason"
// @Success 200 {object} models.Application
// @Failure 409 {object} map[string]any "invalid transition"
// @Router /api/applications/{id}/process [post]
func (h *Handler) ProcessApplication(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid application id", nil)
		return
	}
	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	app, err := h.Coordinator.ProcessApplication(c.Request.Context(), middleware.CallerIdentity(c), id, req.Action, req.Reason)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// @Summary Force release an abandoned claim
// @Description Returns a stuck in_progress application to its queue. Admin only.
// @Tags applications
// @Produce json
// @Param id path int true "application id"
// @Success 200 {object} models.Application
// @Router /api/applications/{id}/release [post]
func (h *Handler) ForceRelease(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid application id", nil)
		return
	}
	app, err := h.Coordinator.ForceRelease(c.Request.Context(), middleware.CallerIdentity(c), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}
