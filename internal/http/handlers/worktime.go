package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/admission-desk/backend/internal/http/middleware"
	"github.com/admission-desk/backend/internal/models"
	"github.com/admission-desk/backend/internal/service"
)

type workDayResponse struct {
	models.WorkDay
	WorkSeconds int64 `json:"work_seconds"`
}

func (h *Handler) workDayJSON(c *gin.Context, day models.WorkDay) {
	c.JSON(http.StatusOK, workDayResponse{
		WorkDay:     day,
		WorkSeconds: service.WorkDuration(day, time.Now()),
	})
}

// WorkdayEvent wires one Tracker transition into a handler.
func (h *Handler) WorkdayEvent(fn func(context.Context, service.Identity) (models.WorkDay, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		day, err := fn(c.Request.Context(), middleware.CallerIdentity(c))
		if err != nil {
			writeServiceError(c, err)
			return
		}
		h.workDayJSON(c, day)
	}
}

// @Summary Current work day
// @Tags workday
// @Produce json
// @Success 200 {object} workDayResponse
// @Failure 404 {object} map[string]any
// @Router /api/workday [get]
func (h *Handler) CurrentWorkDay(c *gin.Context) {
	day, err := h.Tracker.CurrentDay(c.Request.Context(), middleware.CallerIdentity(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	h.workDayJSON(c, day)
}

type breakRequest struct {
	StartTime time.Time  `json:"start_time" binding:"required"`
	EndTime   *time.Time `json:"end_time"`
	Duration  int64      `json:"duration"`
}

type setWorkTimeRequest struct {
	StartTime time.Time            `json:"start_time" binding:"required"`
	EndTime   *time.Time           `json:"end_time"`
	Status    models.WorkDayStatus `json:"status" binding:"required,oneof=active paused finished"`
	Breaks    []breakRequest       `json:"breaks"`
}

// @Summary Override a work day (admin)
// @Description Rewrites start/end/status/breaks bypassing the state machine
// @Tags workday
// @Accept json
// @Produce json
// @Param id path int true "workday id"
// @Param request body setWorkTimeRequest true "new work time"
// @Success 200 {object} workDayResponse
// @Router /api/workdays/{id}/worktime [put]
func (h *Handler) SetWorkTime(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid workday id", nil)
		return
	}
	var req setWorkTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid work time payload", err.Error())
		return
	}

	breaks := make([]models.Break, 0, len(req.Breaks))
	for _, b := range req.Breaks {
		breaks = append(breaks, models.Break{
			StartTime: b.StartTime,
			EndTime:   b.EndTime,
			Duration:  b.Duration,
		})
	}

	day, err := h.Tracker.SetWorkTime(c.Request.Context(), middleware.CallerIdentity(c), id, req.StartTime, req.EndTime, req.Status, breaks)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	h.workDayJSON(c, day)
}

type setProcessedRequest struct {
	Count *int `json:"count" binding:"required"`
}

// @Summary Override the processed counter (admin)
// @Tags workday
// @Accept json
// @Produce json
// @Param id path int true "workday id"
// @Param request body setProcessedRequest true "new counter value"
// @Success 200 {object} workDayResponse
// @Router /api/workdays/{id}/applications-processed [put]
func (h *Handler) SetApplicationsProcessed(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid workday id", nil)
		return
	}
	var req setProcessedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "count required", err.Error())
		return
	}

	day, err := h.Tracker.SetApplicationsProcessed(c.Request.Context(), middleware.CallerIdentity(c), id, *req.Count)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	h.workDayJSON(c, day)
}
