package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// @Summary Per-queue statistics
// @Description Counts partitioned by status for every queue type
// @Tags reports
// @Produce json
// @Success 200 {array} models.QueueStatistics
// @Router /api/statistics/queues [get]
func (h *Handler) QueueStatistics(c *gin.Context) {
	stats, err := h.Coordinator.QueueStatistics(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// @Summary Employee status board
// @Tags reports
// @Produce json
// @Success 200 {array} models.EmployeeStatus
// @Router /api/employees/status [get]
func (h *Handler) EmployeeStatus(c *gin.Context) {
	board, err := h.Coordinator.EmployeeStatus(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

// @Summary Full per-employee day report
// @Tags reports
// @Produce json
// @Param date query string true "report date, YYYY-MM-DD"
// @Success 200 {array} models.DayReport
// @Router /api/reports/full [get]
func (h *Handler) FullReport(c *gin.Context) {
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "date must be YYYY-MM-DD", nil)
		return
	}
	report, err := h.Coordinator.FullReport(c.Request.Context(), date)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
