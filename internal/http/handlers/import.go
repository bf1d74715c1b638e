package handlers

import (
	"encoding/csv"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/admission-desk/backend/internal/http/middleware"
	"github.com/admission-desk/backend/internal/models"
)

type ImportSummary struct {
	Parsed   int      `json:"parsed"`
	Inserted int      `json:"inserted"`
	Errors   []string `json:"errors"`
}

// @Summary Import applications from CSV
// @Description Upload an applications CSV (fio, submitted_at, queue_type, is_priority)
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param applications formData file true "applications.csv"
// @Success 200 {object} ImportSummary
// @Failure 400 {object} map[string]any
// @Router /api/import [post]
func (h *Handler) Import(c *gin.Context) {
	file, err := c.FormFile("applications")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "applications file required", nil)
		return
	}
	if !validateExt(file.Filename) {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "file must be .csv", nil)
		return
	}

	apps, errs := parseApplicationsCSV(file)
	summary := ImportSummary{Parsed: len(apps), Errors: errs}
	if summary.Errors == nil {
		summary.Errors = []string{}
	}
	if len(errs) > 0 {
		writeError(c, http.StatusBadRequest, "CSV_PARSE_ERROR", "CSV validation errors", errs)
		return
	}

	inserted, err := h.Coordinator.ImportApplications(c.Request.Context(), middleware.CallerIdentity(c), apps)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	summary.Inserted = int(inserted)

	h.Logger.Info().Int("parsed", summary.Parsed).Int("inserted", summary.Inserted).Msg("applications imported")
	c.JSON(http.StatusOK, summary)
}

func parseApplicationsCSV(file *multipart.FileHeader) ([]models.Application, []string) {
	f, err := file.Open()
	if err != nil {
		return nil, []string{err.Error()}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	headers, err := reader.Read()
	if err != nil {
		return nil, []string{"failed to read header"}
	}
	index := headerIndex(headers)
	var errors []string
	var out []models.Application

	line := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			errors = append(errors, err.Error())
			continue
		}

		fio := getFieldAny(rec, index, "fio", "фио", "name", "applicant")
		submittedAtStr := getFieldAny(rec, index, "submitted_at", "submitted", "date", "дата подачи")
		queueStr := getFieldAny(rec, index, "queue_type", "queue", "очередь")
		priorityStr := getFieldAny(rec, index, "is_priority", "priority", "приоритет")

		if fio == "" {
			errors = append(errors, "line "+strconv.Itoa(line)+": fio required")
			continue
		}
		queue := models.QueueType(strings.ToLower(queueStr))
		if !queue.Valid() {
			errors = append(errors, "line "+strconv.Itoa(line)+": unknown queue type "+strconv.Quote(queueStr))
			continue
		}
		submittedAt, err := time.Parse(time.RFC3339, submittedAtStr)
		if err != nil {
			submittedAt = time.Now().UTC()
		}
		priority := false
		if priorityStr != "" {
			priority, _ = strconv.ParseBool(priorityStr)
		}

		out = append(out, models.Application{
			FIO:         fio,
			QueueType:   queue,
			IsPriority:  priority,
			SubmittedAt: submittedAt,
		})
	}
	return out, errors
}

func headerIndex(headers []string) map[string]int {
	idx := map[string]int{}
	for i, h := range headers {
		idx[normalizeHeader(h)] = i
	}
	return idx
}

func getField(rec []string, idx map[string]int, name string) string {
	pos, ok := idx[name]
	if !ok || pos >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[pos])
}

func getFieldAny(rec []string, idx map[string]int, names ...string) string {
	for _, name := range names {
		if v := getField(rec, idx, normalizeHeader(name)); v != "" {
			return v
		}
	}
	return ""
}

func normalizeHeader(h string) string {
	h = strings.ReplaceAll(h, "\uFEFF", "")
	return strings.ToLower(strings.TrimSpace(h))
}

func validateExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".csv"
}
