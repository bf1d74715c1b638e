package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/admission-desk/backend/internal/models"
)

// Tracker maintains per-employee work sessions: one WorkDay per calendar date
// with breaks and a processed-applications counter.
type Tracker struct {
	store  Storage
	logger zerolog.Logger
	now    func() time.Time
}

func NewTracker(store Storage, logger zerolog.Logger) *Tracker {
	return &Tracker{store: store, logger: logger, now: time.Now}
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// breakSeconds returns the break's length, honoring administrative duration
// overrides for closed breaks. An open break is still counting.
func breakSeconds(b models.Break, now time.Time) int64 {
	if b.EndTime != nil {
		return b.Duration
	}
	s := int64(now.Sub(b.StartTime).Seconds())
	if s < 0 {
		return 0
	}
	return s
}

// WorkDuration is (end or now) - start - sum of breaks, in seconds, clamped at
// zero so mis-recorded breaks can never drive it negative.
func WorkDuration(day models.WorkDay, now time.Time) int64 {
	end := now
	if day.EndTime != nil {
		end = *day.EndTime
	}
	total := int64(end.Sub(day.StartTime).Seconds())
	for _, b := range day.Breaks {
		total -= breakSeconds(b, now)
	}
	if total < 0 {
		return 0
	}
	return total
}

func openBreak(day models.WorkDay) *models.Break {
	for i := range day.Breaks {
		if day.Breaks[i].EndTime == nil {
			return &day.Breaks[i]
		}
	}
	return nil
}

func (t *Tracker) StartDay(ctx context.Context, ident Identity) (models.WorkDay, error) {
	if _, err := t.store.GetOpenWorkDay(ctx, ident.EmployeeID); err == nil {
		return models.WorkDay{}, ErrInvalidWorkdayTransition
	}

	now := t.now()
	today := dateOf(now)
	days, err := t.store.ListWorkDays(ctx, today)
	if err != nil {
		return models.WorkDay{}, err
	}
	for _, d := range days {
		if d.EmployeeID == ident.EmployeeID {
			// One WorkDay per employee per date, even after finishing early.
			return models.WorkDay{}, ErrInvalidWorkdayTransition
		}
	}

	day := models.WorkDay{
		EmployeeID: ident.EmployeeID,
		Date:       today,
		StartTime:  now,
		Status:     models.WorkDayActive,
	}
	day, err = t.store.CreateWorkDay(ctx, day)
	if err != nil {
		return models.WorkDay{}, err
	}
	t.logger.Info().Int64("employee_id", ident.EmployeeID).Msg("work day started")
	return day, nil
}

func (t *Tracker) Pause(ctx context.Context, ident Identity) (models.WorkDay, error) {
	day, err := t.store.GetOpenWorkDay(ctx, ident.EmployeeID)
	if err != nil {
		return models.WorkDay{}, ErrInvalidWorkdayTransition
	}
	if day.Status != models.WorkDayActive {
		return models.WorkDay{}, ErrInvalidWorkdayTransition
	}
	day.Status = models.WorkDayPaused
	if err := t.store.SaveWorkDay(ctx, day); err != nil {
		return models.WorkDay{}, err
	}
	return day, nil
}

func (t *Tracker) Resume(ctx context.Context, ident Identity) (models.WorkDay, error) {
	day, err := t.store.GetOpenWorkDay(ctx, ident.EmployeeID)
	if err != nil {
		return models.WorkDay{}, ErrInvalidWorkdayTransition
	}
	if day.Status != models.WorkDayPaused {
		return models.WorkDay{}, ErrInvalidWorkdayTransition
	}
	day.Status = models.WorkDayActive
	if err := t.store.SaveWorkDay(ctx, day); err != nil {
		return models.WorkDay{}, err
	}
	return day, nil
}

func (t *Tracker) FinishDay(ctx context.Context, ident Identity) (models.WorkDay, error) {
	day, err := t.store.GetOpenWorkDay(ctx, ident.EmployeeID)
	if err != nil {
		return models.WorkDay{}, ErrInvalidWorkdayTransition
	}

	now := t.now()
	if b := openBreak(day); b != nil {
		end := now
		b.EndTime = &end
		b.Duration = int64(end.Sub(b.StartTime).Seconds())
	}
	day.Status = models.WorkDayFinished
	day.EndTime = &now
	if err := t.store.SaveWorkDay(ctx, day); err != nil {
		return models.WorkDay{}, err
	}
	t.logger.Info().Int64("employee_id", ident.EmployeeID).Msg("work day finished")
	return day, nil
}

func (t *Tracker) StartBreak(ctx context.Context, ident Identity) (models.WorkDay, error) {
	day, err := t.store.GetOpenWorkDay(ctx, ident.EmployeeID)
	if err != nil {
		return models.WorkDay{}, ErrInvalidWorkdayTransition
	}
	if day.Status != models.WorkDayActive || openBreak(day) != nil {
		return models.WorkDay{}, ErrInvalidWorkdayTransition
	}
	day.Breaks = append(day.Breaks, models.Break{
		WorkDayID: day.ID,
		StartTime: t.now(),
	})
	if err := t.store.SaveWorkDay(ctx, day); err != nil {
		return models.WorkDay{}, err
	}
	return day, nil
}

func (t *Tracker) EndBreak(ctx context.Context, ident Identity) (models.WorkDay, error) {
	day, err := t.store.GetOpenWorkDay(ctx, ident.EmployeeID)
	if err != nil {
		return models.WorkDay{}, ErrInvalidWorkdayTransition
	}
	b := openBreak(day)
	if b == nil {
		return models.WorkDay{}, ErrInvalidWorkdayTransition
	}
	end := t.now()
	b.EndTime = &end
	b.Duration = int64(end.Sub(b.StartTime).Seconds())
	if err := t.store.SaveWorkDay(ctx, day); err != nil {
		return models.WorkDay{}, err
	}
	return day, nil
}

// CurrentDay returns the caller's open WorkDay, or ErrNotFound.
func (t *Tracker) CurrentDay(ctx context.Context, ident Identity) (models.WorkDay, error) {
	return t.store.GetOpenWorkDay(ctx, ident.EmployeeID)
}

// SetWorkTime rewrites a WorkDay wholesale, bypassing the state machine.
// Admin only; every rewritten field lands in the audit trail.
func (t *Tracker) SetWorkTime(ctx context.Context, ident Identity, workdayID int64, start time.Time, end *time.Time, status models.WorkDayStatus, breaks []models.Break) (models.WorkDay, error) {
	if !ident.IsAdmin {
		return models.WorkDay{}, ErrPermissionDenied
	}
	if end != nil && end.Before(start) {
		return models.WorkDay{}, ErrInvalidWorkdayTransition
	}
	if status == models.WorkDayFinished && end == nil {
		return models.WorkDay{}, ErrInvalidWorkdayTransition
	}

	day, err := t.store.GetWorkDayByID(ctx, workdayID)
	if err != nil {
		return models.WorkDay{}, err
	}

	day.StartTime = start
	day.EndTime = end
	day.Status = status
	for i := range breaks {
		breaks[i].WorkDayID = day.ID
		if breaks[i].EndTime != nil && breaks[i].Duration == 0 {
			breaks[i].Duration = int64(breaks[i].EndTime.Sub(breaks[i].StartTime).Seconds())
		}
	}
	day.Breaks = breaks

	if err := t.store.SaveWorkDay(ctx, day); err != nil {
		return models.WorkDay{}, err
	}

	now := t.now()
	audit := []models.AuditEvent{
		{WorkDayID: day.ID, ActorID: ident.EmployeeID, Field: "work_time", Value: fmt.Sprintf("start=%s end=%v status=%s", start.Format(time.RFC3339), fmtTimePtr(end), status), CreatedAt: now},
		{WorkDayID: day.ID, ActorID: ident.EmployeeID, Field: "breaks", Value: fmt.Sprintf("count=%d", len(breaks)), CreatedAt: now},
	}
	if err := t.store.AppendAuditEvents(ctx, audit); err != nil {
		return models.WorkDay{}, err
	}

	t.logger.Warn().
		Int64("workday_id", day.ID).
		Int64("admin_id", ident.EmployeeID).
		Msg("work time overridden")
	return day, nil
}

// SetApplicationsProcessed overrides the day's counter. Admin only.
func (t *Tracker) SetApplicationsProcessed(ctx context.Context, ident Identity, workdayID int64, count int) (models.WorkDay, error) {
	if !ident.IsAdmin {
		return models.WorkDay{}, ErrPermissionDenied
	}
	if count < 0 {
		return models.WorkDay{}, ErrInvalidWorkdayTransition
	}

	day, err := t.store.GetWorkDayByID(ctx, workdayID)
	if err != nil {
		return models.WorkDay{}, err
	}
	day.ApplicationsProcessed = count
	if err := t.store.SaveWorkDay(ctx, day); err != nil {
		return models.WorkDay{}, err
	}

	audit := []models.AuditEvent{{
		WorkDayID: day.ID,
		ActorID:   ident.EmployeeID,
		Field:     "applications_processed",
		Value:     fmt.Sprintf("%d", count),
		CreatedAt: t.now(),
	}}
	if err := t.store.AppendAuditEvents(ctx, audit); err != nil {
		return models.WorkDay{}, err
	}
	return day, nil
}

func fmtTimePtr(t *time.Time) string {
	if t == nil {
		return "null"
	}
	return t.Format(time.RFC3339)
}
