package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/admission-desk/backend/internal/models"
)

// Employee status board values.
const (
	EmployeeNotWorking  = "not_working"
	EmployeeWorking     = "working"
	EmployeeOnBreak     = "on_break"
	EmployeeDayFinished = "day_finished"
)

// QueueStatistics returns per-queue counts partitioned by status. Stuck
// in_progress rows (abandoned claims) stay visible here.
func (c *Coordinator) QueueStatistics(ctx context.Context) ([]models.QueueStatistics, error) {
	counts, err := c.store.QueueCounts(ctx)
	if err != nil {
		return nil, err
	}

	byQueue := make(map[models.QueueType]models.QueueStatistics, len(counts))
	for _, s := range counts {
		byQueue[s.QueueType] = s
	}
	// Every queue type is reported, zeroes included.
	out := make([]models.QueueStatistics, 0, len(models.QueueTypes))
	for _, q := range models.QueueTypes {
		s := byQueue[q]
		s.QueueType = q
		out = append(out, s)
	}
	return out, nil
}

// EmployeeStatus builds the status board: who is working, on break or done,
// with running work duration and the application currently held.
func (c *Coordinator) EmployeeStatus(ctx context.Context) ([]models.EmployeeStatus, error) {
	employees, err := c.store.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}
	now := c.now()
	days, err := c.store.ListWorkDays(ctx, dateOf(now))
	if err != nil {
		return nil, err
	}
	dayByEmployee := make(map[int64]models.WorkDay, len(days))
	for _, d := range days {
		dayByEmployee[d.EmployeeID] = d
	}

	out := make([]models.EmployeeStatus, 0, len(employees))
	for _, emp := range employees {
		st := models.EmployeeStatus{
			ID:      emp.ID,
			FIO:     emp.FIO,
			IsAdmin: emp.IsAdmin,
			Status:  EmployeeNotWorking,
		}

		if day, ok := dayByEmployee[emp.ID]; ok {
			start := day.StartTime
			st.StartTime = &start
			switch {
			case day.Status == models.WorkDayFinished:
				st.Status = EmployeeDayFinished
			case day.Status == models.WorkDayPaused || openBreak(day) != nil:
				st.Status = EmployeeOnBreak
			default:
				st.Status = EmployeeWorking
			}
			st.WorkDuration = formatHHMM(WorkDuration(day, now))
		}

		if claim, ok := c.claims.heldBy(emp.ID); ok {
			if app, err := c.store.GetApplication(ctx, claim.ApplicationID); err == nil {
				task := fmt.Sprintf("application #%d (%s)", app.ID, app.FIO)
				st.CurrentTask = &task
			}
		}
		out = append(out, st)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// FullReport joins each employee with their WorkDay on the given date.
// Employees without one are reported with null work fields.
func (c *Coordinator) FullReport(ctx context.Context, date time.Time) ([]models.DayReport, error) {
	employees, err := c.store.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}
	days, err := c.store.ListWorkDays(ctx, dateOf(date))
	if err != nil {
		return nil, err
	}
	dayByEmployee := make(map[int64]models.WorkDay, len(days))
	for _, d := range days {
		dayByEmployee[d.EmployeeID] = d
	}

	now := c.now()
	out := make([]models.DayReport, 0, len(employees))
	for _, emp := range employees {
		row := models.DayReport{
			EmployeeID: emp.ID,
			FIO:        emp.FIO,
			Date:       dateOf(date).Format("2006-01-02"),
		}
		if day, ok := dayByEmployee[emp.ID]; ok {
			start := day.StartTime
			status := day.Status
			row.StartTime = &start
			row.EndTime = day.EndTime
			row.Status = &status
			row.Breaks = day.Breaks
			for _, b := range day.Breaks {
				row.TotalBreakSeconds += breakSeconds(b, now)
			}
			row.TotalWorkSeconds = WorkDuration(day, now)
			row.ApplicationsProcessed = day.ApplicationsProcessed
		}
		out = append(out, row)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

func formatHHMM(seconds int64) string {
	return fmt.Sprintf("%02d:%02d", seconds/3600, (seconds%3600)/60)
}
