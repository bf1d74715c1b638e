package service

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/admission-desk/backend/internal/models"
)

// memStore is an in-memory Storage used by the service tests.
type memStore struct {
	mu        sync.Mutex
	nextAppID int64
	nextDayID int64
	apps      map[int64]models.Application
	employees map[int64]models.Employee
	days      map[int64]models.WorkDay
	events    []models.ApplicationEvent
	audits    []models.AuditEvent
}

func newMemStore() *memStore {
	return &memStore{
		apps:      make(map[int64]models.Application),
		employees: make(map[int64]models.Employee),
		days:      make(map[int64]models.WorkDay),
	}
}

func (m *memStore) addApplication(app models.Application) models.Application {
	m.mu.Lock()
	defer m.mu.Unlock()
	if app.ID == 0 {
		m.nextAppID++
		app.ID = m.nextAppID
	} else if app.ID > m.nextAppID {
		m.nextAppID = app.ID
	}
	if app.Status == "" {
		app.Status = app.QueueType.ClaimableStatus()
	}
	m.apps[app.ID] = app
	return app
}

func (m *memStore) addEmployee(emp models.Employee) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[emp.ID] = emp
}

func (m *memStore) GetApplication(_ context.Context, id int64) (models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.apps[id]
	if !ok {
		return models.Application{}, ErrNotFound
	}
	return app, nil
}

func (m *memStore) claimableLocked(queue models.QueueType, now time.Time) []models.Application {
	var out []models.Application
	want := queue.ClaimableStatus()
	for _, app := range m.apps {
		if app.QueueType != queue || app.Status != want {
			continue
		}
		if app.PostponedUntil != nil && app.PostponedUntil.After(now) {
			continue
		}
		out = append(out, app)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsPriority != out[j].IsPriority {
			return out[i].IsPriority
		}
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.Before(out[j].SubmittedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *memStore) ListClaimable(_ context.Context, queue models.QueueType, now time.Time) ([]models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.claimableLocked(queue, now), nil
}

func (m *memStore) SearchApplications(_ context.Context, queue models.QueueType, query string) ([]models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := strings.ToLower(strings.TrimSpace(query))
	var out []models.Application
	for _, app := range m.apps {
		if app.QueueType != queue {
			continue
		}
		if strings.Contains(strings.ToLower(app.FIO), q) || strings.Contains(strconv.FormatInt(app.ID, 10), q) {
			out = append(out, app)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ClaimNext(_ context.Context, queue models.QueueType, employeeID int64, now time.Time) (models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	claimable := m.claimableLocked(queue, now)
	if len(claimable) == 0 {
		return models.Application{}, ErrQueueEmpty
	}
	app := claimable[0]
	app.Status = models.StatusInProgress
	m.apps[app.ID] = app
	m.events = append(m.events, models.ApplicationEvent{
		ApplicationID: app.ID,
		Event:         "claimed",
		ActorID:       &employeeID,
		CreatedAt:     now,
	})
	return app, nil
}

func (m *memStore) ApplyTransition(_ context.Context, app models.Application, ev models.ApplicationEvent, bumpProcessed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.apps[app.ID]; !ok {
		return ErrNotFound
	}
	m.apps[app.ID] = app
	m.events = append(m.events, ev)
	if bumpProcessed && ev.ActorID != nil {
		for id, day := range m.days {
			if day.EmployeeID == *ev.ActorID && day.Status != models.WorkDayFinished {
				day.ApplicationsProcessed++
				m.days[id] = day
				break
			}
		}
	}
	return nil
}

func (m *memStore) InsertApplications(_ context.Context, apps []models.Application) (int64, error) {
	for _, app := range apps {
		m.addApplication(app)
	}
	return int64(len(apps)), nil
}

func (m *memStore) QueueCounts(_ context.Context) ([]models.QueueStatistics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byQueue := make(map[models.QueueType]*models.QueueStatistics)
	for _, q := range models.QueueTypes {
		byQueue[q] = &models.QueueStatistics{QueueType: q}
	}
	for _, app := range m.apps {
		s, ok := byQueue[app.QueueType]
		if !ok {
			continue
		}
		s.Total++
		switch app.Status {
		case models.StatusQueued:
			s.Queued++
		case models.StatusInProgress:
			s.InProgress++
		case models.StatusAccepted:
			s.Accepted++
		case models.StatusRejected:
			s.Rejected++
		case models.StatusProblem:
			s.Problem++
		}
	}
	out := make([]models.QueueStatistics, 0, len(byQueue))
	for _, q := range models.QueueTypes {
		out = append(out, *byQueue[q])
	}
	return out, nil
}

func (m *memStore) GetEmployee(_ context.Context, id int64) (models.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	emp, ok := m.employees[id]
	if !ok {
		return models.Employee{}, ErrNotFound
	}
	return emp, nil
}

func (m *memStore) ListEmployees(_ context.Context) ([]models.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Employee, 0, len(m.employees))
	for _, emp := range m.employees {
		out = append(out, emp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) GetWorkDayByID(_ context.Context, id int64) (models.WorkDay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	day, ok := m.days[id]
	if !ok {
		return models.WorkDay{}, ErrNotFound
	}
	return day, nil
}

func (m *memStore) GetOpenWorkDay(_ context.Context, employeeID int64) (models.WorkDay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, day := range m.days {
		if day.EmployeeID == employeeID && day.Status != models.WorkDayFinished {
			return day, nil
		}
	}
	return models.WorkDay{}, ErrNotFound
}

func (m *memStore) CreateWorkDay(_ context.Context, day models.WorkDay) (models.WorkDay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Mirrors the work_days UNIQUE(employee_id, date) constraint.
	for _, d := range m.days {
		if d.EmployeeID == day.EmployeeID && d.Date.Equal(day.Date) {
			return models.WorkDay{}, ErrInvalidWorkdayTransition
		}
	}
	m.nextDayID++
	day.ID = m.nextDayID
	m.days[day.ID] = day
	return day, nil
}

func (m *memStore) SaveWorkDay(_ context.Context, day models.WorkDay) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.days[day.ID]; !ok {
		return ErrNotFound
	}
	m.days[day.ID] = day
	return nil
}

func (m *memStore) ListWorkDays(_ context.Context, date time.Time) ([]models.WorkDay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := dateOf(date)
	var out []models.WorkDay
	for _, day := range m.days {
		if dateOf(day.Date).Equal(want) {
			out = append(out, day)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) AppendAuditEvents(_ context.Context, events []models.AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits = append(m.audits, events...)
	return nil
}
