package service

import (
	"context"
	"time"

	"github.com/admission-desk/backend/internal/models"
)

// Storage is the persistence surface the coordinator works against. The pgx
// implementation lives in internal/db; tests use an in-memory fake.
type Storage interface {
	GetApplication(ctx context.Context, id int64) (models.Application, error)
	// ListClaimable returns applications waiting in the queue, priority first,
	// oldest first. Applications postponed beyond now are excluded.
	ListClaimable(ctx context.Context, queue models.QueueType, now time.Time) ([]models.Application, error)
	SearchApplications(ctx context.Context, queue models.QueueType, query string) ([]models.Application, error)
	// ClaimNext atomically selects the head of the queue, marks it in progress
	// and records the claim event. Returns ErrQueueEmpty when nothing is
	// claimable.
	ClaimNext(ctx context.Context, queue models.QueueType, employeeID int64, now time.Time) (models.Application, error)
	// ApplyTransition writes the application, appends its history event and,
	// when bumpProcessed is set, increments the actor's open WorkDay counter.
	// All three happen atomically or not at all.
	ApplyTransition(ctx context.Context, app models.Application, ev models.ApplicationEvent, bumpProcessed bool) error
	InsertApplications(ctx context.Context, apps []models.Application) (int64, error)
	QueueCounts(ctx context.Context) ([]models.QueueStatistics, error)

	GetEmployee(ctx context.Context, id int64) (models.Employee, error)
	ListEmployees(ctx context.Context) ([]models.Employee, error)

	GetWorkDayByID(ctx context.Context, id int64) (models.WorkDay, error)
	// GetOpenWorkDay returns the employee's single non-finished WorkDay, or
	// ErrNotFound.
	GetOpenWorkDay(ctx context.Context, employeeID int64) (models.WorkDay, error)
	// CreateWorkDay inserts a new day. A concurrent insert for the same
	// employee and date returns ErrInvalidWorkdayTransition.
	CreateWorkDay(ctx context.Context, day models.WorkDay) (models.WorkDay, error)
	// SaveWorkDay rewrites the day's fields and replaces its break list.
	SaveWorkDay(ctx context.Context, day models.WorkDay) error
	ListWorkDays(ctx context.Context, date time.Time) ([]models.WorkDay, error)
	AppendAuditEvents(ctx context.Context, events []models.AuditEvent) error
}
