package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/admission-desk/backend/internal/models"
)

// Coordinator owns queue reads, claim handout and the application lifecycle.
// TakeNext is the only exclusivity-critical path: it is serialized per queue
// type on top of the store's own atomic claim, so two concurrent callers can
// never walk away with the same application.
type Coordinator struct {
	store  Storage
	claims *claimRegistry
	logger zerolog.Logger
	now    func() time.Time

	queueMu map[models.QueueType]*sync.Mutex
}

func NewCoordinator(store Storage, logger zerolog.Logger) *Coordinator {
	locks := make(map[models.QueueType]*sync.Mutex, len(models.QueueTypes))
	for _, q := range models.QueueTypes {
		locks[q] = &sync.Mutex{}
	}
	return &Coordinator{
		store:   store,
		claims:  newClaimRegistry(),
		logger:  logger,
		now:     time.Now,
		queueMu: locks,
	}
}

func (c *Coordinator) ListQueue(ctx context.Context, ident Identity, queue models.QueueType) ([]models.Application, error) {
	if !queue.Valid() {
		return nil, ErrNotFound
	}
	if !ident.CanProcess(queue) {
		return nil, ErrPermissionDenied
	}
	return c.store.ListClaimable(ctx, queue, c.now())
}

func (c *Coordinator) SearchQueue(ctx context.Context, ident Identity, queue models.QueueType, query string) ([]models.Application, error) {
	if !queue.Valid() {
		return nil, ErrNotFound
	}
	if !ident.CanProcess(queue) {
		return nil, ErrPermissionDenied
	}
	return c.store.SearchApplications(ctx, queue, query)
}

// TakeNext hands the caller the head of the queue and records the claim.
func (c *Coordinator) TakeNext(ctx context.Context, ident Identity, queue models.QueueType) (models.Application, error) {
	if !queue.Valid() {
		return models.Application{}, ErrNotFound
	}
	if !ident.CanProcess(queue) {
		return models.Application{}, ErrPermissionDenied
	}

	mu := c.queueMu[queue]
	mu.Lock()
	defer mu.Unlock()

	now := c.now()
	app, err := c.store.ClaimNext(ctx, queue, ident.EmployeeID, now)
	if err != nil {
		return models.Application{}, err
	}
	c.claims.put(app.ID, ident.EmployeeID, now)

	c.logger.Info().
		Int64("application_id", app.ID).
		Int64("employee_id", ident.EmployeeID).
		Str("queue", string(queue)).
		Msg("application claimed")
	return app, nil
}

// ForceRelease drops an abandoned claim and returns the application to its
// queue untouched. Admin only; this is the recovery path for claims whose
// holder disappeared (or for in_progress rows orphaned by a restart).
func (c *Coordinator) ForceRelease(ctx context.Context, ident Identity, applicationID int64) (models.Application, error) {
	if !ident.IsAdmin {
		return models.Application{}, ErrPermissionDenied
	}

	app, err := c.store.GetApplication(ctx, applicationID)
	if err != nil {
		return models.Application{}, err
	}
	if app.Status != models.StatusInProgress {
		return models.Application{}, ErrInvalidTransition
	}

	app.Status = app.QueueType.ClaimableStatus()
	// Confirmations are claim-scoped: the next claimant starts over.
	app.ScansConfirmed = false
	app.SignatureConfirmed = false
	ev := models.ApplicationEvent{
		ApplicationID: app.ID,
		Event:         "force_released",
		ActorID:       &ident.EmployeeID,
		CreatedAt:     c.now(),
	}
	if err := c.store.ApplyTransition(ctx, app, ev, false); err != nil {
		return models.Application{}, err
	}
	c.claims.release(app.ID)

	c.logger.Warn().
		Int64("application_id", app.ID).
		Int64("admin_id", ident.EmployeeID).
		Msg("claim force released")
	return app, nil
}

// ImportApplications inserts externally submitted applications. Admin only.
func (c *Coordinator) ImportApplications(ctx context.Context, ident Identity, apps []models.Application) (int64, error) {
	if !ident.IsAdmin {
		return 0, ErrPermissionDenied
	}
	for i := range apps {
		apps[i].Status = apps[i].QueueType.ClaimableStatus()
	}
	return c.store.InsertApplications(ctx, apps)
}
