package service

import (
	"sync"
	"time"

	"github.com/admission-desk/backend/internal/models"
)

// claimRegistry holds the active claims. Claims are deliberately not persisted:
// they exist only while an application is in progress, and a process restart
// degrades to "stuck in_progress" rows recoverable through force release.
type claimRegistry struct {
	mu    sync.Mutex
	byApp map[int64]models.QueueClaim
}

func newClaimRegistry() *claimRegistry {
	return &claimRegistry{byApp: make(map[int64]models.QueueClaim)}
}

func (r *claimRegistry) put(applicationID, employeeID int64, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byApp[applicationID] = models.QueueClaim{
		ApplicationID: applicationID,
		EmployeeID:    employeeID,
		ClaimedAt:     at,
	}
}

func (r *claimRegistry) get(applicationID int64) (models.QueueClaim, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	claim, ok := r.byApp[applicationID]
	return claim, ok
}

func (r *claimRegistry) release(applicationID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byApp, applicationID)
}

// heldBy returns the claim an employee currently holds, if any. An employee
// holds at most one claim per queue flow in practice, but the registry does not
// enforce that; the first match wins.
func (r *claimRegistry) heldBy(employeeID int64) (models.QueueClaim, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, claim := range r.byApp {
		if claim.EmployeeID == employeeID {
			return claim, true
		}
	}
	return models.QueueClaim{}, false
}
