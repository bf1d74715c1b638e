package service

import "github.com/admission-desk/backend/internal/models"

// Identity is what the external authentication collaborator asserts about the
// caller. The core trusts it and only enforces authorization.
type Identity struct {
	EmployeeID int64
	IsAdmin    bool
	Queues     []models.QueueType
}

func (id Identity) CanProcess(queue models.QueueType) bool {
	if id.IsAdmin {
		return true
	}
	for _, q := range id.Queues {
		if q == queue {
			return true
		}
	}
	return false
}
