package service

import (
	"context"
	"strings"
	"time"

	"github.com/admission-desk/backend/internal/models"
)

// postponeFor is how long a "could not reach the applicant" application stays
// hidden from the queue.
const postponeFor = 24 * time.Hour

var queueActions = map[models.QueueType][]models.Action{
	models.QueueLK: {
		models.ActionAccept, models.ActionReject, models.ActionReturn,
	},
	models.QueueEPGU: {
		models.ActionAccept, models.ActionReject, models.ActionToMail,
		models.ActionToProblem, models.ActionPostpone, models.ActionReturn,
	},
	models.QueueEPGUMail: {
		models.ActionAccept, models.ActionReject, models.ActionConfirmScans,
		models.ActionConfirmSignature, models.ActionReturn,
	},
	models.QueueEPGUProblem: {
		models.ActionAccept, models.ActionReject, models.ActionToEPGU,
		models.ActionReturn,
	},
}

func actionAllowed(queue models.QueueType, action models.Action) bool {
	for _, a := range queueActions[queue] {
		if a == action {
			return true
		}
	}
	return false
}

func requiresReason(action models.Action) bool {
	return action == models.ActionReject || action == models.ActionToProblem
}

// ProcessApplication applies one worker action to a claimed application.
// Every failure leaves the application untouched.
func (c *Coordinator) ProcessApplication(ctx context.Context, ident Identity, applicationID int64, action models.Action, reason string) (models.Application, error) {
	app, err := c.store.GetApplication(ctx, applicationID)
	if err != nil {
		return models.Application{}, err
	}
	if !ident.CanProcess(app.QueueType) {
		return models.Application{}, ErrPermissionDenied
	}
	if app.Status != models.StatusInProgress {
		return models.Application{}, ErrInvalidTransition
	}

	claim, ok := c.claims.get(app.ID)
	if !ok {
		// No live claim: either a stale caller or an orphaned row. Only
		// ForceRelease may touch it.
		return models.Application{}, ErrInvalidTransition
	}
	if claim.EmployeeID != ident.EmployeeID {
		return models.Application{}, ErrPermissionDenied
	}

	if !actionAllowed(app.QueueType, action) {
		return models.Application{}, ErrInvalidTransition
	}
	reason = strings.TrimSpace(reason)
	if requiresReason(action) && reason == "" {
		return models.Application{}, ErrInvalidTransition
	}

	now := c.now()
	next := app
	terminal := false
	keepClaim := false

	switch action {
	case models.ActionAccept:
		if app.QueueType == models.QueueEPGUMail && !(app.ScansConfirmed && app.SignatureConfirmed) {
			return models.Application{}, ErrInvalidTransition
		}
		next.Status = models.StatusAccepted
		next.Reason = nil
		terminal = true

	case models.ActionReject:
		next.Status = models.StatusRejected
		next.Reason = &reason
		terminal = true

	case models.ActionToMail:
		next.QueueType = models.QueueEPGUMail
		next.Status = models.StatusQueued
		next.ScansConfirmed = false
		next.SignatureConfirmed = false
		next.PostponedUntil = nil

	case models.ActionToProblem:
		next.QueueType = models.QueueEPGUProblem
		next.Status = models.StatusProblem
		next.Reason = &reason
		next.PostponedUntil = nil

	case models.ActionToEPGU:
		next.QueueType = models.QueueEPGU
		next.Status = models.StatusQueued
		// The problem reason belongs to the problem state only.
		next.Reason = nil

	case models.ActionPostpone:
		until := now.Add(postponeFor)
		next.Status = models.StatusQueued
		next.PostponedUntil = &until

	case models.ActionReturn:
		next.Status = app.QueueType.ClaimableStatus()
		// Confirmations are claim-scoped: the next claimant starts over.
		next.ScansConfirmed = false
		next.SignatureConfirmed = false

	case models.ActionConfirmScans:
		next.ScansConfirmed = true
		keepClaim = true

	case models.ActionConfirmSignature:
		next.SignatureConfirmed = true
		keepClaim = true

	default:
		return models.Application{}, ErrInvalidTransition
	}

	if terminal {
		next.ProcessedAt = &now
		next.ProcessedBy = &ident.EmployeeID
	}

	ev := models.ApplicationEvent{
		ApplicationID: app.ID,
		Event:         string(action),
		ActorID:       &ident.EmployeeID,
		CreatedAt:     now,
	}
	if reason != "" {
		ev.Reason = &reason
	}

	if err := c.store.ApplyTransition(ctx, next, ev, terminal); err != nil {
		return models.Application{}, err
	}
	if !keepClaim {
		c.claims.release(app.ID)
	}

	c.logger.Info().
		Int64("application_id", app.ID).
		Int64("employee_id", ident.EmployeeID).
		Str("action", string(action)).
		Str("status", string(next.Status)).
		Str("queue", string(next.QueueType)).
		Msg("application processed")
	return next, nil
}
