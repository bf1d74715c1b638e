package service

import "errors"

var (
	// ErrQueueEmpty means no claimable application was available. Expected,
	// not exceptional; callers decide whether to poll again.
	ErrQueueEmpty = errors.New("queue is empty")

	// ErrInvalidTransition means the application is not in the state the
	// requested action expects, or the caller does not hold the claim.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrPermissionDenied means the employee lacks the queue capability or
	// admin flag the operation requires.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidWorkdayTransition means the work-session state machine
	// rejected the event (e.g. Pause while not active).
	ErrInvalidWorkdayTransition = errors.New("invalid workday transition")

	ErrNotFound = errors.New("not found")
)
