package models

import "time"

// QueueType is one of the named channels an application is routed through.
type QueueType string

const (
	QueueLK          QueueType = "lk"
	QueueEPGU        QueueType = "epgu"
	QueueEPGUMail    QueueType = "epgu_mail"
	QueueEPGUProblem QueueType = "epgu_problem"
)

var QueueTypes = []QueueType{QueueLK, QueueEPGU, QueueEPGUMail, QueueEPGUProblem}

func (q QueueType) Valid() bool {
	switch q {
	case QueueLK, QueueEPGU, QueueEPGUMail, QueueEPGUProblem:
		return true
	}
	return false
}

// ClaimableStatus is the status the queue index of this queue type reads as
// "waiting to be taken". Problem applications keep their problem status while
// sitting in the epgu_problem queue.
func (q QueueType) ClaimableStatus() Status {
	if q == QueueEPGUProblem {
		return StatusProblem
	}
	return StatusQueued
}

type Status string

const (
	StatusQueued     Status = "queued"
	StatusInProgress Status = "in_progress"
	StatusAccepted   Status = "accepted"
	StatusRejected   Status = "rejected"
	StatusProblem    Status = "problem"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

type Action string

const (
	ActionAccept           Action = "accept"
	ActionReject           Action = "reject"
	ActionToMail           Action = "to_mail"
	ActionToProblem        Action = "to_problem"
	ActionToEPGU           Action = "to_epgu"
	ActionPostpone         Action = "postpone"
	ActionReturn           Action = "return"
	ActionConfirmScans     Action = "confirm_scans"
	ActionConfirmSignature Action = "confirm_signature"
)

type Application struct {
	ID                 int64      `json:"id"`
	FIO                string     `json:"fio"`
	QueueType          QueueType  `json:"queue_type"`
	IsPriority         bool       `json:"is_priority"`
	Status             Status     `json:"status"`
	Reason             *string    `json:"reason,omitempty"`
	SubmittedAt        time.Time  `json:"submitted_at"`
	ProcessedAt        *time.Time `json:"processed_at,omitempty"`
	ProcessedBy        *int64     `json:"processed_by,omitempty"`
	PostponedUntil     *time.Time `json:"postponed_until,omitempty"`
	ScansConfirmed     bool       `json:"scans_confirmed"`
	SignatureConfirmed bool       `json:"signature_confirmed"`
}

type Employee struct {
	ID      int64       `json:"id"`
	FIO     string      `json:"fio"`
	IsAdmin bool        `json:"is_admin"`
	Queues  []QueueType `json:"queues"`
}

type WorkDayStatus string

const (
	WorkDayActive   WorkDayStatus = "active"
	WorkDayPaused   WorkDayStatus = "paused"
	WorkDayFinished WorkDayStatus = "finished"
)

type Break struct {
	ID        int64      `json:"id"`
	WorkDayID int64      `json:"work_day_id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	// Duration in seconds; derived from the times unless an admin edit
	// overrode it.
	Duration int64 `json:"duration"`
}

type WorkDay struct {
	ID                    int64         `json:"id"`
	EmployeeID            int64         `json:"employee_id"`
	Date                  time.Time     `json:"date"`
	StartTime             time.Time     `json:"start_time"`
	EndTime               *time.Time    `json:"end_time,omitempty"`
	Status                WorkDayStatus `json:"status"`
	ApplicationsProcessed int           `json:"applications_processed"`
	Breaks                []Break       `json:"breaks"`
}

// QueueClaim is the ephemeral record of one employee holding one application.
// It lives only in the coordinator's memory while the application is in progress.
type QueueClaim struct {
	ApplicationID int64     `json:"application_id"`
	EmployeeID    int64     `json:"employee_id"`
	ClaimedAt     time.Time `json:"claimed_at"`
}

type QueueStatistics struct {
	QueueType  QueueType `json:"queue_type"`
	Total      int       `json:"total"`
	Queued     int       `json:"queued"`
	InProgress int       `json:"in_progress"`
	Accepted   int       `json:"accepted"`
	Rejected   int       `json:"rejected"`
	Problem    int       `json:"problem"`
}

type EmployeeStatus struct {
	ID          int64      `json:"id"`
	FIO         string     `json:"fio"`
	IsAdmin     bool       `json:"is_admin"`
	Status      string     `json:"status"`
	CurrentTask *string    `json:"current_task,omitempty"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	// WorkDuration is formatted HH:MM, empty when the employee is not working.
	WorkDuration string `json:"work_duration,omitempty"`
}

// DayReport is one employee's row in FullReport. Work fields are null when the
// employee had no WorkDay on the requested date.
type DayReport struct {
	EmployeeID            int64          `json:"employee_id"`
	FIO                   string         `json:"fio"`
	Date                  string         `json:"date"`
	StartTime             *time.Time     `json:"start_time,omitempty"`
	EndTime               *time.Time     `json:"end_time,omitempty"`
	Status                *WorkDayStatus `json:"status,omitempty"`
	Breaks                []Break        `json:"breaks,omitempty"`
	TotalBreakSeconds     int64          `json:"total_break_seconds"`
	TotalWorkSeconds      int64          `json:"total_work_seconds"`
	ApplicationsProcessed int            `json:"applications_processed"`
}

// ApplicationEvent is one append-only row of an application's status history.
type ApplicationEvent struct {
	ID            int64     `json:"id"`
	ApplicationID int64     `json:"application_id"`
	Event         string    `json:"event"`
	ActorID       *int64    `json:"actor_id,omitempty"`
	Reason        *string   `json:"reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// AuditEvent records an administrative override on a WorkDay.
type AuditEvent struct {
	ID        int64     `json:"id"`
	WorkDayID int64     `json:"work_day_id"`
	ActorID   int64     `json:"actor_id"`
	Field     string    `json:"field"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}
