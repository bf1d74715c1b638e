package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/admission-desk/backend/internal/models"
	"github.com/admission-desk/backend/internal/service"
)

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const applicationColumns = `id, fio, queue_type, is_priority, status, reason, submitted_at, processed_at, processed_by, postponed_until, scans_confirmed, signature_confirmed`

func scanApplication(row pgx.Row) (models.Application, error) {
	var a models.Application
	err := row.Scan(
		&a.ID, &a.FIO, &a.QueueType, &a.IsPriority, &a.Status, &a.Reason,
		&a.SubmittedAt, &a.ProcessedAt, &a.ProcessedBy, &a.PostponedUntil,
		&a.ScansConfirmed, &a.SignatureConfirmed,
	)
	return a, err
}

func collectApplications(rows pgx.Rows) ([]models.Application, error) {
	defer rows.Close()
	var out []models.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) GetApplication(ctx context.Context, id int64) (models.Application, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id)
	a, err := scanApplication(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Application{}, service.ErrNotFound
	}
	return a, err
}

func (s *Store) ListClaimable(ctx context.Context, queue models.QueueType, now time.Time) ([]models.Application, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+applicationColumns+` FROM applications
		WHERE queue_type = $1 AND status = $2
			AND (postponed_until IS NULL OR postponed_until <= $3)
		ORDER BY is_priority DESC, submitted_at ASC, id ASC
	`, queue, queue.ClaimableStatus(), now)
	if err != nil {
		return nil, err
	}
	return collectApplications(rows)
}

func (s *Store) SearchApplications(ctx context.Context, queue models.QueueType, query string) ([]models.Application, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+applicationColumns+` FROM applications
		WHERE queue_type = $1 AND (fio ILIKE $2 OR id::text LIKE $2)
		ORDER BY id ASC
	`, queue, "%"+query+"%")
	if err != nil {
		return nil, err
	}
	return collectApplications(rows)
}

// ClaimNext takes the head of the queue under a row lock, so concurrent callers
// hitting the database directly cannot double-claim either.
func (s *Store) ClaimNext(ctx context.Context, queue models.QueueType, employeeID int64, now time.Time) (models.Application, error) {
	var app models.Application
	err := s.WithTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			UPDATE applications SET status = $1
			WHERE id = (
				SELECT id FROM applications
				WHERE queue_type = $2 AND status = $3
					AND (postponed_until IS NULL OR postponed_until <= $4)
				ORDER BY is_priority DESC, submitted_at ASC, id ASC
				LIMIT 1
				FOR UPDATE SKIP LOCKED
			)
			RETURNING `+applicationColumns,
			models.StatusInProgress, queue, queue.ClaimableStatus(), now)

		var err error
		app, err = scanApplication(row)
		if errors.Is(err, pgx.ErrNoRows) {
			return service.ErrQueueEmpty
		}
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO application_events (application_id, event, actor_id, created_at)
			VALUES ($1, 'claimed', $2, $3)
		`, app.ID, employeeID, now)
		return err
	})
	if err != nil {
		return models.Application{}, err
	}
	return app, nil
}

func (s *Store) ApplyTransition(ctx context.Context, app models.Application, ev models.ApplicationEvent, bumpProcessed bool) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE applications SET
				queue_type = $1, is_priority = $2, status = $3, reason = $4,
				processed_at = $5, processed_by = $6, postponed_until = $7,
				scans_confirmed = $8, signature_confirmed = $9
			WHERE id = $10
		`, app.QueueType, app.IsPriority, app.Status, app.Reason,
			app.ProcessedAt, app.ProcessedBy, app.PostponedUntil,
			app.ScansConfirmed, app.SignatureConfirmed, app.ID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return service.ErrNotFound
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO application_events (application_id, event, actor_id, reason, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, ev.ApplicationID, ev.Event, ev.ActorID, ev.Reason, ev.CreatedAt); err != nil {
			return err
		}

		if bumpProcessed && ev.ActorID != nil {
			if _, err := tx.Exec(ctx, `
				UPDATE work_days SET applications_processed = applications_processed + 1
				WHERE employee_id = $1 AND status <> $2
			`, *ev.ActorID, models.WorkDayFinished); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) InsertApplications(ctx context.Context, apps []models.Application) (int64, error) {
	rows := make([][]any, 0, len(apps))
	for _, a := range apps {
		rows = append(rows, []any{a.FIO, a.QueueType, a.IsPriority, a.Status, a.SubmittedAt})
	}
	return s.Pool.CopyFrom(ctx,
		pgx.Identifier{"applications"},
		[]string{"fio", "queue_type", "is_priority", "status", "submitted_at"},
		pgx.CopyFromRows(rows))
}

func (s *Store) QueueCounts(ctx context.Context) ([]models.QueueStatistics, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT queue_type,
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'queued'),
			COUNT(*) FILTER (WHERE status = 'in_progress'),
			COUNT(*) FILTER (WHERE status = 'accepted'),
			COUNT(*) FILTER (WHERE status = 'rejected'),
			COUNT(*) FILTER (WHERE status = 'problem')
		FROM applications
		GROUP BY queue_type
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.QueueStatistics
	for rows.Next() {
		var st models.QueueStatistics
		if err := rows.Scan(&st.QueueType, &st.Total, &st.Queued, &st.InProgress, &st.Accepted, &st.Rejected, &st.Problem); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) GetEmployee(ctx context.Context, id int64) (models.Employee, error) {
	row := s.Pool.QueryRow(ctx, `SELECT id, fio, is_admin FROM employees WHERE id = $1`, id)
	var e models.Employee
	if err := row.Scan(&e.ID, &e.FIO, &e.IsAdmin); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Employee{}, service.ErrNotFound
		}
		return models.Employee{}, err
	}

	rows, err := s.Pool.Query(ctx, `SELECT queue_type FROM employee_queues WHERE employee_id = $1 ORDER BY queue_type`, id)
	if err != nil {
		return models.Employee{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var q models.QueueType
		if err := rows.Scan(&q); err != nil {
			return models.Employee{}, err
		}
		e.Queues = append(e.Queues, q)
	}
	return e, rows.Err()
}

func (s *Store) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT e.id, e.fio, e.is_admin, COALESCE(array_agg(q.queue_type) FILTER (WHERE q.queue_type IS NOT NULL), '{}')
		FROM employees e
		LEFT JOIN employee_queues q ON q.employee_id = e.id
		GROUP BY e.id
		ORDER BY e.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Employee
	for rows.Next() {
		var (
			e      models.Employee
			queues []string
		)
		if err := rows.Scan(&e.ID, &e.FIO, &e.IsAdmin, &queues); err != nil {
			return nil, err
		}
		for _, q := range queues {
			e.Queues = append(e.Queues, models.QueueType(q))
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

const workDayColumns = `id, employee_id, date, start_time, end_time, status, applications_processed`

func (s *Store) scanWorkDay(ctx context.Context, row pgx.Row) (models.WorkDay, error) {
	var d models.WorkDay
	err := row.Scan(&d.ID, &d.EmployeeID, &d.Date, &d.StartTime, &d.EndTime, &d.Status, &d.ApplicationsProcessed)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.WorkDay{}, service.ErrNotFound
	}
	if err != nil {
		return models.WorkDay{}, err
	}
	d.Breaks, err = s.listBreaks(ctx, d.ID)
	return d, err
}

func (s *Store) listBreaks(ctx context.Context, workDayID int64) ([]models.Break, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, work_day_id, start_time, end_time, duration
		FROM work_breaks WHERE work_day_id = $1 ORDER BY start_time ASC, id ASC
	`, workDayID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Break
	for rows.Next() {
		var b models.Break
		if err := rows.Scan(&b.ID, &b.WorkDayID, &b.StartTime, &b.EndTime, &b.Duration); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) GetWorkDayByID(ctx context.Context, id int64) (models.WorkDay, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+workDayColumns+` FROM work_days WHERE id = $1`, id)
	return s.scanWorkDay(ctx, row)
}

func (s *Store) GetOpenWorkDay(ctx context.Context, employeeID int64) (models.WorkDay, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT `+workDayColumns+` FROM work_days
		WHERE employee_id = $1 AND status <> $2
	`, employeeID, models.WorkDayFinished)
	return s.scanWorkDay(ctx, row)
}

func (s *Store) CreateWorkDay(ctx context.Context, day models.WorkDay) (models.WorkDay, error) {
	err := s.Pool.QueryRow(ctx, `
		INSERT INTO work_days (employee_id, date, start_time, end_time, status, applications_processed)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, day.EmployeeID, day.Date, day.StartTime, day.EndTime, day.Status, day.ApplicationsProcessed).Scan(&day.ID)
	if err != nil {
		// Two racing starts hit the UNIQUE(employee_id, date) constraint;
		// the loser sees the same error as a plain double start.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.WorkDay{}, service.ErrInvalidWorkdayTransition
		}
		return models.WorkDay{}, err
	}
	return day, nil
}

func (s *Store) SaveWorkDay(ctx context.Context, day models.WorkDay) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE work_days SET
				start_time = $1, end_time = $2, status = $3, applications_processed = $4
			WHERE id = $5
		`, day.StartTime, day.EndTime, day.Status, day.ApplicationsProcessed, day.ID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return service.ErrNotFound
		}

		if _, err := tx.Exec(ctx, `DELETE FROM work_breaks WHERE work_day_id = $1`, day.ID); err != nil {
			return err
		}
		for _, b := range day.Breaks {
			if _, err := tx.Exec(ctx, `
				INSERT INTO work_breaks (work_day_id, start_time, end_time, duration)
				VALUES ($1, $2, $3, $4)
			`, day.ID, b.StartTime, b.EndTime, b.Duration); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) ListWorkDays(ctx context.Context, date time.Time) ([]models.WorkDay, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+workDayColumns+` FROM work_days WHERE date = $1 ORDER BY id`, date)
	if err != nil {
		return nil, err
	}
	var out []models.WorkDay
	for rows.Next() {
		var d models.WorkDay
		if err := rows.Scan(&d.ID, &d.EmployeeID, &d.Date, &d.StartTime, &d.EndTime, &d.Status, &d.ApplicationsProcessed); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		out[i].Breaks, err = s.listBreaks(ctx, out[i].ID)
		if err != nil {
			return nil, fmt.Errorf("breaks for work day %d: %w", out[i].ID, err)
		}
	}
	return out, nil
}

func (s *Store) AppendAuditEvents(ctx context.Context, events []models.AuditEvent) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		for _, ev := range events {
			if _, err := tx.Exec(ctx, `
				INSERT INTO audit_events (work_day_id, actor_id, field, value, created_at)
				VALUES ($1, $2, $3, $4, $5)
			`, ev.WorkDayID, ev.ActorID, ev.Field, ev.Value, ev.CreatedAt); err != nil {
				return err
			}
		}
		return nil
	})
}
