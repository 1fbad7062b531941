package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"parkgate/services/lane-controller/internal/models"
)

// Postgres is the durable Store backing production deployments. Mutations to
// one plate are serialized with a per-plate advisory lock; closes are
// conditional updates so a re-triggered detection can never double-process
// an exit.
type Postgres struct {
	db *sql.DB
}

// NewPostgres returns store over the given pool.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the vehicle_logs table on first startup. The store is
// the system of record and re-opens from persisted state after a restart.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS vehicle_logs (
			id BIGSERIAL PRIMARY KEY,
			plate TEXT NOT NULL,
			entry_time TIMESTAMPTZ NOT NULL,
			exit_time TIMESTAMPTZ,
			payment_status TEXT NOT NULL DEFAULT 'unpaid',
			payment_amount BIGINT,
			payment_time TIMESTAMPTZ,
			unauthorized_exit BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS vehicle_logs_open_idx
			ON vehicle_logs (plate, entry_time DESC)
			WHERE exit_time IS NULL;
		CREATE INDEX IF NOT EXISTS vehicle_logs_entry_time_idx
			ON vehicle_logs (entry_time DESC);
	`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("store: ensure schema: %w", err)
	}
	return nil
}

// Open implements Store.
func (s *Postgres) Open(ctx context.Context, plate string, entryTime time.Time) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if err := lockPlate(ctx, tx, plate); err != nil {
		return 0, err
	}

	var duplicate bool
	const existsQuery = `
		SELECT EXISTS (
			SELECT 1 FROM vehicle_logs WHERE plate = $1 AND exit_time IS NULL
		)
	`
	if err := tx.QueryRowContext(ctx, existsQuery, plate).Scan(&duplicate); err != nil {
		return 0, err
	}

	var id int64
	const insertQuery = `
		INSERT INTO vehicle_logs (plate, entry_time, payment_status)
		VALUES ($1, $2, 'unpaid')
		RETURNING id
	`
	if err := tx.QueryRowContext(ctx, insertQuery, plate, entryTime.UTC()).Scan(&id); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	if duplicate {
		return id, ErrDuplicateOpen
	}
	return id, nil
}

// FindOpen implements Store.
func (s *Postgres) FindOpen(ctx context.Context, plate string) (*models.Transaction, error) {
	const query = `
		SELECT id, plate, entry_time, exit_time, payment_status, payment_amount, payment_time, unauthorized_exit, created_at, updated_at
		FROM vehicle_logs
		WHERE plate = $1 AND exit_time IS NULL
		ORDER BY entry_time DESC, id DESC
		LIMIT 1
	`
	row := s.db.QueryRowContext(ctx, query, plate)
	record, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ClosePaid implements Store.
func (s *Postgres) ClosePaid(ctx context.Context, id int64, exitTime time.Time, amount int64) error {
	const query = `
		UPDATE vehicle_logs
		SET exit_time = $2,
		    payment_status = 'paid',
		    payment_amount = $3,
		    payment_time = $2,
		    updated_at = NOW()
		WHERE id = $1 AND exit_time IS NULL
	`
	return s.closeWith(ctx, id, query, exitTime.UTC(), amount)
}

// CloseUnauthorized implements Store.
func (s *Postgres) CloseUnauthorized(ctx context.Context, id int64, exitTime time.Time) error {
	const query = `
		UPDATE vehicle_logs
		SET exit_time = $2,
		    unauthorized_exit = TRUE,
		    updated_at = NOW()
		WHERE id = $1 AND exit_time IS NULL
	`
	return s.closeWith(ctx, id, query, exitTime.UTC())
}

func (s *Postgres) closeWith(ctx context.Context, id int64, query string, args ...interface{}) error {
	result, err := s.db.ExecContext(ctx, query, append([]interface{}{id}, args...)...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM vehicle_logs WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrAlreadyClosed
	}
	return ErrNotFound
}

// ListRecent implements Store.
func (s *Postgres) ListRecent(ctx context.Context, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT id, plate, entry_time, exit_time, payment_status, payment_amount, payment_time, unauthorized_exit, created_at, updated_at
		FROM vehicle_logs
		ORDER BY entry_time DESC, id DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.Transaction
	for rows.Next() {
		record, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// DailyStats implements Store.
func (s *Postgres) DailyStats(ctx context.Context, day time.Time) (*DailyStats, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	const query = `
		SELECT
			COUNT(*) FILTER (WHERE entry_time >= $1 AND entry_time < $2),
			COUNT(*) FILTER (WHERE exit_time >= $1 AND exit_time < $2),
			COALESCE(SUM(payment_amount) FILTER (WHERE payment_time >= $1 AND payment_time < $2), 0),
			COUNT(*) FILTER (WHERE unauthorized_exit AND exit_time >= $1 AND exit_time < $2)
		FROM vehicle_logs
	`
	stats := &DailyStats{Day: start}
	err := s.db.QueryRowContext(ctx, query, start, end).Scan(
		&stats.Entries,
		&stats.Exits,
		&stats.Revenue,
		&stats.Unauthorized,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var (
		record models.Transaction
		exit   sql.NullTime
		amount sql.NullInt64
		paidAt sql.NullTime
	)
	err := row.Scan(
		&record.ID,
		&record.Plate,
		&record.EntryTime,
		&exit,
		&record.PaymentStatus,
		&amount,
		&paidAt,
		&record.UnauthorizedExit,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if exit.Valid {
		record.ExitTime = &exit.Time
	}
	if amount.Valid {
		record.PaymentAmount = &amount.Int64
	}
	if paidAt.Valid {
		record.PaymentTime = &paidAt.Time
	}
	return &record, nil
}

func lockPlate(ctx context.Context, tx *sql.Tx, plate string) error {
	_, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, plate)
	return err
}
