package repository

import (
	"context"
	"database/sql"
	"time"

	"parkgate/services/dashboard/internal/models"
)

// LogsRepository reads the vehicle log written by the lane controller. The
// dashboard never writes; stale-by-one-write reads are acceptable for a
// monitoring view.
type LogsRepository struct {
	db *sql.DB
}

// NewLogsRepository returns repository.
func NewLogsRepository(db *sql.DB) *LogsRepository {
	return &LogsRepository{db: db}
}

// ListRecent returns up to limit transactions, newest entry first.
func (r *LogsRepository) ListRecent(ctx context.Context, limit int) ([]models.VehicleLog, error) {
	if limit <= 0 {
		limit = 10
	}
	const query = `
		SELECT id, plate, entry_time, exit_time, payment_status, payment_amount, payment_time, unauthorized_exit
		FROM vehicle_logs
		ORDER BY entry_time DESC, id DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.VehicleLog
	for rows.Next() {
		var (
			record models.VehicleLog
			exit   sql.NullTime
			amount sql.NullInt64
			paidAt sql.NullTime
		)
		if err := rows.Scan(
			&record.ID,
			&record.Plate,
			&record.EntryTime,
			&exit,
			&record.PaymentStatus,
			&amount,
			&paidAt,
			&record.UnauthorizedExit,
		); err != nil {
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
		logs = append(logs, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

// DailyStats aggregates the calendar day containing day.
func (r *LogsRepository) DailyStats(ctx context.Context, day time.Time) (*models.DailyStats, error) {
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
	stats := &models.DailyStats{Day: start}
	err := r.db.QueryRowContext(ctx, query, start, end).Scan(
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
