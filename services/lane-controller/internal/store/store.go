package store

import (
	"context"
	"errors"
	"time"

	"parkgate/services/lane-controller/internal/models"
)

// Store errors. All callers branch on these with errors.Is.
var (
	// ErrDuplicateOpen is returned by Open when the plate already has an
	// open transaction. The new record is still created and becomes
	// authoritative; the error is a bookkeeping warning, not a refusal.
	ErrDuplicateOpen = errors.New("store: plate already has an open transaction")

	// ErrAlreadyClosed is returned by the close operations when the
	// transaction already has an exit time. Detection hardware re-triggers,
	// so callers treat this as a benign duplicate event.
	ErrAlreadyClosed = errors.New("store: transaction already closed")

	// ErrNotFound indicates no matching transaction.
	ErrNotFound = errors.New("store: transaction not found")
)

// DailyStats aggregates one calendar day of facility activity.
type DailyStats struct {
	Day          time.Time `json:"day"`
	Entries      int       `json:"entries"`
	Exits        int       `json:"exits"`
	Revenue      int64     `json:"revenue"`
	Unauthorized int       `json:"unauthorized"`
}

// Store is the durable transaction log: the single source of truth shared by
// the entry flow, the exit flow, the monitor, and the dashboard reader.
// Implementations serialize mutations per plate; reads and writes for
// different plates never block each other.
type Store interface {
	// Open records a new entry and returns its transaction id. When the
	// plate already has an open transaction it still creates the record
	// (the newest one is authoritative) and returns ErrDuplicateOpen
	// together with the new id.
	Open(ctx context.Context, plate string, entryTime time.Time) (int64, error)

	// FindOpen returns the newest open transaction for the plate, or
	// ErrNotFound.
	FindOpen(ctx context.Context, plate string) (*models.Transaction, error)

	// ClosePaid atomically records a paid exit. ErrAlreadyClosed when the
	// transaction already has an exit time.
	ClosePaid(ctx context.Context, id int64, exitTime time.Time, amount int64) error

	// CloseUnauthorized atomically records a forced exit, leaving the
	// transaction unpaid. ErrAlreadyClosed when already closed.
	CloseUnauthorized(ctx context.Context, id int64, exitTime time.Time) error

	// ListRecent returns up to limit transactions, newest entry first.
	ListRecent(ctx context.Context, limit int) ([]models.Transaction, error)

	// DailyStats aggregates activity for the calendar day containing day.
	DailyStats(ctx context.Context, day time.Time) (*DailyStats, error)
}
