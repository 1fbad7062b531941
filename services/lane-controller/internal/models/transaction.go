package models

import "time"

// PaymentStatus of a parking transaction.
type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
)

// Transaction represents a single vehicle stay, from gate entry to gate exit.
// A transaction with no exit time is "open"; the exit flow or the
// unauthorized-exit monitor closes it exactly once.
type Transaction struct {
	ID               int64          `db:"id" json:"id"`
	Plate            string         `db:"plate" json:"plate"`
	EntryTime        time.Time      `db:"entry_time" json:"entry_time"`
	ExitTime         *time.Time     `db:"exit_time" json:"exit_time,omitempty"`
	PaymentStatus    PaymentStatus  `db:"payment_status" json:"payment_status"`
	PaymentAmount    *int64         `db:"payment_amount" json:"payment_amount,omitempty"`
	PaymentTime      *time.Time     `db:"payment_time" json:"payment_time,omitempty"`
	UnauthorizedExit bool           `db:"unauthorized_exit" json:"unauthorized_exit"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// Open reports whether the transaction has no recorded exit yet.
func (t *Transaction) Open() bool {
	return t.ExitTime == nil
}
