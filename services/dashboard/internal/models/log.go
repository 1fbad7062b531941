package models

import "time"

// VehicleLog is one transaction row as the dashboard presents it.
type VehicleLog struct {
	ID               int64      `db:"id" json:"id"`
	Plate            string     `db:"plate" json:"plate"`
	EntryTime        time.Time  `db:"entry_time" json:"entry_time"`
	ExitTime         *time.Time `db:"exit_time" json:"exit_time,omitempty"`
	PaymentStatus    string     `db:"payment_status" json:"payment_status"`
	PaymentAmount    *int64     `db:"payment_amount" json:"payment_amount,omitempty"`
	PaymentTime      *time.Time `db:"payment_time" json:"payment_time,omitempty"`
	UnauthorizedExit bool       `db:"unauthorized_exit" json:"unauthorized_exit"`
}

// DailyStats summarizes one calendar day for the overview panel.
type DailyStats struct {
	Day          time.Time `json:"day"`
	Entries      int       `json:"entries"`
	Exits        int       `json:"exits"`
	Revenue      int64     `json:"revenue"`
	Unauthorized int       `json:"unauthorized"`
}
