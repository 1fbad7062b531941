package models

import "time"

// Lane identifies which side of the facility produced a detection.
type Lane string

const (
	LaneEntry Lane = "entry"
	LaneExit  Lane = "exit"
)

// Detection is one accepted plate recognition event from the camera feed.
type Detection struct {
	ID         string    `json:"id"`
	Lane       Lane      `json:"lane"`
	Plate      string    `json:"plate"`
	Confidence float64   `json:"confidence"`
	DetectedAt time.Time `json:"detected_at"`
}

// GateCrossing is a physical gate-crossing signal from the exit sensor,
// reported independently of the payment handshake.
type GateCrossing struct {
	Plate     string    `json:"plate"`
	CrossedAt time.Time `json:"crossed_at"`
}
