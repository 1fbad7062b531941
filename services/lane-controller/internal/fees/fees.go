package fees

import (
	"errors"
	"time"
)

// ErrInvalidDuration indicates an exit timestamp earlier than the matched
// entry. Guards against clock skew between the two lanes.
var ErrInvalidDuration = errors.New("fees: exit time precedes entry time")

const (
	defaultRatePerUnit = 500
	defaultUnit        = time.Hour
)

// Calculator converts parked duration into a fare in currency minor units.
type Calculator struct {
	RatePerUnit int64
	Unit        time.Duration
}

// NewCalculator returns calculator with facility defaults applied.
func NewCalculator(ratePerUnit int64, unit time.Duration) Calculator {
	if ratePerUnit <= 0 {
		ratePerUnit = defaultRatePerUnit
	}
	if unit <= 0 {
		unit = defaultUnit
	}
	return Calculator{RatePerUnit: ratePerUnit, Unit: unit}
}

// Fee bills every started unit in full: any fractional unit rounds up, and a
// stay shorter than one unit is billed as one unit.
func (c Calculator) Fee(entryTime, exitTime time.Time) (int64, error) {
	if exitTime.Before(entryTime) {
		return 0, ErrInvalidDuration
	}

	parked := exitTime.Sub(entryTime)
	units := int64(parked / c.Unit)
	if parked%c.Unit > 0 {
		units++
	}
	if units < 1 {
		units = 1
	}
	return units * c.RatePerUnit, nil
}
