package fees

import (
	"errors"
	"testing"
	"time"
)

func TestFeeRoundsUpToStartedUnit(t *testing.T) {
	calc := NewCalculator(500, time.Hour)
	entry := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		parked time.Duration
		want   int64
	}{
		{"one minute bills a full unit", time.Minute, 500},
		{"exactly one unit", time.Hour, 500},
		{"one second over a unit", time.Hour + time.Second, 1000},
		{"several full units", 3 * time.Hour, 1500},
		{"fractional second unit boundary", 2*time.Hour + time.Nanosecond, 1500},
		{"zero duration bills the minimum", 0, 500},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := calc.Fee(entry, entry.Add(tc.parked))
			if err != nil {
				t.Fatalf("fee: %v", err)
			}
			if got != tc.want {
				t.Fatalf("fee for %s: got %d, want %d", tc.parked, got, tc.want)
			}
		})
	}
}

func TestFeeRejectsExitBeforeEntry(t *testing.T) {
	calc := NewCalculator(500, time.Hour)
	entry := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)

	_, err := calc.Fee(entry, entry.Add(-time.Second))
	if !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
}

func TestFeeIsMonotonic(t *testing.T) {
	calc := NewCalculator(500, time.Hour)
	entry := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)

	prev := int64(0)
	for minutes := 0; minutes <= 600; minutes += 7 {
		fee, err := calc.Fee(entry, entry.Add(time.Duration(minutes)*time.Minute))
		if err != nil {
			t.Fatalf("fee at %d minutes: %v", minutes, err)
		}
		if fee < prev {
			t.Fatalf("fee decreased at %d minutes: %d < %d", minutes, fee, prev)
		}
		prev = fee
	}
}

func TestNewCalculatorAppliesDefaults(t *testing.T) {
	calc := NewCalculator(0, 0)
	if calc.RatePerUnit != 500 {
		t.Fatalf("expected default rate 500, got %d", calc.RatePerUnit)
	}
	if calc.Unit != time.Hour {
		t.Fatalf("expected default unit 1h, got %s", calc.Unit)
	}
}
