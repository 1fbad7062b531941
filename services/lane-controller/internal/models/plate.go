package models

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultPlatePattern matches the national plate format the facility serves:
// RA prefix, one series letter, three digits, one suffix letter.
const DefaultPlatePattern = `^RA[A-Z][0-9]{3}[A-Z]$`

// NormalizePlate uppercases and strips all whitespace from an OCR-produced
// plate string. Both flows and the terminal client normalize before
// comparing, so casing and spacing differences between the camera and the
// card never cause a spurious mismatch.
func NormalizePlate(raw string) string {
	cleaned := strings.ToUpper(strings.TrimSpace(raw))
	return strings.Join(strings.Fields(cleaned), "")
}

// PlateValidator validates normalized plates against a configured pattern.
type PlateValidator struct {
	re *regexp.Regexp
}

// NewPlateValidator compiles the given pattern, falling back to
// DefaultPlatePattern when empty.
func NewPlateValidator(pattern string) (*PlateValidator, error) {
	if strings.TrimSpace(pattern) == "" {
		pattern = DefaultPlatePattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("models: compile plate pattern: %w", err)
	}
	return &PlateValidator{re: re}, nil
}

// Valid reports whether the normalized plate matches the configured format.
func (v *PlateValidator) Valid(plate string) bool {
	return v.re.MatchString(plate)
}
