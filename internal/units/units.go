// Package units provides shared constants and conversion factors for the
// length and time units found in raw motion-capture datasets.
package units

import "strings"

// Length unit constants
const (
	Meters      = "m"
	Decimeters  = "dm"
	Centimeters = "cm"
	Millimeters = "mm"
)

// ValidLengthUnits contains all valid length unit values
var ValidLengthUnits = []string{Meters, Decimeters, Centimeters, Millimeters}

// IsValid checks if the given unit is in the list of valid length units
func IsValid(unit string) bool {
	for _, validUnit := range ValidLengthUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return strings.Join(ValidLengthUnits, ", ")
}

// CentimeterScale returns the factor that converts a length in the given
// unit to centimeters. Output recordings always carry centimeters. Callers
// check the unit with IsValid first; unknown units yield 1.
func CentimeterScale(unit string) float64 {
	switch unit {
	case Meters:
		return 100
	case Decimeters:
		return 10
	case Millimeters:
		return 0.1
	case Centimeters:
		return 1
	default:
		return 1
	}
}

// Time unit constants
const (
	Seconds      = "s"
	Milliseconds = "ms"
)

// MillisecondScale returns the factor that converts a duration in the given
// unit to milliseconds.
func MillisecondScale(unit string) float64 {
	switch unit {
	case Seconds:
		return 1000
	default:
		return 1
	}
}

// FrameIntervalMS returns the frame spacing in milliseconds for a capture
// running at fps frames per second. Non-positive rates yield 0.
func FrameIntervalMS(fps float64) float64 {
	if fps <= 0 {
		return 0
	}
	return 1000 / fps
}
