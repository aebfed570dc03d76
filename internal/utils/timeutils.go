package utils

import (
	"fmt"
	"time"
)

// ParseRFC3339 returns a UTC time from the provided string or an error.
func ParseRFC3339(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty time value")
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time: %w", err)
	}
	return t.UTC(), nil
}

// ParseOptionalRFC3339 is ParseRFC3339 that maps an empty value to the zero time.
func ParseOptionalRFC3339(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return ParseRFC3339(value)
}
