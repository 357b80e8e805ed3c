package scheduling

import (
	"fmt"
	"time"
)

// BusinessHours is the clinic's daily booking window, "HH:MM" 24-hour strings.
type BusinessHours struct {
	Open  string `json:"open"`  // e.g. "09:00"
	Close string `json:"close"` // e.g. "18:00"
}

// Window resolves the hours onto a concrete calendar day, returning the
// half-open interval [open, close).
func (h BusinessHours) Window(day time.Time) (time.Time, time.Time, error) {
	open, err := atTime(day, h.Open)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("scheduling: bad open time %q: %w", h.Open, err)
	}
	close, err := atTime(day, h.Close)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("scheduling: bad close time %q: %w", h.Close, err)
	}
	if !open.Before(close) {
		return time.Time{}, time.Time{}, fmt.Errorf("scheduling: open %q is not before close %q", h.Open, h.Close)
	}
	return open, close, nil
}

// atTime pins an "HH:MM" wall-clock string onto the given day.
func atTime(day time.Time, hhmm string) (time.Time, error) {
	parsed, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, err
	}
	day = day.UTC()
	return time.Date(day.Year(), day.Month(), day.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0, time.UTC), nil
}
