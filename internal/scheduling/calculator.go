package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/clinicdesk/platform/internal/appointments"
	"github.com/clinicdesk/platform/internal/config"
)

// The slot sentinels live in the appointments package so HTTP handlers can
// match them without importing the calculator.
var (
	ErrOutsideHours = appointments.ErrOutsideHours
	ErrSlotTaken    = appointments.ErrSlotTaken
)

// TimeSlot is a derived, never-persisted value: a fixed-duration interval
// within business hours and whether it can still be booked.
type TimeSlot struct {
	Start           time.Time `json:"start"`
	DurationMinutes int       `json:"duration_minutes"`
	Available       bool      `json:"available"`
}

// End returns the exclusive end of the slot interval.
func (s TimeSlot) End() time.Time {
	return s.Start.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

// AppointmentSource supplies the committed appointments for a calendar day.
type AppointmentSource interface {
	OnDay(ctx context.Context, day time.Time) ([]*appointments.Appointment, error)
}

// SlotQuery narrows an availability computation. DurationMinutes of zero
// means the calculator default; Doctor only matters under per-doctor scope;
// ExcludeID ignores one appointment, used when rescheduling it.
type SlotQuery struct {
	DurationMinutes int
	Doctor          string
	ExcludeID       string
}

// Calculator enumerates bookable slots. It holds no mutable state: every call
// recomputes from the current appointments, since bookings can change between
// calls.
type Calculator struct {
	hours       BusinessHours
	slotMinutes int
	scope       config.ConflictScope
	source      AppointmentSource
}

// NewCalculator creates a calculator over the given appointment source.
func NewCalculator(hours BusinessHours, slotMinutes int, scope config.ConflictScope, source AppointmentSource) *Calculator {
	if slotMinutes <= 0 {
		slotMinutes = 30
	}
	return &Calculator{hours: hours, slotMinutes: slotMinutes, scope: scope, source: source}
}

// AvailableSlots returns the ordered slot sequence for the day. Slots are
// enumerated at the requested granularity from the opening time; a trailing
// slot that would spill past closing is dropped. A slot is occupied when an
// appointment instant t satisfies slotStart <= t < slotEnd, so landing
// exactly on slotEnd leaves the slot free.
func (c *Calculator) AvailableSlots(ctx context.Context, day time.Time, q SlotQuery) ([]TimeSlot, error) {
	duration := q.DurationMinutes
	if duration <= 0 {
		duration = c.slotMinutes
	}

	open, close, err := c.hours.Window(day)
	if err != nil {
		return nil, err
	}

	existing, err := c.source.OnDay(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("scheduling: load appointments: %w", err)
	}
	if c.scope == config.ScopeDoctor && q.Doctor != "" {
		existing = filterByDoctor(existing, q.Doctor)
	}

	step := time.Duration(duration) * time.Minute
	var slots []TimeSlot
	for start := open; !start.Add(step).After(close); start = start.Add(step) {
		slot := TimeSlot{Start: start, DurationMinutes: duration, Available: true}
		for _, appt := range existing {
			if q.ExcludeID != "" && appt.ID == q.ExcludeID {
				continue
			}
			t := appt.Date.UTC()
			if !t.Before(slot.Start) && t.Before(slot.End()) {
				slot.Available = false
				break
			}
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// CheckBookable verifies the instant is the start of a free slot, mapping the
// two failure modes to ErrOutsideHours and ErrSlotTaken.
func (c *Calculator) CheckBookable(ctx context.Context, start time.Time, q SlotQuery) error {
	slots, err := c.AvailableSlots(ctx, start, q)
	if err != nil {
		return err
	}
	start = start.UTC()
	for _, slot := range slots {
		if slot.Start.Equal(start) {
			if !slot.Available {
				return ErrSlotTaken
			}
			return nil
		}
	}
	return ErrOutsideHours
}

func filterByDoctor(appts []*appointments.Appointment, doctor string) []*appointments.Appointment {
	var out []*appointments.Appointment
	for _, a := range appts {
		if a.Doctor == doctor {
			out = append(out, a)
		}
	}
	return out
}
