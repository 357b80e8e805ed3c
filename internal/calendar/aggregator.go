// Package calendar provides the read-side grouping of appointments for
// day/week/month views. Everything here is a pure transform over an
// appointment snapshot; nothing writes.
package calendar

import (
	"sort"
	"time"

	"github.com/clinicdesk/platform/internal/appointments"
)

// HourGroup holds one hour of a day view.
type HourGroup struct {
	Hour         int                         `json:"hour"`
	Appointments []*appointments.Appointment `json:"appointments"`
}

// DayGroup holds one calendar day of a range view.
type DayGroup struct {
	Day          time.Time                   `json:"day"`
	Appointments []*appointments.Appointment `json:"appointments"`
}

// DayCell is one cell of the month grid. InMonth marks cells belonging to the
// displayed month as opposed to the leading/trailing filler weeks.
type DayCell struct {
	Date         time.Time                   `json:"date"`
	InMonth      bool                        `json:"in_month"`
	Appointments []*appointments.Appointment `json:"appointments"`
}

// Predicate filters appointments before grouping.
type Predicate func(*appointments.Appointment) bool

// ByDoctor keeps appointments for one doctor.
func ByDoctor(doctor string) Predicate {
	return func(a *appointments.Appointment) bool { return a.Doctor == doctor }
}

// Upcoming keeps appointments whose instant is after now.
func Upcoming(now time.Time) Predicate {
	return func(a *appointments.Appointment) bool { return a.Date.After(now) }
}

// Completed keeps appointments whose instant is at or before now.
func Completed(now time.Time) Predicate {
	return func(a *appointments.Appointment) bool { return !a.Date.After(now) }
}

// Filter applies the predicates in order.
func Filter(appts []*appointments.Appointment, preds ...Predicate) []*appointments.Appointment {
	out := appts
	for _, pred := range preds {
		var kept []*appointments.Appointment
		for _, a := range out {
			if pred(a) {
				kept = append(kept, a)
			}
		}
		out = kept
	}
	return out
}

// GroupByHour buckets a day's appointments by hour, ascending, skipping
// empty hours.
func GroupByHour(appts []*appointments.Appointment) []HourGroup {
	byHour := make(map[int][]*appointments.Appointment)
	for _, a := range appts {
		h := a.Date.UTC().Hour()
		byHour[h] = append(byHour[h], a)
	}

	hours := make([]int, 0, len(byHour))
	for h := range byHour {
		hours = append(hours, h)
	}
	sort.Ints(hours)

	out := make([]HourGroup, 0, len(hours))
	for _, h := range hours {
		group := byHour[h]
		sort.Slice(group, func(i, j int) bool { return group[i].Date.Before(group[j].Date) })
		out = append(out, HourGroup{Hour: h, Appointments: group})
	}
	return out
}

// GroupByDay buckets appointments onto each calendar day of [from, to],
// inclusive. Days without appointments appear with an empty group so week
// views render a full row.
func GroupByDay(appts []*appointments.Appointment, from, to time.Time) []DayGroup {
	from = midnight(from)
	to = midnight(to)

	var out []DayGroup
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		group := DayGroup{Day: day}
		for _, a := range appts {
			if midnight(a.Date).Equal(day) {
				group.Appointments = append(group.Appointments, a)
			}
		}
		sort.Slice(group.Appointments, func(i, j int) bool {
			return group.Appointments[i].Date.Before(group.Appointments[j].Date)
		})
		out = append(out, group)
	}
	return out
}

// MonthGrid builds the 6x7 month view: the first cell is the ISO Monday on or
// before the first of the month, then 42 consecutive days. The rectangle is
// fixed regardless of month length or starting weekday.
func MonthGrid(year int, month time.Month, appts []*appointments.Appointment) [][]DayCell {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	// time.Weekday has Sunday=0; shift so Monday=0.
	back := (int(first.Weekday()) + 6) % 7
	start := first.AddDate(0, 0, -back)

	byDay := make(map[time.Time][]*appointments.Appointment)
	for _, a := range appts {
		d := midnight(a.Date)
		byDay[d] = append(byDay[d], a)
	}

	grid := make([][]DayCell, 6)
	for week := 0; week < 6; week++ {
		grid[week] = make([]DayCell, 7)
		for dow := 0; dow < 7; dow++ {
			date := start.AddDate(0, 0, week*7+dow)
			cell := DayCell{
				Date:         date,
				InMonth:      date.Month() == month && date.Year() == year,
				Appointments: byDay[date],
			}
			sort.Slice(cell.Appointments, func(i, j int) bool {
				return cell.Appointments[i].Date.Before(cell.Appointments[j].Date)
			})
			grid[week][dow] = cell
		}
	}
	return grid
}

func midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
