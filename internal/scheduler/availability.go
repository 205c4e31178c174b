package scheduler

import (
	"fmt"
	"sort"
	"time"

	"github.com/chaspy/outlook-agent/internal/calendar"
)

// AvailabilityOptions bounds the free-slot search to working hours.
type AvailabilityOptions struct {
	WorkStart       string // "09:00"
	WorkEnd         string // "18:00"
	Duration        time.Duration
	ExcludeWeekends bool
}

// DefaultAvailability is the standard working-hours window.
var DefaultAvailability = AvailabilityOptions{
	WorkStart:       "09:00",
	WorkEnd:         "18:00",
	Duration:        30 * time.Minute,
	ExcludeWeekends: true,
}

// FindAvailableSlots returns the gaps of at least Duration between the
// day's events, clamped to working hours. Weekends return no slots
// when ExcludeWeekends is set.
func FindAvailableSlots(events []calendar.Event, date time.Time, opts AvailabilityOptions) ([]calendar.TimeSlot, error) {
	if opts.ExcludeWeekends {
		if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			return nil, nil
		}
	}

	workStart, err := atClock(date, opts.WorkStart)
	if err != nil {
		return nil, fmt.Errorf("work start: %w", err)
	}
	workEnd, err := atClock(date, opts.WorkEnd)
	if err != nil {
		return nil, fmt.Errorf("work end: %w", err)
	}

	dayEvents := make([]calendar.Event, 0, len(events))
	for _, e := range events {
		if sameDay(e.Start, date) && !e.IsAllDay {
			dayEvents = append(dayEvents, e)
		}
	}
	sort.SliceStable(dayEvents, func(i, j int) bool {
		return dayEvents[i].Start.Before(dayEvents[j].Start)
	})

	var slots []calendar.TimeSlot
	current := workStart

	for _, e := range dayEvents {
		if current.Before(e.Start) && e.Start.Sub(current) >= opts.Duration {
			slots = append(slots, calendar.TimeSlot{Start: current, End: e.Start})
		}
		if e.End.After(current) {
			current = e.End
		}
	}

	if current.Before(workEnd) && workEnd.Sub(current) >= opts.Duration {
		slots = append(slots, calendar.TimeSlot{Start: current, End: workEnd})
	}

	return slots, nil
}

// FindBestSlot picks the first slot matching the preferred daypart
// (morning, afternoon, evening), or the first slot overall.
func FindBestSlot(slots []calendar.TimeSlot, prefer string) *calendar.TimeSlot {
	if len(slots) == 0 {
		return nil
	}

	match := func(s calendar.TimeSlot) bool {
		switch prefer {
		case "morning":
			return s.Start.Hour() < 12
		case "afternoon":
			return s.Start.Hour() >= 12 && s.Start.Hour() < 17
		case "evening":
			return s.Start.Hour() >= 17
		default:
			return true
		}
	}

	for i := range slots {
		if match(slots[i]) {
			return &slots[i]
		}
	}
	return &slots[0]
}

func atClock(date time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(),
		t.Hour(), t.Minute(), 0, 0, date.Location()), nil
}

func sameDay(t, date time.Time) bool {
	a := t.In(date.Location())
	return a.Year() == date.Year() && a.YearDay() == date.YearDay()
}
