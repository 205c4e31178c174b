package scheduler

import (
	"testing"
	"time"

	"github.com/chaspy/outlook-agent/internal/calendar"
)

func dayEvent(startHour, startMin, durMin int) calendar.Event {
	start := time.Date(2026, 9, 7, startHour, startMin, 0, 0, time.UTC) // a Monday
	return calendar.Event{
		ID:    start.Format("15:04"),
		Start: start,
		End:   start.Add(time.Duration(durMin) * time.Minute),
	}
}

func TestFindAvailableSlotsBetweenEvents(t *testing.T) {
	t.Parallel()

	date := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	events := []calendar.Event{
		dayEvent(10, 0, 60),
		dayEvent(14, 0, 30),
	}

	slots, err := FindAvailableSlots(events, date, DefaultAvailability)
	if err != nil {
		t.Fatalf("FindAvailableSlots failed: %v", err)
	}

	// 09:00-10:00, 11:00-14:00, 14:30-18:00
	if len(slots) != 3 {
		t.Fatalf("Expected 3 slots, got %d: %v", len(slots), slots)
	}
	if got := slots[0].Start.Format("15:04"); got != "09:00" {
		t.Errorf("First slot should start at work start, got %s", got)
	}
	if got := slots[1].Start.Format("15:04"); got != "11:00" {
		t.Errorf("Second slot should start after the first event, got %s", got)
	}
	if got := slots[2].End.Format("15:04"); got != "18:00" {
		t.Errorf("Last slot should end at work end, got %s", got)
	}
}

func TestFindAvailableSlotsRespectsMinimumDuration(t *testing.T) {
	t.Parallel()

	date := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	events := []calendar.Event{
		dayEvent(9, 0, 170),  // ends 11:50
		dayEvent(12, 0, 360), // ends 18:00
	}

	opts := DefaultAvailability
	opts.Duration = 30 * time.Minute

	slots, err := FindAvailableSlots(events, date, opts)
	if err != nil {
		t.Fatalf("FindAvailableSlots failed: %v", err)
	}
	if len(slots) != 0 {
		t.Errorf("10-minute gap must not satisfy a 30-minute need, got %v", slots)
	}
}

func TestFindAvailableSlotsWeekend(t *testing.T) {
	t.Parallel()

	saturday := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)
	slots, err := FindAvailableSlots(nil, saturday, DefaultAvailability)
	if err != nil {
		t.Fatalf("FindAvailableSlots failed: %v", err)
	}
	if len(slots) != 0 {
		t.Error("Weekends excluded by default")
	}

	opts := DefaultAvailability
	opts.ExcludeWeekends = false
	slots, err = FindAvailableSlots(nil, saturday, opts)
	if err != nil {
		t.Fatalf("FindAvailableSlots failed: %v", err)
	}
	if len(slots) != 1 {
		t.Errorf("Expected the full workday on an empty Saturday, got %v", slots)
	}
}

func TestFindBestSlotPreference(t *testing.T) {
	t.Parallel()

	mk := func(hour int) calendar.TimeSlot {
		start := time.Date(2026, 9, 7, hour, 0, 0, 0, time.UTC)
		return calendar.TimeSlot{Start: start, End: start.Add(time.Hour)}
	}
	slots := []calendar.TimeSlot{mk(9), mk(13), mk(17)}

	if got := FindBestSlot(slots, "afternoon"); got.Start.Hour() != 13 {
		t.Errorf("Expected 13:00 for afternoon, got %d", got.Start.Hour())
	}
	if got := FindBestSlot(slots, "evening"); got.Start.Hour() != 17 {
		t.Errorf("Expected 17:00 for evening, got %d", got.Start.Hour())
	}
	if got := FindBestSlot(slots, ""); got.Start.Hour() != 9 {
		t.Errorf("Expected first slot without preference, got %d", got.Start.Hour())
	}
	if got := FindBestSlot(slots[:1], "evening"); got.Start.Hour() != 9 {
		t.Errorf("Expected fallback to first slot, got %d", got.Start.Hour())
	}
	if FindBestSlot(nil, "") != nil {
		t.Error("Expected nil for empty slot list")
	}
}
