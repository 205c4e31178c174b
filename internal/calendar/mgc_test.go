package calendar

import (
	"context"
	"strings"
	"testing"
	"time"
)

func stubClient(output string) (*MgcClient, *[][]string) {
	var calls [][]string
	c := &MgcClient{binary: "mgc"}
	c.runner = func(ctx context.Context, args ...string) ([]byte, error) {
		calls = append(calls, args)
		return []byte(output), nil
	}
	return c, &calls
}

func TestGetUpcomingEventsDecode(t *testing.T) {
	t.Parallel()

	c, calls := stubClient(`{
		"value": [
			{
				"id": "ev-1",
				"subject": "Weekly Sync",
				"start": {"dateTime": "2026-09-07T10:00:00.0000000", "timeZone": "UTC"},
				"end": {"dateTime": "2026-09-07T10:30:00.0000000", "timeZone": "UTC"},
				"organizer": {"emailAddress": {"address": "boss@example.com", "name": "Boss"}},
				"attendees": [
					{"emailAddress": {"address": "a@example.com"}},
					{"emailAddress": {"address": "b@example.com"}}
				],
				"responseStatus": {"response": "accepted"}
			},
			{
				"id": "ev-2",
				"subject": "Focus Block",
				"start": {"dateTime": "2026-09-07T11:00:00", "timeZone": "UTC"},
				"end": {"dateTime": "2026-09-07T12:00:00", "timeZone": "UTC"},
				"isAllDay": false
			}
		]
	}`)

	start := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	events, err := c.GetUpcomingEvents(context.Background(), start, 7)
	if err != nil {
		t.Fatalf("GetUpcomingEvents failed: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[0].Organizer != "boss@example.com" {
		t.Errorf("Expected organizer boss@example.com, got %q", events[0].Organizer)
	}
	if events[0].AttendeeCount != 2 {
		t.Errorf("Expected 2 attendees, got %d", events[0].AttendeeCount)
	}
	if events[0].ResponseStatus != "accepted" {
		t.Errorf("Expected responseStatus accepted, got %q", events[0].ResponseStatus)
	}
	if events[1].ResponseStatus != "none" {
		t.Errorf("Expected default responseStatus none, got %q", events[1].ResponseStatus)
	}
	if got := events[0].Start.Format("15:04"); got != "10:00" {
		t.Errorf("Expected start 10:00, got %s", got)
	}

	if len(*calls) != 1 {
		t.Fatalf("Expected 1 mgc invocation, got %d", len(*calls))
	}
	if (*calls)[0][2] != "calendar-view" {
		t.Errorf("Expected calendar-view call, got %v", (*calls)[0])
	}
}

func TestGetEventAttendees(t *testing.T) {
	t.Parallel()

	c, _ := stubClient(`{
		"id": "ev-1",
		"subject": "1on1",
		"start": {"dateTime": "2026-09-07T10:00:00", "timeZone": "UTC"},
		"end": {"dateTime": "2026-09-07T10:30:00", "timeZone": "UTC"},
		"attendees": [
			{"emailAddress": {"address": "a@example.com", "name": "A"}},
			{"emailAddress": {"address": "b@example.com", "name": "B"}}
		]
	}`)

	detail, err := c.GetEvent(context.Background(), "ev-1")
	if err != nil {
		t.Fatalf("GetEvent failed: %v", err)
	}
	if len(detail.Attendees) != 2 {
		t.Fatalf("Expected 2 attendees, got %d", len(detail.Attendees))
	}
	if detail.Attendees[1].Email != "b@example.com" {
		t.Errorf("Expected b@example.com, got %q", detail.Attendees[1].Email)
	}
}

func TestFindMeetingTimesBody(t *testing.T) {
	t.Parallel()

	c, calls := stubClient(`{
		"meetingTimeSuggestions": [
			{"meetingTimeSlot": {
				"start": {"dateTime": "2026-09-08T09:00:00", "timeZone": "UTC"},
				"end": {"dateTime": "2026-09-08T09:30:00", "timeZone": "UTC"}
			}}
		]
	}`)

	win := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	slots, err := c.FindMeetingTimes(context.Background(), MeetingTimeRequest{
		Attendees:     []string{"a@example.com"},
		WindowStart:   win,
		WindowEnd:     win.AddDate(0, 0, 7),
		Duration:      30 * time.Minute,
		MaxCandidates: 5,
	})
	if err != nil {
		t.Fatalf("FindMeetingTimes failed: %v", err)
	}
	if len(slots) != 1 {
		t.Fatalf("Expected 1 slot, got %d", len(slots))
	}
	if slots[0].End.Sub(slots[0].Start) != 30*time.Minute {
		t.Errorf("Expected 30m slot, got %v", slots[0].End.Sub(slots[0].Start))
	}

	body := (*calls)[0][len((*calls)[0])-1]
	if !strings.Contains(body, `"meetingDuration":"PT30M"`) {
		t.Errorf("Expected PT30M duration in body, got %s", body)
	}
}

func TestFindMeetingTimesNormalizesLocalZone(t *testing.T) {
	t.Parallel()

	c, calls := stubClient(`{"meetingTimeSuggestions": []}`)

	// A time.Now()-style window carries the unnamed local zone, whose
	// name stringifies as "Local"; Graph rejects that identifier.
	win := time.Date(2026, 9, 7, 9, 0, 0, 0, time.Local)
	_, err := c.FindMeetingTimes(context.Background(), MeetingTimeRequest{
		Attendees:     []string{"a@example.com"},
		WindowStart:   win,
		WindowEnd:     win.AddDate(0, 0, 7),
		Duration:      30 * time.Minute,
		MaxCandidates: 5,
	})
	if err != nil {
		t.Fatalf("FindMeetingTimes failed: %v", err)
	}

	body := (*calls)[0][len((*calls)[0])-1]
	if strings.Contains(body, `"timeZone":"Local"`) {
		t.Fatalf("Body must not carry the zone name Local: %s", body)
	}
	if !strings.Contains(body, `"timeZone":"UTC"`) {
		t.Errorf("Expected UTC zone in body, got %s", body)
	}
	want := win.UTC().Format("2006-01-02T15:04:05")
	if !strings.Contains(body, want) {
		t.Errorf("Expected UTC-converted start %s in body, got %s", want, body)
	}
}

func TestFindMeetingTimesKeepsNamedZone(t *testing.T) {
	t.Parallel()

	c, calls := stubClient(`{"meetingTimeSuggestions": []}`)

	tokyo := time.FixedZone("Asia/Tokyo", 9*60*60)
	win := time.Date(2026, 9, 7, 9, 0, 0, 0, tokyo)
	_, err := c.FindMeetingTimes(context.Background(), MeetingTimeRequest{
		Attendees:     []string{"a@example.com"},
		WindowStart:   win,
		WindowEnd:     win.AddDate(0, 0, 7),
		Duration:      30 * time.Minute,
		MaxCandidates: 5,
	})
	if err != nil {
		t.Fatalf("FindMeetingTimes failed: %v", err)
	}

	body := (*calls)[0][len((*calls)[0])-1]
	if !strings.Contains(body, `"timeZone":"Asia/Tokyo"`) {
		t.Errorf("Named zones must pass through unchanged, got %s", body)
	}
	if !strings.Contains(body, "2026-09-07T09:00:00") {
		t.Errorf("Named-zone wall time must not shift, got %s", body)
	}
}

func TestUpdateEventNormalizesLocalZone(t *testing.T) {
	t.Parallel()

	c, calls := stubClient(`{}`)

	slot := TimeSlot{
		Start: time.Date(2026, 9, 10, 15, 0, 0, 0, time.Local),
		End:   time.Date(2026, 9, 10, 16, 0, 0, 0, time.Local),
	}
	if err := c.UpdateEvent(context.Background(), "ev-1", slot); err != nil {
		t.Fatalf("UpdateEvent failed: %v", err)
	}

	body := (*calls)[0][len((*calls)[0])-1]
	if strings.Contains(body, `"timeZone":"Local"`) {
		t.Fatalf("Body must not carry the zone name Local: %s", body)
	}
	if !strings.Contains(body, slot.Start.UTC().Format("2006-01-02T15:04:05")) {
		t.Errorf("Expected UTC-converted start in body, got %s", body)
	}
}

func TestIsoDuration(t *testing.T) {
	t.Parallel()

	cases := map[time.Duration]string{
		30 * time.Minute: "PT30M",
		time.Hour:        "PT1H",
		90 * time.Minute: "PT1H30M",
	}
	for d, want := range cases {
		if got := isoDuration(d); got != want {
			t.Errorf("isoDuration(%v) = %q, want %q", d, got, want)
		}
	}
}

func TestFormatRangeSameDay(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	got := FormatRange(start, start.Add(time.Hour))
	if !strings.Contains(got, "10:00 - 11:00") {
		t.Errorf("Expected collapsed same-day range, got %q", got)
	}

	crossDay := FormatRange(start, start.AddDate(0, 0, 1))
	if !strings.Contains(crossDay, "2026-09-08") {
		t.Errorf("Expected both dates in cross-day range, got %q", crossDay)
	}
}
