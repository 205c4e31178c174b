package calendar

import (
	"context"
	"fmt"
	"time"
)

// Event is a single calendar entry as fetched from the calendar backend.
// Events are read-only inputs; mutations go through the Client methods.
type Event struct {
	ID             string
	Subject        string
	Organizer      string // organizer email, may be empty
	AttendeeCount  int
	ResponseStatus string // organizer, accepted, tentativelyAccepted, declined, notResponded, none
	Start          time.Time
	End            time.Time
	TimeZone       string
	IsAllDay       bool
	Location       string
}

// Duration returns the scheduled length of the event.
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Attendee identifies one meeting participant.
type Attendee struct {
	Email string
	Name  string
}

// EventDetail extends Event with the full attendee list, which the
// list endpoint does not return.
type EventDetail struct {
	Event
	Attendees []Attendee
}

// TimeSlot is a concrete start/end pair, used both for meeting-time
// suggestions and for rescheduling targets.
type TimeSlot struct {
	Start time.Time
	End   time.Time
}

// MeetingTimeRequest describes a findMeetingTimes query.
type MeetingTimeRequest struct {
	Attendees     []string
	WindowStart   time.Time
	WindowEnd     time.Time
	Duration      time.Duration
	MaxCandidates int
}

// Client is the calendar collaborator contract. Implementations talk to
// the actual calendar backend; the scheduling core only ever goes
// through this interface.
type Client interface {
	// GetUpcomingEvents returns events from start through start+days.
	GetUpcomingEvents(ctx context.Context, start time.Time, days int) ([]Event, error)

	// GetEvent fetches one event including its attendee list.
	GetEvent(ctx context.Context, id string) (*EventDetail, error)

	// UpdateEvent moves an event to the given slot.
	UpdateEvent(ctx context.Context, id string, slot TimeSlot) error

	// UpdateEventResponse sets the user's response (e.g. "decline").
	UpdateEventResponse(ctx context.Context, id string, response string) error

	// FindMeetingTimes asks the backend for free slots shared by the
	// given attendees inside the request window.
	FindMeetingTimes(ctx context.Context, req MeetingTimeRequest) ([]TimeSlot, error)
}

// FormatRange renders a start/end pair for display, collapsing the date
// when both ends fall on the same day.
func FormatRange(start, end time.Time) string {
	if start.Year() == end.Year() && start.YearDay() == end.YearDay() {
		return fmt.Sprintf("%s %s - %s",
			start.Format("2006-01-02 (Mon)"),
			start.Format("15:04"),
			end.Format("15:04"))
	}
	return fmt.Sprintf("%s - %s",
		start.Format("2006-01-02 15:04"),
		end.Format("2006-01-02 15:04"))
}
