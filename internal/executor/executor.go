// Package executor applies resolution proposals against the calendar
// backend. Failures are reported in the Result; Apply never returns an
// error so a bad proposal cannot abort a batch.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/chaspy/outlook-agent/internal/calendar"
	"github.com/chaspy/outlook-agent/internal/scheduler"
)

const (
	// DefaultSearchDays is the window findMeetingTimes looks ahead.
	DefaultSearchDays = 7

	// DefaultMeetingDuration is used when the event's own length is
	// unknown (zero).
	DefaultMeetingDuration = 30 * time.Minute

	// DefaultMaxCandidates caps the slots requested from the backend.
	DefaultMaxCandidates = 5
)

// Result reports the outcome of applying one proposal.
type Result struct {
	Success bool
	Details string
	Err     string
}

func failure(format string, args ...any) Result {
	return Result{Err: fmt.Sprintf(format, args...)}
}

// Executor turns accepted proposals into calendar mutations.
type Executor struct {
	client calendar.Client
	loc    *time.Location
	now    func() time.Time
}

// New builds an Executor. loc is the timezone search windows and
// specific-time overrides are interpreted in; nil means UTC.
func New(client calendar.Client, loc *time.Location) *Executor {
	if loc == nil {
		loc = time.UTC
	}
	return &Executor{client: client, loc: loc, now: time.Now}
}

// Apply executes the proposal's suggestion. With dryRun set it reports
// what would happen without touching the calendar.
func (x *Executor) Apply(ctx context.Context, p scheduler.Proposal, dryRun bool) Result {
	if dryRun {
		return Result{
			Success: true,
			Details: fmt.Sprintf("[dry-run] %s", p.Suggestion.Action),
		}
	}

	switch p.Suggestion.Kind {
	case scheduler.ActionReschedule:
		return x.reschedule(ctx, p)
	case scheduler.ActionDecline:
		return x.decline(ctx, p)
	default:
		return failure("action %q cannot be executed automatically", p.Suggestion.Kind)
	}
}

// rescheduleTarget picks the event a reschedule acts on: the explicit
// override if set, otherwise the first event strictly below the top
// score. A conflict where every event ties has no target.
func rescheduleTarget(p scheduler.Proposal) (scheduler.ProposalEvent, error) {
	if len(p.Events) == 0 {
		return scheduler.ProposalEvent{}, fmt.Errorf("proposal has no events")
	}

	if id := p.Suggestion.TargetEventID; id != "" {
		for _, e := range p.Events {
			if e.ID == id {
				return e, nil
			}
		}
		return scheduler.ProposalEvent{}, fmt.Errorf("target event %s is not part of this conflict", id)
	}

	top := p.Events[0].Priority.Score
	for _, e := range p.Events[1:] {
		if e.Priority.Score < top {
			return e, nil
		}
	}
	return scheduler.ProposalEvent{}, fmt.Errorf("all events share the same priority, nothing to reschedule")
}

func (x *Executor) reschedule(ctx context.Context, p scheduler.Proposal) Result {
	target, err := rescheduleTarget(p)
	if err != nil {
		return failure("cannot pick reschedule target: %v", err)
	}

	detail, err := x.client.GetEvent(ctx, target.ID)
	if err != nil {
		return failure("failed to load event %q: %v", target.Subject, err)
	}

	duration := detail.Duration()
	if duration <= 0 {
		duration = DefaultMeetingDuration
	}

	if p.Suggestion.SpecificTime != "" {
		slot, err := x.parseSpecificTime(p.Suggestion.SpecificTime, duration)
		if err != nil {
			return failure("invalid time %q: %v", p.Suggestion.SpecificTime, err)
		}
		if err := x.client.UpdateEvent(ctx, target.ID, slot); err != nil {
			return failure("failed to move %q: %v", target.Subject, err)
		}
		return Result{
			Success: true,
			Details: fmt.Sprintf("Moved %q to %s", target.Subject, calendar.FormatRange(slot.Start, slot.End)),
		}
	}

	attendees := make([]string, 0, len(detail.Attendees))
	for _, a := range detail.Attendees {
		attendees = append(attendees, a.Email)
	}

	// The window is anchored in the configured zone so the Graph
	// request carries a real zone name, never Go's "Local".
	start := x.now().In(x.loc)
	slots, err := x.client.FindMeetingTimes(ctx, calendar.MeetingTimeRequest{
		Attendees:     attendees,
		WindowStart:   start,
		WindowEnd:     start.AddDate(0, 0, DefaultSearchDays),
		Duration:      duration,
		MaxCandidates: DefaultMaxCandidates,
	})
	if err != nil {
		return failure("failed to find a slot for %q: %v", target.Subject, err)
	}
	if len(slots) == 0 {
		return failure("no free slot found for %q in the next %d days", target.Subject, DefaultSearchDays)
	}

	slot := slots[0]
	if err := x.client.UpdateEvent(ctx, target.ID, slot); err != nil {
		return failure("failed to move %q: %v", target.Subject, err)
	}

	return Result{
		Success: true,
		Details: fmt.Sprintf("Moved %q to %s", target.Subject, calendar.FormatRange(slot.Start, slot.End)),
	}
}

func (x *Executor) decline(ctx context.Context, p scheduler.Proposal) Result {
	target, err := rescheduleTarget(p)
	if err != nil {
		return failure("cannot pick decline target: %v", err)
	}

	if err := x.client.UpdateEventResponse(ctx, target.ID, "decline"); err != nil {
		return failure("failed to decline %q: %v", target.Subject, err)
	}
	return Result{
		Success: true,
		Details: fmt.Sprintf("Declined %q", target.Subject),
	}
}

// parseSpecificTime accepts "2006-01-02 15:04" or "15:04" (today).
func (x *Executor) parseSpecificTime(s string, duration time.Duration) (calendar.TimeSlot, error) {
	if t, err := time.ParseInLocation("2006-01-02 15:04", s, x.loc); err == nil {
		return calendar.TimeSlot{Start: t, End: t.Add(duration)}, nil
	}

	t, err := time.ParseInLocation("15:04", s, x.loc)
	if err != nil {
		return calendar.TimeSlot{}, fmt.Errorf("expected \"YYYY-MM-DD HH:MM\" or \"HH:MM\"")
	}
	now := x.now().In(x.loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, x.loc)
	return calendar.TimeSlot{Start: start, End: start.Add(duration)}, nil
}
