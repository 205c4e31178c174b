package scheduler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chaspy/outlook-agent/internal/calendar"
	"github.com/chaspy/outlook-agent/internal/config"
)

// Origin tags where a suggestion came from.
type Origin string

const (
	OriginRule Origin = "rule"
	OriginAI   Origin = "ai"
)

// ActionKind is the semantic action behind a suggestion's display
// text. The executor dispatches on this, never on the text.
type ActionKind string

const (
	ActionReschedule ActionKind = "reschedule"
	ActionDecline    ActionKind = "decline"
	ActionManual     ActionKind = "manual_judgment"
	ActionKeep       ActionKind = "keep"
)

// Suggestion is the resolution recommended for one conflict.
// TargetEventID and SpecificTime are set only when the user manually
// modifies a proposal.
type Suggestion struct {
	Kind          ActionKind `json:"kind"`
	Action        string     `json:"action"`
	Reason        string     `json:"reason,omitempty"`
	Origin        Origin     `json:"origin"`
	Confidence    string     `json:"confidence,omitempty"`
	Alternatives  []string   `json:"alternatives,omitempty"`
	AIError       string     `json:"aiError,omitempty"`
	TargetEventID string     `json:"targetEventId,omitempty"`
	SpecificTime  string     `json:"specificTime,omitempty"`
}

// ProposalEvent is one event inside a proposal, with its priority.
type ProposalEvent struct {
	ID             string   `json:"id"`
	Subject        string   `json:"subject"`
	Organizer      string   `json:"organizer,omitempty"`
	AttendeeCount  int      `json:"attendeesCount"`
	ResponseStatus string   `json:"responseStatus"`
	Priority       Priority `json:"priority"`
}

// Proposal is the resolution plan for one conflict. Events are ordered
// by score descending; ties keep detection order.
type Proposal struct {
	ConflictID string          `json:"conflictId"`
	TimeRange  string          `json:"timeRange"`
	Events     []ProposalEvent `json:"events"`
	Suggestion Suggestion      `json:"suggestion"`
}

// PatternKey derives the descriptive grouping key used by the decision
// memory: conflicts with the same shape share the same key.
func PatternKey(p Proposal) string {
	if len(p.Events) == 0 {
		return "empty conflict"
	}
	top := p.Events[0].Priority.Level
	bottom := p.Events[len(p.Events)-1].Priority.Level
	return fmt.Sprintf("%d events, %s vs %s", len(p.Events), top, bottom)
}

// BuildRuleProposals computes the deterministic rule-based proposal
// for every conflict.
func BuildRuleProposals(conflicts []Conflict, rules *config.Rules) []Proposal {
	proposals := make([]Proposal, 0, len(conflicts))
	for _, c := range conflicts {
		proposals = append(proposals, buildRuleProposal(c, rules))
	}
	return proposals
}

func buildRuleProposal(c Conflict, rules *config.Rules) Proposal {
	events := make([]ProposalEvent, 0, len(c.Events))
	for _, e := range c.Events {
		events = append(events, ProposalEvent{
			ID:             e.ID,
			Subject:        e.Subject,
			Organizer:      e.Organizer,
			AttendeeCount:  e.AttendeeCount,
			ResponseStatus: e.ResponseStatus,
			Priority:       ScorePriority(e, rules),
		})
	}

	// Stable keeps detection order for equal scores.
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Priority.Score > events[j].Priority.Score
	})

	diff := events[0].Priority.Score - events[len(events)-1].Priority.Score

	return Proposal{
		ConflictID: c.ID,
		TimeRange:  calendar.FormatRange(c.Start, c.End),
		Events:     events,
		Suggestion: ruleSuggestion(events, diff, rules.Thresholds),
	}
}

func ruleSuggestion(events []ProposalEvent, diff int, t config.Thresholds) Suggestion {
	top := events[0]
	lower := events[1:]

	switch {
	case diff >= t.Reschedule:
		if len(lower) == 1 {
			return Suggestion{
				Kind:   ActionReschedule,
				Origin: OriginRule,
				Action: fmt.Sprintf("Reschedule %q to another time", lower[0].Subject),
				Reason: fmt.Sprintf("%q has higher priority (%s: %d vs %s: %d)",
					top.Subject, top.Priority.Level, top.Priority.Score,
					lower[0].Priority.Level, lower[0].Priority.Score),
			}
		}
		return Suggestion{
			Kind:   ActionReschedule,
			Origin: OriginRule,
			Action: fmt.Sprintf("Reschedule %s to another time", joinSubjects(lower)),
			Reason: fmt.Sprintf("%q has higher priority (%s: %d)",
				top.Subject, top.Priority.Level, top.Priority.Score),
		}

	case diff >= t.Consider:
		if len(lower) == 1 {
			return Suggestion{
				Kind:   ActionReschedule,
				Origin: OriginRule,
				Action: fmt.Sprintf("Consider rescheduling %q", lower[0].Subject),
				Reason: fmt.Sprintf("priority gap of %d points", diff),
			}
		}
		return Suggestion{
			Kind:   ActionReschedule,
			Origin: OriginRule,
			Action: fmt.Sprintf("Consider rescheduling %s", joinSubjects(lower)),
			Reason: fmt.Sprintf("%q has higher priority", top.Subject),
		}

	default:
		reason := "priorities are too close for an automatic call"
		if len(lower) == 1 {
			reason = fmt.Sprintf("priorities are too close (%d vs %d)",
				top.Priority.Score, lower[0].Priority.Score)
		}
		return Suggestion{
			Kind:   ActionManual,
			Origin: OriginRule,
			Action: "Manual judgment required",
			Reason: reason,
		}
	}
}

func joinSubjects(events []ProposalEvent) string {
	names := make([]string, 0, len(events))
	for _, e := range events {
		names = append(names, fmt.Sprintf("%q", e.Subject))
	}
	return strings.Join(names, ", ")
}
