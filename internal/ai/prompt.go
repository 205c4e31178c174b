package ai

import (
	"fmt"
	"strings"

	"github.com/chaspy/outlook-agent/internal/config"
)

// EventSummary is the slice of event data exposed to the model.
type EventSummary struct {
	Subject        string
	Organizer      string
	Attendees      int
	ResponseStatus string
	Level          string
	Score          int
}

// ConflictSummary is the conflict data embedded in the analysis prompt.
type ConflictSummary struct {
	TimeRange string
	Events    []EventSummary
}

// BuildSystemPrompt renders the system prompt from the instruction
// policy, the scoring rules and the user's timezone.
func BuildSystemPrompt(instr *config.Instructions, rules *config.Rules, timezone string) (string, error) {
	if instr == nil || rules == nil {
		return "", fmt.Errorf("instructions and rules are required")
	}

	var b strings.Builder
	b.WriteString("You are a scheduling assistant that resolves calendar conflicts.\n")
	fmt.Fprintf(&b, "The user's timezone is %s.\n\n", timezone)

	b.WriteString("Scoring context: events are rated on a numeric scale where ")
	fmt.Fprintf(&b, "%d+ is high priority and %d+ is medium priority. ", rules.Levels.High, rules.Levels.Medium)
	fmt.Fprintf(&b, "A gap of %d points or more between two events normally means the lower one should move.\n\n", rules.Thresholds.Reschedule)

	if instr.Policy.PreferredAction != "" {
		fmt.Fprintf(&b, "When in doubt, prefer action %q.\n", instr.Policy.PreferredAction)
	}
	if len(instr.Policy.ProtectedKeywords) > 0 {
		fmt.Fprintf(&b, "Never recommend declining or moving meetings whose subject contains: %s.\n",
			strings.Join(instr.Policy.ProtectedKeywords, ", "))
	}
	if instr.Body != "" {
		b.WriteString("\nUser instructions:\n")
		b.WriteString(instr.Body)
		b.WriteString("\n")
	}

	b.WriteString(`
Respond with JSON only, using this shape:
{
  "recommendation": {"action": "reschedule|decline|keep", "target": "<event subject>", "reason": "...", "confidence": "high|medium|low"},
  "alternatives": ["..."],
  "priority": {"event1": {"score": 0, "reason": "..."}, "event2": {"score": 0, "reason": "..."}}
}`)

	return b.String(), nil
}

// BuildConflictPrompt renders the per-conflict analysis prompt.
func BuildConflictPrompt(conflict ConflictSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Resolve this calendar conflict at %s.\n\n", conflict.TimeRange)

	for i, e := range conflict.Events {
		fmt.Fprintf(&b, "Event %d: %s\n", i+1, e.Subject)
		organizer := e.Organizer
		if organizer == "" {
			organizer = "(none)"
		}
		fmt.Fprintf(&b, "  organizer: %s\n", organizer)
		fmt.Fprintf(&b, "  attendees: %d\n", e.Attendees)
		fmt.Fprintf(&b, "  response status: %s\n", e.ResponseStatus)
		fmt.Fprintf(&b, "  rule-based priority: %s (score %d)\n\n", e.Level, e.Score)
	}

	b.WriteString("Recommend exactly one action and explain it briefly.")
	return b.String()
}
