package ai

import "context"

// Recommendation is the AI's chosen action for a conflict.
type Recommendation struct {
	Action     string `json:"action"` // reschedule, decline, keep
	Target     string `json:"target"` // subject(s) of the event(s) to act on
	Reason     string `json:"reason"`
	Confidence string `json:"confidence"` // high, medium, low
}

// EventScore is the AI's own priority estimate for one event.
type EventScore struct {
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

// Analysis is the structured result of one conflict analysis.
type Analysis struct {
	Recommendation Recommendation `json:"recommendation"`
	Alternatives   []string       `json:"alternatives"`
	Priority       struct {
		Event1 EventScore `json:"event1"`
		Event2 EventScore `json:"event2"`
	} `json:"priority"`
}

// Response is the outcome of one analysis call. A failed call that the
// backend handled (bad model output, refused request) comes back with
// Success false and Err set; transport-level breakage is reported
// through AnalyzeConflict's error return instead and aborts the whole
// AI stage.
type Response struct {
	Success bool
	Result  *Analysis
	Err     string
}

// Analyzer is the AI collaborator contract consumed by the proposal
// engine.
type Analyzer interface {
	// IsAvailable reports whether the backend is configured. When
	// false, the engine routes straight to rule-based generation.
	IsAvailable() bool

	// AnalyzeConflict runs one structured conflict analysis.
	AnalyzeConflict(ctx context.Context, systemPrompt, userPrompt string) (Response, error)
}
