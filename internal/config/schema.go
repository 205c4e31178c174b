package config

import (
	"os"
	"time"
)

// Rules holds the scoring weights and classification thresholds used by
// the rule-based proposal path. Loaded once per run; treated as
// immutable afterwards.
type Rules struct {
	Version string `yaml:"version" mapstructure:"version"`

	// Emails that count as "self" when checking organizer-is-self.
	SelfEmails []string `yaml:"self_emails" mapstructure:"self_emails"`

	Weights    Weights    `yaml:"weights" mapstructure:"weights"`
	Thresholds Thresholds `yaml:"thresholds" mapstructure:"thresholds"`
	Levels     Levels     `yaml:"levels" mapstructure:"levels"`

	// Keyword rules are evaluated in order against the event subject.
	Keywords []KeywordRule `yaml:"keywords" mapstructure:"keywords"`
}

// Weights are the score contributions of individual event traits.
type Weights struct {
	Base           int            `yaml:"base" mapstructure:"base"`
	OrganizerSelf  int            `yaml:"organizer_self" mapstructure:"organizer_self"`
	AttendeeBands  []AttendeeBand `yaml:"attendee_bands" mapstructure:"attendee_bands"`
	ResponseStatus map[string]int `yaml:"response_status" mapstructure:"response_status"`
}

// AttendeeBand awards points when the attendee count falls in
// [Min, Max]. Max 0 means unbounded.
type AttendeeBand struct {
	Min    int    `yaml:"min" mapstructure:"min"`
	Max    int    `yaml:"max" mapstructure:"max"`
	Points int    `yaml:"points" mapstructure:"points"`
	Label  string `yaml:"label" mapstructure:"label"`
}

// KeywordRule awards points when the subject contains the keyword
// (case-insensitive).
type KeywordRule struct {
	Keyword string `yaml:"keyword" mapstructure:"keyword"`
	Points  int    `yaml:"points" mapstructure:"points"`
	Reason  string `yaml:"reason" mapstructure:"reason"`
}

// Thresholds classify the priority gap between the top and bottom
// events of a conflict.
type Thresholds struct {
	// Gap at or above which the lower-priority event should be
	// rescheduled outright.
	Reschedule int `yaml:"reschedule" mapstructure:"reschedule"`
	// Gap at or above which a reschedule is worth considering.
	Consider int `yaml:"consider" mapstructure:"consider"`
}

// Levels maps numeric scores to level buckets. A score >= High is
// high, >= Medium is medium, anything lower is low.
type Levels struct {
	High   int `yaml:"high" mapstructure:"high"`
	Medium int `yaml:"medium" mapstructure:"medium"`
}

// Policy is the conflict-handling policy carried in the AI instruction
// file's frontmatter. The filter consults it even when AI is unused.
type Policy struct {
	MinOverlapMinutes int      `yaml:"min_overlap_minutes"`
	IgnoreTentative   bool     `yaml:"ignore_tentative"`
	IgnoreAllDay      bool     `yaml:"ignore_all_day"`
	PreferredAction   string   `yaml:"preferred_action"`
	ProtectedKeywords []string `yaml:"protected_keywords"`
}

// Instructions is an AI instruction file: a Policy frontmatter plus a
// free-form markdown body appended to the system prompt.
type Instructions struct {
	Policy Policy
	Body   string
}

// Runtime is the ambient process configuration, read from the
// environment exactly once at startup and threaded explicitly into
// components.
type Runtime struct {
	Timezone string
	Location *time.Location
	Model    string
	APIKey   string
}

// RuntimeFromEnv builds the Runtime value. The timezone falls back to
// TZ and then to UTC. Go's unnamed local zone is never surfaced: its
// name stringifies as "Local", which downstream consumers (the Graph
// request bodies, the AI prompt, the JSON payload) would reject or
// mislead with.
func RuntimeFromEnv() Runtime {
	tz := os.Getenv("OUTLOOK_AGENT_TIMEZONE")
	if tz == "" {
		tz = os.Getenv("TZ")
	}
	if tz == "Local" {
		tz = ""
	}
	loc := time.UTC
	if tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		} else {
			tz = ""
		}
	}
	if tz == "" {
		tz = "UTC"
	}

	model := os.Getenv("OUTLOOK_AGENT_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}

	return Runtime{
		Timezone: tz,
		Location: loc,
		Model:    model,
		APIKey:   os.Getenv("OPENAI_API_KEY"),
	}
}
