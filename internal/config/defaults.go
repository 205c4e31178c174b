package config

import (
	"os"
)

// DefaultRules returns the built-in scoring rule-set, used whenever no
// rules file is present.
func DefaultRules() *Rules {
	return &Rules{
		Version:    "1",
		SelfEmails: nil,
		Weights: Weights{
			Base:          50,
			OrganizerSelf: 30,
			AttendeeBands: []AttendeeBand{
				{Min: 1, Max: 2, Points: 15, Label: "1:1 meeting"},
				{Min: 3, Max: 5, Points: 10, Label: "small meeting"},
				{Min: 10, Max: 0, Points: -10, Label: "large meeting"},
			},
			ResponseStatus: map[string]int{
				"organizer":           20,
				"accepted":            10,
				"tentativelyAccepted": -10,
				"notResponded":        -5,
			},
		},
		Thresholds: Thresholds{
			Reschedule: 30,
			Consider:   10,
		},
		Levels: Levels{
			High:   80,
			Medium: 55,
		},
		Keywords: []KeywordRule{
			{Keyword: "interview", Points: 25, Reason: "interview"},
			{Keyword: "customer", Points: 20, Reason: "customer meeting"},
			{Keyword: "1on1", Points: 15, Reason: "one-on-one"},
			{Keyword: "all hands", Points: 10, Reason: "company-wide meeting"},
			{Keyword: "lunch", Points: -15, Reason: "social event"},
		},
	}
}

// DefaultInstructions returns the built-in AI instruction policy.
func DefaultInstructions() *Instructions {
	return &Instructions{
		Policy: Policy{
			MinOverlapMinutes: 5,
			IgnoreTentative:   false,
			IgnoreAllDay:      true,
			PreferredAction:   "reschedule",
		},
		Body: defaultInstructionsBody,
	}
}

const defaultInstructionsBody = `Prefer rescheduling the lower-priority meeting over declining it.
Never suggest declining meetings the user organizes.
When priorities are close, recommend manual judgment rather than guessing.`

const defaultRulesYAML = `# outlook-agent scheduling rules
version: "1"

# Emails treated as "self" for the organizer-is-self weight.
self_emails: []

weights:
  base: 50
  organizer_self: 30
  attendee_bands:
    - {min: 1, max: 2, points: 15, label: "1:1 meeting"}
    - {min: 3, max: 5, points: 10, label: "small meeting"}
    - {min: 10, max: 0, points: -10, label: "large meeting"}
  response_status:
    organizer: 20
    accepted: 10
    tentativelyAccepted: -10
    notResponded: -5

# Priority-gap classification between the top and bottom events.
thresholds:
  reschedule: 30
  consider: 10

# Score-to-level buckets.
levels:
  high: 80
  medium: 55

keywords:
  - {keyword: "interview", points: 25, reason: "interview"}
  - {keyword: "customer", points: 20, reason: "customer meeting"}
  - {keyword: "1on1", points: 15, reason: "one-on-one"}
  - {keyword: "all hands", points: 10, reason: "company-wide meeting"}
  - {keyword: "lunch", points: -15, reason: "social event"}
`

const defaultInstructionsMarkdown = `---
min_overlap_minutes: 5
ignore_tentative: false
ignore_all_day: true
preferred_action: reschedule
protected_keywords: []
---

Prefer rescheduling the lower-priority meeting over declining it.
Never suggest declining meetings the user organizes.
When priorities are close, recommend manual judgment rather than guessing.
`

// WriteDefaultRules writes the default rules file.
func WriteDefaultRules(path string) error {
	return os.WriteFile(path, []byte(defaultRulesYAML), 0644)
}

// WriteDefaultInstructions writes the default AI instruction file.
func WriteDefaultInstructions(path string) error {
	return os.WriteFile(path, []byte(defaultInstructionsMarkdown), 0644)
}
