package scheduler

import (
	"fmt"
	"strings"

	"github.com/chaspy/outlook-agent/internal/calendar"
	"github.com/chaspy/outlook-agent/internal/config"
)

// Level buckets a numeric priority score.
type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

// Priority is the importance assessment of one event. AIScore and
// AIReason are an optional AI-supplied overlay; they annotate the base
// score but never replace it.
type Priority struct {
	Level    Level    `json:"level"`
	Score    int      `json:"score"`
	Reasons  []string `json:"reasons"`
	AIScore  int      `json:"aiScore,omitempty"`
	AIReason string   `json:"aiReason,omitempty"`
}

// ScorePriority rates one event against the rule-set. Pure and
// deterministic: the same event and rules always produce the same
// score, level and reason list, with reasons in evaluation order.
func ScorePriority(e calendar.Event, rules *config.Rules) Priority {
	score := rules.Weights.Base
	var reasons []string

	if isSelfOrganizer(e, rules) && rules.Weights.OrganizerSelf != 0 {
		score += rules.Weights.OrganizerSelf
		reasons = append(reasons, fmt.Sprintf("you are the organizer (%+d)", rules.Weights.OrganizerSelf))
	}

	for _, band := range rules.Weights.AttendeeBands {
		if e.AttendeeCount < band.Min {
			continue
		}
		if band.Max > 0 && e.AttendeeCount > band.Max {
			continue
		}
		score += band.Points
		label := band.Label
		if label == "" {
			label = fmt.Sprintf("%d attendees", e.AttendeeCount)
		}
		reasons = append(reasons, fmt.Sprintf("%s (%+d)", label, band.Points))
		break
	}

	if pts, ok := rules.Weights.ResponseStatus[e.ResponseStatus]; ok && pts != 0 {
		score += pts
		reasons = append(reasons, fmt.Sprintf("response status %s (%+d)", e.ResponseStatus, pts))
	}

	subject := strings.ToLower(e.Subject)
	for _, kw := range rules.Keywords {
		if kw.Keyword == "" || !strings.Contains(subject, strings.ToLower(kw.Keyword)) {
			continue
		}
		score += kw.Points
		reason := kw.Reason
		if reason == "" {
			reason = kw.Keyword
		}
		reasons = append(reasons, fmt.Sprintf("%s (%+d)", reason, kw.Points))
	}

	return Priority{
		Level:   scoreLevel(score, rules.Levels),
		Score:   score,
		Reasons: reasons,
	}
}

func isSelfOrganizer(e calendar.Event, rules *config.Rules) bool {
	if e.ResponseStatus == "organizer" {
		return true
	}
	for _, self := range rules.SelfEmails {
		if self != "" && strings.EqualFold(e.Organizer, self) {
			return true
		}
	}
	return false
}

func scoreLevel(score int, levels config.Levels) Level {
	switch {
	case score >= levels.High:
		return LevelHigh
	case score >= levels.Medium:
		return LevelMedium
	default:
		return LevelLow
	}
}
