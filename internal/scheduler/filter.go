package scheduler

import (
	"time"

	"github.com/chaspy/outlook-agent/internal/config"
)

// Filter removes conflicts that are not worth acting on per the
// configured policy. Filtering never truncates a conflict's event
// list: a conflict is kept or dropped whole.
type Filter struct {
	policy config.Policy
}

// NewFilter creates a filter for the given policy.
func NewFilter(policy config.Policy) *Filter {
	return &Filter{policy: policy}
}

// Apply returns the actionable conflicts in their original order and
// the number removed. It produces no output itself; callers decide
// whether to report the removed count.
func (f *Filter) Apply(conflicts []Conflict) ([]Conflict, int) {
	kept := make([]Conflict, 0, len(conflicts))
	for _, c := range conflicts {
		if f.actionable(c) {
			kept = append(kept, c)
		}
	}
	return kept, len(conflicts) - len(kept)
}

func (f *Filter) actionable(c Conflict) bool {
	if f.policy.IgnoreAllDay {
		for _, e := range c.Events {
			if e.IsAllDay {
				return false
			}
		}
	}

	if f.policy.IgnoreTentative {
		allTentative := true
		for _, e := range c.Events {
			if e.ResponseStatus != "tentativelyAccepted" {
				allTentative = false
				break
			}
		}
		if allTentative {
			return false
		}
	}

	if f.policy.MinOverlapMinutes > 0 {
		min := time.Duration(f.policy.MinOverlapMinutes) * time.Minute
		if maxPairwiseOverlap(c) < min {
			return false
		}
	}

	return true
}

// maxPairwiseOverlap returns the longest overlap between any two
// events of the conflict. Transitive clusters may contain pairs that
// do not themselves overlap, so the maximum over all pairs decides
// actionability.
func maxPairwiseOverlap(c Conflict) time.Duration {
	var max time.Duration
	for i := 0; i < len(c.Events); i++ {
		for j := i + 1; j < len(c.Events); j++ {
			a, b := c.Events[i], c.Events[j]
			start := a.Start
			if b.Start.After(start) {
				start = b.Start
			}
			end := a.End
			if b.End.Before(end) {
				end = b.End
			}
			if d := end.Sub(start); d > max {
				max = d
			}
		}
	}
	return max
}
