package scheduler

import (
	"fmt"
	"sort"
	"time"

	"github.com/chaspy/outlook-agent/internal/calendar"
)

// Conflict is a maximal set of events whose time ranges transitively
// overlap, together with the overall window they span. Every conflict
// has at least two events, and no event appears in two conflicts.
type Conflict struct {
	ID     string
	Events []calendar.Event
	Start  time.Time
	End    time.Time
}

// DetectConflicts groups events into transitive-overlap clusters.
// Events are sorted by start, then a single forward sweep keeps the
// active cluster open while the next event starts before the cluster's
// running end. Clusters with fewer than two members are dropped.
// Output order is chronological by first occurrence.
func DetectConflicts(events []calendar.Event) []Conflict {
	if len(events) < 2 {
		return nil
	}

	sorted := make([]calendar.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	var conflicts []Conflict
	cluster := []calendar.Event{sorted[0]}
	clusterEnd := sorted[0].End

	flush := func() {
		if len(cluster) >= 2 {
			c := Conflict{
				ID:     fmt.Sprintf("conflict-%d", len(conflicts)),
				Events: cluster,
				Start:  cluster[0].Start,
				End:    clusterEnd,
			}
			conflicts = append(conflicts, c)
		}
	}

	for _, e := range sorted[1:] {
		if e.Start.Before(clusterEnd) {
			cluster = append(cluster, e)
			if e.End.After(clusterEnd) {
				clusterEnd = e.End
			}
			continue
		}
		flush()
		cluster = []calendar.Event{e}
		clusterEnd = e.End
	}
	flush()

	return conflicts
}
