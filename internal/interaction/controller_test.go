package interaction

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/chaspy/outlook-agent/internal/executor"
	"github.com/chaspy/outlook-agent/internal/memory"
	"github.com/chaspy/outlook-agent/internal/scheduler"
)

// scriptedPrompter replays a fixed sequence of answers.
type scriptedPrompter struct {
	t       *testing.T
	selects []int
	multis  [][]int
	inputs  []string

	cancelAtSelect int // 1-based select call to cancel on, 0 = never
	selectCalls    int
}

func (p *scriptedPrompter) Select(message string, options []string) (int, error) {
	p.selectCalls++
	if p.cancelAtSelect == p.selectCalls {
		return 0, ErrCancelled
	}
	if len(p.selects) == 0 {
		p.t.Fatalf("Unexpected Select(%q)", message)
	}
	answer := p.selects[0]
	p.selects = p.selects[1:]
	if answer >= len(options) {
		p.t.Fatalf("Scripted answer %d out of range for %v", answer, options)
	}
	return answer, nil
}

func (p *scriptedPrompter) MultiSelect(message string, options []string) ([]int, error) {
	if len(p.multis) == 0 {
		p.t.Fatalf("Unexpected MultiSelect(%q)", message)
	}
	answer := p.multis[0]
	p.multis = p.multis[1:]
	return answer, nil
}

func (p *scriptedPrompter) Input(message string) (string, error) {
	if len(p.inputs) == 0 {
		p.t.Fatalf("Unexpected Input(%q)", message)
	}
	answer := p.inputs[0]
	p.inputs = p.inputs[1:]
	return answer, nil
}

// fakeApplier succeeds or fails per proposal index, recording what ran.
type fakeApplier struct {
	failAt  map[string]bool // conflict IDs that fail
	applied []scheduler.Proposal
}

func (f *fakeApplier) Apply(ctx context.Context, p scheduler.Proposal, dryRun bool) executor.Result {
	f.applied = append(f.applied, p)
	if f.failAt[p.ConflictID] {
		return executor.Result{Err: "backend refused"}
	}
	return executor.Result{Success: true, Details: "moved " + p.ConflictID}
}

// fakeRecorder collects decisions in memory.
type fakeRecorder struct {
	records  []memory.Record
	patterns []memory.Pattern
}

func (f *fakeRecorder) RecordDecision(r memory.Record) error {
	f.records = append(f.records, r)
	return nil
}

func (f *fakeRecorder) SuggestPatterns(minSamples int) ([]memory.Pattern, error) {
	return f.patterns, nil
}

func proposal(id, subject string) scheduler.Proposal {
	return scheduler.Proposal{
		ConflictID: id,
		TimeRange:  "2026-09-07 (Mon) 10:00 - 11:00",
		Events: []scheduler.ProposalEvent{
			{ID: id + "-a", Subject: subject, Priority: scheduler.Priority{Level: scheduler.LevelHigh, Score: 90}},
			{ID: id + "-b", Subject: subject + " (other)", Priority: scheduler.Priority{Level: scheduler.LevelLow, Score: 40}},
		},
		Suggestion: scheduler.Suggestion{
			Kind:   scheduler.ActionReschedule,
			Action: `Reschedule "` + subject + ` (other)" to another time`,
			Origin: scheduler.OriginRule,
		},
	}
}

func TestDryRunExitsWithoutSideEffects(t *testing.T) {
	t.Parallel()

	prompter := &scriptedPrompter{t: t}
	applier := &fakeApplier{}
	recorder := &fakeRecorder{}
	var buf bytes.Buffer

	c := NewController(prompter, applier, recorder, &buf)
	out, err := c.Run(context.Background(), []scheduler.Proposal{proposal("c1", "Sync")}, true)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if out.State != StateDryRunExit {
		t.Errorf("Expected dry-run exit, got %s", out.State)
	}
	if len(applier.applied) != 0 {
		t.Error("Dry run must not execute proposals")
	}
	if len(recorder.records) != 0 {
		t.Error("Dry run must not record decisions")
	}
	if prompter.selectCalls != 0 {
		t.Error("Dry run must not prompt")
	}
}

func TestApplyAllRecordsAndTallies(t *testing.T) {
	t.Parallel()

	proposals := []scheduler.Proposal{proposal("c1", "Sync"), proposal("c2", "Review"), proposal("c3", "1on1")}
	prompter := &scriptedPrompter{t: t, selects: []int{0}} // apply all
	applier := &fakeApplier{failAt: map[string]bool{"c2": true}}
	recorder := &fakeRecorder{}
	var buf bytes.Buffer

	c := NewController(prompter, applier, recorder, &buf)
	out, err := c.Run(context.Background(), proposals, false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if out.State != StateCompleted {
		t.Errorf("Expected completion, got %s", out.State)
	}
	if out.Auto.Succeeded != 2 || out.Auto.Failed != 1 {
		t.Errorf("Expected 2 successes and 1 failure, got %+v", out.Auto)
	}
	if got := out.Auto.Succeeded + out.Auto.Failed; got != len(proposals) {
		t.Errorf("Tallies must cover every proposal, got %d", got)
	}

	// One failure never aborts the loop.
	if len(applier.applied) != 3 {
		t.Errorf("Expected all 3 proposals executed, got %d", len(applier.applied))
	}

	if len(recorder.records) != 3 {
		t.Fatalf("Expected 3 decisions, got %d", len(recorder.records))
	}
	for _, r := range recorder.records {
		if r.Decision != memory.DecisionApprove {
			t.Errorf("Apply-all must record approve, got %s", r.Decision)
		}
	}
}

func TestCancelAtBatchPrompt(t *testing.T) {
	t.Parallel()

	prompter := &scriptedPrompter{t: t, cancelAtSelect: 1}
	applier := &fakeApplier{}
	recorder := &fakeRecorder{}
	var buf bytes.Buffer

	c := NewController(prompter, applier, recorder, &buf)
	out, err := c.Run(context.Background(), []scheduler.Proposal{proposal("c1", "Sync")}, false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if out.State != StateCancelled {
		t.Errorf("Expected cancellation, got %s", out.State)
	}
	if len(applier.applied) != 0 || len(recorder.records) != 0 {
		t.Error("Cancellation must leave no side effects")
	}
}

func TestReviewThenApplyAll(t *testing.T) {
	t.Parallel()

	// Review details (2), then apply all (0) from the shortened menu.
	prompter := &scriptedPrompter{t: t, selects: []int{2, 0}}
	applier := &fakeApplier{}
	recorder := &fakeRecorder{}
	var buf bytes.Buffer

	p := proposal("c1", "Sync")
	p.Events[1].Priority.Reasons = []string{"small meeting (+15)"}

	c := NewController(prompter, applier, recorder, &buf)
	out, err := c.Run(context.Background(), []scheduler.Proposal{p}, false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if out.State != StateCompleted {
		t.Errorf("Expected completion after review, got %s", out.State)
	}
	if len(applier.applied) != 1 {
		t.Errorf("Expected execution after review, got %d", len(applier.applied))
	}
	if !strings.Contains(buf.String(), "small meeting (+15)") {
		t.Error("Review must print the scoring reasons")
	}
}

func TestSelectiveModifyDecline(t *testing.T) {
	t.Parallel()

	proposals := []scheduler.Proposal{proposal("c1", "Sync"), proposal("c2", "Review")}
	prompter := &scriptedPrompter{
		t:       t,
		selects: []int{1, 2}, // selective; then "decline instead" for c2
		multis:  [][]int{{1}},
	}
	applier := &fakeApplier{}
	recorder := &fakeRecorder{}
	var buf bytes.Buffer

	c := NewController(prompter, applier, recorder, &buf)
	out, err := c.Run(context.Background(), proposals, false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if out.Auto.Succeeded != 1 {
		t.Errorf("Unselected proposal should apply automatically, got %+v", out.Auto)
	}
	if out.Manual.Modified != 1 || out.Manual.Succeeded != 1 {
		t.Errorf("Expected one modified-and-applied proposal, got %+v", out.Manual)
	}

	if len(applier.applied) != 2 {
		t.Fatalf("Expected 2 executions, got %d", len(applier.applied))
	}
	if applier.applied[1].Suggestion.Kind != scheduler.ActionDecline {
		t.Errorf("Expected the modified proposal to decline, got %s", applier.applied[1].Suggestion.Kind)
	}

	var decisions []memory.Decision
	for _, r := range recorder.records {
		decisions = append(decisions, r.Decision)
	}
	want := []memory.Decision{memory.DecisionApprove, memory.DecisionModify}
	if len(decisions) != 2 || decisions[0] != want[0] || decisions[1] != want[1] {
		t.Errorf("Expected decisions %v, got %v", want, decisions)
	}
}

func TestSelectiveModifyRetarget(t *testing.T) {
	t.Parallel()

	p := proposal("c1", "Sync")
	prompter := &scriptedPrompter{
		t:       t,
		selects: []int{1, 0, 0}, // selective; "reschedule a different event"; pick the top event
		multis:  [][]int{{0}},
	}
	applier := &fakeApplier{}
	var buf bytes.Buffer

	c := NewController(prompter, applier, &fakeRecorder{}, &buf)
	out, err := c.Run(context.Background(), []scheduler.Proposal{p}, false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if out.Manual.Modified != 1 {
		t.Fatalf("Expected one modification, got %+v", out.Manual)
	}
	got := applier.applied[0].Suggestion
	if got.TargetEventID != "c1-a" {
		t.Errorf("Expected retarget to c1-a, got %q", got.TargetEventID)
	}
	if got.Kind != scheduler.ActionReschedule {
		t.Errorf("Expected reschedule kind, got %s", got.Kind)
	}
}

func TestSelectiveModifySpecificTime(t *testing.T) {
	t.Parallel()

	prompter := &scriptedPrompter{
		t:       t,
		selects: []int{1, 1}, // selective; "specify a new time"
		multis:  [][]int{{0}},
		inputs:  []string{"2026-09-10 15:00"},
	}
	applier := &fakeApplier{}
	var buf bytes.Buffer

	c := NewController(prompter, applier, &fakeRecorder{}, &buf)
	_, err := c.Run(context.Background(), []scheduler.Proposal{proposal("c1", "Sync")}, false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got := applier.applied[0].Suggestion.SpecificTime; got != "2026-09-10 15:00" {
		t.Errorf("Expected specific time override, got %q", got)
	}
}

func TestSelectiveModifyLeaveUntouchedRecordsNothing(t *testing.T) {
	t.Parallel()

	prompter := &scriptedPrompter{
		t:       t,
		selects: []int{1, 4}, // selective; "leave it untouched"
		multis:  [][]int{{0}},
	}
	applier := &fakeApplier{}
	recorder := &fakeRecorder{}
	var buf bytes.Buffer

	c := NewController(prompter, applier, recorder, &buf)
	out, err := c.Run(context.Background(), []scheduler.Proposal{proposal("c1", "Sync")}, false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(applier.applied) != 0 {
		t.Error("Untouched proposal must not execute")
	}
	if len(recorder.records) != 0 {
		t.Error("Untouched proposal must not be recorded")
	}
	if out.Manual.Skipped != 1 {
		t.Errorf("Expected one skipped item in the tally, got %+v", out.Manual)
	}
}

func TestSelectiveModifySkipRecordsSkip(t *testing.T) {
	t.Parallel()

	prompter := &scriptedPrompter{
		t:       t,
		selects: []int{1, 3}, // selective; "skip this conflict"
		multis:  [][]int{{0}},
	}
	applier := &fakeApplier{}
	recorder := &fakeRecorder{}
	var buf bytes.Buffer

	c := NewController(prompter, applier, recorder, &buf)
	_, err := c.Run(context.Background(), []scheduler.Proposal{proposal("c1", "Sync")}, false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(applier.applied) != 0 {
		t.Error("Skipped proposal must not execute")
	}
	if len(recorder.records) != 1 || recorder.records[0].Decision != memory.DecisionSkip {
		t.Errorf("Expected one skip decision, got %v", recorder.records)
	}
}

func TestCancelMidSelectiveKeepsCommittedWork(t *testing.T) {
	t.Parallel()

	proposals := []scheduler.Proposal{proposal("c1", "Sync"), proposal("c2", "Review")}
	prompter := &scriptedPrompter{
		t:              t,
		selects:        []int{1}, // selective, then cancel at the modify dialog
		multis:         [][]int{{1}},
		cancelAtSelect: 2,
	}
	applier := &fakeApplier{}
	recorder := &fakeRecorder{}
	var buf bytes.Buffer

	c := NewController(prompter, applier, recorder, &buf)
	out, err := c.Run(context.Background(), proposals, false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if out.State != StateCancelled {
		t.Errorf("Expected cancelled state, got %s", out.State)
	}
	// c1 was applied automatically before the cancel; it stands.
	if out.Auto.Succeeded != 1 {
		t.Errorf("Committed automatic work must stand, got %+v", out.Auto)
	}
	if len(applier.applied) != 1 || applier.applied[0].ConflictID != "c1" {
		t.Errorf("Expected exactly c1 executed, got %v", applier.applied)
	}
	if len(recorder.records) != 1 {
		t.Errorf("Expected one committed decision, got %d", len(recorder.records))
	}
}

func TestPatternHintPrinted(t *testing.T) {
	t.Parallel()

	prompter := &scriptedPrompter{t: t, selects: []int{0}}
	recorder := &fakeRecorder{patterns: []memory.Pattern{
		{Description: "2 events, high vs low", ApprovalRate: 0.9, SampleCount: 10},
	}}
	var buf bytes.Buffer

	c := NewController(prompter, &fakeApplier{}, recorder, &buf)
	_, err := c.Run(context.Background(), []scheduler.Proposal{proposal("c1", "Sync")}, false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !strings.Contains(buf.String(), "90% of the time (10 samples)") {
		t.Errorf("Expected a pattern hint, output was:\n%s", buf.String())
	}
}
