package interaction

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/chaspy/outlook-agent/internal/executor"
	"github.com/chaspy/outlook-agent/internal/memory"
	"github.com/chaspy/outlook-agent/internal/scheduler"
)

// State is the terminal state the resolution flow ended in.
type State string

const (
	StateDryRunExit State = "dry-run"
	StateCancelled  State = "cancelled"
	StateCompleted  State = "completed"
)

// Tally counts per-proposal outcomes within one stage of the flow.
type Tally struct {
	Succeeded int
	Failed    int
	Modified  int
	Skipped   int
}

// Outcome summarizes a finished run. Auto covers proposals applied as
// suggested; Manual covers the individually modified subset.
type Outcome struct {
	State  State
	Auto   Tally
	Manual Tally
}

// Applier executes one proposal. Satisfied by *executor.Executor.
type Applier interface {
	Apply(ctx context.Context, p scheduler.Proposal, dryRun bool) executor.Result
}

// Recorder is the decision-memory surface the controller needs.
// Satisfied by *memory.Store; nil disables recording and hints.
type Recorder interface {
	RecordDecision(r memory.Record) error
	SuggestPatterns(minSamples int) ([]memory.Pattern, error)
}

// Controller walks the user through a batch of proposals.
type Controller struct {
	prompter Prompter
	applier  Applier
	store    Recorder
	out      io.Writer
}

func NewController(prompter Prompter, applier Applier, store Recorder, out io.Writer) *Controller {
	return &Controller{prompter: prompter, applier: applier, store: store, out: out}
}

// Run is the interaction state machine. Dry-run exits immediately after
// showing the proposals; otherwise the user picks a batch action.
// Cancellation at any prompt aborts only the not-yet-executed remainder.
func (c *Controller) Run(ctx context.Context, proposals []scheduler.Proposal, dryRun bool) (Outcome, error) {
	c.renderProposals(proposals)

	if dryRun {
		color.New(color.FgYellow).Fprintln(c.out, "\nDry run: no changes made, no decisions recorded.")
		return Outcome{State: StateDryRunExit}, nil
	}

	c.printPatternHints(proposals)

	reviewed := false
	for {
		options := []string{
			"Apply all suggestions",
			"Select and modify individually",
			"Review details",
			"Cancel",
		}
		if reviewed {
			options = []string{
				"Apply all suggestions",
				"Select and modify individually",
				"Cancel",
			}
		}

		choice, err := c.prompter.Select("How do you want to proceed?", options)
		if err == ErrCancelled {
			return Outcome{State: StateCancelled}, nil
		}
		if err != nil {
			return Outcome{}, err
		}

		if !reviewed && choice == 2 {
			c.renderDetails(proposals)
			reviewed = true
			continue
		}
		if reviewed && choice >= 2 {
			choice++ // re-align with the full option set
		}

		switch choice {
		case 0:
			tally := c.applyAll(ctx, proposals)
			out := Outcome{State: StateCompleted, Auto: tally}
			c.printSummary(out)
			return out, nil
		case 1:
			out, err := c.selectiveModify(ctx, proposals)
			if err == ErrCancelled {
				return Outcome{State: StateCancelled}, nil
			}
			if err != nil {
				return Outcome{}, err
			}
			c.printSummary(out)
			return out, nil
		default:
			return Outcome{State: StateCancelled}, nil
		}
	}
}

// applyAll records an approve decision and executes every proposal in
// order. A failure counts against the tally and the loop continues.
func (c *Controller) applyAll(ctx context.Context, proposals []scheduler.Proposal) Tally {
	var tally Tally
	for _, p := range proposals {
		c.recordDecision(p, memory.DecisionApprove, p.Suggestion.Action)

		res := c.applier.Apply(ctx, p, false)
		if res.Success {
			tally.Succeeded++
			color.New(color.FgGreen).Fprintf(c.out, "✓ %s\n", res.Details)
		} else {
			tally.Failed++
			color.New(color.FgRed).Fprintf(c.out, "✗ %s: %s\n", p.TimeRange, res.Err)
		}
	}
	return tally
}

func (c *Controller) selectiveModify(ctx context.Context, proposals []scheduler.Proposal) (Outcome, error) {
	labels := make([]string, 0, len(proposals))
	for _, p := range proposals {
		labels = append(labels, fmt.Sprintf("%s: %s", p.TimeRange, p.Suggestion.Action))
	}

	selected, err := c.prompter.MultiSelect("Pick the conflicts to handle manually (others apply as suggested):", labels)
	if err != nil {
		return Outcome{}, err
	}

	manual := make(map[int]bool, len(selected))
	for _, i := range selected {
		if i >= 0 && i < len(proposals) {
			manual[i] = true
		}
	}

	out := Outcome{State: StateCompleted}
	for i, p := range proposals {
		if !manual[i] {
			c.recordDecision(p, memory.DecisionApprove, p.Suggestion.Action)
			res := c.applier.Apply(ctx, p, false)
			if res.Success {
				out.Auto.Succeeded++
				color.New(color.FgGreen).Fprintf(c.out, "✓ %s\n", res.Details)
			} else {
				out.Auto.Failed++
				color.New(color.FgRed).Fprintf(c.out, "✗ %s: %s\n", p.TimeRange, res.Err)
			}
			continue
		}

		if err := c.modifyOne(ctx, p, &out.Manual); err != nil {
			if err == ErrCancelled {
				// Abort only the remainder; committed work stands.
				out.State = StateCancelled
				return out, nil
			}
			return out, err
		}
	}
	return out, nil
}

// modifyOne runs the per-proposal modification dialog for one conflict
// the user chose to handle manually.
func (c *Controller) modifyOne(ctx context.Context, p scheduler.Proposal, tally *Tally) error {
	c.renderDetails([]scheduler.Proposal{p})

	choice, err := c.prompter.Select(fmt.Sprintf("What do you want to do with %s?", p.TimeRange), []string{
		"Reschedule a different event",
		"Specify a new time",
		"Decline instead",
		"Skip this conflict",
		"Leave it untouched",
	})
	if err != nil {
		return err
	}

	modified := p
	modified.Suggestion.Origin = scheduler.OriginRule

	switch choice {
	case 0:
		names := make([]string, 0, len(p.Events))
		for _, e := range p.Events {
			names = append(names, fmt.Sprintf("%s (%s: %d)", e.Subject, e.Priority.Level, e.Priority.Score))
		}
		idx, err := c.prompter.Select("Which event should move?", names)
		if err != nil {
			return err
		}
		target := p.Events[idx]
		modified.Suggestion.Kind = scheduler.ActionReschedule
		modified.Suggestion.TargetEventID = target.ID
		modified.Suggestion.Action = fmt.Sprintf("Reschedule %q to another time", target.Subject)

	case 1:
		when, err := c.prompter.Input("New time (YYYY-MM-DD HH:MM):")
		if err != nil {
			return err
		}
		modified.Suggestion.Kind = scheduler.ActionReschedule
		modified.Suggestion.SpecificTime = strings.TrimSpace(when)
		modified.Suggestion.Action = fmt.Sprintf("Reschedule to %s", modified.Suggestion.SpecificTime)

	case 2:
		modified.Suggestion.Kind = scheduler.ActionDecline
		modified.Suggestion.Action = "Decline the lower-priority event"

	case 3:
		// Deliberate skip: remembered so pattern hints can learn it.
		c.recordDecision(p, memory.DecisionSkip, "skipped")
		tally.Skipped++
		return nil

	default:
		// Leaving it untouched is not a decision; record nothing.
		tally.Skipped++
		return nil
	}

	c.recordDecision(p, memory.DecisionModify, modified.Suggestion.Action)
	tally.Modified++

	res := c.applier.Apply(ctx, modified, false)
	if res.Success {
		tally.Succeeded++
		color.New(color.FgGreen).Fprintf(c.out, "✓ %s\n", res.Details)
	} else {
		tally.Failed++
		color.New(color.FgRed).Fprintf(c.out, "✗ %s: %s\n", p.TimeRange, res.Err)
	}
	return nil
}

func (c *Controller) recordDecision(p scheduler.Proposal, decision memory.Decision, finalAction string) {
	if c.store == nil {
		return
	}

	snapshots := make([]memory.EventSnapshot, 0, len(p.Events))
	for _, e := range p.Events {
		snapshots = append(snapshots, memory.EventSnapshot{
			Subject:   e.Subject,
			Organizer: e.Organizer,
			Attendees: e.AttendeeCount,
			Level:     string(e.Priority.Level),
			Score:     e.Priority.Score,
		})
	}

	r := memory.NewRecord(
		scheduler.PatternKey(p), p.TimeRange, snapshots,
		p.Suggestion.Action, string(p.Suggestion.Origin),
		decision, finalAction,
	)
	if err := c.store.RecordDecision(r); err != nil {
		// Memory is advisory; a write failure must not stop the run.
		color.New(color.FgYellow).Fprintf(c.out, "Warning: could not record decision: %v\n", err)
	}
}

func (c *Controller) printPatternHints(proposals []scheduler.Proposal) {
	if c.store == nil {
		return
	}
	patterns, err := c.store.SuggestPatterns(0)
	if err != nil || len(patterns) == 0 {
		return
	}

	byKey := make(map[string]memory.Pattern, len(patterns))
	for _, pat := range patterns {
		byKey[pat.Description] = pat
	}

	seen := map[string]bool{}
	for _, p := range proposals {
		key := scheduler.PatternKey(p)
		pat, ok := byKey[key]
		if !ok || seen[key] {
			continue
		}
		seen[key] = true
		color.New(color.FgCyan).Fprintf(c.out,
			"Hint: you approve %q conflicts %.0f%% of the time (%d samples).\n",
			pat.Description, pat.ApprovalRate*100, pat.SampleCount)
	}
}

func (c *Controller) renderProposals(proposals []scheduler.Proposal) {
	bold := color.New(color.Bold)
	bold.Fprintf(c.out, "\nFound %d conflict(s):\n\n", len(proposals))

	for i, p := range proposals {
		bold.Fprintf(c.out, "%d. %s\n", i+1, p.TimeRange)
		for _, e := range p.Events {
			levelColor(e.Priority.Level).Fprintf(c.out, "   [%s %d] %s\n",
				e.Priority.Level, e.Priority.Score, e.Subject)
		}
		fmt.Fprintf(c.out, "   → %s\n", p.Suggestion.Action)
		if p.Suggestion.Reason != "" {
			fmt.Fprintf(c.out, "     %s\n", p.Suggestion.Reason)
		}
		if p.Suggestion.AIError != "" {
			color.New(color.FgYellow).Fprintf(c.out, "     AI analysis failed: %s\n", p.Suggestion.AIError)
		}
		fmt.Fprintln(c.out)
	}
}

func (c *Controller) renderDetails(proposals []scheduler.Proposal) {
	for _, p := range proposals {
		color.New(color.Bold).Fprintf(c.out, "\n%s\n", p.TimeRange)
		for _, e := range p.Events {
			levelColor(e.Priority.Level).Fprintf(c.out, "  [%s %d] %s\n",
				e.Priority.Level, e.Priority.Score, e.Subject)
			if e.Organizer != "" {
				fmt.Fprintf(c.out, "      organizer: %s, attendees: %d, response: %s\n",
					e.Organizer, e.AttendeeCount, e.ResponseStatus)
			}
			for _, reason := range e.Priority.Reasons {
				fmt.Fprintf(c.out, "      - %s\n", reason)
			}
			if e.Priority.AIReason != "" {
				fmt.Fprintf(c.out, "      AI: %d (%s)\n", e.Priority.AIScore, e.Priority.AIReason)
			}
		}
		fmt.Fprintf(c.out, "  Suggestion (%s): %s\n", p.Suggestion.Origin, p.Suggestion.Action)
		if p.Suggestion.Confidence != "" {
			fmt.Fprintf(c.out, "  Confidence: %s\n", p.Suggestion.Confidence)
		}
		for _, alt := range p.Suggestion.Alternatives {
			fmt.Fprintf(c.out, "  Alternative: %s\n", alt)
		}
	}
	fmt.Fprintln(c.out)
}

func (c *Controller) printSummary(out Outcome) {
	fmt.Fprintln(c.out)
	color.New(color.Bold).Fprintln(c.out, "Summary")
	fmt.Fprintf(c.out, "  applied: %d, failed: %d\n", out.Auto.Succeeded, out.Auto.Failed)
	if out.Manual != (Tally{}) {
		fmt.Fprintf(c.out, "  manually modified: %d (applied: %d, failed: %d, skipped: %d)\n",
			out.Manual.Modified, out.Manual.Succeeded, out.Manual.Failed, out.Manual.Skipped)
	}
}

func levelColor(l scheduler.Level) *color.Color {
	switch l {
	case scheduler.LevelHigh:
		return color.New(color.FgRed)
	case scheduler.LevelMedium:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}
