package scheduler

import (
	"context"
	"fmt"
	"strings"

	"github.com/chaspy/outlook-agent/internal/ai"
	"github.com/chaspy/outlook-agent/internal/config"
)

// Engine generates proposals for conflicts, choosing between the
// deterministic rule-based strategy and the AI-assisted one.
type Engine struct {
	rules    *config.Rules
	instr    *config.Instructions
	analyzer ai.Analyzer
	timezone string
}

// NewEngine creates a proposal engine. analyzer may be nil, which
// forces the rule-based strategy.
func NewEngine(rules *config.Rules, instr *config.Instructions, analyzer ai.Analyzer, timezone string) *Engine {
	return &Engine{rules: rules, instr: instr, analyzer: analyzer, timezone: timezone}
}

// GenerateResult carries the proposals plus how they were produced.
// UsedAI is false when the whole batch came from the rule-based path;
// AIErr is set when an attempted AI stage failed and the batch fell
// back wholesale.
type GenerateResult struct {
	Proposals []Proposal
	UsedAI    bool
	AIErr     error
}

// Generate builds one proposal per conflict. When the analyzer is
// unavailable the rule-based path is used directly. When the AI stage
// fails before completing — prompt construction or any hard analyzer
// error — the entire batch reverts to rule-based so no partially-AI
// batch is ever returned. Per-conflict soft failures keep that
// conflict's rule suggestion and attach the diagnostic.
func (e *Engine) Generate(ctx context.Context, conflicts []Conflict) GenerateResult {
	base := BuildRuleProposals(conflicts, e.rules)

	if e.analyzer == nil || !e.analyzer.IsAvailable() {
		return GenerateResult{Proposals: base}
	}

	proposals, err := e.generateAI(ctx, base)
	if err != nil {
		return GenerateResult{
			Proposals: BuildRuleProposals(conflicts, e.rules),
			AIErr:     err,
		}
	}

	return GenerateResult{Proposals: proposals, UsedAI: true}
}

func (e *Engine) generateAI(ctx context.Context, base []Proposal) ([]Proposal, error) {
	systemPrompt, err := ai.BuildSystemPrompt(e.instr, e.rules, e.timezone)
	if err != nil {
		return nil, fmt.Errorf("build system prompt: %w", err)
	}

	out := make([]Proposal, len(base))
	for i, p := range base {
		resp, err := e.analyzer.AnalyzeConflict(ctx, systemPrompt, ai.BuildConflictPrompt(summarize(p)))
		if err != nil {
			return nil, fmt.Errorf("analyze %s: %w", p.ConflictID, err)
		}
		out[i] = applyAnalysis(p, resp)
	}
	return out, nil
}

func summarize(p Proposal) ai.ConflictSummary {
	s := ai.ConflictSummary{TimeRange: p.TimeRange}
	for _, e := range p.Events {
		s.Events = append(s.Events, ai.EventSummary{
			Subject:        e.Subject,
			Organizer:      e.Organizer,
			Attendees:      e.AttendeeCount,
			ResponseStatus: e.ResponseStatus,
			Level:          string(e.Priority.Level),
			Score:          e.Priority.Score,
		})
	}
	return s
}

// applyAnalysis builds a new proposal from the rule-based base and one
// analysis response. The base is never mutated.
func applyAnalysis(base Proposal, resp ai.Response) Proposal {
	out := base
	out.Events = make([]ProposalEvent, len(base.Events))
	copy(out.Events, base.Events)

	if !resp.Success || resp.Result == nil {
		out.Suggestion.AIError = resp.Err
		return out
	}

	result := resp.Result
	kind, action := aiAction(result.Recommendation)
	out.Suggestion = Suggestion{
		Kind:         kind,
		Action:       action,
		Reason:       result.Recommendation.Reason,
		Origin:       OriginAI,
		Confidence:   result.Recommendation.Confidence,
		Alternatives: result.Alternatives,
	}

	// The AI rates exactly two events; overlay only in that case.
	if len(out.Events) == 2 {
		out.Events[0].Priority.AIScore = result.Priority.Event1.Score
		out.Events[0].Priority.AIReason = result.Priority.Event1.Reason
		out.Events[1].Priority.AIScore = result.Priority.Event2.Score
		out.Events[1].Priority.AIReason = result.Priority.Event2.Reason
	}

	return out
}

func aiAction(rec ai.Recommendation) (ActionKind, string) {
	switch rec.Action {
	case "reschedule":
		return ActionReschedule, fmt.Sprintf("Reschedule %s to another time", quoteTarget(rec.Target))
	case "decline":
		return ActionDecline, fmt.Sprintf("Decline %s", quoteTarget(rec.Target))
	case "keep":
		return ActionKeep, "Keep all meetings (manual adjustment required)"
	default:
		return ActionManual, rec.Action
	}
}

// quoteTarget quotes a single subject; a multi-event target already
// contains its own separators.
func quoteTarget(target string) string {
	if strings.ContainsAny(target, ",、") {
		return target
	}
	return fmt.Sprintf("%q", target)
}
