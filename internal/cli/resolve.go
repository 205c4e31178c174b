package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chaspy/outlook-agent/internal/ai"
	"github.com/chaspy/outlook-agent/internal/calendar"
	"github.com/chaspy/outlook-agent/internal/config"
	"github.com/chaspy/outlook-agent/internal/executor"
	"github.com/chaspy/outlook-agent/internal/interaction"
	"github.com/chaspy/outlook-agent/internal/memory"
	"github.com/chaspy/outlook-agent/internal/scheduler"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Detect and resolve schedule conflicts",
	RunE:  runResolve,
}

func init() {
	addResolveFlags(resolveCmd)
}

func addResolveFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("dry-run", false, "Show proposals without applying anything")
	cmd.Flags().String("date", "", "Start date (YYYY-MM-DD, default today)")
	cmd.Flags().Int("days", 7, "Days ahead to scan")
	cmd.Flags().Bool("json", false, "Print the proposals as JSON and exit")
	cmd.Flags().String("rules", "", "Path to a scheduling-rules file")
	cmd.Flags().String("instructions", "", "Path to an AI-instructions file")
}

// resolvePayload is the JSON success output.
type resolvePayload struct {
	Status    string               `json:"status"`
	Events    int                  `json:"events"`
	Conflicts int                  `json:"conflicts"`
	Proposals []scheduler.Proposal `json:"proposals"`
	DryRun    bool                 `json:"dryRun"`
	Timezone  string               `json:"timezone"`
	Model     string               `json:"model"`
}

type errorPayload struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// emitError reports a fatal failure in the requested output mode and
// returns it so the command exits non-zero.
func emitError(jsonMode bool, err error) error {
	if jsonMode {
		printJSON(errorPayload{Status: "error", Error: err.Error()})
	}
	return err
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	dateFlag, _ := cmd.Flags().GetString("date")
	days, _ := cmd.Flags().GetInt("days")
	jsonMode, _ := cmd.Flags().GetBool("json")
	rulesPath, _ := cmd.Flags().GetString("rules")
	instrPath, _ := cmd.Flags().GetString("instructions")

	rt := config.RuntimeFromEnv()

	rules, rulesRes := config.LoadRules(rulesPath)
	instr, instrRes := config.LoadInstructions(instrPath)

	if !jsonMode {
		describeConfig("rules", rulesRes)
		describeConfig("instructions", instrRes)
	}

	client := calendar.NewMgcClient()
	if err := checkAuth(ctx, client, jsonMode); err != nil {
		return err
	}

	start, err := startDate(dateFlag, rt.Location)
	if err != nil {
		return emitError(jsonMode, err)
	}

	events, err := client.GetUpcomingEvents(ctx, start, days)
	if err != nil {
		return emitError(jsonMode, fmt.Errorf("fetch events: %w", err))
	}

	conflicts := scheduler.DetectConflicts(events)
	filtered, removed := scheduler.NewFilter(instr.Policy).Apply(conflicts)
	if !jsonMode && removed > 0 {
		fmt.Printf("Filtered out %d conflict(s) below the actionability policy.\n", removed)
	}

	if len(filtered) == 0 {
		if jsonMode {
			return printJSON(resolvePayload{
				Status:    "success",
				Events:    len(events),
				Conflicts: 0,
				Proposals: []scheduler.Proposal{},
				DryRun:    dryRun,
				Timezone:  rt.Timezone,
				Model:     rt.Model,
			})
		}
		color.New(color.FgGreen).Printf("No conflicts found across %d event(s). Your schedule is clean.\n", len(events))
		return nil
	}

	var analyzer ai.Analyzer
	if rt.APIKey != "" {
		analyzer = ai.NewOpenAIClient(rt.APIKey, rt.Model)
	}

	engine := scheduler.NewEngine(rules, instr, analyzer, rt.Timezone)
	result := engine.Generate(ctx, filtered)
	if !jsonMode && result.AIErr != nil {
		color.New(color.FgYellow).Printf("AI analysis failed (%v); using rule-based suggestions.\n", result.AIErr)
	}

	if jsonMode {
		return printJSON(resolvePayload{
			Status:    "success",
			Events:    len(events),
			Conflicts: len(filtered),
			Proposals: result.Proposals,
			DryRun:    dryRun,
			Timezone:  rt.Timezone,
			Model:     rt.Model,
		})
	}

	store, err := memory.Open(memory.DefaultPath())
	if err != nil {
		color.New(color.FgYellow).Printf("Warning: decision memory unavailable: %v\n", err)
	} else {
		defer store.Close()
	}

	// A nil *Store must not end up as a non-nil Recorder interface.
	var recorder interaction.Recorder
	if store != nil {
		recorder = store
	}

	controller := interaction.NewController(
		interaction.NewPrompter(),
		executor.New(client, rt.Location),
		recorder,
		os.Stdout,
	)
	outcome, err := controller.Run(ctx, result.Proposals, dryRun)
	if err != nil {
		return err
	}

	if outcome.State == interaction.StateCompleted && store != nil {
		printStatsFooter(store)
	}
	return nil
}

// printStatsFooter shows the trailing-window decision totals after a
// completed interactive run.
func printStatsFooter(store *memory.Store) {
	stats, err := store.Statistics(memory.StatsWindow)
	if err != nil || stats.TotalDecisions == 0 {
		return
	}
	fmt.Printf("\nLast 30 days: %d decision(s), %.0f%% approved, %.0f%% modified, %.0f%% skipped.\n",
		stats.TotalDecisions,
		stats.ApprovalRate*100,
		stats.ModificationRate*100,
		stats.SkipRate*100)
}

func describeConfig(name string, res config.LoadResult) {
	if res.IsDefault {
		fmt.Printf("Using default %s (%s)\n", name, res.Path)
	} else {
		fmt.Printf("Using custom %s: %s\n", name, res.Path)
	}
}

// checkAuth verifies calendar access and, in interactive mode, points
// the user at the login command on failure.
func checkAuth(ctx context.Context, client *calendar.MgcClient, jsonMode bool) error {
	err := client.CheckAuth(ctx)
	if err == nil {
		return nil
	}
	if !jsonMode {
		color.New(color.FgYellow).Fprintln(os.Stderr, "Calendar access failed. Try `mgc login` first.")
	}
	return emitError(jsonMode, fmt.Errorf("calendar access: %w", err))
}

// startDate parses --date or defaults to today's midnight in loc.
func startDate(flag string, loc *time.Location) (time.Time, error) {
	if flag == "" {
		now := time.Now().In(loc)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc), nil
	}
	t, err := time.ParseInLocation("2006-01-02", flag, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", flag)
	}
	return t, nil
}
