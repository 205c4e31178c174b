package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chaspy/outlook-agent/internal/memory"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show decision statistics and learned patterns",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().Bool("json", false, "Print statistics as JSON")
	statsCmd.Flags().Int("min-samples", 3, "Minimum samples before a pattern is shown")
}

type statsPayload struct {
	TotalDecisions   int              `json:"totalDecisions"`
	ApprovalRate     float64          `json:"approvalRate"`
	ModificationRate float64          `json:"modificationRate"`
	SkipRate         float64          `json:"skipRate"`
	Patterns         []patternPayload `json:"patterns"`
}

type patternPayload struct {
	Description  string  `json:"description"`
	ApprovalRate float64 `json:"approvalRate"`
	SampleCount  int     `json:"sampleCount"`
}

func runStats(cmd *cobra.Command, args []string) error {
	jsonMode, _ := cmd.Flags().GetBool("json")
	minSamples, _ := cmd.Flags().GetInt("min-samples")

	store, err := memory.Open(memory.DefaultPath())
	if err != nil {
		return emitError(jsonMode, fmt.Errorf("open decision memory: %w", err))
	}
	defer store.Close()

	stats, err := store.Statistics(memory.StatsWindow)
	if err != nil {
		return emitError(jsonMode, err)
	}
	patterns, err := store.SuggestPatterns(minSamples)
	if err != nil {
		return emitError(jsonMode, err)
	}

	if jsonMode {
		out := statsPayload{
			TotalDecisions:   stats.TotalDecisions,
			ApprovalRate:     stats.ApprovalRate,
			ModificationRate: stats.ModificationRate,
			SkipRate:         stats.SkipRate,
			Patterns:         make([]patternPayload, 0, len(patterns)),
		}
		for _, p := range patterns {
			out.Patterns = append(out.Patterns, patternPayload{
				Description:  p.Description,
				ApprovalRate: p.ApprovalRate,
				SampleCount:  p.SampleCount,
			})
		}
		return printJSON(out)
	}

	bold := color.New(color.Bold)
	bold.Println("Decisions (last 30 days)")
	fmt.Printf("  total:    %d\n", stats.TotalDecisions)
	if stats.TotalDecisions > 0 {
		fmt.Printf("  approved: %.0f%%\n", stats.ApprovalRate*100)
		fmt.Printf("  modified: %.0f%%\n", stats.ModificationRate*100)
		fmt.Printf("  skipped:  %.0f%%\n", stats.SkipRate*100)
	}

	if len(patterns) > 0 {
		bold.Println("\nPatterns")
		for _, p := range patterns {
			fmt.Printf("  %s: approved %.0f%% (%d samples)\n",
				p.Description, p.ApprovalRate*100, p.SampleCount)
		}
	}
	return nil
}
