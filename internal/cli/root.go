package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd *cobra.Command

func init() {
	rootCmd = &cobra.Command{
		Use:   "outlook-agent",
		Short: "Outlook calendar assistant",
		Long: `outlook-agent resolves double-booked meetings in your Outlook calendar.

It detects overlapping events, scores their priority against your rules,
proposes resolutions (optionally AI-assisted), and applies the ones you
approve — remembering your decisions to surface patterns over time.`,
		RunE:          runResolve, // Default action is resolve
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// The root command defaults to resolve, so it carries the same flags.
	addResolveFlags(rootCmd)
}

// Execute runs the root command
func Execute(version string) error {
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(slotsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
