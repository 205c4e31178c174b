package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/chaspy/outlook-agent/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write default configuration files to ~/.outlook-agent",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().Bool("force", false, "Overwrite existing configuration files")
}

func runInit(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")

	dir := config.HomeDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	files := []struct {
		name  string
		write func(string) error
	}{
		{"scheduling-rules.yaml", config.WriteDefaultRules},
		{"ai-instructions.md", config.WriteDefaultInstructions},
	}

	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if _, err := os.Stat(path); err == nil && !force {
			fmt.Printf("Skipping %s (already exists, use --force to overwrite)\n", path)
			continue
		}
		if err := f.write(path); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Printf("Wrote %s\n", path)
	}
	return nil
}
