package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reviewrise/healthscan/config"
)

// analyzeCmd runs a single health analysis from the command line and
// prints the resulting snapshot as JSON
var analyzeCmd = &cobra.Command{
	Use:   "analyze <url>",
	Short: "run one health analysis and print the snapshot as json",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		err := analyzeOnce(cmd.Context(), args[0])
		cobra.CheckErr(err)
	},
}

// init registers the analyze command and its flags on the root command
func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().Bool("no-persist", false, "skip snapshot persistence for this run")
}

// analyzeOnce runs the full pipeline for one URL and writes the result
// to stdout
func analyzeOnce(ctx context.Context, url string) error {
	cfgPath := k.String("config")

	cfg, err := config.Load(&cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if k.Bool("no-persist") {
		cfg.Store.Path = ""
	}

	store, err := setupStore(cfg)
	if err != nil {
		return fmt.Errorf("setting up snapshot store: %w", err)
	}

	if store != nil {
		defer func() { _ = store.Close() }()
	}

	orchestrator := setupOrchestrator(cfg, store)

	result, err := orchestrator.Analyze(ctx, url)
	if err != nil {
		return fmt.Errorf("analyzing %s: %w", url, err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(result.Snapshot)
}
