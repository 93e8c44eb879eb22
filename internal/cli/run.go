package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/biasprobe/internal/model"
)

var (
	runTimeout time.Duration
	noCache    bool
	cacheDir   string
	parquetOut bool
	metricsOut string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every stage from the configured paths",
	Long: `Run executes the whole audit:
- Anonymize the batting and bowling tables
- Build the ground truth fact sheet and ranked metrics
- Ingest raw model responses into a structured table
- Validate numeric claims and write the summary

Paths come from the config file (paths.*) or BIASPROBE_PATHS_* variables.

Example:
  biasprobe run
  biasprobe run --out-dir audit --parquet --metrics-file audit/biasprobe.prom`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	addRunFlags(runCmd)
}

// addRunFlags registers the flags shared by run and the stage commands
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&runTimeout, "timeout", 10*time.Minute, "overall timeout")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the validation cache")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "persist the validation cache in this directory")
	cmd.Flags().BoolVar(&parquetOut, "parquet", false, "also write the validation table as parquet")
	cmd.Flags().StringVar(&metricsOut, "metrics-file", "", "write stage counters as a Prometheus textfile")
}

// applyRunFlags copies flags the user set onto cfg
func applyRunFlags(cmd *cobra.Command, cfg *model.Config) {
	if cmd.Flags().Changed("no-cache") {
		cfg.Cache.Enabled = !noCache
	}
	if cmd.Flags().Changed("cache-dir") {
		cfg.Cache.Dir = cacheDir
	}
	if cmd.Flags().Changed("parquet") {
		cfg.Output.Parquet = parquetOut
	}
	if cmd.Flags().Changed("metrics-file") {
		cfg.Output.MetricsFile = metricsOut
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
	defer cancel()

	p, cfg, err := newPipeline(cmd, func(cfg *model.Config) { applyRunFlags(cmd, cfg) })
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Run: %s\n", p.RunID())
		fmt.Fprintf(os.Stderr, "Output: %s\n", cfg.Paths.OutputDir)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	if _, err := p.Run(ctx); err != nil {
		return fmt.Errorf("run failed: %w", err)
	}
	return nil
}
