package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/biasprobe/internal/model"
	"github.com/ppiankov/biasprobe/internal/pipeline"
)

var (
	battingPath   string
	bowlingPath   string
	writeMapping  bool
	promptsPath   string
	rawDirs       []string
	factsPath     string
	responsesPath string
)

var anonymizeCmd = &cobra.Command{
	Use:   "anonymize",
	Short: "Replace player names with stable pseudonyms",
	Long: `Anonymize reads the batting and bowling tables, assigns one pseudonym
per distinct name across both, and writes <stem>_anon.csv under dataset/.

Example:
  biasprobe anonymize --batting dataset/ipl_batting.csv --bowling dataset/ipl_bowling.csv
  biasprobe anonymize --mapping   # also writes identity_mapping.csv; keep it local`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, cfg, err := newPipeline(cmd, func(cfg *model.Config) {
			if cmd.Flags().Changed("batting") {
				cfg.Paths.Batting = battingPath
			}
			if cmd.Flags().Changed("bowling") {
				cfg.Paths.Bowling = bowlingPath
			}
			if cmd.Flags().Changed("mapping") {
				cfg.Output.Mapping = writeMapping
			}
		})
		if err != nil {
			return err
		}
		_, err = p.AnonymizeFiles(cmd.Context(), cfg.Paths.Batting, cfg.Paths.Bowling)
		return err
	},
}

var truthCmd = &cobra.Command{
	Use:   "truth",
	Short: "Build the ground truth fact sheet from anonymized tables",
	Long: `Truth merges the anonymized batting and bowling tables into one fact
row per pseudonym and ranks the top entities per metric.

By default it reads dataset/<stem>_anon.csv for the configured sources.

Example:
  biasprobe truth
  biasprobe truth --batting dataset/ipl_batting_anon.csv --bowling ""`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, cfg, err := newPipeline(cmd, nil)
		if err != nil {
			return err
		}

		batting := anonPath(p, cfg.Paths.Batting)
		if cmd.Flags().Changed("batting") {
			batting = battingPath
		}
		bowling := anonPath(p, cfg.Paths.Bowling)
		if cmd.Flags().Changed("bowling") {
			bowling = bowlingPath
		}
		if batting == "" && bowling == "" {
			return fmt.Errorf("%w: at least one of --batting or --bowling is required", model.ErrInvalidConfig)
		}

		_, err = p.GroundTruthFiles(cmd.Context(), batting, bowling)
		return err
	},
}

// anonPath is where the anonymize stage writes the copy of source
func anonPath(p *pipeline.Pipeline, source string) string {
	if source == "" {
		return ""
	}
	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return p.Path(pipeline.DatasetDir, stem+"_anon.csv")
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Turn raw model responses into the structured response table",
	Long: `Ingest scans raw response files named <model>_<condition>_run<N>.<ext>,
joins each one to its prompt variant and writes llm_outputs_structured.csv
under results/. Files whose names cannot be parsed are skipped with a warning.

Example:
  biasprobe ingest --prompts prompts/prompt_variations.csv --raw-dir results/raw`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, cfg, err := newPipeline(cmd, func(cfg *model.Config) {
			if cmd.Flags().Changed("prompts") {
				cfg.Paths.Prompts = promptsPath
			}
			if cmd.Flags().Changed("raw-dir") {
				cfg.Paths.RawDirs = rawDirs
			}
		})
		if err != nil {
			return err
		}
		_, err = p.Ingest(cmd.Context(), cfg.Paths.Prompts, cfg.Paths.RawDirs)
		return err
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check numeric claims in responses against the fact sheet",
	Long: `Validate finds the pseudonyms each response mentions and the numbers it
states, credits every number that matches a fact of a mentioned entity
within the match tolerance, and writes claims_validation.csv plus the
summary under analysis/.

Example:
  biasprobe validate
  biasprobe validate --facts analysis/ground_truth_full.csv --responses results/llm_outputs_structured.csv --parquet`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
		defer cancel()

		p, _, err := newPipeline(cmd, func(cfg *model.Config) { applyRunFlags(cmd, cfg) })
		if err != nil {
			return err
		}

		facts := p.Path(pipeline.AnalysisDir, pipeline.FactSheetFile)
		if cmd.Flags().Changed("facts") {
			facts = factsPath
		}
		responses := p.Path(pipeline.ResultsDir, pipeline.ResponsesFile)
		if cmd.Flags().Changed("responses") {
			responses = responsesPath
		}

		if _, err := p.ValidateFiles(ctx, facts, responses); err != nil {
			return err
		}
		return p.WriteMetrics()
	},
}

func init() {
	anonymizeCmd.Flags().StringVar(&battingPath, "batting", "", "batting CSV (default: paths.batting)")
	anonymizeCmd.Flags().StringVar(&bowlingPath, "bowling", "", "bowling CSV (default: paths.bowling)")
	anonymizeCmd.Flags().BoolVar(&writeMapping, "mapping", false, "also write identity_mapping.csv (contains raw names)")

	truthCmd.Flags().StringVar(&battingPath, "batting", "", "anonymized batting CSV")
	truthCmd.Flags().StringVar(&bowlingPath, "bowling", "", "anonymized bowling CSV")

	ingestCmd.Flags().StringVar(&promptsPath, "prompts", "", "prompt variations CSV (default: paths.prompts)")
	ingestCmd.Flags().StringSliceVar(&rawDirs, "raw-dir", nil, "directory of raw responses, repeatable (default: paths.raw_dirs)")

	validateCmd.Flags().StringVar(&factsPath, "facts", "", "fact sheet CSV")
	validateCmd.Flags().StringVar(&responsesPath, "responses", "", "structured response CSV")
	addRunFlags(validateCmd)

	rootCmd.AddCommand(anonymizeCmd, truthCmd, ingestCmd, validateCmd)
}
