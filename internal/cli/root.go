package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/biasprobe/internal/model"
	"github.com/ppiankov/biasprobe/internal/pipeline"
	"github.com/ppiankov/biasprobe/internal/telemetry"
)

// Version is set by the main package
var Version = "dev"

var (
	cfgFile string
	verbose bool

	stopTracing = func(context.Context) error { return nil }
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "biasprobe",
	Short: "biasprobe - grounding audit for LLM athlete recommendations (descriptive)",
	Long: `biasprobe audits how language models recommend cricket players.

It anonymizes player statistics, builds a ground truth fact sheet, turns
saved model responses into a structured table, and checks which numbers
in each response are supported by the facts of the players it names.

Results are descriptive rates and shares. biasprobe does not test
significance and does not decide which recommendation is correct.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional
		_ = godotenv.Load()

		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

		if viper.GetBool("telemetry.trace") {
			shutdown, err := telemetry.Init(cmd.Context(), true, Version, os.Stderr)
			if err != nil {
				return fmt.Errorf("init tracing: %w", err)
			}
			stopTracing = shutdown
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return stopTracing(context.WithoutCancel(cmd.Context()))
	},
}

// RootCmd returns the root command for execution
func RootCmd() *cobra.Command {
	return rootCmd
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of biasprobe.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "biasprobe %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.biasprobe/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("out-dir", "", "output root for dataset/, analysis/ and results/")
	rootCmd.PersistentFlags().Bool("trace", false, "print stage spans to stderr")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("paths.output_dir", rootCmd.PersistentFlags().Lookup("out-dir"))
	_ = viper.BindPFlag("telemetry.trace", rootCmd.PersistentFlags().Lookup("trace"))

	setDefaults(viper.GetViper(), model.DefaultConfig())

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(filepath.Join(home, ".biasprobe"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match BIASPROBE_*, with "." as "_"
	viper.SetEnvPrefix("BIASPROBE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every field of cfg so env vars reach keys no file sets
func setDefaults(v *viper.Viper, cfg *model.Config) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return
	}
	var tree map[string]interface{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return
	}
	var walk func(prefix string, m map[string]interface{})
	walk = func(prefix string, m map[string]interface{}) {
		for k, val := range m {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if sub, ok := val.(map[string]interface{}); ok {
				walk(key, sub)
				continue
			}
			v.SetDefault(key, val)
		}
	}
	walk("", tree)
}

// loadConfig merges defaults, config file, env vars and bound flags
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newPipeline loads the config, applies overrides and builds a pipeline
func newPipeline(cmd *cobra.Command, override func(*model.Config)) (*pipeline.Pipeline, *model.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if override != nil {
		override(cfg)
	}
	p, err := pipeline.NewPipeline(cfg,
		pipeline.WithLogger(slog.Default()),
		pipeline.WithOutput(cmd.OutOrStdout()),
	)
	if err != nil {
		return nil, nil, err
	}
	return p, cfg, nil
}
