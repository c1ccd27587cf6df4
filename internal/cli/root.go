package cli

import (
	"fmt"

	"github.com/Davincible/polyrecover/internal/logger"
	"github.com/Davincible/polyrecover/internal/validation"
	"github.com/Davincible/polyrecover/pkg/config"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewRootCommand assembles the polyrecover command tree.
func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "polyrecover",
		Short: "Recover a polynomial's constant term from encoded points",
		Long: `Polyrecover reconstructs the secret hidden as the constant term of an
integer polynomial, given enough points on it.

Each point's value may be written in any base from 2 to 36 and may be far
larger than 64 bits. Interpolation is exact: no floating point is used and a
result that is not an integer is reported as an error.

Records are JSON documents of the form:

  {
    "keys": {"n": 4, "k": 3},
    "1": {"base": "10", "value": "4"},
    "2": {"base": "2", "value": "111"},
    "3": {"base": "10", "value": "12"},
    "6": {"base": "4", "value": "213"}
  }

The first k entries, in document order, are used.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		NewSolveCommand(),
		NewDecodeCommand(),
		NewGenerateCommand(),
	)

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to configuration file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().String("log-level", "", "Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "Override log format (json, text)")

	return rootCmd
}

// environment is what every command needs after flags are parsed.
type environment struct {
	cfg *config.Config
	log *logger.Logger
}

func loadEnvironment(cmd *cobra.Command) (*environment, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Logging.Level = "debug"
	}
	if format, _ := cmd.Flags().GetString("log-format"); format != "" {
		cfg.Logging.Format = format
	}
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		cfg.Output.Format = "json"
	}
	if err := validation.ValidateOutputFormat(cfg.Output.Format); err != nil {
		return nil, err
	}

	if !cfg.Output.Color {
		color.NoColor = true
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	return &environment{cfg: cfg, log: log}, nil
}
