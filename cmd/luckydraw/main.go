// Command luckydraw runs lucky draws from the terminal or serves them to
// browsers over websockets.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ahrav/go-luckydraw/internal/application"
)

var (
	// Global flags
	configPath string
	verbose    bool

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "luckydraw",
	Short: "Spin a reel of names and pick a winner",
	Long: `luckydraw picks a uniformly random winner from a list of candidates and
animates the pick as a decelerating reel.

Candidates come from the command line, a text file (one per line), or a
SQL query. By default a winner is removed from the pool after each draw.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		l, err := config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML engine configuration")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newDrawCmd(), newServeCmd())
}

// loadConfig reads the --config file, or returns the defaults when none
// was given.
func loadConfig() (application.EngineConfig, error) {
	if configPath == "" {
		return application.DefaultEngineConfig(), nil
	}
	loader, err := application.NewConfigLoader()
	if err != nil {
		return application.EngineConfig{}, err
	}
	return loader.LoadFromFile(configPath)
}

// validateConfig re-checks cfg after command-line overrides.
func validateConfig(cfg *application.EngineConfig) error {
	loader, err := application.NewConfigLoader()
	if err != nil {
		return err
	}
	return loader.Validate(cfg)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
