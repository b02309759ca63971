package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"snipd/internal/config"
	"snipd/internal/logging"
)

// Exit codes reported by the daemon and one-shot commands.
const (
	exitOK             = 0
	exitUnexpected     = 1
	exitConfigError    = 2
	exitStartError     = 3
	exitRenderError    = 4
	exitAlreadyRunning = 5
)

var version = "0.3.0"

var (
	// Global flags
	verbose   bool
	configDir string

	logger *zap.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "snipd",
	Short: "snipd - text expansion daemon",
	Long: `snipd watches what you type and expands trigger abbreviations into
full snippets: static text, templated variables, forms, shell output,
markdown, or images.

Match definitions are YAML files under the config directory and reload
live on save.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if configDir == "" {
			configDir = config.DefaultConfigDir()
		}
		cfg, err = config.Load(configDir)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if err := logging.Initialize(configDir); err != nil {
			logger.Warn("file logging unavailable", zap.Error(err))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the snipd version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("snipd %s\n", version)
	},
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "override the config directory")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitUnexpected)
	}
}
