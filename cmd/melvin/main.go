package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/config"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/logging"
)

var (
	configPath string
	logMode    string

	cfg    *config.Config
	logger *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "melvin",
	Short: "Melvin - conversational cancer genomics explorer",
	Long: `Melvin keeps a per-session conversation state (gene, cancer type, analysis,
data source), validates it against each analysis's requirements and routes
complete states to an analysis. Partial states get a follow-up question.

Run "melvin chat" for an interactive session.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if logMode != "" {
			cfg.Logging.Mode = logMode
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		logger, err = logging.New(cfg.Logging.Mode)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "melvin.yaml", "path to YAML config")
	rootCmd.PersistentFlags().StringVar(&logMode, "log-mode", "", "dev or prod (overrides config)")

	rootCmd.AddCommand(chatCmd, serveCmd, replayCmd, inspectCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
