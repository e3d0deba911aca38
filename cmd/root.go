package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/psychometric/internal/config"
	"github.com/abhisek/psychometric/internal/logging"
	"github.com/abhisek/psychometric/internal/store"
)

// cfg is loaded before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "psychometric",
	Short: "AI personality assessment service",
	Long: `PsychoMetric runs an AI-assisted personality questionnaire: users answer
multiple-choice questions by click or voice and receive a scored report.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a config file (YAML, JSON or TOML)")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides PSYCHOMETRIC_DB env var)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(questionsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	c, err := config.Load(path)
	if err != nil {
		return err
	}

	// --db has the highest priority.
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		if err := store.EnsureDir(p); err != nil {
			return err
		}
		c.Storage.DBPath = p
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		c.Log.Level = lvl
	}

	if _, err := logging.Setup(os.Stderr, c.Log.Level, c.Log.Format); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	cfg = c
	return nil
}
