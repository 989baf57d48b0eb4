// Package cli defines the pegfall commands: serve (default), ticket and
// migrate.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pegfall/internal/config"
	"pegfall/internal/logger"
)

var (
	configPath string
	version    = "dev" // set via ldflags at build time
)

var rootCmd = &cobra.Command{
	Use:           "pegfall",
	Short:         "Multiplayer peg board coordination server",
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runServe,
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (defaults to $"+config.ConfigEnv+")")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ticketCmd)
	rootCmd.AddCommand(migrateCmd)
}

// loadConfig reads the config and installs the logger it asks for.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	return cfg, nil
}
