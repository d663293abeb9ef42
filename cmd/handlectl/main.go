package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DangerosoDavo/slotengine/internal/config"
	"github.com/DangerosoDavo/slotengine/internal/logging"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:          "handlectl",
	Long:         "Inspect, script and benchmark generational handle tables",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&configPath, "config", configPath,
		"path to a TOML or YAML configuration file")
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", logLevel,
		"override the configured log level")
}

// loadConfig returns the file configuration, or the defaults when no file
// was given.
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		cfg := config.Default()
		return cfg, cfg.Validate()
	}
	return config.Load(configPath)
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logCfg := cfg.Logging
	if logLevel != "" {
		logCfg.Level = logLevel
	}
	return logging.New(logCfg)
}

func main() {
	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt)
	defer cancel()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
