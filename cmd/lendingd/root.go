package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"btc-lending-backend/internal/config"
	"btc-lending-backend/internal/infrastructure/logging"
)

const serviceName = "lendingd"

var configPath string

var rootCmd = &cobra.Command{
	Use:          serviceName,
	Short:        "Collateralized BTC lending backend",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a TOML config file (env vars override it)")
}

// loadConfig reads and validates configuration and installs the logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logging.Setup(logging.Options{
		Service: serviceName,
		Env:     cfg.Env,
		Level:   logging.ParseLevel(cfg.LogLevel),
		File:    cfg.LogFile,
	})
	return cfg, nil
}
