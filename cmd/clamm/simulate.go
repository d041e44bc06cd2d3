package main

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/clamm/clamm-go/factory"
	"github.com/clamm/clamm-go/ledger"
	"github.com/clamm/clamm-go/manager"
	"github.com/clamm/clamm-go/scenario"
)

// simulateConfig holds the simulate command's settings, merged from flags,
// environment variables and an optional config file.
type simulateConfig struct {
	Scenario string
	LogLevel string
}

func loadSimulateConfig(cfgFile string, flags *pflag.FlagSet) (simulateConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("CLAMM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return simulateConfig{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return simulateConfig{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return simulateConfig{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return simulateConfig{
		Scenario: v.GetString("scenario"),
		LogLevel: v.GetString("log-level"),
	}, nil
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := loadSimulateConfig(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Scenario == "" {
		return fmt.Errorf("scenario path is required")
	}

	s, err := scenario.Load(cfg.Scenario)
	if err != nil {
		return err
	}

	l := ledger.NewMemory()
	m := manager.New(
		factory.New(l),
		l,
		logger.With(zap.String("component", "manager")),
		manager.NewMetrics(prometheus.DefaultRegisterer),
	)

	runner := scenario.NewRunner(m, l, logger.With(zap.String("component", "runner")))
	if err := runner.Run(s); err != nil {
		return err
	}

	logger.Info("scenario complete",
		zap.Int("pools", len(s.Pools)),
		zap.Int("actions", len(s.Actions)),
	)
	return nil
}
