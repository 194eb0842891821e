// Package commands implements the jfsck CLI: the offline checker and
// recovery tool for journaled data files.
package commands

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/aasselin/libjio/internal/jioconfig"
	"github.com/aasselin/libjio/internal/logger"
	"github.com/aasselin/libjio/internal/metrics"
	"github.com/aasselin/libjio/internal/telemetry"
)

var (
	cfgFile     string
	traceFlag   bool
	profileFlag bool
	metricsAddr string

	cfg               *jioconfig.Config
	shutdownTracing   func(context.Context) error
	shutdownProfiling func() error
)

var rootCmd = &cobra.Command{
	Use:           "jfsck",
	Short:         "jfsck checks and recovers journaled data files",
	Long:          `jfsck is the offline checker for libjio-style journaled data files: it reconciles a data file with its journal directory after a crash, reapplying committed-but-unapplied transactions and discarding everything else.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = jioconfig.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		if err := logger.Init(cfg.Logging.ToLogger()); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		telemetryCfg := cfg.Telemetry.ToTelemetry()
		telemetryCfg.Enabled = telemetryCfg.Enabled || traceFlag
		shutdownTracing, err = telemetry.Init(cmd.Context(), telemetryCfg)
		if err != nil {
			return fmt.Errorf("init telemetry: %w", err)
		}

		profilingCfg := cfg.Profiling.ToProfiling()
		profilingCfg.Enabled = profilingCfg.Enabled || profileFlag
		shutdownProfiling, err = telemetry.InitProfiling(profilingCfg)
		if err != nil {
			return fmt.Errorf("init profiling: %w", err)
		}

		if metricsAddr != "" || cfg.Metrics.Enabled {
			addr := metricsAddr
			if addr == "" {
				addr = cfg.Metrics.Addr
			}
			metrics.Init()
			go func() {
				if err := http.ListenAndServe(addr, metrics.Handler()); err != nil {
					logger.Warn("metrics server exited", logger.KeyError, err.Error())
				}
			}()
			logger.Info("metrics endpoint listening", "addr", addr)
		}

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if shutdownProfiling != nil {
			if err := shutdownProfiling(); err != nil {
				logger.Warn("profiling shutdown failed", logger.KeyError, err.Error())
			}
		}
		if shutdownTracing != nil {
			return shutdownTracing(cmd.Context())
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (default: $XDG_CONFIG_HOME/jfsck/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&traceFlag, "trace", false, "enable OTLP trace export regardless of config file setting")
	rootCmd.PersistentFlags().BoolVar(&profileFlag, "profile", false, "enable Pyroscope continuous profiling regardless of config file setting")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "address to serve Prometheus /metrics on (e.g. :9090)")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(moveCmd)
}
