// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/spf13/cobra"

	"github.com/joeycumines/go-coop"
)

var (
	// Global flags
	configPath string
	logLevel   string
	metrics    bool
)

var rootCmd = &cobra.Command{
	Use:   "coopdemo",
	Short: "Example programs for the coop cooperative runtime",
	Long: `coopdemo - example programs for the coop cooperative runtime.

Each command builds a runtime, registers some tasks, and runs it until there
is no work left (or, for the servers, until interrupted).

Output lines are prefixed by the milliseconds elapsed since the loop started.
Structured logs are written to stderr.

Configuration may also be loaded from a YAML file:
  log_level: debug
  metrics: true
  addr: 127.0.0.1:8019
  chat:
    rate_limits:
      1s: 5
      1m: 60`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		if !cmd.Flags().Changed("log-level") && cfg.LogLevel != "" {
			logLevel = cfg.LogLevel
		}
		if !cmd.Flags().Changed("metrics") && cfg.Metrics {
			metrics = true
		}
		globalConfig = cfg
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warning", "log level (trace, debug, info, notice, warning, err, crit, disabled)")
	rootCmd.PersistentFlags().BoolVar(&metrics, "metrics", false, "print runtime metrics on exit")
}

func parseLevel(s string) (logiface.Level, error) {
	for _, level := range []logiface.Level{
		logiface.LevelDisabled,
		logiface.LevelEmergency,
		logiface.LevelAlert,
		logiface.LevelCritical,
		logiface.LevelError,
		logiface.LevelWarning,
		logiface.LevelNotice,
		logiface.LevelInformational,
		logiface.LevelDebug,
		logiface.LevelTrace,
	} {
		if strings.EqualFold(s, level.String()) {
			return level, nil
		}
	}
	return 0, fmt.Errorf("invalid log level: %q", s)
}

func newLogger(w io.Writer, level logiface.Level) *logiface.Logger[logiface.Event] {
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
		stumpy.L.WithLevel(level),
	).Logger()
}

// newRuntime builds a runtime from the global flags, tracing to the
// command's output.
func newRuntime(cmd *cobra.Command, opts ...coop.RuntimeOption) (*coop.Runtime, error) {
	level, err := parseLevel(logLevel)
	if err != nil {
		return nil, err
	}
	return coop.New(append([]coop.RuntimeOption{
		coop.WithLogger(newLogger(cmd.ErrOrStderr(), level)),
		coop.WithTraceWriter(cmd.OutOrStdout()),
		coop.WithMetrics(metrics),
	}, opts...)...)
}

// run runs rt until it drains, or the process is interrupted, then closes
// it, printing metrics if enabled.
func run(cmd *cobra.Command, rt *coop.Runtime) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rt.Run(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	if metrics {
		m := rt.Metrics()
		fmt.Fprintf(cmd.ErrOrStderr(), "cycles=%d resumes=%d timers=%d polls=%d ready=%d idle=%d p50=%v p99=%v max=%v\n",
			m.Cycles, m.Resumes, m.TimersFired, m.Polls, m.ReadyDescriptors, m.IdleSleeps,
			m.Latency.P50, m.Latency.P99, m.Latency.Max)
	}

	if cerr := rt.Close(); err == nil {
		err = cerr
	}
	return err
}
