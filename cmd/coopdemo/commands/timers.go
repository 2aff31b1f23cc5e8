// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/joeycumines/go-coop"
)

var timersCmd = &cobra.Command{
	Use:   "timers",
	Short: "One-shot and recurring timers",
	Long: `Schedule two one-shot timers (100ms and 200ms), and a timer recurring
every --interval, which stops itself after --count runs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, err := cmd.Flags().GetDuration("interval")
		if err != nil {
			return err
		}
		count, err := cmd.Flags().GetInt("count")
		if err != nil {
			return err
		}

		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}

		for _, ms := range []int{100, 200} {
			rt.Defer(coop.Milliseconds(ms), func(t *coop.Task, start, now coop.Duration) {
				rt.Tracef("the deferred task has executed")
			})
		}

		var times int
		rt.Repeat(coop.FromStd(interval), func(t *coop.Task, start, now coop.Duration) bool {
			times++
			rt.Tracef("the recurrent task has executed %d times", times)
			if times >= count {
				rt.Tracef("the recurrent task has stopped")
				return false
			}
			return true
		})

		return run(cmd, rt)
	},
}

func init() {
	timersCmd.Flags().Duration("interval", 500*time.Millisecond, "recurring timer interval")
	timersCmd.Flags().Int("count", 5, "number of times the recurring timer runs")
	rootCmd.AddCommand(timersCmd)
}
