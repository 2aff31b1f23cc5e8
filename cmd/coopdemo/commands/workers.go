// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package commands

import (
	"github.com/spf13/cobra"

	"github.com/joeycumines/go-coop"
)

var workersCmd = &cobra.Command{
	Use:   "workers",
	Short: "Routines sleeping with delay, or yielding round-robin",
	Long: `Spawn routines that each wake up a number of times.

By default, three workers delay for 500ms (x2), 200ms (x5) and 200ms (x3).
With --yield, four routines instead print and yield three times each,
demonstrating round-robin scheduling.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		yield, err := cmd.Flags().GetBool("yield")
		if err != nil {
			return err
		}

		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}

		if yield {
			for _, word := range []string{"tick", "tock", "click", "clack"} {
				rt.Spawn(func(t *coop.Task, _ ...any) any {
					for range 3 {
						rt.Tracef("%s", word)
						if err := t.Yield(); err != nil {
							return err
						}
					}
					return nil
				})
			}
			return run(cmd, rt)
		}

		worker := func(t *coop.Task, args ...any) any {
			id, delay, n := args[0].(string), args[1].(coop.Duration), args[2].(int)
			for range n {
				if err := t.Delay(delay); err != nil {
					return err
				}
				rt.Tracef("worker %s has woken up", id)
			}
			rt.Tracef("worker %s has terminated", id)
			return nil
		}
		rt.Spawn(worker, "01", coop.Milliseconds(500), 2)
		rt.Spawn(worker, "02", coop.Milliseconds(200), 5)
		rt.Spawn(worker, "03", coop.Milliseconds(200), 3)

		return run(cmd, rt)
	},
}

func init() {
	workersCmd.Flags().Bool("yield", false, "yield round-robin instead of delaying")
	rootCmd.AddCommand(workersCmd)
}
