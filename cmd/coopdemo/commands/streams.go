// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package commands

import (
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joeycumines/go-coop"
)

var streamsCmd = &cobra.Command{
	Use:   "streams",
	Short: "A pipe, read and written by tasks",
	Long: `Create a pipe, then spawn a writer routine that sends --count messages,
delaying between each, and a reader routine that prints what it receives,
until the writer closes its end.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		count, err := cmd.Flags().GetInt("count")
		if err != nil {
			return err
		}

		r, w, err := os.Pipe()
		if err != nil {
			return err
		}
		defer r.Close()

		rt, err := newRuntime(cmd)
		if err != nil {
			_ = w.Close()
			return err
		}

		rt.Spawn(func(t *coop.Task, _ ...any) any {
			defer w.Close()
			for i := range count {
				if err := t.Delay(coop.Milliseconds(100)); err != nil {
					return err
				}
				rt.Tracef("[writer]: message %d", i)
				if _, err := coop.Write(t, w, []byte("hello from the writer\n")); err != nil {
					return err
				}
			}
			return nil
		})

		rt.Spawn(func(t *coop.Task, _ ...any) any {
			for {
				data, err := coop.Read(t, r, 1024)
				if errors.Is(err, io.EOF) || (err == nil && len(data) == 0) {
					rt.Tracef("[reader]: the writer has closed the pipe")
					return nil
				}
				if err != nil {
					return err
				}
				rt.Tracef("[reader]: %q", data)
			}
		})

		return run(cmd, rt)
	},
}

func init() {
	streamsCmd.Flags().Int("count", 3, "number of messages to write")
	rootCmd.AddCommand(streamsCmd)
}
