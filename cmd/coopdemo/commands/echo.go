// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package commands

import (
	"github.com/spf13/cobra"

	"github.com/joeycumines/go-coop"
	"github.com/joeycumines/go-coop/internal/netfd"
)

var echoCmd = &cobra.Command{
	Use:   "echo",
	Short: "TCP echo server",
	Long: `Listen on --addr, echoing everything each client sends back to it.
A background routine prints tick/tock every second, showing the server
never blocks the runtime.

Example:
  coopdemo echo --addr 127.0.0.1:8019
  nc 127.0.0.1 8019`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ln, err := listen(cmd)
		if err != nil {
			return err
		}
		defer ln.Close()

		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}

		rt.Tracef("listening to %s...", ln.Addr())

		clients := 0
		worker := func(t *coop.Task, args ...any) any {
			conn := args[0].(*netfd.Conn)
			defer conn.Close()
			addr := conn.RemoteAddr()

			clients++
			rt.Tracef("a new client has connected [%s]", addr)
			rt.Tracef("total connections: %d", clients)

			defer func() {
				clients--
				rt.Tracef("the client has disconnected [%s]", addr)
				rt.Tracef("total connections: %d", clients)
			}()

			for {
				data, err := coop.Read(t, conn, 1024)
				if isDisconnect(data, err) {
					return nil
				}
				if err != nil {
					return err
				}
				if _, err := coop.Write(t, conn, data); err != nil {
					return err
				}
			}
		}

		rt.Spawn(acceptLoop(rt, ln, worker))
		rt.Spawn(tickTock(rt))

		return run(cmd, rt)
	},
}

func init() {
	addServerFlags(echoCmd)
	rootCmd.AddCommand(echoCmd)
}
