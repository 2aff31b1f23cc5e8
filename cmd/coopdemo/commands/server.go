// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package commands

import (
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/joeycumines/go-coop"
	"github.com/joeycumines/go-coop/internal/netfd"
)

const defaultAddr = "127.0.0.1:8019"

func addServerFlags(cmd *cobra.Command) {
	cmd.Flags().String("addr", defaultAddr, "address to listen on")
}

// listen opens the listening socket, using the --addr flag, or the
// configured address if the flag was not set.
func listen(cmd *cobra.Command) (*netfd.Listener, error) {
	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return nil, err
	}
	if !cmd.Flags().Changed("addr") && globalConfig.Addr != "" {
		addr = globalConfig.Addr
	}
	return netfd.Listen(addr)
}

// acceptLoop accepts connections until an error occurs, spawning handler
// for each, with the connection as its only argument.
func acceptLoop(rt *coop.Runtime, ln *netfd.Listener, handler coop.Func) coop.Func {
	return func(t *coop.Task, _ ...any) any {
		for {
			conn, err := coop.Accept(t, ln, ln.Accept)
			if err != nil {
				rt.Logger().Err().Err(err).Log("accept failed")
				return err
			}
			if _, err := t.Spawn(handler, conn); err != nil {
				_ = conn.Close()
				return err
			}
		}
	}
}

// tickTock prints alternating ticks and tocks, every second, forever.
func tickTock(rt *coop.Runtime) coop.Func {
	return func(t *coop.Task, _ ...any) any {
		tick := false
		for {
			if err := t.Delay(coop.Seconds(1)); err != nil {
				return err
			}
			tick = !tick
			if tick {
				rt.Tracef("tick")
			} else {
				rt.Tracef("tock")
			}
		}
	}
}

// isDisconnect reports whether a read result means the peer has gone.
func isDisconnect(data []byte, err error) bool {
	return errors.Is(err, io.EOF) || (err == nil && len(data) == 0)
}
