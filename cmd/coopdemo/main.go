// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package main provides coopdemo, a collection of example programs for the
// coop runtime.
//
// Usage:
//
//	coopdemo [flags] <command> [flags]
//
// Commands:
//
//	timers   - one-shot and recurring timers
//	workers  - routines sleeping with delay, or yielding round-robin
//	streams  - a pipe, read and written by tasks
//	echo     - TCP echo server
//	chat     - TCP chat server, broadcasting over a channel
package main

import (
	"fmt"
	"os"

	"github.com/joeycumines/go-coop/cmd/coopdemo/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
