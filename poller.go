// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package coop

// Poller waits for readiness of a set of file descriptors.
//
// Poll is only ever called from the loop goroutine. Wake may be called
// concurrently, from any goroutine, and must cause a blocked (or the next)
// Poll to return early.
type Poller interface {
	// Poll waits until at least one of the descriptors is ready, the timeout
	// elapses, or Wake is called. If block is true, the timeout is ignored,
	// and Poll waits indefinitely. It returns the ready subsets of read and
	// write.
	Poll(read, write []uintptr, timeout Duration, block bool) (readyRead, readyWrite []uintptr, err error)

	// Wake interrupts a blocked Poll.
	Wake() error

	// Close releases the poller's resources.
	Close() error
}

// pollTimeoutMillis converts a poll timeout to the millisecond argument
// expected by poll(2). Positive sub-millisecond timeouts are rounded up, so
// the loop does not spin.
func pollTimeoutMillis(timeout Duration, block bool) int {
	if block {
		return -1
	}
	if timeout <= 0 {
		return 0
	}
	ms := timeout.AsMilliseconds()
	if Duration(ms)*Milliseconds(1) < timeout {
		ms++
	}
	const maxMillis = 1<<31 - 1
	if ms > maxMillis {
		ms = maxMillis
	}
	return int(ms)
}
