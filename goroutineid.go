// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package coop

import (
	"runtime"
	"sync"
)

// running maps goroutine ID to the *Task executing on it.
var running sync.Map

// Current returns the task running on the calling goroutine, or nil if the
// caller is not a task (e.g. the loop itself, or an unrelated goroutine).
func Current() *Task {
	if v, ok := running.Load(getGoroutineID()); ok {
		return v.(*Task)
	}
	return nil
}

// getGoroutineID returns the current goroutine's ID.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}
