// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package coop

import (
	"context"
	"sync"
)

var defaultRuntime struct {
	sync.Mutex
	rt *Runtime
}

// Default returns the package-level runtime, creating it on first use.
func Default() *Runtime {
	defaultRuntime.Lock()
	defer defaultRuntime.Unlock()
	if defaultRuntime.rt == nil {
		rt, err := New()
		if err != nil {
			panic(err)
		}
		defaultRuntime.rt = rt
	}
	return defaultRuntime.rt
}

// SetDefault replaces the package-level runtime, returning the previous one
// (which may be nil). Passing nil causes the next call to Default to create
// a new runtime.
func SetDefault(rt *Runtime) *Runtime {
	defaultRuntime.Lock()
	defer defaultRuntime.Unlock()
	prev := defaultRuntime.rt
	defaultRuntime.rt = rt
	return prev
}

// Go spawns a routine on the default runtime, see Runtime.Spawn.
func Go(fn Func, args ...any) *Task {
	return Default().Spawn(fn, args...)
}

// Defer schedules a one-shot timer on the default runtime.
func Defer(timeout Duration, fn TimerFunc) {
	Default().Defer(timeout, fn)
}

// Repeat schedules a recurring timer on the default runtime.
func Repeat(interval Duration, fn RepeatFunc) {
	Default().Repeat(interval, fn)
}

// Run runs the default runtime, see Runtime.Run.
func Run(ctx context.Context) error {
	return Default().Run(ctx)
}

// Delay suspends the calling task for at least d, on the runtime it
// belongs to.
func Delay(d Duration) error {
	t := Current()
	if t == nil {
		return ErrNotInTask
	}
	return t.Delay(d)
}

// Tracef writes a timestamped line using the default runtime, see
// Runtime.Tracef.
func Tracef(format string, args ...any) {
	Default().Tracef(format, args...)
}
