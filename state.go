// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package coop

import (
	"sync/atomic"
)

// RuntimeState represents the lifecycle state of a Runtime.
//
// State Machine:
//
//	StateIdle → StateRunning        [Run()]
//	StateRunning → StateIdle        [Run() returned, for any reason]
//	StateIdle → StateTerminated     [Close()]
//	StateTerminated → (terminal)
//
// Run may be called again from StateIdle, to process work registered after
// the previous Run drained.
type RuntimeState uint32

const (
	// StateIdle indicates the runtime is not currently running.
	StateIdle RuntimeState = iota
	// StateRunning indicates Run is executing the main loop.
	StateRunning
	// StateTerminated indicates Close has been called.
	StateTerminated
)

// String returns a human-readable representation of the state.
func (s RuntimeState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StateTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// runtimeState is an atomic RuntimeState, so IsRunning etc. may be polled
// from other goroutines.
type runtimeState struct {
	v atomic.Uint32
}

func (s *runtimeState) Load() RuntimeState {
	return RuntimeState(s.v.Load())
}

func (s *runtimeState) Store(state RuntimeState) {
	s.v.Store(uint32(state))
}

// TryTransition attempts to atomically transition from one state to another.
func (s *runtimeState) TryTransition(from, to RuntimeState) bool {
	return s.v.CompareAndSwap(uint32(from), uint32(to))
}

// TaskState is the lifecycle state of a Task.
//
//	TaskCreated → TaskRunning           [Start()]
//	TaskRunning → TaskSuspended         [Suspend()]
//	TaskSuspended → TaskRunning         [Resume()]
//	TaskRunning → TaskTerminated        [body returned or panicked]
type TaskState uint8

const (
	// TaskCreated indicates the task has not been started.
	TaskCreated TaskState = iota
	// TaskRunning indicates the task body is currently executing.
	TaskRunning
	// TaskSuspended indicates the task is paused at a suspension point.
	TaskSuspended
	// TaskTerminated indicates the task body has finished.
	TaskTerminated
)

// String returns a human-readable representation of the state.
func (s TaskState) String() string {
	switch s {
	case TaskCreated:
		return "Created"
	case TaskRunning:
		return "Running"
	case TaskSuspended:
		return "Suspended"
	case TaskTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}
