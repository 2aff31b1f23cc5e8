// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package coop

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// ErrUsage is the parent of all errors caused by calling an API in a context
// it does not support. Use [errors.Is] to match the whole class.
var ErrUsage = errors.New("coop: usage error")

// Usage errors.
var (
	// ErrNotInTask is returned by blocking operations (Delay, Yield, Await,
	// Channel.Send, Channel.Receive, and the async I/O helpers) that were
	// called from a goroutine that is not running a task.
	ErrNotInTask = usageError("must be called from within a running task")

	// ErrForeignTask is returned when a task-scoped operation is attempted
	// from a goroutine other than the task's own.
	ErrForeignTask = usageError("task operation called from a foreign goroutine")

	// ErrChannelClosed is returned by Channel.Send on a closed channel, and by
	// Channel.Receive once a closed channel has been drained.
	ErrChannelClosed = usageError("send to or receive from closed channel")

	// ErrChannelAlreadyClosed is returned by Channel.Close on a closed channel.
	ErrChannelAlreadyClosed = usageError("close of closed channel")

	// ErrInvalidDescriptor is returned when subscribing a stream that is nil,
	// or does not refer to an open file descriptor.
	ErrInvalidDescriptor = usageError("stream is not a valid open descriptor")

	// ErrTimerListEmpty is returned when querying the head of an empty
	// TimerList.
	ErrTimerListEmpty = usageError("the timers list is empty")

	// ErrTaskStarted is returned by Task.Start on a task that has already been
	// started.
	ErrTaskStarted = usageError("task has already been started")

	// ErrAwaitSelf is returned by Task.Await when a task awaits itself.
	ErrAwaitSelf = usageError("task cannot await itself")

	// ErrTaskNotSuspended is returned by Task.Resume on a task that is not
	// suspended (never started, running, or terminated).
	ErrTaskNotSuspended = usageError("task is not suspended")
)

// Runtime lifecycle errors.
var (
	// ErrAlreadyRunning is returned when Run is called on a runtime that is
	// already running.
	ErrAlreadyRunning = errors.New("coop: runtime is already running")

	// ErrReentrantRun is returned when Run is called from within one of the
	// runtime's own tasks.
	ErrReentrantRun = errors.New("coop: cannot call Run from within the runtime")

	// ErrTerminated is returned when operations are attempted on a closed
	// runtime.
	ErrTerminated = errors.New("coop: runtime has been terminated")

	// ErrDeadlock is returned by Run when every remaining task is parked on
	// a channel, and there are no timers or stream subscriptions left that
	// could wake them.
	ErrDeadlock = errors.New("coop: all tasks are asleep - deadlock")

	// ErrPollUnsupported is returned by the default poller on platforms
	// without poll(2).
	ErrPollUnsupported = errors.New("coop: stream polling is not supported on this platform")
)

type usageErr struct{ msg string }

func usageError(msg string) error { return &usageErr{msg: msg} }

func (e *usageErr) Error() string { return "coop: " + e.msg }

func (e *usageErr) Unwrap() error { return ErrUsage }

// PollError indicates the readiness poll itself failed. It is fatal to the
// loop: Run returns it, and no further cycles are performed.
type PollError struct {
	Err error
}

// Error implements the error interface.
func (e *PollError) Error() string {
	return fmt.Sprintf("coop: poll failed: %v", e.Err)
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *PollError) Unwrap() error {
	return e.Err
}

// PanicError wraps a value recovered from a panicking task body. It is
// re-panicked in whichever goroutine resumed the task, so a task panic
// propagates out of Runtime.Run.
type PanicError struct {
	Value any
	Stack []byte
	// TaskID is the ID of the task that panicked.
	TaskID uint64
}

func newPanicError(t *Task, v any) *PanicError {
	if e, ok := v.(*PanicError); ok {
		return e
	}
	return &PanicError{Value: v, Stack: debug.Stack(), TaskID: t.id}
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("coop: task %d panicked: %v", e.TaskID, e.Value)
}

// Unwrap returns the panic value if it is an error, otherwise nil.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
