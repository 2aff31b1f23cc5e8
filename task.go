// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package coop

import (
	"fmt"
	"runtime"
	"slices"
	"sync/atomic"
)

type (
	// Func is the body of a Task. The args are those passed to Task.Start,
	// and the return value becomes the task's result.
	Func func(t *Task, args ...any) any

	// StreamFunc is the body of a stream subscription task, started with the
	// ready stream and the runtime's (start, now) timestamps.
	StreamFunc func(t *Task, s Stream, start, now Duration)

	// TimerFunc is the body of a one-shot timer task.
	TimerFunc func(t *Task, start, now Duration)

	// RepeatFunc is the body of a recurring timer task. Returning false stops
	// the timer.
	RepeatFunc func(t *Task, start, now Duration) bool

	// Job is anything that may be scheduled as a Task: a *Task (used as-is),
	// or one of Func, StreamFunc, TimerFunc or RepeatFunc (wrapped in a new
	// Task).
	Job interface {
		asTask() *Task
	}

	// Task is a suspendable unit of execution, a coroutine, backed by a
	// goroutine that only runs while its resumer is blocked waiting for it.
	// Exactly one of the loop and its tasks executes at any instant.
	//
	// A Task is not safe for concurrent use, outside of that hand-off.
	Task struct {
		fn        Func
		args      []any
		in        chan resumeMsg
		out       chan yieldMsg
		result    any
		rt        *Runtime
		waiters   []*Task
		id        uint64
		gid       uint64
		state     TaskState
		owned     bool
		abandoned bool
	}

	resumeMsg struct {
		value   any
		abandon bool
	}

	yieldMsg struct {
		value any
		panic *PanicError
		done  bool
	}
)

var taskIDCounter atomic.Uint64

// NewTask returns a new Task, in the TaskCreated state.
func NewTask(fn Func) *Task {
	if fn == nil {
		fn = func(*Task, ...any) any { return nil }
	}
	return &Task{fn: fn, id: taskIDCounter.Add(1)}
}

// Start runs the task until its first suspension point, or until it
// terminates, returning the suspended (or returned) value.
//
// If the task body panics, Start panics with a *PanicError.
func (t *Task) Start(args ...any) (any, error) {
	if t.state != TaskCreated {
		return nil, ErrTaskStarted
	}
	t.in = make(chan resumeMsg)
	t.out = make(chan yieldMsg)
	t.state = TaskRunning
	t.rt.track(t)
	go t.main(args)
	return t.wait()
}

// Resume continues a suspended task, passing v as the return value of its
// pending Suspend call. It returns the next suspended value, or the task's
// result, if it terminated.
//
// If the task body panics, Resume panics with a *PanicError.
func (t *Task) Resume(v any) (any, error) {
	if t.state != TaskSuspended {
		return nil, ErrTaskNotSuspended
	}
	t.state = TaskRunning
	t.in <- resumeMsg{value: v}
	return t.wait()
}

// Suspend pauses the task, handing v to its resumer, and blocks until the
// task is resumed. It must be called from the task's own goroutine.
func (t *Task) Suspend(v any) (any, error) {
	if t.state != TaskRunning || getGoroutineID() != t.gid {
		return nil, ErrForeignTask
	}
	if t.abandoned {
		// deferred calls unwinding an abandoned task must not block
		return nil, ErrTerminated
	}
	t.out <- yieldMsg{value: v}
	msg := <-t.in
	if msg.abandon {
		runtime.Goexit()
	}
	return msg.value, nil
}

func (t *Task) main(args []any) {
	t.gid = getGoroutineID()
	running.Store(t.gid, t)
	msg := yieldMsg{done: true}
	defer func() {
		running.Delete(t.gid)
		if r := recover(); r != nil {
			msg.panic = newPanicError(t, r)
		}
		t.out <- msg
	}()
	msg.value = t.fn(t, args...)
}

func (t *Task) wait() (any, error) {
	msg := <-t.out
	defer t.notifyWaiters()
	if !msg.done {
		t.state = TaskSuspended
		return msg.value, nil
	}
	t.state = TaskTerminated
	t.result = msg.value
	t.rt.untrack(t)
	if msg.panic != nil && !t.abandoned {
		panic(msg.panic)
	}
	return msg.value, nil
}

// notifyWaiters unparks every task awaiting t, so that they re-check it.
func (t *Task) notifyWaiters() {
	if len(t.waiters) == 0 {
		return
	}
	waiters := t.waiters
	t.waiters = nil
	for _, w := range waiters {
		w.rt.unpark(w)
	}
}

func (t *Task) removeWaiter(w *Task) {
	if i := slices.Index(t.waiters, w); i >= 0 {
		t.waiters = slices.Delete(t.waiters, i, i+1)
	}
}

// abandon unwinds a suspended task, running any deferred calls in its body,
// so that its goroutine exits.
func (t *Task) abandon() {
	if t.state != TaskSuspended {
		return
	}
	t.abandoned = true
	t.state = TaskRunning
	t.in <- resumeMsg{abandon: true}
	_, _ = t.wait()
}

// advance starts the task if it has not been started, or resumes it if it
// is suspended. Terminated or running tasks are left alone. If args is
// empty, a task is started with the args it was created with, if any.
func (t *Task) advance(args ...any) {
	switch t.state {
	case TaskCreated:
		if len(args) == 0 {
			args = t.args
		}
		_, _ = t.Start(args...)
	case TaskSuspended:
		_, _ = t.Resume(nil)
	}
}

// ID returns the unique ID of the task.
func (t *Task) ID() uint64 { return t.id }

// State returns the task's lifecycle state.
func (t *Task) State() TaskState { return t.state }

// IsStarted reports whether the task has been started.
func (t *Task) IsStarted() bool { return t.state != TaskCreated }

// IsSuspended reports whether the task is paused at a suspension point.
func (t *Task) IsSuspended() bool { return t.state == TaskSuspended }

// IsTerminated reports whether the task body has finished.
func (t *Task) IsTerminated() bool { return t.state == TaskTerminated }

// Result returns the value returned by the task body, or nil if it has not
// terminated.
func (t *Task) Result() any { return t.result }

// Runtime returns the runtime that is driving the task, which may be nil if
// it has never been scheduled.
func (t *Task) Runtime() *Runtime { return t.rt }

// String implements fmt.Stringer.
func (t *Task) String() string {
	return fmt.Sprintf("task#%d(%s)", t.id, t.state)
}

func (t *Task) asTask() *Task { return t }

func (f Func) asTask() *Task { return NewTask(f) }

func (f StreamFunc) asTask() *Task {
	if f == nil {
		return NewTask(nil)
	}
	return NewTask(func(t *Task, args ...any) any {
		s, start, now := streamArgs(args)
		f(t, s, start, now)
		return nil
	})
}

func (f TimerFunc) asTask() *Task {
	if f == nil {
		return NewTask(nil)
	}
	return NewTask(func(t *Task, args ...any) any {
		start, now := timerArgs(args)
		f(t, start, now)
		return nil
	})
}

func (f RepeatFunc) asTask() *Task {
	if f == nil {
		return NewTask(nil)
	}
	return NewTask(func(t *Task, args ...any) any {
		start, now := timerArgs(args)
		return f(t, start, now)
	})
}

func streamArgs(args []any) (s Stream, start, now Duration) {
	if len(args) > 0 {
		s, _ = args[0].(Stream)
	}
	if len(args) > 2 {
		start, _ = args[1].(Duration)
		now, _ = args[2].(Duration)
	}
	return
}

func timerArgs(args []any) (start, now Duration) {
	if len(args) > 1 {
		start, _ = args[0].(Duration)
		now, _ = args[1].(Duration)
	}
	return
}
