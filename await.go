// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package coop

// Yield suspends the task until the next time it is resumed, giving other
// tasks a chance to run. It must be called from the task's own goroutine.
func (t *Task) Yield() error {
	if t == nil {
		return ErrNotInTask
	}
	_, err := t.Suspend(nil)
	return err
}

// Delay suspends the task for at least d. It must be called from the
// task's own goroutine, and the task must belong to a runtime.
func (t *Task) Delay(d Duration) error {
	if t == nil || t.rt == nil {
		return ErrNotInTask
	}
	return t.rt.Delay(t, d)
}

// Spawn adds a routine to the task's runtime, yielding once, see
// Runtime.Spawn.
func (t *Task) Spawn(fn Func, args ...any) (*Task, error) {
	if t == nil || t.rt == nil {
		return nil, ErrNotInTask
	}
	return t.rt.Spawn(fn, args...), nil
}

// Await suspends the task until other terminates, returning its result.
//
// If other does not belong to any of the runtime's queues, subscriptions or
// timers, the awaiting task drives it, starting or resuming it once per
// resumption of the awaiting task. Otherwise it is left to the runtime, and
// the awaiting task is parked until other makes progress.
func (t *Task) Await(other *Task) (any, error) {
	if t == nil {
		return nil, ErrNotInTask
	}
	if other == t {
		return nil, ErrAwaitSelf
	}
	if t.state != TaskRunning || getGoroutineID() != t.gid {
		return nil, ErrForeignTask
	}
	tasks := []*Task{other}
	for {
		pending, drivable := t.drive(tasks)
		if !pending {
			return other.Result(), nil
		}
		if err := t.waitOn(tasks, drivable); err != nil {
			return nil, err
		}
	}
}

// drive advances each of the unowned, unterminated tasks once. It reports
// whether any task is still pending, and whether any of those may be driven
// again without waiting on the runtime.
func (t *Task) drive(tasks []*Task) (pending, drivable bool) {
	for _, other := range tasks {
		if other.IsTerminated() {
			continue
		}
		if !other.owned {
			if other.rt == nil {
				other.rt = t.rt
			}
			if other.rt.runnable(other) {
				other.advance()
			}
		}
		if other.IsTerminated() {
			continue
		}
		pending = true
		if !other.owned && other.rt.runnable(other) {
			drivable = true
		}
	}
	return
}

// waitOn suspends t until it may make progress on tasks. Unless one of them
// is drivable, t is parked until one of them is stepped or unparked.
func (t *Task) waitOn(tasks []*Task, drivable bool) error {
	if drivable {
		_, err := t.Suspend(nil)
		return err
	}
	for _, other := range tasks {
		if !other.IsTerminated() {
			other.waiters = append(other.waiters, t)
		}
	}
	t.rt.park(t)
	_, err := t.Suspend(nil)
	t.rt.unpark(t)
	for _, other := range tasks {
		other.removeWaiter(t)
	}
	return err
}

// Yield is Task.Yield, for the calling task.
func Yield() error {
	return Current().Yield()
}

// Await is Task.Await, for the calling task.
func Await(other *Task) (any, error) {
	return Current().Await(other)
}

// All returns a task that drives each of tasks, round-robin, until all of
// them have terminated, yielding between rounds. Its result is a []any of
// their results, in order.
//
// Tasks owned by a runtime are awaited, but not driven.
func All(tasks ...*Task) *Task {
	return NewTask(func(t *Task, _ ...any) any {
		for {
			pending, drivable := t.drive(tasks)
			if !pending {
				break
			}
			if err := t.waitOn(tasks, drivable); err != nil {
				break
			}
		}
		results := make([]any, len(tasks))
		for i, other := range tasks {
			results[i] = other.Result()
		}
		return results
	})
}
