// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package coop

import (
	"cmp"
	"slices"
)

// Timer is an immutable scheduled callback: it becomes due once interval
// has elapsed since the since timestamp.
type Timer struct {
	job       Job
	interval  Duration
	since     Duration
	recurrent bool
}

// NewTimer returns a Timer that becomes due interval after since. Each time
// the timer fires, job is converted to a new task (a *Task job is reused
// as-is, so it is only suitable for one-shot timers).
func NewTimer(interval, since Duration, job Job, recurrent bool) Timer {
	return Timer{job: job, interval: interval, since: since, recurrent: recurrent}
}

// Interval returns the timer's interval.
func (t Timer) Interval() Duration { return t.interval }

// Since returns the timestamp the interval is measured from.
func (t Timer) Since() Duration { return t.since }

// IsRecurrent reports whether the timer is rescheduled after firing.
func (t Timer) IsRecurrent() bool { return t.recurrent }

// IsDue reports whether the interval has elapsed, as of now.
func (t Timer) IsDue(now Duration) bool {
	return now-t.since >= t.interval
}

// Left returns the time remaining until the timer is due, which is never
// negative.
func (t Timer) Left(now Duration) Duration {
	elapsed := min(max(now-t.since, 0), t.interval)
	return max(t.interval-elapsed, 0)
}

// WithSince returns a copy of the timer, measuring from since.
func (t Timer) WithSince(since Duration) Timer {
	t.since = since
	return t
}

func (t Timer) task() *Task {
	if t.job == nil {
		return NewTask(nil)
	}
	return t.job.asTask()
}

// TimerList is a collection of timers, ordered by Tick.
//
// Insertion does not sort; Top and Shift reflect the order established by
// the most recent Tick.
type TimerList struct {
	timers []Timer
}

// Add appends a timer.
func (l *TimerList) Add(t Timer) {
	l.timers = append(l.timers, t)
}

// Tick orders the timers by ascending time left as of now. The sort is
// stable, so timers with equal time left keep their insertion order.
func (l *TimerList) Tick(now Duration) {
	slices.SortStableFunc(l.timers, func(a, b Timer) int {
		return cmp.Compare(a.Left(now), b.Left(now))
	})
}

// IsEmpty reports whether the list holds no timers.
func (l *TimerList) IsEmpty() bool { return len(l.timers) == 0 }

// Len returns the number of timers.
func (l *TimerList) Len() int { return len(l.timers) }

// Top returns the head of the list, without removing it.
func (l *TimerList) Top() (Timer, error) {
	if len(l.timers) == 0 {
		return Timer{}, ErrTimerListEmpty
	}
	return l.timers[0], nil
}

// Shift removes and returns the head of the list.
func (l *TimerList) Shift() (Timer, error) {
	if len(l.timers) == 0 {
		return Timer{}, ErrTimerListEmpty
	}
	t := l.timers[0]
	l.timers[0] = Timer{}
	l.timers = l.timers[1:]
	return t, nil
}
