// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package coop

import (
	"math"
	"sync"
	"time"
)

// Clock supplies monotonic, non-decreasing timestamps.
type Clock interface {
	Now() Duration
}

// Sleeper may optionally be implemented by a Clock, in which case the
// runtime will use it to wait out idle periods, instead of a real timer.
// This is what makes FakeClock deterministic.
type Sleeper interface {
	Sleep(d Duration)
}

// MonotonicClock measures time elapsed since its anchor, using the monotonic
// reading carried by [time.Time].
type MonotonicClock struct {
	anchor time.Time
}

// NewMonotonicClock returns a MonotonicClock anchored at the current instant.
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{anchor: time.Now()}
}

// Now implements Clock.
func (c *MonotonicClock) Now() Duration {
	// time.Since uses the monotonic clock, so wall-clock adjustments are ignored
	return Duration(time.Since(c.anchor))
}

// FakeClock is a manually advanced Clock, for deterministic tests.
// It implements Sleeper, by advancing itself.
type FakeClock struct {
	mu  sync.Mutex
	now Duration
}

// NewFakeClock returns a FakeClock starting at now.
func NewFakeClock(now Duration) *FakeClock {
	return &FakeClock{now: now}
}

// Now implements Clock.
func (c *FakeClock) Now() Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d, ignoring negative values. The clock
// stops at the largest Duration.
func (c *FakeClock) Advance(d Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	if c.now > math.MaxInt64-d {
		c.now = math.MaxInt64
	} else {
		c.now += d
	}
	c.mu.Unlock()
}

// Set moves the clock to now, if it is not in the past.
func (c *FakeClock) Set(now Duration) {
	c.mu.Lock()
	if now > c.now {
		c.now = now
	}
	c.mu.Unlock()
}

// Sleep implements Sleeper.
func (c *FakeClock) Sleep(d Duration) { c.Advance(d) }
