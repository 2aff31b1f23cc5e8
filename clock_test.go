// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package coop

import (
	"math"
	"testing"
	"time"
)

func TestMonotonicClock_nonDecreasing(t *testing.T) {
	c := NewMonotonicClock()
	prev := c.Now()
	if prev < 0 {
		t.Fatalf("expected non-negative reading, got %v", prev)
	}
	for range 1000 {
		now := c.Now()
		if now < prev {
			t.Fatalf("clock went backwards: %v -> %v", prev, now)
		}
		prev = now
	}
	time.Sleep(time.Millisecond)
	if c.Now() < Milliseconds(1) {
		t.Fatal("expected at least 1ms to have elapsed")
	}
}

func TestFakeClock(t *testing.T) {
	c := NewFakeClock(Milliseconds(10))
	if got := c.Now(); got != Milliseconds(10) {
		t.Fatalf("unexpected start: %v", got)
	}
	c.Advance(Milliseconds(5))
	c.Advance(-Milliseconds(100))
	if got := c.Now(); got != Milliseconds(15) {
		t.Fatalf("unexpected after advance: %v", got)
	}
	c.Set(Milliseconds(12))
	if got := c.Now(); got != Milliseconds(15) {
		t.Fatalf("Set moved the clock backwards: %v", got)
	}
	c.Set(Milliseconds(20))
	c.Sleep(Milliseconds(30))
	if got := c.Now(); got != Milliseconds(50) {
		t.Fatalf("unexpected after sleep: %v", got)
	}
}

func TestFakeClock_advanceSaturates(t *testing.T) {
	c := NewFakeClock(Seconds(1))
	c.Sleep(Seconds(int64(1) << 40))
	if got := c.Now(); got != math.MaxInt64 {
		t.Fatalf("expected the clock to stop at the largest duration, got %v", got)
	}
	c.Advance(1)
	if got := c.Now(); got != math.MaxInt64 {
		t.Fatalf("clock wrapped: %v", got)
	}
}
