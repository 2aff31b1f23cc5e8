// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package coop

import (
	"slices"
	"sync"
	"time"
)

// Metrics is a snapshot of runtime statistics, see Runtime.Metrics.
//
// Example:
//
//	rt, _ := coop.New(coop.WithMetrics(true))
//	_ = rt.Run(ctx)
//	m := rt.Metrics()
//	fmt.Printf("cycles: %d, P99 resume: %v\n", m.Cycles, m.Latency.P99)
type Metrics struct {
	// Latency is the distribution of the time taken by each task resumption,
	// i.e. the time a task ran before its next suspension point.
	Latency LatencyMetrics

	// Queue holds the registry sizes, as of the end of the last cycle.
	Queue QueueMetrics

	// Cycles is the number of main loop iterations.
	Cycles uint64
	// Resumes is the number of times a task was started or resumed by the loop.
	Resumes uint64
	// TimersFired is the number of timer callbacks started.
	TimersFired uint64
	// Polls is the number of completed readiness polls.
	Polls uint64
	// ReadyDescriptors is the total number of ready descriptors reported by
	// all polls.
	ReadyDescriptors uint64
	// IdleSleeps is the number of times the loop slept, waiting on a timer.
	IdleSleeps uint64
}

// LatencyMetrics summarizes a rolling window of latency samples.
type LatencyMetrics struct {
	P50     time.Duration
	P90     time.Duration
	P99     time.Duration
	Max     time.Duration
	Mean    time.Duration
	Samples int
}

// QueueMetrics holds registry sizes.
type QueueMetrics struct {
	Ready         int
	Routines      int
	Timers        int
	Subscriptions int
	Delayed       int
	Parked        int
}

// sampleSize is the maximum number of latency samples to retain.
const sampleSize = 1000

// metricsCollector is nil when metrics are disabled, and all of its methods
// are nil-safe. It is written by the loop, and may be read from any
// goroutine.
type metricsCollector struct {
	mu          sync.Mutex
	m           Metrics
	samples     [sampleSize]time.Duration
	sum         time.Duration
	sampleIdx   int
	sampleCount int
}

func (c *metricsCollector) cycle() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.m.Cycles++
	c.mu.Unlock()
}

func (c *metricsCollector) resumed(d time.Duration) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m.Resumes++
	if c.sampleCount >= sampleSize {
		c.sum -= c.samples[c.sampleIdx]
	}
	c.samples[c.sampleIdx] = d
	c.sum += d
	c.sampleIdx++
	if c.sampleIdx >= sampleSize {
		c.sampleIdx = 0
	}
	if c.sampleCount < sampleSize {
		c.sampleCount++
	}
}

func (c *metricsCollector) timerFired() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.m.TimersFired++
	c.mu.Unlock()
}

func (c *metricsCollector) polled(ready int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.m.Polls++
	c.m.ReadyDescriptors += uint64(ready)
	c.mu.Unlock()
}

func (c *metricsCollector) slept() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.m.IdleSleeps++
	c.mu.Unlock()
}

func (c *metricsCollector) queues(q QueueMetrics) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.m.Queue = q
	c.mu.Unlock()
}

// snapshot returns a copy of the metrics, with the latency percentiles
// computed from the current sample window.
func (c *metricsCollector) snapshot() Metrics {
	if c == nil {
		return Metrics{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	m := c.m
	if n := c.sampleCount; n > 0 {
		sorted := slices.Clone(c.samples[:n])
		slices.Sort(sorted)
		m.Latency = LatencyMetrics{
			P50:     sorted[percentileIndex(n, 50)],
			P90:     sorted[percentileIndex(n, 90)],
			P99:     sorted[percentileIndex(n, 99)],
			Max:     sorted[n-1],
			Mean:    c.sum / time.Duration(n),
			Samples: n,
		}
	}
	return m
}

// percentileIndex computes the index for a given percentile (0-100).
func percentileIndex(n, p int) int {
	index := (p * n) / 100
	if index >= n {
		return n - 1
	}
	return index
}
