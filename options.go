// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package coop

import (
	"errors"
	"io"
	"os"

	"github.com/joeycumines/logiface"
)

// runtimeOptions holds configuration options for Runtime creation.
type runtimeOptions struct {
	clock          Clock
	poller         Poller
	logger         *logiface.Logger[logiface.Event]
	traceWriter    io.Writer
	maxPollEvents  int
	metricsEnabled bool
}

// RuntimeOption configures a Runtime instance.
type RuntimeOption interface {
	applyRuntime(*runtimeOptions) error
}

// runtimeOptionImpl implements RuntimeOption.
type runtimeOptionImpl struct {
	applyRuntimeFunc func(*runtimeOptions) error
}

func (r *runtimeOptionImpl) applyRuntime(opts *runtimeOptions) error {
	return r.applyRuntimeFunc(opts)
}

// WithClock sets the time source. Defaults to a MonotonicClock created by
// New. If the clock implements Sleeper, idle periods are waited out using
// it, which is how FakeClock makes a Runtime deterministic.
func WithClock(clock Clock) RuntimeOption {
	return &runtimeOptionImpl{func(opts *runtimeOptions) error {
		if clock == nil {
			return errors.New("coop: clock must not be nil")
		}
		opts.clock = clock
		return nil
	}}
}

// WithPoller sets the readiness poller. By default, the platform poller is
// created on first use, i.e. when a stream subscription is first polled.
// A poller set using this option is not closed by Runtime.Close.
func WithPoller(poller Poller) RuntimeOption {
	return &runtimeOptionImpl{func(opts *runtimeOptions) error {
		opts.poller = poller
		return nil
	}}
}

// WithLogger sets the structured logger. A nil logger disables logging,
// which is the default.
func WithLogger(logger *logiface.Logger[logiface.Event]) RuntimeOption {
	return &runtimeOptionImpl{func(opts *runtimeOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithTraceWriter sets the destination of Runtime.Tracef. Defaults to
// [os.Stdout].
func WithTraceWriter(w io.Writer) RuntimeOption {
	return &runtimeOptionImpl{func(opts *runtimeOptions) error {
		if w == nil {
			w = io.Discard
		}
		opts.traceWriter = w
		return nil
	}}
}

// WithMetrics enables runtime metrics collection.
// When enabled, metrics can be accessed via Runtime.Metrics.
func WithMetrics(enabled bool) RuntimeOption {
	return &runtimeOptionImpl{func(opts *runtimeOptions) error {
		opts.metricsEnabled = enabled
		return nil
	}}
}

// WithMaxPollEvents caps the number of ready descriptors dispatched per
// cycle. Descriptors over the limit are picked up by the next poll, since
// readiness is level-triggered. Zero (the default) means unlimited.
func WithMaxPollEvents(n int) RuntimeOption {
	return &runtimeOptionImpl{func(opts *runtimeOptions) error {
		if n < 0 {
			return errors.New("coop: max poll events must not be negative")
		}
		opts.maxPollEvents = n
		return nil
	}}
}

// resolveRuntimeOptions applies RuntimeOption instances to runtimeOptions.
func resolveRuntimeOptions(opts []RuntimeOption) (*runtimeOptions, error) {
	cfg := &runtimeOptions{
		traceWriter: os.Stdout,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyRuntime(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.clock == nil {
		cfg.clock = NewMonotonicClock()
	}
	return cfg, nil
}
