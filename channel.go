// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package coop

import (
	"iter"
	"slices"
)

// Channel is a rendezvous channel between tasks, holding at most one
// pending value. Send blocks (cooperatively) until the slot is free, which
// applies backpressure to producers.
//
// Blocked tasks are parked: the runtime will not resume them until the
// channel changes state. Channels must only be used by tasks driven by the
// same runtime.
type Channel[T any] struct {
	queue     []T
	senders   []*Task
	receivers []*Task
	closed    bool
}

// NewChannel returns a new, open channel.
func NewChannel[T any]() *Channel[T] {
	return &Channel[T]{}
}

// Send places v in the channel, first waiting for any pending value to be
// received. It must be called from within a task.
func (c *Channel[T]) Send(v T) error {
	t := Current()
	if t == nil {
		return ErrNotInTask
	}
	if c.closed {
		return ErrChannelClosed
	}
	for len(c.queue) != 0 {
		if err := c.wait(t, &c.senders); err != nil {
			return err
		}
		if c.closed {
			return ErrChannelClosed
		}
	}
	c.queue = append(c.queue, v)
	wakeAll(&c.receivers)
	return nil
}

// Receive waits for a value. It must be called from within a task.
// Values sent before Close are still delivered; once the channel is closed
// and drained, Receive returns ErrChannelClosed.
func (c *Channel[T]) Receive() (T, error) {
	var zero T
	t := Current()
	if t == nil {
		return zero, ErrNotInTask
	}
	for len(c.queue) == 0 && !c.closed {
		if err := c.wait(t, &c.receivers); err != nil {
			return zero, err
		}
	}
	if len(c.queue) == 0 {
		return zero, ErrChannelClosed
	}
	v := c.queue[0]
	c.queue[0] = zero
	c.queue = c.queue[1:]
	wakeAll(&c.senders)
	return v, nil
}

// Close closes the channel, waking every blocked task.
func (c *Channel[T]) Close() error {
	if c.closed {
		return ErrChannelAlreadyClosed
	}
	c.closed = true
	wakeAll(&c.receivers)
	wakeAll(&c.senders)
	return nil
}

// IsClosed reports whether Close has been called.
func (c *Channel[T]) IsClosed() bool { return c.closed }

// Len returns the number of pending values (zero or one).
func (c *Channel[T]) Len() int { return len(c.queue) }

// All returns an iterator receiving values until the channel is closed and
// drained. Like Receive, it must be ranged over from within a task.
func (c *Channel[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			v, err := c.Receive()
			if err != nil || !yield(v) {
				return
			}
		}
	}
}

func (c *Channel[T]) wait(t *Task, waiters *[]*Task) error {
	*waiters = append(*waiters, t)
	t.rt.park(t)
	_, err := t.Suspend(nil)
	if i := slices.Index(*waiters, t); i >= 0 {
		*waiters = slices.Delete(*waiters, i, i+1)
	}
	t.rt.unpark(t)
	return err
}

func wakeAll(waiters *[]*Task) {
	for _, t := range *waiters {
		t.rt.unpark(t)
	}
	clear(*waiters)
	*waiters = (*waiters)[:0]
}
