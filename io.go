// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package coop

import (
	"io"
)

// WhenReadable waits (as the calling task t) for s to become readable,
// then calls op, returning its result. If op reports that it would block,
// it is retried on the next readiness event.
//
// The operation runs in a one-shot subscription task, while t is parked,
// so the runtime may block in poll until the stream is ready.
func WhenReadable[R any](t *Task, s Stream, op func() (R, error)) (R, error) {
	return whenReady(t, s, false, op)
}

// WhenWritable is WhenReadable, for writability.
func WhenWritable[R any](t *Task, s Stream, op func() (R, error)) (R, error) {
	return whenReady(t, s, true, op)
}

func whenReady[R any](t *Task, s Stream, write bool, op func() (R, error)) (R, error) {
	var zero R
	if t == nil || t.rt == nil {
		return zero, ErrNotInTask
	}
	if t.state != TaskRunning || getGoroutineID() != t.gid {
		return zero, ErrForeignTask
	}
	rt := t.rt

	var (
		result R
		opErr  error
	)
	job := StreamFunc(func(st *Task, _ Stream, _, _ Duration) {
		defer rt.unpark(t)
		for {
			result, opErr = op()
			if !isWouldBlock(opErr) {
				return
			}
			if _, err := st.Suspend(nil); err != nil {
				opErr = err
				return
			}
		}
	})

	list := &rt.readers
	if write {
		list = &rt.writers
	}
	sub, err := rt.subscribe(list, s, job)
	if err != nil {
		return zero, err
	}

	rt.park(t)
	for !sub.task.IsTerminated() {
		if _, err := t.Suspend(nil); err != nil {
			rt.unpark(t)
			list.Remove(sub)
			return zero, err
		}
	}
	rt.unpark(t)
	return result, opErr
}

// Read waits for s to become readable, then performs a single read of at
// most n bytes. Streams implementing [io.Reader] are read using it.
func Read(t *Task, s Stream, n int) ([]byte, error) {
	buf := make([]byte, n)
	return WhenReadable(t, s, func() ([]byte, error) {
		var (
			c   int
			err error
		)
		if r, ok := s.(io.Reader); ok {
			c, err = r.Read(buf)
		} else {
			c, err = readFd(s.Fd(), buf)
		}
		return buf[:max(c, 0)], err
	})
}

// Write waits for s to become writable, and writes all of p, waiting again
// as necessary. Streams implementing [io.Writer] are written using it.
func Write(t *Task, s Stream, p []byte) (int, error) {
	var total int
	for total < len(p) {
		n, err := WhenWritable(t, s, func() (int, error) {
			if w, ok := s.(io.Writer); ok {
				return w.Write(p[total:])
			}
			return writeFd(s.Fd(), p[total:])
		})
		total += max(n, 0)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Accept waits for the listening socket l to become readable, then calls
// accept, e.g. coop.Accept(t, ln, ln.Accept).
func Accept[C any](t *Task, l Stream, accept func() (C, error)) (C, error) {
	return WhenReadable(t, l, accept)
}
