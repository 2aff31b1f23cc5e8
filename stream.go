// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package coop

import (
	"slices"
)

// Stream is a pollable I/O handle, identified by its file descriptor.
// An [*os.File] is a Stream.
// Streams that also implement [io.Reader] or [io.Writer] may be used with
// the Read and Write helpers.
type Stream interface {
	Fd() uintptr
}

// StreamSubscription pairs a stream with the task that waits on it.
type StreamSubscription struct {
	stream Stream
	task   *Task
	fd     uintptr
}

// NewStreamSubscription validates the stream and wraps job as a task.
// It fails with ErrInvalidDescriptor if the stream is nil, or does not
// refer to an open file descriptor.
func NewStreamSubscription(s Stream, job Job) (*StreamSubscription, error) {
	if s == nil {
		return nil, ErrInvalidDescriptor
	}
	fd := s.Fd()
	if !validFd(fd) {
		return nil, ErrInvalidDescriptor
	}
	var t *Task
	if job != nil {
		t = job.asTask()
	} else {
		t = NewTask(nil)
	}
	return &StreamSubscription{stream: s, task: t, fd: fd}, nil
}

// Stream returns the subscribed stream.
func (s *StreamSubscription) Stream() Stream { return s.stream }

// Task returns the subscribed task.
func (s *StreamSubscription) Task() *Task { return s.task }

// Fd returns the descriptor captured when the subscription was created.
func (s *StreamSubscription) Fd() uintptr { return s.fd }

// SubscriptionList groups subscriptions into per-descriptor buckets, each
// kept in registration order. Empty buckets are dropped.
type SubscriptionList struct {
	buckets map[uintptr][]*StreamSubscription
	// order holds the bucket keys, in first-registration order
	order []uintptr
	count int
}

// Add registers a subscription, at the end of its stream's bucket.
func (l *SubscriptionList) Add(sub *StreamSubscription) {
	if l.buckets == nil {
		l.buckets = make(map[uintptr][]*StreamSubscription)
	}
	bucket, ok := l.buckets[sub.fd]
	if !ok {
		l.order = append(l.order, sub.fd)
	}
	l.buckets[sub.fd] = append(bucket, sub)
	l.count++
}

// Remove unregisters a subscription, by identity, reporting whether it was
// found.
func (l *SubscriptionList) Remove(sub *StreamSubscription) bool {
	bucket, ok := l.buckets[sub.fd]
	if !ok {
		return false
	}
	i := slices.Index(bucket, sub)
	if i < 0 {
		return false
	}
	bucket = slices.Delete(bucket, i, i+1)
	l.count--
	if len(bucket) != 0 {
		l.buckets[sub.fd] = bucket
		return true
	}
	delete(l.buckets, sub.fd)
	if j := slices.Index(l.order, sub.fd); j >= 0 {
		l.order = slices.Delete(l.order, j, j+1)
	}
	return true
}

// ForStream returns a snapshot of the subscriptions on s, in registration
// order.
func (l *SubscriptionList) ForStream(s Stream) []*StreamSubscription {
	if s == nil {
		return nil
	}
	return l.forFd(s.Fd())
}

func (l *SubscriptionList) forFd(fd uintptr) []*StreamSubscription {
	return slices.Clone(l.buckets[fd])
}

// AsStreams returns one stream per distinct descriptor, in
// first-registration order.
func (l *SubscriptionList) AsStreams() []Stream {
	streams := make([]Stream, 0, len(l.order))
	for _, fd := range l.order {
		streams = append(streams, l.buckets[fd][0].stream)
	}
	return streams
}

// fds returns the distinct descriptors, in first-registration order.
func (l *SubscriptionList) fds() []uintptr {
	return slices.Clone(l.order)
}

// pollable drops subscriptions whose task has terminated, then returns the
// descriptors with at least one task that may be resumed, in
// first-registration order.
func (l *SubscriptionList) pollable(runnable func(*Task) bool) []uintptr {
	var fds []uintptr
	for _, fd := range l.fds() {
		var ok bool
		for _, sub := range l.forFd(fd) {
			switch {
			case sub.task.IsTerminated():
				l.Remove(sub)
			case !ok && runnable(sub.task):
				ok = true
			}
		}
		if ok {
			fds = append(fds, fd)
		}
	}
	return fds
}

// IsEmpty reports whether the list holds no subscriptions.
func (l *SubscriptionList) IsEmpty() bool { return l.count == 0 }

// Len returns the total number of subscriptions.
func (l *SubscriptionList) Len() int { return l.count }
