//go:build linux || darwin || freebsd || netbsd || openbsd

// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package coop

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPipe(t *testing.T) (r, w *os.File) {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe() failed: %v", err)
	}
	t.Cleanup(func() {
		_ = r.Close()
		_ = w.Close()
	})
	return r, w
}

func TestNewStreamSubscription_invalid(t *testing.T) {
	_, err := NewStreamSubscription(nil, nil)
	assert.ErrorIs(t, err, ErrInvalidDescriptor)

	r, w, err := os.Pipe()
	require.NoError(t, err)
	fd := r.Fd()
	_ = w.Close()
	_ = r.Close()
	_, err = NewStreamSubscription(fakeStream(fd), nil)
	assert.ErrorIs(t, err, ErrInvalidDescriptor)
	assert.ErrorIs(t, err, ErrUsage)
}

func TestNewStreamSubscription_nilJob(t *testing.T) {
	r, _ := newPipe(t)
	sub, err := NewStreamSubscription(r, nil)
	require.NoError(t, err)
	assert.Equal(t, r.Fd(), sub.Fd())
	assert.Equal(t, Stream(r), sub.Stream())
	require.NotNil(t, sub.Task())
	assert.Equal(t, TaskCreated, sub.Task().State())
}

func TestSubscriptionList(t *testing.T) {
	r1, w1 := newPipe(t)
	r2, _ := newPipe(t)

	var l SubscriptionList
	assert.True(t, l.IsEmpty())
	assert.Empty(t, l.AsStreams())

	subs := make([]*StreamSubscription, 0, 4)
	for _, s := range []Stream{r1, r2, r1, w1} {
		sub, err := NewStreamSubscription(s, nil)
		require.NoError(t, err)
		l.Add(sub)
		subs = append(subs, sub)
	}
	assert.Equal(t, 4, l.Len())
	assert.Equal(t, []Stream{r1, r2, w1}, l.AsStreams())
	assert.Equal(t, []*StreamSubscription{subs[0], subs[2]}, l.ForStream(r1))
	assert.Nil(t, l.ForStream(nil))

	assert.True(t, l.Remove(subs[0]))
	assert.False(t, l.Remove(subs[0]))
	assert.Equal(t, []*StreamSubscription{subs[2]}, l.ForStream(r1))
	assert.Equal(t, []Stream{r1, r2, w1}, l.AsStreams())

	assert.True(t, l.Remove(subs[2]))
	assert.Empty(t, l.ForStream(r1))
	assert.Equal(t, []Stream{r2, w1}, l.AsStreams())
	assert.Equal(t, []uintptr{r2.Fd(), w1.Fd()}, l.fds())

	assert.True(t, l.Remove(subs[1]))
	assert.True(t, l.Remove(subs[3]))
	assert.True(t, l.IsEmpty())
	assert.Equal(t, 0, l.Len())
}
