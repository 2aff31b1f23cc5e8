//go:build linux || darwin || freebsd || netbsd || openbsd

// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package coop

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/joeycumines/logiface"
)

func TestUnixPoller_readiness(t *testing.T) {
	p, err := NewPoller()
	if err != nil {
		t.Fatalf("NewPoller() failed: %v", err)
	}
	defer p.Close()
	r, w := newPipe(t)

	readyRead, readyWrite, err := p.Poll([]uintptr{r.Fd()}, []uintptr{w.Fd()}, 0, false)
	if err != nil {
		t.Fatalf("Poll() failed: %v", err)
	}
	if len(readyRead) != 0 {
		t.Fatalf("expected nothing readable, got %v", readyRead)
	}
	if !slices.Equal(readyWrite, []uintptr{w.Fd()}) {
		t.Fatalf("expected writable pipe, got %v", readyWrite)
	}

	if _, err := w.Write([]byte("x")); err != nil {
		t.Fatal(err)
	}
	readyRead, _, err = p.Poll([]uintptr{r.Fd()}, nil, Milliseconds(1000), false)
	if err != nil {
		t.Fatalf("Poll() failed: %v", err)
	}
	if !slices.Equal(readyRead, []uintptr{r.Fd()}) {
		t.Fatalf("expected readable pipe, got %v", readyRead)
	}
}

func TestUnixPoller_wake(t *testing.T) {
	p, err := NewPoller()
	if err != nil {
		t.Fatalf("NewPoller() failed: %v", err)
	}
	defer p.Close()
	r, _ := newPipe(t)

	timer := time.AfterFunc(20*time.Millisecond, func() { _ = p.Wake() })
	defer timer.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		readyRead, _, err := p.Poll([]uintptr{r.Fd()}, nil, 0, true)
		if err != nil || len(readyRead) != 0 {
			t.Errorf("unexpected poll result: %v, %v", readyRead, err)
		}
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Wake did not interrupt Poll")
	}

	// a wake with no poll in progress is consumed by the next poll
	if err := p.Wake(); err != nil {
		t.Fatalf("Wake() failed: %v", err)
	}
	if _, _, err := p.Poll(nil, nil, 0, true); err != nil {
		t.Fatalf("Poll() failed: %v", err)
	}
}

func TestUnixPoller_closed(t *testing.T) {
	p, err := NewPoller()
	if err != nil {
		t.Fatalf("NewPoller() failed: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second Close() failed: %v", err)
	}
	if _, _, err := p.Poll(nil, nil, 0, false); err == nil {
		t.Fatal("expected error polling a closed poller")
	}
	if err := p.Wake(); err == nil {
		t.Fatal("expected error waking a closed poller")
	}
}

// scriptedPoller reports readiness according to a function of the poll
// number, starting from 1.
type scriptedPoller struct {
	script func(n int, read, write []uintptr) ([]uintptr, []uintptr, error)
	polls  int
	closed bool
}

func (p *scriptedPoller) Poll(read, write []uintptr, _ Duration, _ bool) ([]uintptr, []uintptr, error) {
	p.polls++
	return p.script(p.polls, read, write)
}

func (p *scriptedPoller) Wake() error { return nil }

func (p *scriptedPoller) Close() error {
	p.closed = true
	return nil
}

func allReady(_ int, read, write []uintptr) ([]uintptr, []uintptr, error) {
	return read, write, nil
}

func TestRuntime_dispatchesSubscribersInOrder(t *testing.T) {
	r, _ := newPipe(t)
	p := &scriptedPoller{script: allReady}
	rt, _, _ := newTestRuntime(t, WithPoller(p))

	var order []string
	for _, name := range []string{"first", "second"} {
		_, err := rt.OnStreamReadable(r, StreamFunc(func(_ *Task, s Stream, _, _ Duration) {
			if s != Stream(r) {
				t.Errorf("unexpected stream: %v", s)
			}
			order = append(order, name)
		}))
		if err != nil {
			t.Fatalf("OnStreamReadable() failed: %v", err)
		}
	}

	if err := rt.Run(context.Background()); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if !slices.Equal(order, []string{"first", "second"}) {
		t.Fatalf("unexpected order: %v", order)
	}
	if p.polls != 1 {
		t.Fatalf("expected 1 poll, got %d", p.polls)
	}
	if err := rt.Close(); err != nil {
		t.Fatal(err)
	}
	if p.closed {
		t.Fatal("a supplied poller must not be closed by the runtime")
	}
}

func TestRuntime_subscriptionResumedOnEachReadiness(t *testing.T) {
	r, w := newPipe(t)
	p := &scriptedPoller{script: allReady}
	rt, _, _ := newTestRuntime(t, WithPoller(p))

	var steps int
	_, err := rt.OnStreamWritable(w, StreamFunc(func(t *Task, _ Stream, _, _ Duration) {
		for {
			steps++
			if steps == 3 {
				return
			}
			_ = t.Yield()
		}
	}))
	if err != nil {
		t.Fatalf("OnStreamWritable() failed: %v", err)
	}
	sub, err := rt.OnSocketReadable(r, nil)
	if err != nil {
		t.Fatalf("OnSocketReadable() failed: %v", err)
	}
	if !rt.Unsubscribe(sub) || rt.Unsubscribe(sub) {
		t.Fatal("unexpected Unsubscribe results")
	}

	if err := rt.Run(context.Background()); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if steps != 3 || p.polls != 3 {
		t.Fatalf("unexpected steps=%d polls=%d", steps, p.polls)
	}
}

func TestRuntime_maxPollEvents(t *testing.T) {
	r1, _ := newPipe(t)
	r2, _ := newPipe(t)
	p := &scriptedPoller{script: allReady}
	rt, _, _ := newTestRuntime(t, WithPoller(p), WithMaxPollEvents(1), WithMetrics(true))

	var order []string
	for _, s := range []struct {
		name   string
		stream Stream
	}{{"r1", r1}, {"r2", r2}} {
		if _, err := rt.OnStreamReadable(s.stream, StreamFunc(func(*Task, Stream, Duration, Duration) {
			order = append(order, s.name)
		})); err != nil {
			t.Fatalf("OnStreamReadable() failed: %v", err)
		}
	}

	if err := rt.Run(context.Background()); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if !slices.Equal(order, []string{"r1", "r2"}) {
		t.Fatalf("unexpected order: %v", order)
	}
	m := rt.Metrics()
	if m.Polls != 2 || m.ReadyDescriptors != 3 {
		t.Fatalf("unexpected poll metrics: polls=%d ready=%d", m.Polls, m.ReadyDescriptors)
	}
}

func TestRuntime_pollError(t *testing.T) {
	r, _ := newPipe(t)
	cause := errors.New("poll exploded")
	p := &scriptedPoller{script: func(int, []uintptr, []uintptr) ([]uintptr, []uintptr, error) {
		return nil, nil, cause
	}}
	var logs bytes.Buffer
	rt, _, _ := newTestRuntime(t, WithPoller(p), WithLogger(newBufferLogger(&logs, logiface.LevelCritical)))
	if _, err := rt.OnStreamReadable(r, nil); err != nil {
		t.Fatalf("OnStreamReadable() failed: %v", err)
	}

	err := rt.Run(context.Background())
	var pollErr *PollError
	if !errors.As(err, &pollErr) || !errors.Is(err, cause) {
		t.Fatalf("expected *PollError wrapping the cause, got %v", err)
	}
	if !bytes.Contains(logs.Bytes(), []byte("stream poll failed")) {
		t.Fatalf("expected crit log, got %q", logs.String())
	}
}

func TestRuntime_subscribeInvalidStream(t *testing.T) {
	rt, _, _ := newTestRuntime(t)
	if _, err := rt.OnStreamReadable(nil, nil); !errors.Is(err, ErrInvalidDescriptor) {
		t.Fatalf("expected ErrInvalidDescriptor, got %v", err)
	}
	if _, err := rt.OnStreamWritable(fakeStream(^uintptr(0)), nil); !errors.Is(err, ErrInvalidDescriptor) {
		t.Fatalf("expected ErrInvalidDescriptor, got %v", err)
	}
}

func TestRuntime_delayedSubscriberLeavesPollSet(t *testing.T) {
	r, w := newPipe(t)
	if _, err := w.Write([]byte("x")); err != nil {
		t.Fatal(err)
	}
	rt, clock, _ := newTestRuntime(t, WithMetrics(true))

	var got []byte
	_, err := rt.OnStreamReadable(r, StreamFunc(func(t *Task, _ Stream, _, _ Duration) {
		if err := t.Delay(Milliseconds(100)); err != nil {
			panic(err)
		}
		buf := make([]byte, 1)
		n, _ := r.Read(buf)
		got = buf[:n]
	}))
	if err != nil {
		t.Fatalf("OnStreamReadable() failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rt.Run(ctx); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if string(got) != "x" {
		t.Fatalf("unexpected read: %q", got)
	}
	if now := clock.Now(); now != Milliseconds(100) {
		t.Fatalf("expected the clock to advance to 100ms, got %v", now)
	}
	if m := rt.Metrics(); m.Polls != 1 || m.Cycles > 5 {
		t.Fatalf("unexpected metrics: polls=%d cycles=%d", m.Polls, m.Cycles)
	}
}

func TestRuntime_parkedSubscriberLeavesPollSet(t *testing.T) {
	r, w := newPipe(t)
	if _, err := w.Write([]byte("x")); err != nil {
		t.Fatal(err)
	}
	rt, clock, _ := newTestRuntime(t, WithMetrics(true))
	ch := NewChannel[string]()

	var got string
	_, err := rt.OnStreamReadable(r, StreamFunc(func(*Task, Stream, Duration, Duration) {
		v, err := ch.Receive()
		if err != nil {
			panic(err)
		}
		got = v
	}))
	if err != nil {
		t.Fatalf("OnStreamReadable() failed: %v", err)
	}
	rt.Defer(Milliseconds(50), func(*Task, Duration, Duration) {
		if err := ch.Send("hello"); err != nil {
			panic(err)
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rt.Run(ctx); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if got != "hello" {
		t.Fatalf("unexpected value: %q", got)
	}
	if now := clock.Now(); now != Milliseconds(50) {
		t.Fatalf("expected the clock to advance to 50ms, got %v", now)
	}
	if m := rt.Metrics(); m.Polls != 2 || m.Cycles > 6 {
		t.Fatalf("unexpected metrics: polls=%d cycles=%d", m.Polls, m.Cycles)
	}
}

func TestRuntime_parkedSubscriberDeadlock(t *testing.T) {
	r, w := newPipe(t)
	if _, err := w.Write([]byte("x")); err != nil {
		t.Fatal(err)
	}
	rt, _, _ := newTestRuntime(t)
	ch := NewChannel[int]()
	if _, err := rt.OnStreamReadable(r, StreamFunc(func(*Task, Stream, Duration, Duration) {
		_, _ = ch.Receive()
	})); err != nil {
		t.Fatalf("OnStreamReadable() failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rt.Run(ctx); !errors.Is(err, ErrDeadlock) {
		t.Fatalf("expected ErrDeadlock, got %v", err)
	}
}
