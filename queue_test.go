// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package coop

import (
	"testing"
)

func TestTaskQueue_fifoAcrossChunks(t *testing.T) {
	var q taskQueue
	const n = queueChunkSize*3 + 5
	tasks := make([]*Task, n)
	for i := range tasks {
		tasks[i] = NewTask(nil)
		q.Push(tasks[i])
	}
	if q.Len() != n {
		t.Fatalf("expected len %d, got %d", n, q.Len())
	}

	var seen int
	q.Each(func(task *Task) bool {
		if task != tasks[seen] {
			t.Fatalf("Each out of order at %d", seen)
		}
		seen++
		return true
	})
	if seen != n {
		t.Fatalf("Each visited %d of %d", seen, n)
	}

	for i := range tasks {
		task, ok := q.Pop()
		if !ok {
			t.Fatalf("Pop failed at %d", i)
		}
		if task != tasks[i] {
			t.Fatalf("Pop out of order at %d", i)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("expected empty queue")
	}
	if q.Len() != 0 {
		t.Fatalf("expected len 0, got %d", q.Len())
	}
}

func TestTaskQueue_interleaved(t *testing.T) {
	var q taskQueue
	a, b, c := NewTask(nil), NewTask(nil), NewTask(nil)
	q.Push(a)
	q.Push(b)
	if got, _ := q.Pop(); got != a {
		t.Fatal("expected a")
	}
	q.Push(c)
	q.Push(a)
	for _, want := range []*Task{b, c, a} {
		if got, _ := q.Pop(); got != want {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestTaskQueue_eachStops(t *testing.T) {
	var q taskQueue
	for range 10 {
		q.Push(NewTask(nil))
	}
	var calls int
	q.Each(func(*Task) bool {
		calls++
		return calls < 3
	})
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}
