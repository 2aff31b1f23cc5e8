// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package coop

import (
	"sync"
)

// queueChunkSize is the number of tasks per node in the taskQueue linked list.
const queueChunkSize = 64

// taskQueue is a chunked linked-list FIFO of tasks, backing the ready queue.
//
// Thread Safety: This struct is NOT thread-safe. It is only accessed by
// whichever goroutine holds the runtime's hand-off token.
type taskQueue struct {
	head   *queueChunk
	tail   *queueChunk
	length int
}

var queueChunkPool = sync.Pool{
	New: func() any {
		return &queueChunk{}
	},
}

// queueChunk uses readPos/pos cursors for O(1) push/pop without shifting.
type queueChunk struct {
	tasks   [queueChunkSize]*Task
	next    *queueChunk
	readPos int
	pos     int
}

func newQueueChunk() *queueChunk {
	c := queueChunkPool.Get().(*queueChunk)
	c.pos = 0
	c.readPos = 0
	c.next = nil
	return c
}

func returnQueueChunk(c *queueChunk) {
	clear(c.tasks[:c.pos])
	c.pos = 0
	c.readPos = 0
	c.next = nil
	queueChunkPool.Put(c)
}

// Push adds a task to the tail of the queue.
func (q *taskQueue) Push(t *Task) {
	if q.tail == nil {
		q.tail = newQueueChunk()
		q.head = q.tail
	}
	if q.tail.pos == len(q.tail.tasks) {
		next := newQueueChunk()
		q.tail.next = next
		q.tail = next
	}
	q.tail.tasks[q.tail.pos] = t
	q.tail.pos++
	q.length++
}

// Pop removes and returns the task at the head of the queue, returning
// false if the queue is empty.
func (q *taskQueue) Pop() (*Task, bool) {
	if q.head == nil || q.length == 0 {
		return nil, false
	}
	if q.head.readPos >= q.head.pos {
		old := q.head
		q.head = q.head.next
		returnQueueChunk(old)
	}
	t := q.head.tasks[q.head.readPos]
	q.head.tasks[q.head.readPos] = nil
	q.head.readPos++
	q.length--
	if q.head.readPos >= q.head.pos {
		if q.head == q.tail {
			q.head.pos = 0
			q.head.readPos = 0
		} else {
			old := q.head
			q.head = q.head.next
			returnQueueChunk(old)
		}
	}
	return t, true
}

// Len returns the number of queued tasks.
func (q *taskQueue) Len() int { return q.length }

// Each calls fn for each queued task, head first, stopping early if fn
// returns false.
func (q *taskQueue) Each(fn func(t *Task) bool) {
	for c := q.head; c != nil; c = c.next {
		for i := c.readPos; i < c.pos; i++ {
			if !fn(c.tasks[i]) {
				return
			}
		}
	}
}
