// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package coop provides a cooperative, single-threaded task runtime: a
// userland scheduler that multiplexes many tasks over one logical thread of
// execution, using explicit suspension points, monotonic timers, and
// readiness-based I/O polling.
//
// # Architecture
//
// A [Task] is a coroutine. Each task is backed by a goroutine, but control is
// handed back and forth over unbuffered channels, so exactly one of the
// [Runtime] loop and its tasks executes at any instant. Tasks suspend at
// [Task.Yield], [Task.Delay], [Task.Await], [Channel.Send],
// [Channel.Receive], and the I/O helpers ([Read], [Write], [Accept]).
//
// Each cycle of [Runtime.Run]:
//   - samples the [Clock]
//   - resumes the first runnable task of the ready queue, then every
//     runnable routine (see [Runtime.Spawn])
//   - fires at most one due timer (see [Runtime.Defer], [Runtime.Repeat])
//   - polls the subscribed streams, resuming every task waiting on each
//     ready descriptor, in registration order
//   - sleeps until the nearest timer, if nothing ran
//
// Run returns once there is no work left.
//
// # Thread Safety
//
// The runtime is not safe for concurrent use. All registration methods must
// be called from the goroutine calling Run, from within a task, or before
// Run is called. [Runtime.State], [Runtime.IsRunning] and [Runtime.Metrics]
// may be called from any goroutine. Cancelling the context passed to Run
// interrupts it, even while blocked in poll.
//
// # Usage
//
//	rt, err := coop.New()
//	if err != nil {
//		return err
//	}
//	defer rt.Close()
//
//	ch := coop.NewChannel[int]()
//	rt.Spawn(func(t *coop.Task, _ ...any) any {
//		for i := range 3 {
//			_ = ch.Send(i)
//			_ = t.Delay(coop.Milliseconds(10))
//		}
//		return ch.Close()
//	})
//	rt.Spawn(func(t *coop.Task, _ ...any) any {
//		for v := range ch.All() {
//			rt.Tracef("received %d", v)
//		}
//		return nil
//	})
//
//	return rt.Run(ctx)
package coop
