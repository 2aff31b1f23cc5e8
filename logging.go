// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package coop

import (
	"fmt"
)

// Tracef writes a line to the runtime's trace writer, prefixed by the
// milliseconds elapsed since the loop started, e.g. "[0042]: message".
// While running, the stamp is the loop's sampled time rather than a fresh
// clock reading, so lines traced by a single task step share a stamp.
func (rt *Runtime) Tracef(format string, args ...any) {
	_, _ = fmt.Fprintf(rt.traceWriter, "[%04d]: %s\n", (rt.now() - rt.start).AsMilliseconds(), fmt.Sprintf(format, args...))
}

func (rt *Runtime) logTimerFired(t *Task, timer Timer) {
	if b := rt.logger.Debug(); b.Enabled() {
		b.Uint64("task", t.id).
			Dur("interval", timer.interval.Std()).
			Bool("recurrent", timer.recurrent).
			Bool("terminated", t.IsTerminated()).
			Log("timer fired")
	}
}

func (rt *Runtime) logDispatch(sub *StreamSubscription, write bool) {
	if b := rt.logger.Trace(); b.Enabled() {
		b.Uint64("task", sub.task.id).
			Uint64("fd", uint64(sub.fd)).
			Bool("write", write).
			Log("stream ready")
	}
}

func (rt *Runtime) logPanic(r any) {
	b := rt.logger.Err()
	if !b.Enabled() {
		return
	}
	if err, ok := r.(*PanicError); ok {
		b = b.Err(err).Uint64("task", err.TaskID)
	} else {
		b = b.Any("panic", r)
	}
	b.Log("task panicked, unwinding runtime")
}
