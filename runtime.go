// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package coop

import (
	"context"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/joeycumines/logiface"
)

// Runtime is a cooperative scheduler, multiplexing tasks over a single
// logical thread of execution, using timers and readiness polling.
//
// Registration methods (Spawn, Enqueue, Defer, Repeat, AddTimer and the
// stream subscriptions) must be called either before Run, from the goroutine
// that calls Run, or from within one of the runtime's tasks. They are not
// safe for concurrent use.
type Runtime struct {
	ctx         context.Context
	clock       Clock
	sleeper     Sleeper
	poller      Poller
	logger      *logiface.Logger[logiface.Event]
	traceWriter io.Writer
	metrics     *metricsCollector

	// live holds every started, unterminated task, for Close
	live     map[*Task]struct{}
	delayed  map[*Task]struct{}
	parked   map[*Task]struct{}
	routines []*Task

	ready   taskQueue
	timers  TimerList
	readers SubscriptionList
	writers SubscriptionList

	state runtimeState

	// guards poller, which is woken from the context's AfterFunc
	pollerMu sync.Mutex

	time  Duration
	start Duration

	maxPollEvents int
	ownsPoller    bool
}

// New creates a new Runtime.
func New(opts ...RuntimeOption) (*Runtime, error) {
	cfg, err := resolveRuntimeOptions(opts)
	if err != nil {
		return nil, err
	}
	rt := &Runtime{
		clock:         cfg.clock,
		poller:        cfg.poller,
		logger:        cfg.logger,
		traceWriter:   cfg.traceWriter,
		maxPollEvents: cfg.maxPollEvents,
		live:          make(map[*Task]struct{}),
		delayed:       make(map[*Task]struct{}),
		parked:        make(map[*Task]struct{}),
	}
	if s, ok := cfg.clock.(Sleeper); ok {
		rt.sleeper = s
	}
	if cfg.metricsEnabled {
		rt.metrics = &metricsCollector{}
	}
	rt.time = rt.clock.Now()
	rt.start = rt.time
	return rt, nil
}

// Run executes the main loop until there is no work left, returning nil.
//
// It returns early with ctx.Err() if ctx is canceled, with ErrDeadlock if
// every remaining task is parked with nothing left to wake it, or with a
// *PollError if polling fails. A panicking task propagates out of Run, as a
// *PanicError.
//
// Run may be called again after it returns, to process any newly
// registered work.
func (rt *Runtime) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if cur := Current(); cur != nil && cur.rt == rt {
		return ErrReentrantRun
	}
	if !rt.state.TryTransition(StateIdle, StateRunning) {
		if rt.state.Load() == StateTerminated {
			return ErrTerminated
		}
		return ErrAlreadyRunning
	}
	defer rt.state.Store(StateIdle)

	rt.ctx = ctx
	defer func() { rt.ctx = nil }()
	stop := context.AfterFunc(ctx, rt.wake)
	defer stop()

	rt.time = rt.clock.Now()
	rt.start = rt.time
	rt.logger.Info().Log("runtime started")

	defer func() {
		if r := recover(); r != nil {
			rt.logPanic(r)
			panic(r)
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			rt.logger.Info().Err(err).Log("runtime stopped")
			return err
		}
		done, err := rt.cycle()
		if done {
			if err != nil {
				rt.logger.Info().Err(err).Log("runtime stopped")
			} else {
				rt.logger.Info().Log("runtime stopped")
			}
			return err
		}
	}
}

// cycle performs one iteration of the main loop, reporting whether the loop
// should exit.
func (rt *Runtime) cycle() (bool, error) {
	rt.time = rt.clock.Now()
	rt.metrics.cycle()
	defer rt.recordQueues()

	worked := rt.advanceQueues()

	timeout, fired := rt.advanceTimers()

	polled, err := rt.advanceIO(timeout, worked || fired)
	if err != nil {
		return true, err
	}

	if worked || fired || polled {
		return false, nil
	}

	if timeout > 0 {
		rt.idle(timeout)
		return false, nil
	}

	if rt.isDrained() {
		return true, nil
	}

	if rt.isDeadlocked() {
		rt.logger.Warning().
			Int("ready", rt.ready.Len()).
			Int("routines", len(rt.routines)).
			Int("parked", len(rt.parked)).
			Log("all tasks are parked, with nothing left to wake them")
		return true, ErrDeadlock
	}

	return false, nil
}

// advanceQueues resumes the first runnable task in the ready queue, then
// every runnable routine, reporting whether any task ran.
func (rt *Runtime) advanceQueues() bool {
	var worked bool

	for n := rt.ready.Len(); n > 0; n-- {
		t, _ := rt.ready.Pop()
		if t.IsTerminated() {
			continue
		}
		if !rt.runnable(t) {
			rt.ready.Push(t)
			continue
		}
		rt.resume(t)
		worked = true
		if !t.IsTerminated() {
			rt.ready.Push(t)
		}
		break
	}

	// routines spawned during this pass are appended, and first run next cycle
	for i, n := 0, len(rt.routines); i < n; i++ {
		t := rt.routines[i]
		if !rt.runnable(t) {
			continue
		}
		rt.resume(t)
		worked = true
	}
	rt.routines = slices.DeleteFunc(rt.routines, (*Task).IsTerminated)

	return worked
}

// advanceTimers fires at most one due timer. If no timer fired, it returns
// the time left until the nearest timer is due (zero if there are none).
func (rt *Runtime) advanceTimers() (Duration, bool) {
	if rt.timers.IsEmpty() {
		return 0, false
	}

	rt.timers.Tick(rt.time)
	top, _ := rt.timers.Top()
	if !top.IsDue(rt.time) {
		return top.Left(rt.time), false
	}

	timer, _ := rt.timers.Shift()
	t := timer.task()
	rt.adopt(t)
	rt.metrics.timerFired()
	rt.resume(t, rt.start, rt.time)
	rt.logTimerFired(t, timer)

	switch {
	case !t.IsTerminated():
		// the callback suspended, so it is finished off by the ready queue
		rt.ready.Push(t)
	case timer.recurrent && t.Result() != false:
		rt.timers.Add(timer.WithSince(rt.time))
	}

	return 0, true
}

// advanceIO polls the subscribed descriptors, and dispatches their tasks.
// It reports whether a poll completed.
func (rt *Runtime) advanceIO(timeout Duration, worked bool) (bool, error) {
	if rt.readers.IsEmpty() && rt.writers.IsEmpty() {
		return false, nil
	}

	// descriptors whose tasks are all delayed or parked stay out of the poll
	// set, as level-triggered readiness would otherwise report them forever
	readFds := rt.readers.pollable(rt.runnable)
	writeFds := rt.writers.pollable(rt.runnable)
	if len(readFds) == 0 && len(writeFds) == 0 {
		return false, nil
	}

	poller, err := rt.getPoller()
	if err != nil {
		return false, rt.pollFailed(err)
	}

	// a cancellation that raced poller creation would otherwise miss its wake
	if rt.ctx != nil && rt.ctx.Err() != nil {
		return true, nil
	}

	var block bool
	switch {
	case worked || rt.hasRunnable():
		timeout = 0
	case rt.timers.IsEmpty():
		block = true
	}

	// a Sleeper owns the passage of time, so the poll must not wait for it
	var sleep Duration
	if rt.sleeper != nil && !block {
		sleep, timeout = timeout, 0
	}

	readyRead, readyWrite, err := poller.Poll(readFds, writeFds, timeout, block)
	if err != nil {
		return false, rt.pollFailed(err)
	}
	rt.metrics.polled(len(readyRead) + len(readyWrite))

	if sleep > 0 && len(readyRead) == 0 && len(readyWrite) == 0 {
		rt.metrics.slept()
		rt.sleeper.Sleep(sleep)
	}

	rt.time = rt.clock.Now()

	budget := rt.maxPollEvents
	if budget == 0 {
		budget = len(readyRead) + len(readyWrite)
	}
	budget = rt.dispatch(&rt.readers, readyRead, budget, false)
	rt.dispatch(&rt.writers, readyWrite, budget, true)

	return true, nil
}

// dispatch resumes every runnable subscription task waiting on each of the
// ready descriptors, in registration order, returning the remaining budget.
func (rt *Runtime) dispatch(list *SubscriptionList, ready []uintptr, budget int, write bool) int {
	for _, fd := range ready {
		if budget <= 0 {
			break
		}
		budget--
		for _, sub := range list.forFd(fd) {
			t := sub.task
			if !t.IsTerminated() {
				if !rt.runnable(t) {
					continue
				}
				rt.logDispatch(sub, write)
				rt.resume(t, sub.stream, rt.start, rt.time)
			}
			if t.IsTerminated() {
				list.Remove(sub)
			}
		}
	}
	return budget
}

func (rt *Runtime) pollFailed(err error) error {
	rt.logger.Crit().Err(err).Log("stream poll failed")
	return &PollError{Err: err}
}

// idle waits for the timeout, or until the context is canceled.
func (rt *Runtime) idle(timeout Duration) {
	rt.metrics.slept()
	if rt.sleeper != nil {
		rt.sleeper.Sleep(timeout)
		return
	}
	timer := time.NewTimer(timeout.Std())
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-rt.ctx.Done():
	}
}

func (rt *Runtime) resume(t *Task, args ...any) {
	var begin time.Time
	if rt.metrics != nil {
		begin = time.Now()
	}
	t.advance(args...)
	if rt.metrics != nil {
		rt.metrics.resumed(time.Since(begin))
	}
}

// runnable reports whether the loop may start or resume the task.
func (rt *Runtime) runnable(t *Task) bool {
	switch t.state {
	case TaskCreated, TaskSuspended:
	default:
		return false
	}
	return !rt.blocked(t)
}

// blocked reports whether the task is delayed, or parked on a channel.
func (rt *Runtime) blocked(t *Task) bool {
	if rt == nil {
		return false
	}
	if _, ok := rt.delayed[t]; ok {
		return true
	}
	_, ok := rt.parked[t]
	return ok
}

func (rt *Runtime) hasRunnable() bool {
	var found bool
	rt.ready.Each(func(t *Task) bool {
		found = rt.runnable(t)
		return !found
	})
	if found {
		return true
	}
	return slices.ContainsFunc(rt.routines, rt.runnable)
}

func (rt *Runtime) isDrained() bool {
	return rt.ready.Len() == 0 &&
		len(rt.routines) == 0 &&
		rt.timers.IsEmpty() &&
		rt.readers.IsEmpty() &&
		rt.writers.IsEmpty()
}

// isDeadlocked reports whether every remaining task is parked, and there are
// no timers, or subscriptions with runnable tasks, that could make progress.
func (rt *Runtime) isDeadlocked() bool {
	if !rt.timers.IsEmpty() || rt.hasRunnable() {
		return false
	}
	if len(rt.readers.pollable(rt.runnable)) != 0 || len(rt.writers.pollable(rt.runnable)) != 0 {
		return false
	}
	return rt.ready.Len() != 0 || len(rt.routines) != 0 ||
		!rt.readers.IsEmpty() || !rt.writers.IsEmpty()
}

func (rt *Runtime) recordQueues() {
	if rt.metrics == nil {
		return
	}
	rt.metrics.queues(QueueMetrics{
		Ready:         rt.ready.Len(),
		Routines:      len(rt.routines),
		Timers:        rt.timers.Len(),
		Subscriptions: rt.readers.Len() + rt.writers.Len(),
		Delayed:       len(rt.delayed),
		Parked:        len(rt.parked),
	})
}

// adopt binds the task to the runtime, marking it as owned by one of the
// runtime's registries.
func (rt *Runtime) adopt(t *Task) {
	t.rt = rt
	t.owned = true
}

func (rt *Runtime) track(t *Task) {
	if rt != nil {
		rt.live[t] = struct{}{}
	}
}

func (rt *Runtime) untrack(t *Task) {
	if rt != nil {
		delete(rt.live, t)
	}
}

func (rt *Runtime) park(t *Task) {
	if rt != nil {
		rt.parked[t] = struct{}{}
	}
}

// unpark makes the task runnable again, waking anything awaiting it.
func (rt *Runtime) unpark(t *Task) {
	if rt != nil {
		delete(rt.parked, t)
	}
	t.notifyWaiters()
}

func (rt *Runtime) getPoller() (Poller, error) {
	rt.pollerMu.Lock()
	defer rt.pollerMu.Unlock()
	if rt.poller == nil {
		p, err := NewPoller()
		if err != nil {
			return nil, err
		}
		rt.poller = p
		rt.ownsPoller = true
	}
	return rt.poller, nil
}

// wake interrupts a blocking poll, if there is a poller.
func (rt *Runtime) wake() {
	rt.pollerMu.Lock()
	p := rt.poller
	rt.pollerMu.Unlock()
	if p != nil {
		if err := p.Wake(); err != nil {
			rt.logger.Debug().Err(err).Log("failed to wake poller")
		}
	}
}

// now returns the runtime's current time, sampling the clock if the loop is
// not running.
func (rt *Runtime) now() Duration {
	if rt.state.Load() != StateRunning {
		rt.time = rt.clock.Now()
	}
	return rt.time
}

// Spawn adds a routine, to be started (with args) on the next cycle, and
// resumed every cycle until it terminates. When called from within one of
// the runtime's tasks, the calling task yields once before Spawn returns.
func (rt *Runtime) Spawn(fn Func, args ...any) *Task {
	t := NewTask(fn)
	t.args = args
	rt.adopt(t)
	rt.routines = append(rt.routines, t)
	if cur := Current(); cur != nil && cur.rt == rt {
		_, _ = cur.Suspend(nil)
	}
	return t
}

// Enqueue adds a task to the ready queue, which resumes one runnable task
// per cycle, round-robin.
func (rt *Runtime) Enqueue(job Job) *Task {
	t := job.asTask()
	rt.adopt(t)
	rt.ready.Push(t)
	return t
}

// Defer schedules fn to run once, after timeout.
func (rt *Runtime) Defer(timeout Duration, fn TimerFunc) {
	rt.AddTimer(NewTimer(timeout, rt.now(), fn, false))
}

// Repeat schedules fn to run every interval, measured from the end of the
// cycle in which it last ran, until it returns false.
func (rt *Runtime) Repeat(interval Duration, fn RepeatFunc) {
	rt.AddTimer(NewTimer(interval, rt.now(), fn, true))
}

// AddTimer adds a timer to the runtime's timer list.
func (rt *Runtime) AddTimer(timer Timer) {
	rt.timers.Add(timer)
}

// Delay suspends t (which must be the calling task) for at least d.
// While delayed, the task is not resumed by any queue or subscription.
func (rt *Runtime) Delay(t *Task, d Duration) error {
	if t == nil {
		if t = Current(); t == nil {
			return ErrNotInTask
		}
	}
	if t.state != TaskRunning || getGoroutineID() != t.gid {
		return ErrForeignTask
	}
	if t.rt == nil {
		t.rt = rt
	}
	rt.delayed[t] = struct{}{}
	rt.AddTimer(NewTimer(d, rt.now(), Func(func(*Task, ...any) any {
		delete(rt.delayed, t)
		if t.IsSuspended() {
			rt.resume(t)
		}
		return nil
	}), false))
	_, err := t.Suspend(nil)
	delete(rt.delayed, t)
	return err
}

// OnStreamReadable subscribes job to readability of s. The task is started
// (with the stream, and the start and current times) the first time s is
// ready, and resumed on each subsequent readiness, until it terminates.
func (rt *Runtime) OnStreamReadable(s Stream, job Job) (*StreamSubscription, error) {
	return rt.subscribe(&rt.readers, s, job)
}

// OnSocketReadable is OnStreamReadable, for sockets, e.g. a listening socket
// becomes readable when a connection is ready to be accepted.
func (rt *Runtime) OnSocketReadable(s Stream, job Job) (*StreamSubscription, error) {
	return rt.subscribe(&rt.readers, s, job)
}

// OnStreamWritable subscribes job to writability of s.
func (rt *Runtime) OnStreamWritable(s Stream, job Job) (*StreamSubscription, error) {
	return rt.subscribe(&rt.writers, s, job)
}

func (rt *Runtime) subscribe(list *SubscriptionList, s Stream, job Job) (*StreamSubscription, error) {
	sub, err := NewStreamSubscription(s, job)
	if err != nil {
		return nil, err
	}
	rt.adopt(sub.task)
	list.Add(sub)
	return sub, nil
}

// Unsubscribe removes a stream subscription, reporting whether it was
// registered. The subscription's task is not otherwise affected.
func (rt *Runtime) Unsubscribe(sub *StreamSubscription) bool {
	return rt.readers.Remove(sub) || rt.writers.Remove(sub)
}

// Close releases the runtime's resources, and unwinds every suspended task,
// running their deferred calls. It fails with ErrAlreadyRunning if Run is
// executing. Subsequent calls to Run return ErrTerminated.
func (rt *Runtime) Close() error {
	if !rt.state.TryTransition(StateIdle, StateTerminated) {
		if rt.state.Load() == StateTerminated {
			return nil
		}
		return ErrAlreadyRunning
	}

	for t := range rt.live {
		t.abandon()
	}
	clear(rt.live)
	clear(rt.delayed)
	clear(rt.parked)
	rt.routines = nil
	rt.ready = taskQueue{}
	rt.timers = TimerList{}
	rt.readers = SubscriptionList{}
	rt.writers = SubscriptionList{}

	rt.pollerMu.Lock()
	defer rt.pollerMu.Unlock()
	if rt.poller != nil && rt.ownsPoller {
		return rt.poller.Close()
	}
	return nil
}

// State returns the runtime's lifecycle state. It is safe to call from any
// goroutine.
func (rt *Runtime) State() RuntimeState { return rt.state.Load() }

// IsRunning reports whether Run is executing. It is safe to call from any
// goroutine.
func (rt *Runtime) IsRunning() bool { return rt.state.Load() == StateRunning }

// Time returns the clock reading sampled at the start of the current cycle.
func (rt *Runtime) Time() Duration { return rt.time }

// Start returns the clock reading sampled when Run was last called.
func (rt *Runtime) Start() Duration { return rt.start }

// Elapsed returns the time elapsed since Run was last called.
func (rt *Runtime) Elapsed() Duration { return rt.clock.Now() - rt.start }

// Clock returns the runtime's time source.
func (rt *Runtime) Clock() Clock { return rt.clock }

// Logger returns the runtime's logger, which may be nil.
func (rt *Runtime) Logger() *logiface.Logger[logiface.Event] { return rt.logger }

// Metrics returns a snapshot of the runtime's metrics, or the zero value if
// metrics are disabled. It is safe to call from any goroutine.
func (rt *Runtime) Metrics() Metrics { return rt.metrics.snapshot() }
