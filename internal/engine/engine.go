package engine

import (
	"fmt"
	"sync"
	"time"

	"codeberg.org/vintr/impressd/internal/errors"
	"codeberg.org/vintr/impressd/internal/logger"
)

// DefaultInterval is the fallback tick interval when no animation-frame
// signal is available.
const DefaultInterval = 16 * time.Millisecond

// Task is one unit of per-tick work. Read-phase tasks must only measure;
// write-phase tasks may mutate and dispatch callbacks.
type Task func(now time.Time)

// Handle identifies one scheduled task for removal.
type Handle uint64

type phase int

const (
	phaseRead phase = iota
	phaseWrite
)

type scheduledTask struct {
	handle Handle
	fn     Task
}

var (
	hookMu    sync.Mutex
	errorHook = func(err error) {
		logger.Error().Err(err).Msg("scheduled task failed")
	}
)

// SetErrorHook replaces the process-wide hook receiving errors recovered
// from scheduled tasks. A nil hook restores the default logging hook.
func SetErrorHook(hook func(err error)) {
	hookMu.Lock()
	defer hookMu.Unlock()

	if hook == nil {
		hook = func(err error) {
			logger.Error().Err(err).Msg("scheduled task failed")
		}
	}
	errorHook = hook
}

func reportTaskError(err error) {
	hookMu.Lock()
	hook := errorHook
	hookMu.Unlock()

	hook(err)
}

// Engine runs registered tasks once per driver tick: all read-phase
// tasks first, in registration order, then all write-phase tasks.
// Tasks scheduled or removed during a tick take effect on the next tick.
type Engine struct {
	mu           sync.Mutex
	driver       Driver
	driverHandle DriverHandle
	running      bool
	autoManage   bool
	lastTick     time.Time
	hasTicked    bool
	nextHandle   Handle
	reads        []scheduledTask
	writes       []scheduledTask
	tickDone     sync.WaitGroup
}

// New returns an engine driven by the given driver. Engines built with
// New are externally managed: the caller starts and stops them.
func New(driver Driver) *Engine {
	return &Engine{driver: driver}
}

var (
	defaultMu     sync.Mutex
	defaultEngine *Engine
)

// Default returns the process-wide engine, creating it lazily on first
// use. The default engine manages its own lifecycle: it starts when the
// first task is scheduled and stops when the last one is removed.
func Default() *Engine {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultEngine == nil {
		defaultEngine = New(NewTickerDriver(DefaultInterval))
		defaultEngine.autoManage = true
	}

	return defaultEngine
}

// SetDefault substitutes the process-wide engine. Passing nil resets to
// the lazily created ticker-driven engine.
func SetDefault(e *Engine) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	defaultEngine = e
}

// Start registers the engine with its driver and begins ticking. It is a
// no-op if the engine is already running.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.startLocked()
}

func (e *Engine) startLocked() {
	if e.running {
		return
	}
	e.running = true
	e.driverHandle = e.driver.Register(e.tick)
}

// Stop unregisters the engine from its driver. Ticks already in flight
// complete; the stop takes effect starting with the next tick.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopLocked()
}

func (e *Engine) stopLocked() {
	if !e.running {
		return
	}
	e.running = false
	e.driver.Unregister(e.driverHandle)
}

// Drain blocks until any in-flight tick has completed. It must not be
// called from within a scheduled task.
func (e *Engine) Drain() {
	e.tickDone.Wait()
}

// Running reports whether the engine is registered with its driver.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.running
}

// ScheduleRead registers a task to run in the read phase of every
// subsequent tick. The returned handle removes it again.
func (e *Engine) ScheduleRead(fn Task) Handle {
	return e.schedule(phaseRead, fn)
}

// ScheduleWrite registers a task to run in the write phase of every
// subsequent tick.
func (e *Engine) ScheduleWrite(fn Task) Handle {
	return e.schedule(phaseWrite, fn)
}

func (e *Engine) schedule(p phase, fn Task) Handle {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextHandle++
	task := scheduledTask{handle: e.nextHandle, fn: fn}

	switch p {
	case phaseRead:
		e.reads = append(e.reads, task)
	case phaseWrite:
		e.writes = append(e.writes, task)
	}

	if e.autoManage {
		e.startLocked()
	}

	return task.handle
}

// Remove unregisters a scheduled task. Removing an unknown or already
// removed handle is a no-op.
func (e *Engine) Remove(handle Handle) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.reads = removeTask(e.reads, handle)
	e.writes = removeTask(e.writes, handle)

	if e.autoManage && len(e.reads) == 0 && len(e.writes) == 0 {
		e.stopLocked()
	}
}

func removeTask(tasks []scheduledTask, handle Handle) []scheduledTask {
	for i, t := range tasks {
		if t.handle == handle {
			return append(tasks[:i:i], tasks[i+1:]...)
		}
	}

	return tasks
}

func (e *Engine) tick(now time.Time) {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}

	// Timestamps handed to tasks never go backwards, whatever the
	// driver delivers.
	if e.hasTicked && now.Before(e.lastTick) {
		now = e.lastTick
	}
	e.lastTick = now
	e.hasTicked = true

	reads := append([]scheduledTask(nil), e.reads...)
	writes := append([]scheduledTask(nil), e.writes...)
	e.tickDone.Add(1)
	e.mu.Unlock()
	defer e.tickDone.Done()

	for _, t := range reads {
		runTask(t.fn, now)
	}
	for _, t := range writes {
		runTask(t.fn, now)
	}
}

// runTask isolates panics so one failing task cannot abort the tick or
// starve the other phase.
func runTask(fn Task, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			errFactory := errors.New()
			reportTaskError(errFactory.WithData(errors.ErrTaskPanic, fmt.Sprintf("%v", r)))
		}
	}()

	fn(now)
}
