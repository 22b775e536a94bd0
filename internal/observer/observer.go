// Package observer converts per-tick intersection-ratio samples into
// labeled, time-qualified threshold-crossing events.
//
// Known limitation: unobserving a target that is still inside a crossed
// threshold emits no synthetic exit entry; duration accounting ends at
// the last sample before removal.
package observer

import (
	"sync"
	"time"

	"codeberg.org/vintr/impressd/internal/engine"
	"codeberg.org/vintr/impressd/internal/errors"
	"codeberg.org/vintr/impressd/internal/geometry"
)

// Target is an observed region. Implementations must be comparable
// (pointer types are typical) since targets are tracked by identity.
// Bounds returns the target's rectangle in document coordinates; ok
// false marks the target detached, which samples as ratio 0.
type Target interface {
	Bounds() (rect geometry.Rect, ok bool)
}

// Viewport supplies the containing rectangle targets are measured
// against. *dispatch.Viewport satisfies it.
type Viewport interface {
	Rect() geometry.Rect
}

// ChangeEntry records one threshold transition. Duration is set only on
// exit entries (Entering false) and covers the time the threshold was
// continuously crossed.
type ChangeEntry struct {
	Target    Target
	Payload   any
	Label     string
	Ratio     float64
	Entering  bool
	Duration  time.Duration
	Rect      geometry.Rect
	Timestamp time.Time
}

// Callback receives one non-empty batch per tick, ordered by target
// registration order, then threshold registration order.
type Callback func(entries []ChangeEntry)

// Config configures an Observer.
type Config struct {
	// Thresholds is the default threshold set applied to targets
	// observed without an explicit one.
	Thresholds []Threshold
	// Viewport supplies the containing rectangle. Required.
	Viewport Viewport
	// Engine drives measurement. Nil selects the process default.
	Engine *engine.Engine
}

type targetRecord struct {
	target       Target
	payload      any
	currentRatio float64
	currentRect  geometry.Rect
	states       []thresholdState
}

// Observer maintains one crossing state machine per observed target and
// threshold. Measurement runs in the engine's read phase; callback
// delivery runs in the write phase of the same tick.
type Observer struct {
	mu          sync.Mutex
	eng         *engine.Engine
	viewport    Viewport
	callback    Callback
	defaults    []Threshold
	order       []*targetRecord
	byTarget    map[Target]*targetRecord
	pending     []ChangeEntry
	readHandle  engine.Handle
	writeHandle engine.Handle
	scheduled   bool
}

// New validates the configuration and returns an idle observer; engine
// tasks are scheduled once the first target is observed.
func New(callback Callback, cfg Config) (*Observer, error) {
	errFactory := errors.New()

	if callback == nil {
		return nil, errFactory.New(errors.ErrMissingCallback)
	}
	if cfg.Viewport == nil {
		return nil, errFactory.WithMessage(errors.ErrInvalidConfig, "viewport must not be nil")
	}
	if cfg.Thresholds != nil {
		if err := validateThresholds(cfg.Thresholds); err != nil {
			return nil, err
		}
	}

	eng := cfg.Engine
	if eng == nil {
		eng = engine.Default()
	}

	return &Observer{
		eng:      eng,
		viewport: cfg.Viewport,
		callback: callback,
		defaults: cfg.Thresholds,
		byTarget: make(map[Target]*targetRecord),
	}, nil
}

// Observe registers a target. A nil threshold slice selects the
// observer's default set. Re-observing a target replaces its record and
// resets every threshold to the unarmed, uncrossed state; the payload is
// echoed in each of the target's entries until Unobserve.
func (o *Observer) Observe(target Target, thresholds []Threshold, payload any) error {
	errFactory := errors.New()

	if target == nil {
		return errFactory.WithMessage(errors.ErrInvalidArgument, "target must not be nil")
	}
	if thresholds == nil {
		thresholds = o.defaults
	}
	if err := validateThresholds(thresholds); err != nil {
		return err
	}

	states := make([]thresholdState, len(thresholds))
	for i, t := range thresholds {
		states[i] = thresholdState{threshold: t}
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if existing, ok := o.byTarget[target]; ok {
		o.order = removeRecord(o.order, existing)
	}

	rec := &targetRecord{target: target, payload: payload, states: states}
	o.order = append(o.order, rec)
	o.byTarget[target] = rec

	if !o.scheduled {
		o.readHandle = o.eng.ScheduleRead(o.measure)
		o.writeHandle = o.eng.ScheduleWrite(o.deliver)
		o.scheduled = true
	}

	return nil
}

// Unobserve removes a target. It is a no-op for unknown targets and
// emits no synthetic exit entry for crossed thresholds.
func (o *Observer) Unobserve(target Target) {
	o.mu.Lock()
	defer o.mu.Unlock()

	rec, ok := o.byTarget[target]
	if !ok {
		return
	}
	delete(o.byTarget, target)
	o.order = removeRecord(o.order, rec)

	if len(o.order) == 0 {
		o.unscheduleLocked()
	}
}

// Disconnect removes every target and the observer's engine tasks.
// Cancellation takes effect on the next tick: entries already computed
// in the current tick are still delivered by its write phase.
func (o *Observer) Disconnect() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.order = nil
	o.byTarget = make(map[Target]*targetRecord)
	o.unscheduleLocked()
}

func (o *Observer) unscheduleLocked() {
	if !o.scheduled {
		return
	}
	o.eng.Remove(o.readHandle)
	o.eng.Remove(o.writeHandle)
	o.scheduled = false
}

// TakeRecords returns entries computed but not yet delivered and clears
// them, so the next write phase delivers nothing for this tick.
func (o *Observer) TakeRecords() []ChangeEntry {
	o.mu.Lock()
	defer o.mu.Unlock()

	records := o.pending
	o.pending = nil

	return records
}

// measure runs in the read phase: sample every target against the
// viewport and advance its threshold state machines.
func (o *Observer) measure(now time.Time) {
	viewportRect := o.viewport.Rect()

	o.mu.Lock()
	defer o.mu.Unlock()

	for _, rec := range o.order {
		ratio, rect := 0.0, geometry.Rect{}
		if bounds, ok := rec.target.Bounds(); ok {
			ratio, rect = geometry.Intersection(bounds, viewportRect)
		}
		rec.currentRatio = ratio
		rec.currentRect = rect

		for i := range rec.states {
			o.step(rec, &rec.states[i], now)
		}
	}
}

// step advances one threshold state machine by one sample.
func (o *Observer) step(rec *targetRecord, st *thresholdState, now time.Time) {
	if !st.threshold.met(rec.currentRatio) {
		wasCrossed := st.crossed
		crossedAt := st.crossedAt
		st.armed = false
		st.armedAt = time.Time{}
		st.crossed = false
		st.crossedAt = time.Time{}

		if wasCrossed {
			o.pending = append(o.pending, o.entry(rec, st, now, false, now.Sub(crossedAt)))
		}

		return
	}

	if !st.armed {
		st.armed = true
		st.armedAt = now
	}

	if !st.crossed && now.Sub(st.armedAt) >= st.threshold.Time {
		st.crossed = true
		st.crossedAt = now
		o.pending = append(o.pending, o.entry(rec, st, now, true, 0))
	}
}

func (o *Observer) entry(rec *targetRecord, st *thresholdState, now time.Time, entering bool, duration time.Duration) ChangeEntry {
	return ChangeEntry{
		Target:    rec.target,
		Payload:   rec.payload,
		Label:     st.threshold.Label,
		Ratio:     rec.currentRatio,
		Entering:  entering,
		Duration:  duration,
		Rect:      rec.currentRect,
		Timestamp: now,
	}
}

// deliver runs in the write phase and hands the tick's batch to the
// callback.
func (o *Observer) deliver(_ time.Time) {
	o.mu.Lock()
	entries := o.pending
	o.pending = nil
	callback := o.callback
	o.mu.Unlock()

	if len(entries) > 0 {
		callback(entries)
	}
}

func removeRecord(records []*targetRecord, rec *targetRecord) []*targetRecord {
	for i, r := range records {
		if r == rec {
			return append(records[:i:i], records[i+1:]...)
		}
	}

	return records
}
