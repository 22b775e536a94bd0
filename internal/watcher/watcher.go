// Package watcher presents the observer through four fixed semantic
// events instead of arbitrary threshold labels.
package watcher

import (
	"sync"
	"time"

	"codeberg.org/vintr/impressd/internal/engine"
	"codeberg.org/vintr/impressd/internal/errors"
	"codeberg.org/vintr/impressd/internal/observer"
)

// Event names the four visibility states a watched target moves through.
type Event string

const (
	// EventExposed fires when any pixel of the target becomes visible.
	EventExposed Event = "exposed"
	// EventVisible fires when the impression ratio is first met.
	EventVisible Event = "visible"
	// EventImpressed fires once the ratio has been sustained for the
	// configured dwell time.
	EventImpressed Event = "impressed"
	// EventImpressionComplete fires when an impressed target drops
	// below the ratio; Meta.Duration covers the impressed span.
	EventImpressionComplete Event = "impression-complete"
)

const (
	labelExposed   = "exposed"
	labelVisible   = "visible"
	labelImpressed = "impressed"
)

// Meta accompanies each event. Duration is set only on
// impression-complete; Payload echoes the value passed to Watch.
type Meta struct {
	Duration time.Duration
	Payload  any
}

// Callback receives the watched target's events.
type Callback func(event Event, meta Meta)

// Config configures a Watcher. A zero Ratio leaves only the exposed
// event possible; with Ratio set, visible fires at the ratio and
// impressed after the ratio has held for Time.
type Config struct {
	Ratio    float64
	Time     time.Duration
	Viewport observer.Viewport
	Engine   *engine.Engine

	// Tap, when set, receives every raw change-entry batch before it is
	// translated into semantic events. Sinks such as telemetry use it.
	Tap observer.Callback
}

// Watcher maps observer change entries onto the four semantic events.
type Watcher struct {
	mu        sync.Mutex
	obs       *observer.Observer
	callbacks map[observer.Target]Callback
	cfg       Config
}

// New builds a watcher over a fresh observer.
func New(cfg Config) (*Watcher, error) {
	w := &Watcher{
		callbacks: make(map[observer.Target]Callback),
		cfg:       cfg,
	}

	obs, err := observer.New(w.route, observer.Config{
		Viewport: cfg.Viewport,
		Engine:   cfg.Engine,
	})
	if err != nil {
		return nil, err
	}
	w.obs = obs

	return w, nil
}

// Watch starts tracking a target, delivering its events to callback.
// The optional payload is echoed in every Meta.
func (w *Watcher) Watch(target observer.Target, callback Callback, payload any) error {
	errFactory := errors.New()

	if callback == nil {
		return errFactory.New(errors.ErrMissingCallback)
	}

	thresholds := []observer.Threshold{
		{Label: labelExposed, Ratio: 0, Time: 0},
	}
	if w.cfg.Ratio > 0 {
		thresholds = append(thresholds,
			observer.Threshold{Label: labelVisible, Ratio: w.cfg.Ratio, Time: 0},
			observer.Threshold{Label: labelImpressed, Ratio: w.cfg.Ratio, Time: w.cfg.Time},
		)
	}

	if err := w.obs.Observe(target, thresholds, payload); err != nil {
		return err
	}

	w.mu.Lock()
	w.callbacks[target] = callback
	w.mu.Unlock()

	return nil
}

// Unwatch stops tracking a target. Unknown targets are ignored.
func (w *Watcher) Unwatch(target observer.Target) {
	w.obs.Unobserve(target)

	w.mu.Lock()
	delete(w.callbacks, target)
	w.mu.Unlock()
}

// Close stops tracking every target.
func (w *Watcher) Close() {
	w.obs.Disconnect()

	w.mu.Lock()
	w.callbacks = make(map[observer.Target]Callback)
	w.mu.Unlock()
}

// route translates one observer batch into semantic events.
func (w *Watcher) route(entries []observer.ChangeEntry) {
	if w.cfg.Tap != nil {
		w.cfg.Tap(entries)
	}

	for _, entry := range entries {
		w.mu.Lock()
		callback, ok := w.callbacks[entry.Target]
		w.mu.Unlock()
		if !ok {
			continue
		}

		event, ok := translate(entry)
		if !ok {
			continue
		}

		meta := Meta{Payload: entry.Payload}
		if event == EventImpressionComplete {
			meta.Duration = entry.Duration
		}

		callback(event, meta)
	}
}

func translate(entry observer.ChangeEntry) (Event, bool) {
	switch entry.Label {
	case labelExposed:
		if entry.Entering {
			return EventExposed, true
		}
	case labelVisible:
		if entry.Entering {
			return EventVisible, true
		}
	case labelImpressed:
		if entry.Entering {
			return EventImpressed, true
		}
		return EventImpressionComplete, true
	}

	return "", false
}
