package dispatch

import (
	"reflect"
	"sync"
	"time"

	"codeberg.org/vintr/impressd/internal/engine"
	"codeberg.org/vintr/impressd/internal/errors"
)

// Kind enumerates the closed set of dispatcher events.
type Kind int

const (
	KindScroll Kind = iota
	KindResize
	KindShow
	KindHide
	KindDestroy
)

func (k Kind) String() string {
	switch k {
	case KindScroll:
		return "scroll"
	case KindResize:
		return "resize"
	case KindShow:
		return "show"
	case KindHide:
		return "hide"
	case KindDestroy:
		return "destroy"
	default:
		return "unknown"
	}
}

func (k Kind) valid() bool {
	return k >= KindScroll && k <= KindDestroy
}

// Frame describes the viewport at the tick an event was observed.
// Show, hide and destroy events carry the frame of the tick that
// produced them; destroy carries the last frame seen.
type Frame struct {
	ScrollX   float64
	ScrollY   float64
	Width     float64
	Height    float64
	Visible   bool
	Timestamp time.Time
}

// Handler receives dispatched events. The same handler registered twice
// for the same kind is invoked once.
type Handler func(kind Kind, frame Frame)

type handlerEntry struct {
	id uintptr
	fn Handler
}

type pendingEvent struct {
	kind  Kind
	frame Frame
}

// Dispatcher watches a Viewport from the engine's read phase and fans
// out scroll, resize, show and hide events during the write phase.
// Destroy fires exactly once, from Destroy, after the final tick has
// completed.
type Dispatcher struct {
	mu          sync.Mutex
	eng         *engine.Engine
	viewport    *Viewport
	handlers    map[Kind][]handlerEntry
	last        Frame
	hasLast     bool
	pending     []pendingEvent
	readHandle  engine.Handle
	writeHandle engine.Handle
	destroyed   bool
}

// New attaches a dispatcher to the given engine and viewport and begins
// observing on the next tick.
func New(eng *engine.Engine, viewport *Viewport) *Dispatcher {
	d := &Dispatcher{
		eng:      eng,
		viewport: viewport,
		handlers: make(map[Kind][]handlerEntry),
	}

	d.readHandle = eng.ScheduleRead(d.sample)
	d.writeHandle = eng.ScheduleWrite(d.flush)

	return d
}

// On registers a handler for one event kind. Registering the same
// handler twice for the same kind is a no-op.
func (d *Dispatcher) On(kind Kind, handler Handler) error {
	errFactory := errors.New()

	if !kind.valid() {
		return errFactory.WithData(errors.ErrUnknownEvent, int(kind))
	}
	if handler == nil {
		return errFactory.New(errors.ErrInvalidArgument)
	}

	id := reflect.ValueOf(handler).Pointer()

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, entry := range d.handlers[kind] {
		if entry.id == id {
			return nil
		}
	}
	d.handlers[kind] = append(d.handlers[kind], handlerEntry{id: id, fn: handler})

	return nil
}

// Off removes a previously registered handler. Unknown handlers are
// ignored.
func (d *Dispatcher) Off(kind Kind, handler Handler) {
	if !kind.valid() || handler == nil {
		return
	}

	id := reflect.ValueOf(handler).Pointer()

	d.mu.Lock()
	defer d.mu.Unlock()

	entries := d.handlers[kind]
	for i, entry := range entries {
		if entry.id == id {
			d.handlers[kind] = append(entries[:i:i], entries[i+1:]...)
			return
		}
	}
}

// sample runs in the read phase: it snapshots the viewport and queues
// events for any change since the previous tick.
func (d *Dispatcher) sample(now time.Time) {
	x, y := d.viewport.Scroll()
	width, height := d.viewport.Size()
	frame := Frame{
		ScrollX:   x,
		ScrollY:   y,
		Width:     width,
		Height:    height,
		Visible:   d.viewport.Visible(),
		Timestamp: now,
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.hasLast {
		if frame.ScrollX != d.last.ScrollX || frame.ScrollY != d.last.ScrollY {
			d.pending = append(d.pending, pendingEvent{kind: KindScroll, frame: frame})
		}
		if frame.Width != d.last.Width || frame.Height != d.last.Height {
			d.pending = append(d.pending, pendingEvent{kind: KindResize, frame: frame})
		}
		if frame.Visible != d.last.Visible {
			kind := KindHide
			if frame.Visible {
				kind = KindShow
			}
			d.pending = append(d.pending, pendingEvent{kind: kind, frame: frame})
		}
	}

	d.last = frame
	d.hasLast = true
}

// flush runs in the write phase and delivers queued events.
func (d *Dispatcher) flush(_ time.Time) {
	d.mu.Lock()
	events := d.pending
	d.pending = nil
	d.mu.Unlock()

	for _, ev := range events {
		d.emit(ev.kind, ev.frame)
	}
}

func (d *Dispatcher) emit(kind Kind, frame Frame) {
	d.mu.Lock()
	entries := append([]handlerEntry(nil), d.handlers[kind]...)
	d.mu.Unlock()

	for _, entry := range entries {
		entry.fn(kind, frame)
	}
}

// Destroy signals host teardown: it detaches the dispatcher from the
// engine, waits for the in-flight tick to finish, then fires destroy
// handlers once. It must be called from the host, not from within a
// scheduled task.
func (d *Dispatcher) Destroy() {
	d.mu.Lock()
	if d.destroyed {
		d.mu.Unlock()
		return
	}
	d.destroyed = true
	last := d.last
	d.mu.Unlock()

	d.eng.Remove(d.readHandle)
	d.eng.Remove(d.writeHandle)
	d.eng.Drain()

	d.emit(KindDestroy, last)
}
