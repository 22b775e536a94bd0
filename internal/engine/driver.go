package engine

import (
	"sync"
	"time"
)

// DriverHandle identifies one tick subscription on a Driver.
type DriverHandle uint64

// Driver is the minimal contract any polling source must satisfy: invoke
// every registered tick callback repeatedly, passing a monotonically
// non-decreasing timestamp. The built-in TickerDriver and the
// ManualDriver used in tests both implement it; a host may supply its
// own frame source instead.
type Driver interface {
	Register(tick func(now time.Time)) DriverHandle
	Unregister(handle DriverHandle)
}

// TickerDriver delivers ticks from a time.Ticker at a fixed interval.
// It approximates an animation-frame signal for hosts without one.
type TickerDriver struct {
	mu       sync.Mutex
	interval time.Duration
	subs     map[DriverHandle]func(now time.Time)
	nextID   DriverHandle
	stop     chan struct{}
}

// NewTickerDriver returns a driver ticking every interval. A zero or
// negative interval falls back to DefaultInterval.
func NewTickerDriver(interval time.Duration) *TickerDriver {
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &TickerDriver{
		interval: interval,
		subs:     make(map[DriverHandle]func(now time.Time)),
	}
}

func (d *TickerDriver) Register(tick func(now time.Time)) DriverHandle {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	handle := d.nextID
	d.subs[handle] = tick

	if len(d.subs) == 1 {
		d.stop = make(chan struct{})
		go d.loop(d.stop)
	}

	return handle
}

func (d *TickerDriver) Unregister(handle DriverHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.subs[handle]; !ok {
		return
	}
	delete(d.subs, handle)

	if len(d.subs) == 0 && d.stop != nil {
		close(d.stop)
		d.stop = nil
	}
}

func (d *TickerDriver) loop(stop chan struct{}) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			d.mu.Lock()
			subs := make([]func(time.Time), 0, len(d.subs))
			for _, tick := range d.subs {
				subs = append(subs, tick)
			}
			d.mu.Unlock()

			for _, tick := range subs {
				tick(now)
			}
		}
	}
}

// ManualDriver delivers ticks only when told to, with a hand-advanced
// clock. It is the deterministic driver used by tests and simulations.
type ManualDriver struct {
	mu     sync.Mutex
	now    time.Time
	subs   map[DriverHandle]func(now time.Time)
	nextID DriverHandle
}

// NewManualDriver returns a manual driver whose clock starts at start.
func NewManualDriver(start time.Time) *ManualDriver {
	return &ManualDriver{
		now:  start,
		subs: make(map[DriverHandle]func(now time.Time)),
	}
}

func (d *ManualDriver) Register(tick func(now time.Time)) DriverHandle {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	d.subs[d.nextID] = tick

	return d.nextID
}

func (d *ManualDriver) Unregister(handle DriverHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.subs, handle)
}

// Now returns the driver's current clock reading.
func (d *ManualDriver) Now() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.now
}

// Advance moves the clock forward by dt and delivers one tick.
func (d *ManualDriver) Advance(dt time.Duration) {
	d.mu.Lock()
	d.now = d.now.Add(dt)
	d.mu.Unlock()

	d.Fire()
}

// Fire delivers one tick at the current clock reading without advancing.
func (d *ManualDriver) Fire() {
	d.mu.Lock()
	now := d.now
	subs := make([]func(time.Time), 0, len(d.subs))
	for _, tick := range d.subs {
		subs = append(subs, tick)
	}
	d.mu.Unlock()

	for _, tick := range subs {
		tick(now)
	}
}
