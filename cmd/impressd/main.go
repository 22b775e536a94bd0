package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"codeberg.org/vintr/impressd/internal/config"
	"codeberg.org/vintr/impressd/internal/dispatch"
	"codeberg.org/vintr/impressd/internal/engine"
	"codeberg.org/vintr/impressd/internal/geometry"
	"codeberg.org/vintr/impressd/internal/logger"
	"codeberg.org/vintr/impressd/internal/observer"
	"codeberg.org/vintr/impressd/internal/telemetry"
	"codeberg.org/vintr/impressd/internal/watcher"
)

const defaultTargetCount = 8

// simTarget is a fixed rectangle in document coordinates that scrolls
// through the viewport as the simulation advances.
type simTarget struct {
	name string
	rect geometry.Rect
}

func (t *simTarget) Bounds() (geometry.Rect, bool) {
	return t.rect, true
}

var cfg *config.Config

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.IsDebug(), cfg.IsVerbose(), logger.IsService())
	logger.Debug().Msg("Config loaded")
}

func main() {
	if err := writePID(); err != nil {
		logger.Fatal().Err(err).Msg("failed to write PID file")
	}
	defer func() {
		if err := removePID(); err != nil {
			logger.Error().Err(err).Msg("failed to remove PID file")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if err := run(ctx); err != nil {
		logger.Error().Err(err).Msg("error in main loop")
	}
}

func run(ctx context.Context) error {
	interval := time.Duration(cfg.Interval) * time.Millisecond
	eng := engine.New(engine.NewTickerDriver(interval))
	viewport := dispatch.NewViewport(cfg.ViewportWidth, cfg.ViewportHeight)
	dispatcher := dispatch.New(eng, viewport)
	registerFrameLogging(dispatcher)

	collector, err := telemetry.NewService(telemetry.Config{
		DBPath:       cfg.TelemetryDB,
		Enabled:      cfg.Telemetry,
		BatchSize:    telemetry.DefaultConfig().BatchSize,
		BatchTimeout: telemetry.DefaultConfig().BatchTimeout,
	}, logger.Default())
	if err != nil {
		return err
	}

	watch, err := watcher.New(watcher.Config{
		Ratio:    cfg.Ratio,
		Time:     time.Duration(cfg.Time) * time.Millisecond,
		Viewport: viewport,
		Engine:   eng,
		Tap:      recordEntries(ctx, collector),
	})
	if err != nil {
		return err
	}

	for _, target := range buildTargets(cfg) {
		name := target.name
		err := watch.Watch(target, func(event watcher.Event, meta watcher.Meta) {
			logEvent(name, event, meta)
		}, name)
		if err != nil {
			return err
		}
	}

	scheduleScroll(eng, viewport, cfg.ScrollSpeed)

	logger.Info().
		Int("interval_ms", cfg.Interval).
		Float64("ratio", cfg.Ratio).
		Int("time_ms", cfg.Time).
		Float64("scroll_speed", cfg.ScrollSpeed).
		Msg("Starting visibility simulation")

	eng.Start()

	var timeout <-chan time.Time
	if cfg.Duration > 0 {
		timer := time.NewTimer(time.Duration(cfg.Duration) * time.Second)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-ctx.Done():
	case <-timeout:
		logger.Info().Int("duration_s", cfg.Duration).Msg("Simulation duration elapsed")
	}

	// Teardown order: halt ticking, let the in-flight tick finish, fire
	// destroy, then flush telemetry.
	eng.Stop()
	eng.Drain()
	dispatcher.Destroy()
	watch.Close()

	if err := collector.Close(); err != nil {
		logger.Error().Err(err).Msg("failed to close telemetry")
	}

	logger.Info().Msg("Exiting...")

	return nil
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

// buildTargets returns configured targets, or a vertical strip of
// evenly spaced boxes below the fold when none are configured.
func buildTargets(cfg *config.Config) []*simTarget {
	if len(cfg.Targets) > 0 {
		targets := make([]*simTarget, 0, len(cfg.Targets))
		for i, tc := range cfg.Targets {
			name := tc.Name
			if name == "" {
				name = fmt.Sprintf("target-%d", i)
			}
			targets = append(targets, &simTarget{
				name: name,
				rect: geometry.Rect{X: tc.X, Y: tc.Y, Width: tc.Width, Height: tc.Height},
			})
		}

		return targets
	}

	targets := make([]*simTarget, 0, defaultTargetCount)
	boxHeight := cfg.ViewportHeight / 2
	for i := 0; i < defaultTargetCount; i++ {
		targets = append(targets, &simTarget{
			name: fmt.Sprintf("target-%d", i),
			rect: geometry.Rect{
				X:      cfg.ViewportWidth / 4,
				Y:      cfg.ViewportHeight + float64(i)*boxHeight*2,
				Width:  cfg.ViewportWidth / 2,
				Height: boxHeight,
			},
		})
	}

	return targets
}

// scheduleScroll advances the viewport's scroll offset each write phase
// so targets drift through view at a constant speed.
func scheduleScroll(eng *engine.Engine, viewport *dispatch.Viewport, speed float64) {
	var start time.Time
	eng.ScheduleWrite(func(now time.Time) {
		if start.IsZero() {
			start = now
		}
		viewport.SetScroll(0, speed*now.Sub(start).Seconds())
	})
}

func registerFrameLogging(dispatcher *dispatch.Dispatcher) {
	frameLogger := func(kind dispatch.Kind, frame dispatch.Frame) {
		logger.Debug().
			Str("event", kind.String()).
			Float64("scroll_y", frame.ScrollY).
			Float64("width", frame.Width).
			Float64("height", frame.Height).
			Bool("visible", frame.Visible).
			Msg("")
	}

	for _, kind := range []dispatch.Kind{dispatch.KindScroll, dispatch.KindResize, dispatch.KindShow, dispatch.KindHide} {
		if err := dispatcher.On(kind, frameLogger); err != nil {
			logger.Warn().Err(err).Msg("failed to register frame handler")
		}
	}

	if err := dispatcher.On(dispatch.KindDestroy, func(dispatch.Kind, dispatch.Frame) {
		logger.Info().Msg("Dispatcher destroyed")
	}); err != nil {
		logger.Warn().Err(err).Msg("failed to register destroy handler")
	}
}

func logEvent(name string, event watcher.Event, meta watcher.Meta) {
	entry := logger.Info()
	entry.Str("target", name).Str("event", string(event))
	if event == watcher.EventImpressionComplete {
		entry.Dur("duration", meta.Duration)
	}
	entry.Msg("")
}

// recordEntries adapts the telemetry collector to the watcher's raw
// entry tap. Recording failures are logged, never fatal.
func recordEntries(ctx context.Context, collector telemetry.Collector) observer.Callback {
	var mu sync.Mutex

	return func(entries []observer.ChangeEntry) {
		mu.Lock()
		defer mu.Unlock()

		for _, entry := range entries {
			name, _ := entry.Payload.(string)
			record := &telemetry.EventRecord{
				Timestamp: entry.Timestamp,
				Target:    name,
				Label:     entry.Label,
				Ratio:     entry.Ratio,
				Entering:  entry.Entering,
				Duration:  entry.Duration,
			}
			if err := collector.Record(ctx, record); err != nil {
				logger.Error().Err(err).Msg("failed to record telemetry event")
			}
		}
	}
}
