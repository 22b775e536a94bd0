package telemetry

import (
	"context"
	"time"
)

// Collector defines the core domain interface
type Collector interface {
	Record(ctx context.Context, event *EventRecord) error
	Close() error
}

// Repository defines the interface for event storage
type Repository interface {
	Record(event *EventRecord) error
	Close() error
}

// EventRecord is one persisted visibility transition
type EventRecord struct {
	Timestamp time.Time
	Target    string
	Label     string
	Ratio     float64
	Entering  bool
	Duration  time.Duration
}
