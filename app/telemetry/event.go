package telemetry

import "time"

// Event is one log record shipped to the logging service.
type Event struct {
	Source  string
	Level   string
	Message string
	Data    string
	Time    time.Time
}

// Sink accepts events without blocking the caller. Delivery is best effort.
type Sink interface {
	Emit(Event)
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) Emit(Event) {}
