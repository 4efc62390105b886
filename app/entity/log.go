package entity

import "time"

const (
	LogLevelDebug = "DEBUG"
	LogLevelInfo  = "INFO"
	LogLevelWarn  = "WARN"
	LogLevelError = "ERROR"
)

// LogRecord is one telemetry event persisted by the logging service.
type LogRecord struct {
	ID          int64
	Source      string
	Type        string
	Description string
	Data        string
	CreatedAt   time.Time
}
