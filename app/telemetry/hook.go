package telemetry

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-mailqueue/app/entity"
)

// Hook forwards logrus entries at or above a level to a Sink.
type Hook struct {
	sink   Sink
	source string
	levels []logrus.Level
}

// NewHook forwards entries of minLevel and more severe levels.
func NewHook(sink Sink, source string, minLevel logrus.Level) *Hook {
	var levels []logrus.Level
	for _, l := range logrus.AllLevels {
		if l <= minLevel {
			levels = append(levels, l)
		}
	}
	return &Hook{sink: sink, source: source, levels: levels}
}

func (h *Hook) Levels() []logrus.Level {
	return h.levels
}

func (h *Hook) Fire(entry *logrus.Entry) error {
	h.sink.Emit(Event{
		Source:  h.source,
		Level:   levelName(entry.Level),
		Message: entry.Message,
		Data:    encodeFields(entry.Data),
		Time:    entry.Time,
	})
	return nil
}

func levelName(l logrus.Level) string {
	switch l {
	case logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel:
		return entity.LogLevelError
	case logrus.WarnLevel:
		return entity.LogLevelWarn
	case logrus.InfoLevel:
		return entity.LogLevelInfo
	default:
		return entity.LogLevelDebug
	}
}

func encodeFields(fields logrus.Fields) string {
	if len(fields) == 0 {
		return ""
	}
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if err, ok := v.(error); ok {
			out[k] = err.Error()
			continue
		}
		out[k] = v
	}
	b, err := json.Marshal(out)
	if err != nil {
		return fmt.Sprint(out)
	}
	return string(b)
}
