package logger

import (
	"time"

	"github.com/harrison/phishdrill/internal/models"
)

// MultiLogger fans every call out to each wrapped Logger in order.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger drops nil loggers.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	m := &MultiLogger{}
	for _, l := range loggers {
		if l != nil {
			m.loggers = append(m.loggers, l)
		}
	}
	return m
}

func (m *MultiLogger) each(fn func(Logger)) {
	for _, l := range m.loggers {
		fn(l)
	}
}

func (m *MultiLogger) LogTrace(message string) { m.each(func(l Logger) { l.LogTrace(message) }) }
func (m *MultiLogger) LogDebug(message string) { m.each(func(l Logger) { l.LogDebug(message) }) }
func (m *MultiLogger) LogInfo(message string) { m.each(func(l Logger) { l.LogInfo(message) }) }
func (m *MultiLogger) LogWarn(message string) { m.each(func(l Logger) { l.LogWarn(message) }) }
func (m *MultiLogger) LogError(message string) { m.each(func(l Logger) { l.LogError(message) }) }

func (m *MultiLogger) LogTrainingStart(plan TrainingPlan) {
	m.each(func(l Logger) { l.LogTrainingStart(plan) })
}

func (m *MultiLogger) TrialComplete(index, total int, ts time.Time) {
	m.each(func(l Logger) { l.TrialComplete(index, total, ts) })
}

func (m *MultiLogger) LogStored(table string, records int, duration time.Duration) {
	m.each(func(l Logger) { l.LogStored(table, records, duration) })
}

func (m *MultiLogger) LogSummary(summary models.TrainingSummary) {
	m.each(func(l Logger) { l.LogSummary(summary) })
}
