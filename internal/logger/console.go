package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/harrison/phishdrill/internal/models"
)

// ConsoleLogger logs training progress to a writer with timestamps and thread safety.
// All output is prefixed with [HH:MM:SS] timestamps for tracking run flow.
// It supports log level filtering to control message verbosity.
// Color output is automatically enabled for terminal output (os.Stdout/os.Stderr).
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// Valid levels: trace, debug, info, warn, error (case-insensitive).
// If logLevel is empty or invalid, defaults to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

// isTerminal checks if the writer is a terminal that supports colors.
// Returns true for os.Stdout and os.Stderr when they are TTYs.
func isTerminal(w io.Writer) bool {
	if w == nil {
		return false
	}
	if w == os.Stdout || w == os.Stderr {
		// fatih/color already checked the TTY and NO_COLOR
		return !color.NoColor
	}
	return false
}

// shouldLog checks if a message at the given level should be logged.
// Returns true if messageLevel >= configured logLevel.
func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// LogTrace logs a trace-level message (most verbose).
// Format: "[HH:MM:SS] [TRACE] <message>"
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

// logWithLevel is a helper that logs a message at the specified level if filtering allows it.
func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil || !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var formatted string
	if cl.colorOutput {
		formatted = cl.formatWithColor(ts, level, message)
	} else {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, level, message)
	}

	cl.writer.Write([]byte(formatted))
}

// formatWithColor formats a log message with ANSI color codes.
func (cl *ConsoleLogger) formatWithColor(ts, level, message string) string {
	var coloredLevel string

	switch strings.ToUpper(level) {
	case "TRACE":
		coloredLevel = color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		coloredLevel = color.New(color.FgCyan).Sprint(level)
	case "INFO":
		coloredLevel = color.New(color.FgBlue).Sprint(level)
	case "WARN":
		coloredLevel = color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		coloredLevel = color.New(color.FgRed).Sprint(level)
	default:
		coloredLevel = level
	}

	return fmt.Sprintf("[%s] [%s] %s\n", ts, coloredLevel, message)
}

// write emits pre-formatted lines at INFO level, each prefixed with the timestamp.
func (cl *ConsoleLogger) write(lines ...string) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var b strings.Builder
	for _, line := range lines {
		fmt.Fprintf(&b, "[%s] %s\n", ts, line)
	}
	cl.writer.Write([]byte(b.String()))
}

// LogTrainingStart logs the population and schedule at INFO level.
// Format: "[HH:MM:SS] Starting training: <users> users x <trials> simulations every <interval>"
func (cl *ConsoleLogger) LogTrainingStart(plan TrainingPlan) {
	title := "Starting training"
	if cl.colorOutput {
		title = color.New(color.Bold).Sprint(title)
	}
	cl.write(
		fmt.Sprintf("%s: %d users x %d simulations every %s", title, plan.Users, plan.Trials, formatInterval(plan.Interval)),
		fmt.Sprintf("First exercise %s, seed %d", models.FormatTimestamp(plan.Start), plan.Seed),
	)
}

// TrialComplete logs a progress bar after every member finished trial index.
// Format: "[HH:MM:SS] Trial <i>/<n> (<date>) [=====     ] <i>/<n> (50%)"
func (cl *ConsoleLogger) TrialComplete(index, total int, ts time.Time) {
	pb := NewProgressBar(total, 20, cl.colorOutput)
	pb.Update(index + 1)
	cl.write(fmt.Sprintf("Trial %d/%d (%s) %s", index+1, total, ts.Format("2006-01-02"), pb.Render()))
}

// LogStored logs a successful write of the result table at INFO level.
func (cl *ConsoleLogger) LogStored(table string, records int, duration time.Duration) {
	stored := "Stored"
	if cl.colorOutput {
		stored = color.New(color.FgGreen).Sprint(stored)
	}
	cl.write(fmt.Sprintf("%s %d records in %s (%s)", stored, records, table, formatDuration(duration)))
}

// LogSummary logs the training summary at INFO level.
func (cl *ConsoleLogger) LogSummary(summary models.TrainingSummary) {
	var scheme *colorScheme
	if cl.colorOutput {
		scheme = newColorScheme()
	}
	cl.write(summaryLines(summary, scheme)...)
}

// NoOpLogger is a Logger implementation that discards all log messages.
// Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger instance.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (n *NoOpLogger) LogTrace(message string) {}
func (n *NoOpLogger) LogDebug(message string) {}
func (n *NoOpLogger) LogInfo(message string) {}
func (n *NoOpLogger) LogWarn(message string) {}
func (n *NoOpLogger) LogError(message string) {}
func (n *NoOpLogger) LogTrainingStart(plan TrainingPlan) {}
func (n *NoOpLogger) TrialComplete(index, total int, ts time.Time) {}
func (n *NoOpLogger) LogStored(table string, records int, duration time.Duration) {}
func (n *NoOpLogger) LogSummary(summary models.TrainingSummary) {}
