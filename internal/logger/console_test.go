package logger

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/harrison/phishdrill/internal/models"
)

func sampleSummary() models.TrainingSummary {
	return models.TrainingSummary{
		Users:          4,
		Trials:         2,
		Records:        8,
		Archetypes:     map[string]int{"Dummy": 1, "Average": 3},
		Outcomes:       map[models.Outcome]int{models.OutcomeSuccess: 2, models.OutcomeFail: 1, models.OutcomeMiss: 5},
		CommonName:     "Ada",
		CommonNameSeen: 2,
		Duration:       1500 * time.Millisecond,
	}
}

// TestNewConsoleLogger verifies the constructor stores the writer and normalizes the level.
func TestNewConsoleLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, " DEBUG ")
	if logger.writer != buf {
		t.Error("writer not set correctly")
	}
	if logger.logLevel != "debug" {
		t.Errorf("expected log level %q, got %q", "debug", logger.logLevel)
	}
	if logger.colorOutput {
		t.Error("color should be disabled for a non-terminal writer")
	}

	if got := NewConsoleLogger(buf, "loud").logLevel; got != "info" {
		t.Errorf("invalid level should default to info, got %q", got)
	}
}

// TestConsoleLogger_NilWriter verifies nothing panics without a writer.
func TestConsoleLogger_NilWriter(t *testing.T) {
	logger := NewConsoleLogger(nil, "trace")
	logger.LogInfo("dropped")
	logger.LogTrainingStart(TrainingPlan{Users: 1, Trials: 1, Interval: time.Hour})
	logger.TrialComplete(0, 1, time.Now())
	logger.LogSummary(sampleSummary())
}

// TestConsoleLogger_LevelFiltering verifies messages below the configured level are dropped.
func TestConsoleLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		level    string
		expected []string
		dropped  []string
	}{
		{"trace", []string{"[TRACE] t", "[DEBUG] d", "[INFO] i", "[WARN] w", "[ERROR] e"}, nil},
		{"info", []string{"[INFO] i", "[WARN] w", "[ERROR] e"}, []string{"[TRACE]", "[DEBUG]"}},
		{"error", []string{"[ERROR] e"}, []string{"[TRACE]", "[DEBUG]", "[INFO]", "[WARN]"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := NewConsoleLogger(buf, tt.level)
			logger.LogTrace("t")
			logger.LogDebug("d")
			logger.LogInfo("i")
			logger.LogWarn("w")
			logger.LogError("e")

			out := buf.String()
			for _, want := range tt.expected {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
			for _, unwanted := range tt.dropped {
				if strings.Contains(out, unwanted) {
					t.Errorf("output should not contain %q:\n%s", unwanted, out)
				}
			}
		})
	}
}

// TestConsoleLogger_TimestampPrefix verifies the [HH:MM:SS] prefix.
func TestConsoleLogger_TimestampPrefix(t *testing.T) {
	buf := &bytes.Buffer{}
	NewConsoleLogger(buf, "info").LogInfo("hello")

	line := buf.String()
	if len(line) < 10 || line[0] != '[' || line[9] != ']' {
		t.Fatalf("expected [HH:MM:SS] prefix, got %q", line)
	}
	if _, err := time.Parse("15:04:05", line[1:9]); err != nil {
		t.Errorf("prefix %q is not a time: %v", line[1:9], err)
	}
}

func TestConsoleLogger_LogTrainingStart(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")
	logger.LogTrainingStart(TrainingPlan{
		Users:    100,
		Trials:   12,
		Interval: 7 * 24 * time.Hour,
		Start:    time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		Seed:     42,
	})

	out := buf.String()
	for _, want := range []string{
		"Starting training: 100 users x 12 simulations every 7d",
		"First exercise 2024-01-01 09:00:00, seed 42",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConsoleLogger_TrialComplete(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")
	logger.TrialComplete(1, 4, time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC))

	want := "Trial 2/4 (2024-01-08) [==========          ] 2/4 (50%)"
	if !strings.Contains(buf.String(), want) {
		t.Errorf("expected %q in %q", want, buf.String())
	}
}

func TestConsoleLogger_TrialCompleteSuppressedAtWarn(t *testing.T) {
	buf := &bytes.Buffer{}
	NewConsoleLogger(buf, "warn").TrialComplete(0, 1, time.Now())
	if buf.Len() != 0 {
		t.Errorf("expected no output at warn level, got %q", buf.String())
	}
}

func TestConsoleLogger_LogStored(t *testing.T) {
	buf := &bytes.Buffer{}
	NewConsoleLogger(buf, "info").LogStored("training_result", 1200, 250*time.Millisecond)
	if !strings.Contains(buf.String(), "Stored 1200 records in training_result (250ms)") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestConsoleLogger_LogSummary(t *testing.T) {
	buf := &bytes.Buffer{}
	NewConsoleLogger(buf, "info").LogSummary(sampleSummary())

	out := buf.String()
	for _, want := range []string{
		"=== Training Summary ===",
		"Users: 4",
		"Simulations: 2",
		"Records: 8",
		"Archetypes: Average=3, Dummy=1",
		"Outcomes: SUCCESS=2, FAIL=1, MISS=5",
		"Success rate: 25.0%",
		"Most common name: Ada (x2)",
		"Duration: 1s",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

// TestConsoleLogger_ConcurrentWrites verifies lines are never interleaved.
func TestConsoleLogger_ConcurrentWrites(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.LogInfo("concurrent message")
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 50 {
		t.Fatalf("expected 50 lines, got %d", len(lines))
	}
	for _, line := range lines {
		if !strings.HasSuffix(line, "[INFO] concurrent message") {
			t.Errorf("malformed line %q", line)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{250 * time.Millisecond, "250ms"},
		{5 * time.Second, "5s"},
		{90 * time.Second, "1m30s"},
		{2 * time.Minute, "2m"},
		{2*time.Hour + 15*time.Minute, "2h15m"},
		{3 * time.Hour, "3h"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.in); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatInterval(t *testing.T) {
	if got := formatInterval(14 * 24 * time.Hour); got != "14d" {
		t.Errorf("formatInterval(14 days) = %q", got)
	}
	if got := formatInterval(90 * time.Minute); got != "1h30m0s" {
		t.Errorf("formatInterval(90m) = %q", got)
	}
}

func TestNoOpLogger(t *testing.T) {
	var l Logger = NewNoOpLogger()
	l.LogInfo("ignored")
	l.TrialComplete(0, 1, time.Now())
	l.LogSummary(sampleSummary())
}
