package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func readRunLog(t *testing.T, fl *FileLogger) string {
	t.Helper()
	data, err := os.ReadFile(fl.Path())
	if err != nil {
		t.Fatalf("failed to read run log: %v", err)
	}
	return string(data)
}

// TestFileLogger_CreatesRunLogAndSymlink verifies the per-run file and latest.log symlink
func TestFileLogger_CreatesRunLogAndSymlink(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), "nested", "logs")

	fl, err := NewFileLoggerWithDir(logDir)
	if err != nil {
		t.Fatalf("NewFileLoggerWithDir() error = %v", err)
	}
	defer fl.Close()

	base := filepath.Base(fl.Path())
	if !strings.HasPrefix(base, "run-") || !strings.HasSuffix(base, ".log") {
		t.Errorf("unexpected run log name %q", base)
	}

	target, err := os.Readlink(filepath.Join(logDir, "latest.log"))
	if err != nil {
		t.Fatalf("latest.log is not a symlink: %v", err)
	}
	if target != base {
		t.Errorf("latest.log -> %q, want %q", target, base)
	}

	if !strings.Contains(readRunLog(t, fl), "=== phishdrill Run Log ===") {
		t.Error("run log is missing its header")
	}
}

// TestFileLogger_ReplacesStaleSymlink verifies an existing latest.log is repointed
func TestFileLogger_ReplacesStaleSymlink(t *testing.T) {
	logDir := t.TempDir()
	if err := os.Symlink("run-old.log", filepath.Join(logDir, "latest.log")); err != nil {
		t.Fatal(err)
	}

	fl, err := NewFileLoggerWithDir(logDir)
	if err != nil {
		t.Fatalf("NewFileLoggerWithDir() error = %v", err)
	}
	defer fl.Close()

	target, err := os.Readlink(filepath.Join(logDir, "latest.log"))
	if err != nil {
		t.Fatal(err)
	}
	if target != filepath.Base(fl.Path()) {
		t.Errorf("latest.log -> %q, want current run", target)
	}
}

// TestFileLogger_TrainingEvents verifies domain events are written without colors
func TestFileLogger_TrainingEvents(t *testing.T) {
	fl, err := NewFileLoggerWithDirAndLevel(t.TempDir(), "debug")
	if err != nil {
		t.Fatalf("NewFileLoggerWithDirAndLevel() error = %v", err)
	}
	defer fl.Close()

	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	fl.LogTrainingStart(TrainingPlan{Users: 4, Trials: 2, Interval: 7 * 24 * time.Hour, Start: start, Seed: 7})
	fl.TrialComplete(0, 2, start)
	fl.TrialComplete(1, 2, start.AddDate(0, 0, 7))
	fl.LogStored("training_result", 8, 10*time.Millisecond)
	fl.LogSummary(sampleSummary())
	fl.LogDebug("debug detail")
	fl.LogTrace("trace detail")

	out := readRunLog(t, fl)
	for _, want := range []string{
		"Starting training: 4 users x 2 simulations every 7d",
		"Trial 1/2 complete at 2024-01-01 09:00:00",
		"Trial 2/2 complete at 2024-01-08 09:00:00",
		"Stored 8 records in training_result (10ms)",
		"Outcomes: SUCCESS=2, FAIL=1, MISS=5",
		"[DEBUG] debug detail",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("run log missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "trace detail") {
		t.Error("trace message should be filtered at debug level")
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("run log should not contain ANSI codes")
	}
}

// TestFileLogger_CloseIsIdempotent verifies writes after Close are dropped
func TestFileLogger_CloseIsIdempotent(t *testing.T) {
	fl, err := NewFileLoggerWithDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := fl.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := fl.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	fl.LogInfo("after close")
}
