package logger

import (
	"strings"
	"sync"
	"testing"
)

// TestProgressBarRender verifies correct ASCII bar rendering
func TestProgressBarRender(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		total    int
		width    int
		expected string
	}{
		{"empty progress", 0, 10, 10, "[          ] 0/10 (0%)"},
		{"half progress", 5, 10, 10, "[=====     ] 5/10 (50%)"},
		{"full progress", 10, 10, 10, "[==========] 10/10 (100%)"},
		{"quarter progress", 2, 8, 8, "[==      ] 2/8 (25%)"},
		{"large width", 30, 100, 20, "[======              ] 30/100 (30%)"},
		{"overflow is clamped", 12, 10, 10, "[==========] 12/10 (100%)"},
		{"zero total", 0, 0, 4, "[    ] 0/0 (0%)"},
		{"invalid width falls back to 10", 1, 2, 0, "[=====     ] 1/2 (50%)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pb := NewProgressBar(tt.total, tt.width, false)
			pb.Update(tt.current)
			if got := pb.Render(); got != tt.expected {
				t.Errorf("Render() = %q, want %q", got, tt.expected)
			}
		})
	}
}

// TestProgressBarConcurrentIncrement verifies the bar is safe for concurrent use
func TestProgressBarConcurrentIncrement(t *testing.T) {
	pb := NewProgressBar(100, 10, false)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pb.Increment()
			_ = pb.Render()
		}()
	}
	wg.Wait()

	if pb.Current() != 100 {
		t.Errorf("Current() = %d, want 100", pb.Current())
	}
	if pb.Percentage() != 100 {
		t.Errorf("Percentage() = %d, want 100", pb.Percentage())
	}
}

// TestProgressBarColor verifies color codes only when enabled and supported
func TestProgressBarColor(t *testing.T) {
	pb := NewProgressBar(4, 4, false)
	pb.Update(2)
	if strings.Contains(pb.Render(), "\x1b[") {
		t.Error("Render() should not contain ANSI codes when color is disabled")
	}
}
