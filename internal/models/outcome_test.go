package models

import (
	"testing"
)

func TestOutcomeValid(t *testing.T) {
	tests := []struct {
		outcome Outcome
		want    bool
	}{
		{OutcomeSuccess, true},
		{OutcomeFail, true},
		{OutcomeMiss, true},
		{Outcome("success"), false},
		{Outcome(""), false},
		{Outcome("SKIPPED"), false},
	}

	for _, tt := range tests {
		if got := tt.outcome.Valid(); got != tt.want {
			t.Errorf("Outcome(%q).Valid() = %v, want %v", tt.outcome, got, tt.want)
		}
	}
}

func TestParseOutcome(t *testing.T) {
	for _, o := range Outcomes() {
		got, err := ParseOutcome(o.String())
		if err != nil {
			t.Fatalf("ParseOutcome(%q) returned error: %v", o, err)
		}
		if got != o {
			t.Errorf("ParseOutcome(%q) = %q", o, got)
		}
	}

	if _, err := ParseOutcome("fail"); err == nil {
		t.Error("ParseOutcome should reject lowercase labels")
	}
}

func TestOutcomesOrder(t *testing.T) {
	got := Outcomes()
	want := []Outcome{OutcomeSuccess, OutcomeFail, OutcomeMiss}
	if len(got) != len(want) {
		t.Fatalf("Outcomes() returned %d outcomes, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Outcomes()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
