package models

import "fmt"

// Outcome is the categorical result of a single training trial.
type Outcome string

// Trial outcome constants
const (
	OutcomeSuccess Outcome = "SUCCESS" // User reported the simulated phish
	OutcomeFail    Outcome = "FAIL"    // User interacted with the simulated phish
	OutcomeMiss    Outcome = "MISS"    // User ignored the simulated phish
)

// Outcomes returns the canonical outcome set in its fixed order.
func Outcomes() []Outcome {
	return []Outcome{OutcomeSuccess, OutcomeFail, OutcomeMiss}
}

// Valid reports whether o is one of the canonical outcomes.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeSuccess, OutcomeFail, OutcomeMiss:
		return true
	default:
		return false
	}
}

// ParseOutcome converts a stored outcome string back into an Outcome.
func ParseOutcome(s string) (Outcome, error) {
	o := Outcome(s)
	if !o.Valid() {
		return "", fmt.Errorf("invalid outcome %q, must be one of: SUCCESS, FAIL, MISS", s)
	}
	return o, nil
}

func (o Outcome) String() string {
	return string(o)
}
