// Package behavior models how each user archetype responds to a simulated
// phishing exercise.
//
// An archetype is a closed variant with a fixed weight triple over the
// canonical outcomes. A Profile binds an archetype to its weights and draws
// one independent outcome per call from an explicitly supplied random source,
// so a seeded source reproduces a whole simulation.
package behavior

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/harrison/phishdrill/internal/models"
)

var (
	// ErrInvalidWeights is returned when a weight triple is negative or all zero.
	ErrInvalidWeights = errors.New("behavior: invalid weights")

	// ErrUnknownArchetype is returned for a label outside the archetype set.
	ErrUnknownArchetype = errors.New("behavior: unknown archetype")
)

// MaxTotalWeight bounds the sum of a weight triple or of a distribution.
const MaxTotalWeight = math.MaxInt32

// Archetype is a named behavioral category.
type Archetype string

// Archetype variants
const (
	Average        Archetype = "Average"        // Knows about phishing, rarely engages with training
	SecuritySavvy  Archetype = "SecuritySavvy"  // Reports almost every simulation
	EasilyDeceived Archetype = "EasilyDeceived" // Falls for most simulations
	Dummy          Archetype = "Dummy"          // Uniformly random baseline
)

// Weights are relative outcome weights. They need not sum to 100.
type Weights struct {
	Success int `yaml:"success"`
	Fail    int `yaml:"fail"`
	Miss    int `yaml:"miss"`
}

// Total returns the normalization base of the triple.
func (w Weights) Total() int {
	return w.Success + w.Fail + w.Miss
}

// Validate rejects negative weights, an all-zero triple and a sum above
// MaxTotalWeight.
func (w Weights) Validate() error {
	if w.Success < 0 || w.Fail < 0 || w.Miss < 0 {
		return fmt.Errorf("%w: weights must be >= 0, got success=%d fail=%d miss=%d",
			ErrInvalidWeights, w.Success, w.Fail, w.Miss)
	}
	total := 0
	for _, v := range []int{w.Success, w.Fail, w.Miss} {
		if v > MaxTotalWeight-total {
			return fmt.Errorf("%w: weights must sum to at most %d", ErrInvalidWeights, MaxTotalWeight)
		}
		total += v
	}
	if total == 0 {
		return fmt.Errorf("%w: at least one weight must be > 0", ErrInvalidWeights)
	}
	return nil
}

// Probability returns the expected share of outcome o under w.
func (w Weights) Probability(o models.Outcome) float64 {
	total := w.Total()
	if total == 0 {
		return 0
	}
	switch o {
	case models.OutcomeSuccess:
		return float64(w.Success) / float64(total)
	case models.OutcomeFail:
		return float64(w.Fail) / float64(total)
	case models.OutcomeMiss:
		return float64(w.Miss) / float64(total)
	default:
		return 0
	}
}

var builtin = map[Archetype]Weights{
	Average:        {Success: 35, Fail: 5, Miss: 60},
	SecuritySavvy:  {Success: 98, Fail: 1, Miss: 1},
	EasilyDeceived: {Success: 10, Fail: 80, Miss: 10},
	Dummy:          {Success: 1, Fail: 1, Miss: 1},
}

// Archetypes returns every variant in declaration order.
func Archetypes() []Archetype {
	return []Archetype{Average, SecuritySavvy, EasilyDeceived, Dummy}
}

// ParseArchetype resolves a label case-insensitively.
func ParseArchetype(s string) (Archetype, error) {
	for _, a := range Archetypes() {
		if strings.EqualFold(string(a), strings.TrimSpace(s)) {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownArchetype, s)
}

// DefaultWeights returns the built-in triple for a.
func DefaultWeights(a Archetype) (Weights, error) {
	w, ok := builtin[a]
	if !ok {
		return Weights{}, fmt.Errorf("%w: %q", ErrUnknownArchetype, a)
	}
	return w, nil
}

// Profile draws outcomes for one archetype. It holds no mutable state.
type Profile struct {
	archetype Archetype
	weights   Weights
}

// NewProfile validates weights and binds them to an archetype.
func NewProfile(a Archetype, w Weights) (*Profile, error) {
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("profile %s: %w", a, err)
	}
	return &Profile{archetype: a, weights: w}, nil
}

// ProfileFor returns the built-in profile for an archetype.
func ProfileFor(a Archetype) (*Profile, error) {
	w, err := DefaultWeights(a)
	if err != nil {
		return nil, err
	}
	return NewProfile(a, w)
}

// Archetype returns the variant this profile models.
func (p *Profile) Archetype() Archetype {
	return p.archetype
}

// Weights returns the profile's weight triple.
func (p *Profile) Weights() Weights {
	return p.weights
}

// Draw returns one outcome, selected independently according to the weights.
func (p *Profile) Draw(rng *rand.Rand) models.Outcome {
	n := rng.IntN(p.weights.Total())
	if n < p.weights.Success {
		return models.OutcomeSuccess
	}
	n -= p.weights.Success
	if n < p.weights.Fail {
		return models.OutcomeFail
	}
	return models.OutcomeMiss
}
