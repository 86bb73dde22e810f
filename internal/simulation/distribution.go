package simulation

import (
	"fmt"
	"math/rand/v2"

	"github.com/harrison/phishdrill/internal/behavior"
)

// Share is one archetype's relative weight in a Distribution.
type Share struct {
	Archetype behavior.Archetype
	Weight    int
}

// Distribution is a categorical distribution over archetypes. Order matters
// only for reproducibility of seeded draws.
type Distribution []Share

// DefaultDistribution is 70% Average, 20% SecuritySavvy, 5% EasilyDeceived
// and 5% Dummy.
func DefaultDistribution() Distribution {
	return Distribution{
		{Archetype: behavior.Average, Weight: 70},
		{Archetype: behavior.SecuritySavvy, Weight: 20},
		{Archetype: behavior.EasilyDeceived, Weight: 5},
		{Archetype: behavior.Dummy, Weight: 5},
	}
}

// DistributionFromMap builds a Distribution in behavior.Archetypes() order.
// Unknown labels are rejected.
func DistributionFromMap(weights map[string]int) (Distribution, error) {
	byArchetype := make(map[behavior.Archetype]int, len(weights))
	for label, w := range weights {
		a, err := behavior.ParseArchetype(label)
		if err != nil {
			return nil, err
		}
		byArchetype[a] = w
	}

	var d Distribution
	for _, a := range behavior.Archetypes() {
		if w, ok := byArchetype[a]; ok {
			d = append(d, Share{Archetype: a, Weight: w})
		}
	}
	return d, d.Validate()
}

// Validate requires at least one positive weight, no negative ones and a
// total of at most behavior.MaxTotalWeight.
func (d Distribution) Validate() error {
	total := 0
	for _, s := range d {
		if s.Weight < 0 {
			return fmt.Errorf("distribution weight for %s must be >= 0, got %d", s.Archetype, s.Weight)
		}
		if s.Weight > behavior.MaxTotalWeight-total {
			return fmt.Errorf("distribution weights must sum to at most %d", behavior.MaxTotalWeight)
		}
		total += s.Weight
	}
	if total == 0 {
		return fmt.Errorf("distribution must have at least one positive weight")
	}
	return nil
}

func (d Distribution) total() int {
	total := 0
	for _, s := range d {
		total += s.Weight
	}
	return total
}

// Pick draws one archetype.
func (d Distribution) Pick(rng *rand.Rand) behavior.Archetype {
	n := rng.IntN(d.total())
	for _, s := range d {
		if n < s.Weight {
			return s.Archetype
		}
		n -= s.Weight
	}
	// unreachable for a validated distribution
	return d[len(d)-1].Archetype
}
