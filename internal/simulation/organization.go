// Package simulation builds a population of simulated users and drives the
// repeated phishing-training loop over it.
//
// An Organization is built once with a fixed membership. RunTraining walks
// trial indexes in the outer loop and members in creation order in the inner
// loop, so every member receives the same timestamp for a given trial.
// CollectResults flattens the members' histories user by user.
package simulation

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"reflect"
	"strings"
	"time"

	"github.com/harrison/phishdrill/internal/behavior"
	"github.com/harrison/phishdrill/internal/models"
)

var (
	// ErrInvalidOptions is returned for counts or intervals that cannot run.
	ErrInvalidOptions = errors.New("simulation: invalid options")

	// ErrInvalidMember is returned when population generation yields a
	// member that cannot run trials.
	ErrInvalidMember = errors.New("simulation: member does not implement trial execution")
)

// MemberFactory creates one organization member for an archetype.
type MemberFactory func(a behavior.Archetype) (Trainee, error)

// TrialObserver is notified after every member finished trial index.
type TrialObserver interface {
	TrialComplete(index, total int, ts time.Time)
}

// Options configures NewOrganization.
type Options struct {
	Users    int           // Number of members to generate
	Trials   int           // Trials each member runs
	Interval time.Duration // Time between successive trials
	Start    time.Time     // Time of trial 0; zero means time.Now()
	Seed     uint64        // Seed for archetype, outcome, id and name draws

	// Distribution over archetypes; nil means DefaultDistribution.
	Distribution Distribution

	// Weights overrides built-in profile weights per archetype.
	Weights map[behavior.Archetype]behavior.Weights

	// Factory overrides member creation; nil builds *User members.
	Factory MemberFactory

	Observer TrialObserver
}

// Organization is a fixed population of simulated users.
type Organization struct {
	userCount     int
	trialCount    int
	trialInterval time.Duration
	startTime     time.Time
	members       []Trainee
	observer      TrialObserver
	lastRun       time.Duration
}

// NewOrganization generates the population and checks that every member
// exposes trial execution.
func NewOrganization(opts Options) (*Organization, error) {
	if opts.Users < 0 {
		return nil, fmt.Errorf("%w: users must be >= 0, got %d", ErrInvalidOptions, opts.Users)
	}
	if opts.Trials < 0 {
		return nil, fmt.Errorf("%w: trials must be >= 0, got %d", ErrInvalidOptions, opts.Trials)
	}
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("%w: interval must be > 0, got %v", ErrInvalidOptions, opts.Interval)
	}

	dist := opts.Distribution
	if dist == nil {
		dist = DefaultDistribution()
	}
	if err := dist.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}

	start := opts.Start
	if start.IsZero() {
		start = time.Now()
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	factory := opts.Factory
	if factory == nil {
		var err error
		factory, err = userFactory(rng, NewNamer(opts.Seed), opts.Weights)
		if err != nil {
			return nil, err
		}
	}

	members := make([]Trainee, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		archetype := dist.Pick(rng)
		member, err := factory(archetype)
		if err != nil {
			return nil, fmt.Errorf("create member %d (%s): %w", i, archetype, err)
		}
		members = append(members, member)
	}

	for i, m := range members {
		if isNilMember(m) {
			return nil, fmt.Errorf("%w: member %d", ErrInvalidMember, i)
		}
	}

	return &Organization{
		userCount:     opts.Users,
		trialCount:    opts.Trials,
		trialInterval: opts.Interval,
		startTime:     start,
		members:       members,
		observer:      opts.Observer,
	}, nil
}

// userFactory builds *User members sharing one random source and namer.
func userFactory(rng *rand.Rand, namer Namer, overrides map[behavior.Archetype]behavior.Weights) (MemberFactory, error) {
	profiles := make(map[behavior.Archetype]*behavior.Profile)
	for _, a := range behavior.Archetypes() {
		w, err := behavior.DefaultWeights(a)
		if err != nil {
			return nil, err
		}
		if o, ok := overrides[a]; ok {
			w = o
		}
		p, err := behavior.NewProfile(a, w)
		if err != nil {
			return nil, err
		}
		profiles[a] = p
	}

	return func(a behavior.Archetype) (Trainee, error) {
		p, ok := profiles[a]
		if !ok {
			return nil, fmt.Errorf("%w: %q", behavior.ErrUnknownArchetype, a)
		}
		return NewUser(p, rng, namer)
	}, nil
}

func isNilMember(m Trainee) bool {
	if m == nil {
		return true
	}
	v := reflect.ValueOf(m)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// RunTraining runs every trial for every member, strictly sequentially.
func (o *Organization) RunTraining() error {
	began := time.Now()
	for i := 0; i < o.trialCount; i++ {
		ts := o.TrialTime(i)
		for _, m := range o.members {
			if err := m.RunTrial(ts); err != nil {
				return fmt.Errorf("trial %d for user %s: %w", i, m.ID(), err)
			}
		}
		if o.observer != nil {
			o.observer.TrialComplete(i, o.trialCount, ts)
		}
	}
	o.lastRun = time.Since(began)
	return nil
}

// TrialTime returns the timestamp shared by every member for trial index i.
func (o *Organization) TrialTime(i int) time.Time {
	return o.startTime.Add(time.Duration(i) * o.trialInterval)
}

// CollectResults concatenates every member's history in member order.
func (o *Organization) CollectResults() models.ResultSet {
	results := make(models.ResultSet, 0, o.userCount*o.trialCount)
	for _, m := range o.members {
		results = append(results, m.History()...)
	}
	return results
}

// Members returns the population in creation order.
func (o *Organization) Members() []Trainee {
	out := make([]Trainee, len(o.members))
	copy(out, o.members)
	return out
}

// UserCount returns the number of members.
func (o *Organization) UserCount() int { return o.userCount }

// TrialCount returns the number of trials per member.
func (o *Organization) TrialCount() int { return o.trialCount }

// TrialInterval returns the time between successive trials.
func (o *Organization) TrialInterval() time.Duration { return o.trialInterval }

// StartTime returns the time of trial 0.
func (o *Organization) StartTime() time.Time { return o.startTime }

// Summary aggregates head-counts and outcomes of the current results.
func (o *Organization) Summary() models.TrainingSummary {
	results := o.CollectResults()
	summary := models.TrainingSummary{
		Users:      o.userCount,
		Trials:     o.trialCount,
		Records:    len(results),
		Archetypes: make(map[string]int),
		Outcomes:   results.OutcomeCounts(),
		Duration:   o.lastRun,
	}
	for _, m := range o.members {
		summary.Archetypes[string(m.Archetype())]++
	}
	summary.CommonName, summary.CommonNameSeen = o.mostCommonName()
	return summary
}

// mostCommonName gives ties to the name that reached the count first.
func (o *Organization) mostCommonName() (string, int) {
	counts := make(map[string]int)
	var best string
	bestCount := 0
	for _, m := range o.members {
		counts[m.Name()]++
		if c := counts[m.Name()]; c > bestCount {
			best, bestCount = m.Name(), c
		}
	}
	return best, bestCount
}

func (o *Organization) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Organization(users=%d, simulations=%d, training_interval=%s",
		o.userCount, o.trialCount, o.trialInterval)
	if name, n := o.mostCommonName(); n > 0 {
		fmt.Fprintf(&b, ", most_common_name=%s x%d", name, n)
	}
	b.WriteString(")")
	return b.String()
}
