package simulation

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/harrison/phishdrill/internal/behavior"
	"github.com/harrison/phishdrill/internal/models"
)

// ErrInvalidOutcome means an outcome source produced a value outside the
// canonical set. It is a programming error and callers must treat it as fatal.
var ErrInvalidOutcome = errors.New("simulation: outcome source returned an invalid outcome")

// OutcomeSource produces one outcome per trial. *behavior.Profile implements it.
type OutcomeSource interface {
	Archetype() behavior.Archetype
	Draw(rng *rand.Rand) models.Outcome
}

// Namer assigns display names to new users.
type Namer interface {
	FirstName() string
}

// NewNamer returns a seeded fake-name generator.
func NewNamer(seed uint64) Namer {
	return gofakeit.New(seed)
}

// Trainee is the capability every organization member must expose.
type Trainee interface {
	ID() string
	Name() string
	Archetype() behavior.Archetype
	RunTrial(ts time.Time) error
	CompletedCount() int
	History() []models.ResultRecord
}

// User is a simulated employee bound to one behavioral profile.
type User struct {
	id      string
	name    string
	source  OutcomeSource
	rng     *rand.Rand
	history []models.ResultRecord
}

// NewUser creates a user with a fresh id and name and an empty history.
// Ids are drawn from rng so a seeded run reproduces them.
func NewUser(source OutcomeSource, rng *rand.Rand, namer Namer) (*User, error) {
	if source == nil {
		return nil, fmt.Errorf("new user: outcome source is required")
	}
	if rng == nil {
		return nil, fmt.Errorf("new user: random source is required")
	}

	id, err := uuid.NewRandomFromReader(randReader{rng})
	if err != nil {
		return nil, fmt.Errorf("new user: generate id: %w", err)
	}

	name := "User"
	if namer != nil {
		name = namer.FirstName()
	}

	return &User{
		id:     hex.EncodeToString(id[:]),
		name:   name,
		source: source,
		rng:    rng,
	}, nil
}

// ID returns the user's opaque identifier.
func (u *User) ID() string { return u.id }

// Name returns the user's display name.
func (u *User) Name() string { return u.name }

// Archetype returns the archetype of the bound profile.
func (u *User) Archetype() behavior.Archetype { return u.source.Archetype() }

// RunTrial draws one outcome and appends it to the history.
func (u *User) RunTrial(ts time.Time) error {
	outcome := u.source.Draw(u.rng)
	if !outcome.Valid() {
		return fmt.Errorf("%w: user %s (%s) got %q", ErrInvalidOutcome, u.id, u.Archetype(), outcome)
	}

	u.history = append(u.history, models.ResultRecord{
		Timestamp: models.FormatTimestamp(ts),
		UserID:    u.id,
		Archetype: string(u.Archetype()),
		Name:      u.name,
		Outcome:   outcome,
	})
	return nil
}

// CompletedCount returns how many trials the user has completed.
func (u *User) CompletedCount() int {
	return len(u.history)
}

// History returns a copy of the user's results in trial order.
func (u *User) History() []models.ResultRecord {
	out := make([]models.ResultRecord, len(u.history))
	copy(out, u.history)
	return out
}

func (u *User) String() string {
	return fmt.Sprintf("User(id=%s, name=%s, type=%s, simulations_completed=%d)",
		u.id, u.name, u.Archetype(), u.CompletedCount())
}

// randReader adapts a *rand.Rand to io.Reader for uuid generation.
type randReader struct {
	rng *rand.Rand
}

func (r randReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(r.rng.Uint32())
	}
	return len(p), nil
}
