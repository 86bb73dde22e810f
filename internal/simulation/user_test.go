package simulation

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/harrison/phishdrill/internal/behavior"
	"github.com/harrison/phishdrill/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedSource always returns the same outcome.
type fixedSource struct {
	archetype behavior.Archetype
	outcome   models.Outcome
}

func (f fixedSource) Archetype() behavior.Archetype { return f.archetype }
func (f fixedSource) Draw(*rand.Rand) models.Outcome { return f.outcome }

type staticNamer string

func (n staticNamer) FirstName() string { return string(n) }

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func TestNewUser(t *testing.T) {
	src := fixedSource{archetype: behavior.Dummy, outcome: models.OutcomeSuccess}

	u, err := NewUser(src, testRand(), staticNamer("Ada"))
	require.NoError(t, err)
	assert.Len(t, u.ID(), 32)
	assert.Equal(t, "Ada", u.Name())
	assert.Equal(t, behavior.Dummy, u.Archetype())
	assert.Zero(t, u.CompletedCount())
	assert.Empty(t, u.History())

	_, err = NewUser(nil, testRand(), nil)
	assert.Error(t, err)
	_, err = NewUser(src, nil, nil)
	assert.Error(t, err)
}

func TestNewUser_UniqueIDs(t *testing.T) {
	rng := testRand()
	src := fixedSource{archetype: behavior.Dummy, outcome: models.OutcomeMiss}
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		u, err := NewUser(src, rng, nil)
		require.NoError(t, err)
		require.False(t, seen[u.ID()], "duplicate id %s", u.ID())
		seen[u.ID()] = true
	}
}

func TestUser_RunTrial(t *testing.T) {
	src := fixedSource{archetype: behavior.SecuritySavvy, outcome: models.OutcomeFail}
	u, err := NewUser(src, testRand(), staticNamer("Grace"))
	require.NoError(t, err)

	ts := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, u.RunTrial(ts))
	require.NoError(t, u.RunTrial(ts.Add(24*time.Hour)))

	assert.Equal(t, 2, u.CompletedCount())
	history := u.History()
	require.Len(t, history, 2)
	assert.Equal(t, models.ResultRecord{
		Timestamp: "2024-03-01 09:30:00",
		UserID:    u.ID(),
		Archetype: "SecuritySavvy",
		Name:      "Grace",
		Outcome:   models.OutcomeFail,
	}, history[0])
	assert.Equal(t, "2024-03-02 09:30:00", history[1].Timestamp)
}

func TestUser_RunTrialRejectsInvalidOutcome(t *testing.T) {
	src := fixedSource{archetype: behavior.Dummy, outcome: models.Outcome("MAYBE")}
	u, err := NewUser(src, testRand(), nil)
	require.NoError(t, err)

	err = u.RunTrial(time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidOutcome)
	assert.Zero(t, u.CompletedCount(), "invalid outcome must not be recorded")
}

func TestUser_HistoryIsACopy(t *testing.T) {
	src := fixedSource{archetype: behavior.Dummy, outcome: models.OutcomeSuccess}
	u, err := NewUser(src, testRand(), nil)
	require.NoError(t, err)
	require.NoError(t, u.RunTrial(time.Now()))

	h := u.History()
	h[0].Outcome = models.OutcomeFail
	assert.Equal(t, models.OutcomeSuccess, u.History()[0].Outcome)
}

func TestNewNamer_Seeded(t *testing.T) {
	a, b := NewNamer(99), NewNamer(99)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.FirstName(), b.FirstName())
	}
}
