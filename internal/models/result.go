package models

import (
	"sort"
	"time"
)

// TimestampLayout is the fixed layout used when a trial time is recorded.
const TimestampLayout = "2006-01-02 15:04:05"

// FormatTimestamp renders a trial time in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ResultRecord is the immutable outcome of one user completing one trial.
type ResultRecord struct {
	Timestamp string  `json:"timestamp" yaml:"timestamp"` // Trial time in TimestampLayout
	UserID    string  `json:"user_id" yaml:"user_id"`     // Opaque user identity
	Archetype string  `json:"type" yaml:"type"`           // Behavioral archetype label
	Name      string  `json:"name" yaml:"name"`           // Display name
	Outcome   Outcome `json:"outcome" yaml:"outcome"`     // SUCCESS, FAIL or MISS
}

// Values returns the record's fields in ResultColumns order.
func (r ResultRecord) Values() []any {
	return []any{r.Timestamp, r.UserID, r.Archetype, r.Name, string(r.Outcome)}
}

// ResultColumns are the column names a ResultSet is persisted under.
var ResultColumns = []string{"timestamp", "user_id", "type", "name", "outcome"}

// ResultSet is the flattened collection of all users' trial results.
// Records are grouped by user and ordered by trial within each user; the
// Timestamp field, not row position, carries the chronology.
type ResultSet []ResultRecord

// Len returns the number of records.
func (rs ResultSet) Len() int {
	return len(rs)
}

// OutcomeCounts tallies the records per outcome.
func (rs ResultSet) OutcomeCounts() map[Outcome]int {
	counts := make(map[Outcome]int, 3)
	for _, o := range Outcomes() {
		counts[o] = 0
	}
	for _, r := range rs {
		counts[r.Outcome]++
	}
	return counts
}

// ByUser groups records per user id, preserving their order.
func (rs ResultSet) ByUser() map[string][]ResultRecord {
	grouped := make(map[string][]ResultRecord)
	for _, r := range rs {
		grouped[r.UserID] = append(grouped[r.UserID], r)
	}
	return grouped
}

// Timestamps returns the distinct trial timestamps in ascending order.
func (rs ResultSet) Timestamps() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range rs {
		if !seen[r.Timestamp] {
			seen[r.Timestamp] = true
			out = append(out, r.Timestamp)
		}
	}
	sort.Strings(out)
	return out
}

// TrainingSummary aggregates a finished training run
type TrainingSummary struct {
	Users          int            // Number of members in the organization
	Trials         int            // Trials per member
	Records        int            // Result records produced
	Archetypes     map[string]int // Member head-count per archetype
	Outcomes       map[Outcome]int
	CommonName     string        // Most common display name
	CommonNameSeen int           // How many members share CommonName
	Duration       time.Duration // Wall time spent in the training loop
}

// SuccessRate returns the share of SUCCESS outcomes, or 0 when nothing ran.
func (s TrainingSummary) SuccessRate() float64 {
	if s.Records == 0 {
		return 0
	}
	return float64(s.Outcomes[OutcomeSuccess]) / float64(s.Records)
}
