package logger

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/harrison/phishdrill/internal/behavior"
	"github.com/harrison/phishdrill/internal/models"
)

// colorScheme defines consistent colors for outcome metrics.
// Green: SUCCESS (reported)
// Red: FAIL (fell for it)
// Yellow: MISS (ignored)
// Cyan: labels
type colorScheme struct {
	success *color.Color
	fail    *color.Color
	miss    *color.Color
	label   *color.Color
	header  *color.Color
}

// newColorScheme creates the standard color scheme for metrics.
func newColorScheme() *colorScheme {
	return &colorScheme{
		success: color.New(color.FgGreen),
		fail:    color.New(color.FgRed),
		miss:    color.New(color.FgYellow),
		label:   color.New(color.FgCyan),
		header:  color.New(color.Bold),
	}
}

// outcome colors an outcome metric; a nil scheme renders plain text.
func (s *colorScheme) outcome(o models.Outcome, text string) string {
	if s == nil {
		return text
	}
	switch o {
	case models.OutcomeSuccess:
		return s.success.Sprint(text)
	case models.OutcomeFail:
		return s.fail.Sprint(text)
	case models.OutcomeMiss:
		return s.miss.Sprint(text)
	default:
		return text
	}
}

func (s *colorScheme) labelText(text string) string {
	if s == nil {
		return text
	}
	return s.label.Sprint(text)
}

func (s *colorScheme) headerText(text string) string {
	if s == nil {
		return text
	}
	return s.header.Sprint(text)
}

// summaryLines renders a training summary, one entry per output line.
func summaryLines(summary models.TrainingSummary, scheme *colorScheme) []string {
	lines := []string{
		scheme.headerText("=== Training Summary ==="),
		fmt.Sprintf("%s: %d", scheme.labelText("Users"), summary.Users),
		fmt.Sprintf("%s: %d", scheme.labelText("Simulations"), summary.Trials),
		fmt.Sprintf("%s: %d", scheme.labelText("Records"), summary.Records),
	}

	if len(summary.Archetypes) > 0 {
		lines = append(lines, fmt.Sprintf("%s: %s", scheme.labelText("Archetypes"), formatArchetypes(summary.Archetypes)))
	}

	var outcomes []string
	for _, o := range models.Outcomes() {
		outcomes = append(outcomes, scheme.outcome(o, fmt.Sprintf("%s=%d", o, summary.Outcomes[o])))
	}
	lines = append(lines, fmt.Sprintf("%s: %s", scheme.labelText("Outcomes"), strings.Join(outcomes, ", ")))
	lines = append(lines, fmt.Sprintf("%s: %.1f%%", scheme.labelText("Success rate"), summary.SuccessRate()*100))

	if summary.CommonNameSeen > 0 {
		lines = append(lines, fmt.Sprintf("%s: %s (x%d)", scheme.labelText("Most common name"), summary.CommonName, summary.CommonNameSeen))
	}
	lines = append(lines, fmt.Sprintf("%s: %s", scheme.labelText("Duration"), formatDuration(summary.Duration)))
	return lines
}

// formatArchetypes lists head-counts in declaration order, then any
// unrecognized labels alphabetically.
func formatArchetypes(counts map[string]int) string {
	var parts []string
	seen := make(map[string]bool)
	for _, a := range behavior.Archetypes() {
		label := string(a)
		seen[label] = true
		if n, ok := counts[label]; ok {
			parts = append(parts, fmt.Sprintf("%s=%d", label, n))
		}
	}

	var extra []string
	for label := range counts {
		if !seen[label] {
			extra = append(extra, label)
		}
	}
	sort.Strings(extra)
	for _, label := range extra {
		parts = append(parts, fmt.Sprintf("%s=%d", label, counts[label]))
	}
	return strings.Join(parts, ", ")
}
