package components

import (
	"fmt"
	"strings"
)

// GuardOutcome records one guard's pass/fail result for summary rendering.
type GuardOutcome struct {
	Passed  bool
	Message string
}

// RunSummaryData aggregates ledger-derived counts for a run's summary box.
type RunSummaryData struct {
	StepsTotal     int
	StepsCompleted int
	Halted         bool
	Failed         bool
	Guards         []GuardOutcome
}

// Summary renders a textual run summary.
type Summary struct {
	data RunSummaryData
}

// NewSummary creates a new Summary component.
func NewSummary(data RunSummaryData) Summary {
	return Summary{data: data}
}

// View renders the summary.
func (s Summary) View() string {
	var lines []string
	if s.data.StepsTotal > 0 {
		lines = append(lines, fmt.Sprintf("Steps: %d/%d completed", s.data.StepsCompleted, s.data.StepsTotal))
	}

	switch {
	case s.data.Halted:
		lines = append(lines, "Run halted")
	case s.data.Failed:
		lines = append(lines, "Run failed")
	case s.data.StepsTotal > 0 && s.data.StepsCompleted == s.data.StepsTotal:
		lines = append(lines, "Run completed successfully")
	}

	if len(s.data.Guards) > 0 {
		lines = append(lines, "Guards:")
		for _, g := range s.data.Guards {
			status := "✗"
			if g.Passed {
				status = "✓"
			}
			lines = append(lines, fmt.Sprintf("  %s %s", status, g.Message))
		}
	}

	return strings.Join(lines, "\n")
}
