// Package report assembles monthly aggregates and derived metrics into the STAT report.
package report

import (
	"errors"
	"fmt"
	"time"

	"github.com/shunichi-ikebuchi/statgen/pkg/calendar"
	"github.com/shunichi-ikebuchi/statgen/pkg/rules"
	"github.com/shunichi-ikebuchi/statgen/pkg/stats"
)

// ErrInvalidConfiguration is returned when a run configuration cannot produce a report.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// DefaultStartDate and DefaultMonths are used when the caller does not override them.
const (
	DefaultStartDate = "2025-02-01"
	DefaultMonths    = 6
)

// RunConfig selects the months covered by a report.
type RunConfig struct {
	Start  time.Time
	Months int
}

// NewRunConfig parses start (YYYY-MM-DD) and validates months.
func NewRunConfig(start string, months int) (RunConfig, error) {
	date, err := calendar.Parse(start)
	if err != nil {
		return RunConfig{}, fmt.Errorf("%w: start date %q: %v", ErrInvalidConfiguration, start, err)
	}
	cfg := RunConfig{Start: date, Months: months}
	if err := cfg.Validate(); err != nil {
		return RunConfig{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration describes at least one month.
func (c RunConfig) Validate() error {
	if c.Start.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrInvalidConfiguration)
	}
	if c.Months < 1 {
		return fmt.Errorf("%w: months must be at least 1, got %d", ErrInvalidConfiguration, c.Months)
	}
	return nil
}

// Anchors returns one anchor date per month, starting at Start.
func (c RunConfig) Anchors() []time.Time {
	anchors := make([]time.Time, c.Months)
	for i := range anchors {
		anchors[i] = calendar.AddMonths(c.Start, i)
	}
	return anchors
}

// Options tunes report generation without changing its result.
type Options struct {
	// Rules scores computed metrics. Nil leaves score cells empty.
	Rules *rules.Set
	// Workers bounds concurrent month aggregation. Values < 1 mean one per month.
	Workers int
}

// MonthlyRow is one labelled row with a value per requested month.
type MonthlyRow struct {
	Label  string
	Values []Cell
}

// SummaryRow is a labelled whole-period figure, optionally with an annualized projection.
type SummaryRow struct {
	Label      string
	Value      Cell
	Projection Cell
}

// ScoringRow is a named risk or trend metric. Section headers have empty Value and Score.
type ScoringRow struct {
	Metric string
	Value  Cell
	Score  Cell
}

// Report is the assembled STAT report. It is built once and never mutated.
type Report struct {
	Config     RunConfig
	Aggregates []stats.MonthlyAggregate
	Header     []Cell
	Monthly    []MonthlyRow
	Summary    []SummaryRow
	Scoring    []ScoringRow
}

// Months returns the number of month columns.
func (r *Report) Months() int {
	return len(r.Header)
}

// Width returns the column count of every grid row.
func (r *Report) Width() int {
	return r.Months() + 5
}
