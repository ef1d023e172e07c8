package core

import (
	"fmt"
	"math"
	"sort"
)

// scaleTolerance is how far the last cumulative bound may deviate from the
// schedule scale before the table is rejected.
const scaleTolerance = 1e-6

// Outcome is one entry of a cumulative-probability table: a destination
// category together with its cumulative upper bound. Bounds within a window
// are strictly increasing and the last bound equals the schedule scale.
type Outcome struct {
	Category   string
	UpperBound float64
}

// TimeWindow holds the outcome table in force while Start <= t < End.
// Windows of a schedule are ordered and may leave gaps; a gap maps to the
// schedule's default outcome.
type TimeWindow struct {
	Start    float64
	End      float64
	Outcomes []Outcome
}

// DefaultOutcome describes what the policy does when no window contains the
// current time: stay put, or head for a designated label.
type DefaultOutcome struct {
	Stay  bool
	Label string
}

// Schedule is the data form of a destination policy: a list of time windows
// with outcome tables, a category to concrete-labels mapping, and the
// sticky-terminal parameters. Per-scenario movement variants differ only
// in these numbers, so they collapse into this one value.
type Schedule struct {
	// Scale is the value the last bound of every table must reach:
	// 1.0 for fraction tables, 100 for percentage tables.
	Scale float64

	Windows []TimeWindow
	Default DefaultOutcome

	// Categories maps a drawn category to its equivalent concrete labels
	// ("tutorial" covers tutorial1..tutorial4). A category absent from the map
	// is taken to be a concrete label itself.
	Categories map[string][]string

	// Initial is the outcome table for placing agents at setup time.
	// Empty means agents start on their route's first stop.
	Initial []Outcome

	// NoReturnAfter is the clock threshold past which an agent standing at
	// an egress label goes sticky. Zero disables the override.
	NoReturnAfter float64

	// EgressLabels are the building exits for the sticky-terminal rule.
	EgressLabels []string
}

// Validate checks the schedule invariants and returns ErrConfig on the first
// violation. It is called once at load time so a bad scenario never starts.
func (s *Schedule) Validate() error {
	if s.Scale <= 0 {
		return fmt.Errorf("%w: schedule scale must be positive, got %g", ErrConfig, s.Scale)
	}
	if len(s.Windows) == 0 {
		return fmt.Errorf("%w: schedule has no time windows", ErrConfig)
	}
	for i, w := range s.Windows {
		if w.End <= w.Start {
			return fmt.Errorf("%w: window %d: end %g not after start %g", ErrConfig, i, w.End, w.Start)
		}
		if err := validateTable(w.Outcomes, s.Scale); err != nil {
			return fmt.Errorf("window [%g,%g): %w", w.Start, w.End, err)
		}
	}

	// Overlapping windows are a configuration error: membership must be
	// unique for every t.
	ordered := make([]TimeWindow, len(s.Windows))
	copy(ordered, s.Windows)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Start < ordered[j].Start })
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Start < ordered[i-1].End {
			return fmt.Errorf("%w: windows [%g,%g) and [%g,%g) overlap", ErrConfig,
				ordered[i-1].Start, ordered[i-1].End, ordered[i].Start, ordered[i].End)
		}
	}

	if len(s.Initial) > 0 {
		if err := validateTable(s.Initial, s.Scale); err != nil {
			return fmt.Errorf("initial table: %w", err)
		}
	}
	if !s.Default.Stay && s.Default.Label == "" {
		return fmt.Errorf("%w: default outcome needs a label when not staying", ErrConfig)
	}
	return nil
}

func validateTable(table []Outcome, scale float64) error {
	if len(table) == 0 {
		return fmt.Errorf("%w: empty outcome table", ErrConfig)
	}
	prev := math.Inf(-1)
	for i, o := range table {
		if o.Category == "" {
			return fmt.Errorf("%w: outcome %d has empty category", ErrConfig, i)
		}
		if o.UpperBound <= prev {
			return fmt.Errorf("%w: bounds not strictly increasing at entry %d (%g after %g)",
				ErrConfig, i, o.UpperBound, prev)
		}
		prev = o.UpperBound
	}
	if math.Abs(prev-scale) > scaleTolerance {
		return fmt.Errorf("%w: last bound %g does not reach scale %g", ErrConfig, prev, scale)
	}
	return nil
}

// WindowAt returns the window containing t (Start <= t < End), or false when
// t falls into a gap. Membership is recomputed on every call; the schedule
// keeps no transition state.
func (s *Schedule) WindowAt(t float64) (TimeWindow, bool) {
	for _, w := range s.Windows {
		if t >= w.Start && t < w.End {
			return w, true
		}
	}
	return TimeWindow{}, false
}

// pickOutcome scans the table in order and returns the first category whose
// cumulative upper bound is >= draw. On exact boundary equality the earliest
// entry wins. draw must already be on the table's scale.
func pickOutcome(table []Outcome, draw float64) string {
	for _, o := range table {
		if o.UpperBound >= draw {
			return o.Category
		}
	}
	// Bounds reach the scale and draws are < scale, so the scan always
	// terminates above; this is the numeric-noise backstop.
	return table[len(table)-1].Category
}
