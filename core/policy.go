package core

import (
	"fmt"
	"math/rand"
)

// DestinationPolicy decides, at each movement decision point, which location
// label an agent heads for next. Implementations are pure functions of the
// simulated time and the agent's replicated state; the external scheduler
// calls them synchronously.
type DestinationPolicy interface {
	NextDestination(t float64, agent *AgentState) (string, error)
}

// SchedulePolicy is the schedule-driven stochastic destination policy. Its
// "state machine" state is simply the time window containing the clock
// value, recomputed on every call: no transition events are persisted.
type SchedulePolicy struct {
	schedule *Schedule
	registry *LocationRegistry
	rng      *rand.Rand
	egress   map[string]struct{}
}

// NewSchedulePolicy validates the schedule and checks that every label the
// schedule can produce is actually registered, so a dangling label fails at
// setup instead of mid-run.
func NewSchedulePolicy(s *Schedule, registry *LocationRegistry, rng *rand.Rand) (*SchedulePolicy, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if registry == nil {
		return nil, fmt.Errorf("%w: schedule policy needs a location registry", ErrConfig)
	}

	egress := make(map[string]struct{}, len(s.EgressLabels))
	for _, l := range s.EgressLabels {
		if !registry.Contains(l) {
			return nil, fmt.Errorf("%w: egress label %q not registered", ErrConfig, l)
		}
		egress[l] = struct{}{}
	}
	for _, w := range s.Windows {
		for _, o := range w.Outcomes {
			if err := checkCategoryLabels(s, registry, o.Category); err != nil {
				return nil, err
			}
		}
	}
	for _, o := range s.Initial {
		if err := checkCategoryLabels(s, registry, o.Category); err != nil {
			return nil, err
		}
	}
	if !s.Default.Stay && !registry.Contains(s.Default.Label) {
		return nil, fmt.Errorf("%w: default label %q not registered", ErrConfig, s.Default.Label)
	}

	return &SchedulePolicy{
		schedule: s,
		registry: registry,
		rng:      rng,
		egress:   egress,
	}, nil
}

func checkCategoryLabels(s *Schedule, registry *LocationRegistry, category string) error {
	labels, ok := s.Categories[category]
	if !ok {
		labels = []string{category}
	}
	if len(labels) == 0 {
		return fmt.Errorf("%w: category %q maps to no labels", ErrConfig, category)
	}
	for _, l := range labels {
		if !registry.Contains(l) {
			return fmt.Errorf("%w: category %q references unregistered label %q", ErrConfig, category, l)
		}
	}
	return nil
}

// NextDestination implements the schedule algorithm:
// sticky override, window lookup, cumulative draw, category-to-label draw.
func (p *SchedulePolicy) NextDestination(t float64, agent *AgentState) (string, error) {
	if agent == nil {
		return "", fmt.Errorf("%w: nil agent", ErrState)
	}

	// Agents that have "left" stay left for the remainder of the run.
	if agent.Sticky {
		return agent.CurrentLabel, nil
	}
	if p.schedule.NoReturnAfter > 0 && t > p.schedule.NoReturnAfter {
		if _, atExit := p.egress[agent.CurrentLabel]; atExit {
			agent.Sticky = true
			return agent.CurrentLabel, nil
		}
	}

	w, ok := p.schedule.WindowAt(t)
	if !ok {
		if p.schedule.Default.Stay {
			return agent.CurrentLabel, nil
		}
		return p.schedule.Default.Label, nil
	}

	category := pickOutcome(w.Outcomes, p.draw())
	return p.labelFor(category)
}

// InitialLabel draws a starting location from the schedule's initial table.
// With no table configured the agent starts wherever its route begins, and
// the empty label tells the engine so.
func (p *SchedulePolicy) InitialLabel() (string, error) {
	if len(p.schedule.Initial) == 0 {
		return "", nil
	}
	return p.labelFor(pickOutcome(p.schedule.Initial, p.draw()))
}

// labelFor maps a drawn category to one concrete label. Categories with
// several equivalent labels get a secondary uniform draw with the same
// earliest-entry tie-break applied to a uniform partition of [0,1).
func (p *SchedulePolicy) labelFor(category string) (string, error) {
	labels, ok := p.schedule.Categories[category]
	if !ok {
		labels = []string{category}
	}
	label := labels[0]
	if len(labels) > 1 {
		label = labels[pickUniform(len(labels), p.rng.Float64())]
	}
	if !p.registry.Contains(label) {
		return "", fmt.Errorf("%w: %q (category %q)", ErrUnknownLabel, label, category)
	}
	return label, nil
}

// draw returns a uniform value on the schedule's scale, so fraction and
// percentage tables share one code path.
func (p *SchedulePolicy) draw() float64 {
	return p.rng.Float64() * p.schedule.Scale
}

// pickUniform returns the first index i of a uniform n-partition whose upper
// bound (i+1)/n is >= r. Boundary equality picks the earlier slot, mirroring
// the outcome-table tie-break.
func pickUniform(n int, r float64) int {
	for i := 0; i < n; i++ {
		if float64(i+1)/float64(n) >= r {
			return i
		}
	}
	return n - 1
}

// WanderPolicy keeps agents roaming between the stops of a pool label (e.g.
// hallway points of interest) for the whole day, then sends them to an exit
// once the egress window opens. It exists so scenarios can keep some agents
// moving in the hallways irrespective of the timetable.
type WanderPolicy struct {
	// PoolLabel is a registered pool; resolving it draws a new roaming
	// target every call.
	PoolLabel string

	// ExitAfter is the time from which the policy stops roaming.
	ExitAfter float64

	// ExitTable is a cumulative table over egress labels, scale 1.0.
	ExitTable []Outcome

	registry *LocationRegistry
	rng      *rand.Rand
	egress   map[string]struct{}
}

// NewWanderPolicy validates the exit table and label references.
func NewWanderPolicy(poolLabel string, exitAfter float64, exitTable []Outcome,
	registry *LocationRegistry, rng *rand.Rand) (*WanderPolicy, error) {
	if registry == nil || !registry.Contains(poolLabel) {
		return nil, fmt.Errorf("%w: wander pool %q not registered", ErrConfig, poolLabel)
	}
	if err := validateTable(exitTable, 1.0); err != nil {
		return nil, fmt.Errorf("wander exit table: %w", err)
	}
	egress := make(map[string]struct{}, len(exitTable))
	for _, o := range exitTable {
		if !registry.Contains(o.Category) {
			return nil, fmt.Errorf("%w: wander exit label %q not registered", ErrConfig, o.Category)
		}
		egress[o.Category] = struct{}{}
	}
	return &WanderPolicy{
		PoolLabel: poolLabel,
		ExitAfter: exitAfter,
		ExitTable: exitTable,
		registry:  registry,
		rng:       rng,
		egress:    egress,
	}, nil
}

// NextDestination roams until the egress window, then draws an exit once and
// sticks to it.
func (p *WanderPolicy) NextDestination(t float64, agent *AgentState) (string, error) {
	if agent == nil {
		return "", fmt.Errorf("%w: nil agent", ErrState)
	}
	if agent.Sticky {
		return agent.CurrentLabel, nil
	}
	if t <= p.ExitAfter {
		return p.PoolLabel, nil
	}
	if _, atExit := p.egress[agent.CurrentLabel]; atExit {
		agent.Sticky = true
		return agent.CurrentLabel, nil
	}
	return pickOutcome(p.ExitTable, p.rng.Float64()), nil
}
