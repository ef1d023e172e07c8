package core

import (
	"context"
	"fmt"

	"github.com/dtnlabs/campusim/internal/logging"
	"github.com/dtnlabs/campusim/model"
)

// EventListener receives simulation events as they are produced, in
// non-decreasing timestamp order. The report aggregators satisfy it.
type EventListener interface {
	Process(ev model.Event) error
}

// EngineMetrics receives engine activity for the observability layer. A nil
// recorder drops everything.
type EngineMetrics interface {
	PathRequested()
	SetAgents(n int)
	SetConnectedHosts(n int)
}

// AccessPoint is a fixed connectivity point in the building. Agents within
// RangeM of an active access point are "connected" to it; the engine emits
// connect/disconnect events on transitions.
type AccessPoint struct {
	// ID names the host in emitted events and must carry the fixed-width
	// numeric suffix the aggregators parse ("AccessPoint03").
	ID       string
	Position model.Coord
	RangeM   float64

	// ActivePeriod bounds when the access point is powered: empty means
	// always, two values one interval, four values two intervals.
	ActivePeriod []float64
}

// IsActive reports whether the access point is powered at time t.
func (ap *AccessPoint) IsActive(t float64) bool {
	if len(ap.ActivePeriod) == 0 {
		return true
	}
	for i := 0; i+1 < len(ap.ActivePeriod); i += 2 {
		if t >= ap.ActivePeriod[i] && t <= ap.ActivePeriod[i+1] {
			return true
		}
	}
	return false
}

func validateActivePeriod(bounds []float64) error {
	if n := len(bounds); n != 0 && n != 2 && n != 4 {
		return fmt.Errorf("%w: active period needs 0, 2 or 4 bounds, got %d", ErrConfig, n)
	}
	for i := 0; i+1 < len(bounds); i += 2 {
		if bounds[i+1] < bounds[i] {
			return fmt.Errorf("%w: active period interval [%g,%g] inverted", ErrConfig, bounds[i], bounds[i+1])
		}
	}
	return nil
}

// engineAgent couples an agent's replicated state with its policy and the
// path it is currently walking.
type engineAgent struct {
	state  *AgentState
	policy DestinationPolicy

	pos          model.Coord
	waypoints    []model.Coord
	pendingLabel string
}

// MovementEngine advances agents between destinations and converts
// agent/access-point proximity into the connectivity event stream. It plays
// the role the external discrete-event scheduler has in a full deployment:
// every Tick moves agents, re-evaluates proximity, and delivers the
// resulting events synchronously to the registered listeners.
type MovementEngine struct {
	adapter      *PathRequestAdapter
	accessPoints []*AccessPoint

	agents    []*engineAgent
	listeners []EventListener

	// connected[apID][agentID] tracks which pairs were in range at the
	// previous tick.
	connected map[string]map[string]bool

	log     logging.Logger
	metrics EngineMetrics
}

// NewMovementEngine validates the access points and builds an engine with
// no agents.
func NewMovementEngine(adapter *PathRequestAdapter, accessPoints []*AccessPoint, log logging.Logger, metrics EngineMetrics) (*MovementEngine, error) {
	if adapter == nil {
		return nil, fmt.Errorf("%w: engine needs a path adapter", ErrConfig)
	}
	if log == nil {
		log = logging.Noop()
	}
	connected := make(map[string]map[string]bool, len(accessPoints))
	for _, ap := range accessPoints {
		if ap.ID == "" {
			return nil, fmt.Errorf("%w: access point needs an ID", ErrConfig)
		}
		if ap.RangeM <= 0 {
			return nil, fmt.Errorf("%w: access point %q range must be positive", ErrConfig, ap.ID)
		}
		if err := validateActivePeriod(ap.ActivePeriod); err != nil {
			return nil, fmt.Errorf("access point %q: %w", ap.ID, err)
		}
		if _, dup := connected[ap.ID]; dup {
			return nil, fmt.Errorf("%w: access point %q declared twice", ErrConfig, ap.ID)
		}
		connected[ap.ID] = make(map[string]bool)
	}
	return &MovementEngine{
		adapter:      adapter,
		accessPoints: accessPoints,
		connected:    connected,
		log:          log,
		metrics:      metrics,
	}, nil
}

// AddListener subscribes a report consumer to the event stream.
func (e *MovementEngine) AddListener(l EventListener) {
	e.listeners = append(e.listeners, l)
}

// AddAgent places an agent into the simulation. startLabel is where the
// agent begins; empty means the first stop of its route.
func (e *MovementEngine) AddAgent(state *AgentState, policy DestinationPolicy, startLabel string) error {
	if state == nil || policy == nil {
		return fmt.Errorf("%w: agent needs state and a policy", ErrConfig)
	}

	var start model.Coord
	if startLabel != "" {
		c, err := e.adapter.Registry.Resolve(startLabel)
		if err != nil {
			return err
		}
		start = c
	} else {
		if state.Route == nil {
			return fmt.Errorf("%w: agent %q has neither a start label nor a route", ErrState, state.ID)
		}
		start = state.Route.NextStop()
	}

	state.LastWaypoint = start
	state.CurrentLabel = startLabel
	e.agents = append(e.agents, &engineAgent{
		state:  state,
		policy: policy,
		pos:    start,
	})
	if e.metrics != nil {
		e.metrics.SetAgents(len(e.agents))
	}
	return nil
}

// Tick advances the simulation by dt seconds ending at time t: agents that
// finished their path ask their policy for the next destination, everyone
// moves, and proximity transitions become connectivity events delivered to
// all listeners before Tick returns. Any error aborts the run.
func (e *MovementEngine) Tick(ctx context.Context, t, dt float64) error {
	for _, a := range e.agents {
		if len(a.waypoints) == 0 {
			if err := e.decide(ctx, t, a); err != nil {
				return err
			}
		}
		e.move(a, dt)
	}
	return e.updateConnectivity(t)
}

// decide asks the policy for the next destination and requests a path.
// Staying put (sticky agents, or a draw landing on the current location)
// produces no path request.
func (e *MovementEngine) decide(ctx context.Context, t float64, a *engineAgent) error {
	label, err := a.policy.NextDestination(t, a.state)
	if err != nil {
		return err
	}
	if label == "" || (label == a.state.CurrentLabel && a.state.Sticky) {
		return nil
	}

	waypoints, err := e.adapter.Route(a.pos, label)
	if err != nil {
		return err
	}
	if e.metrics != nil {
		e.metrics.PathRequested()
	}
	e.log.Debug(ctx, "agent path assigned",
		logging.String("agent", a.state.ID),
		logging.String("destination", label),
		logging.Int("waypoints", len(waypoints)))

	a.waypoints = waypoints
	a.pendingLabel = label
	return nil
}

// move advances the agent along its waypoint queue at its speed, consuming
// leftover distance across waypoint boundaries within one tick.
func (e *MovementEngine) move(a *engineAgent, dt float64) {
	budget := a.state.Speed * dt
	for budget > 0 && len(a.waypoints) > 0 {
		next := a.waypoints[0]
		d := a.pos.DistanceTo(next)
		if d > budget {
			frac := budget / d
			a.pos = model.Coord{
				X: a.pos.X + (next.X-a.pos.X)*frac,
				Y: a.pos.Y + (next.Y-a.pos.Y)*frac,
			}
			return
		}
		budget -= d
		a.pos = next
		a.waypoints = a.waypoints[1:]
	}
	if len(a.waypoints) == 0 && a.pendingLabel != "" {
		a.state.LastWaypoint = a.pos
		a.state.CurrentLabel = a.pendingLabel
		a.pendingLabel = ""
	}
}

// updateConnectivity re-evaluates every (access point, agent) pair and
// emits ConnectUp/ConnectDown on transitions, all stamped with t. An access
// point outside its active period drops every connection it held.
func (e *MovementEngine) updateConnectivity(t float64) error {
	total := 0
	for _, ap := range e.accessPoints {
		active := ap.IsActive(t)
		for _, a := range e.agents {
			inRange := active && a.pos.DistanceTo(ap.Position) <= ap.RangeM
			was := e.connected[ap.ID][a.state.ID]
			if inRange == was {
				if inRange {
					total++
				}
				continue
			}

			kind := model.EventConnectUp
			if was {
				kind = model.EventConnectDown
			} else {
				total++
			}
			e.connected[ap.ID][a.state.ID] = inRange
			if err := e.publish(model.Event{
				Kind:      kind,
				Timestamp: t,
				HostA:     a.state.ID,
				HostB:     ap.ID,
			}); err != nil {
				return err
			}
		}
	}
	if e.metrics != nil {
		e.metrics.SetConnectedHosts(total)
	}
	return nil
}

// PublishMessageEvent forwards a message-level event from the routing
// protocol to every listener, preserving the shared listener contract.
func (e *MovementEngine) PublishMessageEvent(ev model.Event) error {
	return e.publish(ev)
}

func (e *MovementEngine) publish(ev model.Event) error {
	for _, l := range e.listeners {
		if err := l.Process(ev); err != nil {
			return fmt.Errorf("event %s at %g: %w", ev.Kind, ev.Timestamp, err)
		}
	}
	return nil
}

// AgentPosition exposes an agent's current coordinate for inspection and
// tests.
func (e *MovementEngine) AgentPosition(agentID string) (model.Coord, bool) {
	for _, a := range e.agents {
		if a.state.ID == agentID {
			return a.pos, true
		}
	}
	return model.Coord{}, false
}
