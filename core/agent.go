package core

import (
	"fmt"
	"math/rand"

	"github.com/dtnlabs/campusim/model"
)

// AgentState is the per-agent replicated mobility state. It is created by
// copying a group prototype, mutated on every path request, and lives for
// the whole simulation.
type AgentState struct {
	ID      string
	GroupID string

	// LastWaypoint is the coordinate the agent last arrived at.
	LastWaypoint model.Coord
	// CurrentLabel is the semantic location the agent currently occupies,
	// when it occupies a labelled one.
	CurrentLabel string

	// Sticky marks an agent that has left through an egress location after
	// the no-return threshold; the policy keeps it there.
	Sticky bool

	// Route is the agent's own replica of one of the group's routes.
	Route *model.Route

	// Speed in metres per simulated second.
	Speed float64
}

// GroupPrototype owns a group's shared route list and the round-robin
// cursor handing out routes to replicas. Replication happens sequentially
// during scenario setup (single-threaded), which is what guarantees each
// member a distinct starting route without a lock.
type GroupPrototype struct {
	GroupID string
	Speed   float64

	routes         []*model.Route
	nextRouteIndex int
	firstStopIndex int // negative selects a random first stop
	rng            *rand.Rand

	replicas int
}

// NewGroupPrototype builds the prototype for a node group. firstStop is the
// configured index of each replica's first route stop; a negative value
// means a random stop per replica. A first stop past the end of the group's
// first route is rejected up front, like any other settings mistake.
func NewGroupPrototype(groupID string, routes []*model.Route, firstStop int, speed float64, rng *rand.Rand) (*GroupPrototype, error) {
	if groupID == "" {
		return nil, fmt.Errorf("%w: group needs an ID", ErrConfig)
	}
	if len(routes) == 0 {
		return nil, fmt.Errorf("%w: group %q has no routes", ErrConfig, groupID)
	}
	if speed <= 0 {
		return nil, fmt.Errorf("%w: group %q speed must be positive, got %g", ErrConfig, groupID, speed)
	}
	if firstStop >= routes[0].NumStops() {
		return nil, fmt.Errorf("%w: first stop index %d too high for route with %d stops",
			ErrConfig, firstStop, routes[0].NumStops())
	}
	return &GroupPrototype{
		GroupID:        groupID,
		Speed:          speed,
		routes:         routes,
		firstStopIndex: firstStop,
		rng:            rng,
	}, nil
}

// Replicate builds one concrete agent: it copies the prototype's immutable
// fields, replicates the route under the shared cursor, positions the route
// cursor (configured or random first stop), and advances the shared cursor
// so the next member gets the next route.
func (g *GroupPrototype) Replicate(id string) (*AgentState, error) {
	if len(g.routes) == 0 {
		return nil, fmt.Errorf("%w: group %q replicated before its route list was initialized", ErrState, g.GroupID)
	}

	route := g.routes[g.nextRouteIndex].Replicate()
	if g.firstStopIndex < 0 {
		if err := route.SetNextIndex(g.rng.Intn(route.NumStops())); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrState, err)
		}
	} else {
		if err := route.SetNextIndex(g.firstStopIndex); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfig, err)
		}
	}

	g.nextRouteIndex++
	if g.nextRouteIndex >= len(g.routes) {
		g.nextRouteIndex = 0
	}
	g.replicas++

	return &AgentState{
		ID:      id,
		GroupID: g.GroupID,
		Route:   route,
		Speed:   g.Speed,
	}, nil
}

// Replicas returns how many agents have been built from this prototype.
func (g *GroupPrototype) Replicas() int { return g.replicas }
