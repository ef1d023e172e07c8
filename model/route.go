package model

import "fmt"

// RouteKind selects how a route's stop cursor wraps.
type RouteKind int

const (
	// RouteCircular restarts from the first stop after the last one.
	RouteCircular RouteKind = 1
	// RoutePingPong reverses direction at both ends of the stop list.
	RoutePingPong RouteKind = 2
)

// Route is an ordered list of stops an agent group moves between. A group
// prototype owns the master copy; each agent gets its own replica so the
// per-agent stop cursor advances independently.
type Route struct {
	Kind  RouteKind
	Stops []Coord

	index   int
	forward bool
}

// NewRoute validates the kind and stop list and returns a route with the
// cursor at the first stop.
func NewRoute(kind RouteKind, stops []Coord) (*Route, error) {
	if kind != RouteCircular && kind != RoutePingPong {
		return nil, fmt.Errorf("route: unknown kind %d", kind)
	}
	if len(stops) < 2 {
		return nil, fmt.Errorf("route: need at least 2 stops, got %d", len(stops))
	}
	return &Route{Kind: kind, Stops: stops, forward: true}, nil
}

// NumStops returns the number of stops on the route.
func (r *Route) NumStops() int { return len(r.Stops) }

// SetNextIndex positions the cursor on the given stop. The index must be
// within the stop list.
func (r *Route) SetNextIndex(i int) error {
	if i < 0 || i >= len(r.Stops) {
		return fmt.Errorf("route: stop index %d out of range [0,%d)", i, len(r.Stops))
	}
	r.index = i
	r.forward = true
	return nil
}

// NextStop returns the stop under the cursor and advances it according to
// the route kind.
func (r *Route) NextStop() Coord {
	stop := r.Stops[r.index]
	switch r.Kind {
	case RoutePingPong:
		if r.forward && r.index == len(r.Stops)-1 {
			r.forward = false
		} else if !r.forward && r.index == 0 {
			r.forward = true
		}
		if r.forward {
			r.index++
		} else {
			r.index--
		}
	default: // circular
		r.index = (r.index + 1) % len(r.Stops)
	}
	return stop
}

// Replicate returns an independent copy sharing the stop slice. Stops are
// immutable after load, so sharing the backing array is safe.
func (r *Route) Replicate() *Route {
	return &Route{
		Kind:    r.Kind,
		Stops:   r.Stops,
		index:   r.index,
		forward: r.forward,
	}
}
