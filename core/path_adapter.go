package core

import (
	"fmt"

	"github.com/dtnlabs/campusim/model"
)

// MapGraph is the external routing service: a node graph over the building
// map with nearest-node lookup and shortest-path search. Implementations
// return ErrUnreachable (wrapped or verbatim) when no path exists.
type MapGraph interface {
	// NearestNode returns the ID of the graph node closest to c.
	NearestNode(c model.Coord) string
	// ShortestPath returns the coordinates of the node sequence from
	// fromNode to toNode, endpoints included.
	ShortestPath(fromNode, toNode string) ([]model.Coord, error)
}

// PathRequestAdapter translates (current coordinate, destination label) into
// an ordered waypoint sequence by resolving the label through the registry
// and delegating the search to the external path finder.
type PathRequestAdapter struct {
	Graph    MapGraph
	Registry *LocationRegistry
}

// NewPathRequestAdapter wires the adapter to its collaborators.
func NewPathRequestAdapter(graph MapGraph, registry *LocationRegistry) (*PathRequestAdapter, error) {
	if graph == nil {
		return nil, fmt.Errorf("%w: path adapter needs a map graph", ErrConfig)
	}
	if registry == nil {
		return nil, fmt.Errorf("%w: path adapter needs a location registry", ErrConfig)
	}
	return &PathRequestAdapter{Graph: graph, Registry: registry}, nil
}

// Route resolves destLabel and returns the waypoints from the node nearest
// from to the node nearest the resolved coordinate. Unknown labels and
// unreachable destinations propagate: both indicate a broken scenario and
// must abort the run rather than silently skip movement.
func (pa *PathRequestAdapter) Route(from model.Coord, destLabel string) ([]model.Coord, error) {
	dest, err := pa.Registry.Resolve(destLabel)
	if err != nil {
		return nil, err
	}

	fromNode := pa.Graph.NearestNode(from)
	destNode := pa.Graph.NearestNode(dest)

	waypoints, err := pa.Graph.ShortestPath(fromNode, destNode)
	if err != nil {
		return nil, fmt.Errorf("route to %q: %w", destLabel, err)
	}
	return waypoints, nil
}
