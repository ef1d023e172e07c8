package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dtnlabs/campusim/model"
)

// directGraph is a straight-line stand-in for a real building map graph:
// every coordinate is its own node and the shortest path between two nodes
// is the segment joining them. Runs that need corridor-accurate paths plug
// in a real graph implementation instead.
type directGraph struct{}

func newDirectGraph() directGraph { return directGraph{} }

// NearestNode implements core.MapGraph. Nodes are self-describing, so the ID
// just encodes the coordinate.
func (directGraph) NearestNode(c model.Coord) string {
	return strconv.FormatFloat(c.X, 'f', -1, 64) + "," + strconv.FormatFloat(c.Y, 'f', -1, 64)
}

// ShortestPath implements core.MapGraph.
func (g directGraph) ShortestPath(fromNode, toNode string) ([]model.Coord, error) {
	from, err := g.decode(fromNode)
	if err != nil {
		return nil, err
	}
	to, err := g.decode(toNode)
	if err != nil {
		return nil, err
	}
	return []model.Coord{from, to}, nil
}

func (directGraph) decode(node string) (model.Coord, error) {
	parts := strings.Split(node, ",")
	if len(parts) != 2 {
		return model.Coord{}, fmt.Errorf("malformed node ID %q", node)
	}
	x, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return model.Coord{}, fmt.Errorf("malformed node ID %q: %v", node, err)
	}
	y, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return model.Coord{}, fmt.Errorf("malformed node ID %q: %v", node, err)
	}
	return model.Coord{X: x, Y: y}, nil
}
