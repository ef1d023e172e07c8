package main

import (
	"testing"

	"github.com/dtnlabs/campusim/model"
)

func TestDirectGraphRoundTrip(t *testing.T) {
	g := newDirectGraph()
	from := model.Coord{X: 1.5, Y: -2}
	to := model.Coord{X: 100, Y: 0}

	path, err := g.ShortestPath(g.NearestNode(from), g.NearestNode(to))
	if err != nil {
		t.Fatalf("ShortestPath: %v", err)
	}
	if len(path) != 2 || path[0] != from || path[1] != to {
		t.Errorf("path = %v, want [%v %v]", path, from, to)
	}
}

func TestDirectGraphRejectsMalformedNodes(t *testing.T) {
	g := newDirectGraph()
	for _, node := range []string{"", "1", "a,b", "1,2,3"} {
		if _, err := g.ShortestPath(node, "0,0"); err == nil {
			t.Errorf("node %q should be rejected", node)
		}
	}
}
