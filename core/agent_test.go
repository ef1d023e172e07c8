package core

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/dtnlabs/campusim/model"
)

func testRoutes(t *testing.T, n int) []*model.Route {
	t.Helper()
	routes := make([]*model.Route, n)
	for i := range routes {
		r, err := model.NewRoute(model.RouteCircular, []model.Coord{
			{X: float64(i)}, {X: float64(i) + 0.5}, {X: float64(i) + 0.9},
		})
		if err != nil {
			t.Fatalf("NewRoute: %v", err)
		}
		routes[i] = r
	}
	return routes
}

func TestGroupPrototypeValidation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	routes := testRoutes(t, 1)

	if _, err := NewGroupPrototype("", routes, -1, 1.0, rng); !errors.Is(err, ErrConfig) {
		t.Errorf("empty group ID: err = %v, want ErrConfig", err)
	}
	if _, err := NewGroupPrototype("g", nil, -1, 1.0, rng); !errors.Is(err, ErrConfig) {
		t.Errorf("no routes: err = %v, want ErrConfig", err)
	}
	if _, err := NewGroupPrototype("g", routes, -1, 0, rng); !errors.Is(err, ErrConfig) {
		t.Errorf("zero speed: err = %v, want ErrConfig", err)
	}
	if _, err := NewGroupPrototype("g", routes, 3, 1.0, rng); !errors.Is(err, ErrConfig) {
		t.Errorf("first stop past route end: err = %v, want ErrConfig", err)
	}
}

// The shared route cursor hands consecutive replicas distinct routes and
// wraps around when the group outnumbers its routes.
func TestReplicateRoundRobinRoutes(t *testing.T) {
	proto, err := NewGroupPrototype("students", testRoutes(t, 3), 0, 1.2, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("NewGroupPrototype: %v", err)
	}

	wantFirstX := []float64{0, 1, 2, 0, 1}
	for i, want := range wantFirstX {
		agent, err := proto.Replicate("s" + string(rune('0'+i)))
		if err != nil {
			t.Fatalf("Replicate %d: %v", i, err)
		}
		if got := agent.Route.NextStop(); got.X != want {
			t.Errorf("replica %d first stop x=%g, want %g", i, got.X, want)
		}
		if agent.Speed != 1.2 || agent.GroupID != "students" {
			t.Errorf("replica %d copied fields wrong: %+v", i, agent)
		}
	}
	if got := proto.Replicas(); got != 5 {
		t.Errorf("Replicas() = %d, want 5", got)
	}
}

// A configured first stop positions every replica's cursor there; a negative
// setting draws a random stop per replica instead.
func TestReplicateFirstStopModes(t *testing.T) {
	fixed, err := NewGroupPrototype("g", testRoutes(t, 1), 2, 1.0, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("NewGroupPrototype: %v", err)
	}
	agent, err := fixed.Replicate("a0")
	if err != nil {
		t.Fatalf("Replicate: %v", err)
	}
	if got := agent.Route.NextStop(); got.X != 0.9 {
		t.Errorf("configured first stop: x=%g, want 0.9", got.X)
	}

	random, err := NewGroupPrototype("g", testRoutes(t, 1), -1, 1.0, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("NewGroupPrototype: %v", err)
	}
	for i := 0; i < 10; i++ {
		agent, err := random.Replicate("b0")
		if err != nil {
			t.Fatalf("Replicate: %v", err)
		}
		x := agent.Route.NextStop().X
		if x != 0 && x != 0.5 && x != 0.9 {
			t.Fatalf("random first stop x=%g not on the route", x)
		}
	}
}

func TestReplicateWithoutRoutesIsStateError(t *testing.T) {
	proto := &GroupPrototype{GroupID: "g"}
	if _, err := proto.Replicate("a0"); !errors.Is(err, ErrState) {
		t.Errorf("Replicate on uninitialized prototype: err = %v, want ErrState", err)
	}
}
