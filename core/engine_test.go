package core

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/dtnlabs/campusim/model"
)

// fixedPolicy always heads for the same label.
type fixedPolicy struct {
	label string
}

func (p fixedPolicy) NextDestination(t float64, agent *AgentState) (string, error) {
	return p.label, nil
}

// recordingListener captures the events it receives.
type recordingListener struct {
	events []model.Event
}

func (l *recordingListener) Process(ev model.Event) error {
	l.events = append(l.events, ev)
	return nil
}

func engineFixture(t *testing.T, aps []*AccessPoint) (*MovementEngine, *LocationRegistry) {
	t.Helper()
	reg := NewLocationRegistry(rand.New(rand.NewSource(1)))
	if err := reg.Register("origin", model.Coord{X: 0, Y: 0}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := reg.Register("target", model.Coord{X: 100, Y: 0}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	adapter, err := NewPathRequestAdapter(&lineGraph{}, reg)
	if err != nil {
		t.Fatalf("NewPathRequestAdapter: %v", err)
	}
	engine, err := NewMovementEngine(adapter, aps, nil, nil)
	if err != nil {
		t.Fatalf("NewMovementEngine: %v", err)
	}
	return engine, reg
}

func TestEngineRejectsBadAccessPoints(t *testing.T) {
	reg := NewLocationRegistry(nil)
	adapter, err := NewPathRequestAdapter(&lineGraph{}, reg)
	if err != nil {
		t.Fatalf("NewPathRequestAdapter: %v", err)
	}

	cases := []struct {
		name string
		aps  []*AccessPoint
	}{
		{"missing ID", []*AccessPoint{{RangeM: 5}}},
		{"zero range", []*AccessPoint{{ID: "AccessPoint00"}}},
		{"odd active period", []*AccessPoint{{ID: "AccessPoint00", RangeM: 5, ActivePeriod: []float64{1, 2, 3}}}},
		{"inverted interval", []*AccessPoint{{ID: "AccessPoint00", RangeM: 5, ActivePeriod: []float64{10, 5}}}},
		{"duplicate ID", []*AccessPoint{
			{ID: "AccessPoint00", RangeM: 5},
			{ID: "AccessPoint00", RangeM: 5},
		}},
	}
	for _, tc := range cases {
		if _, err := NewMovementEngine(adapter, tc.aps, nil, nil); !errors.Is(err, ErrConfig) {
			t.Errorf("%s: err = %v, want ErrConfig", tc.name, err)
		}
	}
}

func TestAccessPointActivePeriods(t *testing.T) {
	always := &AccessPoint{ID: "AccessPoint00", RangeM: 5}
	if !always.IsActive(0) || !always.IsActive(1e6) {
		t.Errorf("no active period should mean always on")
	}

	bounded := &AccessPoint{ID: "AccessPoint01", RangeM: 5, ActivePeriod: []float64{100, 200, 400, 500}}
	cases := []struct {
		t    float64
		want bool
	}{
		{99, false}, {100, true}, {150, true}, {200, true},
		{300, false}, {400, true}, {500, true}, {501, false},
	}
	for _, tc := range cases {
		if got := bounded.IsActive(tc.t); got != tc.want {
			t.Errorf("IsActive(%g) = %v, want %v", tc.t, got, tc.want)
		}
	}
}

func TestAgentMovesTowardDestination(t *testing.T) {
	engine, _ := engineFixture(t, nil)

	agent := &AgentState{ID: "s0", Speed: 10}
	if err := engine.AddAgent(agent, fixedPolicy{label: "target"}, "origin"); err != nil {
		t.Fatalf("AddAgent: %v", err)
	}

	// 10 m/s for 1 s moves the agent 10 m along the 100 m segment.
	if err := engine.Tick(context.Background(), 1, 1); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	pos, ok := engine.AgentPosition("s0")
	if !ok {
		t.Fatalf("agent vanished")
	}
	if pos.X != 10 || pos.Y != 0 {
		t.Errorf("after one tick pos = %v, want (10,0)", pos)
	}

	// Nine more ticks finish the walk and update the semantic location.
	for i := 2; i <= 10; i++ {
		if err := engine.Tick(context.Background(), float64(i), 1); err != nil {
			t.Fatalf("Tick %d: %v", i, err)
		}
	}
	pos, _ = engine.AgentPosition("s0")
	if pos.X != 100 {
		t.Errorf("after ten ticks pos = %v, want (100,0)", pos)
	}
	if agent.CurrentLabel != "target" {
		t.Errorf("CurrentLabel = %q, want target after arrival", agent.CurrentLabel)
	}
}

// Crossing an access point's range emits ConnectUp entering and ConnectDown
// leaving, with the mobile host in HostA and the access point in HostB.
func TestConnectivityTransitions(t *testing.T) {
	ap := &AccessPoint{ID: "AccessPoint00", Position: model.Coord{X: 50, Y: 0}, RangeM: 15}
	engine, _ := engineFixture(t, []*AccessPoint{ap})

	listener := &recordingListener{}
	engine.AddListener(listener)

	agent := &AgentState{ID: "s0", Speed: 10}
	if err := engine.AddAgent(agent, fixedPolicy{label: "target"}, "origin"); err != nil {
		t.Fatalf("AddAgent: %v", err)
	}

	for i := 1; i <= 10; i++ {
		if err := engine.Tick(context.Background(), float64(i), 1); err != nil {
			t.Fatalf("Tick %d: %v", i, err)
		}
	}

	if len(listener.events) != 2 {
		t.Fatalf("events = %v, want one up and one down", listener.events)
	}
	up, down := listener.events[0], listener.events[1]
	if up.Kind != model.EventConnectUp || up.HostA != "s0" || up.HostB != "AccessPoint00" {
		t.Errorf("first event = %+v, want ConnectUp s0/AccessPoint00", up)
	}
	// Range 15 around x=50: inside from x=35 (tick 4) to x=65 (tick 6),
	// outside again at x=70 (tick 7).
	if up.Timestamp != 4 {
		t.Errorf("ConnectUp at t=%g, want 4", up.Timestamp)
	}
	if down.Kind != model.EventConnectDown || down.Timestamp != 7 {
		t.Errorf("second event = %+v, want ConnectDown at t=7", down)
	}
}

// An access point leaving its active period drops the connections it held.
func TestInactiveAccessPointDisconnects(t *testing.T) {
	ap := &AccessPoint{ID: "AccessPoint00", Position: model.Coord{X: 0, Y: 0}, RangeM: 50, ActivePeriod: []float64{0, 3}}
	engine, _ := engineFixture(t, []*AccessPoint{ap})

	listener := &recordingListener{}
	engine.AddListener(listener)

	// Sticky in place: the agent never moves out of range on its own.
	agent := &AgentState{ID: "s0", Speed: 1, Sticky: true, CurrentLabel: "origin"}
	if err := engine.AddAgent(agent, fixedPolicy{label: "origin"}, "origin"); err != nil {
		t.Fatalf("AddAgent: %v", err)
	}

	for i := 1; i <= 5; i++ {
		if err := engine.Tick(context.Background(), float64(i), 1); err != nil {
			t.Fatalf("Tick %d: %v", i, err)
		}
	}

	if len(listener.events) != 2 {
		t.Fatalf("events = %v, want up then down", listener.events)
	}
	if listener.events[0].Kind != model.EventConnectUp || listener.events[0].Timestamp != 1 {
		t.Errorf("first event = %+v, want ConnectUp at t=1", listener.events[0])
	}
	if listener.events[1].Kind != model.EventConnectDown || listener.events[1].Timestamp != 4 {
		t.Errorf("second event = %+v, want ConnectDown at t=4 when the access point powers off", listener.events[1])
	}
}

func TestAddAgentStartsOnRouteWithoutLabel(t *testing.T) {
	engine, _ := engineFixture(t, nil)

	route, err := model.NewRoute(model.RouteCircular, []model.Coord{{X: 5, Y: 5}, {X: 6, Y: 6}})
	if err != nil {
		t.Fatalf("NewRoute: %v", err)
	}
	agent := &AgentState{ID: "s0", Speed: 1, Route: route}
	if err := engine.AddAgent(agent, fixedPolicy{label: "target"}, ""); err != nil {
		t.Fatalf("AddAgent: %v", err)
	}

	pos, _ := engine.AgentPosition("s0")
	if pos.X != 5 || pos.Y != 5 {
		t.Errorf("start pos = %v, want the route's first stop", pos)
	}

	bare := &AgentState{ID: "s1", Speed: 1}
	if err := engine.AddAgent(bare, fixedPolicy{label: "target"}, ""); !errors.Is(err, ErrState) {
		t.Errorf("agent without label or route: err = %v, want ErrState", err)
	}
}
