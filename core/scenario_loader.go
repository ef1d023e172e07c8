// core/scenario_loader.go
package core

import (
	"fmt"
	"io"
	"math/rand"

	"gopkg.in/yaml.v3"

	"github.com/dtnlabs/campusim/model"
)

// RouteSource is the external route-data collaborator. It hides the on-disk
// format behind a (source, kind) lookup.
type RouteSource interface {
	Routes(sourceID string, kind model.RouteKind) ([]*model.Route, error)
}

// ConnectedTimeSettings are the loader-level settings of the single-cutoff
// report. Validation happens when the report is constructed.
type ConnectedTimeSettings struct {
	Cutoff float64
	Hosts  []string
}

// ConnectivityLogSettings are the loader-level settings of the bucketed
// report, with defaults already applied: granularity 1, aggregate counter,
// array sized to the scenario's access points.
type ConnectivityLogSettings struct {
	NumAccessPoints  int
	AccessPointIndex int
	Granularity      int
}

// ScenarioGroup is one agent group ready for replication: the shared
// prototype plus the policy its members follow.
type ScenarioGroup struct {
	ID     string
	Count  int
	Proto  *GroupPrototype
	Policy DestinationPolicy
}

// Scenario is everything a run needs, fully validated. Loading fails with
// ErrConfig on the first inconsistency; nothing starts on a broken file.
type Scenario struct {
	Registry *LocationRegistry
	Schedule *Schedule
	Policy   *SchedulePolicy

	Groups       []*ScenarioGroup
	AccessPoints []*AccessPoint

	ConnectedTime   *ConnectedTimeSettings
	ConnectivityLog *ConnectivityLogSettings
}

// internal YAML shapes, kept unexported so the file format can evolve
// without touching the domain types.
type scenarioYAML struct {
	Scale        float64             `yaml:"scale"`
	Locations    []locationYAML      `yaml:"locations"`
	Pools        []poolYAML          `yaml:"pools"`
	Categories   map[string][]string `yaml:"categories"`
	Schedule     scheduleYAML        `yaml:"schedule"`
	Groups       []groupYAML         `yaml:"groups"`
	AccessPoints []accessPointYAML   `yaml:"accessPoints"`
	Reports      reportsYAML         `yaml:"reports"`
}

type locationYAML struct {
	Label string     `yaml:"label"`
	Coord [2]float64 `yaml:"coord"`
}

type poolYAML struct {
	Label   string       `yaml:"label"`
	Members [][2]float64 `yaml:"members"`
}

type outcomeYAML struct {
	Category   string  `yaml:"category"`
	UpperBound float64 `yaml:"upperBound"`
}

type windowYAML struct {
	Start    float64       `yaml:"start"`
	End      float64       `yaml:"end"`
	Outcomes []outcomeYAML `yaml:"outcomes"`
}

type scheduleYAML struct {
	Windows       []windowYAML  `yaml:"windows"`
	DefaultStay   bool          `yaml:"defaultStay"`
	DefaultLabel  string        `yaml:"defaultLabel"`
	Initial       []outcomeYAML `yaml:"initial"`
	NoReturnAfter float64       `yaml:"noReturnAfter"`
	Egress        []string      `yaml:"egress"`
}

type groupYAML struct {
	ID        string      `yaml:"id"`
	Count     int         `yaml:"count"`
	Speed     float64     `yaml:"speed"`
	RouteFile string      `yaml:"routeFile"`
	RouteType int         `yaml:"routeType"`
	FirstStop *int        `yaml:"firstStop"` // optional; omitted means a random stop
	Policy    string      `yaml:"policy"`    // "schedule" (default) | "wander"
	Wander    *wanderYAML `yaml:"wander"`
}

type wanderYAML struct {
	Pool      string        `yaml:"pool"`
	ExitAfter float64       `yaml:"exitAfter"`
	Exit      []outcomeYAML `yaml:"exit"`
}

type accessPointYAML struct {
	ID           string     `yaml:"id"`
	Coord        [2]float64 `yaml:"coord"`
	Range        float64    `yaml:"range"`
	ActivePeriod []float64  `yaml:"activePeriod"`
}

type reportsYAML struct {
	ConnectedTime *struct {
		Cutoff float64  `yaml:"cutoff"`
		Hosts  []string `yaml:"hosts"`
	} `yaml:"connectedTime"`
	ConnectivityLog *struct {
		NumAccessPoints int  `yaml:"numAccessPoints"`
		AccessPoint     *int `yaml:"accessPoint"` // optional; omitted means the aggregate sum
		Granularity     int  `yaml:"granularity"`
	} `yaml:"connectivityLog"`
}

// LoadScenario reads a YAML scenario from r, resolves routes through the
// given source, and returns a validated Scenario. rng seeds every random
// draw of the run (registry pools, policies, replication).
func LoadScenario(r io.Reader, routes RouteSource, rng *rand.Rand) (*Scenario, error) {
	if routes == nil {
		return nil, fmt.Errorf("%w: scenario needs a route source", ErrConfig)
	}

	var doc scenarioYAML
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode scenario: %v", ErrConfig, err)
	}

	registry := NewLocationRegistry(rng)
	for _, loc := range doc.Locations {
		if loc.Label == "" {
			return nil, fmt.Errorf("%w: location with empty label", ErrConfig)
		}
		if err := registry.Register(loc.Label, model.Coord{X: loc.Coord[0], Y: loc.Coord[1]}); err != nil {
			return nil, err
		}
	}
	for _, pool := range doc.Pools {
		members := make([]model.Coord, len(pool.Members))
		for i, m := range pool.Members {
			members[i] = model.Coord{X: m[0], Y: m[1]}
		}
		if err := registry.RegisterPool(pool.Label, members); err != nil {
			return nil, err
		}
	}

	scale := doc.Scale
	if scale == 0 {
		scale = 1.0
	}
	schedule := &Schedule{
		Scale:      scale,
		Categories: doc.Categories,
		Default: DefaultOutcome{
			Stay:  doc.Schedule.DefaultStay || doc.Schedule.DefaultLabel == "",
			Label: doc.Schedule.DefaultLabel,
		},
		Initial:       toOutcomes(doc.Schedule.Initial),
		NoReturnAfter: doc.Schedule.NoReturnAfter,
		EgressLabels:  doc.Schedule.Egress,
	}
	for _, w := range doc.Schedule.Windows {
		schedule.Windows = append(schedule.Windows, TimeWindow{
			Start:    w.Start,
			End:      w.End,
			Outcomes: toOutcomes(w.Outcomes),
		})
	}

	policy, err := NewSchedulePolicy(schedule, registry, rng)
	if err != nil {
		return nil, err
	}

	scenario := &Scenario{
		Registry: registry,
		Schedule: schedule,
		Policy:   policy,
	}

	for _, g := range doc.Groups {
		group, err := loadGroup(g, routes, registry, policy, rng)
		if err != nil {
			return nil, err
		}
		scenario.Groups = append(scenario.Groups, group)
	}

	for _, ap := range doc.AccessPoints {
		scenario.AccessPoints = append(scenario.AccessPoints, &AccessPoint{
			ID:           ap.ID,
			Position:     model.Coord{X: ap.Coord[0], Y: ap.Coord[1]},
			RangeM:       ap.Range,
			ActivePeriod: ap.ActivePeriod,
		})
	}

	if ct := doc.Reports.ConnectedTime; ct != nil {
		scenario.ConnectedTime = &ConnectedTimeSettings{
			Cutoff: ct.Cutoff,
			Hosts:  ct.Hosts,
		}
	}
	if cl := doc.Reports.ConnectivityLog; cl != nil {
		settings := &ConnectivityLogSettings{
			NumAccessPoints:  cl.NumAccessPoints,
			AccessPointIndex: -1,
			Granularity:      cl.Granularity,
		}
		if settings.NumAccessPoints == 0 {
			settings.NumAccessPoints = len(scenario.AccessPoints)
		}
		if cl.AccessPoint != nil {
			settings.AccessPointIndex = *cl.AccessPoint
		}
		if settings.Granularity == 0 {
			settings.Granularity = 1
		}
		scenario.ConnectivityLog = settings
	}

	return scenario, nil
}

func loadGroup(g groupYAML, routes RouteSource, registry *LocationRegistry, schedulePolicy *SchedulePolicy, rng *rand.Rand) (*ScenarioGroup, error) {
	if g.Count <= 0 {
		return nil, fmt.Errorf("%w: group %q count must be positive, got %d", ErrConfig, g.ID, g.Count)
	}
	if g.RouteFile == "" {
		return nil, fmt.Errorf("%w: group %q needs a routeFile", ErrConfig, g.ID)
	}

	kind := model.RouteKind(g.RouteType)
	routeList, err := routes.Routes(g.RouteFile, kind)
	if err != nil {
		return nil, fmt.Errorf("%w: group %q routes from %q: %v", ErrConfig, g.ID, g.RouteFile, err)
	}

	firstStop := -1
	if g.FirstStop != nil {
		firstStop = *g.FirstStop
	}
	proto, err := NewGroupPrototype(g.ID, routeList, firstStop, g.Speed, rng)
	if err != nil {
		return nil, err
	}

	var policy DestinationPolicy
	switch g.Policy {
	case "", "schedule":
		policy = schedulePolicy
	case "wander":
		if g.Wander == nil {
			return nil, fmt.Errorf("%w: group %q selects the wander policy without wander settings", ErrConfig, g.ID)
		}
		policy, err = NewWanderPolicy(g.Wander.Pool, g.Wander.ExitAfter, toOutcomes(g.Wander.Exit), registry, rng)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: group %q has unknown policy %q", ErrConfig, g.ID, g.Policy)
	}

	return &ScenarioGroup{
		ID:     g.ID,
		Count:  g.Count,
		Proto:  proto,
		Policy: policy,
	}, nil
}

func toOutcomes(in []outcomeYAML) []Outcome {
	if len(in) == 0 {
		return nil
	}
	out := make([]Outcome, len(in))
	for i, o := range in {
		out[i] = Outcome{Category: o.Category, UpperBound: o.UpperBound}
	}
	return out
}
