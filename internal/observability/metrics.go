package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SimCollector bundles Prometheus metrics for a simulation run and provides
// a ready-to-use /metrics handler. It satisfies both the engine's and the
// reports' metrics interfaces so one collector serves the whole run.
type SimCollector struct {
	gatherer prometheus.Gatherer

	EventsProcessed *prometheus.CounterVec
	ReportLines     *prometheus.CounterVec
	PathRequests    prometheus.Counter

	Agents         prometheus.Gauge
	ConnectedHosts prometheus.Gauge
}

// NewSimCollector registers simulation Prometheus metrics against the
// provided registerer, defaulting to the global Prometheus registry when nil.
func NewSimCollector(reg prometheus.Registerer) (*SimCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_events_processed_total",
		Help: "Total number of connectivity events processed by reports, labeled by event kind.",
	}, []string{"kind"})
	events, err := registerCounterVec(reg, events, "sim_events_processed_total")
	if err != nil {
		return nil, err
	}

	lines := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_report_lines_total",
		Help: "Total number of lines emitted, labeled by report.",
	}, []string{"report"})
	lines, err = registerCounterVec(reg, lines, "sim_report_lines_total")
	if err != nil {
		return nil, err
	}

	paths, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_path_requests_total",
		Help: "Total number of shortest-path requests issued by the movement engine.",
	}), "sim_path_requests_total")
	if err != nil {
		return nil, err
	}

	agents, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_agents",
		Help: "Current number of agents in the movement engine.",
	}), "sim_agents")
	if err != nil {
		return nil, err
	}
	connected, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_connected_hosts",
		Help: "Current number of hosts with at least one access-point connection.",
	}), "sim_connected_hosts")
	if err != nil {
		return nil, err
	}

	return &SimCollector{
		gatherer:        gatherer,
		EventsProcessed: events,
		ReportLines:     lines,
		PathRequests:    paths,
		Agents:          agents,
		ConnectedHosts:  connected,
	}, nil
}

// EventProcessed counts one handled connectivity event.
func (c *SimCollector) EventProcessed(kind string) {
	if c == nil || c.EventsProcessed == nil {
		return
	}
	c.EventsProcessed.WithLabelValues(kind).Inc()
}

// LineEmitted counts one emitted report line.
func (c *SimCollector) LineEmitted(report string) {
	if c == nil || c.ReportLines == nil {
		return
	}
	c.ReportLines.WithLabelValues(report).Inc()
}

// PathRequested counts one shortest-path request.
func (c *SimCollector) PathRequested() {
	if c == nil || c.PathRequests == nil {
		return
	}
	c.PathRequests.Inc()
}

// SetAgents records the current agent population.
func (c *SimCollector) SetAgents(n int) {
	if c == nil || c.Agents == nil {
		return
	}
	c.Agents.Set(float64(n))
}

// SetConnectedHosts records how many hosts currently hold a connection.
func (c *SimCollector) SetConnectedHosts(n int) {
	if c == nil || c.ConnectedHosts == nil {
		return
	}
	c.ConnectedHosts.Set(float64(n))
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SimCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
