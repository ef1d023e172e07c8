package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TickCollector exposes time-controller Prometheus metrics.
type TickCollector struct {
	gatherer prometheus.Gatherer

	TickDuration prometheus.Histogram
	SimTime      prometheus.Gauge
	TicksTotal   prometheus.Counter
}

// NewTickCollector registers tick metrics against the provided registerer.
func NewTickCollector(reg prometheus.Registerer) (*TickCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	tickHistogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_tick_duration_seconds",
		Help:    "Wall-clock duration of one simulation tick, movement and reports included.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	})
	tickHistogram, err := registerHistogram(reg, tickHistogram, "sim_tick_duration_seconds")
	if err != nil {
		return nil, err
	}

	simTime := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_time_seconds",
		Help: "Current simulated time in seconds.",
	})
	simTime, err = registerGauge(reg, simTime, "sim_time_seconds")
	if err != nil {
		return nil, err
	}

	ticks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_ticks_total",
		Help: "Cumulative number of completed simulation ticks.",
	})
	ticks, err = registerCounter(reg, ticks, "sim_ticks_total")
	if err != nil {
		return nil, err
	}

	return &TickCollector{
		gatherer:     gatherer,
		TickDuration: tickHistogram,
		SimTime:      simTime,
		TicksTotal:   ticks,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *TickCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// ObserveTick records one tick: its wall-clock duration and the simulated
// time it advanced to.
func (c *TickCollector) ObserveTick(simTime float64, d time.Duration) {
	if c == nil {
		return
	}
	if c.TickDuration != nil {
		c.TickDuration.Observe(d.Seconds())
	}
	if c.SimTime != nil {
		c.SimTime.Set(simTime)
	}
	if c.TicksTotal != nil {
		c.TicksTotal.Inc()
	}
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}
