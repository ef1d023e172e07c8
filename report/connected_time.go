package report

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dtnlabs/campusim/core"
	"github.com/dtnlabs/campusim/model"
)

// DefaultAccessPointPrefix marks hosts that are fixed access points rather
// than mobile agents.
const DefaultAccessPointPrefix = "AccessPoint"

// ConnectedTimeConfig configures the single-cutoff aggregator.
type ConnectedTimeConfig struct {
	// Cutoff is the simulated time after which the per-host totals are
	// flushed once and the report goes terminal.
	Cutoff float64

	// Hosts pre-registers identifiers so hosts that never connect still
	// get a zero line at flush time.
	Hosts []string

	// AccessPointPrefix identifies access-point hosts; empty selects
	// DefaultAccessPointPrefix.
	AccessPointPrefix string
}

// ConnectedTimeReport accumulates one unit of connected time per ConnectUp
// event for the mobile side of the connection, while the clock is within
// [0, cutoff]. The first event past the cutoff flushes the whole table as
// "<hostId> <units>" lines, exactly once; after that the report is Done and
// every call is a no-op rather than an error.
type ConnectedTimeReport struct {
	mu sync.Mutex

	cutoff   float64
	apPrefix string
	totals   map[string]int
	done     bool

	sink    LineSink
	metrics MetricsRecorder
}

// NewConnectedTimeReport validates the config and builds the aggregator.
func NewConnectedTimeReport(cfg ConnectedTimeConfig, sink LineSink, metrics MetricsRecorder) (*ConnectedTimeReport, error) {
	if cfg.Cutoff <= 0 {
		return nil, fmt.Errorf("%w: connected-time cutoff must be positive, got %g", core.ErrConfig, cfg.Cutoff)
	}
	if sink == nil {
		return nil, fmt.Errorf("%w: connected-time report needs a sink", core.ErrConfig)
	}
	prefix := cfg.AccessPointPrefix
	if prefix == "" {
		prefix = DefaultAccessPointPrefix
	}

	totals := make(map[string]int, len(cfg.Hosts))
	for _, h := range cfg.Hosts {
		totals[h] = 0
	}

	return &ConnectedTimeReport{
		cutoff:   cfg.Cutoff,
		apPrefix: prefix,
		totals:   totals,
		sink:     sink,
		metrics:  metrics,
	}, nil
}

// Done reports whether the cutoff has been crossed and the table flushed.
func (r *ConnectedTimeReport) Done() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

// Process implements EventListener. The mutex serializes concurrent
// delivery so same-timestamp batches apply fully before any flush decision.
func (r *ConnectedTimeReport) Process(ev model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done {
		return nil
	}
	if ev.Timestamp > r.cutoff {
		// The crossing event itself is outside [0, cutoff] and is not
		// counted.
		if err := r.flush(); err != nil {
			return err
		}
		r.done = true
		return nil
	}

	if ev.Kind == model.EventConnectUp {
		if host := r.mobileHost(ev); host != "" {
			r.totals[host]++
		}
	}
	if r.metrics != nil {
		r.metrics.EventProcessed(ev.Kind.String())
	}
	return nil
}

// mobileHost returns the non-access-point side of the event, or "" when
// both hosts are access points (nothing to attribute).
func (r *ConnectedTimeReport) mobileHost(ev model.Event) string {
	if !strings.HasPrefix(ev.HostA, r.apPrefix) {
		return ev.HostA
	}
	if ev.HostB != "" && !strings.HasPrefix(ev.HostB, r.apPrefix) {
		return ev.HostB
	}
	return ""
}

// flush writes one line per host. Hosts are sorted so replaying the same
// event stream yields byte-identical output.
func (r *ConnectedTimeReport) flush() error {
	hosts := make([]string, 0, len(r.totals))
	for h := range r.totals {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)

	for _, h := range hosts {
		if err := r.sink.WriteLine(fmt.Sprintf("%s %d", h, r.totals[h])); err != nil {
			return err
		}
		if r.metrics != nil {
			r.metrics.LineEmitted("connected_time")
		}
	}
	return nil
}
