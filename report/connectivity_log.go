package report

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/dtnlabs/campusim/core"
	"github.com/dtnlabs/campusim/model"
)

// apIndexWidth is the fixed width of the numeric access-point suffix
// ("AccessPoint07" carries index 7).
const apIndexWidth = 2

// AggregateAllAccessPoints selects the sum over every access point instead
// of a single counter.
const AggregateAllAccessPoints = -1

// ConnectivityLogConfig configures the bucketed aggregator.
type ConnectivityLogConfig struct {
	// NumAccessPoints sizes the per-access-point counter array.
	NumAccessPoints int

	// AccessPointIndex selects which counter a report line carries;
	// AggregateAllAccessPoints emits the sum instead.
	AccessPointIndex int

	// Granularity is the bucket width in simulated seconds; a line is
	// emitted only for buckets whose timestamp is a multiple of it.
	Granularity int

	// AccessPointPrefix identifies access-point hosts; empty selects
	// DefaultAccessPointPrefix.
	AccessPointPrefix string
}

// ConnectivityLogReport maintains instantaneous connected-host counts per
// access point, held constant within a time bucket. Events carrying the
// current bucket's timestamp apply immediately; the first event with a new
// timestamp rolls the bucket over: emit the old bucket's line when its
// timestamp is a granularity multiple, move to the new bucket, then apply
// that same event against the fresh bucket. The re-application happens once
// and iteratively; after the move the event's timestamp equals the bucket,
// so no further rollover can trigger.
type ConnectivityLogReport struct {
	mu sync.Mutex

	counts      []int
	apIndex     int
	granularity int
	apPrefix    string

	bucket float64

	sink    LineSink
	metrics MetricsRecorder
}

// NewConnectivityLogReport validates the config eagerly: a non-positive
// granularity or an out-of-range access-point selector never gets to
// process a single event.
func NewConnectivityLogReport(cfg ConnectivityLogConfig, sink LineSink, metrics MetricsRecorder) (*ConnectivityLogReport, error) {
	if cfg.Granularity <= 0 {
		return nil, fmt.Errorf("%w: granularity must be positive, got %d", core.ErrConfig, cfg.Granularity)
	}
	if cfg.NumAccessPoints <= 0 {
		return nil, fmt.Errorf("%w: need at least one access point counter, got %d", core.ErrConfig, cfg.NumAccessPoints)
	}
	if cfg.AccessPointIndex != AggregateAllAccessPoints &&
		(cfg.AccessPointIndex < 0 || cfg.AccessPointIndex >= cfg.NumAccessPoints) {
		return nil, fmt.Errorf("%w: access point index %d outside [0,%d)", core.ErrConfig,
			cfg.AccessPointIndex, cfg.NumAccessPoints)
	}
	if sink == nil {
		return nil, fmt.Errorf("%w: connectivity log needs a sink", core.ErrConfig)
	}
	prefix := cfg.AccessPointPrefix
	if prefix == "" {
		prefix = DefaultAccessPointPrefix
	}

	return &ConnectivityLogReport{
		counts:      make([]int, cfg.NumAccessPoints),
		apIndex:     cfg.AccessPointIndex,
		granularity: cfg.Granularity,
		apPrefix:    prefix,
		sink:        sink,
		metrics:     metrics,
	}, nil
}

// Process implements EventListener. Errors from malformed identifiers,
// out-of-range indices, or unmatched disconnects propagate: skipping them
// would silently corrupt the statistics.
func (r *ConnectivityLogReport) Process(ev model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ev.Timestamp < r.bucket {
		return fmt.Errorf("%w: event at %g after bucket advanced to %g", core.ErrState, ev.Timestamp, r.bucket)
	}
	if ev.Timestamp != r.bucket {
		if err := r.emitLocked(); err != nil {
			return err
		}
		r.bucket = ev.Timestamp
	}
	if err := r.applyLocked(ev); err != nil {
		return err
	}
	if r.metrics != nil {
		r.metrics.EventProcessed(ev.Kind.String())
	}
	return nil
}

// Flush emits the current bucket's line if it is granularity-eligible. The
// event stream only ever closes a bucket when a later event arrives, so the
// run loop calls Flush once at the end to report the final bucket.
func (r *ConnectivityLogReport) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.emitLocked()
}

// ConnectedSum returns the instantaneous total of connected hosts across
// all access points.
func (r *ConnectivityLogReport) ConnectedSum() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sumLocked()
}

func (r *ConnectivityLogReport) emitLocked() error {
	if math.Mod(r.bucket, float64(r.granularity)) != 0 {
		return nil
	}
	value := r.sumLocked()
	if r.apIndex != AggregateAllAccessPoints {
		value = r.counts[r.apIndex]
	}
	if err := r.sink.WriteLine(fmt.Sprintf("%s %d", formatTime(r.bucket), value)); err != nil {
		return err
	}
	if r.metrics != nil {
		r.metrics.LineEmitted("connectivity_log")
	}
	return nil
}

func (r *ConnectivityLogReport) sumLocked() int {
	sum := 0
	for _, c := range r.counts {
		sum += c
	}
	return sum
}

// applyLocked applies a single event's delta. Message events are accepted
// and ignored; connect events without an access point on either side (a
// direct host-to-host contact) carry no counter delta either.
func (r *ConnectivityLogReport) applyLocked(ev model.Event) error {
	if ev.Kind != model.EventConnectUp && ev.Kind != model.EventConnectDown {
		return nil
	}

	host := ""
	if strings.HasPrefix(ev.HostA, r.apPrefix) {
		host = ev.HostA
	} else if strings.HasPrefix(ev.HostB, r.apPrefix) {
		host = ev.HostB
	} else {
		return nil
	}

	idx, err := r.parseAPIndex(host)
	if err != nil {
		return err
	}

	if ev.Kind == model.EventConnectUp {
		r.counts[idx]++
		return nil
	}
	if r.counts[idx] == 0 {
		// An unmatched disconnect means the upstream event ordering is
		// broken; clamping would hide it.
		return fmt.Errorf("%w: disconnect for %s would drive its counter negative", core.ErrState, host)
	}
	r.counts[idx]--
	return nil
}

// parseAPIndex extracts the fixed-width numeric suffix of an access-point
// identifier.
func (r *ConnectivityLogReport) parseAPIndex(host string) (int, error) {
	suffix := strings.TrimPrefix(host, r.apPrefix)
	if len(suffix) != apIndexWidth {
		return 0, fmt.Errorf("%w: access point id %q: want %d-digit suffix", core.ErrParse, host, apIndexWidth)
	}
	idx := 0
	for _, c := range suffix {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: access point id %q: non-numeric suffix", core.ErrParse, host)
		}
		idx = idx*10 + int(c-'0')
	}
	if idx >= len(r.counts) {
		return 0, fmt.Errorf("%w: access point %d outside configured %d counters", core.ErrRange, idx, len(r.counts))
	}
	return idx, nil
}
