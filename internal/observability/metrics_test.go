package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSimCollectorCountsEventsAndLines(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewSimCollector(reg)
	if err != nil {
		t.Fatalf("NewSimCollector: %v", err)
	}

	collector.EventProcessed("CONN up")
	collector.EventProcessed("CONN up")
	collector.EventProcessed("CONN down")
	collector.LineEmitted("connected_time")
	collector.PathRequested()

	if got := testutil.ToFloat64(collector.EventsProcessed.WithLabelValues("CONN up")); got != 2 {
		t.Fatalf("sim_events_processed_total{kind=\"CONN up\"} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.EventsProcessed.WithLabelValues("CONN down")); got != 1 {
		t.Fatalf("sim_events_processed_total{kind=\"CONN down\"} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.ReportLines.WithLabelValues("connected_time")); got != 1 {
		t.Fatalf("sim_report_lines_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.PathRequests); got != 1 {
		t.Fatalf("sim_path_requests_total = %v, want 1", got)
	}
}

func TestSimCollectorReregistersExistingCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewSimCollector(reg)
	if err != nil {
		t.Fatalf("NewSimCollector: %v", err)
	}
	second, err := NewSimCollector(reg)
	if err != nil {
		t.Fatalf("NewSimCollector (second): %v", err)
	}

	first.EventProcessed("CONN up")
	second.EventProcessed("CONN up")

	if got := testutil.ToFloat64(first.EventsProcessed.WithLabelValues("CONN up")); got != 2 {
		t.Fatalf("shared counter = %v, want 2", got)
	}
}

func TestMetricsHandlerExposesRunGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewSimCollector(reg)
	if err != nil {
		t.Fatalf("NewSimCollector: %v", err)
	}
	collector.SetAgents(42)
	collector.SetConnectedHosts(7)
	collector.EventProcessed("CONN up")
	collector.LineEmitted("connectivity_log")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"sim_events_processed_total",
		"sim_report_lines_total",
		"sim_agents",
		"sim_connected_hosts",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}
	if !strings.Contains(body, "42") || !strings.Contains(body, "7") {
		t.Fatalf("/metrics output missing gauge values: %s", body)
	}
}
