package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dtnlabs/campusim/model"
)

func writeRouteFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write route file: %v", err)
	}
}

func TestDirRouteSourceLoadsRoutes(t *testing.T) {
	dir := t.TempDir()
	writeRouteFile(t, dir, "corridors.yaml", `
routes:
  - [[0, 0], [10, 0], [10, 10]]
  - [[5, 5], [6, 6]]
`)

	routes, err := newDirRouteSource(dir).Routes("corridors", model.RouteCircular)
	if err != nil {
		t.Fatalf("Routes: %v", err)
	}
	if len(routes) != 2 {
		t.Fatalf("routes = %d, want 2", len(routes))
	}
	if routes[0].NumStops() != 3 || routes[1].NumStops() != 2 {
		t.Errorf("stop counts = %d/%d, want 3/2", routes[0].NumStops(), routes[1].NumStops())
	}
	if first := routes[0].NextStop(); first.X != 0 || first.Y != 0 {
		t.Errorf("first stop = %v, want (0,0)", first)
	}
}

func TestDirRouteSourceErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := newDirRouteSource(dir).Routes("missing", model.RouteCircular); err == nil {
		t.Errorf("missing file should fail")
	}

	writeRouteFile(t, dir, "empty.yaml", "routes: []\n")
	if _, err := newDirRouteSource(dir).Routes("empty", model.RouteCircular); err == nil {
		t.Errorf("file without routes should fail")
	}

	writeRouteFile(t, dir, "short.yaml", "routes:\n  - [[1, 1]]\n")
	if _, err := newDirRouteSource(dir).Routes("short", model.RouteCircular); err == nil {
		t.Errorf("single-stop route should fail")
	}
}
