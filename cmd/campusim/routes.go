package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dtnlabs/campusim/model"
)

// dirRouteSource resolves route data from YAML files in a directory: the
// source ID names the file (without extension), each file holds a list of
// routes as stop-coordinate lists.
type dirRouteSource struct {
	dir string
}

func newDirRouteSource(dir string) *dirRouteSource {
	return &dirRouteSource{dir: dir}
}

type routeFileYAML struct {
	Routes [][][2]float64 `yaml:"routes"`
}

// Routes implements core.RouteSource.
func (s *dirRouteSource) Routes(sourceID string, kind model.RouteKind) ([]*model.Route, error) {
	path := filepath.Join(s.dir, sourceID+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read route file %q: %w", path, err)
	}

	var doc routeFileYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode route file %q: %w", path, err)
	}
	if len(doc.Routes) == 0 {
		return nil, fmt.Errorf("route file %q holds no routes", path)
	}

	routes := make([]*model.Route, 0, len(doc.Routes))
	for i, stops := range doc.Routes {
		coords := make([]model.Coord, len(stops))
		for j, s := range stops {
			coords[j] = model.Coord{X: s[0], Y: s[1]}
		}
		route, err := model.NewRoute(kind, coords)
		if err != nil {
			return nil, fmt.Errorf("route %d in %q: %w", i, path, err)
		}
		routes = append(routes, route)
	}
	return routes, nil
}
