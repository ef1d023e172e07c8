package model

import "math"

// Coord is a 2D map coordinate in metres. Coordinates are plain values;
// registered locations never change their coordinate after scenario load.
type Coord struct {
	X float64
	Y float64
}

// DistanceTo returns the Euclidean distance to other in metres.
func (c Coord) DistanceTo(other Coord) float64 {
	dx := c.X - other.X
	dy := c.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Equals reports whether two coordinates are exactly the same point.
// Waypoints are copied around verbatim, so exact comparison is safe here.
func (c Coord) Equals(other Coord) bool {
	return c.X == other.X && c.Y == other.Y
}

// Location binds a semantic place label ("entranceN", "library", "office3")
// to a coordinate. Labels are globally unique within a scenario.
type Location struct {
	Label      string
	Coordinate Coord
}
