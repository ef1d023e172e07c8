package core

import "errors"

// Error taxonomy for the simulation core. Loaders and constructors wrap
// ErrConfig so a bad scenario is rejected before the run starts; runtime
// errors during event processing propagate and terminate the run, because
// masking them would silently corrupt the aggregate statistics.
var (
	// ErrConfig marks bad, missing, or inconsistent settings: outcome
	// tables not summing to the scale, overlapping time windows,
	// non-positive granularity, first-stop index past the route end.
	ErrConfig = errors.New("configuration error")

	// ErrDuplicateLabel is returned when a location label is registered
	// twice within one scenario.
	ErrDuplicateLabel = errors.New("duplicate location label")

	// ErrUnknownLabel is returned when a label has no registered
	// coordinate.
	ErrUnknownLabel = errors.New("unknown location label")

	// ErrUnreachable is returned when the path finder reports no path
	// between two required points. The scenario graph is broken; the run
	// must abort rather than silently skip movement.
	ErrUnreachable = errors.New("destination unreachable")

	// ErrParse marks a malformed access-point identifier in the event
	// stream.
	ErrParse = errors.New("malformed identifier")

	// ErrRange marks an access-point index outside the configured counter
	// array.
	ErrRange = errors.New("index out of range")

	// ErrState marks a state invariant violation: a connectivity counter
	// that would go negative, or replication without an initialized route
	// list.
	ErrState = errors.New("invalid state")
)
