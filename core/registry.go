package core

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/dtnlabs/campusim/model"
)

// LocationRegistry maps semantic place labels to coordinates. It is built
// once during scenario load and read for the rest of the run.
//
// A label may be bound either to a single coordinate or to a pool of
// equivalent coordinates (e.g. the open-study seats). Resolving a pool label
// draws one member uniformly at random on every call, so Resolve is
// intentionally not idempotent for pools.
type LocationRegistry struct {
	mu sync.RWMutex

	coords map[string]model.Coord
	pools  map[string][]model.Coord

	rng *rand.Rand
}

// NewLocationRegistry constructs an empty registry. The rng drives pool
// draws; pass a seeded source for reproducible runs, or nil to fall back to
// the global source.
func NewLocationRegistry(rng *rand.Rand) *LocationRegistry {
	return &LocationRegistry{
		coords: make(map[string]model.Coord),
		pools:  make(map[string][]model.Coord),
		rng:    rng,
	}
}

// Register binds label to a single coordinate. Rebinding an existing label
// (single or pool) fails with ErrDuplicateLabel.
func (lr *LocationRegistry) Register(label string, c model.Coord) error {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	if lr.bound(label) {
		return fmt.Errorf("%w: %q", ErrDuplicateLabel, label)
	}
	lr.coords[label] = c
	return nil
}

// RegisterPool binds label to a set of equivalent coordinates. Resolve picks
// one member per call.
func (lr *LocationRegistry) RegisterPool(label string, members []model.Coord) error {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	if lr.bound(label) {
		return fmt.Errorf("%w: %q", ErrDuplicateLabel, label)
	}
	if len(members) == 0 {
		return fmt.Errorf("%w: pool %q has no members", ErrConfig, label)
	}
	pool := make([]model.Coord, len(members))
	copy(pool, members)
	lr.pools[label] = pool
	return nil
}

// Resolve returns the coordinate bound to label. For pool labels it performs
// a uniform random draw over the members, returning a possibly different
// concrete coordinate each call. Unknown labels fail with ErrUnknownLabel;
// there is no silent fallback.
func (lr *LocationRegistry) Resolve(label string) (model.Coord, error) {
	lr.mu.RLock()
	defer lr.mu.RUnlock()

	if c, ok := lr.coords[label]; ok {
		return c, nil
	}
	if pool, ok := lr.pools[label]; ok {
		return pool[lr.intn(len(pool))], nil
	}
	return model.Coord{}, fmt.Errorf("%w: %q", ErrUnknownLabel, label)
}

// Contains reports whether label is bound, as a single coordinate or a pool.
func (lr *LocationRegistry) Contains(label string) bool {
	lr.mu.RLock()
	defer lr.mu.RUnlock()
	return lr.bound(label)
}

// Labels returns every bound label. Order is unspecified.
func (lr *LocationRegistry) Labels() []string {
	lr.mu.RLock()
	defer lr.mu.RUnlock()

	out := make([]string, 0, len(lr.coords)+len(lr.pools))
	for l := range lr.coords {
		out = append(out, l)
	}
	for l := range lr.pools {
		out = append(out, l)
	}
	return out
}

func (lr *LocationRegistry) bound(label string) bool {
	if _, ok := lr.coords[label]; ok {
		return true
	}
	_, ok := lr.pools[label]
	return ok
}

func (lr *LocationRegistry) intn(n int) int {
	if lr.rng != nil {
		return lr.rng.Intn(n)
	}
	return rand.Intn(n)
}
