// Package timectrl drives simulated time. The simulation is cooperative and
// single-threaded: the controller advances the clock tick by tick and calls
// every listener synchronously at each step, standing in for the external
// discrete-event scheduler.
package timectrl

import (
	"fmt"
	"sync"
)

// SimClock is the read side of simulated time, in seconds since the start
// of the scenario day. Components depend on this abstraction rather than on
// the concrete controller, which keeps them testable with fixed times.
type SimClock interface {
	Now() float64
}

// TimeController steps simulated time from Start to End in Tick increments.
type TimeController struct {
	mu sync.RWMutex

	Start float64
	End   float64
	Tick  float64

	current   float64
	listeners []func(float64)
}

// NewTimeController validates the bounds and constructs a controller
// positioned at Start.
func NewTimeController(start, end, tick float64) (*TimeController, error) {
	if tick <= 0 {
		return nil, fmt.Errorf("timectrl: tick must be positive, got %g", tick)
	}
	if end < start {
		return nil, fmt.Errorf("timectrl: end %g before start %g", end, start)
	}
	return &TimeController{
		Start:   start,
		End:     end,
		Tick:    tick,
		current: start,
	}, nil
}

// Now returns the current simulated time. Implements SimClock.
func (tc *TimeController) Now() float64 {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.current
}

// AddListener registers a callback invoked at every tick, in registration
// order. Register before Run; the listener list is not protected against
// concurrent mutation.
func (tc *TimeController) AddListener(fn func(float64)) {
	tc.listeners = append(tc.listeners, fn)
}

// Run advances the clock synchronously until End, inclusive. Each tick's
// listeners all complete before time moves on, so everything a listener
// observes at time t is fully settled for t.
func (tc *TimeController) Run() {
	for t := tc.Start; t <= tc.End; t += tc.Tick {
		tc.mu.Lock()
		tc.current = t
		tc.mu.Unlock()

		for _, fn := range tc.listeners {
			fn(t)
		}
	}
}

// FixedClock is a SimClock pinned to one instant, for tests and for policy
// evaluation at an arbitrary time.
type FixedClock float64

// Now implements SimClock.
func (c FixedClock) Now() float64 { return float64(c) }
