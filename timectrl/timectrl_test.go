package timectrl

import "testing"

func TestNewTimeControllerValidation(t *testing.T) {
	if _, err := NewTimeController(0, 100, 0); err == nil {
		t.Errorf("zero tick should be rejected")
	}
	if _, err := NewTimeController(100, 50, 1); err == nil {
		t.Errorf("end before start should be rejected")
	}
}

func TestRunVisitsEveryTickInclusive(t *testing.T) {
	tc, err := NewTimeController(0, 5, 1)
	if err != nil {
		t.Fatalf("NewTimeController: %v", err)
	}

	var visited []float64
	tc.AddListener(func(tm float64) { visited = append(visited, tm) })
	tc.Run()

	want := []float64{0, 1, 2, 3, 4, 5}
	if len(visited) != len(want) {
		t.Fatalf("visited = %v, want %v", visited, want)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Errorf("tick %d = %g, want %g", i, visited[i], want[i])
		}
	}
}

// Listeners run in registration order within a tick, and every listener sees
// the tick's time through Now().
func TestListenersOrderedAndClockConsistent(t *testing.T) {
	tc, err := NewTimeController(10, 12, 1)
	if err != nil {
		t.Fatalf("NewTimeController: %v", err)
	}

	var order []string
	tc.AddListener(func(tm float64) {
		order = append(order, "a")
		if got := tc.Now(); got != tm {
			t.Errorf("Now() = %g inside tick %g", got, tm)
		}
	})
	tc.AddListener(func(tm float64) { order = append(order, "b") })
	tc.Run()

	if len(order) != 6 {
		t.Fatalf("order = %v, want 6 entries", order)
	}
	for i := 0; i < len(order); i += 2 {
		if order[i] != "a" || order[i+1] != "b" {
			t.Fatalf("order = %v, want a,b per tick", order)
		}
	}
}

func TestNowBeforeRunIsStart(t *testing.T) {
	tc, err := NewTimeController(36000, 50000, 1)
	if err != nil {
		t.Fatalf("NewTimeController: %v", err)
	}
	if got := tc.Now(); got != 36000 {
		t.Errorf("Now() = %g, want start before the run", got)
	}
}

func TestFixedClock(t *testing.T) {
	var c SimClock = FixedClock(21600)
	if got := c.Now(); got != 21600 {
		t.Errorf("FixedClock.Now() = %g, want 21600", got)
	}
}
