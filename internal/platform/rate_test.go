package platform

import "testing"

func TestDeriveNormal(t *testing.T) {
	rate := Derive(1000, 1500, 1.0)
	if rate != 500 {
		t.Fatalf("expected 500, got %v", rate)
	}
}

func TestDeriveCounterWrap(t *testing.T) {
	rate := Derive(1000, 500, 1.0)
	if rate != 0 {
		t.Fatalf("expected 0 on counter wrap, got %v", rate)
	}
}

func TestDeriveNonPositiveDt(t *testing.T) {
	if rate := Derive(100, 200, 0); rate != 0 {
		t.Fatalf("expected 0 for dt=0, got %v", rate)
	}
	if rate := Derive(100, 200, -1); rate != 0 {
		t.Fatalf("expected 0 for dt<0, got %v", rate)
	}
}

func TestDeriveNeverNegativeOrInfinite(t *testing.T) {
	cases := []struct {
		prev, cur uint64
		dt        float64
	}{
		{1000, 500, 1}, {0, 0, 1}, {100, 100, 0.5}, {5, 0, -3},
	}
	for _, c := range cases {
		rate := Derive(c.prev, c.cur, c.dt)
		if rate < 0 {
			t.Fatalf("rate must never be negative, got %v for %+v", rate, c)
		}
	}
}

func TestRateTrackerFirstObservationIsZero(t *testing.T) {
	var rt RateTracker
	if got := rt.Next(1000, 1.0); got != 0 {
		t.Fatalf("first observation must be 0, got %v", got)
	}
	if got := rt.Next(1500, 1.0); got != 500 {
		t.Fatalf("second observation expected 500, got %v", got)
	}
}
