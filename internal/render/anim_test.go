package render

import (
	"math"
	"testing"
)

func TestAnimRunsTenStepsThenClears(t *testing.T) {
	var a Anim
	a.Start(1, 2)
	if !a.InProgress || a.Progress != 0 {
		t.Fatalf("after Start: %+v", a)
	}

	steps := 0
	for !a.Step() {
		steps++
		if steps > 20 {
			t.Fatalf("animation never finished")
		}
	}
	steps++
	if steps != 10 {
		t.Fatalf("finished in %d steps, want 10", steps)
	}
	if a.InProgress || a.Progress != 0 {
		t.Fatalf("state not cleared after finish: %+v", a)
	}
}

func TestAnimStepIdle(t *testing.T) {
	var a Anim
	if a.Step() {
		t.Fatalf("idle Step reported done")
	}
	if a.InProgress || a.Progress != 0 {
		t.Fatalf("idle Step mutated state: %+v", a)
	}
}

func TestAnimOther(t *testing.T) {
	var a Anim
	if _, ok := a.Other(1); ok {
		t.Fatalf("idle anim claims a partner")
	}
	a.Start(3, 7)
	if p, ok := a.Other(3); !ok || p != 7 {
		t.Fatalf("Other(3) = %d, %v", p, ok)
	}
	if p, ok := a.Other(7); !ok || p != 3 {
		t.Fatalf("Other(7) = %d, %v", p, ok)
	}
	if _, ok := a.Other(5); ok {
		t.Fatalf("Other(5) matched a node outside the pair")
	}
}

func TestEaseInOutQuad(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0, 0},
		{0.25, 0.125},
		{0.5, 0.5},
		{0.75, 0.875},
		{1, 1},
	}
	for _, tc := range cases {
		if got := EaseInOutQuad(tc.in); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("EaseInOutQuad(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
	// Monotonic over the unit interval.
	prev := -1.0
	for x := 0.0; x <= 1.0; x += 0.05 {
		got := EaseInOutQuad(x)
		if got < prev {
			t.Fatalf("ease not monotonic at %v", x)
		}
		prev = got
	}
}
