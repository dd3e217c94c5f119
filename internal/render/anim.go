package render

import "github.com/swapgraph/tileswap/internal/state"

// ProgressStep is how far a swap animation advances per frame callback.
// Starting from zero it converges to 1 in at most ten steps; a slow host
// just delivers the frames later.
const ProgressStep = 0.1

// Anim is the transient swap animation. It is created only after the server
// accepts a swap, never on click, and cleared once progress reaches 1.
type Anim struct {
	InProgress bool
	Progress   float64
	Pair       [2]state.NodeID
}

// Start arms the animation for the two swapped nodes.
func (a *Anim) Start(n1, n2 state.NodeID) {
	a.InProgress = true
	a.Progress = 0
	a.Pair = [2]state.NodeID{n1, n2}
}

// Step advances one frame and reports whether the animation just finished.
// Finishing clears the state.
func (a *Anim) Step() bool {
	if !a.InProgress {
		return false
	}
	a.Progress += ProgressStep
	// Accumulated float error can leave the sum a hair under 1.
	if a.Progress >= 1-ProgressStep/2 {
		*a = Anim{}
		return true
	}
	return false
}

// Other returns the partner node when id is part of the animating pair.
func (a *Anim) Other(id state.NodeID) (state.NodeID, bool) {
	if !a.InProgress {
		return 0, false
	}
	switch id {
	case a.Pair[0]:
		return a.Pair[1], true
	case a.Pair[1]:
		return a.Pair[0], true
	}
	return 0, false
}

// EaseInOutQuad is the quadratic ease curve used to interpolate the two
// animating nodes toward each other's positions.
func EaseInOutQuad(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - (-2*t+2)*(-2*t+2)/2
}
