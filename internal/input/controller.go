// Package input turns canvas-local pointer events into selection changes
// and swap requests. The controller owns only the transient selection; all
// durable state stays with the session.
package input

import (
	"context"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/swapgraph/tileswap/internal/render"
	"github.com/swapgraph/tileswap/internal/state"
)

// Session is the slice of the game session the controller needs. Anim is a
// snapshot copy, safe to read off the session's goroutine.
type Session interface {
	State() *state.GameState
	Anim() render.Anim
	Swap(ctx context.Context, a, b state.NodeID) error
}

// Sounds is the click/swap feedback surface.
type Sounds interface {
	Click()
	Swap()
}

type Controller struct {
	sess   Session
	sounds Sounds
	size   func() (w, h int)
	redraw func()
	log    *zap.Logger

	// async runs the swap dispatch off the event pump. Tests replace it to
	// run inline.
	async func(func())

	mu      sync.Mutex
	sel     state.Selection
	enabled bool
}

func NewController(sess Session, sounds Sounds, size func() (int, int), redraw func(), log *zap.Logger) *Controller {
	return &Controller{
		sess:    sess,
		sounds:  sounds,
		size:    size,
		redraw:  redraw,
		log:     log,
		async:   func(f func()) { go f() },
		enabled: true,
	}
}

// Selection returns the current transient selection.
func (c *Controller) Selection() state.Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel
}

// ResetSelection clears selection and hover. Wired to every state
// replacement.
func (c *Controller) ResetSelection() {
	c.mu.Lock()
	c.sel.Reset()
	c.mu.Unlock()
}

// SetEnabled gates pointer interaction entirely, used by turn-based
// multiplayer when it is not the local player's turn. Disabling drops any
// pending selection.
func (c *Controller) SetEnabled(enabled bool) {
	c.mu.Lock()
	c.enabled = enabled
	if !enabled {
		c.sel.Reset()
	}
	c.mu.Unlock()
	c.redraw()
}

func (c *Controller) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// nodeAt resolves the tapped node by nearest-node-within-radius, first
// match in snapshot order. Vertical distance is doubled to compensate for
// the cell aspect ratio.
func (c *Controller) nodeAt(g *state.GameState, x, y int) state.NodeID {
	w, h := c.size()
	for _, n := range g.Nodes {
		nx, ny := render.ScreenPos(g, n, w, h)
		dx := float64(x) - nx
		dy := (float64(y) - ny) * 2
		if math.Sqrt(dx*dx+dy*dy) <= render.NodeRadius {
			return n
		}
	}
	return state.NoNode
}

// OnPointerTap applies the selection transition table. Ignored with no
// loaded state, an inactive puzzle, interaction disabled, or an animation
// in progress (the in-progress check is what prevents overlapping swap
// requests).
func (c *Controller) OnPointerTap(ctx context.Context, x, y int) {
	g := c.sess.State()
	if g == nil || !g.Active || c.sess.Anim().InProgress || !c.Enabled() {
		return
	}

	tapped := c.nodeAt(g, x, y)

	c.mu.Lock()
	selected := c.sel.Selected
	switch {
	case tapped == state.NoNode:
		c.sel.Selected = state.NoNode
		c.mu.Unlock()
		c.redraw()
	case selected == state.NoNode:
		c.sel.Selected = tapped
		c.mu.Unlock()
		c.sounds.Click()
		c.redraw()
	case selected == tapped:
		c.sel.Selected = state.NoNode
		c.mu.Unlock()
		c.sounds.Click()
		c.redraw()
	default:
		// Selection resets before the request goes out; the outcome of the
		// swap does not bring it back.
		c.sel.Selected = state.NoNode
		c.mu.Unlock()
		c.redraw()
		c.async(func() {
			if err := c.sess.Swap(ctx, selected, tapped); err == nil {
				c.sounds.Swap()
			}
		})
	}
}

// OnPointerMove tracks hover and redraws only when the resolved node
// identity changes.
func (c *Controller) OnPointerMove(x, y int) {
	g := c.sess.State()
	if g == nil {
		return
	}
	hovered := c.nodeAt(g, x, y)

	c.mu.Lock()
	changed := hovered != c.sel.Hovered
	c.sel.Hovered = hovered
	c.mu.Unlock()
	if changed {
		c.redraw()
	}
}
