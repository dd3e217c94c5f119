package input

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/swapgraph/tileswap/internal/render"
	"github.com/swapgraph/tileswap/internal/state"
)

type stubSession struct {
	st      *state.GameState
	anim    render.Anim
	swaps   [][2]state.NodeID
	swapErr error
}

func (s *stubSession) State() *state.GameState { return s.st }
func (s *stubSession) Anim() render.Anim       { return s.anim }

func (s *stubSession) Swap(_ context.Context, a, b state.NodeID) error {
	s.swaps = append(s.swaps, [2]state.NodeID{a, b})
	return s.swapErr
}

type stubSounds struct {
	clicks, swaps int
}

func (s *stubSounds) Click() { s.clicks++ }
func (s *stubSounds) Swap()  { s.swaps++ }

// Nodes 1 and 2 land at cells (20,12) and (60,12) on an 80x24 surface.
func testState() *state.GameState {
	return &state.GameState{
		Nodes: []state.NodeID{1, 2},
		Edges: []state.Edge{{1, 2}},
		NodePosition: map[state.NodeID]state.Position{
			1: {X: 0.25, Y: 0.5},
			2: {X: 0.75, Y: 0.5},
		},
		Tiles: map[state.NodeID]state.Tile{
			1: {Value: 2},
			2: {Value: 1},
		},
		Active: true,
	}
}

func newController(sess *stubSession, sounds *stubSounds) (*Controller, *int) {
	redraws := 0
	c := NewController(sess, sounds, func() (int, int) { return 80, 24 }, func() { redraws++ }, zap.NewNop())
	c.async = func(f func()) { f() }
	return c, &redraws
}

func TestTapSelectsThenSwaps(t *testing.T) {
	sess := &stubSession{st: testState()}
	sounds := &stubSounds{}
	c, _ := newController(sess, sounds)
	ctx := context.Background()

	c.OnPointerTap(ctx, 20, 12)
	if got := c.Selection().Selected; got != 1 {
		t.Fatalf("selected %d, want 1", got)
	}
	if sounds.clicks != 1 {
		t.Fatalf("clicks %d, want 1", sounds.clicks)
	}

	c.OnPointerTap(ctx, 60, 12)
	if len(sess.swaps) != 1 || sess.swaps[0] != [2]state.NodeID{1, 2} {
		t.Fatalf("swaps %v, want one (1,2)", sess.swaps)
	}
	if got := c.Selection().Selected; got != state.NoNode {
		t.Fatalf("selection survived the swap dispatch: %d", got)
	}
	if sounds.swaps != 1 {
		t.Fatalf("swap sound %d, want 1", sounds.swaps)
	}
}

func TestTapSameNodeDeselects(t *testing.T) {
	sess := &stubSession{st: testState()}
	sounds := &stubSounds{}
	c, _ := newController(sess, sounds)
	ctx := context.Background()

	c.OnPointerTap(ctx, 20, 12)
	c.OnPointerTap(ctx, 20, 12)
	if got := c.Selection().Selected; got != state.NoNode {
		t.Fatalf("still selected: %d", got)
	}
	if len(sess.swaps) != 0 {
		t.Fatalf("deselect dispatched a swap: %v", sess.swaps)
	}
	if sounds.clicks != 2 {
		t.Fatalf("clicks %d, want 2", sounds.clicks)
	}
}

func TestTapEmptySpaceClearsWithoutSound(t *testing.T) {
	sess := &stubSession{st: testState()}
	sounds := &stubSounds{}
	c, _ := newController(sess, sounds)
	ctx := context.Background()

	c.OnPointerTap(ctx, 20, 12)
	sounds.clicks = 0

	c.OnPointerTap(ctx, 40, 2)
	if got := c.Selection().Selected; got != state.NoNode {
		t.Fatalf("tap on empty space kept selection: %d", got)
	}
	if sounds.clicks != 0 {
		t.Fatalf("empty-space tap played a click")
	}
}

func TestSelectionResetsEvenWhenSwapFails(t *testing.T) {
	sess := &stubSession{st: testState(), swapErr: errors.New("rejected")}
	sounds := &stubSounds{}
	c, _ := newController(sess, sounds)
	ctx := context.Background()

	c.OnPointerTap(ctx, 20, 12)
	c.OnPointerTap(ctx, 60, 12)
	if got := c.Selection().Selected; got != state.NoNode {
		t.Fatalf("selection kept after failed swap: %d", got)
	}
	if sounds.swaps != 0 {
		t.Fatalf("swap sound on failure")
	}
	if len(sess.swaps) != 1 {
		t.Fatalf("swaps %v, want exactly one attempt", sess.swaps)
	}
}

func TestTapIgnoredWhenGated(t *testing.T) {
	ctx := context.Background()

	t.Run("no state", func(t *testing.T) {
		sess := &stubSession{}
		sounds := &stubSounds{}
		c, _ := newController(sess, sounds)
		c.OnPointerTap(ctx, 20, 12)
		if sounds.clicks != 0 {
			t.Fatalf("tap with no state reacted")
		}
	})

	t.Run("inactive puzzle", func(t *testing.T) {
		sess := &stubSession{st: testState()}
		sess.st.Active = false
		sounds := &stubSounds{}
		c, _ := newController(sess, sounds)
		c.OnPointerTap(ctx, 20, 12)
		if c.Selection().Selected != state.NoNode || sounds.clicks != 0 {
			t.Fatalf("tap on solved puzzle reacted")
		}
	})

	t.Run("animation running", func(t *testing.T) {
		sess := &stubSession{st: testState()}
		sess.anim.Start(1, 2)
		sounds := &stubSounds{}
		c, _ := newController(sess, sounds)
		c.OnPointerTap(ctx, 20, 12)
		if c.Selection().Selected != state.NoNode {
			t.Fatalf("tap during animation selected a node")
		}
	})

	t.Run("disabled", func(t *testing.T) {
		sess := &stubSession{st: testState()}
		sounds := &stubSounds{}
		c, _ := newController(sess, sounds)
		c.SetEnabled(false)
		c.OnPointerTap(ctx, 20, 12)
		if c.Selection().Selected != state.NoNode || sounds.clicks != 0 {
			t.Fatalf("tap while disabled reacted")
		}
	})
}

func TestDisableDropsPendingSelection(t *testing.T) {
	sess := &stubSession{st: testState()}
	sounds := &stubSounds{}
	c, _ := newController(sess, sounds)

	c.OnPointerTap(context.Background(), 20, 12)
	c.SetEnabled(false)
	if c.Selection().Selected != state.NoNode {
		t.Fatalf("disable kept pending selection")
	}
}

func TestHoverRedrawsOnlyOnIdentityChange(t *testing.T) {
	sess := &stubSession{st: testState()}
	sounds := &stubSounds{}
	c, redraws := newController(sess, sounds)

	c.OnPointerMove(20, 12)
	if *redraws != 1 || c.Selection().Hovered != 1 {
		t.Fatalf("hover enter: redraws=%d hovered=%d", *redraws, c.Selection().Hovered)
	}

	// Still inside node 1: same identity, no redraw.
	c.OnPointerMove(21, 12)
	if *redraws != 1 {
		t.Fatalf("redraw on unchanged hover: %d", *redraws)
	}

	c.OnPointerMove(40, 2)
	if *redraws != 2 || c.Selection().Hovered != state.NoNode {
		t.Fatalf("hover leave: redraws=%d hovered=%d", *redraws, c.Selection().Hovered)
	}
}

func TestNodeHitTestUsesDoubledVerticalDistance(t *testing.T) {
	sess := &stubSession{st: testState()}
	c, _ := newController(sess, &stubSounds{})

	// Horizontal reach: 4 cells away still hits.
	if got := c.nodeAt(sess.st, 24, 12); got != 1 {
		t.Fatalf("x+4 missed: %d", got)
	}
	if got := c.nodeAt(sess.st, 25, 12); got != state.NoNode {
		t.Fatalf("x+5 hit: %d", got)
	}
	// Vertical reach: 2 cells (doubled) still hits, 3 does not.
	if got := c.nodeAt(sess.st, 20, 14); got != 1 {
		t.Fatalf("y+2 missed: %d", got)
	}
	if got := c.nodeAt(sess.st, 20, 15); got != state.NoNode {
		t.Fatalf("y+3 hit: %d", got)
	}
}

func TestResetSelectionOnStateReplacement(t *testing.T) {
	sess := &stubSession{st: testState()}
	c, _ := newController(sess, &stubSounds{})

	c.OnPointerTap(context.Background(), 20, 12)
	c.OnPointerMove(60, 12)
	c.ResetSelection()
	sel := c.Selection()
	if sel.Selected != state.NoNode || sel.Hovered != state.NoNode {
		t.Fatalf("reset left %+v", sel)
	}
}
