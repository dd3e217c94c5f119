package render

import (
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/swapgraph/tileswap/internal/state"
)

// gridSurface is an in-memory Surface for draw assertions.
type gridSurface struct {
	w, h    int
	chars   [][]rune
	fg, bg  [][]Color
	flushed int
}

func newGridSurface(w, h int) *gridSurface {
	g := &gridSurface{w: w, h: h}
	g.Clear()
	return g
}

func (g *gridSurface) Size() (int, int) { return g.w, g.h }

func (g *gridSurface) Clear() {
	g.chars = make([][]rune, g.h)
	g.fg = make([][]Color, g.h)
	g.bg = make([][]Color, g.h)
	for y := range g.chars {
		g.chars[y] = make([]rune, g.w)
		g.fg[y] = make([]Color, g.w)
		g.bg[y] = make([]Color, g.w)
		for x := range g.chars[y] {
			g.chars[y][x] = ' '
		}
	}
}

func (g *gridSurface) SetCell(x, y int, ch rune, fg, bg Color) {
	if x < 0 || y < 0 || x >= g.w || y >= g.h {
		return
	}
	g.chars[y][x] = ch
	g.fg[y][x] = fg
	g.bg[y][x] = bg
}

func (g *gridSurface) Flush() { g.flushed++ }

func (g *gridSurface) row(y int) string { return string(g.chars[y]) }

func (g *gridSurface) contains(text string) bool {
	for y := 0; y < g.h; y++ {
		if strings.Contains(g.row(y), text) {
			return true
		}
	}
	return false
}

// twoNodeState places node 1 at the left quarter and node 2 at the right
// quarter of the surface, connected by one edge.
func twoNodeState() *state.GameState {
	return &state.GameState{
		Nodes: []state.NodeID{1, 2},
		Edges: []state.Edge{{1, 2}},
		NodePosition: map[state.NodeID]state.Position{
			1: {X: 0.25, Y: 0.5},
			2: {X: 0.75, Y: 0.5},
		},
		Tiles: map[state.NodeID]state.Tile{
			1: {Value: 2, Matched: false},
			2: {Value: 2, Matched: true},
		},
		Active: true,
	}
}

func TestDrawPlaceholderWithoutState(t *testing.T) {
	s := newGridSurface(60, 20)
	NewEngine(zap.NewNop()).Draw(s, Frame{})
	if !s.contains(`Press "n" to start a new random game`) {
		t.Fatalf("placeholder not drawn:\n%s", s.row(10))
	}
	if s.flushed != 1 {
		t.Fatalf("flushed %d times, want 1", s.flushed)
	}
}

func TestDrawNodeLabelsAndTileVisibility(t *testing.T) {
	st := twoNodeState()
	s := newGridSurface(80, 24)
	e := NewEngine(zap.NewNop())

	e.Draw(s, Frame{State: st, ShowTiles: true})
	for _, want := range []string{"N1", "N2"} {
		if !s.contains(want) {
			t.Fatalf("label %s not drawn", want)
		}
	}
	// Node 1 carries tile 2: its value row must show it.
	if s.chars[13][20] != '2' {
		t.Fatalf("tile value missing at node 1 value row, got %q", s.chars[13][20])
	}

	s2 := newGridSurface(80, 24)
	e.Draw(s2, Frame{State: st, ShowTiles: false})
	if s2.chars[13][20] == '2' {
		t.Fatalf("tile value drawn with ShowTiles off")
	}
	if !s2.contains("N1") {
		t.Fatalf("node label must draw even with tiles hidden")
	}
}

func TestDrawNodeFillReflectsMatched(t *testing.T) {
	st := twoNodeState()
	s := newGridSurface(80, 24)
	NewEngine(zap.NewNop()).Draw(s, Frame{State: st})

	// Node centers: (20,12) unmatched, (60,12) matched.
	if got := s.bg[12][20]; got != ColorUnmatched {
		t.Fatalf("node 1 fill = %v, want unmatched", got)
	}
	if got := s.bg[12][60]; got != ColorMatched {
		t.Fatalf("node 2 fill = %v, want matched", got)
	}
}

func TestDrawBorderPrecedence(t *testing.T) {
	st := twoNodeState()
	e := NewEngine(zap.NewNop())

	// Node 1 border cell sits at the box corner (20-4, 12-1).
	borderAt := func(f Frame) Color {
		s := newGridSurface(80, 24)
		e.Draw(s, f)
		return s.fg[11][16]
	}

	if got := borderAt(Frame{State: st}); got != ColorEdge {
		t.Fatalf("plain border = %v, want edge color", got)
	}
	if got := borderAt(Frame{State: st, Sel: state.Selection{Hovered: 1}}); got != ColorHovered {
		t.Fatalf("hovered border = %v", got)
	}
	// Selected wins over hovered on the same node.
	sel := state.Selection{Selected: 1, Hovered: 1}
	if got := borderAt(Frame{State: st, Sel: sel}); got != ColorSelected {
		t.Fatalf("selected border = %v", got)
	}
}

func TestDrawEdgeStipple(t *testing.T) {
	st := twoNodeState()
	s := newGridSurface(80, 24)
	NewEngine(zap.NewNop()).Draw(s, Frame{State: st})

	// Midpoint of the 1..2 edge lies between the node boxes.
	if s.chars[12][40] != '.' {
		t.Fatalf("edge stipple missing at midpoint, got %q", s.chars[12][40])
	}
}

func TestAnimShiftsPairTowardEachOther(t *testing.T) {
	st := twoNodeState()
	anim := Anim{InProgress: true, Progress: 0.5, Pair: [2]state.NodeID{1, 2}}

	f := Frame{State: st, Anim: anim}
	x1, y1 := nodePos(f, 1, 80, 24)
	x2, y2 := nodePos(f, 2, 80, 24)

	// At half progress (ease = 0.5) both nodes sit at the midpoint.
	if x1 != 40 || x2 != 40 || y1 != 12 || y2 != 12 {
		t.Fatalf("positions (%v,%v) (%v,%v), want both at (40,12)", x1, y1, x2, y2)
	}

	// A bystander node does not move.
	st.Nodes = append(st.Nodes, 3)
	st.NodePosition[3] = state.Position{X: 0.5, Y: 0.25}
	st.Tiles[3] = state.Tile{Value: 3, Matched: true}
	x3, y3 := nodePos(f, 3, 80, 24)
	if x3 != 40 || y3 != 6 {
		t.Fatalf("bystander moved to (%v,%v)", x3, y3)
	}
}
