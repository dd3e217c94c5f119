// Package render draws puzzle snapshots onto a cell-grid surface. Drawing
// is a pure function of (state, selection, animation); the engine owns no
// mutable state beyond its logger.
package render

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/swapgraph/tileswap/internal/state"
)

// NodeRadius is the hit-test and drawing radius in cells (horizontal;
// vertical distances are doubled to compensate for cell aspect).
const NodeRadius = 4.0

const placeholderMsg = `Press "n" to start a new random game`

type Engine struct {
	log *zap.Logger
}

func NewEngine(log *zap.Logger) *Engine {
	return &Engine{log: log}
}

// Frame is one complete set of draw inputs. Palette mapping belongs to the
// surface, so the theme is not part of the frame. Anim is a copy taken when
// the frame was assembled; the live animation is owned elsewhere.
type Frame struct {
	State     *state.GameState
	Sel       state.Selection
	Anim      Anim
	ShowTiles bool
}

// ScreenPos maps a node's normalized position onto a w×h surface.
func ScreenPos(g *state.GameState, id state.NodeID, w, h int) (float64, float64) {
	p := g.NodePosition[id]
	return p.X * float64(w), p.Y * float64(h)
}

// Draw renders one frame. With no loaded state it shows the placeholder
// instruction instead.
func (e *Engine) Draw(s Surface, f Frame) {
	s.Clear()
	w, h := s.Size()

	if f.State == nil {
		drawText(s, (w-len(placeholderMsg))/2, h/2, placeholderMsg, ColorMuted, ColorDefault)
		s.Flush()
		return
	}

	for _, edge := range f.State.Edges {
		x1, y1 := ScreenPos(f.State, edge[0], w, h)
		x2, y2 := ScreenPos(f.State, edge[1], w, h)
		drawLine(s, x1, y1, x2, y2)
	}

	for _, node := range f.State.Nodes {
		e.drawNode(s, f, node, w, h)
	}
	s.Flush()
}

// nodePos is the node's draw position for this frame, shifted toward its
// swap partner while an animation is running.
func nodePos(f Frame, id state.NodeID, w, h int) (float64, float64) {
	x, y := ScreenPos(f.State, id, w, h)
	other, ok := f.Anim.Other(id)
	if !ok {
		return x, y
	}
	ox, oy := ScreenPos(f.State, other, w, h)
	t := EaseInOutQuad(f.Anim.Progress)
	return x + (ox-x)*t, y + (oy-y)*t
}

func (e *Engine) drawNode(s Surface, f Frame, id state.NodeID, w, h int) {
	fx, fy := nodePos(f, id, w, h)
	cx, cy := int(math.Round(fx)), int(math.Round(fy))

	tile := f.State.Tiles[id]
	fill := ColorUnmatched
	if tile.Matched {
		fill = ColorMatched
	}

	// Border precedence: selected > hovered > default.
	border := ColorEdge
	switch id {
	case f.Sel.Selected:
		border = ColorSelected
	case f.Sel.Hovered:
		border = ColorHovered
	}

	// Body is a 9x3 block centered on the node.
	const half = 4
	for dy := -1; dy <= 1; dy++ {
		for dx := -half; dx <= half; dx++ {
			ch := ' '
			fg := ColorText
			onEdge := dy == -1 || dy == 1 || dx == -half || dx == half
			if onEdge {
				ch = borderRune(dx, dy, half)
				fg = border
			}
			s.SetCell(cx+dx, cy+dy, ch, fg, fill)
		}
	}

	// Node id above center, tile value below (value hidden pre-start in
	// multiplayer lobbies).
	idLabel := fmt.Sprintf("N%d", id)
	drawText(s, cx-len(idLabel)/2, cy-1, idLabel, ColorText, fill)
	if f.ShowTiles {
		value := fmt.Sprintf("%d", tile.Value)
		drawText(s, cx-len(value)/2, cy+1, value, ColorText, fill)
	}
}

func borderRune(dx, dy, half int) rune {
	switch {
	case dy == 0:
		return '|'
	case dx == -half || dx == half:
		return '+'
	default:
		return '-'
	}
}

func drawText(s Surface, x, y int, text string, fg, bg Color) {
	for i, ch := range text {
		s.SetCell(x+i, y, ch, fg, bg)
	}
}

// drawLine steps along the segment and stipples it. Plenty for edge hints on
// a cell grid; no need for a full Bresenham.
func drawLine(s Surface, x1, y1, x2, y2 float64) {
	steps := int(math.Max(math.Abs(x2-x1), math.Abs(y2-y1)))
	if steps == 0 {
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := int(math.Round(x1 + (x2-x1)*t))
		y := int(math.Round(y1 + (y2-y1)*t))
		s.SetCell(x, y, '.', ColorEdge, ColorDefault)
	}
}
