package editor

import (
	"fmt"
	"math"

	"github.com/swapgraph/tileswap/internal/render"
)

// View draws the working graph onto a surface: edges, the in-progress drag
// line, then nodes with their ids, and the status line at the bottom.
type View struct {
	Graph *Graph
}

func (v *View) Draw(s render.Surface) {
	s.Clear()
	_, h := s.Size()
	g := v.Graph

	byID := make(map[int]Node, len(g.Nodes))
	for _, n := range g.Nodes {
		byID[n.ID] = n
	}
	for e := range g.edges {
		a, b := byID[e[0]], byID[e[1]]
		line(s, a.X, a.Y, b.X, b.Y, '.')
	}
	if g.dragging {
		from := byID[g.dragFrom]
		line(s, from.X, from.Y, g.dragX, g.dragY, ':')
	}
	for _, n := range g.Nodes {
		label := fmt.Sprintf("(%d)", n.ID)
		x := int(math.Round(n.X)) - len(label)/2
		y := int(math.Round(n.Y))
		for i, ch := range label {
			s.SetCell(x+i, y, ch, render.ColorText, render.ColorUnmatched)
		}
	}
	status := g.Status()
	for i, ch := range status {
		s.SetCell(1+i, h-1, ch, render.ColorMuted, render.ColorDefault)
	}
	s.Flush()
}

func line(s render.Surface, x1, y1, x2, y2 float64, ch rune) {
	steps := int(math.Max(math.Abs(x2-x1), math.Abs(y2-y1)))
	if steps == 0 {
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := int(math.Round(x1 + (x2-x1)*t))
		y := int(math.Round(y1 + (y2-y1)*t))
		s.SetCell(x, y, ch, render.ColorEdge, render.ColorDefault)
	}
}
