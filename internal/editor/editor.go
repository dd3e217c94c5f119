// Package editor is the custom graph authoring view: place nodes, drag
// edges between them, and submit the result to the server as a custom
// puzzle. Only the connectivity check lives client-side; everything else
// about puzzle validity belongs to the server.
package editor

import (
	"errors"
	"fmt"
	"math"

	"github.com/swapgraph/tileswap/internal/render"
	"github.com/swapgraph/tileswap/internal/state"
)

var (
	ErrTooFewNodes  = errors.New("need at least 2 nodes to create a graph")
	ErrNotConnected = errors.New("graph must be connected (all nodes must be reachable)")
)

// MaxNodes caps authored graphs.
const MaxNodes = 20

type Node struct {
	ID   int
	X, Y float64
}

// Graph is the editor's working state. Node ids come from a monotonic
// counter and are never reused after removal. Edges are stored as
// (min id, max id) so duplicate detection is order-independent.
type Graph struct {
	Nodes  []Node
	edges  map[[2]int]struct{}
	nextID int

	// In-progress edge drag, for the preview line.
	dragFrom     int
	dragX, dragY float64
	dragging     bool
}

func NewGraph() *Graph {
	return &Graph{
		edges:  make(map[[2]int]struct{}),
		nextID: 1,
	}
}

// NodeAt returns the first node within the hit radius, or zero.
func (g *Graph) NodeAt(x, y float64) int {
	for _, n := range g.Nodes {
		dx := x - n.X
		dy := (y - n.Y) * 2
		if math.Sqrt(dx*dx+dy*dy) <= render.NodeRadius {
			return n.ID
		}
	}
	return 0
}

// AddNode places a node on empty space. Rejected silently at the cap or on
// top of an existing node.
func (g *Graph) AddNode(x, y float64) (int, bool) {
	if len(g.Nodes) >= MaxNodes || g.NodeAt(x, y) != 0 {
		return 0, false
	}
	id := g.nextID
	g.nextID++
	g.Nodes = append(g.Nodes, Node{ID: id, X: x, Y: y})
	return id, true
}

// RemoveNode deletes a node and every edge touching it.
func (g *Graph) RemoveNode(id int) {
	for i, n := range g.Nodes {
		if n.ID == id {
			g.Nodes = append(g.Nodes[:i], g.Nodes[i+1:]...)
			break
		}
	}
	for e := range g.edges {
		if e[0] == id || e[1] == id {
			delete(g.edges, e)
		}
	}
}

// AddEdge connects two existing nodes. Duplicates (in either endpoint
// order) and self-loops are silently ignored.
func (g *Graph) AddEdge(a, b int) bool {
	if a == b || !g.hasNode(a) || !g.hasNode(b) {
		return false
	}
	e := normalize(a, b)
	if _, dup := g.edges[e]; dup {
		return false
	}
	g.edges[e] = struct{}{}
	return true
}

func normalize(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

func (g *Graph) hasNode(id int) bool {
	for _, n := range g.Nodes {
		if n.ID == id {
			return true
		}
	}
	return false
}

// EdgeCount returns the number of stored edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Edges returns the edge set in normalized pair form.
func (g *Graph) Edges() []state.Edge {
	out := make([]state.Edge, 0, len(g.edges))
	for e := range g.edges {
		out = append(out, state.Edge{state.NodeID(e[0]), state.NodeID(e[1])})
	}
	return out
}

// IsConnected runs a breadth-first traversal from an arbitrary node over
// the undirected edge set. An empty graph is not connected; a single node
// is.
func (g *Graph) IsConnected() bool {
	if len(g.Nodes) == 0 {
		return false
	}
	if len(g.Nodes) == 1 {
		return true
	}

	visited := map[int]bool{g.Nodes[0].ID: true}
	queue := []int{g.Nodes[0].ID}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for e := range g.edges {
			var neighbor int
			switch cur {
			case e[0]:
				neighbor = e[1]
			case e[1]:
				neighbor = e[0]
			default:
				continue
			}
			if !visited[neighbor] {
				visited[neighbor] = true
				queue = append(queue, neighbor)
			}
		}
	}
	return len(visited) == len(g.Nodes)
}

// Finalize validates locally and hands back the edge list for submission.
// Rejections never reach the server.
func (g *Graph) Finalize() ([]state.Edge, error) {
	if len(g.Nodes) < 2 {
		return nil, ErrTooFewNodes
	}
	if !g.IsConnected() {
		return nil, ErrNotConnected
	}
	return g.Edges(), nil
}

// Clear resets the graph but not the id counter.
func (g *Graph) Clear() {
	g.Nodes = nil
	g.edges = make(map[[2]int]struct{})
	g.dragging = false
}

// BeginDrag starts an edge drag if the press landed on a node.
func (g *Graph) BeginDrag(x, y float64) bool {
	id := g.NodeAt(x, y)
	if id == 0 {
		return false
	}
	g.dragFrom = id
	g.dragX, g.dragY = x, y
	g.dragging = true
	return true
}

// DragTo updates the preview line endpoint.
func (g *Graph) DragTo(x, y float64) {
	if g.dragging {
		g.dragX, g.dragY = x, y
	}
}

// EndDrag finishes the drag: releasing over a different node adds the
// edge.
func (g *Graph) EndDrag(x, y float64) {
	if !g.dragging {
		return
	}
	g.dragging = false
	if target := g.NodeAt(x, y); target != 0 && target != g.dragFrom {
		g.AddEdge(g.dragFrom, target)
	}
}

// Status is the live summary line shown under the editor canvas.
func (g *Graph) Status() string {
	mark := "not connected"
	if g.IsConnected() {
		mark = "connected"
	}
	return fmt.Sprintf("%d nodes, %d edges, %s", len(g.Nodes), len(g.edges), mark)
}
