// Package apitest is an in-process stand-in for the game server, covering
// just enough of the /api surface for client tests. It is not the real
// server: generation is deterministic and validation is minimal.
package apitest

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/swapgraph/tileswap/internal/state"
)

// Server wraps an httptest.Server with a single mutable puzzle behind it.
// Requests records the order of /api paths hit, for call-count assertions.
type Server struct {
	mu       sync.Mutex
	puzzle   *puzzle
	Requests []string

	hs *httptest.Server
}

func New() *Server {
	s := &Server{}
	r := chi.NewRouter()
	r.Post("/api/new_game", s.handleNewGame)
	r.Post("/api/swap", s.handleSwap)
	r.Post("/api/undo", s.handleUndo)
	r.Post("/api/redo", s.handleRedo)
	r.Get("/api/save", s.handleSave)
	r.Post("/api/load", s.handleLoad)
	r.Post("/api/custom_game", s.handleCustomGame)
	r.Post("/api/custom_game_with_tiles", s.handleCustomGameWithTiles)
	s.hs = httptest.NewServer(r)
	return s
}

func (s *Server) URL() string { return s.hs.URL }
func (s *Server) Close()      { s.hs.Close() }

// Calls returns how many requests hit the given path.
func (s *Server) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.Requests {
		if p == path {
			n++
		}
	}
	return n
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func fail(w http.ResponseWriter, msg string) {
	writeJSON(w, map[string]any{"success": false, "message": msg})
}

// puzzle is the fake's internal game. Tiles start as the reverse permutation
// so a fresh puzzle is never already solved (for >1 node).
type puzzle struct {
	nodes   []state.NodeID
	adj     map[state.NodeID]map[state.NodeID]bool
	edges   []state.Edge
	tiles   map[state.NodeID]int
	initial map[state.NodeID]int
	moves   int
	optimal int
	history []state.Edge
	redo    []state.Edge
}

func newPuzzle(edges []state.Edge) *puzzle {
	p := &puzzle{
		adj:   make(map[state.NodeID]map[state.NodeID]bool),
		tiles: make(map[state.NodeID]int),
	}
	seen := make(map[state.NodeID]bool)
	for _, e := range edges {
		for _, n := range []state.NodeID{e[0], e[1]} {
			if !seen[n] {
				seen[n] = true
				p.nodes = append(p.nodes, n)
			}
			if p.adj[n] == nil {
				p.adj[n] = make(map[state.NodeID]bool)
			}
		}
		p.adj[e[0]][e[1]] = true
		p.adj[e[1]][e[0]] = true
		p.edges = append(p.edges, e)
	}
	sortNodes(p.nodes)
	// Reverse assignment: node i gets the tile of node len-1-i.
	for i, n := range p.nodes {
		p.tiles[n] = int(p.nodes[len(p.nodes)-1-i])
	}
	p.initial = make(map[state.NodeID]int, len(p.tiles))
	for k, v := range p.tiles {
		p.initial[k] = v
	}
	p.optimal = optimalMoves(p.tiles)
	return p
}

func sortNodes(ns []state.NodeID) {
	for i := 1; i < len(ns); i++ {
		for j := i; j > 0 && ns[j] < ns[j-1]; j-- {
			ns[j], ns[j-1] = ns[j-1], ns[j]
		}
	}
}

// optimalMoves is cycle decomposition of the tile permutation: a cycle of
// length n takes n-1 swaps.
func optimalMoves(tiles map[state.NodeID]int) int {
	pos := make(map[int]state.NodeID, len(tiles))
	for node, tile := range tiles {
		pos[tile] = node
	}
	visited := make(map[int]bool)
	swaps := 0
	for node := range tiles {
		start := int(node)
		if visited[start] {
			continue
		}
		length := 0
		cur := start
		for !visited[cur] {
			visited[cur] = true
			length++
			cur = int(pos[cur])
		}
		if length > 1 {
			swaps += length - 1
		}
	}
	return swaps
}

func (p *puzzle) solved() bool {
	for n, t := range p.tiles {
		if int(n) != t {
			return false
		}
	}
	return true
}

func (p *puzzle) snapshot() *state.GameState {
	g := &state.GameState{
		Nodes:        append([]state.NodeID(nil), p.nodes...),
		Edges:        append([]state.Edge(nil), p.edges...),
		NodePosition: make(map[state.NodeID]state.Position, len(p.nodes)),
		Tiles:        make(map[state.NodeID]state.Tile, len(p.tiles)),
		MoveCount:    p.moves,
		OptimalMoves: p.optimal,
		Active:       !p.solved(),
		CanUndo:      len(p.history) > 0,
		CanRedo:      len(p.redo) > 0,
	}
	// Circle layout in normalized coordinates.
	for i, n := range p.nodes {
		angle := 2 * math.Pi * float64(i) / float64(len(p.nodes))
		g.NodePosition[n] = state.Position{
			X: 0.5 + 0.4*math.Cos(angle),
			Y: 0.5 + 0.4*math.Sin(angle),
		}
	}
	for n, t := range p.tiles {
		g.Tiles[n] = state.Tile{Value: t, Matched: int(n) == t}
	}
	return g
}

// defaultEdges is a ring over 1..n plus i..i+2 chords, mirroring the
// "moderately connected" default of the real generator.
func defaultEdges(n int) []state.Edge {
	seen := make(map[state.Edge]bool)
	var edges []state.Edge
	add := func(a, b state.NodeID) {
		if a > b {
			a, b = b, a
		}
		e := state.Edge{a, b}
		if a != b && !seen[e] {
			seen[e] = true
			edges = append(edges, e)
		}
	}
	for i := 1; i <= n; i++ {
		add(state.NodeID(i), state.NodeID(i%n+1))
		add(state.NodeID(i), state.NodeID((i+1)%n+1))
	}
	return edges
}

func (s *Server) record(r *http.Request) {
	s.Requests = append(s.Requests, r.URL.Path)
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(r)
	var req struct {
		NumNodes int `json:"num_nodes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, "bad request")
		return
	}
	if req.NumNodes < 3 || req.NumNodes > 20 {
		fail(w, "Number of nodes must be between 3 and 20")
		return
	}
	s.puzzle = newPuzzle(defaultEdges(req.NumNodes))
	writeJSON(w, map[string]any{"success": true, "state": s.puzzle.snapshot()})
}

func (s *Server) handleSwap(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(r)
	var req struct {
		Node1 state.NodeID `json:"node1"`
		Node2 state.NodeID `json:"node2"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, "bad request")
		return
	}
	p := s.puzzle
	if p == nil || p.solved() {
		fail(w, "Game not active")
		return
	}
	if p.adj[req.Node1] == nil || p.adj[req.Node2] == nil {
		fail(w, "Invalid nodes")
		return
	}
	if !p.adj[req.Node1][req.Node2] {
		fail(w, "Nodes are not connected")
		return
	}
	p.tiles[req.Node1], p.tiles[req.Node2] = p.tiles[req.Node2], p.tiles[req.Node1]
	p.moves++
	p.history = append(p.history, state.Edge{req.Node1, req.Node2})
	p.redo = nil
	writeJSON(w, map[string]any{
		"success":       true,
		"state":         p.snapshot(),
		"solved":        p.solved(),
		"move_count":    p.moves,
		"optimal_moves": p.optimal,
	})
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(r)
	p := s.puzzle
	if p == nil || len(p.history) == 0 {
		fail(w, "Nothing to undo")
		return
	}
	last := p.history[len(p.history)-1]
	p.history = p.history[:len(p.history)-1]
	p.redo = append(p.redo, last)
	p.tiles[last[0]], p.tiles[last[1]] = p.tiles[last[1]], p.tiles[last[0]]
	p.moves--
	writeJSON(w, map[string]any{"success": true, "state": p.snapshot()})
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(r)
	p := s.puzzle
	if p == nil || len(p.redo) == 0 {
		fail(w, "Nothing to redo")
		return
	}
	last := p.redo[len(p.redo)-1]
	p.redo = p.redo[:len(p.redo)-1]
	p.history = append(p.history, last)
	p.tiles[last[0]], p.tiles[last[1]] = p.tiles[last[1]], p.tiles[last[0]]
	p.moves++
	writeJSON(w, map[string]any{"success": true, "state": p.snapshot()})
}

type saveBlob struct {
	Edges   []state.Edge         `json:"edges"`
	Tiles   map[state.NodeID]int `json:"tiles"`
	Initial map[state.NodeID]int `json:"initial"`
	Moves   int                  `json:"moves"`
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(r)
	p := s.puzzle
	if p == nil {
		fail(w, "No game to save")
		return
	}
	writeJSON(w, map[string]any{"success": true, "data": saveBlob{
		Edges:   p.edges,
		Tiles:   p.tiles,
		Initial: p.initial,
		Moves:   p.moves,
	}})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(r)
	var req struct {
		Data saveBlob `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Data.Edges) == 0 {
		fail(w, "Invalid save data")
		return
	}
	p := newPuzzle(req.Data.Edges)
	for n, t := range req.Data.Tiles {
		p.tiles[n] = t
	}
	p.initial = req.Data.Initial
	p.moves = req.Data.Moves
	p.optimal = optimalMoves(req.Data.Initial)
	s.puzzle = p
	writeJSON(w, map[string]any{"success": true, "state": p.snapshot()})
}

func (s *Server) handleCustomGame(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(r)
	var req struct {
		Edges []state.Edge `json:"edges"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Edges) == 0 {
		fail(w, "No edges provided")
		return
	}
	s.puzzle = newPuzzle(req.Edges)
	writeJSON(w, map[string]any{"success": true, "state": s.puzzle.snapshot()})
}

func (s *Server) handleCustomGameWithTiles(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(r)
	var req struct {
		Edges []state.Edge         `json:"edges"`
		Tiles map[state.NodeID]int `json:"tiles"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Edges) == 0 {
		fail(w, "No edges provided")
		return
	}
	p := newPuzzle(req.Edges)
	for n, t := range req.Tiles {
		p.tiles[n] = t
		p.initial[n] = t
	}
	p.optimal = optimalMoves(p.initial)
	s.puzzle = p
	writeJSON(w, map[string]any{"success": true, "state": p.snapshot()})
}
