// Package state holds the client-side view of server-authoritative game and
// room data. Snapshots are replaced wholesale on every server reply or push
// event; nothing here is mutated field by field.
package state

import (
	"errors"
	"fmt"
)

var ErrInvalidSnapshot = errors.New("invalid snapshot")

// NodeID identifies a puzzle node. The server assigns ids starting at 1.
type NodeID int

// Edge is an undirected connection between two nodes, in server order.
type Edge [2]NodeID

// Position is a normalized layout coordinate in [0,1]. Screen position is
// Position scaled by the current surface size, which keeps the layout
// resize-responsive without recomputation.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Tile is the value currently sitting on a node.
type Tile struct {
	Value   int  `json:"tile"`
	Matched bool `json:"matched"`
}

// GameState is the full puzzle snapshot as the server reports it.
type GameState struct {
	Nodes        []NodeID            `json:"nodes"`
	Edges        []Edge              `json:"edges"`
	NodePosition map[NodeID]Position `json:"node_positions"`
	Tiles        map[NodeID]Tile     `json:"tiles"`
	MoveCount    int                 `json:"move_count"`
	OptimalMoves int                 `json:"optimal_moves"`
	Active       bool                `json:"active"`
	CanUndo      bool                `json:"can_undo"`
	CanRedo      bool                `json:"can_redo"`
}

// HasNode reports whether id is part of the snapshot.
func (g *GameState) HasNode(id NodeID) bool {
	for _, n := range g.Nodes {
		if n == id {
			return true
		}
	}
	return false
}

// Validate checks the cross-field invariants: every edge endpoint and tile
// key must name an existing node, and every node must have a position.
func (g *GameState) Validate() error {
	for _, e := range g.Edges {
		if !g.HasNode(e[0]) || !g.HasNode(e[1]) {
			return fmt.Errorf("%w: edge (%d,%d) references unknown node", ErrInvalidSnapshot, e[0], e[1])
		}
	}
	for id := range g.Tiles {
		if !g.HasNode(id) {
			return fmt.Errorf("%w: tile on unknown node %d", ErrInvalidSnapshot, id)
		}
	}
	for _, n := range g.Nodes {
		if _, ok := g.NodePosition[n]; !ok {
			return fmt.Errorf("%w: node %d has no position", ErrInvalidSnapshot, n)
		}
	}
	return nil
}

// Selection is the transient, client-only pointer state. Zero value means
// nothing selected or hovered.
type Selection struct {
	Selected NodeID
	Hovered  NodeID
}

// NoNode is the "none" value for Selection fields; valid ids start at 1.
const NoNode NodeID = 0

// Reset clears both fields. Called on every new GameState, on a
// deselect-click, and after every swap attempt.
func (s *Selection) Reset() {
	s.Selected = NoNode
	s.Hovered = NoNode
}

// RoomMode distinguishes the two multiplayer flavors.
type RoomMode string

const (
	ModeRealtime  RoomMode = "realtime"
	ModeTurnBased RoomMode = "turnbased"
)

// RoomState is the server-reported lifecycle phase of a room.
type RoomState string

const (
	RoomLobby   RoomState = "lobby"
	RoomPlaying RoomState = "playing"
)

// Player is one leaderboard row. Ordering is the server's; the client never
// re-sorts.
type Player struct {
	SessionID     string `json:"session_id"`
	Name          string `json:"name"`
	IsHost        bool   `json:"is_host"`
	Ready         bool   `json:"ready"`
	Solved        bool   `json:"solved"`
	Moves         int    `json:"moves"`
	Rank          int    `json:"rank"`
	IsCurrentTurn bool   `json:"is_current_turn"`
}

// RoomInfo is the server-authoritative room snapshot carried on every push
// event. The client replaces it wholesale and never infers room state.
type RoomInfo struct {
	Code               string          `json:"code"`
	Mode               RoomMode        `json:"mode"`
	State              RoomState       `json:"state"`
	PlayerCount        int             `json:"player_count"`
	Leaderboard        []Player        `json:"leaderboard"`
	GraphEdges         []Edge          `json:"graph_edges"`
	InitialTiles       map[NodeID]int  `json:"initial_tiles"`
	AllReady           bool            `json:"all_ready"`
	CurrentTurnSession string          `json:"current_turn_session"`
}

// Validate checks the room invariants: exactly one host, and in turn-based
// play at most one player holding the turn.
func (r *RoomInfo) Validate() error {
	hosts := 0
	turns := 0
	for _, p := range r.Leaderboard {
		if p.IsHost {
			hosts++
		}
		if p.IsCurrentTurn {
			turns++
		}
	}
	if hosts != 1 {
		return fmt.Errorf("%w: room %s has %d hosts", ErrInvalidSnapshot, r.Code, hosts)
	}
	if r.Mode == ModeTurnBased && r.State == RoomPlaying && turns > 1 {
		return fmt.Errorf("%w: room %s has %d players on turn", ErrInvalidSnapshot, r.Code, turns)
	}
	return nil
}
