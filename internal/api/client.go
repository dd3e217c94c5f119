// Package api is the HTTP side of the game server protocol. Every call is a
// single request/response round trip with a JSON body; the server is the
// sole authority on move legality, puzzle generation and win detection.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/swapgraph/tileswap/internal/state"
)

// ServerError carries a human-readable rejection from the server (bad node
// count, invalid swap, disconnected custom graph). The surrounding state is
// left untouched when one of these comes back.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string { return e.Message }

// Client talks to the game server's /api endpoints. Zero retries anywhere;
// a failed call is surfaced once and left to the user to re-trigger.
type Client struct {
	base string
	http *http.Client
	log  *zap.Logger
}

func NewClient(base string, log *zap.Logger) *Client {
	return &Client{
		base: base,
		http: &http.Client{},
		log:  log,
	}
}

// envelope is the common response shape across all /api endpoints. Fields
// not relevant to a given endpoint are simply absent.
type envelope struct {
	Success      bool             `json:"success"`
	Message      string           `json:"message"`
	State        *state.GameState `json:"state"`
	Solved       bool             `json:"solved"`
	MoveCount    int              `json:"move_count"`
	OptimalMoves int              `json:"optimal_moves"`
	Data         json.RawMessage  `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*envelope, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, fmt.Errorf("encode %s request: %w", path, err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", path, err)
	}
	if !env.Success {
		c.log.Debug("server rejected request", zap.String("path", path), zap.String("message", env.Message))
		return nil, &ServerError{Message: env.Message}
	}
	return &env, nil
}

// adopt validates and hands back the snapshot from a successful reply.
func adopt(env *envelope, path string) (*state.GameState, error) {
	if env.State == nil {
		return nil, fmt.Errorf("%s: reply carried no state", path)
	}
	if err := env.State.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return env.State, nil
}

// NewGame asks the server for a fresh random puzzle with numNodes nodes.
func (c *Client) NewGame(ctx context.Context, numNodes int) (*state.GameState, error) {
	env, err := c.do(ctx, http.MethodPost, "/api/new_game", map[string]int{"num_nodes": numNodes})
	if err != nil {
		return nil, err
	}
	return adopt(env, "/api/new_game")
}

// SwapResult is the outcome of a legal swap.
type SwapResult struct {
	State        *state.GameState
	Solved       bool
	MoveCount    int
	OptimalMoves int
}

// Swap submits the two tapped node ids. The server validates adjacency and
// reports whether the puzzle is now solved.
func (c *Client) Swap(ctx context.Context, a, b state.NodeID) (*SwapResult, error) {
	env, err := c.do(ctx, http.MethodPost, "/api/swap", map[string]state.NodeID{"node1": a, "node2": b})
	if err != nil {
		return nil, err
	}
	st, err := adopt(env, "/api/swap")
	if err != nil {
		return nil, err
	}
	return &SwapResult{
		State:        st,
		Solved:       env.Solved,
		MoveCount:    env.MoveCount,
		OptimalMoves: env.OptimalMoves,
	}, nil
}

func (c *Client) Undo(ctx context.Context) (*state.GameState, error) {
	env, err := c.do(ctx, http.MethodPost, "/api/undo", nil)
	if err != nil {
		return nil, err
	}
	return adopt(env, "/api/undo")
}

func (c *Client) Redo(ctx context.Context) (*state.GameState, error) {
	env, err := c.do(ctx, http.MethodPost, "/api/redo", nil)
	if err != nil {
		return nil, err
	}
	return adopt(env, "/api/redo")
}

// Save fetches the opaque save blob. The schema belongs to the server; the
// client only round-trips it through a file.
func (c *Client) Save(ctx context.Context) (json.RawMessage, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/save", nil)
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

// Load forwards a previously saved blob for server-side validation and
// reconstruction.
func (c *Client) Load(ctx context.Context, data json.RawMessage) (*state.GameState, error) {
	env, err := c.do(ctx, http.MethodPost, "/api/load", map[string]json.RawMessage{"data": data})
	if err != nil {
		return nil, err
	}
	return adopt(env, "/api/load")
}

// CustomGame materializes a puzzle from an editor-authored edge list, with
// random tiles.
func (c *Client) CustomGame(ctx context.Context, edges []state.Edge) (*state.GameState, error) {
	env, err := c.do(ctx, http.MethodPost, "/api/custom_game", map[string][]state.Edge{"edges": edges})
	if err != nil {
		return nil, err
	}
	return adopt(env, "/api/custom_game")
}

// CustomGameWithTiles materializes a puzzle with a fixed tile assignment, so
// every player in a room starts from the same configuration.
func (c *Client) CustomGameWithTiles(ctx context.Context, edges []state.Edge, tiles map[state.NodeID]int) (*state.GameState, error) {
	env, err := c.do(ctx, http.MethodPost, "/api/custom_game_with_tiles", struct {
		Edges []state.Edge         `json:"edges"`
		Tiles map[state.NodeID]int `json:"tiles"`
	}{Edges: edges, Tiles: tiles})
	if err != nil {
		return nil, err
	}
	return adopt(env, "/api/custom_game_with_tiles")
}
