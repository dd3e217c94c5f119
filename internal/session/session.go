// Package session owns all traffic to the game server and the GameState
// that results from it. State is adopted wholesale from each reply, never
// patched in place, so a render pass can never observe a half-applied move.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/swapgraph/tileswap/internal/api"
	"github.com/swapgraph/tileswap/internal/render"
	"github.com/swapgraph/tileswap/internal/state"
)

// ErrBusy is returned when a state-mutating request is issued while another
// one is still outstanding. All mutating operations (swap, new game, undo,
// redo, load, custom game) serialize through one gate.
var ErrBusy = errors.New("another request is in flight")

// ErrNoGame is returned for operations that need a loaded puzzle.
var ErrNoGame = errors.New("no game loaded")

// winDelay lets the swap animation settle before the win fanfare.
const winDelay = 300 * time.Millisecond

// MessageSink shows a dismissible overlay message to the user.
type MessageSink interface {
	Show(title, text string)
}

// FrameScheduler delivers per-frame callbacks while an animation runs. step
// returns true when the animation has completed and the callbacks should
// stop.
type FrameScheduler interface {
	Run(step func() bool)
}

// SwapListener observes every swap the server accepts, after the new state
// has been adopted. Multiplayer move reporting registers one.
type SwapListener func(moveCount int, solved bool)

// StateListener observes every wholesale state replacement.
type StateListener func(*state.GameState)

// WinListener observes a solved puzzle, after the animation and delay.
type WinListener func(moves, optimal int)

type GameSession struct {
	api    *api.Client
	log    *zap.Logger
	msgs   MessageSink
	frames FrameScheduler
	redraw func()

	mu       sync.Mutex
	busy     bool
	st       *state.GameState
	anim     render.Anim
	onSwap   []SwapListener
	onState  []StateListener
	onWin    []WinListener
}

func New(client *api.Client, msgs MessageSink, frames FrameScheduler, redraw func(), log *zap.Logger) *GameSession {
	return &GameSession{
		api:    client,
		log:    log,
		msgs:   msgs,
		frames: frames,
		redraw: redraw,
	}
}

// State returns the current snapshot; nil before the first game.
func (s *GameSession) State() *state.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st
}

// Anim returns a copy of the animation state for rendering and interaction
// gating. The live value is stepped under the mutex on the frame callback
// path; readers on other goroutines only ever see snapshots.
func (s *GameSession) Anim() render.Anim {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.anim
}

func (s *GameSession) OnSwapApplied(l SwapListener) {
	s.mu.Lock()
	s.onSwap = append(s.onSwap, l)
	s.mu.Unlock()
}

func (s *GameSession) OnStateReplaced(l StateListener) {
	s.mu.Lock()
	s.onState = append(s.onState, l)
	s.mu.Unlock()
}

func (s *GameSession) OnWin(l WinListener) {
	s.mu.Lock()
	s.onWin = append(s.onWin, l)
	s.mu.Unlock()
}

// acquire takes the in-flight gate or reports ErrBusy.
func (s *GameSession) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	s.busy = true
	return nil
}

func (s *GameSession) release() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

// adopt replaces the snapshot and notifies state listeners. Selection reset
// happens in those listeners (the interaction controller registers one).
func (s *GameSession) adopt(st *state.GameState) {
	s.mu.Lock()
	s.st = st
	listeners := append([]StateListener(nil), s.onState...)
	s.mu.Unlock()
	for _, l := range listeners {
		l(st)
	}
	s.redraw()
}

// surface reports a failure to the user, distinguishing server-side
// rejections (which carry their own message) from transport trouble.
func (s *GameSession) surface(title string, err error) {
	var se *api.ServerError
	if errors.As(err, &se) {
		s.msgs.Show(title, se.Message)
		return
	}
	s.log.Warn("request failed", zap.Error(err))
	s.msgs.Show("Error", "Failed to connect to server")
}

// NewGame requests a fresh puzzle. A rejected node count leaves any prior
// state untouched.
func (s *GameSession) NewGame(ctx context.Context, numNodes int) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	st, err := s.api.NewGame(ctx, numNodes)
	if err != nil {
		s.surface("Error", err)
		return err
	}
	s.adopt(st)
	return nil
}

// Swap submits the pair the controller resolved. On acceptance the swap
// animation runs to completion over the OLD positions, then the new state
// is adopted, listeners fire, and a win (if any) is announced after a short
// delay.
func (s *GameSession) Swap(ctx context.Context, a, b state.NodeID) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	res, err := s.api.Swap(ctx, a, b)
	if err != nil {
		var se *api.ServerError
		if errors.As(err, &se) {
			s.msgs.Show("Invalid Move", se.Message)
		} else {
			s.surface("Error", err)
		}
		return err
	}

	s.mu.Lock()
	s.anim.Start(a, b)
	s.mu.Unlock()
	s.frames.Run(func() bool {
		s.mu.Lock()
		done := s.anim.Step()
		s.mu.Unlock()
		s.redraw()
		return done
	})

	s.adopt(res.State)

	s.mu.Lock()
	swapListeners := append([]SwapListener(nil), s.onSwap...)
	winListeners := append([]WinListener(nil), s.onWin...)
	s.mu.Unlock()
	for _, l := range swapListeners {
		l(res.MoveCount, res.Solved)
	}

	if res.Solved {
		time.Sleep(winDelay)
		for _, l := range winListeners {
			l(res.MoveCount, res.OptimalMoves)
		}
	}
	return nil
}

func (s *GameSession) Undo(ctx context.Context) error {
	return s.replaceOp(ctx, s.api.Undo)
}

func (s *GameSession) Redo(ctx context.Context) error {
	return s.replaceOp(ctx, s.api.Redo)
}

func (s *GameSession) replaceOp(ctx context.Context, op func(context.Context) (*state.GameState, error)) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	st, err := op(ctx)
	if err != nil {
		s.surface("Error", err)
		return err
	}
	s.adopt(st)
	return nil
}

// CustomGame materializes an editor-authored puzzle.
func (s *GameSession) CustomGame(ctx context.Context, edges []state.Edge) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	st, err := s.api.CustomGame(ctx, edges)
	if err != nil {
		s.surface("Error", err)
		return err
	}
	s.adopt(st)
	return nil
}

// CustomGameWithTiles loads a room's shared puzzle with its fixed tiles.
func (s *GameSession) CustomGameWithTiles(ctx context.Context, edges []state.Edge, tiles map[state.NodeID]int) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	st, err := s.api.CustomGameWithTiles(ctx, edges, tiles)
	if err != nil {
		s.surface("Error", err)
		return err
	}
	s.adopt(st)
	return nil
}

// SaveToFile fetches the opaque save blob and writes it under dir, named
// with the current date. Returns the written path.
func (s *GameSession) SaveToFile(ctx context.Context, dir string) (string, error) {
	s.mu.Lock()
	loaded := s.st != nil
	s.mu.Unlock()
	if !loaded {
		return "", ErrNoGame
	}

	data, err := s.api.Save(ctx)
	if err != nil {
		s.surface("Error", err)
		return "", err
	}

	var pretty []byte
	if pretty, err = json.MarshalIndent(json.RawMessage(data), "", "  "); err != nil {
		pretty = data
	}
	name := fmt.Sprintf("tileswap-save-%s.json", time.Now().Format("2006-01-02"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, pretty, 0o644); err != nil {
		s.msgs.Show("Error", "Failed to save game")
		return "", err
	}
	s.msgs.Show("Success", "Game saved successfully!")
	return path, nil
}

// LoadFromFile parses user-supplied save contents locally first; malformed
// JSON never reaches the server.
func (s *GameSession) LoadFromFile(ctx context.Context, contents []byte) error {
	var raw json.RawMessage
	if err := json.Unmarshal(contents, &raw); err != nil {
		s.msgs.Show("Error", "Invalid save file")
		return fmt.Errorf("parse save file: %w", err)
	}

	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	st, err := s.api.Load(ctx, raw)
	if err != nil {
		s.surface("Error", err)
		return err
	}
	s.adopt(st)
	s.msgs.Show("Success", "Game loaded successfully!")
	return nil
}
