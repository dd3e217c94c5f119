// Package multiplayer manages room membership over the persistent push
// channel. The client never infers room state locally: every RoomInfo field
// is replaced from the server's payload, including roster, readiness and
// turn ownership.
package multiplayer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/swapgraph/tileswap/internal/state"
)

// Phase is the room membership state machine: idle -> lobby -> playing ->
// (leave) -> idle. Transitions are driven entirely by push events.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLobby
	PhasePlaying
)

const writeTimeout = 3 * time.Second

// GameLoader is the slice of the game session the multiplayer layer drives:
// creating the host's puzzle and loading room graphs.
type GameLoader interface {
	NewGame(ctx context.Context, numNodes int) error
	CustomGame(ctx context.Context, edges []state.Edge) error
	CustomGameWithTiles(ctx context.Context, edges []state.Edge, tiles map[state.NodeID]int) error
}

// Interaction gates pointer input during turn-based play.
type Interaction interface {
	SetEnabled(enabled bool)
}

// MessageSink shows a dismissible overlay message.
type MessageSink interface {
	Show(title, text string)
}

// Sounds is the feedback subset the multiplayer layer triggers.
type Sounds interface {
	Click()
	Victory()
}

type Session struct {
	conn     *websocket.Conn
	log      *zap.Logger
	msgs     MessageSink
	game     GameLoader
	interact Interaction
	sounds   Sounds

	out chan ClientMessage

	mu        sync.Mutex
	sessionID string
	roomCode  string
	isHost    bool
	ready     bool
	phase     Phase
	mode      state.RoomMode
	room      *state.RoomInfo
	showTiles bool

	onRoom []func(*state.RoomInfo)
	onLeft []func()
}

// Dial connects the push channel and starts the reader and writer loops.
// The loops stop when ctx is canceled or the connection drops.
func Dial(ctx context.Context, url string, game GameLoader, interact Interaction, msgs MessageSink, sounds Sounds, log *zap.Logger) (*Session, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	s := &Session{
		conn:      conn,
		log:       log,
		msgs:      msgs,
		game:      game,
		interact:  interact,
		sounds:    sounds,
		out:       make(chan ClientMessage, 8),
		showTiles: true,
	}
	go s.writeLoop(ctx)
	go s.readLoop(ctx)
	return s, nil
}

func (s *Session) Close() {
	_ = s.conn.Close(websocket.StatusNormalClosure, "bye")
}

// OnRoomUpdate registers a view refresh hook, invoked after every adopted
// RoomInfo.
func (s *Session) OnRoomUpdate(f func(*state.RoomInfo)) {
	s.mu.Lock()
	s.onRoom = append(s.onRoom, f)
	s.mu.Unlock()
}

// OnLeftRoom registers a hook for returning to the mode-select screen.
func (s *Session) OnLeftRoom(f func()) {
	s.mu.Lock()
	s.onLeft = append(s.onLeft, f)
	s.mu.Unlock()
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Session) Room() *state.RoomInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

func (s *Session) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

func (s *Session) IsHost() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isHost
}

// ShowTiles reports whether tile values should be drawn: hidden between
// entering a lobby and the game_started event.
func (s *Session) ShowTiles() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.showTiles
}

// InRoom reports whether the client currently belongs to a room.
func (s *Session) InRoom() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomCode != ""
}

func (s *Session) send(m ClientMessage) {
	select {
	case s.out <- m:
	default:
		s.log.Warn("push channel send buffer full, dropping", zap.String("type", m.Type))
	}
}

func (s *Session) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-s.out:
			payload, _ := json.Marshal(m)
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := s.conn.Write(wctx, websocket.MessageText, payload)
			cancel()
			if err != nil {
				s.log.Warn("push channel write failed", zap.Error(err))
				return
			}
		}
	}
}

func (s *Session) readLoop(ctx context.Context) {
	for {
		_, data, err := s.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				if !errors.Is(err, context.Canceled) {
					s.log.Warn("push channel lost", zap.Error(err))
				}
			}
			s.handleDisconnect()
			return
		}

		var msg ServerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.log.Warn("bad push payload", zap.Error(err))
			continue
		}
		s.dispatch(ctx, msg)
	}
}

// dispatch applies one push event. Ordering follows server emission order;
// there is no client-side reordering buffer.
func (s *Session) dispatch(ctx context.Context, msg ServerMessage) {
	s.log.Debug("push event", zap.String("type", msg.Type))
	switch msg.Type {
	case evConnected:
		s.mu.Lock()
		s.sessionID = msg.SessionID
		s.mu.Unlock()
		s.log.Info("connected to room server", zap.String("session", msg.SessionID))

	case evRoomCreated:
		s.handleRoomEntered(ctx, msg, true)

	case evRoomJoined:
		s.handleRoomEntered(ctx, msg, false)

	case evJoinFailed:
		s.msgs.Show("Join Failed", msg.Message)

	case evPlayerJoined:
		s.adoptRoom(msg.RoomInfo)
		if msg.SessionID != "" && msg.SessionID != s.SessionID() {
			s.sounds.Click()
		}

	case evPlayerLeft, evPlayerReady, evPlayerNameChanged:
		s.adoptRoom(msg.RoomInfo)

	case evGameStarted:
		s.handleGameStarted(ctx, msg)

	case evLeaderboard:
		s.adoptRoom(msg.RoomInfo)
		s.gateTurn()

	case evLeftRoom:
		s.resetRoom()

	case evNameChangeOK:
		s.log.Info("name changed", zap.String("name", msg.Name))

	case evNameChangeFailed:
		s.msgs.Show("Error", "Name change failed: "+msg.Message)

	default:
		s.log.Debug("unknown push event", zap.String("type", msg.Type))
	}
}

// adoptRoom replaces the room snapshot wholesale and notifies view hooks.
// Stale entries are never merged in.
func (s *Session) adoptRoom(room *state.RoomInfo) {
	if room == nil {
		return
	}
	if err := room.Validate(); err != nil {
		s.log.Warn("room snapshot failed validation", zap.Error(err))
	}
	s.mu.Lock()
	s.room = room
	hooks := append(([]func(*state.RoomInfo))(nil), s.onRoom...)
	s.mu.Unlock()
	for _, f := range hooks {
		f(room)
	}
}

func (s *Session) handleRoomEntered(ctx context.Context, msg ServerMessage, asHost bool) {
	if !msg.Success {
		return
	}
	s.mu.Lock()
	s.roomCode = msg.RoomCode
	s.isHost = asHost
	s.phase = PhaseLobby
	s.showTiles = false
	s.mu.Unlock()
	s.adoptRoom(msg.RoomInfo)

	// Everyone previews the same puzzle shape before tiles are assigned.
	if msg.RoomInfo != nil && len(msg.RoomInfo.GraphEdges) > 0 {
		if err := s.game.CustomGame(ctx, msg.RoomInfo.GraphEdges); err != nil {
			s.log.Warn("graph preview load failed", zap.Error(err))
		}
	}
}

func (s *Session) handleGameStarted(ctx context.Context, msg ServerMessage) {
	room := msg.RoomInfo
	if room == nil {
		return
	}
	s.mu.Lock()
	s.phase = PhasePlaying
	s.mode = room.Mode
	s.showTiles = true
	isHost := s.isHost
	s.mu.Unlock()
	s.adoptRoom(room)

	// The host keeps its already-loaded graph; guests load it fresh with
	// the server's tile assignment, or just the shape when no tiles came.
	if !isHost && len(room.GraphEdges) > 0 {
		var err error
		if len(room.InitialTiles) > 0 {
			err = s.game.CustomGameWithTiles(ctx, room.GraphEdges, room.InitialTiles)
		} else {
			err = s.game.CustomGame(ctx, room.GraphEdges)
		}
		if err != nil {
			s.log.Warn("room puzzle load failed", zap.Error(err))
		}
	}
	if room.Mode == state.ModeTurnBased {
		s.gateTurn()
	}
	s.sounds.Victory()
}

// gateTurn disables pointer interaction in turn-based play whenever the
// turn belongs to someone else.
func (s *Session) gateTurn() {
	s.mu.Lock()
	turnBased := s.mode == state.ModeTurnBased && s.phase == PhasePlaying
	myTurn := s.room != nil && s.room.CurrentTurnSession == s.sessionID
	s.mu.Unlock()
	if !turnBased {
		return
	}
	s.interact.SetEnabled(myTurn)
}

// resetRoom clears local room identity. Used both for an orderly leave and
// a dropped channel; no automatic reconnect or resume is attempted.
func (s *Session) resetRoom() {
	s.mu.Lock()
	s.roomCode = ""
	s.isHost = false
	s.ready = false
	s.phase = PhaseIdle
	s.room = nil
	s.showTiles = true
	hooks := append(([]func())(nil), s.onLeft...)
	s.mu.Unlock()
	s.interact.SetEnabled(true)
	for _, f := range hooks {
		f()
	}
}

func (s *Session) handleDisconnect() {
	if !s.InRoom() {
		return
	}
	s.resetRoom()
	s.msgs.Show("Disconnected", "Connection to server lost")
}

// CreateRoom builds the host's puzzle first, then announces the room. Tiles
// stay hidden until the game starts.
func (s *Session) CreateRoom(ctx context.Context, name string, mode state.RoomMode, numNodes int) error {
	if err := s.game.NewGame(ctx, numNodes); err != nil {
		return err
	}
	s.mu.Lock()
	s.mode = mode
	s.showTiles = false
	s.mu.Unlock()
	s.send(ClientMessage{Type: evCreateRoom, Name: name, Mode: string(mode), NumNodes: numNodes})
	return nil
}

func (s *Session) JoinRoom(roomCode, name string) {
	if roomCode == "" {
		s.msgs.Show("Error", "Please enter a room code")
		return
	}
	s.send(ClientMessage{Type: evJoinRoom, RoomCode: roomCode, Name: name})
}

func (s *Session) LeaveRoom() {
	s.send(ClientMessage{Type: evLeaveRoom})
}

// ToggleReady flips the advisory ready flag and reports the new value.
func (s *Session) ToggleReady() bool {
	s.mu.Lock()
	s.ready = !s.ready
	ready := s.ready
	s.mu.Unlock()
	s.send(ClientMessage{Type: evToggleReady, Ready: ready})
	return ready
}

func (s *Session) StartGame() {
	s.send(ClientMessage{Type: evStartGame})
}

func (s *Session) ChangeName(name string) {
	if name == "" {
		return
	}
	s.send(ClientMessage{Type: evChangeName, Name: name})
}

// NotifyMove reports a locally applied swap. Fire-and-forget; the server is
// the sole authority on ranks and on revealing other players' progress.
// Registered as a GameSession swap observer while a room is active.
func (s *Session) NotifyMove(moves int, solved bool) {
	if !s.InRoom() {
		return
	}
	s.send(ClientMessage{Type: evPlayerMove, Moves: moves, Solved: solved})
	if solved {
		s.msgs.Show("Puzzle Solved!", "Wait for other players to finish.")
	}
}
