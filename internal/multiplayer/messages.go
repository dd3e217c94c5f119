// Wire catalog for the push channel.
//
// Client -> server:
//
//	create_room   {name, mode: "realtime"|"turnbased", num_nodes}
//	join_room     {room_code, name}
//	leave_room    {}
//	toggle_ready  {ready}
//	start_game    {}
//	change_name   {name}
//	player_move   {moves, solved}   fire-and-forget; server owns ranks
//
// Server -> client:
//
//	connected             {session_id}
//	room_created          {success, room_code, room_info}
//	room_joined           {success, room_code, room_info}
//	join_failed           {message}
//	player_joined         {room_info, session_id}
//	player_left           {room_info}
//	player_ready_changed  {room_info}
//	player_name_changed   {room_info}
//	game_started          {room_info}   initial_tiles now populated
//	leaderboard_update    {room_info}   leaderboard replaces the shown one
//	left_room             {}
//	name_change_success   {name}
//	name_change_failed    {message}

package multiplayer

import "github.com/swapgraph/tileswap/internal/state"

// ClientMessage is the client->server envelope for the push channel. Type
// selects the event; unrelated fields stay at their zero values and are
// omitted on the wire.
type ClientMessage struct {
	Type     string `json:"type"`
	Name     string `json:"name,omitempty"`
	Mode     string `json:"mode,omitempty"`
	NumNodes int    `json:"num_nodes,omitempty"`
	RoomCode string `json:"room_code,omitempty"`
	Ready    bool   `json:"ready"`
	Moves    int    `json:"moves,omitempty"`
	Solved   bool   `json:"solved,omitempty"`
}

// ServerMessage is the server->client envelope.
type ServerMessage struct {
	Type      string          `json:"type"`
	Success   bool            `json:"success"`
	Message   string          `json:"message,omitempty"`
	SessionID string          `json:"session_id,omitempty"`
	RoomCode  string          `json:"room_code,omitempty"`
	Name      string          `json:"name,omitempty"`
	RoomInfo  *state.RoomInfo `json:"room_info,omitempty"`
}

// Client->server event names.
const (
	evCreateRoom  = "create_room"
	evJoinRoom    = "join_room"
	evLeaveRoom   = "leave_room"
	evToggleReady = "toggle_ready"
	evStartGame   = "start_game"
	evChangeName  = "change_name"
	evPlayerMove  = "player_move"
)

// Server->client event names.
const (
	evConnected         = "connected"
	evRoomCreated       = "room_created"
	evRoomJoined        = "room_joined"
	evJoinFailed        = "join_failed"
	evPlayerJoined      = "player_joined"
	evPlayerLeft        = "player_left"
	evPlayerReady       = "player_ready_changed"
	evPlayerNameChanged = "player_name_changed"
	evGameStarted       = "game_started"
	evLeaderboard       = "leaderboard_update"
	evLeftRoom          = "left_room"
	evNameChangeOK      = "name_change_success"
	evNameChangeFailed  = "name_change_failed"
)
