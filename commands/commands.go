package commands

// Command is a client request sent over the WebSocket
type Command interface {
	Name() string
}

// JoinRoom joins RoomID, or creates a new room when RoomID is empty.
type JoinRoom struct {
	RoomID     string `json:"roomId,omitempty"`
	PlayerName string `json:"playerName"`
}

func (JoinRoom) Name() string { return "join_room" }

// RejoinRoom re-attaches a connection to a seat it already holds
type RejoinRoom struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
}

func (RejoinRoom) Name() string { return "rejoin_room" }

type StartRound struct {
	RoomID string `json:"roomId,omitempty"`
}

func (StartRound) Name() string { return "start_round" }

// PlayerAction falls back to the connection's room and player when the ids are empty.
type PlayerAction struct {
	RoomID   string `json:"roomId,omitempty"`
	PlayerID string `json:"playerId,omitempty"`
	Action   string `json:"action"`
}

func (PlayerAction) Name() string { return "player_action" }

type LeaveRoom struct{}

func (LeaveRoom) Name() string { return "leave_room" }

// Heartbeat is answered with a pong echoing Ts, or the server time in milliseconds.
type Heartbeat struct {
	Ts *int64 `json:"ts,omitempty"`
}

func (Heartbeat) Name() string { return "heartbeat" }
