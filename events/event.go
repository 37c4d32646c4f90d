package events

import (
	"reflect"
	"time"

	"github.com/lazharichir/zhajinhua/game"
)

// Event is the interface that all room events must implement.
type Event interface {
	EventName() string // Returns a unique name for the event type
}

// EventHandler receives events after they happen
type EventHandler func(event Event)

// GetRoomID extracts the RoomID field of an event, or "" if it has none.
func GetRoomID(event Event) string {
	val := reflect.ValueOf(event)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return ""
	}
	field := val.FieldByName("RoomID")
	if field.IsValid() && field.Kind() == reflect.String {
		return field.String()
	}
	return ""
}

// RoomCreated is emitted when a room is opened by its first player.
type RoomCreated struct {
	RoomID   string    `json:"roomId"`
	PlayerID string    `json:"playerId"`
	At       time.Time `json:"at"`
}

func (e RoomCreated) EventName() string { return "room-created" }

// PlayerJoined is emitted when a player takes a seat.
type PlayerJoined struct {
	RoomID   string    `json:"roomId"`
	PlayerID string    `json:"playerId"`
	Name     string    `json:"name"`
	At       time.Time `json:"at"`
}

func (e PlayerJoined) EventName() string { return "player-joined" }

// RoundStarted is emitted once antes are in and hands are dealt.
type RoundStarted struct {
	RoomID string    `json:"roomId"`
	Round  int       `json:"round"`
	Pot    int       `json:"pot"`
	At     time.Time `json:"at"`
}

func (e RoundStarted) EventName() string { return "round-started" }

// ActionApplied is emitted for every accepted player action.
type ActionApplied struct {
	RoomID   string      `json:"roomId"`
	Round    int         `json:"round"`
	PlayerID string      `json:"playerId"`
	Action   game.Action `json:"action"`
	Pot      int         `json:"pot"`
	At       time.Time   `json:"at"`
}

func (e ActionApplied) EventName() string { return "action-applied" }

// RoundFinished is emitted when a round is resolved.
type RoundFinished struct {
	RoomID string           `json:"roomId"`
	Round  int              `json:"round"`
	Result game.RoundResult `json:"result"`
	At     time.Time        `json:"at"`
}

func (e RoundFinished) EventName() string { return "round-finished" }
