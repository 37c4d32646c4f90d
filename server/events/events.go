package events

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/lazharichir/zhajinhua/events"
	"github.com/lazharichir/zhajinhua/game"
	"github.com/lazharichir/zhajinhua/lobby"
	"github.com/lazharichir/zhajinhua/server/connection"
)

// Names of the messages pushed to clients
const (
	JoinedRoom   = "joined_room"
	RoomSnapshot = "room_snapshot"
	ErrorMessage = "error_message"
	Pong         = "pong"
)

// EventEnvelope wraps a message with its name for client consumption
type EventEnvelope struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
}

type JoinedRoomPayload struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
}

type RoomSnapshotPayload struct {
	RoomID string         `json:"roomId"`
	State  game.RoomState `json:"state"`
}

type ErrorMessagePayload struct {
	Message string `json:"message"`
}

type PongPayload struct {
	Ts int64 `json:"ts"`
}

// Encode marshals payload into a named envelope
func Encode(name string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(EventEnvelope{Name: name, Payload: raw})
}

// Snapshot encodes the room_snapshot message for one viewer
func Snapshot(state game.RoomState, playerID string) ([]byte, error) {
	return Encode(RoomSnapshot, RoomSnapshotPayload{RoomID: state.ID, State: state.ViewFor(playerID)})
}

// Dispatcher pushes a fresh snapshot to every client of a room after each room event
type Dispatcher struct {
	registry *lobby.Registry
	connMgr  *connection.Manager
	logger   *slog.Logger
}

// NewDispatcher creates a new event dispatcher
func NewDispatcher(registry *lobby.Registry, connMgr *connection.Manager, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		registry: registry,
		connMgr:  connMgr,
		logger:   logger,
	}
}

// HandleEvent re-reads the room of event and sends each attached client its own view.
func (d *Dispatcher) HandleEvent(event events.Event) {
	roomID := events.GetRoomID(event)
	if roomID == "" {
		return
	}

	state, err := d.registry.GetRoom(roomID)
	if err != nil {
		if !errors.Is(err, lobby.ErrRoomNotFound) {
			d.logger.Error("failed to load room", slog.String("room", roomID), slog.Any("error", err))
		}
		return
	}

	sent := d.connMgr.SendToRoom(roomID, func(playerID string) ([]byte, error) {
		return Snapshot(state, playerID)
	})

	d.logger.Debug("dispatched snapshot", slog.String("event", event.EventName()), slog.String("room", roomID), slog.Int("clients", sent))
}
