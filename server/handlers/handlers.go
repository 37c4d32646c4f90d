package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lazharichir/zhajinhua/commands"
	"github.com/lazharichir/zhajinhua/game"
	"github.com/lazharichir/zhajinhua/lobby"
	"github.com/lazharichir/zhajinhua/server/connection"
	"github.com/lazharichir/zhajinhua/server/events"
)

var (
	ErrUnknownCommand    = errors.New("unknown command type")
	ErrMissingParameters = errors.New("missing parameters")
	ErrNotEnoughPlayers  = errors.New("not enough players to start")
	ErrActionRejected    = errors.New("action rejected")
	ErrNotSeated         = errors.New("player is not in the room")
)

// CommandRouter routes incoming commands to the appropriate handler
type CommandRouter struct {
	registry *lobby.Registry
	connMgr  *connection.Manager
	logger   *slog.Logger
}

// NewCommandRouter creates a new command router
func NewCommandRouter(registry *lobby.Registry, connMgr *connection.Manager, logger *slog.Logger) *CommandRouter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandRouter{
		registry: registry,
		connMgr:  connMgr,
		logger:   logger,
	}
}

// HandleCommand processes an incoming command message. Failures are reported
// to the client as error_message and returned.
func (r *CommandRouter) HandleCommand(client *connection.Client, message []byte) error {
	err := r.route(client, message)
	if err != nil {
		r.reply(client, events.ErrorMessage, events.ErrorMessagePayload{Message: err.Error()})
	}
	return err
}

func (r *CommandRouter) route(client *connection.Client, message []byte) error {
	var envelope events.EventEnvelope
	if err := json.Unmarshal(message, &envelope); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}

	switch envelope.Name {
	case commands.JoinRoom{}.Name():
		var cmd commands.JoinRoom
		if err := decode(envelope.Payload, &cmd); err != nil {
			return err
		}
		return r.handleJoinRoom(client, cmd)

	case commands.RejoinRoom{}.Name():
		var cmd commands.RejoinRoom
		if err := decode(envelope.Payload, &cmd); err != nil {
			return err
		}
		return r.handleRejoinRoom(client, cmd)

	case commands.StartRound{}.Name():
		var cmd commands.StartRound
		if err := decode(envelope.Payload, &cmd); err != nil {
			return err
		}
		return r.handleStartRound(client, cmd)

	case commands.PlayerAction{}.Name():
		var cmd commands.PlayerAction
		if err := decode(envelope.Payload, &cmd); err != nil {
			return err
		}
		return r.handlePlayerAction(client, cmd)

	case commands.LeaveRoom{}.Name():
		client.Detach()
		return nil

	case commands.Heartbeat{}.Name():
		var cmd commands.Heartbeat
		if err := decode(envelope.Payload, &cmd); err != nil {
			return err
		}
		return r.handleHeartbeat(client, cmd)

	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, envelope.Name)
	}
}

// decode leaves v untouched for an absent or null payload
func decode(payload json.RawMessage, v any) error {
	if len(payload) == 0 || string(payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

func (r *CommandRouter) handleJoinRoom(client *connection.Client, cmd commands.JoinRoom) error {
	var (
		state  game.RoomState
		player game.Player
		err    error
	)
	if cmd.RoomID == "" {
		state, player = r.registry.CreateRoom(cmd.PlayerName)
	} else {
		state, player, err = r.registry.JoinRoom(cmd.RoomID, cmd.PlayerName)
		if err != nil {
			return err
		}
	}

	client.Attach(state.ID, player.ID)
	r.logger.Info("client joined room", slog.String("client", client.ID), slog.String("room", state.ID), slog.String("player", player.ID))

	r.reply(client, events.JoinedRoom, events.JoinedRoomPayload{RoomID: state.ID, PlayerID: player.ID})
	return r.sendSnapshot(client, state.ID, player.ID)
}

func (r *CommandRouter) handleRejoinRoom(client *connection.Client, cmd commands.RejoinRoom) error {
	if cmd.RoomID == "" || cmd.PlayerID == "" {
		return fmt.Errorf("rejoin room: %w", ErrMissingParameters)
	}

	state, err := r.registry.GetRoom(cmd.RoomID)
	if err != nil {
		return err
	}
	if _, ok := state.Player(cmd.PlayerID); !ok {
		return ErrNotSeated
	}

	client.Attach(cmd.RoomID, cmd.PlayerID)
	return r.sendSnapshot(client, cmd.RoomID, cmd.PlayerID)
}

func (r *CommandRouter) handleStartRound(client *connection.Client, cmd commands.StartRound) error {
	roomID, _ := client.Session()
	if cmd.RoomID != "" {
		roomID = cmd.RoomID
	}
	if roomID == "" {
		return fmt.Errorf("start round: %w", ErrMissingParameters)
	}

	state, err := r.registry.StartRound(roomID)
	if err != nil {
		return err
	}
	if state.Stage != game.StageBetting {
		return ErrNotEnoughPlayers
	}
	return nil
}

func (r *CommandRouter) handlePlayerAction(client *connection.Client, cmd commands.PlayerAction) error {
	roomID, playerID := client.Session()
	if cmd.RoomID != "" {
		roomID = cmd.RoomID
	}
	if cmd.PlayerID != "" {
		playerID = cmd.PlayerID
	}
	if roomID == "" || playerID == "" || cmd.Action == "" {
		return fmt.Errorf("player action: %w", ErrMissingParameters)
	}

	action, err := game.ParseAction(cmd.Action)
	if err != nil {
		return err
	}

	_, accepted, err := r.registry.TryAct(roomID, playerID, action)
	if err != nil {
		return err
	}
	if !accepted {
		return ErrActionRejected
	}
	return nil
}

func (r *CommandRouter) handleHeartbeat(client *connection.Client, cmd commands.Heartbeat) error {
	ts := time.Now().UnixMilli()
	if cmd.Ts != nil {
		ts = *cmd.Ts
	}
	r.reply(client, events.Pong, events.PongPayload{Ts: ts})
	return nil
}

func (r *CommandRouter) sendSnapshot(client *connection.Client, roomID string, playerID string) error {
	state, err := r.registry.GetRoom(roomID)
	if err != nil {
		return err
	}
	data, err := events.Snapshot(state, playerID)
	if err != nil {
		return err
	}
	r.connMgr.SendToClient(client, data)
	return nil
}

func (r *CommandRouter) reply(client *connection.Client, name string, payload any) {
	data, err := events.Encode(name, payload)
	if err != nil {
		r.logger.Error("failed to encode reply", slog.String("name", name), slog.Any("error", err))
		return
	}
	r.connMgr.SendToClient(client, data)
}
