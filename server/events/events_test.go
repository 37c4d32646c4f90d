package events

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/lazharichir/zhajinhua/game"
	"github.com/lazharichir/zhajinhua/lobby"
	"github.com/lazharichir/zhajinhua/server/connection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	data, err := Encode(Pong, PongPayload{Ts: 12})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"pong","payload":{"ts":12}}`, string(data))
}

func decodeSnapshot(t *testing.T, data []byte) RoomSnapshotPayload {
	t.Helper()

	var env EventEnvelope
	require.NoError(t, json.Unmarshal(data, &env))
	require.Equal(t, RoomSnapshot, env.Name)

	var payload RoomSnapshotPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	return payload
}

func TestDispatcher_SendsRedactedSnapshots(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := lobby.NewRegistry(lobby.WithSeed(3), lobby.WithLogger(logger))
	connMgr := connection.NewManager(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go connMgr.Start(ctx)

	reg.AddEventHandler(NewDispatcher(reg, connMgr, logger).HandleEvent)

	reg.CreateRoom("a")
	reg.JoinRoom("1", "b")

	alice := connection.NewClient("c1", nil)
	alice.Attach("1", "p1")
	spectator := connection.NewClient("c2", nil)
	spectator.Attach("1", "")
	connMgr.Register <- alice
	connMgr.Register <- spectator
	require.Eventually(t, func() bool { return connMgr.Count() == 2 }, time.Second, time.Millisecond)

	_, err := reg.StartRound("1")
	require.NoError(t, err)

	snap := decodeSnapshot(t, <-alice.Send)
	assert.Equal(t, "1", snap.RoomID)
	assert.Equal(t, game.StageBetting, snap.State.Stage)
	assert.Len(t, snap.State.Players[0].Hand, 3)
	assert.Empty(t, snap.State.Players[1].Hand)

	watcher := decodeSnapshot(t, <-spectator.Send)
	assert.Empty(t, watcher.State.Players[0].Hand)
	assert.Empty(t, watcher.State.Players[1].Hand)
}
