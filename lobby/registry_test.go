package lobby

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/lazharichir/zhajinhua/events"
	"github.com/lazharichir/zhajinhua/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(opts ...Option) *Registry {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRegistry(append([]Option{WithLogger(logger), WithSeed(1)}, opts...)...)
}

// recorder collects emitted events
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) handle(e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.events))
	for i, e := range r.events {
		names[i] = e.EventName()
	}
	return names
}

func TestRegistry_CreateRoom(t *testing.T) {
	reg := newTestRegistry()

	state, player := reg.CreateRoom("Alice")
	assert.Equal(t, "1", state.ID)
	assert.Equal(t, "p1", player.ID)
	assert.Equal(t, "Alice", player.Name)
	assert.Equal(t, 1000, player.Chips)
	assert.Equal(t, game.StageWaitingPlayers, state.Stage)

	second, _ := reg.CreateRoom("Bob")
	assert.Equal(t, "2", second.ID, "room ids are sequential")

	stored, err := reg.GetRoom("1")
	require.NoError(t, err)
	assert.Equal(t, state, stored)
}

func TestRegistry_GetRoom_NotFound(t *testing.T) {
	reg := newTestRegistry()

	_, err := reg.GetRoom("42")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRegistry_GetRoom_ReturnsCopies(t *testing.T) {
	reg := newTestRegistry()
	reg.CreateRoom("Alice")

	state, err := reg.GetRoom("1")
	require.NoError(t, err)
	state.Players[0].Chips = 0

	again, err := reg.GetRoom("1")
	require.NoError(t, err)
	assert.Equal(t, 1000, again.Players[0].Chips)
}

func TestRegistry_JoinRoom(t *testing.T) {
	reg := newTestRegistry()
	reg.CreateRoom("Alice")

	state, player, err := reg.JoinRoom("1", "Bob")
	require.NoError(t, err)
	assert.Equal(t, "p2", player.ID)
	assert.Len(t, state.Players, 2)

	_, _, err = reg.JoinRoom("9", "Carol")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRegistry_JoinRoom_Full(t *testing.T) {
	reg := newTestRegistry()
	reg.CreateRoom("a")
	for _, name := range []string{"b", "c", "d", "e"} {
		_, _, err := reg.JoinRoom("1", name)
		require.NoError(t, err)
	}

	_, _, err := reg.JoinRoom("1", "f")
	assert.ErrorIs(t, err, ErrRoomFull)

	state, err := reg.GetRoom("1")
	require.NoError(t, err)
	assert.Len(t, state.Players, 5)
}

func TestRegistry_StartRound(t *testing.T) {
	reg := newTestRegistry()
	reg.CreateRoom("Alice")

	state, err := reg.StartRound("1")
	require.NoError(t, err)
	assert.Equal(t, game.StageWaitingPlayers, state.Stage, "one player cannot start")

	_, _, err = reg.JoinRoom("1", "Bob")
	require.NoError(t, err)

	state, err = reg.StartRound("1")
	require.NoError(t, err)
	assert.Equal(t, game.StageBetting, state.Stage)
	assert.Equal(t, 20, state.Pot)

	_, err = reg.StartRound("404")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRegistry_EndToEndFold(t *testing.T) {
	reg := newTestRegistry()

	_, alice := reg.CreateRoom("A")
	_, bob, err := reg.JoinRoom("1", "B")
	require.NoError(t, err)
	assert.Equal(t, 1000, alice.Chips)
	assert.Equal(t, 1000, bob.Chips)

	state, err := reg.StartRound("1")
	require.NoError(t, err)
	assert.Equal(t, 20, state.Pot)
	assert.Equal(t, 990, state.Players[0].Chips)
	assert.Equal(t, 990, state.Players[1].Chips)

	state, err = reg.Act("1", alice.ID, game.ActionFold)
	require.NoError(t, err)

	assert.Equal(t, game.StageRoundFinished, state.Stage)
	assert.Equal(t, 1010, state.Players[1].Chips)
	assert.Equal(t, 0, state.Pot)
	require.NotNil(t, state.LastResult.WinnerID)
	assert.Equal(t, bob.ID, *state.LastResult.WinnerID)
}

func TestRegistry_EndToEndThreePlayerStreet(t *testing.T) {
	reg := newTestRegistry()
	reg.CreateRoom("a")
	reg.JoinRoom("1", "b")
	reg.JoinRoom("1", "c")

	_, err := reg.StartRound("1")
	require.NoError(t, err)

	var state game.RoomState
	for _, id := range []string{"p1", "p2", "p3"} {
		state, err = reg.Act("1", id, game.ActionStay)
		require.NoError(t, err)
	}

	require.Equal(t, game.StageRoundFinished, state.Stage)
	require.NotNil(t, state.LastResult.WinnerID)
	winner := *state.LastResult.WinnerID
	for _, p := range state.Players {
		if p.ID == winner {
			assert.Equal(t, 1020, p.Chips)
		} else {
			assert.Equal(t, 990, p.Chips)
		}
	}
}

func TestRegistry_Act(t *testing.T) {
	reg := newTestRegistry()
	reg.CreateRoom("a")
	reg.JoinRoom("1", "b")
	started, err := reg.StartRound("1")
	require.NoError(t, err)

	state, err := reg.Act("1", "p2", game.ActionStay)
	require.NoError(t, err)
	assert.Equal(t, started, state, "out of turn actions leave the room unchanged")

	_, err = reg.Act("404", "p1", game.ActionStay)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRegistry_TryAct(t *testing.T) {
	reg := newTestRegistry()
	reg.CreateRoom("a")
	reg.JoinRoom("1", "b")

	_, accepted, err := reg.TryAct("1", "p1", game.ActionStay)
	require.NoError(t, err)
	assert.False(t, accepted, "no round in progress")

	reg.StartRound("1")

	_, accepted, err = reg.TryAct("1", "p2", game.ActionStay)
	require.NoError(t, err)
	assert.False(t, accepted, "out of turn")

	_, accepted, err = reg.TryAct("1", "p1", game.Action("CHECK"))
	require.NoError(t, err)
	assert.False(t, accepted)

	state, accepted, err := reg.TryAct("1", "p1", game.ActionRaise)
	require.NoError(t, err)
	assert.True(t, accepted)
	assert.Equal(t, 40, state.Pot)

	_, _, err = reg.TryAct("2", "p1", game.ActionStay)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRegistry_Events(t *testing.T) {
	reg := newTestRegistry()
	rec := &recorder{}
	reg.AddEventHandler(rec.handle)

	reg.CreateRoom("a")
	reg.JoinRoom("1", "b")
	reg.StartRound("1")
	reg.Act("1", "p2", game.ActionStay) // rejected, no event
	reg.Act("1", "p1", game.ActionRaise)
	reg.Act("1", "p2", game.ActionStay)

	assert.Equal(t, []string{
		"room-created",
		"player-joined",
		"round-started",
		"action-applied",
		"action-applied",
		"round-finished",
	}, rec.names())

	finished, ok := rec.events[5].(events.RoundFinished)
	require.True(t, ok)
	assert.Equal(t, "1", finished.RoomID)
	assert.Equal(t, 1, finished.Round)
	assert.NotNil(t, finished.Result.WinnerID)
}

func TestRegistry_EventsFeedStore(t *testing.T) {
	reg := newTestRegistry()
	store := events.NewInMemoryEventStore()
	reg.AddEventHandler(store.Handler(nil))

	reg.CreateRoom("a")
	reg.CreateRoom("b")
	reg.JoinRoom("1", "c")

	history, err := store.LoadEvents("1")
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestRegistry_NoStartEventWhenNotEnoughPlayers(t *testing.T) {
	reg := newTestRegistry()
	rec := &recorder{}
	reg.CreateRoom("a")
	reg.AddEventHandler(rec.handle)

	reg.StartRound("1")

	assert.Empty(t, rec.names())
}

func TestRegistry_Rooms(t *testing.T) {
	reg := newTestRegistry()
	for range 11 {
		reg.CreateRoom("x")
	}

	rooms := reg.Rooms()
	require.Len(t, rooms, 11)
	for i, r := range rooms {
		assert.Equal(t, i+1, mustAtoi(t, r.ID), "rooms are ordered numerically")
	}
}

func TestRegistry_HasPlayer(t *testing.T) {
	reg := newTestRegistry()
	reg.CreateRoom("a")

	assert.True(t, reg.HasPlayer("1", "p1"))
	assert.False(t, reg.HasPlayer("1", "p2"))
	assert.False(t, reg.HasPlayer("2", "p1"))
}

func TestRegistry_WithRules(t *testing.T) {
	rules := game.Rules{Ante: 5, BetStep: 50, StartingChips: 200, MaxPlayers: 2}
	reg := newTestRegistry(WithRules(rules))

	state, player := reg.CreateRoom("a")
	assert.Equal(t, 5, state.Ante)
	assert.Equal(t, 50, state.BetStep)
	assert.Equal(t, 200, player.Chips)

	reg.JoinRoom("1", "b")
	_, _, err := reg.JoinRoom("1", "c")
	assert.ErrorIs(t, err, ErrRoomFull)

	ignored := newTestRegistry(WithRules(game.Rules{MaxPlayers: 1}))
	assert.Equal(t, game.DefaultRules(), ignored.Rules())
}

func TestRegistry_SeedIsDeterministic(t *testing.T) {
	deal := func() game.RoomState {
		reg := newTestRegistry(WithSeed(77))
		reg.CreateRoom("a")
		reg.JoinRoom("1", "b")
		state, err := reg.StartRound("1")
		require.NoError(t, err)
		return state
	}

	assert.Equal(t, deal(), deal())
}

func TestRegistry_ConcurrentActions(t *testing.T) {
	reg := newTestRegistry()
	reg.CreateRoom("a")
	reg.JoinRoom("1", "b")
	reg.JoinRoom("1", "c")
	_, err := reg.StartRound("1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 20 {
		for _, id := range []string{"p1", "p2", "p3"} {
			wg.Add(1)
			go func(playerID string) {
				defer wg.Done()
				_, err := reg.Act("1", playerID, game.ActionRaise)
				assert.NoError(t, err)
				_, _ = reg.GetRoom("1")
			}(id)
		}
	}
	wg.Wait()

	state, err := reg.GetRoom("1")
	require.NoError(t, err)
	assert.Equal(t, game.StageRoundFinished, state.Stage)
	assert.Equal(t, 3000, state.TotalChips())
	for _, p := range state.Players {
		assert.Equal(t, game.ActionRaise, p.LastAction, "each player raised exactly once")
	}
}
