package lobby

import (
	"log/slog"
	"sync"
	"time"

	"github.com/lazharichir/zhajinhua/events"
	"github.com/lazharichir/zhajinhua/game"
)

// TurnClock folds the current player of a room when they take longer than the timeout to act.
// Register HandleEvent on the registry it watches.
type TurnClock struct {
	registry *Registry
	timeout  time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

// turn identifies one pending decision of a room
type turn struct {
	roomID   string
	round    int
	actions  int
	playerID string
}

// NewTurnClock creates a clock for registry. A zero timeout disables it.
func NewTurnClock(registry *Registry, timeout time.Duration, logger *slog.Logger) *TurnClock {
	if logger == nil {
		logger = slog.Default()
	}
	return &TurnClock{
		registry: registry,
		timeout:  timeout,
		logger:   logger,
		timers:   make(map[string]*time.Timer),
	}
}

// HandleEvent re-arms the timer of the room the event belongs to.
func (c *TurnClock) HandleEvent(event events.Event) {
	if c.timeout <= 0 {
		return
	}

	roomID := events.GetRoomID(event)
	state, err := c.registry.GetRoom(roomID)
	if err != nil {
		return
	}
	c.arm(state)
}

// Stop cancels every pending timer. The clock ignores events afterwards.
func (c *TurnClock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopped = true
	for id, timer := range c.timers {
		timer.Stop()
		delete(c.timers, id)
	}
}

func (c *TurnClock) arm(state game.RoomState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return
	}

	if timer, ok := c.timers[state.ID]; ok {
		timer.Stop()
		delete(c.timers, state.ID)
	}

	current, ok := state.CurrentPlayer()
	if state.Stage != game.StageBetting || !ok {
		return
	}

	t := turn{roomID: state.ID, round: state.Round, actions: state.ActionsCountInRound, playerID: current.ID}
	c.timers[state.ID] = time.AfterFunc(c.timeout, func() { c.expire(t) })
}

// expire folds the player of t if the room is still waiting on that exact turn.
func (c *TurnClock) expire(t turn) {
	state, err := c.registry.GetRoom(t.roomID)
	if err != nil {
		return
	}

	current, ok := state.CurrentPlayer()
	if state.Stage != game.StageBetting || !ok || state.Round != t.round ||
		state.ActionsCountInRound != t.actions || current.ID != t.playerID {
		return
	}

	c.logger.Info("turn timed out", slog.String("room", t.roomID), slog.String("player", t.playerID), slog.Duration("timeout", c.timeout))

	if _, err := c.registry.Act(t.roomID, t.playerID, game.ActionFold); err != nil {
		c.logger.Error("auto fold failed", slog.String("room", t.roomID), slog.Any("error", err))
	}
}
