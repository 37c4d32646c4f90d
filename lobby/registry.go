package lobby

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lazharichir/zhajinhua/events"
	"github.com/lazharichir/zhajinhua/game"
	"github.com/sanity-io/litter"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomFull     = errors.New("room is full")
)

// room serializes mutations of one room; reads go through the atomic snapshot.
type room struct {
	mu    sync.Mutex
	state atomic.Pointer[game.RoomState]
	rng   *rand.Rand // guarded by mu
}

// Registry owns every room of the process
type Registry struct {
	rules  game.Rules
	seed   *uint64
	logger *slog.Logger

	mu     sync.RWMutex
	rooms  map[string]*room
	nextID int

	handlersMu    sync.RWMutex
	eventHandlers []events.EventHandler
}

// Option configures a Registry
type Option func(*Registry)

// WithRules sets the rules used for new rooms. Invalid rules are ignored.
func WithRules(rules game.Rules) Option {
	return func(r *Registry) {
		if rules.Validate() == nil {
			r.rules = rules
		}
	}
}

// WithSeed makes every room shuffle from a deterministic source derived from seed.
func WithSeed(seed uint64) Option {
	return func(r *Registry) {
		r.seed = &seed
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates an empty registry
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		rules:  game.DefaultRules(),
		logger: slog.Default(),
		rooms:  make(map[string]*room),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rules returns the rules new rooms are created with
func (r *Registry) Rules() game.Rules {
	return r.rules
}

// AddEventHandler registers a handler called after every accepted mutation.
// Handlers run synchronously on the caller's goroutine, outside any room lock.
func (r *Registry) AddEventHandler(handler events.EventHandler) {
	r.handlersMu.Lock()
	defer r.handlersMu.Unlock()
	r.eventHandlers = append(r.eventHandlers, handler)
}

// CreateRoom opens a new room with a fresh sequential id and seats its creator.
func (r *Registry) CreateRoom(playerName string) (game.RoomState, game.Player) {
	r.mu.Lock()
	r.nextID++
	number := r.nextID
	id := strconv.Itoa(number)

	state, player := game.AddPlayer(game.NewRoom(id, r.rules), playerName)

	rm := &room{}
	if r.seed != nil {
		rm.rng = rand.New(rand.NewPCG(*r.seed, uint64(number)))
	}
	rm.state.Store(&state)
	r.rooms[id] = rm
	r.mu.Unlock()

	r.logger.Info("room created", slog.String("room", id), slog.String("player", player.ID))
	r.emit(events.RoomCreated{RoomID: id, PlayerID: player.ID, At: time.Now()})

	return state.Clone(), *player
}

// GetRoom returns the latest snapshot of a room
func (r *Registry) GetRoom(id string) (game.RoomState, error) {
	rm, err := r.lookup(id)
	if err != nil {
		return game.RoomState{}, err
	}
	return rm.state.Load().Clone(), nil
}

// HasPlayer reports whether playerID is seated in the room
func (r *Registry) HasPlayer(id string, playerID string) bool {
	state, err := r.GetRoom(id)
	if err != nil {
		return false
	}
	_, ok := state.Player(playerID)
	return ok
}

// Rooms returns a snapshot of every room, ordered by id
func (r *Registry) Rooms() []game.RoomState {
	r.mu.RLock()
	rooms := make([]game.RoomState, 0, len(r.rooms))
	for _, rm := range r.rooms {
		rooms = append(rooms, rm.state.Load().Clone())
	}
	r.mu.RUnlock()

	slices.SortFunc(rooms, func(a, b game.RoomState) int {
		na, _ := strconv.Atoi(a.ID)
		nb, _ := strconv.Atoi(b.ID)
		return na - nb
	})
	return rooms
}

// JoinRoom seats a new player in an existing room.
func (r *Registry) JoinRoom(id string, playerName string) (game.RoomState, game.Player, error) {
	var joined *game.Player
	_, after, err := r.update(id, func(s game.RoomState, _ *rand.Rand) (game.RoomState, error) {
		next, player := game.AddPlayer(s, playerName)
		if player == nil {
			return s, fmt.Errorf("join room %s: %w", id, ErrRoomFull)
		}
		joined = player
		return next, nil
	})
	if err != nil {
		return game.RoomState{}, game.Player{}, err
	}

	r.logger.Info("player joined", slog.String("room", id), slog.String("player", joined.ID))
	r.emit(events.PlayerJoined{RoomID: id, PlayerID: joined.ID, Name: joined.Name, At: time.Now()})

	return after, *joined, nil
}

// StartRound deals a new round. With too few players the returned state is unchanged
// and still waiting; callers tell the difference by its Stage.
func (r *Registry) StartRound(id string) (game.RoomState, error) {
	before, after, err := r.update(id, game.StartRound)
	if err != nil {
		return game.RoomState{}, err
	}

	if after.Round != before.Round {
		r.logger.Info("round started", slog.String("room", id), slog.Int("round", after.Round), slog.Int("pot", after.Pot))
		r.emit(events.RoundStarted{RoomID: id, Round: after.Round, Pot: after.Pot, At: time.Now()})
	}

	return after, nil
}

// Act applies a player's action. A rejected action (wrong turn, wrong stage) returns the state unchanged.
func (r *Registry) Act(id string, playerID string, action game.Action) (game.RoomState, error) {
	state, _, err := r.TryAct(id, playerID, action)
	return state, err
}

// TryAct is Act that also reports whether the action was accepted.
func (r *Registry) TryAct(id string, playerID string, action game.Action) (game.RoomState, bool, error) {
	before, after, err := r.update(id, func(s game.RoomState, _ *rand.Rand) (game.RoomState, error) {
		return game.ApplyAction(s, playerID, action), nil
	})
	if err != nil {
		return game.RoomState{}, false, err
	}

	if !actionAccepted(before, after) {
		r.logger.Debug("action rejected", slog.String("room", id), slog.String("player", playerID), slog.String("action", string(action)))
		return after, false, nil
	}

	now := time.Now()
	r.emit(events.ActionApplied{RoomID: id, Round: after.Round, PlayerID: playerID, Action: action, Pot: after.Pot, At: now})

	if after.Stage == game.StageRoundFinished && after.LastResult != nil {
		attrs := []any{slog.String("room", id), slog.Int("round", after.Round), slog.String("reason", after.LastResult.Reason)}
		if after.LastResult.WinnerID != nil {
			attrs = append(attrs, slog.String("winner", *after.LastResult.WinnerID))
		}
		r.logger.Info("round finished", attrs...)
		r.emit(events.RoundFinished{RoomID: id, Round: after.Round, Result: *after.LastResult, At: now})
	}

	return after, true, nil
}

// actionAccepted reports whether an action moved the room forward.
// Every accepted action either bumps the action count or finishes the round.
func actionAccepted(before, after game.RoomState) bool {
	if before.Stage != game.StageBetting {
		return false
	}
	return after.Stage != before.Stage || after.ActionsCountInRound != before.ActionsCountInRound
}

func (r *Registry) lookup(id string) (*room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[id]
	if !ok {
		return nil, fmt.Errorf("room %q: %w", id, ErrRoomNotFound)
	}
	return rm, nil
}

// update runs fn under the room lock and stores its result as the room's new state.
func (r *Registry) update(id string, fn func(game.RoomState, *rand.Rand) (game.RoomState, error)) (game.RoomState, game.RoomState, error) {
	rm, err := r.lookup(id)
	if err != nil {
		return game.RoomState{}, game.RoomState{}, err
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	before := *rm.state.Load()
	after, err := fn(before, rm.rng)
	if err != nil {
		return game.RoomState{}, game.RoomState{}, err
	}
	rm.state.Store(&after)

	if r.logger.Enabled(context.Background(), slog.LevelDebug) {
		r.logger.Debug("room state", slog.String("room", id), slog.String("state", litter.Sdump(after)))
	}

	return before.Clone(), after.Clone(), nil
}

// emit notifies all registered handlers of a new event
func (r *Registry) emit(event events.Event) {
	r.handlersMu.RLock()
	handlers := slices.Clone(r.eventHandlers)
	r.handlersMu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}
