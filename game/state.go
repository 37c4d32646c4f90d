package game

import (
	"fmt"
	"slices"

	"github.com/lazharichir/zhajinhua/cards"
	"github.com/lazharichir/zhajinhua/hands"
)

// Stage is the coarse phase of a room
type Stage string

const (
	StageWaitingPlayers Stage = "waiting_players"
	StageBetting        Stage = "betting"
	StageRoundFinished  Stage = "round_finished"
)

// Rules holds the fixed-limit betting parameters of a room
type Rules struct {
	Ante          int
	BetStep       int
	StartingChips int
	MaxPlayers    int
}

// DefaultRules returns the standard table: ante 10, raise 20, 1000 chips, five seats.
func DefaultRules() Rules {
	return Rules{
		Ante:          10,
		BetStep:       20,
		StartingChips: 1000,
		MaxPlayers:    5,
	}
}

// Player is a seat in a room
type Player struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Hand       cards.Cards `json:"hand"`
	HasFolded  bool        `json:"hasFolded"`
	LastAction Action      `json:"lastAction"`
	Chips      int         `json:"chips"`
}

// RoundResult describes how the last round ended
type RoundResult struct {
	WinnerID   *string           `json:"winnerId"`
	Reason     string            `json:"reason"`
	WinnerHand cards.Cards       `json:"winnerHand,omitempty"`
	WinnerEval *hands.Evaluation `json:"winnerEval,omitempty"`
}

// RoomState is the authoritative state of one room.
// Operations in this package never modify a RoomState in place; they return a new one.
type RoomState struct {
	ID                  string       `json:"id"`
	Players             []Player     `json:"players"`
	Pot                 int          `json:"pot"`
	Stage               Stage        `json:"stage"`
	Ante                int          `json:"ante"`
	BetStep             int          `json:"betStep"`
	Round               int          `json:"round"`
	CurrentPlayerIndex  *int         `json:"currentPlayerIndex"`
	ActionsCountInRound int          `json:"actionsCountInRound"`
	LastResult          *RoundResult `json:"lastResult"`

	MaxPlayers    int `json:"-"`
	StartingChips int `json:"-"`
}

// NewRoom creates an empty room waiting for players.
func NewRoom(id string, rules Rules) RoomState {
	return RoomState{
		ID:            id,
		Players:       []Player{},
		Stage:         StageWaitingPlayers,
		Ante:          rules.Ante,
		BetStep:       rules.BetStep,
		MaxPlayers:    rules.MaxPlayers,
		StartingChips: rules.StartingChips,
	}
}

// Clone returns a deep copy of the state.
func (s RoomState) Clone() RoomState {
	out := s
	out.Players = make([]Player, len(s.Players))
	for i, p := range s.Players {
		p.Hand = slices.Clone(p.Hand)
		out.Players[i] = p
	}
	if s.CurrentPlayerIndex != nil {
		idx := *s.CurrentPlayerIndex
		out.CurrentPlayerIndex = &idx
	}
	if s.LastResult != nil {
		res := *s.LastResult
		res.WinnerHand = slices.Clone(res.WinnerHand)
		out.LastResult = &res
	}
	return out
}

// Player returns the player with the given ID
func (s RoomState) Player(playerID string) (Player, bool) {
	for _, p := range s.Players {
		if p.ID == playerID {
			return p, true
		}
	}
	return Player{}, false
}

// CurrentPlayer returns the player whose turn it is
func (s RoomState) CurrentPlayer() (Player, bool) {
	if s.CurrentPlayerIndex == nil {
		return Player{}, false
	}
	idx := *s.CurrentPlayerIndex
	if idx < 0 || idx >= len(s.Players) {
		return Player{}, false
	}
	return s.Players[idx], true
}

// ActivePlayers returns the players who have not folded this round, in roster order
func (s RoomState) ActivePlayers() []Player {
	return activePlayers(s.Players)
}

// TotalChips is the sum of all stacks plus the pot.
func (s RoomState) TotalChips() int {
	total := s.Pot
	for _, p := range s.Players {
		total += p.Chips
	}
	return total
}

// IsFull reports whether the room has no free seat left
func (s RoomState) IsFull() bool {
	return len(s.Players) >= s.MaxPlayers
}

func activePlayers(players []Player) []Player {
	var active []Player
	for _, p := range players {
		if !p.HasFolded {
			active = append(active, p)
		}
	}
	return active
}

func intPtr(v int) *int {
	return &v
}

// MaxSeats is the largest roster a single 52-card deck can deal three cards to.
const MaxSeats = 52 / 3

// Validate checks that the rules describe a playable table.
func (r Rules) Validate() error {
	switch {
	case r.Ante < 0:
		return fmt.Errorf("ante must not be negative, got %d", r.Ante)
	case r.BetStep < 0:
		return fmt.Errorf("bet step must not be negative, got %d", r.BetStep)
	case r.StartingChips < 0:
		return fmt.Errorf("starting chips must not be negative, got %d", r.StartingChips)
	case r.MaxPlayers < MinPlayers || r.MaxPlayers > MaxSeats:
		return fmt.Errorf("max players must be between %d and %d, got %d", MinPlayers, MaxSeats, r.MaxPlayers)
	}
	return nil
}
