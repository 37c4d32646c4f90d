package game

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/lazharichir/zhajinhua/cards"
	"github.com/lazharichir/zhajinhua/hands"
)

const MinPlayers = 2

const (
	ReasonAllOthersFolded = "all others folded"
	ReasonShowdown        = "showdown"
	ReasonRoundVoid       = "all players folded, round void"
)

// AddPlayer seats a new player with the room's starting chips.
// A player joining during betting sits the round out as folded.
// It returns a nil player, and the state unchanged, when the room is full.
func AddPlayer(s RoomState, name string) (RoomState, *Player) {
	if s.IsFull() {
		return s, nil
	}

	number := len(s.Players) + 1
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("玩家%d", number)
	}

	player := Player{
		ID:        fmt.Sprintf("p%d", number),
		Name:      name,
		Hand:      cards.Cards{},
		HasFolded: s.Stage == StageBetting,
		Chips:     s.StartingChips,
	}

	next := s.Clone()
	next.Players = append(next.Players, player)

	return next, &player
}

// StartRound deals a new round: fresh shuffled deck, three cards each, antes into the pot.
// With fewer than MinPlayers players the state is returned unchanged.
func StartRound(s RoomState, rng *rand.Rand) (RoomState, error) {
	if len(s.Players) < MinPlayers {
		return s, nil
	}

	deck := cards.Shuffle(cards.NewDeck(), rng)
	dealt, _, err := cards.Deal(deck, len(s.Players), cards.HandSize)
	if err != nil {
		return s, fmt.Errorf("start round in room %s: %w", s.ID, err)
	}

	// A pot stranded by a void round carries over.
	next := s.Clone()
	for i := range next.Players {
		p := &next.Players[i]
		pay := min(s.Ante, p.Chips)
		p.Chips -= pay
		next.Pot += pay

		p.Hand = dealt[i]
		p.HasFolded = false
		p.LastAction = ActionNone
	}

	next.Stage = StageBetting
	next.Round = s.Round + 1
	next.CurrentPlayerIndex = intPtr(0)
	next.ActionsCountInRound = 0
	next.LastResult = nil

	return next, nil
}

// ApplyAction applies the current player's action. Out-of-turn actions, actions outside
// the betting stage and unknown actions leave the state unchanged.
func ApplyAction(s RoomState, playerID string, action Action) RoomState {
	if s.Stage != StageBetting || !action.Valid() {
		return s
	}

	current, ok := s.CurrentPlayer()
	if !ok || current.ID != playerID {
		return s
	}
	idx := *s.CurrentPlayerIndex

	next := s.Clone()
	p := &next.Players[idx]

	switch action {
	case ActionFold:
		p.HasFolded = true
	case ActionRaise:
		pay := min(s.BetStep, p.Chips)
		p.Chips -= pay
		next.Pot += pay
		p.HasFolded = false
	case ActionStay:
		p.HasFolded = false
	}
	p.LastAction = action
	next.ActionsCountInRound = s.ActionsCountInRound + 1

	if len(next.ActivePlayers()) <= 1 || next.ActionsCountInRound >= len(next.Players) {
		return resolveShowdown(next)
	}

	nextIdx, found := FindNextActive(next.Players, idx)
	if !found {
		return resolveShowdown(next)
	}
	next.CurrentPlayerIndex = intPtr(nextIdx)

	return next
}

// FindNextActive returns the index of the first non-folded player after from, wrapping around.
func FindNextActive(players []Player, from int) (int, bool) {
	count := len(players)
	for offset := 1; offset <= count; offset++ {
		idx := (from + offset) % count
		if !players[idx].HasFolded {
			return idx, true
		}
	}
	return 0, false
}

// resolveShowdown ends the round and pays the pot to the single best active hand.
// s is owned by the caller and is modified.
func resolveShowdown(s RoomState) RoomState {
	s.Stage = StageRoundFinished
	s.CurrentPlayerIndex = nil
	s.ActionsCountInRound = 0

	active := s.ActivePlayers()

	// Unreachable while a fold only ever removes the actor. The pot stays where it is.
	if len(active) == 0 {
		s.LastResult = &RoundResult{Reason: ReasonRoundVoid}
		return s
	}

	winner := active[0]
	reason := ReasonAllOthersFolded
	if len(active) > 1 {
		reason = ReasonShowdown
		for _, p := range active[1:] {
			if hands.Compare(p.Hand, winner.Hand) > 0 {
				winner = p
			}
		}
	}

	for i := range s.Players {
		if s.Players[i].ID == winner.ID {
			s.Players[i].Chips += s.Pot
			break
		}
	}
	s.Pot = 0

	winnerID := winner.ID
	eval := hands.Evaluate(winner.Hand)
	s.LastResult = &RoundResult{
		WinnerID:   &winnerID,
		Reason:     reason,
		WinnerHand: winner.Hand,
		WinnerEval: &eval,
	}

	return s
}
