package main

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/lazharichir/zhajinhua/bot"
	"github.com/lazharichir/zhajinhua/game"
	"github.com/lazharichir/zhajinhua/lobby"
)

// Move is one decision taken during a simulated round
type Move struct {
	Player string
	Action game.Action
	Reason string
}

// RoundReport is the outcome of one simulated round
type RoundReport struct {
	Round  int
	Moves  []Move
	Result game.RoundResult
	State  game.RoomState
}

type simulation struct {
	players int
	rounds  int
	seed    uint64
	rules   game.Rules
	logger  *slog.Logger
}

// run seats one bot per player and plays rounds until the count is reached.
// onRound is called after every finished round.
func (s simulation) run(onRound func(RoundReport)) (game.RoomState, error) {
	reg := lobby.NewRegistry(lobby.WithRules(s.rules), lobby.WithSeed(s.seed), lobby.WithLogger(s.logger))

	deciders := make(map[string]bot.DecisionSource, s.players)
	state, first := reg.CreateRoom("bot-1")
	deciders[first.ID] = bot.NewRandomDecider(rand.New(rand.NewPCG(s.seed, 1)))

	for i := 2; i <= s.players; i++ {
		_, p, err := reg.JoinRoom(state.ID, fmt.Sprintf("bot-%d", i))
		if err != nil {
			return game.RoomState{}, err
		}
		deciders[p.ID] = bot.NewRandomDecider(rand.New(rand.NewPCG(s.seed, uint64(i))))
	}

	for range s.rounds {
		var err error
		state, err = reg.StartRound(state.ID)
		if err != nil {
			return game.RoomState{}, err
		}
		if state.Stage != game.StageBetting {
			return state, fmt.Errorf("round did not start in stage %s", state.Stage)
		}

		report := RoundReport{Round: state.Round}
		for state.Stage == game.StageBetting {
			current, ok := state.CurrentPlayer()
			if !ok {
				return state, fmt.Errorf("betting without a current player in round %d", state.Round)
			}

			decision := deciders[current.ID].Decide(current.Hand)
			report.Moves = append(report.Moves, Move{Player: current.Name, Action: decision.Action, Reason: decision.Reason})

			if state, err = reg.Act(state.ID, current.ID, decision.Action); err != nil {
				return game.RoomState{}, err
			}
		}

		if state.LastResult != nil {
			report.Result = *state.LastResult
		}
		report.State = state
		if onRound != nil {
			onRound(report)
		}
	}

	return state, nil
}
