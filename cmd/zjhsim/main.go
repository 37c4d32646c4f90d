package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/lazharichir/zhajinhua/config"
	"github.com/lazharichir/zhajinhua/game"
	"github.com/pterm/pterm"
)

func main() {
	var (
		players = flag.Int("players", 3, "number of bots at the table")
		rounds  = flag.Int("rounds", 10, "rounds to play")
		seed    = flag.Uint64("seed", uint64(time.Now().UnixNano()), "seed for shuffles and decisions")
		verbose = flag.Bool("v", false, "print every decision")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}

	rules := cfg.Rules
	rules.MaxPlayers = max(rules.MaxPlayers, *players)
	if err := rules.Validate(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}

	sim := simulation{
		players: *players,
		rounds:  *rounds,
		seed:    *seed,
		rules:   rules,
		logger:  config.NewLogger(os.Stderr, max(cfg.LogLevel, slog.LevelWarn)),
	}

	pterm.DefaultHeader.WithFullWidth().Println("ZhaJinHua simulator")
	pterm.Info.Printfln("%d bots, %d rounds, ante %d, raise %d, seed %d", sim.players, sim.rounds, rules.Ante, rules.BetStep, sim.seed)

	wins := map[string]int{}
	final, err := sim.run(func(r RoundReport) {
		printRound(r, *verbose)
		if r.Result.WinnerID != nil {
			wins[*r.Result.WinnerID]++
		}
	})
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}

	printSummary(final, wins)
}

func printRound(r RoundReport, verbose bool) {
	pterm.DefaultSection.Printfln("Round %d", r.Round)

	if verbose {
		for _, m := range r.Moves {
			pterm.Printfln("  %s %s %s", pterm.LightCyan(m.Player), actionStyle(m.Action), pterm.Gray(m.Reason))
		}
	}

	if r.Result.WinnerID == nil {
		pterm.Warning.Println(r.Result.Reason)
		return
	}

	winner, _ := r.State.Player(*r.Result.WinnerID)
	hand := ""
	if r.Result.WinnerEval != nil {
		hand = fmt.Sprintf(" with %s %s (%s)", r.Result.WinnerHand, r.Result.WinnerEval.Category, r.Result.WinnerEval.Category.LocalName())
	}
	pterm.Success.Printfln("%s wins, %s%s", winner.Name, r.Result.Reason, hand)
}

func printSummary(state game.RoomState, wins map[string]int) {
	data := pterm.TableData{{"Player", "Chips", "Wins"}}
	for _, p := range state.Players {
		data = append(data, []string{p.Name, strconv.Itoa(p.Chips), strconv.Itoa(wins[p.ID])})
	}

	pterm.DefaultSection.Println("Standings")
	if err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Render(); err != nil {
		pterm.Error.Println(err)
	}
	pterm.Info.Printfln("chips in play: %d", state.TotalChips())
}

func actionStyle(a game.Action) string {
	switch a {
	case game.ActionFold:
		return pterm.LightRed(a)
	case game.ActionRaise:
		return pterm.LightGreen(a)
	default:
		return pterm.LightYellow(a)
	}
}
