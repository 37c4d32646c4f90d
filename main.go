package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lazharichir/zhajinhua/config"
	"github.com/lazharichir/zhajinhua/events"
	"github.com/lazharichir/zhajinhua/lobby"
	"github.com/lazharichir/zhajinhua/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := config.NewLogger(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(cfg config.Config, logger *slog.Logger) error {
	opts := []lobby.Option{lobby.WithRules(cfg.Rules), lobby.WithLogger(logger)}
	if cfg.DeckSeed != nil {
		opts = append(opts, lobby.WithSeed(*cfg.DeckSeed))
		logger.Warn("deterministic shuffles enabled", slog.Uint64("seed", *cfg.DeckSeed))
	}
	registry := lobby.NewRegistry(opts...)

	store := events.NewInMemoryEventStore()
	registry.AddEventHandler(store.Handler(func(e events.Event, err error) {
		logger.Error("failed to record event", slog.String("event", e.EventName()), slog.Any("error", err))
	}))

	clock := lobby.NewTurnClock(registry, cfg.TurnTimeout, logger)
	registry.AddEventHandler(clock.HandleEvent)
	defer clock.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting ZhaJinHua server",
		slog.Int("port", cfg.Port),
		slog.Int("ante", cfg.Rules.Ante),
		slog.Int("bet_step", cfg.Rules.BetStep),
		slog.Int("max_players", cfg.Rules.MaxPlayers),
		slog.Duration("turn_timeout", cfg.TurnTimeout),
	)

	return server.New(registry, store, logger).Run(ctx, cfg.Addr())
}
