package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lazharichir/zhajinhua/game"
	"github.com/lmittmann/tint"
)

// Config is the process configuration
type Config struct {
	Port        int
	Rules       game.Rules
	TurnTimeout time.Duration
	DeckSeed    *uint64
	LogLevel    slog.Level
}

// Addr is the listen address for Port
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Load reads the given .env files (".env" when none are given), then the environment.
// Variables already set in the environment win over the files. Missing files are ignored.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	cfg := Config{
		Port:     4000,
		Rules:    game.DefaultRules(),
		LogLevel: slog.LevelInfo,
	}

	var err error
	if cfg.Port, err = intEnv("PORT", cfg.Port); err != nil {
		return Config{}, err
	}
	if cfg.Rules.Ante, err = intEnv("ANTE", cfg.Rules.Ante); err != nil {
		return Config{}, err
	}
	if cfg.Rules.BetStep, err = intEnv("BET_STEP", cfg.Rules.BetStep); err != nil {
		return Config{}, err
	}
	if cfg.Rules.StartingChips, err = intEnv("STARTING_CHIPS", cfg.Rules.StartingChips); err != nil {
		return Config{}, err
	}
	if cfg.Rules.MaxPlayers, err = intEnv("MAX_PLAYERS", cfg.Rules.MaxPlayers); err != nil {
		return Config{}, err
	}

	if v := env("TURN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, fmt.Errorf("TURN_TIMEOUT: invalid duration %q", v)
		}
		cfg.TurnTimeout = d
	}

	if v := env("DECK_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("DECK_SEED: %w", err)
		}
		cfg.DeckSeed = &seed
	}

	if v := env("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
		}
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("PORT: out of range: %d", cfg.Port)
	}
	if err := cfg.Rules.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid rules: %w", err)
	}

	return cfg, nil
}

// NewLogger builds the colored console logger used by the binaries
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
	}))
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func intEnv(key string, def int) (int, error) {
	v := env(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
