package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lazharichir/zhajinhua/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{"PORT", "ANTE", "BET_STEP", "STARTING_CHIPS", "MAX_PLAYERS", "TURN_TIMEOUT", "DECK_SEED", "LOG_LEVEL"}

// clearEnv blanks every variable Load reads so the host environment does not leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func missingFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(missingFile(t))
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, ":4000", cfg.Addr())
	assert.Equal(t, game.DefaultRules(), cfg.Rules)
	assert.Zero(t, cfg.TurnTimeout)
	assert.Nil(t, cfg.DeckSeed)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("ANTE", "5")
	t.Setenv("BET_STEP", "15")
	t.Setenv("STARTING_CHIPS", "300")
	t.Setenv("MAX_PLAYERS", "17")
	t.Setenv("TURN_TIMEOUT", "15s")
	t.Setenv("DECK_SEED", "42")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(missingFile(t))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, game.Rules{Ante: 5, BetStep: 15, StartingChips: 300, MaxPlayers: 17}, cfg.Rules)
	assert.Equal(t, 15*time.Second, cfg.TurnTimeout)
	require.NotNil(t, cfg.DeckSeed)
	assert.Equal(t, uint64(42), *cfg.DeckSeed)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANTE", "7")
	require.NoError(t, os.Unsetenv("BET_STEP"))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ANTE=99\nBET_STEP=40\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Rules.Ante, "the environment wins over the file")
	assert.Equal(t, 40, cfg.Rules.BetStep)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"PORT", "abc"},
		{"PORT", "70000"},
		{"ANTE", "-1"},
		{"BET_STEP", "x"},
		{"STARTING_CHIPS", "-5"},
		{"MAX_PLAYERS", "1"},
		{"MAX_PLAYERS", "18"},
		{"TURN_TIMEOUT", "soon"},
		{"TURN_TIMEOUT", "-1s"},
		{"DECK_SEED", "-3"},
		{"LOG_LEVEL", "loud"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load(missingFile(t))
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)

	logger.Info("hidden")
	logger.Warn("shown", slog.String("room", "1"))

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "room")
}
