package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, Config{
		Addr:              ":8080",
		KeysDir:           "./keys",
		LogLevel:          "info",
		GridSize:          10,
		PresentationDelay: 300 * time.Millisecond,
		Proofs:            true,
	}, cfg)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BATTLESHIP_GRID_SIZE", "25")
	t.Setenv("BATTLESHIP_DEVELOPER_MODE", "true")
	t.Setenv("BATTLESHIP_PRESENTATION_DELAY", "1s")
	t.Setenv("BATTLESHIP_PROOFS", "false")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 25, cfg.GridSize)
	require.True(t, cfg.DeveloperMode)
	require.Equal(t, time.Second, cfg.PresentationDelay)
	require.False(t, cfg.Proofs)
}

func TestParseEnvError(t *testing.T) {
	t.Setenv("BATTLESHIP_GRID_SIZE", "not-an-int")
	_, err := Load()
	require.ErrorContains(t, err, "parse env:")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, "WARN")
	require.Equal(t, zerolog.WarnLevel, log.GetLevel())
	log.Info().Msg("hidden")
	require.Empty(t, buf.String())
	log.Warn().Str("field", "size").Msg("shown")
	require.Contains(t, buf.String(), "shown")

	require.Equal(t, zerolog.InfoLevel, NewLogger(&buf, "loud").GetLevel())
}
