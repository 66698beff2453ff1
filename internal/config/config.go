// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

// Config is shared by every subcommand; flags override it.
type Config struct {
	Addr              string        `env:"BATTLESHIP_ADDR"               envDefault:":8080"`
	KeysDir           string        `env:"BATTLESHIP_KEYS_DIR"           envDefault:"./keys"`
	LogLevel          string        `env:"BATTLESHIP_LOG_LEVEL"          envDefault:"info"`
	GridSize          int           `env:"BATTLESHIP_GRID_SIZE"          envDefault:"10"`
	DeveloperMode     bool          `env:"BATTLESHIP_DEVELOPER_MODE"     envDefault:"false"`
	PresentationDelay time.Duration `env:"BATTLESHIP_PRESENTATION_DELAY" envDefault:"300ms"`
	Proofs            bool          `env:"BATTLESHIP_PROOFS"             envDefault:"true"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses Config from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// NewLogger builds a console logger at level. An unknown level falls
// back to info.
func NewLogger(w io.Writer, level string) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}
