// Package config loads settings for the lispy REPL and the lispd server
// from the environment. A .env file in the working directory is read first
// when present; variables already set in the environment win.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ColorMode selects when error output is colored.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

type Config struct {
	Listen       string
	HistoryFile  string
	MaxDepth     int
	LogLevel     string
	LogJSON      bool
	Color        ColorMode
	SessionTTL   time.Duration
	EvalTimeout  time.Duration
	AllowOrigins []string
}

// Load reads .env (if any) and then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (Config, error) {
	cfg := Config{
		Listen:      getenv("LISPY_LISTEN", "127.0.0.1:8080"),
		HistoryFile: getenv("LISPY_HISTORY", defaultHistoryFile()),
		LogLevel:    getenv("LISPY_LOG_LEVEL", "info"),
		Color:       ColorMode(getenv("LISPY_COLOR", string(ColorAuto))),
	}

	var err error
	if cfg.MaxDepth, err = strconv.Atoi(getenv("LISPY_MAX_DEPTH", "10000")); err != nil || cfg.MaxDepth < 0 {
		return Config{}, fmt.Errorf("LISPY_MAX_DEPTH: invalid value %q", os.Getenv("LISPY_MAX_DEPTH"))
	}
	if cfg.LogJSON, err = strconv.ParseBool(getenv("LISPY_LOG_JSON", "false")); err != nil {
		return Config{}, fmt.Errorf("LISPY_LOG_JSON: %w", err)
	}
	if cfg.SessionTTL, err = time.ParseDuration(getenv("LISPY_SESSION_TTL", "30m")); err != nil {
		return Config{}, fmt.Errorf("LISPY_SESSION_TTL: %w", err)
	}
	if cfg.EvalTimeout, err = time.ParseDuration(getenv("LISPY_EVAL_TIMEOUT", "10s")); err != nil || cfg.EvalTimeout < 0 {
		return Config{}, fmt.Errorf("LISPY_EVAL_TIMEOUT: invalid value %q", os.Getenv("LISPY_EVAL_TIMEOUT"))
	}
	switch cfg.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return Config{}, fmt.Errorf("LISPY_COLOR: expected auto, always or never, got %q", cfg.Color)
	}
	for _, origin := range strings.Split(getenv("LISPY_ALLOW_ORIGINS", ""), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		}
	}
	return cfg, nil
}

func getenv(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func defaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".lisppy_history"
	}
	return filepath.Join(home, ".lisppy_history")
}
