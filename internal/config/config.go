// Package config reads the bot settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// DefaultAdminID is the administrator allowed to run /stats and /push
// when ADMIN_ID is not set.
const DefaultAdminID int64 = 7998228068

// ErrMissingToken is returned when neither BOT_TOKEN nor TELEGRAM_BOT_TOKEN is set.
var ErrMissingToken = errors.New("BOT_TOKEN environment variable is not set")

type Config struct {
	Token          string
	AdminID        int64
	DBPath         string
	LogFile        string
	SlidePhoto     string
	BroadcastDelay time.Duration
	ExportDir      string
}

// Load builds a Config from process environment variables.
func Load() (*Config, error) {
	return load(os.LookupEnv)
}

func load(lookup func(string) (string, bool)) (*Config, error) {
	getenv := func(key, def string) string {
		if v, ok := lookup(key); ok {
			return v
		}
		return def
	}

	cfg := &Config{
		Token:      getenv("BOT_TOKEN", ""),
		AdminID:    DefaultAdminID,
		DBPath:     getenv("DB_PATH", "users.db"),
		LogFile:    getenv("LOG_FILE", "bot.log"),
		SlidePhoto: getenv("SLIDE_PHOTO", "photos/foto.jpg"),
		ExportDir:  getenv("EXPORT_DIR", "."),
	}

	if cfg.Token == "" {
		cfg.Token = getenv("TELEGRAM_BOT_TOKEN", "")
	}
	if cfg.Token == "" {
		return nil, ErrMissingToken
	}

	if raw := getenv("ADMIN_ID", ""); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_ID %q: %w", raw, err)
		}
		cfg.AdminID = id
	}

	delay, err := time.ParseDuration(getenv("BROADCAST_DELAY", "50ms"))
	if err != nil {
		return nil, fmt.Errorf("invalid BROADCAST_DELAY: %w", err)
	}
	if delay < 0 {
		return nil, fmt.Errorf("invalid BROADCAST_DELAY: negative duration %s", delay)
	}
	cfg.BroadcastDelay = delay

	return cfg, nil
}
