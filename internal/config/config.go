// Package config loads the bot configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds everything the bot reads from the environment. The timezone
// is only ever attached to the naive timestamps of a submission; converting
// to UTC across DST transitions is left to the downstream publisher.
type Config struct {
	DataDir      string `env:"CALBOT_DATA_DIR" env-default:"data"`
	CalendarFile string `env:"CALBOT_CALENDAR_FILE" env-default:"events.ics"`
	Timezone     string `env:"CALBOT_TIMEZONE" env-default:"Europe/Zurich"`
	LogLevel     string `env:"LOG_LEVEL" env-default:"info"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read config from environment: %w", err)
	}
	return &cfg, nil
}

// Location resolves the configured IANA timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
