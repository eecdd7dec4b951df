package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the service.
type Config struct {
	DatabaseURL         string        `env:"DATABASE_URL" envDefault:"loginreg.db"`
	HTTPAddr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	TelegramToken       string        `env:"TELEGRAM_TOKEN"`
	ReportIntervalHours int           `env:"REPORT_INTERVAL_HOURS" envDefault:"24"`
	LogLevel            string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat           string        `env:"LOG_FORMAT" envDefault:"text"`
	ShutdownTimeout     time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// ReportInterval returns how often the registration report runs. Zero disables it.
func (c Config) ReportInterval() time.Duration {
	if c.ReportIntervalHours <= 0 {
		return 0
	}
	return time.Duration(c.ReportIntervalHours) * time.Hour
}

// BotEnabled reports whether a Telegram token was supplied.
func (c Config) BotEnabled() bool {
	return c.TelegramToken != ""
}

// Load reads an optional .env file and then the process environment.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}
