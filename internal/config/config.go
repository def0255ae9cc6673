package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Addr        string   `env:"SWEEPER_ADDR"         envDefault:":8080"`
	BasePath    string   `env:"APP_BASE_PATH"`
	Development bool     `env:"DEVELOPMENT"`
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	Log       Log
	Database  Database
	Engine    Engine
	WebSocket WebSocket
}

type Log struct {
	Level      string `env:"LOG_LEVEL"        envDefault:"info"`
	File       string `env:"LOG_FILE"`
	MaxSizeMB  int    `env:"LOG_MAX_SIZE_MB"  envDefault:"100"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS"  envDefault:"3"`
	MaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"28"`
}

type Engine struct {
	TickInterval  time.Duration `env:"TICK_INTERVAL"  envDefault:"1s"`
	CommandBuffer int           `env:"COMMAND_BUFFER" envDefault:"64"`
	MaxWidth      int           `env:"MAX_WIDTH"      envDefault:"256"`
	MaxHeight     int           `env:"MAX_HEIGHT"     envDefault:"256"`
	MaxTables     int           `env:"MAX_TABLES"     envDefault:"1024"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) validate() error {
	if c.Engine.TickInterval < 0 {
		return fmt.Errorf("TICK_INTERVAL must not be negative, got %s", c.Engine.TickInterval)
	}
	if c.Engine.CommandBuffer < 0 {
		return fmt.Errorf("COMMAND_BUFFER must not be negative, got %d", c.Engine.CommandBuffer)
	}
	if c.Engine.MaxWidth < 1 || c.Engine.MaxHeight < 1 {
		return fmt.Errorf(
			"MAX_WIDTH and MAX_HEIGHT must be positive, got %dx%d",
			c.Engine.MaxWidth, c.Engine.MaxHeight,
		)
	}
	return nil
}
