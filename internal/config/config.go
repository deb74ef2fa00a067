package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"KabuScout/internal/model"
)

// Sector is a named group of tickers in the watchlist.
type Sector struct {
	Name    string         `yaml:"name" validate:"required"`
	Tickers []model.Ticker `yaml:"tickers" validate:"dive"`
}

// Schedule is one cron-triggered scan.
type Schedule struct {
	Cron string `yaml:"cron" validate:"required"`
	Mode string `yaml:"mode" validate:"omitempty,oneof=value swing daytrade"`
}

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider string        `yaml:"provider" validate:"oneof=yahoo rest mock"`
		BaseURL  string        `yaml:"base_url" validate:"required_if=Provider rest"`
		APIKey   string        `yaml:"api_key"`
		Timeout  time.Duration `yaml:"timeout" validate:"gte=0"`
		Rate     float64       `yaml:"rate" validate:"gte=0"` // requests per second, 0 = unlimited
	} `yaml:"data_source"`
	Scan struct {
		Workers   int     `yaml:"workers" validate:"gte=1,lte=64"`
		Mode      string  `yaml:"mode" validate:"oneof=value swing daytrade"`
		MinPrice  float64 `yaml:"min_price" validate:"gte=0"`
		MaxPrice  float64 `yaml:"max_price" validate:"omitempty,gte=0,gtefield=MinPrice"`
		MinVolume float64 `yaml:"min_volume" validate:"gte=0"`
	} `yaml:"scan"`
	Earnings struct {
		URLTemplate string  `yaml:"url_template"`
		Selector    string  `yaml:"selector"`
		Pattern     string  `yaml:"pattern"`
		GuardDays   *int    `yaml:"guard_days" validate:"omitempty,gte=0"` // nil = default, 0 disables
		Rate        float64 `yaml:"rate" validate:"gte=0"`
	} `yaml:"earnings"`
	Universe struct {
		URL      string `yaml:"url"`
		Selector string `yaml:"selector"`
		Limit    int    `yaml:"limit" validate:"gte=0"`
	} `yaml:"universe"`
	Watchlist []Sector   `yaml:"watchlist" validate:"dive"`
	Schedule  []Schedule `yaml:"schedule" validate:"dive"`
	Database  struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level" validate:"oneof=trace debug info warn error"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads .env when present, then config from a YAML file, then applies
// environment variable overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("SCOUT_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SCAN_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("SCAN_WORKERS: %w", err)
		}
		cfg.Scan.Workers = n
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
	}
	if c.DataSource.Timeout == 0 {
		c.DataSource.Timeout = 10 * time.Second
	}
	if c.Scan.Workers == 0 {
		c.Scan.Workers = 10
	}
	if c.Scan.Mode == "" {
		c.Scan.Mode = string(model.ModeValue)
	}
	if c.Earnings.GuardDays == nil {
		days := 3
		c.Earnings.GuardDays = &days
	}
	if c.Universe.Limit == 0 {
		c.Universe.Limit = 50
	}
	if len(c.Schedule) == 0 {
		c.Schedule = []Schedule{{Cron: "0 30 15 * * 1-5", Mode: string(model.ModeValue)}}
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/kabuscout.db"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks field constraints declared in the struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// TelegramEnabled reports whether both bot token and chat id are set.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
