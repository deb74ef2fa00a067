package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
data_source:
  provider: rest
  base_url: http://localhost:9000
  timeout: 5s
scan:
  workers: 4
  mode: swing
  min_price: 500
  max_price: 3000
earnings:
  url_template: https://example.com/quote/{code}
  guard_days: 5
watchlist:
  - name: 自動車
    tickers:
      - symbol: 7203.T
        name: トヨタ自動車
      - symbol: 7267.T
        name: ホンダ
  - name: 銀行
    tickers:
      - symbol: 8306.T
        name: 三菱UFJ
schedule:
  - cron: "0 0 9 * * 1-5"
    mode: daytrade
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("SCAN_WORKERS", "")
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "rest", cfg.DataSource.Provider)
	assert.Equal(t, 5*time.Second, cfg.DataSource.Timeout)
	assert.Equal(t, 4, cfg.Scan.Workers)
	assert.Equal(t, "swing", cfg.Scan.Mode)
	assert.Equal(t, 5, *cfg.Earnings.GuardDays)
	require.Len(t, cfg.Watchlist, 2)
	assert.Equal(t, "7203.T", cfg.Watchlist[0].Tickers[0].Symbol)
	assert.Equal(t, "トヨタ自動車", cfg.Watchlist[0].Tickers[0].Name)
	require.Len(t, cfg.Schedule, 1)
	assert.Equal(t, "daytrade", cfg.Schedule[0].Mode)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "data/kabuscout.db", cfg.Database.SQLitePath)
	assert.False(t, cfg.TelegramEnabled())
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("SCAN_WORKERS", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "yahoo", cfg.DataSource.Provider)
	assert.Equal(t, 10, cfg.Scan.Workers)
	assert.Equal(t, "value", cfg.Scan.Mode)
	assert.Len(t, cfg.Schedule, 1)
	assert.Equal(t, 3, *cfg.Earnings.GuardDays)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_GuardDaysZeroDisables(t *testing.T) {
	t.Setenv("SCAN_WORKERS", "")
	cfg, err := Load(writeConfig(t, "earnings:\n  guard_days: 0\n"))
	require.NoError(t, err)
	require.NotNil(t, cfg.Earnings.GuardDays)
	assert.Equal(t, 0, *cfg.Earnings.GuardDays)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	t.Setenv("SCAN_WORKERS", "16")
	t.Setenv("SCOUT_ADDR", "127.0.0.1:9999")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DATA_BASE_URL", "http://bars.internal")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Scan.Workers)
	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "http://bars.internal", cfg.DataSource.BaseURL)
	assert.True(t, cfg.TelegramEnabled())

	t.Setenv("SCAN_WORKERS", "many")
	_, err = Load(writeConfig(t, sampleYAML))
	assert.Error(t, err)
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name string
		mut  func(c *Config)
	}{
		{"bad mode", func(c *Config) { c.Scan.Mode = "scalp" }},
		{"too many workers", func(c *Config) { c.Scan.Workers = 1000 }},
		{"max below min", func(c *Config) { c.Scan.MinPrice, c.Scan.MaxPrice = 2000, 1000 }},
		{"rest without url", func(c *Config) { c.DataSource.Provider, c.DataSource.BaseURL = "rest", "" }},
		{"unnamed sector", func(c *Config) { c.Watchlist = []Sector{{Name: ""}} }},
		{"bad schedule mode", func(c *Config) { c.Schedule = []Schedule{{Cron: "* * * * * *", Mode: "x"}} }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
		{"negative guard days", func(c *Config) { n := -1; c.Earnings.GuardDays = &n }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.applyDefaults()
			require.NoError(t, cfg.Validate())
			tt.mut(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_OpenUpperBound(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.Scan.MinPrice = 1500
	assert.NoError(t, cfg.Validate(), "max_price 0 means no upper bound")
}
