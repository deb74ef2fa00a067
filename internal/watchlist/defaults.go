package watchlist

import (
	"KabuScout/internal/config"
	"KabuScout/internal/model"
)

var backup = []model.Ticker{
	{Symbol: "7203.T", Name: "トヨタ"},
	{Symbol: "8306.T", Name: "三菱UFJ"},
	{Symbol: "8058.T", Name: "三菱商事"},
	{Symbol: "9432.T", Name: "NTT"},
	{Symbol: "8316.T", Name: "三井住友"},
	{Symbol: "8001.T", Name: "伊藤忠"},
	{Symbol: "5401.T", Name: "日本製鉄"},
	{Symbol: "9433.T", Name: "KDDI"},
	{Symbol: "8801.T", Name: "三井不動産"},
	{Symbol: "7267.T", Name: "ホンダ"},
}

// DefaultSectors is the watchlist used when the configuration has none.
var DefaultSectors = []config.Sector{{Name: "主要銘柄", Tickers: backup}}

// Backup returns a short list of liquid large caps used when the watchlist
// or the universe scrape yields nothing.
func Backup() []model.Ticker {
	out := make([]model.Ticker, len(backup))
	copy(out, backup)
	return out
}
