package collector

import (
	"context"

	"KabuScout/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchBars returns bars in chronological order for the provider range
	// (e.g. "6mo") and interval (e.g. "1d", "5m").
	FetchBars(ctx context.Context, symbol, period, interval string) ([]model.OHLCV, error)
	Name() string
}
