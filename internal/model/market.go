package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Ticker is a static watchlist entry.
type Ticker struct {
	Symbol string `json:"symbol" yaml:"symbol"`
	Name   string `json:"name" yaml:"name"`
	Sector string `json:"sector,omitempty" yaml:"-"`
}

// Code returns the exchange code without the market suffix ("7203.T" -> "7203").
func (t Ticker) Code() string {
	for i := len(t.Symbol) - 1; i >= 0; i-- {
		if t.Symbol[i] == '.' {
			return t.Symbol[:i]
		}
	}
	return t.Symbol
}

// DisplayName falls back to the code when no name is known.
func (t Ticker) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Code()
}
