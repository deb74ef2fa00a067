package recorder

import (
	"time"

	"KabuScout/internal/model"
)

// ScanSummary is one row of scan history.
type ScanSummary struct {
	ID        string        `json:"id"`
	Mode      model.Mode    `json:"mode"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Requested int           `json:"requested"`
	Analysed  int           `json:"analysed"`
	Buys      int           `json:"buys"`
	Sells     int           `json:"sells"`
	TopSymbol string        `json:"top_symbol,omitempty"`
	TopScore  float64       `json:"top_score,omitempty"`
}

// Recorder persists scan history for later review.
type Recorder interface {
	RecordScan(report *model.ScanReport) error
	RecentScans(limit int) ([]ScanSummary, error)
	Close() error
}
