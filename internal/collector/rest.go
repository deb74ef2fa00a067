package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"KabuScout/internal/model"
)

// RESTFetcher implements Fetcher against a self-hosted bar API:
// GET {base}/api/v1/bars?symbol=&interval=&limit=
type RESTFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string, timeout time.Duration) *RESTFetcher {
	return &RESTFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL, timeout),
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape from the bar API.
type restBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// periodBars converts a provider range to an approximate bar count.
func periodBars(period, interval string) int {
	days := map[string]int{"1d": 1, "5d": 5, "1mo": 22, "3mo": 66, "6mo": 130, "1y": 260, "2y": 520}[period]
	if days == 0 {
		days = 130
	}
	switch interval {
	case "1wk":
		return days/5 + 1
	case "5m":
		return days * 60 // 5 hours of trading per session
	case "15m":
		return days * 20
	case "1h", "60m":
		return days * 5
	}
	return days
}

func (f *RESTFetcher) FetchBars(ctx context.Context, symbol, period, interval string) ([]model.OHLCV, error) {
	bars, err := f.fetch(ctx, symbol, interval, periodBars(period, interval))
	if err != nil && interval == "1wk" {
		// The API may only serve daily bars; aggregate them.
		daily, dailyErr := f.fetch(ctx, symbol, "1d", periodBars(period, "1d"))
		if dailyErr != nil {
			return nil, fmt.Errorf("weekly fetch failed: %w; daily fallback also failed: %w", err, dailyErr)
		}
		return AggregateWeekly(daily), nil
	}
	return bars, err
}

func (f *RESTFetcher) fetch(ctx context.Context, symbol, interval string, limit int) ([]model.OHLCV, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("limit", strconv.Itoa(limit))
	endpoint := f.BaseURL + "/api/v1/bars?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch bars: status %d, body: %s", resp.StatusCode, string(body))
	}
	var raw []restBar
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode bars: %w", err)
	}
	bars := make([]model.OHLCV, len(raw))
	for i, rb := range raw {
		bars[i] = model.OHLCV{
			Time:   time.Unix(rb.Timestamp, 0),
			Open:   rb.Open,
			High:   rb.High,
			Low:    rb.Low,
			Close:  rb.Close,
			Volume: rb.Volume,
		}
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// AggregateWeekly converts daily bars into ISO-week bars.
func AggregateWeekly(daily []model.OHLCV) []model.OHLCV {
	var weekly []model.OHLCV
	var week model.OHLCV
	weekKey := -1

	for _, d := range daily {
		year, isoWeek := d.Time.ISOWeek()
		key := year*100 + isoWeek
		if key != weekKey {
			if weekKey >= 0 {
				weekly = append(weekly, week)
			}
			week = d
			weekKey = key
			continue
		}
		if d.High > week.High {
			week.High = d.High
		}
		if d.Low < week.Low {
			week.Low = d.Low
		}
		week.Close = d.Close
		week.Volume += d.Volume
	}
	if weekKey >= 0 {
		weekly = append(weekly, week)
	}
	return weekly
}
