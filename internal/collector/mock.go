package collector

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"KabuScout/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Count int                      // bars generated when Bars has no entry
	Bars  map[string][]model.OHLCV // per-symbol fixtures
	Errs  map[string]error         // per-symbol failures
	Delay time.Duration

	inFlight    atomic.Int32
	MaxInFlight atomic.Int32
	Calls       atomic.Int32
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(ctx context.Context, symbol, _, _ string) ([]model.OHLCV, error) {
	m.Calls.Add(1)
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		peak := m.MaxInFlight.Load()
		if n <= peak || m.MaxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}

	if m.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.Delay):
		}
	}
	if err, ok := m.Errs[symbol]; ok {
		return nil, err
	}
	if bars, ok := m.Bars[symbol]; ok {
		return bars, nil
	}
	if m.Price <= 0 {
		return nil, fmt.Errorf("mock: no data for %s", symbol)
	}
	count := m.Count
	if count == 0 {
		count = 120
	}
	return GenerateMockBars(m.Price, count), nil
}

// GenerateMockBars builds a gently oscillating daily series ending at basePrice.
func GenerateMockBars(basePrice float64, count int) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	end := time.Now().Truncate(24 * time.Hour)
	for i := 0; i < count; i++ {
		k := float64(count - 1 - i)
		p := basePrice * (1 + 0.03*math.Sin(k/5) + 0.0005*k)
		bars[i] = model.OHLCV{
			Time:   end.AddDate(0, 0, -(count - 1 - i)),
			Open:   p * 0.998,
			High:   p * 1.006,
			Low:    p * 0.993,
			Close:  p,
			Volume: 1000000,
		}
	}
	bars[count-1].Close = basePrice
	return bars
}
