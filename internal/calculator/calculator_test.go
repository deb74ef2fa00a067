package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/markcheno/go-talib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"KabuScout/internal/model"
)

func barsFromCloses(closes []float64) []model.OHLCV {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{
			Time:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

func wave(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1000 + 40*math.Sin(float64(i)/3) + 0.7*float64(i)
	}
	return out
}

func TestSMA_MatchesTalib(t *testing.T) {
	closes := wave(120)
	got, err := CalculateSMA(closes, 25)
	require.NoError(t, err)
	assert.InDelta(t, Last(talib.Sma(closes, 25)), got, 1e-9)

	_, err = CalculateSMA(closes[:10], 25)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestEMASeries_SeededWithFirstValue(t *testing.T) {
	got := EMASeries([]float64{1, 2, 3}, 3)
	assert.Equal(t, []float64{1, 1.5, 2.25}, got)
	assert.Nil(t, EMASeries(nil, 3))
}

func TestEMASeries_ConvergesToTalib(t *testing.T) {
	// talib seeds with an SMA; the seed difference decays away on a long series.
	closes := wave(400)
	assert.InDelta(t, Last(talib.Ema(closes, 12)), Last(EMASeries(closes, 12)), 1e-6)
}

func TestRSISeries_RollingMean(t *testing.T) {
	rsi, err := RSISeries([]float64{10, 11, 12, 11, 13}, 3)
	require.NoError(t, err)
	require.Len(t, rsi, 5)
	for i := 0; i < 3; i++ {
		assert.True(t, math.IsNaN(rsi[i]), "index %d should be undefined", i)
	}
	assert.InDelta(t, 66.6667, rsi[3], 1e-4) // gains 2/3, losses 1/3
	assert.InDelta(t, 75.0, rsi[4], 1e-9)    // gains 1, losses 1/3
}

func TestRSISeries_Extremes(t *testing.T) {
	up, err := RSISeries([]float64{1, 2, 3, 4, 5}, 3)
	require.NoError(t, err)
	assert.Equal(t, 100.0, Last(up))

	flat, err := RSISeries([]float64{5, 5, 5, 5}, 3)
	require.NoError(t, err)
	assert.Equal(t, 50.0, Last(flat))

	_, err = RSISeries([]float64{1, 2, 3}, 3)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestCalculateRSI_WilderMatchesTalib(t *testing.T) {
	closes := wave(150)
	got, err := CalculateRSI(barsFromCloses(closes), 14)
	require.NoError(t, err)
	assert.InDelta(t, Last(talib.Rsi(closes, 14)), got, 1e-6)

	short, err := CalculateRSI(barsFromCloses(closes[:10]), 14)
	require.NoError(t, err)
	assert.Equal(t, 50.0, short)
}

func TestMACD_CrossoverAtInflection(t *testing.T) {
	// 40 bars down, then 40 bars up: the only golden cross follows the bottom.
	closes := make([]float64, 80)
	for i := range closes {
		if i < 40 {
			closes[i] = 1000 - float64(i)
		} else {
			closes[i] = 961 + float64(i-39)
		}
	}
	res, err := CalculateMACD(closes, 12, 26, 9)
	require.NoError(t, err)

	for i := 1; i < 40; i++ {
		assert.Less(t, res.Histogram[i], 0.0, "histogram should stay negative in the decline (bar %d)", i)
	}

	var golden []int
	for i := 1; i < len(res.Histogram); i++ {
		if MACDCross(res.Histogram[i-1:i+1]) == 1 {
			golden = append(golden, i)
		}
	}
	require.Len(t, golden, 1)
	assert.Greater(t, golden[0], 40)
	assert.Less(t, golden[0], 50)
	assert.Equal(t, 1, MACDCross(res.Histogram[:golden[0]+1]))
}

func TestMACD_InvalidInput(t *testing.T) {
	_, err := CalculateMACD(wave(10), 12, 26, 9)
	assert.ErrorIs(t, err, ErrInsufficientData)
	_, err = CalculateMACD(wave(100), 26, 12, 9)
	assert.Error(t, err)
	assert.Equal(t, 0, MACDCross([]float64{1}))
}

func TestSupportResistance(t *testing.T) {
	bars := barsFromCloses([]float64{100, 120, 90, 110, 105})
	support, resistance, err := SupportResistance(bars, 3)
	require.NoError(t, err)
	assert.Equal(t, 89.0, support)
	assert.Equal(t, 111.0, resistance)

	_, _, err = SupportResistance(bars, 6)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestRangePosition(t *testing.T) {
	pos, err := RangePosition(150, 200, 100)
	require.NoError(t, err)
	assert.Equal(t, 0.5, pos)

	pos, _ = RangePosition(250, 200, 100)
	assert.Equal(t, 1.0, pos)
	pos, _ = RangePosition(50, 200, 100)
	assert.Equal(t, 0.0, pos)
	pos, _ = RangePosition(100, 100, 100)
	assert.Equal(t, 0.5, pos)

	_, err = RangePosition(100, 90, 110)
	assert.Error(t, err)
}

func TestVolumeRatio(t *testing.T) {
	bars := barsFromCloses([]float64{1, 2, 3, 4})
	bars[3].Volume = 3000
	ratio, avg, err := VolumeRatio(bars, 3)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, avg)
	assert.Equal(t, 3.0, ratio)

	_, _, err = VolumeRatio(bars, 4)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestHeikinAshi(t *testing.T) {
	bars := []model.OHLCV{
		{Open: 10, High: 12, Low: 9, Close: 11},
		{Open: 11, High: 14, Low: 10, Close: 13},
	}
	ha := HeikinAshi(bars)
	require.Len(t, ha, 2)
	assert.Equal(t, 10.5, ha[0].Open)
	assert.Equal(t, 10.5, ha[0].Close)
	assert.Equal(t, 12.0, ha[0].High)
	assert.Equal(t, 9.0, ha[0].Low)
	assert.Equal(t, 10.5, ha[1].Open)
	assert.Equal(t, 12.0, ha[1].Close)
	assert.True(t, ha[1].Bullish())
}

func TestHeikinAshiTrend(t *testing.T) {
	up := []model.HACandle{{Open: 5, Close: 4}, {Open: 1, Close: 2}, {Open: 2, Close: 3}, {Open: 3, Close: 4}}
	assert.Equal(t, 3, HeikinAshiTrend(up))

	down := []model.HACandle{{Open: 1, Close: 2}, {Open: 4, Close: 3}, {Open: 3, Close: 2}}
	assert.Equal(t, -2, HeikinAshiTrend(down))

	doji := []model.HACandle{{Open: 1, Close: 2}, {Open: 2, Close: 2}}
	assert.Equal(t, 0, HeikinAshiTrend(doji))
	assert.Equal(t, 0, HeikinAshiTrend(nil))
}
