package model

// HACandle is a single Heikin-Ashi candle.
type HACandle struct {
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// Bullish reports whether the candle closed above its open.
func (c HACandle) Bullish() bool { return c.Close > c.Open }

// Indicators holds all computed technical indicators for one ticker.
type Indicators struct {
	CurrentPrice float64 `json:"current_price"`
	PrevClose    float64 `json:"prev_close"`
	Bars         int     `json:"bars"`

	RSI       float64 `json:"rsi"`
	PrevRSI   float64 `json:"prev_rsi"`
	WeeklyRSI float64 `json:"weekly_rsi,omitempty"` // daily profiles only, 0 when unknown

	MACD         float64 `json:"macd"`
	MACDSignal   float64 `json:"macd_signal"`
	MACDHist     float64 `json:"macd_hist"`
	PrevMACDHist float64 `json:"prev_macd_hist"`
	MACDCross    int     `json:"macd_cross"` // +1 golden, -1 dead, 0 none

	MAShort float64 `json:"ma_short"`
	MAMid   float64 `json:"ma_mid"`
	MALong  float64 `json:"ma_long"` // 0 when history is too short

	Support    float64 `json:"support"`
	Resistance float64 `json:"resistance"`
	Position   float64 `json:"position"` // 0.0 ~ 1.0 within support/resistance

	HATrend int      `json:"ha_trend"` // signed streak of same-colour HA candles
	HALast  HACandle `json:"ha_last"`

	AvgVolume     float64 `json:"avg_volume"`
	VolumeRatio   float64 `json:"volume_ratio"`
	VolumeSampled bool    `json:"volume_sampled"` // AvgVolume covers a full window
}

// HistChange is the one-bar change of the MACD histogram.
func (i *Indicators) HistChange() float64 {
	return i.MACDHist - i.PrevMACDHist
}
