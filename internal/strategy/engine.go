package strategy

import (
	"fmt"
	"math"
	"time"

	"KabuScout/internal/model"
)

// Guard holds the safety filters applied after scoring.
type Guard struct {
	EarningsDays int     // withhold buys this many days before earnings; 0 disables
	MinVolume    float64 // withhold buys below this average volume; 0 disables
}

// Engine scores indicator snapshots with one profile.
type Engine struct {
	Profile *Profile
	Guard   Guard
	Now     func() time.Time
}

// NewEngine creates an Engine for the given profile.
func NewEngine(p *Profile, g Guard) *Engine {
	return &Engine{Profile: p, Guard: g, Now: time.Now}
}

// mapJudgement maps a score to a discrete judgement using the profile thresholds.
func mapJudgement(score float64, p *Profile) model.Judgement {
	switch {
	case score >= p.StrongBuy:
		return model.StrongBuy
	case score >= p.Buy:
		return model.Buy
	case score <= p.StrongSell:
		return model.StrongSell
	case score <= p.Sell:
		return model.Sell
	}
	return model.Watch
}

// Evaluate computes the score and judgement for one ticker.
func (e *Engine) Evaluate(t model.Ticker, ind *model.Indicators, pat *model.Pattern, nextEarnings time.Time) *model.Analysis {
	p := e.Profile
	a := &model.Analysis{
		Ticker:       t,
		Mode:         p.Mode,
		Indicators:   *ind,
		Pattern:      pat,
		Score:        p.Base,
		NextEarnings: nextEarnings,
		LotCost:      ind.CurrentPrice * 100,
	}

	for _, f := range p.Factors {
		if fs := f(ind, pat); fs != nil {
			a.Factors = append(a.Factors, *fs)
			a.Score += fs.Points
		}
	}
	a.Judgement = mapJudgement(a.Score, p)

	if a.Judgement.IsBuy() {
		e.applyGuard(a)
	}

	if ind.RSI > 85 {
		a.Warnings = append(a.Warnings, "⚠️ RSI > 85 利益確定を検討")
	}
	if ind.WeeklyRSI > 80 {
		a.Warnings = append(a.Warnings, fmt.Sprintf("⚠️ 週足RSI %.0f 高値圏", ind.WeeklyRSI))
	}
	return a
}

func (e *Engine) applyGuard(a *model.Analysis) {
	ind := &a.Indicators

	if e.Guard.EarningsDays > 0 && !a.NextEarnings.IsZero() {
		days := calendarDays(e.Now(), a.NextEarnings)
		if days >= 0 && days <= e.Guard.EarningsDays {
			a.Warnings = append(a.Warnings, fmt.Sprintf("決算発表が近い (%s)", a.NextEarnings.Format("2006-01-02")))
			a.Blocked = true
		}
	}

	if e.Guard.MinVolume > 0 && ind.VolumeSampled && ind.AvgVolume < e.Guard.MinVolume {
		a.Warnings = append(a.Warnings, fmt.Sprintf("出来高不足 (平均%.0f)", ind.AvgVolume))
		a.Blocked = true
	}

	// Price pinned to the window low while Heikin-Ashi keeps printing red.
	if ind.Support > 0 && ind.CurrentPrice <= ind.Support*1.005 && ind.HATrend <= -3 {
		a.Warnings = append(a.Warnings, "下落継続中 (安値更新)")
		a.Blocked = true
	}

	if a.Blocked {
		a.Judgement = model.Watch
	}
}

// calendarDays counts calendar days from now to target in target's location.
func calendarDays(now, target time.Time) int {
	loc := target.Location()
	now = now.In(loc)
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	to := time.Date(target.Year(), target.Month(), target.Day(), 0, 0, 0, 0, loc)
	return int(math.Round(to.Sub(from).Hours() / 24))
}
