package scanner

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"

	"KabuScout/internal/collector"
	"KabuScout/internal/model"
	"KabuScout/internal/strategy"
)

// DefaultWorkers bounds concurrent fetches when Workers is unset.
const DefaultWorkers = 10

// EarningsSource looks up the next earnings date of a ticker.
type EarningsSource interface {
	NextEarnings(ctx context.Context, t model.Ticker) (time.Time, error)
}

// ProgressFunc is called once per finished ticker. Calls are serialized.
type ProgressFunc func(done, total int, symbol string)

// Scanner runs one mode's analysis over a ticker list.
type Scanner struct {
	Collector *collector.Collector
	Earnings  EarningsSource // optional
	Guard     strategy.Guard
	Workers   int
	Now       func() time.Time
}

// New creates a Scanner.
func New(c *collector.Collector, earnings EarningsSource, guard strategy.Guard, workers int) *Scanner {
	s := &Scanner{Collector: c, Guard: guard, Workers: workers, Now: time.Now}
	// Avoid a typed-nil interface when the scraper is disabled.
	if es, ok := earnings.(*collector.EarningsScraper); !ok || es != nil {
		s.Earnings = earnings
	}
	return s
}

type outcome struct {
	analysis *model.Analysis
	skip     string
}

// Scan analyses every ticker with bounded concurrency and builds the report.
// Per-ticker failures are logged and recorded in Skipped; they never fail the
// scan. On cancellation the partial report is returned with ctx.Err().
func (s *Scanner) Scan(ctx context.Context, req model.ScanRequest, tickers []model.Ticker, progress ProgressFunc) (*model.ScanReport, error) {
	mode, err := model.ParseMode(string(req.Mode))
	if err != nil {
		return nil, err
	}
	p, err := strategy.ProfileFor(mode)
	if err != nil {
		return nil, err
	}
	engine := strategy.NewEngine(p, s.Guard)
	engine.Now = s.now

	start := s.now()
	report := &model.ScanReport{
		ID:        uuid.NewString(),
		Mode:      mode,
		StartedAt: start,
		Requested: len(tickers),
	}
	log.Info().Str("scan_id", report.ID).Str("mode", string(mode)).Int("tickers", len(tickers)).Msg("scan started")

	workers := s.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	results := make([]outcome, len(tickers))
	var (
		g    errgroup.Group
		mu   sync.Mutex
		done int
	)
	g.SetLimit(workers)
	for i, t := range tickers {
		if ctx.Err() != nil {
			results[i].skip = ctx.Err().Error()
			continue
		}
		g.Go(func() error {
			results[i] = s.analyse(ctx, engine, t, &req)
			if progress != nil {
				mu.Lock()
				done++
				progress(done, len(tickers), t.Symbol)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	for i, o := range results {
		switch {
		case o.analysis != nil:
			report.Results = append(report.Results, o.analysis)
		case o.skip != "":
			report.Skipped = append(report.Skipped, model.SkippedTicker{Symbol: tickers[i].Symbol, Reason: o.skip})
		}
	}
	split(report, p)
	report.Duration = s.now().Sub(start)

	log.Info().Str("scan_id", report.ID).
		Int("analysed", len(report.Results)).
		Int("buys", len(report.Buys)).
		Int("sells", len(report.Sells)).
		Int("skipped", len(report.Skipped)).
		Dur("took", report.Duration).
		Msg("scan finished")
	return report, ctx.Err()
}

func (s *Scanner) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// analyse returns either an analysis, a skip reason, or neither when the
// ticker was filtered out by price.
func (s *Scanner) analyse(ctx context.Context, engine *strategy.Engine, t model.Ticker, req *model.ScanRequest) outcome {
	if err := ctx.Err(); err != nil {
		return outcome{skip: err.Error()}
	}
	p := engine.Profile
	ind, pat, err := s.Collector.Collect(ctx, t.Symbol, p)
	if err != nil {
		log.Warn().Err(err).Str("symbol", t.Symbol).Msg("ticker skipped")
		return outcome{skip: err.Error()}
	}
	if !req.InRange(ind.CurrentPrice) {
		log.Debug().Str("symbol", t.Symbol).Float64("price", ind.CurrentPrice).Msg("outside price range")
		return outcome{}
	}

	a := engine.Evaluate(t, ind, pat, time.Time{})
	// Earnings dates are only looked up for tickers that reach a table.
	if s.Earnings != nil && (a.Score >= p.BuyList || a.Score <= p.SellList) {
		next, err := s.Earnings.NextEarnings(ctx, t)
		if err != nil {
			log.Debug().Err(err).Str("symbol", t.Symbol).Msg("no earnings date")
		} else {
			a = engine.Evaluate(t, ind, pat, next)
		}
	}
	return outcome{analysis: a}
}

// split sorts results by score and fills the buy and sell tables.
func split(report *model.ScanReport, p *strategy.Profile) {
	sort.SliceStable(report.Results, func(i, j int) bool {
		return report.Results[i].Score > report.Results[j].Score
	})
	for _, a := range report.Results {
		if a.Score >= p.BuyList && !a.Blocked {
			report.Buys = append(report.Buys, a)
		}
	}
	for i := len(report.Results) - 1; i >= 0; i-- {
		if a := report.Results[i]; a.Score <= p.SellList {
			report.Sells = append(report.Sells, a)
		}
	}
}

// Summary is a one-line description of a finished report.
func Summary(r *model.ScanReport) string {
	return fmt.Sprintf("%s: %d/%d analysed, %d buys, %d sells, %d skipped in %s",
		r.Mode, len(r.Results), r.Requested, len(r.Buys), len(r.Sells), len(r.Skipped),
		r.Duration.Round(time.Millisecond))
}
