package scheduler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/phuslu/log"
	"github.com/robfig/cron/v3"

	"KabuScout/internal/config"
	"KabuScout/internal/model"
	"KabuScout/internal/notifier"
	"KabuScout/internal/recorder"
	"KabuScout/internal/scanner"
	"KabuScout/internal/watchlist"
)

// ErrBusy is returned when a scan is requested while another is running.
var ErrBusy = errors.New("scan already running")

// Sender delivers formatted messages.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages cron-triggered scans and chat commands.
type Scheduler struct {
	Cron      *cron.Cron
	Scanner   *scanner.Scanner
	Watchlist *watchlist.Watchlist
	Universe  *watchlist.UniverseScraper // optional
	Notifier  Sender                     // optional
	Recorder  recorder.Recorder
	Defaults  model.ScanRequest // price range applied to scheduled scans
	Ctx       context.Context

	scanMu sync.Mutex
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, sc *scanner.Scanner, wl *watchlist.Watchlist, tn Sender, rec recorder.Recorder, defaults model.ScanRequest) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Scanner:   sc,
		Watchlist: wl,
		Notifier:  tn,
		Recorder:  rec,
		Defaults:  defaults,
		Ctx:       ctx,
	}
}

// RegisterAll registers one cron job per schedule entry.
func (s *Scheduler) RegisterAll(entries []config.Schedule) error {
	for _, e := range entries {
		mode, err := model.ParseMode(e.Mode)
		if err != nil {
			return fmt.Errorf("schedule %q: %w", e.Cron, err)
		}
		if _, err := s.Cron.AddFunc(e.Cron, func() { s.scheduledScan(mode) }); err != nil {
			return fmt.Errorf("register %s scan %q: %w", mode, e.Cron, err)
		}
		log.Info().Str("cron", e.Cron).Str("mode", string(mode)).Msg("scan scheduled")
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunNow executes a scheduled scan immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunNow(mode model.Mode) {
	s.scheduledScan(mode)
}

func (s *Scheduler) scheduledScan(mode model.Mode) {
	log.Info().Str("mode", string(mode)).Msg("running scheduled scan")
	report, err := s.Scan(s.Ctx, mode, nil)
	if err != nil {
		log.Error().Err(err).Str("mode", string(mode)).Msg("scheduled scan failed")
		if !errors.Is(err, ErrBusy) && s.Ctx.Err() == nil {
			s.trySend(fmt.Sprintf("❌ スキャン失敗: %s", html.EscapeString(err.Error())))
		}
		return
	}
	s.trySend(notifier.FormatScanReport(report, notifier.DefaultTableRows))
}

// universe picks the tickers for a scheduled scan.
func (s *Scheduler) universe(ctx context.Context) []model.Ticker {
	var tickers []model.Ticker
	if s.Universe != nil {
		tickers = s.Universe.Universe(ctx)
	} else if s.Watchlist != nil {
		tickers = s.Watchlist.All()
	}
	if len(tickers) == 0 {
		log.Warn().Msg("empty universe, using backup list")
		tickers = watchlist.Backup()
	}
	return tickers
}

// Scan runs one scan and records it. A nil ticker list scans the universe.
// Only one scan runs at a time.
func (s *Scheduler) Scan(ctx context.Context, mode model.Mode, tickers []model.Ticker) (*model.ScanReport, error) {
	if !s.scanMu.TryLock() {
		return nil, ErrBusy
	}
	defer s.scanMu.Unlock()

	if tickers == nil {
		tickers = s.universe(ctx)
	}
	req := s.Defaults
	req.Mode = mode
	report, err := s.Scanner.Scan(ctx, req, tickers, nil)
	if err != nil {
		return nil, err
	}
	if err := s.Recorder.RecordScan(report); err != nil {
		log.Error().Err(err).Str("scan_id", report.ID).Msg("record scan")
	}
	return report, nil
}

const helpText = `使い方:
/scan [value|swing|daytrade] - ウォッチリストをスキャン
/check 7203 6758 - 個別銘柄を分析
/sectors - セクター一覧
/history - 最近のスキャン
/help - このメッセージ`

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	name := strings.ToLower(fields[0])
	if i := strings.IndexByte(name, '@'); i > 0 {
		name = name[:i] // "/scan@SomeBot"
	}
	args := fields[1:]

	switch name {
	case "/scan":
		mode, err := modeArg(args)
		if err != nil {
			return "❌ " + html.EscapeString(err.Error())
		}
		report, err := s.Scan(ctx, mode, nil)
		if err != nil {
			return "❌ スキャン失敗: " + html.EscapeString(err.Error())
		}
		return notifier.FormatScanReport(report, notifier.DefaultTableRows)

	case "/check":
		return s.check(ctx, args)

	case "/sectors":
		var b strings.Builder
		b.WriteString("📂 <b>セクター</b>\n")
		for _, sec := range s.Watchlist.SectorTickers() {
			b.WriteString(fmt.Sprintf("• %s (%d)\n", html.EscapeString(sec.Name), len(sec.Tickers)))
		}
		return b.String()

	case "/history":
		scans, err := s.Recorder.RecentScans(5)
		if err != nil {
			return "❌ " + html.EscapeString(err.Error())
		}
		if len(scans) == 0 {
			return "履歴なし"
		}
		var b strings.Builder
		b.WriteString("🕘 <b>最近のスキャン</b>\n")
		for _, sc := range scans {
			b.WriteString(fmt.Sprintf("%s %s 買%d 売%d", sc.StartedAt.Format("01-02 15:04"), sc.Mode.Label(), sc.Buys, sc.Sells))
			if sc.TopSymbol != "" {
				b.WriteString(fmt.Sprintf(" 最高 %s (%.0f)", sc.TopSymbol, sc.TopScore))
			}
			b.WriteString("\n")
		}
		return b.String()

	default:
		return helpText
	}
}

// modeArg reads an optional mode argument.
func modeArg(args []string) (model.Mode, error) {
	if len(args) == 0 {
		return model.ModeValue, nil
	}
	return model.ParseMode(strings.ToLower(args[0]))
}

func (s *Scheduler) check(ctx context.Context, args []string) string {
	mode := model.ModeSwing
	if len(args) > 0 {
		if m, err := model.ParseMode(strings.ToLower(args[0])); err == nil {
			mode, args = m, args[1:]
		}
	}
	symbols := watchlist.ParseSymbols(strings.Join(args, " "))
	if len(symbols) == 0 {
		return "銘柄コードを指定してください (例: /check 7203)"
	}
	if len(symbols) > 10 {
		symbols = symbols[:10]
	}

	if !s.scanMu.TryLock() {
		return "❌ " + ErrBusy.Error()
	}
	defer s.scanMu.Unlock()

	req := model.ScanRequest{Mode: mode}
	report, err := s.Scanner.Scan(ctx, req, s.Watchlist.Resolve(symbols), nil)
	if err != nil {
		return "❌ " + html.EscapeString(err.Error())
	}

	parts := make([]string, 0, len(report.Results)+len(report.Skipped))
	for _, a := range report.Results {
		parts = append(parts, notifier.FormatAnalysis(a))
	}
	for _, sk := range report.Skipped {
		parts = append(parts, fmt.Sprintf("❌ %s: %s", sk.Symbol, html.EscapeString(sk.Reason)))
	}
	return strings.Join(parts, "\n")
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
