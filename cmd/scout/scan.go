package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"KabuScout/internal/config"
	"KabuScout/internal/model"
	"KabuScout/internal/recorder"
	"KabuScout/internal/scanner"
	"KabuScout/internal/watchlist"
)

var scanFlags struct {
	mode     string
	min, max float64
	tickers  string
	sectors  []string
	universe bool
	asJSON   bool
	top      int
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one scan and print the buy and sell tables",
	Example: `  scout scan --mode swing --min 500 --max 3000
  scout scan --tickers "7203 6758 8306" --json
  scout scan --sectors 銀行・金融`,
	RunE: runScan,
}

func init() {
	f := scanCmd.Flags()
	f.StringVarP(&scanFlags.mode, "mode", "m", "", "value, swing or daytrade (default from config)")
	f.Float64Var(&scanFlags.min, "min", -1, "minimum price in yen (default from config)")
	f.Float64Var(&scanFlags.max, "max", -1, "maximum price in yen, 0 for no limit (default from config)")
	f.StringVarP(&scanFlags.tickers, "tickers", "t", "", "free-text ticker list, overrides sectors")
	f.StringSliceVarP(&scanFlags.sectors, "sectors", "s", nil, "watchlist sectors to scan")
	f.BoolVar(&scanFlags.universe, "universe", false, "scan the scraped universe instead of the watchlist")
	f.BoolVar(&scanFlags.asJSON, "json", false, "print the report as JSON")
	f.IntVar(&scanFlags.top, "top", 20, "rows per table")
}

func runScan(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	req := defaultRequest(cfg)
	if scanFlags.mode != "" {
		req.Mode = model.Mode(scanFlags.mode)
	}
	if scanFlags.min >= 0 {
		req.MinPrice = scanFlags.min
	}
	if scanFlags.max >= 0 {
		req.MaxPrice = scanFlags.max
	}
	if req.MaxPrice > 0 && req.MinPrice > req.MaxPrice {
		return fmt.Errorf("--min %.0f is above --max %.0f", req.MinPrice, req.MaxPrice)
	}

	tickers, err := selectTickers(ctx, cfg, scanFlags.tickers, scanFlags.sectors, scanFlags.universe)
	if err != nil {
		return err
	}

	sc, err := newScanner(cfg)
	if err != nil {
		return err
	}
	rec := recorder.Open(cfg.Database.SQLitePath)
	defer rec.Close()

	stderr := cmd.ErrOrStderr()
	progress := func(done, total int, symbol string) {
		fmt.Fprintf(stderr, "\r分析中 %d/%d %-10s", done, total, symbol)
	}
	report, err := sc.Scan(ctx, req, tickers, progress)
	fmt.Fprintln(stderr)
	if err != nil {
		return err
	}
	if err := rec.RecordScan(report); err != nil {
		fmt.Fprintf(stderr, "record scan: %v\n", err)
	}

	out := cmd.OutOrStdout()
	if scanFlags.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printReport(out, report, scanFlags.top)
	return nil
}

func printReport(out io.Writer, r *model.ScanReport, top int) {
	fmt.Fprintf(out, "KabuScout %s  %s\n", r.Mode.Label(), r.StartedAt.Format("2006-01-02 15:04"))
	fmt.Fprintln(out, scanner.Summary(r))

	fmt.Fprintln(out, "\n買い候補")
	printTable(out, r.Buys, top)
	fmt.Fprintln(out, "\n売り候補")
	printTable(out, r.Sells, top)

	if len(r.Skipped) > 0 {
		fmt.Fprintln(out, "\n取得失敗")
		for _, s := range r.Skipped {
			fmt.Fprintf(out, "  %s: %s\n", s.Symbol, s.Reason)
		}
	}
}

func printTable(out io.Writer, rows []*model.Analysis, top int) {
	if len(rows) == 0 {
		fmt.Fprintln(out, "  該当なし")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "コード\t株価\tRSI\tMACD\tスコア\t判定\t100株\t銘柄\t")
	for i, a := range rows {
		if top > 0 && i == top {
			break
		}
		ind := a.Indicators
		var notes []string
		if a.Pattern != nil {
			notes = append(notes, a.Pattern.Label)
		}
		notes = append(notes, a.Warnings...)
		name := a.Ticker.DisplayName()
		if len(notes) > 0 {
			name += "  " + strings.Join(notes, " / ")
		}
		fmt.Fprintf(tw, "%s\t%s\t%.1f\t%.2f\t%.0f\t%s\t%s\t%s\t\n",
			a.Ticker.Code(),
			humanize.Comma(int64(ind.CurrentPrice+0.5)),
			ind.RSI, ind.MACDHist, a.Score, a.Judgement.Label(),
			humanize.Comma(int64(a.LotCost+0.5)),
			name)
	}
	tw.Flush()
}

// selectTickers resolves the scan targets from the command line flags.
func selectTickers(ctx context.Context, cfg *config.Config, symbols string, sectors []string, universe bool) ([]model.Ticker, error) {
	wl := watchlist.New(cfg.Watchlist)
	var tickers []model.Ticker
	switch {
	case symbols != "":
		tickers = wl.Resolve(watchlist.ParseSymbols(symbols))
	case universe:
		if cfg.Universe.URL == "" {
			return nil, errors.New("--universe needs universe.url in the config")
		}
		u := watchlist.NewUniverseScraper(cfg.Universe.URL, cfg.Universe.Selector, cfg.Universe.Limit, cfg.Proxy)
		tickers = u.Universe(ctx)
	default:
		tickers = wl.Select(sectors)
	}
	if len(tickers) == 0 {
		return nil, errors.New("no tickers selected")
	}
	return tickers, nil
}
