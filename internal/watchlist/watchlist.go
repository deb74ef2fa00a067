package watchlist

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/width"

	"KabuScout/internal/config"
	"KabuScout/internal/model"
)

// Watchlist is the sector-grouped ticker universe.
type Watchlist struct {
	sectors []config.Sector
	index   map[string]model.Ticker
}

// New builds a watchlist from configured sectors, falling back to
// DefaultSectors when none are configured.
func New(sectors []config.Sector) *Watchlist {
	if len(sectors) == 0 {
		sectors = DefaultSectors
	}
	w := &Watchlist{index: make(map[string]model.Ticker)}
	for _, s := range sectors {
		sec := config.Sector{Name: s.Name, Tickers: make([]model.Ticker, 0, len(s.Tickers))}
		for _, t := range s.Tickers {
			t.Symbol = NormalizeSymbol(t.Symbol)
			if t.Symbol == "" {
				continue
			}
			t.Sector = s.Name
			sec.Tickers = append(sec.Tickers, t)
			if _, dup := w.index[t.Symbol]; !dup {
				w.index[t.Symbol] = t
			}
		}
		w.sectors = append(w.sectors, sec)
	}
	return w
}

// Sectors returns the sector names in configuration order.
func (w *Watchlist) Sectors() []string {
	names := make([]string, len(w.sectors))
	for i, s := range w.sectors {
		names[i] = s.Name
	}
	return names
}

// SectorTickers returns sector name to tickers, for display.
func (w *Watchlist) SectorTickers() []config.Sector {
	return w.sectors
}

// All returns every ticker once, in configuration order.
func (w *Watchlist) All() []model.Ticker {
	return w.Select(nil)
}

// Select returns the tickers of the named sectors. No names selects all.
// Unknown names are ignored.
func (w *Watchlist) Select(names []string) []model.Ticker {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	seen := make(map[string]bool)
	var out []model.Ticker
	for _, s := range w.sectors {
		if len(want) > 0 && !want[s.Name] {
			continue
		}
		for _, t := range s.Tickers {
			if seen[t.Symbol] {
				continue
			}
			seen[t.Symbol] = true
			out = append(out, t)
		}
	}
	return out
}

// Lookup finds a ticker by symbol or bare code.
func (w *Watchlist) Lookup(symbol string) (model.Ticker, bool) {
	t, ok := w.index[NormalizeSymbol(symbol)]
	return t, ok
}

// Resolve maps symbols to tickers, using watchlist names where known.
func (w *Watchlist) Resolve(symbols []string) []model.Ticker {
	out := make([]model.Ticker, 0, len(symbols))
	for _, s := range symbols {
		if t, ok := w.Lookup(s); ok {
			out = append(out, t)
			continue
		}
		out = append(out, model.Ticker{Symbol: NormalizeSymbol(s)})
	}
	return out
}

var tseCode = regexp.MustCompile(`^[0-9][0-9A-Z]{3}$`)

// NormalizeSymbol upper-cases a symbol, narrows full-width characters and
// appends ".T" to bare exchange codes.
func NormalizeSymbol(s string) string {
	s = strings.ToUpper(strings.TrimSpace(width.Narrow.String(s)))
	if tseCode.MatchString(s) {
		return s + ".T"
	}
	return s
}

func isSeparator(r rune) bool {
	switch r {
	case ',', ';', '、', '､', '/', '|':
		return true
	}
	return unicode.IsSpace(r)
}

// ParseSymbols splits free text into normalized symbols, dropping
// duplicates while keeping first-seen order.
func ParseSymbols(text string) []string {
	fields := strings.FieldsFunc(width.Narrow.String(text), isSeparator)
	seen := make(map[string]bool, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		s := NormalizeSymbol(f)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
