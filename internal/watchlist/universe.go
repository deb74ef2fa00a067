package watchlist

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/phuslu/log"

	"KabuScout/internal/model"
)

var codeInText = regexp.MustCompile(`\b([0-9][0-9A-Z]{3})\b`)

// UniverseScraper collects ticker codes from a ranking page.
type UniverseScraper struct {
	URL      string
	Selector string // anchors or rows holding one ticker each
	Limit    int
	Client   *http.Client
}

// NewUniverseScraper returns nil when pageURL is empty.
func NewUniverseScraper(pageURL, selector string, limit int, proxyURL string) *UniverseScraper {
	if pageURL == "" {
		return nil
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if selector == "" {
		selector = "a"
	}
	return &UniverseScraper{
		URL:      pageURL,
		Selector: selector,
		Limit:    limit,
		Client:   &http.Client{Timeout: 15 * time.Second, Transport: transport},
	}
}

// Fetch scrapes the page and returns the tickers found, in page order.
func (u *UniverseScraper) Fetch(ctx context.Context) ([]model.Ticker, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	resp, err := u.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("universe fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("universe fetch: status %d", resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("universe parse: %w", err)
	}

	seen := make(map[string]bool)
	var out []model.Ticker
	doc.Find(u.Selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		code := codeFrom(s)
		if code == "" {
			return true
		}
		t := model.Ticker{Symbol: NormalizeSymbol(code), Name: nameFrom(s.Text(), code)}
		if !seen[t.Symbol] {
			seen[t.Symbol] = true
			out = append(out, t)
		}
		return u.Limit <= 0 || len(out) < u.Limit
	})
	if len(out) == 0 {
		return nil, fmt.Errorf("universe parse: no codes matched %q", u.Selector)
	}
	return out, nil
}

func codeFrom(s *goquery.Selection) string {
	if href, ok := s.Attr("href"); ok {
		if u, err := url.Parse(href); err == nil {
			if c := u.Query().Get("code"); tseCode.MatchString(strings.ToUpper(c)) {
				return c
			}
		}
		if m := codeInText.FindStringSubmatch(href); m != nil {
			return m[1]
		}
	}
	if m := codeInText.FindStringSubmatch(s.Text()); m != nil {
		return m[1]
	}
	return ""
}

func nameFrom(text, code string) string {
	name := strings.TrimSpace(strings.Replace(text, code, "", 1))
	return strings.Join(strings.Fields(name), " ")
}

// Universe returns the scraped tickers, or Backup on any failure.
func (u *UniverseScraper) Universe(ctx context.Context) []model.Ticker {
	tickers, err := u.Fetch(ctx)
	if err != nil {
		log.Warn().Err(err).Str("url", u.URL).Msg("universe scrape failed, using backup list")
		return Backup()
	}
	log.Info().Int("count", len(tickers)).Msg("universe scraped")
	return tickers
}
