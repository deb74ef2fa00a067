package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"KabuScout/internal/model"
)

// DefaultDatePattern matches 2026/11/05, 2026-11-05 and 2026年11月5日.
const DefaultDatePattern = `(\d{4})\s*[/年-]\s*(\d{1,2})\s*[/月-]\s*(\d{1,2})`

// ErrNoEarningsDate means the page was fetched but no upcoming date was found.
var ErrNoEarningsDate = errors.New("no upcoming earnings date")

// EarningsScraper extracts the next earnings date from a finance page.
type EarningsScraper struct {
	URLTemplate string // "{code}" and "{symbol}" are substituted
	Selector    string // CSS selector holding the date text; empty means whole body
	Pattern     *regexp.Regexp
	Location    *time.Location
	Client      *http.Client
	Limiter     *rate.Limiter
	Now         func() time.Time
}

// NewEarningsScraper returns nil when urlTemplate is empty.
func NewEarningsScraper(urlTemplate, selector, pattern, proxyURL string, ratePerSec float64) (*EarningsScraper, error) {
	if urlTemplate == "" {
		return nil, nil
	}
	if pattern == "" {
		pattern = DefaultDatePattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("earnings pattern: %w", err)
	}
	if re.NumSubexp() < 3 {
		return nil, fmt.Errorf("earnings pattern needs year, month and day groups: %q", pattern)
	}
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		loc = time.FixedZone("JST", 9*60*60)
	}
	s := &EarningsScraper{
		URLTemplate: urlTemplate,
		Selector:    selector,
		Pattern:     re,
		Location:    loc,
		Client:      newHTTPClient(proxyURL, 15*time.Second),
		Limiter:     rate.NewLimiter(rate.Inf, 0),
		Now:         time.Now,
	}
	if ratePerSec > 0 {
		s.Limiter = rate.NewLimiter(rate.Limit(ratePerSec), 1)
	}
	return s, nil
}

func (s *EarningsScraper) pageURL(t model.Ticker) string {
	r := strings.NewReplacer("{code}", t.Code(), "{symbol}", t.Symbol)
	return r.Replace(s.URLTemplate)
}

// NextEarnings returns the first date on the page that is not in the past.
func (s *EarningsScraper) NextEarnings(ctx context.Context, t model.Ticker) (time.Time, error) {
	if err := s.Limiter.Wait(ctx); err != nil {
		return time.Time{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.pageURL(t), nil)
	if err != nil {
		return time.Time{}, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.Client.Do(req)
	if err != nil {
		return time.Time{}, fmt.Errorf("earnings fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return time.Time{}, fmt.Errorf("earnings fetch: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return time.Time{}, fmt.Errorf("earnings parse: %w", err)
	}
	var text string
	if s.Selector != "" {
		text = doc.Find(s.Selector).Text()
	} else {
		text = doc.Find("body").Text()
	}
	return s.firstUpcoming(text)
}

func (s *EarningsScraper) firstUpcoming(text string) (time.Time, error) {
	now := s.Now().In(s.Location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.Location)

	for _, m := range s.Pattern.FindAllStringSubmatch(text, -1) {
		y, errY := strconv.Atoi(m[1])
		mo, errM := strconv.Atoi(m[2])
		d, errD := strconv.Atoi(m[3])
		if errY != nil || errM != nil || errD != nil || mo < 1 || mo > 12 || d < 1 || d > 31 {
			continue
		}
		date := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, s.Location)
		if !date.Before(today) {
			return date, nil
		}
	}
	return time.Time{}, ErrNoEarningsDate
}
