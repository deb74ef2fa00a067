package main

import (
	"fmt"

	"github.com/phuslu/log"

	"KabuScout/internal/collector"
	"KabuScout/internal/config"
	"KabuScout/internal/model"
	"KabuScout/internal/scanner"
	"KabuScout/internal/strategy"
)

func newFetcher(c *config.Config) collector.Fetcher {
	switch c.DataSource.Provider {
	case "rest":
		return collector.NewRESTFetcher(c.DataSource.BaseURL, c.DataSource.APIKey, c.Proxy, c.DataSource.Timeout)
	case "mock":
		return &collector.MockFetcher{Price: 1500}
	default:
		return collector.NewYahooFetcher(c.Proxy, c.DataSource.Timeout, c.DataSource.Rate)
	}
}

func newScanner(c *config.Config) (*scanner.Scanner, error) {
	fetcher := newFetcher(c)
	log.Info().Str("source", fetcher.Name()).Int("workers", c.Scan.Workers).Msg("data source ready")

	earnings, err := collector.NewEarningsScraper(c.Earnings.URLTemplate, c.Earnings.Selector, c.Earnings.Pattern, c.Proxy, c.Earnings.Rate)
	if err != nil {
		return nil, fmt.Errorf("earnings scraper: %w", err)
	}
	guard := strategy.Guard{EarningsDays: *c.Earnings.GuardDays, MinVolume: c.Scan.MinVolume}
	return scanner.New(collector.NewCollector(fetcher), earnings, guard, c.Scan.Workers), nil
}

// defaultRequest is the configured scan request used by scheduled scans.
func defaultRequest(c *config.Config) model.ScanRequest {
	return model.ScanRequest{
		Mode:     model.Mode(c.Scan.Mode),
		MinPrice: c.Scan.MinPrice,
		MaxPrice: c.Scan.MaxPrice,
	}
}
