package scrape

import (
	"context"
	"fmt"

	"github.com/shanehull/promowatch/internal/types"
)

// Scraper pairs a Fetcher with an Extractor for one source URL.
type Scraper struct {
	url       string
	fetcher   Fetcher
	extractor Extractor
}

func NewScraper(url string, fetcher Fetcher, extractor Extractor) *Scraper {
	return &Scraper{url: url, fetcher: fetcher, extractor: extractor}
}

// URL is the page this scraper reads.
func (s *Scraper) URL() string {
	return s.url
}

// Scrape fetches the page and extracts codes. Only fetch failures are returned as errors.
func (s *Scraper) Scrape(ctx context.Context) (types.ExtractionResult, error) {
	markup, err := s.fetcher.Fetch(ctx, s.url)
	if err != nil {
		return types.ExtractionResult{}, fmt.Errorf("scrape failed: %w", err)
	}
	return s.extractor.Extract(markup), nil
}
