// Package news fetches company news from several providers and caches the
// results.
package news

import (
	"context"
	"errors"

	"StockLens/internal/model"
)

// Source names accepted by Service.Fetch.
const (
	SourceYahoo     = "yahoo"
	SourceMarketAux = "marketaux"
	SourceNewsAPI   = "newsapi"
	SourceFinnhub   = "finnhub"
	SourceScraper   = "scraper"
)

var (
	// ErrMissingKey is returned by providers that need an API key and have none.
	ErrMissingKey = errors.New("api key not configured")
	// ErrUnknownSource is returned for a source name with no provider.
	ErrUnknownSource = errors.New("unknown news source")
)

// Provider fetches the latest articles about a ticker.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, ticker string) ([]model.Article, error)
}

// DisplayLimit is the number of articles shown for a source.
func DisplayLimit(source string) int {
	if source == SourceYahoo {
		return 10
	}
	return 15
}
