package news

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"StockLens/internal/logger"
	"StockLens/internal/model"
	"StockLens/internal/sentiment"
)

// DefaultTTL is how long fetched articles stay cached.
const DefaultTTL = 5 * time.Minute

// Service fetches news through a cache and scores it.
type Service struct {
	providers     map[string]Provider
	order         []string
	cache         Cache
	ttl           time.Duration
	DefaultSource string
	log           zerolog.Logger
}

// NewService creates a Service. A nil cache falls back to an in-memory one.
func NewService(cache Cache, ttl time.Duration, providers ...Provider) *Service {
	if cache == nil {
		cache = NewMemoryCache()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Service{
		providers:     make(map[string]Provider, len(providers)),
		cache:         cache,
		ttl:           ttl,
		DefaultSource: SourceYahoo,
		log:           logger.Component("news"),
	}
	for _, p := range providers {
		s.providers[p.Name()] = p
		s.order = append(s.order, p.Name())
	}
	return s
}

// Sources lists the configured source names in registration order.
func (s *Service) Sources() []string {
	return append([]string(nil), s.order...)
}

func cacheKey(source, ticker string) string {
	return "news:" + source + ":" + ticker
}

// Fetch returns the display slice of articles for ticker together with the
// sentiment of everything the provider returned.
func (s *Service) Fetch(ctx context.Context, source, ticker string) (*model.NewsResult, error) {
	if source == "" {
		source = s.DefaultSource
	}
	source = strings.ToLower(source)
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	p, ok := s.providers[source]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}

	key := cacheKey(source, ticker)
	articles, cached := s.cached(ctx, key)
	if !cached {
		fetched, err := p.Fetch(ctx, ticker)
		if err != nil {
			return nil, err
		}
		for i := range fetched {
			fetched[i].Title = StripHTML(fetched[i].Title)
			fetched[i].Summary = StripHTML(fetched[i].Summary)
		}
		articles = fetched
		if data, err := json.Marshal(articles); err == nil {
			if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
				s.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
			}
		}
	}

	result := &model.NewsResult{
		Ticker:    ticker,
		Source:    source,
		Fetched:   len(articles),
		Sentiment: sentiment.Analyze(articles),
		Cached:    cached,
	}
	if limit := DisplayLimit(source); len(articles) > limit {
		articles = articles[:limit]
	}
	result.Articles = articles
	s.log.Debug().Str("source", source).Str("ticker", ticker).Int("fetched", result.Fetched).Bool("cached", cached).Msg("news fetched")
	return result, nil
}

func (s *Service) cached(ctx context.Context, key string) ([]model.Article, bool) {
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var articles []model.Article
	if err := json.Unmarshal(data, &articles); err != nil {
		return nil, false
	}
	return articles, true
}
