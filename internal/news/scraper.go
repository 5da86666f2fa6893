package news

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/rs/zerolog"

	"StockLens/internal/config"
	"StockLens/internal/logger"
	"StockLens/internal/model"
)

// Scraper collects headlines from configured HTML listing pages.
type Scraper struct {
	sources   []config.ScrapeSource
	timeout   time.Duration
	userAgent string
	perSource int
	log       zerolog.Logger
}

// NewScraper creates a scraper over sources.
func NewScraper(sources []config.ScrapeSource, timeout time.Duration) *Scraper {
	return &Scraper{
		sources:   sources,
		timeout:   timeout,
		userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		perSource: 10,
		log:       logger.Component("news_scraper"),
	}
}

func (s *Scraper) Name() string { return SourceScraper }

// Fetch visits every source and returns what it could scrape. A source that
// fails is logged and skipped; the call only fails when every source does.
func (s *Scraper) Fetch(ctx context.Context, ticker string) ([]model.Article, error) {
	if len(s.sources) == 0 {
		return nil, fmt.Errorf("scraper: no sources configured")
	}

	var (
		all     []model.Article
		lastErr error
	)
	for _, src := range s.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		articles, err := s.scrapeSource(src, ticker)
		if err != nil {
			s.log.Warn().Err(err).Str("source", src.Name).Str("ticker", ticker).Msg("scrape failed")
			lastErr = err
			continue
		}
		all = append(all, articles...)
	}
	if len(all) == 0 && lastErr != nil {
		return nil, lastErr
	}
	s.log.Debug().Str("ticker", ticker).Int("articles", len(all)).Msg("scrape completed")
	return all, nil
}

func (s *Scraper) scrapeSource(src config.ScrapeSource, ticker string) ([]model.Article, error) {
	var articles []model.Article

	c := colly.NewCollector(
		colly.MaxDepth(1),
		colly.UserAgent(s.userAgent),
	)
	c.SetRequestTimeout(s.timeout)

	base, err := url.Parse(src.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	c.OnHTML(src.Container, func(e *colly.HTMLElement) {
		if len(articles) >= s.perSource {
			return
		}
		title := strings.TrimSpace(e.ChildText(src.Title))
		link := e.ChildAttr(src.Link, "href")
		if title == "" || link == "" {
			return
		}
		if ref, err := url.Parse(link); err == nil {
			link = base.ResolveReference(ref).String()
		}
		a := model.Article{Title: title, URL: link, Source: src.Name}
		if src.Summary != "" {
			a.Summary = strings.TrimSpace(e.ChildText(src.Summary))
		}
		articles = append(articles, a)
	})

	var visitErr error
	c.OnError(func(r *colly.Response, err error) {
		visitErr = fmt.Errorf("%s: status %d: %w", r.Request.URL, r.StatusCode, err)
	})

	target := src.BaseURL + strings.ReplaceAll(src.SearchPath, "{symbol}", url.PathEscape(strings.ToLower(ticker)))
	if err := c.Visit(target); err != nil && visitErr == nil {
		visitErr = fmt.Errorf("visit %s: %w", target, err)
	}
	c.Wait()
	if visitErr != nil {
		return nil, visitErr
	}
	return articles, nil
}
