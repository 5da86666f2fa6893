package news

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"StockLens/internal/model"
)

const marketAuxURL = "https://api.marketaux.com/v1"

// MarketAux reads entity-filtered financial news.
type MarketAux struct {
	client *resty.Client
	apiKey string
}

// NewMarketAux creates a MarketAux provider.
func NewMarketAux(apiKey string, timeout time.Duration) *MarketAux {
	client := resty.New().
		SetBaseURL(marketAuxURL).
		SetTimeout(timeout).
		SetRetryCount(2)
	return &MarketAux{client: client, apiKey: apiKey}
}

// SetBaseURL points the provider at another endpoint.
func (m *MarketAux) SetBaseURL(u string) *MarketAux {
	m.client.SetBaseURL(u)
	return m
}

func (m *MarketAux) Name() string { return SourceMarketAux }

type marketAuxEntity struct {
	Symbol         string   `json:"symbol"`
	Name           string   `json:"name"`
	SentimentScore *float64 `json:"sentiment_score"`
}

type marketAuxArticle struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Snippet     string            `json:"snippet"`
	Keywords    string            `json:"keywords"`
	URL         string            `json:"url"`
	ImageURL    string            `json:"image_url"`
	PublishedAt time.Time         `json:"published_at"`
	Source      string            `json:"source"`
	Entities    []marketAuxEntity `json:"entities"`
}

type marketAuxResponse struct {
	Data  []marketAuxArticle `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (m *MarketAux) Fetch(ctx context.Context, ticker string) ([]model.Article, error) {
	if m.apiKey == "" {
		return nil, fmt.Errorf("marketaux: %w", ErrMissingKey)
	}

	var body marketAuxResponse
	resp, err := m.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbols":         strings.TrimSuffix(strings.ToUpper(ticker), ".NS"),
			"filter_entities": "true",
			"language":        "en",
			"limit":           "20",
			"api_token":       m.apiKey,
		}).
		SetResult(&body).
		SetError(&body).
		Get("/news/all")
	if err != nil {
		return nil, fmt.Errorf("marketaux news %s: %w", ticker, err)
	}
	if resp.IsError() {
		msg := resp.String()
		if body.Error != nil {
			msg = body.Error.Message
		}
		return nil, fmt.Errorf("marketaux API error %d: %s", resp.StatusCode(), msg)
	}

	out := make([]model.Article, 0, len(body.Data))
	for _, d := range body.Data {
		summary := d.Description
		if summary == "" {
			summary = d.Snippet
		}
		out = append(out, model.Article{
			Title:         d.Title,
			Summary:       summary,
			URL:           d.URL,
			Source:        d.Source,
			ImageURL:      d.ImageURL,
			PublishedAt:   d.PublishedAt,
			Keywords:      splitKeywords(d.Keywords, 5),
			Related:       relatedEntities(d.Entities, 3),
			ProviderScore: averageSentiment(d.Entities),
		})
	}
	return out, nil
}

func splitKeywords(s string, limit int) []string {
	var out []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
		if len(out) == limit {
			break
		}
	}
	return out
}

func relatedEntities(entities []marketAuxEntity, limit int) []string {
	var out []string
	for _, e := range entities {
		name := e.Symbol
		if name == "" {
			name = e.Name
		}
		if name != "" {
			out = append(out, name)
		}
		if len(out) == limit {
			break
		}
	}
	return out
}

func averageSentiment(entities []marketAuxEntity) *float64 {
	var sum float64
	n := 0
	for _, e := range entities {
		if e.SentimentScore != nil {
			sum += *e.SentimentScore
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}
