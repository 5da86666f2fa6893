package news

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-resty/resty/v2"

	"StockLens/internal/model"
)

const finnhubURL = "https://finnhub.io/api/v1"

// Finnhub reads company news from the last seven days.
type Finnhub struct {
	client *resty.Client
	apiKey string
	now    func() time.Time
}

// NewFinnhub creates a Finnhub provider.
func NewFinnhub(apiKey string, timeout time.Duration) *Finnhub {
	client := resty.New().
		SetBaseURL(finnhubURL).
		SetTimeout(timeout).
		SetRetryCount(2)
	return &Finnhub{client: client, apiKey: apiKey, now: time.Now}
}

// SetBaseURL points the provider at another endpoint.
func (f *Finnhub) SetBaseURL(u string) *Finnhub {
	f.client.SetBaseURL(u)
	return f
}

func (f *Finnhub) Name() string { return SourceFinnhub }

type finnhubNews struct {
	Category string `json:"category"`
	DateTime int64  `json:"datetime"`
	Headline string `json:"headline"`
	Image    string `json:"image"`
	Related  string `json:"related"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

func (f *Finnhub) Fetch(ctx context.Context, ticker string) ([]model.Article, error) {
	if f.apiKey == "" {
		return nil, fmt.Errorf("finnhub: %w", ErrMissingKey)
	}
	to := f.now()
	from := to.AddDate(0, 0, -7)

	var items []finnhubNews
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol": ticker,
			"from":   from.Format("2006-01-02"),
			"to":     to.Format("2006-01-02"),
			"token":  f.apiKey,
		}).
		SetResult(&items).
		Get("/company-news")
	if err != nil {
		return nil, fmt.Errorf("finnhub news %s: %w", ticker, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("finnhub API error %d: %s", resp.StatusCode(), resp.String())
	}

	out := make([]model.Article, 0, len(items))
	for _, n := range items {
		a := model.Article{
			Title:       n.Headline,
			Summary:     n.Summary,
			URL:         n.URL,
			Source:      n.Source,
			ImageURL:    n.Image,
			Category:    n.Category,
			PublishedAt: time.Unix(n.DateTime, 0).UTC(),
		}
		if n.Related != "" {
			a.Related = []string{n.Related}
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PublishedAt.After(out[j].PublishedAt) })
	return out, nil
}
