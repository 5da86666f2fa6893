package news

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"StockLens/internal/httpclient"
	"StockLens/internal/model"
)

const yahooSearchURL = "https://query2.finance.yahoo.com/v1/finance/search"

// Yahoo reads the news block of the Yahoo Finance search endpoint. It needs
// no API key.
type Yahoo struct {
	Client  *httpclient.Client
	BaseURL string
}

// NewYahoo creates a Yahoo news provider.
func NewYahoo(client *httpclient.Client) *Yahoo {
	return &Yahoo{Client: client, BaseURL: yahooSearchURL}
}

func (y *Yahoo) Name() string { return SourceYahoo }

type yahooSearch struct {
	News []struct {
		Title               string   `json:"title"`
		Publisher           string   `json:"publisher"`
		Link                string   `json:"link"`
		Type                string   `json:"type"`
		ProviderPublishTime int64    `json:"providerPublishTime"`
		RelatedTickers      []string `json:"relatedTickers"`
		Thumbnail           *struct {
			Resolutions []struct {
				URL string `json:"url"`
			} `json:"resolutions"`
		} `json:"thumbnail"`
	} `json:"news"`
}

func (y *Yahoo) Fetch(ctx context.Context, ticker string) ([]model.Article, error) {
	q := url.Values{"q": {ticker}, "quotesCount": {"0"}, "newsCount": {"20"}}
	var body yahooSearch
	if err := y.Client.GetJSON(ctx, y.BaseURL, q, &body); err != nil {
		return nil, fmt.Errorf("yahoo news %s: %w", ticker, err)
	}

	out := make([]model.Article, 0, len(body.News))
	for _, n := range body.News {
		a := model.Article{
			Title:       n.Title,
			URL:         n.Link,
			Source:      n.Publisher,
			Category:    n.Type,
			PublishedAt: time.Unix(n.ProviderPublishTime, 0).UTC(),
			Related:     n.RelatedTickers,
		}
		if n.Thumbnail != nil && len(n.Thumbnail.Resolutions) > 0 {
			a.ImageURL = n.Thumbnail.Resolutions[0].URL
		}
		out = append(out, a)
	}
	return out, nil
}
