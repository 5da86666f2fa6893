package news

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"StockLens/internal/model"
)

const newsAPIURL = "https://newsapi.org/v2"

// NewsAPI searches general news for "<ticker> stock".
type NewsAPI struct {
	client *resty.Client
	apiKey string
}

// NewNewsAPI creates a NewsAPI provider.
func NewNewsAPI(apiKey string, timeout time.Duration) *NewsAPI {
	client := resty.New().
		SetBaseURL(newsAPIURL).
		SetTimeout(timeout).
		SetRetryCount(2)
	return &NewsAPI{client: client, apiKey: apiKey}
}

// SetBaseURL points the provider at another endpoint.
func (n *NewsAPI) SetBaseURL(u string) *NewsAPI {
	n.client.SetBaseURL(u)
	return n
}

func (n *NewsAPI) Name() string { return SourceNewsAPI }

type newsAPIResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Author      string    `json:"author"`
		Title       string    `json:"title"`
		Description string    `json:"description"`
		URL         string    `json:"url"`
		URLToImage  string    `json:"urlToImage"`
		PublishedAt time.Time `json:"publishedAt"`
	} `json:"articles"`
}

func (n *NewsAPI) Fetch(ctx context.Context, ticker string) ([]model.Article, error) {
	if n.apiKey == "" {
		return nil, fmt.Errorf("newsapi: %w", ErrMissingKey)
	}

	var body newsAPIResponse
	resp, err := n.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":        ticker + " stock",
			"sortBy":   "publishedAt",
			"language": "en",
			"pageSize": "20",
			"apiKey":   n.apiKey,
		}).
		SetResult(&body).
		SetError(&body).
		Get("/everything")
	if err != nil {
		return nil, fmt.Errorf("newsapi %s: %w", ticker, err)
	}
	if resp.IsError() || body.Status == "error" {
		return nil, fmt.Errorf("newsapi error %d: %s", resp.StatusCode(), body.Message)
	}

	out := make([]model.Article, 0, len(body.Articles))
	for _, a := range body.Articles {
		out = append(out, model.Article{
			Title:       a.Title,
			Summary:     a.Description,
			URL:         a.URL,
			Source:      a.Source.Name,
			Author:      a.Author,
			ImageURL:    a.URLToImage,
			PublishedAt: a.PublishedAt,
		})
	}
	return out, nil
}
