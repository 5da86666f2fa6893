package model

import "time"

// Sentiment labels produced by the keyword classifier.
type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNegative Sentiment = "Negative"
	SentimentNeutral  Sentiment = "Neutral"
)

// Article is a news item normalised across providers.
type Article struct {
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Author      string    `json:"author,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Category    string    `json:"category,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Keywords    []string  `json:"keywords,omitempty"`
	Related     []string  `json:"related,omitempty"`

	// ProviderScore is the provider's own sentiment score when it supplies one.
	ProviderScore *float64 `json:"provider_score,omitempty"`
}

// ArticleSentiment is the classification of one article.
type ArticleSentiment struct {
	Title    string    `json:"title"`
	Label    Sentiment `json:"label"`
	Positive int       `json:"positive_hits"`
	Negative int       `json:"negative_hits"`
}

// SentimentReport aggregates article classifications.
type SentimentReport struct {
	Articles []ArticleSentiment `json:"articles"`
	Positive int                `json:"positive"`
	Negative int                `json:"negative"`
	Neutral  int                `json:"neutral"`
	Overall  Sentiment          `json:"overall"`
}

// NewsResult is what a news lookup returns.
type NewsResult struct {
	Ticker    string          `json:"ticker"`
	Source    string          `json:"source"`
	Fetched   int             `json:"fetched"`
	Articles  []Article       `json:"articles"`
	Sentiment SentimentReport `json:"sentiment"`
	Cached    bool            `json:"cached"`
}
