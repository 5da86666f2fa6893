// Package sentiment classifies news articles with a keyword count.
package sentiment

import (
	"strings"

	"StockLens/internal/model"
)

var (
	PositiveWords = []string{"growth", "profit", "gain", "increase", "success", "positive", "up", "bull", "strong"}
	NegativeWords = []string{"loss", "decline", "decrease", "fall", "negative", "down", "bear", "weak", "crisis"}
)

// countHits counts the keywords that occur anywhere in text. A keyword found
// several times still counts once.
func countHits(text string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(text, w) {
			n++
		}
	}
	return n
}

func label(pos, neg int) model.Sentiment {
	switch {
	case pos > neg:
		return model.SentimentPositive
	case neg > pos:
		return model.SentimentNegative
	default:
		return model.SentimentNeutral
	}
}

// Classify labels a single article from its title and summary.
func Classify(a model.Article) model.ArticleSentiment {
	text := strings.ToLower(a.Title + " " + a.Summary)
	pos := countHits(text, PositiveWords)
	neg := countHits(text, NegativeWords)
	return model.ArticleSentiment{Title: a.Title, Label: label(pos, neg), Positive: pos, Negative: neg}
}

// Analyze classifies every article and derives the overall label from the
// positive and negative article counts.
func Analyze(articles []model.Article) model.SentimentReport {
	r := model.SentimentReport{Articles: make([]model.ArticleSentiment, 0, len(articles))}
	for _, a := range articles {
		s := Classify(a)
		r.Articles = append(r.Articles, s)
		switch s.Label {
		case model.SentimentPositive:
			r.Positive++
		case model.SentimentNegative:
			r.Negative++
		default:
			r.Neutral++
		}
	}
	r.Overall = label(r.Positive, r.Negative)
	return r
}
