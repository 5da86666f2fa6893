package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"StockLens/internal/model"
)

func actionEmoji(a model.Action) string {
	switch a {
	case model.ActionBuy:
		return "🟢"
	case model.ActionSell:
		return "🔴"
	default:
		return "🟡"
	}
}

// FormatSignalChange formats the alert sent when a watched ticker flips.
func FormatSignalChange(c model.SignalChange, r *model.TechnicalReport) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔔 <b>%s signal change</b> | %s\n\n", html.EscapeString(c.Ticker), c.At.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("%s %s → %s %s\n", actionEmoji(c.Previous), c.Previous, actionEmoji(c.Current), c.Current))
	b.WriteString(fmt.Sprintf("Close: %.2f\n", c.Close))
	if r != nil {
		b.WriteString(fmt.Sprintf("Signals: %d buy / %d sell\n", r.BuyCount, r.SellCount))
		for _, s := range r.Signals {
			b.WriteString(fmt.Sprintf("  • %s: %s\n", s.Action, html.EscapeString(s.Reason)))
		}
	}
	return b.String()
}

// FormatTechnicalSummary formats a report and its score for /analyze.
func FormatTechnicalSummary(r *model.TechnicalReport, score model.Score) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %s\n\n", html.EscapeString(r.Symbol), r.AsOf.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Close: %.2f\n", r.Close))
	b.WriteString(fmt.Sprintf("%s <b>Overall: %s</b> (%d buy / %d sell)\n", actionEmoji(r.Overall), r.Overall, r.BuyCount, r.SellCount))
	b.WriteString(fmt.Sprintf("Bias: %s (%d/%d bullish)\n\n", score.Overall, score.Bullish, score.Total))

	if len(r.SummaryPoints) > 0 {
		b.WriteString("📈 <b>Summary:</b>\n")
		for _, p := range r.SummaryPoints {
			b.WriteString(fmt.Sprintf("  • %s\n", html.EscapeString(p)))
		}
		b.WriteString("\n")
	}
	if len(r.RiskFactors) > 0 {
		b.WriteString("⚠️ <b>Risks:</b>\n")
		for _, rf := range r.RiskFactors {
			b.WriteString(fmt.Sprintf("  • %s\n", html.EscapeString(rf)))
		}
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("💡 %s", html.EscapeString(r.Recommendation)))
	return b.String()
}

// digestArticles is how many headlines a news digest lists.
const digestArticles = 5

// FormatNewsDigest formats headlines and sentiment counts.
func FormatNewsDigest(res *model.NewsResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📰 <b>%s news</b> (%s)\n\n", html.EscapeString(res.Ticker), html.EscapeString(res.Source)))
	if len(res.Articles) == 0 {
		b.WriteString("No articles found.")
		return b.String()
	}
	s := res.Sentiment
	b.WriteString(fmt.Sprintf("Sentiment: <b>%s</b> (+%d / -%d / =%d)\n\n", s.Overall, s.Positive, s.Negative, s.Neutral))

	for i, a := range res.Articles {
		if i == digestArticles {
			break
		}
		title := html.EscapeString(a.Title)
		if a.URL != "" {
			title = fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(a.URL), title)
		}
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, title))
		if a.Source != "" || !a.PublishedAt.IsZero() {
			b.WriteString(fmt.Sprintf("   <i>%s %s</i>\n", html.EscapeString(a.Source), publishedLabel(a.PublishedAt)))
		}
	}
	return b.String()
}

func publishedLabel(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

// FormatWatchlist formats the watchlist table for /watchlist and the digest.
func FormatWatchlist(entries []model.WatchEntry, now time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("👀 <b>Watchlist</b> | %s\n\n", now.Format("2006-01-02")))
	if len(entries) == 0 {
		b.WriteString("Watchlist is empty. Use /watch TICKER to add one.")
		return b.String()
	}
	b.WriteString("<pre>")
	b.WriteString(fmt.Sprintf("%-12s %-8s %10s %s\n", "Ticker", "Signal", "Close", "Updated"))
	for _, e := range entries {
		signal, closeStr, updated := "-", "-", "-"
		if e.LastSignal != "" {
			signal = string(e.LastSignal)
		}
		if e.LastClose > 0 {
			closeStr = fmt.Sprintf("%.2f", e.LastClose)
		}
		if !e.RefreshedAt.IsZero() {
			updated = e.RefreshedAt.Format("01-02 15:04")
		}
		b.WriteString(fmt.Sprintf("%-12s %-8s %10s %s\n", html.EscapeString(e.Ticker), signal, closeStr, updated))
	}
	b.WriteString("</pre>")
	return b.String()
}

// FormatHelp lists the bot commands.
func FormatHelp() string {
	return `🤖 <b>StockLens commands</b>

/analyze TICKER - technical summary
/news TICKER - latest headlines and sentiment
/watch TICKER - add to watchlist
/unwatch TICKER - remove from watchlist
/watchlist - show watched tickers
/help - this message`
}
