package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"StockLens/internal/analyzer"
	"StockLens/internal/format"
	"StockLens/internal/fundamentals"
	"StockLens/internal/model"
)

// UI styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Background(lipgloss.Color("#1F2937")).
			Padding(0, 1).
			MarginBottom(1)

	sectionStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 1).
			Width(80)

	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CA3AF")).
			Width(24)

	bullStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	bearStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	neutralStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))
)

// toneStyle colours a signal word by direction.
func toneStyle(word string) lipgloss.Style {
	switch strings.ToUpper(word) {
	case "BUY", "BULLISH", "OVERSOLD", "POSITIVE", "HIGH":
		return bullStyle
	case "SELL", "BEARISH", "OVERBOUGHT", "NEGATIVE":
		return bearStyle
	default:
		return neutralStyle
	}
}

// valueStyle maps format.ColorForValue onto the palette.
func valueStyle(v *float64, reverse bool) lipgloss.Style {
	switch format.ColorForValue(v, reverse) {
	case "green":
		return bullStyle
	case "red":
		return bearStyle
	default:
		return dimStyle
	}
}

func kv(label, value string) string {
	return labelStyle.Render(label) + value
}

func section(title string, lines ...string) string {
	body := headingStyle.Render(title)
	if len(lines) > 0 {
		body += "\n" + strings.Join(lines, "\n")
	}
	return sectionStyle.Render(body)
}

func metricLines(metrics []model.Metric) []string {
	lines := make([]string, 0, len(metrics))
	for _, m := range metrics {
		lines = append(lines, kv(m.Label, m.Value))
	}
	return lines
}

func renderDashboard(d *analyzer.Dashboard) string {
	var b strings.Builder
	o := d.Overview

	name := o.Name
	if name == "" {
		name = d.Symbol
	}
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s  %s", d.Symbol, name)))
	b.WriteString("\n")

	change := "N/A"
	if o.Change != nil && o.ChangePct != nil {
		change = valueStyle(o.Change, false).Render(fmt.Sprintf("%+.2f (%+.2f%%)", *o.Change, *o.ChangePct))
	}
	overview := []string{
		kv("Price", fmt.Sprintf("%.2f %s", o.Price, o.Currency)),
		kv("Change", change),
		kv("52W range", fmt.Sprintf("%.2f - %.2f", o.Low52w, o.High52w)),
		kv("30D range", fmt.Sprintf("%.2f - %.2f", o.Low30d, o.High30d)),
		kv("Bars", fmt.Sprintf("%d (%s to %s)", o.Bars, o.Start, o.End)),
	}
	if o.MarketCap > 0 {
		overview = append(overview, kv("Market cap", format.Currency(o.MarketCap)))
	}
	if o.Exchange != "" {
		overview = append(overview, kv("Exchange", o.Exchange))
	}
	if d.Source != "" {
		overview = append(overview, kv("Source", d.Source))
	}
	b.WriteString(section("Overview", overview...))
	b.WriteString("\n")

	quick := make([]string, 0, len(d.QuickSignals))
	for _, q := range d.QuickSignals {
		quick = append(quick, kv(q.Name, toneStyle(q.State).Render(q.State)+"  "+dimStyle.Render(q.Detail)))
	}
	b.WriteString(section("Signals", quick...))
	b.WriteString("\n")

	score := make([]string, 0, len(d.Score.Factors)+len(d.Score.KeyMetrics)+1)
	for _, f := range d.Score.Factors {
		mark := neutralStyle.Render("·")
		if f.Bullish {
			mark = bullStyle.Render("+")
		} else if f.Bearish {
			mark = bearStyle.Render("-")
		}
		score = append(score, fmt.Sprintf("%s %s", mark, f.Commentary))
	}
	score = append(score, kv("Overall", fmt.Sprintf("%s (%d bullish / %d bearish of %d)",
		toneStyle(string(d.Score.Overall)).Render(string(d.Score.Overall)), d.Score.Bullish, d.Score.Bearish, d.Score.Total)))
	score = append(score, metricLines(d.Score.KeyMetrics)...)
	b.WriteString(section("Summary score", score...))
	b.WriteString("\n")

	if r := d.Report; r != nil {
		lines := []string{
			kv("Recommendation", toneStyle(string(r.Overall)).Render(string(r.Overall))+" "+r.Recommendation),
			kv("Signals", fmt.Sprintf("%d buy / %d sell", r.BuyCount, r.SellCount)),
		}
		if r.MAAlignment != "" {
			lines = append(lines, kv("MA alignment", r.MAAlignment))
		}
		for _, s := range r.Signals {
			lines = append(lines, fmt.Sprintf("%s %s", toneStyle(string(s.Action)).Render(fmt.Sprintf("%-4s", s.Action)), s.Reason))
		}
		for _, rf := range r.RiskFactors {
			lines = append(lines, bearStyle.Render("! ")+rf)
		}
		if len(r.Support) > 0 {
			lines = append(lines, kv("Support", joinPrices(r.Support)))
		}
		if len(r.Resistance) > 0 {
			lines = append(lines, kv("Resistance", joinPrices(r.Resistance)))
		}
		b.WriteString(section("Comprehensive analysis", lines...))
		b.WriteString("\n")
	}

	rows := []string{dimStyle.Render(fmt.Sprintf("%-10s %10s %8s %10s %10s", "Date", "Close", "RSI", "MACD", "SMA20"))}
	for _, r := range d.Recent {
		rows = append(rows, fmt.Sprintf("%-10s %10.2f %8s %10s %10s",
			r.Time.Format("2006-01-02"), r.Close, format.Fixed(r.RSI, 1), format.Fixed(r.MACD, 3), format.Fixed(r.SMA20, 2)))
	}
	b.WriteString(section("Recent bars", rows...))
	b.WriteString("\n")
	return b.String()
}

func joinPrices(ps []float64) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = fmt.Sprintf("%.2f", p)
	}
	return strings.Join(parts, ", ")
}

func renderUpload(res *analyzer.UploadResult) string {
	q, c := res.Quality, res.Clean
	lines := []string{
		kv("Records", fmt.Sprintf("%d", q.Records)),
		kv("Date range", fmt.Sprintf("%s to %s (%d days)", q.Start, q.End, q.DateRangeDays)),
		kv("Price range", fmt.Sprintf("%.2f", q.PriceRange)),
		kv("Average volume", format.Number(&q.AvgVolume, 0)),
		kv("Rows in / out", fmt.Sprintf("%d / %d", c.RowsIn, c.RowsOut)),
		kv("Missing removed", fmt.Sprintf("%d", c.MissingRemoved)),
		kv("Invalid removed", fmt.Sprintf("%d", c.InvalidRemoved)),
	}
	for col, n := range c.Capped {
		lines = append(lines, kv("Capped "+col, fmt.Sprintf("%d", n)))
	}
	return section("Data quality", lines...) + "\n" + renderDashboard(res.Dashboard)
}

func renderNews(res *model.NewsResult) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s news from %s", res.Ticker, res.Source)))
	b.WriteString("\n")

	s := res.Sentiment
	cached := ""
	if res.Cached {
		cached = dimStyle.Render(" (cached)")
	}
	b.WriteString(section("Sentiment",
		kv("Overall", toneStyle(string(s.Overall)).Render(string(s.Overall))+cached),
		kv("Positive / Negative", fmt.Sprintf("%d / %d", s.Positive, s.Negative)),
		kv("Neutral", fmt.Sprintf("%d", s.Neutral)),
		kv("Articles", fmt.Sprintf("%d shown of %d", len(res.Articles), res.Fetched)),
	))
	b.WriteString("\n")

	labels := make(map[string]model.Sentiment, len(s.Articles))
	for _, a := range s.Articles {
		labels[a.Title] = a.Label
	}
	if len(res.Articles) == 0 {
		b.WriteString(dimStyle.Render("No articles found."))
		b.WriteString("\n")
		return b.String()
	}
	for i, a := range res.Articles {
		label := labels[a.Title]
		if label == "" {
			label = model.SentimentNeutral
		}
		lines := []string{toneStyle(string(label)).Render(string(label))}
		meta := a.Source
		if !a.PublishedAt.IsZero() {
			meta += "  " + a.PublishedAt.Format("2006-01-02 15:04")
		}
		lines = append(lines, dimStyle.Render(meta))
		if a.Summary != "" {
			lines = append(lines, a.Summary)
		}
		if a.URL != "" {
			lines = append(lines, dimStyle.Render(a.URL))
		}
		b.WriteString(section(fmt.Sprintf("%d. %s", i+1, a.Title), lines...))
		b.WriteString("\n")
	}
	return b.String()
}

func renderFundamentals(r *fundamentals.Report) string {
	var b strings.Builder
	name := r.Name
	if name == "" {
		name = r.Symbol
	}
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s  %s", r.Symbol, name)))
	b.WriteString("\n")

	b.WriteString(section("Key metrics", metricLines(r.KeyMetrics)...))
	b.WriteString("\n")
	company := metricLines(r.Company)
	if r.Summary != "" {
		company = append(company, "", dimStyle.Render(r.Summary))
	}
	b.WriteString(section("Company", company...))
	b.WriteString("\n")

	groups := append([]fundamentals.Group(nil), r.Ratios...)
	if r.Dividend != nil {
		groups = append(groups, *r.Dividend)
	}
	groups = append(groups, r.Analyst, r.Multiples)
	for _, g := range groups {
		if len(g.Metrics) == 0 {
			continue
		}
		b.WriteString(section(g.Title, metricLines(g.Metrics)...))
		b.WriteString("\n")
	}

	for _, t := range r.Statements {
		if len(t.Rows) == 0 {
			continue
		}
		header := labelStyle.Render("")
		for _, p := range t.Periods {
			header += fmt.Sprintf("%12s", p)
		}
		lines := []string{dimStyle.Render(header)}
		for _, row := range t.Rows {
			line := labelStyle.Render(row.Item)
			for _, v := range row.Values {
				line += fmt.Sprintf("%12s", v)
			}
			lines = append(lines, line)
		}
		b.WriteString(section(t.Title, lines...))
		b.WriteString("\n")
	}
	return b.String()
}
