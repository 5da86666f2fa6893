package ingest

import (
	"errors"
	"io"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"StockLens/internal/model"
)

// ErrEmpty is returned when no rows survive cleaning.
var ErrEmpty = errors.New("no valid data remaining after processing")

// CleanOptions tunes Clean.
type CleanOptions struct {
	// CapExtremes replaces values below 1% of the 1st percentile with that
	// percentile and values above 100x the 99th percentile with that percentile.
	CapExtremes bool
}

// CleanReport describes what Clean removed or changed.
type CleanReport struct {
	RowsIn         int            `json:"rows_in"`
	RowsOut        int            `json:"rows_out"`
	MissingRemoved int            `json:"missing_removed"`
	InvalidRemoved int            `json:"invalid_removed"`
	Capped         map[string]int `json:"capped,omitempty"`
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// InvalidBar reports whether a bar breaks OHLC relationships or has
// non-positive prices or negative volume.
func InvalidBar(b model.OHLCV) bool {
	return b.High < b.Low || b.High < b.Open || b.High < b.Close ||
		b.Low > b.Open || b.Low > b.Close ||
		b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 ||
		b.Volume < 0
}

// Clean drops incomplete and invalid rows, sorts by date and optionally caps
// extreme values. The input slice is not modified.
func Clean(bars []model.OHLCV, opts CleanOptions) ([]model.OHLCV, CleanReport, error) {
	report := CleanReport{RowsIn: len(bars)}

	out := make([]model.OHLCV, 0, len(bars))
	for _, b := range bars {
		if b.Time.IsZero() || !finite(b.Open, b.High, b.Low, b.Close, b.Volume) {
			report.MissingRemoved++
			continue
		}
		if InvalidBar(b) {
			report.InvalidRemoved++
			continue
		}
		out = append(out, b)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })

	if opts.CapExtremes && len(out) > 0 {
		report.Capped = capExtremes(out)
	}

	report.RowsOut = len(out)
	if report.MissingRemoved > 0 {
		log.Warn().Int("rows", report.MissingRemoved).Msg("removed rows with missing data")
	}
	if report.InvalidRemoved > 0 {
		log.Warn().Int("rows", report.InvalidRemoved).Msg("removed rows with invalid price relationships")
	}
	if len(out) == 0 {
		return nil, report, ErrEmpty
	}
	return out, report, nil
}

func capExtremes(bars []model.OHLCV) map[string]int {
	fields := []struct {
		name string
		get  func(*model.OHLCV) *float64
	}{
		{"Open", func(b *model.OHLCV) *float64 { return &b.Open }},
		{"High", func(b *model.OHLCV) *float64 { return &b.High }},
		{"Low", func(b *model.OHLCV) *float64 { return &b.Low }},
		{"Close", func(b *model.OHLCV) *float64 { return &b.Close }},
		{"Volume", func(b *model.OHLCV) *float64 { return &b.Volume }},
	}

	capped := make(map[string]int)
	vals := make([]float64, len(bars))
	for _, f := range fields {
		for i := range bars {
			vals[i] = *f.get(&bars[i])
		}
		q1 := Quantile(vals, 0.01)
		q99 := Quantile(vals, 0.99)
		n := 0
		for i := range bars {
			p := f.get(&bars[i])
			switch {
			case *p < q1*0.01:
				*p = q1
				n++
			case *p > q99*100:
				*p = q99
				n++
			}
		}
		if n > 0 {
			capped[f.name] = n
			log.Warn().Str("column", f.name).Int("values", n).Msg("capped extreme values")
		}
	}
	return capped
}

// Quantile returns the q-th quantile using linear interpolation between
// closest ranks.
func Quantile(vals []float64, q float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	s := append([]float64(nil), vals...)
	sort.Float64s(s)
	h := float64(len(s)-1) * q
	lo := int(math.Floor(h))
	if lo >= len(s)-1 {
		return s[len(s)-1]
	}
	return s[lo] + (h-float64(lo))*(s[lo+1]-s[lo])
}

// Quality summarises a cleaned series.
type Quality struct {
	Records       int     `json:"records"`
	DateRangeDays int     `json:"date_range_days"`
	Start         string  `json:"start"`
	End           string  `json:"end"`
	PriceRange    float64 `json:"price_range"`
	AvgVolume     float64 `json:"avg_volume"`
}

// QualityReport computes record count, date span, close range and mean volume.
func QualityReport(bars []model.OHLCV) Quality {
	q := Quality{Records: len(bars)}
	if len(bars) == 0 {
		return q
	}
	minT, maxT := bars[0].Time, bars[0].Time
	minC, maxC := bars[0].Close, bars[0].Close
	var vol float64
	for _, b := range bars {
		if b.Time.Before(minT) {
			minT = b.Time
		}
		if b.Time.After(maxT) {
			maxT = b.Time
		}
		minC = math.Min(minC, b.Close)
		maxC = math.Max(maxC, b.Close)
		vol += b.Volume
	}
	q.DateRangeDays = int(maxT.Sub(minT) / (24 * time.Hour))
	q.Start = minT.Format("2006-01-02")
	q.End = maxT.Format("2006-01-02")
	q.PriceRange = maxC - minC
	q.AvgVolume = vol / float64(len(bars))
	return q
}

// Process reads, cleans and caps an uploaded file into a price series.
func Process(r io.Reader, symbol string, market model.Market) (*model.PriceSeries, CleanReport, error) {
	up, err := ReadCSV(r, market)
	if err != nil {
		return nil, CleanReport{}, err
	}
	bars, report, err := Clean(up.Bars, CleanOptions{CapExtremes: true})
	if err != nil {
		return nil, report, err
	}
	if symbol == "" {
		symbol = "UPLOAD"
	}
	return &model.PriceSeries{
		Symbol:          symbol,
		Market:          market,
		Source:          "upload",
		Bars:            bars,
		FetchedAt:       time.Now(),
		Reported52wHigh: up.Reported52wHigh,
		Reported52wLow:  up.Reported52wLow,
	}, report, nil
}
