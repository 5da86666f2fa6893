// Package ingest parses uploaded OHLCV files and cleans price series.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"StockLens/internal/model"
)

// ErrMissingColumns is returned when a file lacks a required OHLCV column.
var ErrMissingColumns = errors.New("missing required columns")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Upload is a parsed but not yet cleaned CSV file.
type Upload struct {
	Columns []string
	Bars    []model.OHLCV

	// Reported52wHigh and Reported52wLow are read from the most recent row
	// of exchange exports that include 52W H / 52W L columns.
	Reported52wHigh float64
	Reported52wLow  float64
}

type columnSet struct {
	date, open, high, low, close, volume int
	trades, vwap, high52, low52          int
}

// cleanHeader strips whitespace, quotes and inner spaces ("52W H" -> "52WH").
func cleanHeader(h string) string {
	h = strings.TrimSpace(h)
	h = strings.ReplaceAll(h, `"`, "")
	return strings.ReplaceAll(h, " ", "")
}

func indexOf(headers []string, names ...string) int {
	for _, n := range names {
		for i, h := range headers {
			if h == n {
				return i
			}
		}
	}
	return -1
}

// ReadCSV parses an uploaded file in the international or Indian layout.
func ReadCSV(r io.Reader, market model.Market) (*Upload, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) < 2 {
		return nil, errors.New("file has no data rows")
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = cleanHeader(h)
	}

	var cols columnSet
	var parseDate func(string) time.Time
	var parseNum func(string) float64
	if market == model.MarketIndian {
		cols, err = indianColumns(headers)
		parseDate, parseNum = parseIndianDate, parseIndianNumber
	} else {
		cols, err = internationalColumns(headers)
		parseDate, parseNum = parseInternationalDate, parseNumber
	}
	if err != nil {
		return nil, err
	}

	up := &Upload{Columns: headers, Bars: make([]model.OHLCV, 0, len(records)-1)}
	var latest time.Time
	for _, rec := range records[1:] {
		field := func(i int) string {
			if i < 0 || i >= len(rec) {
				return ""
			}
			return rec[i]
		}
		bar := model.OHLCV{
			Time:   parseDate(field(cols.date)),
			Open:   parseNum(field(cols.open)),
			High:   parseNum(field(cols.high)),
			Low:    parseNum(field(cols.low)),
			Close:  parseNum(field(cols.close)),
			Volume: parseNum(field(cols.volume)),
		}
		if cols.trades >= 0 {
			bar.Trades = zeroIfNaN(parseIndianNumber(field(cols.trades)))
		}
		if cols.vwap >= 0 {
			bar.VWAP = zeroIfNaN(parseIndianNumber(field(cols.vwap)))
		}
		if cols.high52 >= 0 && cols.low52 >= 0 && !bar.Time.IsZero() && bar.Time.After(latest) {
			latest = bar.Time
			up.Reported52wHigh = zeroIfNaN(parseIndianNumber(field(cols.high52)))
			up.Reported52wLow = zeroIfNaN(parseIndianNumber(field(cols.low52)))
		}
		up.Bars = append(up.Bars, bar)
	}
	return up, nil
}

func indianColumns(headers []string) (columnSet, error) {
	cols := columnSet{
		date:   indexOf(headers, "Date", "date", "DATE"),
		open:   indexOf(headers, "OPEN", "Open"),
		high:   indexOf(headers, "HIGH", "High"),
		low:    indexOf(headers, "LOW", "Low"),
		close:  indexOf(headers, "close", "Close", "CLOSE"),
		volume: indexOf(headers, "VOLUME", "Volume"),
		trades: indexOf(headers, "Nooftrades", "NoOfTrades", "Trades"),
		vwap:   indexOf(headers, "vwap", "VWAP"),
		high52: indexOf(headers, "52WH"),
		low52:  indexOf(headers, "52WL"),
	}
	return cols, checkRequired(cols)
}

func internationalColumns(headers []string) (columnSet, error) {
	lower := make([]string, len(headers))
	for i, h := range headers {
		lower[i] = strings.ToLower(h)
	}
	cols := columnSet{
		date:   indexOf(lower, "date", "datetime", "timestamp"),
		open:   indexOf(lower, "open"),
		high:   indexOf(lower, "high"),
		low:    indexOf(lower, "low"),
		close:  indexOf(lower, "close"),
		volume: indexOf(lower, "volume"),
		trades: indexOf(lower, "trades", "nooftrades"),
		vwap:   indexOf(lower, "vwap"),
		high52: indexOf(lower, "52wh"),
		low52:  indexOf(lower, "52wl"),
	}
	return cols, checkRequired(cols)
}

func checkRequired(c columnSet) error {
	var missing []string
	for _, f := range []struct {
		name string
		idx  int
	}{
		{"Date", c.date}, {"Open", c.open}, {"High", c.high},
		{"Low", c.low}, {"Close", c.close}, {"Volume", c.volume},
	} {
		if f.idx < 0 {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return nil
}

func zeroIfNaN(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// parseNumber is strict: anything that is not a plain number becomes NaN.
func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// parseIndianNumber also accepts quoted, comma-grouped values ("1,234.50").
func parseIndianNumber(s string) float64 {
	s = strings.ReplaceAll(s, `"`, "")
	s = strings.ReplaceAll(s, ",", "")
	return parseNumber(s)
}

var internationalLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05-07:00",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02-Jan-2006",
	"Jan 2, 2006",
	"20060102",
}

var indianLayouts = []string{
	"02-Jan-2006",
	"2-Jan-2006",
	"02-01-2006",
	"02/01/2006",
	"2/1/2006",
	"02-Jan-06",
	"02.01.2006",
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

func parseWith(layouts []string, s string) time.Time {
	s = strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
	if s == "" {
		return time.Time{}
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func parseInternationalDate(s string) time.Time { return parseWith(internationalLayouts, s) }

func parseIndianDate(s string) time.Time { return parseWith(indianLayouts, s) }
