// Package export writes analysis results as CSV downloads.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
	"time"

	"StockLens/internal/calculator"
	"StockLens/internal/model"
)

var technicalHeader = []string{
	"Date", "Open", "High", "Low", "Close", "Volume",
	"SMA_20", "SMA_50", "SMA_200", "EMA_12", "EMA_20", "EMA_26",
	"RSI", "MACD", "MACD_signal", "MACD_histogram",
	"BB_upper", "BB_middle", "BB_lower",
	"ATR", "OBV", "VWAP", "Volume_SMA", "Stoch_K", "Stoch_D",
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func opt(v *float64) string {
	if v == nil {
		return ""
	}
	return num(*v)
}

// WriteTechnicalCSV writes one row per bar with every indicator column.
// Undefined indicator values are left empty.
func WriteTechnicalCSV(w io.Writer, bars []model.OHLCV, ind model.IndicatorSeries) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(technicalHeader); err != nil {
		return err
	}
	for _, r := range calculator.Rows(bars, ind) {
		rec := []string{
			r.Time.Format("2006-01-02"),
			num(r.Open), num(r.High), num(r.Low), num(r.Close), num(r.Volume),
			opt(r.SMA20), opt(r.SMA50), opt(r.SMA200), opt(r.EMA12), opt(r.EMA20), opt(r.EMA26),
			opt(r.RSI), opt(r.MACD), opt(r.MACDSignal), opt(r.MACDHist),
			opt(r.BBUpper), opt(r.BBMiddle), opt(r.BBLower),
			opt(r.ATR), opt(r.OBV), opt(r.VWAP), opt(r.VolumeSMA), opt(r.StochK), opt(r.StochD),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// TechnicalFilename names the technical export after the last bar's date.
func TechnicalFilename(lastDate time.Time) string {
	return "technical_analysis_" + lastDate.Format("20060102") + ".csv"
}

// WriteFundamentalsCSV writes a Metric,Value row for every scalar field of f,
// keyed by its JSON name. Missing values are left empty.
func WriteFundamentalsCSV(w io.Writer, f *model.Fundamentals) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}

	v := reflect.ValueOf(f).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		name := strings.Split(t.Field(i).Tag.Get("json"), ",")[0]
		if name == "" || name == "-" {
			continue
		}
		val, ok := scalar(v.Field(i))
		if !ok {
			continue
		}
		if err := cw.Write([]string{name, val}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// scalar renders strings, numbers, times and pointers to them. Other kinds,
// such as statements, are skipped.
func scalar(v reflect.Value) (string, bool) {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return "", isScalarKind(v.Type().Elem().Kind())
		}
		v = v.Elem()
	}
	if t, ok := v.Interface().(time.Time); ok {
		if t.IsZero() {
			return "", true
		}
		return t.Format(time.RFC3339), true
	}
	switch v.Kind() {
	case reflect.String:
		return v.String(), true
	case reflect.Float64, reflect.Float32:
		return num(v.Float()), true
	case reflect.Int, reflect.Int64, reflect.Int32:
		return strconv.FormatInt(v.Int(), 10), true
	}
	return "", false
}

func isScalarKind(k reflect.Kind) bool {
	switch k {
	case reflect.String, reflect.Float64, reflect.Float32, reflect.Int, reflect.Int64, reflect.Int32:
		return true
	}
	return false
}

// FundamentalsFilename names the fundamentals export after the symbol.
func FundamentalsFilename(symbol string) string {
	if strings.TrimSpace(symbol) == "" {
		symbol = "stock"
	}
	return fmt.Sprintf("fundamental_analysis_%s.csv", symbol)
}
