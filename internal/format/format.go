// Package format renders numbers, currencies and percentages for reports.
package format

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NA is printed for missing values.
const NA = "N/A"

// ErrInvalidTicker is returned by ValidateTicker.
var ErrInvalidTicker = errors.New("invalid ticker symbol")

var tickerPattern = regexp.MustCompile(`^[A-Z0-9.-]{1,10}$`)

// ValidateTicker upper-cases and trims the ticker and checks it against the
// accepted symbol pattern.
func ValidateTicker(ticker string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if t == "" || !tickerPattern.MatchString(t) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTicker, ticker)
	}
	return t, nil
}

// Currency formats a value with a $ prefix and T/B/M/K suffixes.
func Currency(v float64) string {
	if v == 0 || math.IsNaN(v) {
		return "$0"
	}
	abs := math.Abs(v)
	switch {
	case abs >= 1e12:
		return fmt.Sprintf("$%.2fT", v/1e12)
	case abs >= 1e9:
		return fmt.Sprintf("$%.2fB", v/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("$%.2fM", v/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("$%.2fK", v/1e3)
	default:
		return fmt.Sprintf("$%.2f", v)
	}
}

// CurrencyPtr is Currency for optional values; nil renders as $0.
func CurrencyPtr(v *float64) string {
	if v == nil {
		return "$0"
	}
	return Currency(*v)
}

// Percentage renders a ratio (0.12) as a percentage ("12.00%").
func Percentage(v *float64, decimals int) string {
	if v == nil || math.IsNaN(*v) {
		return NA
	}
	return fmt.Sprintf("%.*f%%", decimals, *v*100)
}

// Number renders a value with thousands separators.
func Number(v *float64, decimals int) string {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return NA
	}
	return humanize.CommafWithDigits(round(*v, decimals), decimals)
}

// Fixed renders a value with a fixed number of decimals, or N/A.
func Fixed(v *float64, decimals int) string {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return NA
	}
	return fmt.Sprintf("%.*f", decimals, *v)
}

func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// SafeDivide returns a/b, or 0 when b is zero.
func SafeDivide(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// PriceChange returns the absolute and percent change from previous to
// current. ok is false when either price is zero.
func PriceChange(current, previous float64) (change, pct float64, ok bool) {
	if current == 0 || previous == 0 {
		return 0, 0, false
	}
	change = current - previous
	return change, change / previous * 100, true
}

// ColorForValue picks green for positive and red for negative values.
// reverse flips the mapping for metrics where lower is better.
func ColorForValue(v *float64, reverse bool) string {
	if v == nil || math.IsNaN(*v) {
		return "gray"
	}
	positive := *v >= 0
	if reverse {
		positive = !positive
	}
	if positive {
		return "green"
	}
	return "red"
}

// TitleKey turns provider keys such as "strong_buy" into "Strong Buy".
func TitleKey(key string) string {
	if key == "" {
		return NA
	}
	return cases.Title(language.English).String(strings.ReplaceAll(key, "_", " "))
}

// ErrorMessages maps failure kinds to user-facing text.
var ErrorMessages = map[string]string{
	"invalid_ticker": "Please enter a valid stock ticker symbol (e.g., AAPL, GOOGL, MSFT)",
	"no_data":        "No data available for the specified ticker and time period",
	"api_error":      "Unable to fetch data from external API. Please try again later.",
	"file_error":     "Error reading the uploaded file. Please check the file format.",
	"network_error":  "Network connection error. Please check your internet connection.",
}
