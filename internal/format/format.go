// Package format renders metrics for people: currency with thousands
// separators, percentages, counts and dates. Undefined ratios render as
// "n/a".
package format

import (
	"math"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"superstore-dashboard/internal/models"
)

const NotAvailable = "n/a"

// Currency formats v as dollars with cents, e.g. "$1,234.50" or "-$10.00".
func Currency(v float64) string {
	return money(v, "#,###.##", 2)
}

// CurrencyWhole formats v as whole dollars, e.g. "$1,235".
func CurrencyWhole(v float64) string {
	return money(v, "#,###.", 0)
}

// money rounds to the pattern's precision before taking the sign, so values
// that round to zero never print as "-$0".
func money(v float64, pattern string, decimals int) string {
	scale := math.Pow10(decimals)
	v = math.Round(v*scale) / scale
	sign := ""
	if v < 0 {
		sign = "-"
		v = math.Abs(v)
	}
	return sign + "$" + humanize.FormatFloat(pattern, v)
}

func CurrencyRatio(r models.Ratio) string {
	v, ok := r.Get()
	if !ok {
		return NotAvailable
	}
	return Currency(v)
}

// Percent formats a percentage ratio with the given number of decimals.
func Percent(r models.Ratio, decimals int) string {
	v, ok := r.Get()
	if !ok {
		return NotAvailable
	}
	return strconv.FormatFloat(v, 'f', decimals, 64) + "%"
}

func Count(n int) string {
	return humanize.Comma(int64(n))
}

func Date(t time.Time) string {
	if t.IsZero() {
		return NotAvailable
	}
	return t.Format(time.DateOnly)
}

func DateRange(r models.DateRange) string {
	if !r.Valid {
		return NotAvailable
	}
	return Date(r.From) + " to " + Date(r.To)
}
