package services

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "superstore-dashboard/internal/errors"
	"superstore-dashboard/internal/models"
)

// Layouts accepted for order and ship dates, tried in order. Month-first
// layouts win over day-first ones, matching the US source data.
var dateLayouts = []string{
	"1/2/2006",
	"2006-01-02",
	"2006/01/02",
	"01-02-2006",
	"1/2/06",
	"2006-01-02 15:04:05",
}

func parseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// Enrich derives calendar fields and row metrics for every row, keeping
// order and cardinality. The first unparseable date aborts with a
// *MalformedDateError.
func Enrich(raw []models.Transaction) ([]models.EnrichedTransaction, error) {
	out := make([]models.EnrichedTransaction, 0, len(raw))
	for i, tx := range raw {
		row, err := enrichRow(i+1, tx)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

// EnrichLenient is Enrich that rejects rows with malformed dates instead of
// failing. Every rejection is returned so callers can report the count.
func EnrichLenient(raw []models.Transaction) ([]models.EnrichedTransaction, []*apperrors.MalformedDateError) {
	out := make([]models.EnrichedTransaction, 0, len(raw))
	var rejected []*apperrors.MalformedDateError
	for i, tx := range raw {
		row, err := enrichRow(i+1, tx)
		if err != nil {
			rejected = append(rejected, err)
			continue
		}
		out = append(out, row)
	}
	return out, rejected
}

func enrichRow(n int, tx models.Transaction) (models.EnrichedTransaction, *apperrors.MalformedDateError) {
	ordered, ok := parseDate(tx.OrderDate)
	if !ok {
		return models.EnrichedTransaction{}, &apperrors.MalformedDateError{
			Row: n, OrderID: tx.OrderID, Field: "order date", Value: tx.OrderDate,
		}
	}
	shipped, ok := parseDate(tx.ShipDate)
	if !ok {
		return models.EnrichedTransaction{}, &apperrors.MalformedDateError{
			Row: n, OrderID: tx.OrderID, Field: "ship date", Value: tx.ShipDate,
		}
	}

	month := int(ordered.Month())
	return models.EnrichedTransaction{
		Transaction:  tx,
		OrderedOn:    ordered,
		ShippedOn:    shipped,
		Year:         ordered.Year(),
		Month:        month,
		Quarter:      (month-1)/3 + 1,
		MonthName:    ordered.Month().String(),
		Weekday:      ordered.Weekday().String(),
		ProfitMargin: percent(decimal.NewFromFloat(tx.Profit), decimal.NewFromFloat(tx.Sales)),
		DaysToShip:   daysBetween(ordered, shipped),
	}, nil
}

// daysBetween counts calendar days from a to b. Both are UTC midnights so
// the hour count is always a multiple of 24.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
