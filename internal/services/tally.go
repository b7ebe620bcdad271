package services

import (
	"github.com/shopspring/decimal"

	"superstore-dashboard/internal/models"
)

var hundred = decimal.NewFromInt(100)

// tally accumulates one group of rows. Money is summed as decimals so the
// totals do not drift with row order; floats are produced once, at the end.
type tally struct {
	sales     decimal.Decimal
	profit    decimal.Decimal
	quantity  int
	lines     int
	orders    map[string]struct{}
	customers map[string]struct{}
}

func newTally() *tally {
	return &tally{
		orders:    make(map[string]struct{}),
		customers: make(map[string]struct{}),
	}
}

func (t *tally) add(r models.EnrichedTransaction) {
	t.sales = t.sales.Add(decimal.NewFromFloat(r.Sales))
	t.profit = t.profit.Add(decimal.NewFromFloat(r.Profit))
	t.quantity += r.Quantity
	t.lines++
	t.orders[r.OrderID] = struct{}{}
	t.customers[r.CustomerID] = struct{}{}
}

func (t *tally) row(key []string, label string) models.AggregateRow {
	return models.AggregateRow{
		Key:              key,
		Label:            label,
		Sales:            t.sales.InexactFloat64(),
		Profit:           t.profit.InexactFloat64(),
		Quantity:         t.quantity,
		Lines:            t.lines,
		Orders:           len(t.orders),
		Customers:        len(t.customers),
		ProfitMargin:     percent(t.profit, t.sales),
		AvgOrderValue:    quotient(t.sales, decimal.NewFromInt(int64(len(t.orders)))),
		SalesPerCustomer: quotient(t.sales, decimal.NewFromInt(int64(len(t.customers)))),
	}
}

// percent is num/den*100 rounded to 2 places, undefined when den is zero.
func percent(num, den decimal.Decimal) models.Ratio {
	if den.IsZero() {
		return models.Ratio{}
	}
	return models.NewRatio(num.Mul(hundred).Div(den).Round(2).InexactFloat64())
}

func quotient(num, den decimal.Decimal) models.Ratio {
	if den.IsZero() {
		return models.Ratio{}
	}
	return models.NewRatio(num.Div(den).Round(2).InexactFloat64())
}
