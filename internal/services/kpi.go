package services

import (
	"github.com/shopspring/decimal"

	"superstore-dashboard/internal/models"
)

// Summarize computes the headline KPIs straight from rows. It shares the
// accumulator with Aggregate but does not depend on any aggregate table.
func Summarize(rows []models.EnrichedTransaction) models.KPISummary {
	t := newTally()
	var span models.DateRange

	for _, r := range rows {
		t.add(r)
		if !span.Valid {
			span = models.DateRange{From: r.OrderedOn, To: r.OrderedOn, Valid: true}
			continue
		}
		if r.OrderedOn.Before(span.From) {
			span.From = r.OrderedOn
		}
		if r.OrderedOn.After(span.To) {
			span.To = r.OrderedOn
		}
	}

	return models.KPISummary{
		TotalSales:    t.sales.InexactFloat64(),
		TotalProfit:   t.profit.InexactFloat64(),
		Orders:        len(t.orders),
		Customers:     len(t.customers),
		Lines:         t.lines,
		AvgOrderValue: quotient(t.sales, decimal.NewFromInt(int64(len(t.orders)))),
		ProfitMargin:  percent(t.profit, t.sales),
		DateRange:     span,
	}
}

// KPIShare expresses a filtered summary as a percentage of the full one.
type KPIShare struct {
	Sales  models.Ratio `json:"sales"`
	Profit models.Ratio `json:"profit"`
	Orders models.Ratio `json:"orders"`
}

func Share(part, whole float64) models.Ratio {
	return percent(decimal.NewFromFloat(part), decimal.NewFromFloat(whole))
}

func CompareToTotal(filtered, total models.KPISummary) KPIShare {
	return KPIShare{
		Sales:  Share(filtered.TotalSales, total.TotalSales),
		Profit: Share(filtered.TotalProfit, total.TotalProfit),
		Orders: Share(float64(filtered.Orders), float64(total.Orders)),
	}
}
