package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"superstore-dashboard/internal/models"
)

type line struct {
	order, customer, date     string
	region, category, segment string
	product                   string
	sales, profit             float64
	quantity                  int
}

func raw(lines ...line) []models.Transaction {
	out := make([]models.Transaction, 0, len(lines))
	for _, l := range lines {
		tx := models.Transaction{
			OrderID:      l.order,
			OrderDate:    l.date,
			ShipDate:     l.date,
			CustomerID:   l.customer,
			CustomerName: "Customer " + l.customer,
			Region:       l.region,
			Category:     l.category,
			Segment:      l.segment,
			ProductName:  l.product,
			Sales:        l.sales,
			Profit:       l.profit,
			Quantity:     l.quantity,
		}
		if tx.OrderDate == "" {
			tx.OrderDate, tx.ShipDate = "2016-01-15", "2016-01-18"
		}
		if tx.Quantity == 0 {
			tx.Quantity = 1
		}
		out = append(out, tx)
	}
	return out
}

func enriched(t *testing.T, lines ...line) []models.EnrichedTransaction {
	t.Helper()
	rows, err := Enrich(raw(lines...))
	require.NoError(t, err)
	return rows
}

// scenario is the three-line worked example: two lines of order A in the
// East and one line of order B in the West.
func scenario(t *testing.T) []models.EnrichedTransaction {
	return enriched(t,
		line{order: "A", customer: "C1", region: "East", category: "Furniture", segment: "Consumer", product: "Chair", sales: 100, profit: 20},
		line{order: "A", customer: "C1", region: "East", category: "Technology", segment: "Consumer", product: "Phone", sales: 50, profit: -10},
		line{order: "B", customer: "C2", region: "West", category: "Furniture", segment: "Corporate", product: "Table", sales: 200, profit: 40},
	)
}

// sample spans three years across several regions and categories.
func sample(t *testing.T) []models.EnrichedTransaction {
	return enriched(t,
		line{order: "O1", customer: "C1", date: "1/3/2015", region: "East", category: "Furniture", segment: "Consumer", product: "Chair", sales: 120.5, profit: 10.25, quantity: 2},
		line{order: "O1", customer: "C1", date: "1/3/2015", region: "East", category: "Office Supplies", segment: "Consumer", product: "Paper", sales: 15.1, profit: 4.4, quantity: 5},
		line{order: "O2", customer: "C2", date: "2015-06-20", region: "West", category: "Technology", segment: "Corporate", product: "Phone", sales: 499.99, profit: 120, quantity: 1},
		line{order: "O3", customer: "C3", date: "2016/02/11", region: "Central", category: "Furniture", segment: "Home Office", product: "Table", sales: 300, profit: -45.5, quantity: 1},
		line{order: "O4", customer: "C1", date: "12-24-2016", region: "South", category: "Office Supplies", segment: "Consumer", product: "Binder", sales: 0, profit: -2, quantity: 3},
		line{order: "O5", customer: "C4", date: "8/9/2017", region: "West", category: "Technology", segment: "Corporate", product: "Phone", sales: 250.25, profit: 60.1, quantity: 1},
		line{order: "O6", customer: "C2", date: "11/30/2017", region: "East", category: "Technology", segment: "Corporate", product: "Copier", sales: 899.9, profit: 300, quantity: 2},
	)
}

type memorySource []models.Transaction

func (m memorySource) Load(context.Context) ([]models.Transaction, error) {
	return m, nil
}

func (memorySource) String() string { return "memory-fixture" }
