package services

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "superstore-dashboard/internal/errors"
	"superstore-dashboard/internal/models"
)

type Metric string

const (
	MetricSales            Metric = "sales"
	MetricProfit           Metric = "profit"
	MetricQuantity         Metric = "quantity"
	MetricOrders           Metric = "orders"
	MetricCustomers        Metric = "customers"
	MetricProfitMargin     Metric = "profit_margin"
	MetricAvgOrderValue    Metric = "avg_order_value"
	MetricSalesPerCustomer Metric = "sales_per_customer"
)

var Metrics = []Metric{
	MetricSales, MetricProfit, MetricQuantity, MetricOrders, MetricCustomers,
	MetricProfitMargin, MetricAvgOrderValue, MetricSalesPerCustomer,
}

func ParseMetric(s string) (Metric, error) {
	m := Metric(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Metrics, m) {
		return "", fmt.Errorf("unknown metric %q", s)
	}
	return m, nil
}

// value extracts the metric; ok is false for undefined ratios and unknown
// metrics.
func (m Metric) value(r models.AggregateRow) (float64, bool) {
	switch m {
	case MetricSales:
		return r.Sales, true
	case MetricProfit:
		return r.Profit, true
	case MetricQuantity:
		return float64(r.Quantity), true
	case MetricOrders:
		return float64(r.Orders), true
	case MetricCustomers:
		return float64(r.Customers), true
	case MetricProfitMargin:
		return r.ProfitMargin.Get()
	case MetricAvgOrderValue:
		return r.AvgOrderValue.Get()
	case MetricSalesPerCustomer:
		return r.SalesPerCustomer.Get()
	}
	return 0, false
}

type Direction int

const (
	Max Direction = iota
	Min
)

func (d Direction) String() string {
	if d == Min {
		return "min"
	}
	return "max"
}

// Extremum returns the row with the highest (Max) or lowest (Min) value of
// metric. Rows where the metric is undefined are skipped. Exact ties go to
// the row whose key sorts first. An empty table yields *NoDataError.
func Extremum(table models.AggregateTable, metric Metric, dir Direction) (models.AggregateRow, error) {
	if !slices.Contains(Metrics, metric) {
		return models.AggregateRow{}, fmt.Errorf("unknown metric %q", metric)
	}

	best := -1
	var bestValue float64
	for i, row := range table.Rows {
		v, ok := metric.value(row)
		if !ok {
			continue
		}
		if best < 0 || beats(v, bestValue, dir) ||
			(v == bestValue && compareKeys(row.Key, table.Rows[best].Key) < 0) {
			best, bestValue = i, v
		}
	}

	if best < 0 {
		return models.AggregateRow{}, &apperrors.NoDataError{
			Operation: fmt.Sprintf("%s %s", dir, metric),
		}
	}
	return table.Rows[best], nil
}

func beats(v, current float64, dir Direction) bool {
	if dir == Min {
		return v < current
	}
	return v > current
}

// Breakdown is the set of aggregate tables the insight panel is built from.
type Breakdown struct {
	Regions      models.AggregateTable `json:"regions"`
	Categories   models.AggregateTable `json:"categories"`
	Segments     models.AggregateTable `json:"segments"`
	MonthsOfYear models.AggregateTable `json:"months_of_year"`
}

func NewBreakdown(rows []models.EnrichedTransaction) Breakdown {
	return Breakdown{
		Regions:      Aggregate(rows, ByRegion, SalesDesc, nil),
		Categories:   Aggregate(rows, ByCategory, SalesDesc, nil),
		Segments:     Aggregate(rows, BySegment, SalesDesc, nil),
		MonthsOfYear: Aggregate(rows, ByMonthOfYear, KeyAsc, nil),
	}
}

type Highlight struct {
	Dimension string  `json:"dimension"`
	Key       string  `json:"key"`
	Label     string  `json:"label"`
	Metric    Metric  `json:"metric"`
	Value     float64 `json:"value"`
}

// marginUplift is the margin improvement assumed by the profit opportunity.
var marginUplift = decimal.RequireFromString("0.05")

type Insights struct {
	TopRegionBySales            *Highlight   `json:"top_region_by_sales,omitempty"`
	TopRegionBySalesPerCustomer *Highlight   `json:"top_region_by_sales_per_customer,omitempty"`
	TopCategoryByMargin         *Highlight   `json:"top_category_by_margin,omitempty"`
	BottomCategoryByMargin      *Highlight   `json:"bottom_category_by_margin,omitempty"`
	TopSegmentByMargin          *Highlight   `json:"top_segment_by_margin,omitempty"`
	PeakMonth                   *Highlight   `json:"peak_month,omitempty"`
	SlowestMonth                *Highlight   `json:"slowest_month,omitempty"`
	ProfitOpportunity           models.Ratio `json:"profit_opportunity"`
}

func (in Insights) Empty() bool {
	return in.TopRegionBySales == nil && in.TopCategoryByMargin == nil &&
		in.TopSegmentByMargin == nil && in.PeakMonth == nil
}

// InsightsFrom selects the qualitative statements. A statement with no
// data behind it is left nil.
func InsightsFrom(b Breakdown) Insights {
	in := Insights{
		TopRegionBySales:            highlight(b.Regions, MetricSales, Max),
		TopRegionBySalesPerCustomer: highlight(b.Regions, MetricSalesPerCustomer, Max),
		TopCategoryByMargin:         highlight(b.Categories, MetricProfitMargin, Max),
		BottomCategoryByMargin:      highlight(b.Categories, MetricProfitMargin, Min),
		TopSegmentByMargin:          highlight(b.Segments, MetricProfitMargin, Max),
		PeakMonth:                   highlight(b.MonthsOfYear, MetricSales, Max),
		SlowestMonth:                highlight(b.MonthsOfYear, MetricSales, Min),
	}

	if row, err := Extremum(b.Categories, MetricProfitMargin, Max); err == nil {
		uplift := decimal.NewFromFloat(row.Sales).Mul(marginUplift).Round(2)
		in.ProfitOpportunity = models.NewRatio(uplift.InexactFloat64())
	}
	return in
}

func highlight(table models.AggregateTable, metric Metric, dir Direction) *Highlight {
	row, err := Extremum(table, metric, dir)
	if err != nil {
		return nil
	}
	v, _ := metric.value(row)
	return &Highlight{
		Dimension: strings.Join(table.Dimensions, "+"),
		Key:       strings.Join(row.Key, "/"),
		Label:     row.Label,
		Metric:    metric,
		Value:     v,
	}
}
