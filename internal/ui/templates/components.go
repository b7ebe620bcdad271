package templates

import (
	"context"
	"fmt"
	"strings"

	"github.com/a-h/templ"

	"superstore-dashboard/internal/format"
	"superstore-dashboard/internal/services"
)

// Element ids patched by the SSE handlers.
const (
	KPICardsID     = "kpi-cards"
	InsightsID     = "insights-panel"
	TrendID        = "monthly-trend"
	RegionsID      = "regions-table"
	CategoriesID   = "categories-table"
	SegmentsID     = "segments-table"
	TopProductsID  = "top-products-table"
	TopCustomersID = "top-customers-table"
	YearOverYearID = "yoy-table"
	StatusID       = "dataset-status"
)

// Render returns the markup of c as a string, for SSE patches.
func Render(ctx context.Context, c templ.Component) (string, error) {
	var b strings.Builder
	if err := c.Render(ctx, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}

// insightLines phrases each available highlight as one sentence.
func insightLines(in services.Insights) []string {
	var lines []string
	add := func(pattern string, args ...any) {
		lines = append(lines, fmt.Sprintf(pattern, args...))
	}

	if x := in.TopRegionBySales; x != nil {
		add("%s region leads sales with %s", x.Label, format.CurrencyWhole(x.Value))
	}
	if x := in.TopRegionBySalesPerCustomer; x != nil {
		add("%s region has the highest sales per customer (%s)", x.Label, format.CurrencyWhole(x.Value))
	}
	if x := in.TopCategoryByMargin; x != nil {
		add("%s has the best profit margin at %.1f%%", x.Label, x.Value)
	}
	if x := in.BottomCategoryByMargin; x != nil {
		add("%s has the weakest profit margin at %.1f%%", x.Label, x.Value)
	}
	if x := in.TopSegmentByMargin; x != nil {
		add("%s is the most profitable segment (%.1f%% margin)", x.Label, x.Value)
	}
	if x := in.PeakMonth; x != nil {
		add("%s is the peak month (%s)", x.Label, format.CurrencyWhole(x.Value))
	}
	if x := in.SlowestMonth; x != nil {
		add("%s is the slowest month (%s)", x.Label, format.CurrencyWhole(x.Value))
	}
	if v, ok := in.ProfitOpportunity.Get(); ok {
		add("A 5%% margin improvement on the best category adds %s in profit", format.CurrencyWhole(v))
	}
	return lines
}

func statusLine(v *services.View, source string, rejected int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s rows selected from %s (snapshot %d", format.Count(len(v.Rows)), source, v.Version)
	if rejected > 0 {
		fmt.Fprintf(&b, ", %s rows rejected", format.Count(rejected))
	}
	fmt.Fprintf(&b, ") covering %s", format.DateRange(v.Summary.DateRange))
	return b.String()
}
