// Package report renders the console business report for one dataset
// snapshot.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/samber/lo"

	"superstore-dashboard/internal/format"
	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/services"
)

const (
	ruleWidth   = 60
	nameWidth   = 50
	defaultTopN = 5
	uplift      = "5%"
)

type Options struct {
	TopN int
}

type textColumn struct {
	name string
	get  func(models.Transaction) string
}

var textColumns = []textColumn{
	{"Row ID", func(t models.Transaction) string { return t.RowID }},
	{"Order ID", func(t models.Transaction) string { return t.OrderID }},
	{"Ship Mode", func(t models.Transaction) string { return t.ShipMode }},
	{"Customer ID", func(t models.Transaction) string { return t.CustomerID }},
	{"Customer Name", func(t models.Transaction) string { return t.CustomerName }},
	{"Segment", func(t models.Transaction) string { return t.Segment }},
	{"Country", func(t models.Transaction) string { return t.Country }},
	{"City", func(t models.Transaction) string { return t.City }},
	{"State", func(t models.Transaction) string { return t.State }},
	{"Postal Code", func(t models.Transaction) string { return t.PostalCode }},
	{"Region", func(t models.Transaction) string { return t.Region }},
	{"Product ID", func(t models.Transaction) string { return t.ProductID }},
	{"Category", func(t models.Transaction) string { return t.Category }},
	{"Sub-Category", func(t models.Transaction) string { return t.SubCategory }},
	{"Product Name", func(t models.Transaction) string { return t.ProductName }},
}

// printer keeps the first write error so sections can be written without
// checking every line.
type printer struct {
	w   *tabwriter.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) heading(title string, rule string) {
	p.flush()
	p.printf("\n%s\n%s\n", title, strings.Repeat(rule, ruleWidth))
}

// flush ends a tab-aligned block so each section is aligned on its own.
func (p *printer) flush() {
	if p.err != nil {
		return
	}
	p.err = p.w.Flush()
}

// Render writes every report section for ds to w.
func Render(w io.Writer, ds *services.Dataset, opts Options) error {
	if opts.TopN <= 0 {
		opts.TopN = defaultTopN
	}
	p := &printer{w: tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)}

	rows := ds.Rows
	kpi := services.Summarize(rows)
	breakdown := services.NewBreakdown(rows)

	overview(p, ds)
	columnInfo(p, rows)
	quality(p, ds)
	kpis(p, kpi)
	trends(p, rows, breakdown)
	segments(p, breakdown.Segments)
	categories(p, breakdown.Categories)
	regions(p, breakdown.Regions)
	topPerformers(p, rows, opts.TopN)
	insights(p, services.InsightsFrom(breakdown))

	p.flush()
	return p.err
}

func overview(p *printer, ds *services.Dataset) {
	p.heading("DATASET OVERVIEW", "=")
	p.printf("Source:\t%s\n", ds.Source)
	p.printf("Shape:\t%s rows x %d columns\n", format.Count(len(ds.Rows)), ds.Columns)
	p.printf("Rejected rows:\t%s\n", format.Count(len(ds.Rejected)))
	for _, r := range ds.Rejected {
		p.printf("\t%s\n", r.Error())
	}
}

func columnInfo(p *printer, rows []models.EnrichedTransaction) {
	p.heading("COLUMN INFORMATION", "=")
	for _, c := range textColumns {
		distinct := lo.Uniq(lo.Map(rows, func(r models.EnrichedTransaction, _ int) string {
			return c.get(r.Transaction)
		}))
		p.printf("%s\ttext\t%s unique values\n", c.name, format.Count(len(distinct)))
	}
}

// quality counts blanks over every source row, rejected rows included.
func quality(p *printer, ds *services.Dataset) {
	p.heading("DATA QUALITY CHECK", "=")
	isBlank := func(c textColumn, t models.Transaction) bool {
		return strings.TrimSpace(c.get(t)) == ""
	}
	found := false
	for _, c := range textColumns {
		blank := lo.CountBy(ds.Rows, func(r models.EnrichedTransaction) bool {
			return isBlank(c, r.Transaction)
		}) + lo.CountBy(ds.RejectedRows, func(t models.Transaction) bool {
			return isBlank(c, t)
		})
		if blank == 0 {
			continue
		}
		if !found {
			p.printf("Missing values detected:\n")
			found = true
		}
		p.printf("%s\t%s\n", c.name, format.Count(blank))
	}
	if !found {
		p.printf("No missing values found\n")
	}
}

func kpis(p *printer, kpi models.KPISummary) {
	p.heading("KEY PERFORMANCE INDICATORS", "-")
	p.printf("Total Sales:\t%s\n", format.Currency(kpi.TotalSales))
	p.printf("Total Profit:\t%s\n", format.Currency(kpi.TotalProfit))
	p.printf("Total Orders:\t%s\n", format.Count(kpi.Orders))
	p.printf("Average Order:\t%s\n", format.CurrencyRatio(kpi.AvgOrderValue))
	p.printf("Profit Margin:\t%s\n", format.Percent(kpi.ProfitMargin, 2))
	p.printf("Date Range:\t%s\n", format.DateRange(kpi.DateRange))
}

func trends(p *printer, rows []models.EnrichedTransaction, b services.Breakdown) {
	p.heading("SALES TRENDS ANALYSIS", "-")
	if best, err := services.Extremum(b.MonthsOfYear, services.MetricSales, services.Max); err == nil {
		p.printf("Best Month:\t%s (%s)\n", best.Label, format.Currency(best.Sales))
	}
	if worst, err := services.Extremum(b.MonthsOfYear, services.MetricSales, services.Min); err == nil {
		p.printf("Worst Month:\t%s (%s)\n", worst.Label, format.Currency(worst.Sales))
	}
	growth := services.YearOverYear(rows)
	if len(growth) < 2 {
		return
	}
	for _, g := range growth {
		p.printf("YoY Growth %d:\t%s\n", g.Year, format.Percent(g.Growth, 1))
	}
}

func segments(p *printer, table models.AggregateTable) {
	p.heading("CUSTOMER SEGMENTATION", "-")
	p.printf("Segment\tSales\tProfit\tMargin\n")
	for _, r := range table.Rows {
		p.printf("%s\t%s\t%s\t%s\n", r.Label,
			format.CurrencyWhole(r.Sales), format.CurrencyWhole(r.Profit), format.Percent(r.ProfitMargin, 1))
	}
}

func categories(p *printer, table models.AggregateTable) {
	p.heading("PRODUCT CATEGORY PERFORMANCE", "-")
	p.printf("Category\tSales\tMargin\tAOV\n")
	for _, r := range table.Rows {
		aov := format.NotAvailable
		if v, ok := r.AvgOrderValue.Get(); ok {
			aov = format.CurrencyWhole(v)
		}
		p.printf("%s\t%s\t%s\t%s\n", r.Label, format.CurrencyWhole(r.Sales), format.Percent(r.ProfitMargin, 1), aov)
	}
}

func regions(p *printer, table models.AggregateTable) {
	p.heading("REGIONAL PERFORMANCE", "-")
	p.printf("Region\tSales\tCustomers\tSales/Customer\n")
	for _, r := range table.Rows {
		perCustomer := format.NotAvailable
		if v, ok := r.SalesPerCustomer.Get(); ok {
			perCustomer = format.CurrencyWhole(v)
		}
		p.printf("%s\t%s\t%s\t%s\n", r.Label, format.CurrencyWhole(r.Sales), format.Count(r.Customers), perCustomer)
	}
}

func topPerformers(p *printer, rows []models.EnrichedTransaction, n int) {
	p.heading("TOP PERFORMERS", "-")
	products := services.TopN(services.Aggregate(rows, services.ByProduct, services.SalesDesc, nil), n)
	p.printf("Top %d Products by Sales:\n", n)
	for i, r := range products.Rows {
		p.printf("%d. %s\t%s\n", i+1, truncate(r.Label, nameWidth), format.CurrencyWhole(r.Sales))
	}

	p.flush()
	customers := services.TopN(services.Aggregate(rows, services.ByCustomer, services.SalesDesc, nil), n)
	p.printf("\nTop %d Customers by Sales:\n", n)
	for i, r := range customers.Rows {
		p.printf("%d. %s\t%s\n", i+1, r.Label, format.CurrencyWhole(r.Sales))
	}
}

func insights(p *printer, in services.Insights) {
	p.heading("KEY BUSINESS INSIGHTS", "=")
	if in.Empty() {
		p.printf("No data to draw insights from\n")
		return
	}

	p.printf("OPPORTUNITIES IDENTIFIED:\n")
	if h := in.TopRegionBySales; h != nil {
		p.printf("  - %s region generates highest sales (%s)\n", h.Label, format.CurrencyWhole(h.Value))
	}
	if h := in.TopRegionBySalesPerCustomer; h != nil {
		p.printf("  - %s region has the highest sales per customer (%s)\n", h.Label, format.CurrencyWhole(h.Value))
	}
	if h := in.TopCategoryByMargin; h != nil {
		p.printf("  - %s category has highest profit margin (%.1f%%)\n", h.Label, h.Value)
	}
	if h := in.TopSegmentByMargin; h != nil {
		p.printf("  - %s segment most profitable (%.1f%% margin)\n", h.Label, h.Value)
	}
	if h := in.BottomCategoryByMargin; h != nil {
		p.printf("  - Improvement needed in %s category (%.1f%% margin)\n", h.Label, h.Value)
	}
	if v, ok := in.ProfitOpportunity.Get(); ok {
		p.printf("  - Potential profit increase: %s (%s margin improvement on best category)\n",
			format.CurrencyWhole(v), uplift)
	}
	if h := in.PeakMonth; h != nil {
		p.printf("  - %s is the strongest month (%s)\n", h.Label, format.CurrencyWhole(h.Value))
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
