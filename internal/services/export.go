package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"superstore-dashboard/internal/format"
	"superstore-dashboard/internal/models"
)

var exportHeader = []string{
	"Row ID", "Order ID", "Order Date", "Ship Date", "Ship Mode",
	"Customer ID", "Customer Name", "Segment", "Country", "City", "State",
	"Postal Code", "Region", "Product ID", "Category", "Sub-Category",
	"Product Name", "Sales", "Quantity", "Discount", "Profit",
	"Year", "Month", "Quarter", "Month Name", "Weekday", "Profit Margin",
	"Days to Ship",
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatRatio(r models.Ratio) string {
	v, ok := r.Get()
	if !ok {
		return ""
	}
	return formatNumber(v)
}

// WriteRowsCSV writes rows, raw and derived columns, exactly as given. The
// output depends only on rows.
func WriteRowsCSV(w io.Writer, rows []models.EnrichedTransaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, r := range rows {
		record := []string{
			r.RowID, r.OrderID,
			r.OrderedOn.Format(time.DateOnly), r.ShippedOn.Format(time.DateOnly),
			r.ShipMode, r.CustomerID, r.CustomerName, r.Segment,
			r.Country, r.City, r.State, r.PostalCode, r.Region,
			r.ProductID, r.Category, r.SubCategory, r.ProductName,
			formatNumber(r.Sales), strconv.Itoa(r.Quantity),
			formatNumber(r.Discount), formatNumber(r.Profit),
			strconv.Itoa(r.Year), strconv.Itoa(r.Month), strconv.Itoa(r.Quarter),
			r.MonthName, r.Weekday, formatRatio(r.ProfitMargin),
			strconv.Itoa(r.DaysToShip),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %s: %w", r.OrderID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteSummaryCSV writes the KPI summary as Metric,Value pairs.
func WriteSummaryCSV(w io.Writer, kpi models.KPISummary) error {
	cw := csv.NewWriter(w)
	records := [][]string{
		{"Metric", "Value"},
		{"Total Sales", format.Currency(kpi.TotalSales)},
		{"Total Profit", format.Currency(kpi.TotalProfit)},
		{"Total Orders", format.Count(kpi.Orders)},
		{"Avg Order Value", format.CurrencyRatio(kpi.AvgOrderValue)},
		{"Profit Margin", format.Percent(kpi.ProfitMargin, 2)},
		{"Date Range", format.DateRange(kpi.DateRange)},
	}
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
