package models

import "time"

// Transaction is one order line as read from the source table. Dates are
// kept verbatim; the enricher owns parsing them.
type Transaction struct {
	RowID        string  `json:"row_id,omitempty"`
	OrderID      string  `json:"order_id" validate:"required"`
	OrderDate    string  `json:"order_date"`
	ShipDate     string  `json:"ship_date"`
	ShipMode     string  `json:"ship_mode,omitempty"`
	CustomerID   string  `json:"customer_id" validate:"required"`
	CustomerName string  `json:"customer_name"`
	Segment      string  `json:"segment"`
	Country      string  `json:"country,omitempty"`
	City         string  `json:"city,omitempty"`
	State        string  `json:"state,omitempty"`
	PostalCode   string  `json:"postal_code,omitempty"`
	Region       string  `json:"region"`
	ProductID    string  `json:"product_id,omitempty"`
	Category     string  `json:"category"`
	SubCategory  string  `json:"sub_category"`
	ProductName  string  `json:"product_name"`
	Sales        float64 `json:"sales" validate:"gte=0"`
	Quantity     int     `json:"quantity" validate:"gt=0"`
	Discount     float64 `json:"discount" validate:"gte=0,lte=1"`
	Profit       float64 `json:"profit"`
}

type EnrichedTransaction struct {
	Transaction

	OrderedOn    time.Time `json:"ordered_on"`
	ShippedOn    time.Time `json:"shipped_on"`
	Year         int       `json:"year"`
	Month        int       `json:"month"`
	Quarter      int       `json:"quarter"`
	MonthName    string    `json:"month_name"`
	Weekday      string    `json:"weekday"`
	ProfitMargin Ratio     `json:"profit_margin"`
	DaysToShip   int       `json:"days_to_ship"`
}

type AggregateRow struct {
	Key              []string `json:"key"`
	Label            string   `json:"label"`
	Sales            float64  `json:"sales"`
	Profit           float64  `json:"profit"`
	Quantity         int      `json:"quantity"`
	Lines            int      `json:"lines"`
	Orders           int      `json:"orders"`
	Customers        int      `json:"customers"`
	ProfitMargin     Ratio    `json:"profit_margin"`
	AvgOrderValue    Ratio    `json:"avg_order_value"`
	SalesPerCustomer Ratio    `json:"sales_per_customer"`
}

type AggregateTable struct {
	Dimensions []string       `json:"dimensions"`
	Rows       []AggregateRow `json:"rows"`
}

func (t AggregateTable) Len() int {
	return len(t.Rows)
}

type DateRange struct {
	From  time.Time `json:"from"`
	To    time.Time `json:"to"`
	Valid bool      `json:"valid"`
}

type KPISummary struct {
	TotalSales    float64   `json:"total_sales"`
	TotalProfit   float64   `json:"total_profit"`
	Orders        int       `json:"orders"`
	Customers     int       `json:"customers"`
	Lines         int       `json:"lines"`
	AvgOrderValue Ratio     `json:"avg_order_value"`
	ProfitMargin  Ratio     `json:"profit_margin"`
	DateRange     DateRange `json:"date_range"`
}

type YearGrowth struct {
	Year   int     `json:"year"`
	Sales  float64 `json:"sales"`
	Growth Ratio   `json:"growth"`
}
