package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/services"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func testTransactions() []models.Transaction {
	return []models.Transaction{
		{
			OrderID: "CA-2016-1", OrderDate: "2016-01-15", ShipDate: "2016-01-18",
			CustomerID: "C1", CustomerName: "Claire Gute", Segment: "Consumer", Region: "East",
			Category: "Furniture", SubCategory: "Chairs", ProductName: "Chair",
			Sales: 100, Quantity: 2, Profit: 20,
		},
		{
			OrderID: "CA-2016-1", OrderDate: "2016-01-15", ShipDate: "2016-01-18",
			CustomerID: "C1", CustomerName: "Claire Gute", Segment: "Consumer", Region: "East",
			Category: "Technology", SubCategory: "Phones", ProductName: "Phone",
			Sales: 50, Quantity: 1, Profit: -10,
		},
		{
			OrderID: "CA-2017-2", OrderDate: "2017-03-02", ShipDate: "2017-03-06",
			CustomerID: "C2", CustomerName: "Darrin Van Huff", Segment: "Corporate", Region: "West",
			Category: "Furniture", SubCategory: "Tables", ProductName: "Table",
			Sales: 200, Quantity: 1, Profit: 40,
		},
	}
}

type fixedSource []models.Transaction

func (s fixedSource) Load(context.Context) ([]models.Transaction, error) { return s, nil }

func createTestAnalytics() *services.Analytics {
	a := services.NewAnalytics(nil, testLogger, services.Options{})
	if err := a.SetData(testTransactions()); err != nil {
		panic(err)
	}
	return a
}

// envelope decodes the success wrapper around data.
func envelope[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var response struct {
		Success bool `json:"success"`
		Data    T    `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if !response.Success {
		t.Fatal("expected success=true in response")
	}
	return response.Data
}

type errorBody struct {
	Success bool `json:"success"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error JSON: %v", err)
	}
	if body.Success {
		t.Error("expected success=false in error response")
	}
	return body
}

func serve(handler http.HandlerFunc, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestNewAPIHandlers(t *testing.T) {
	analytics := createTestAnalytics()
	handlers := NewAPIHandlers(analytics, testLogger)

	if handlers == nil {
		t.Fatal("NewAPIHandlers() returned nil")
	}
	if handlers.analytics != analytics {
		t.Error("NewAPIHandlers() should set analytics field")
	}
	if handlers.logger != testLogger {
		t.Error("NewAPIHandlers() should set logger field")
	}
}

func TestAPIHandlers_HandleKPIs(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger)

	w := serve(handlers.HandleKPIs, http.MethodGet, "/api/kpis")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	data := envelope[kpiResponse](t, w)
	if data.Summary.TotalSales != 350 || data.Summary.TotalProfit != 50 {
		t.Errorf("unexpected totals: %+v", data.Summary)
	}
	if data.Summary.Orders != 2 || data.Summary.Customers != 2 || data.Summary.Lines != 3 {
		t.Errorf("unexpected counts: %+v", data.Summary)
	}
	if v, ok := data.Summary.AvgOrderValue.Get(); !ok || v != 175 {
		t.Errorf("expected average order value 175, got %v (defined=%v)", v, ok)
	}
	if v, ok := data.Share.Sales.Get(); !ok || v != 100 {
		t.Errorf("unfiltered view should hold 100%% of sales, got %v", v)
	}
}

func TestAPIHandlers_HandleKPIs_Filtered(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger)

	w := serve(handlers.HandleKPIs, http.MethodGet, "/api/kpis?region=West")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	data := envelope[kpiResponse](t, w)
	if data.Summary.TotalSales != 200 || data.Summary.Orders != 1 {
		t.Errorf("unexpected West totals: %+v", data.Summary)
	}
	if len(data.Filter.Regions) != 1 || data.Filter.Regions[0] != "West" {
		t.Errorf("filter should echo the selection, got %+v", data.Filter)
	}
}

func TestAPIHandlers_DateFilter(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger)

	w := serve(handlers.HandleKPIs, http.MethodGet, "/api/kpis?from=2017-01-01&to=2017-12-31")
	data := envelope[kpiResponse](t, w)
	if data.Summary.TotalSales != 200 {
		t.Errorf("expected only the 2017 order, got sales %v", data.Summary.TotalSales)
	}
}

func TestAPIHandlers_InvalidFilter(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger)

	tests := []struct {
		name   string
		target string
	}{
		{"bad from", "/api/kpis?from=2016-13-01"},
		{"bad to", "/api/kpis?to=yesterday"},
		{"reversed range", "/api/kpis?from=2017-01-01&to=2016-01-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(handlers.HandleKPIs, http.MethodGet, tt.target)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
			}
			if body := decodeError(t, w); body.Error.Code != "VALIDATION_ERROR" {
				t.Errorf("expected VALIDATION_ERROR, got %q", body.Error.Code)
			}
		})
	}
}

func TestAPIHandlers_Tables(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger)

	tests := []struct {
		name      string
		handler   http.HandlerFunc
		wantRows  int
		wantFirst string
	}{
		{"regions", handlers.HandleRegions, 2, "West"},
		{"categories", handlers.HandleCategories, 2, "Furniture"},
		{"segments", handlers.HandleSegments, 2, "Corporate"},
		{"top-products", handlers.HandleTopProducts, 3, "Table"},
		{"top-customers", handlers.HandleTopCustomers, 2, "Darrin Van Huff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(tt.handler, http.MethodGet, "/api/"+tt.name)
			if w.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", w.Code)
			}
			table := envelope[models.AggregateTable](t, w)
			if len(table.Rows) != tt.wantRows {
				t.Fatalf("expected %d rows, got %d", tt.wantRows, len(table.Rows))
			}
			if !strings.Contains(table.Rows[0].Label, tt.wantFirst) {
				t.Errorf("expected first row %q, got %q", tt.wantFirst, table.Rows[0].Label)
			}
		})
	}
}

func TestAPIHandlers_HandleMonthlyTrend(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger)

	w := serve(handlers.HandleMonthlyTrend, http.MethodGet, "/api/monthly-trend")
	table := envelope[models.AggregateTable](t, w)
	if len(table.Rows) != 2 {
		t.Fatalf("expected two months, got %d", len(table.Rows))
	}
	if table.Rows[0].Sales != 150 || table.Rows[1].Sales != 200 {
		t.Errorf("months should be chronological, got %+v", table.Rows)
	}
}

func TestAPIHandlers_HandleYearOverYear(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger)

	w := serve(handlers.HandleYearOverYear, http.MethodGet, "/api/year-over-year")
	growth := envelope[[]models.YearGrowth](t, w)
	if len(growth) != 2 {
		t.Fatalf("expected two years, got %d", len(growth))
	}
	if growth[0].Growth.Defined {
		t.Error("first year has no growth")
	}
	if v, ok := growth[1].Growth.Get(); !ok || v < 33.3 || v > 33.4 {
		t.Errorf("expected about 33.3%% growth, got %v", v)
	}
}

func TestAPIHandlers_HandleInsights(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger)

	w := serve(handlers.HandleInsights, http.MethodGet, "/api/insights")
	in := envelope[services.Insights](t, w)
	if in.TopRegionBySales == nil || in.TopRegionBySales.Label != "West" {
		t.Errorf("expected West to lead sales, got %+v", in.TopRegionBySales)
	}
	if v, ok := in.ProfitOpportunity.Get(); !ok || v != 15 {
		t.Errorf("expected 15 profit opportunity, got %v", v)
	}
}

func TestAPIHandlers_HandleExtremum(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger)

	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"max sales by region", "/api/extremum?dimension=region&metric=sales", "West"},
		{"min sales by region", "/api/extremum?dimension=region&metric=sales&mode=min", "East"},
		{"max margin by category", "/api/extremum?dimension=category&metric=profit_margin", "Furniture"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(handlers.HandleExtremum, http.MethodGet, tt.target)
			if w.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
			}
			data := envelope[extremumResponse](t, w)
			if data.Row.Label != tt.want {
				t.Errorf("expected %q, got %q", tt.want, data.Row.Label)
			}
		})
	}
}

func TestAPIHandlers_HandleExtremum_Errors(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger)

	tests := []struct {
		name     string
		target   string
		wantCode int
		wantErr  string
	}{
		{"missing dimension", "/api/extremum?metric=sales", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown dimension", "/api/extremum?dimension=planet&metric=sales", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown metric", "/api/extremum?dimension=region&metric=vibes", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad mode", "/api/extremum?dimension=region&metric=sales&mode=median", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"empty selection", "/api/extremum?dimension=region&metric=sales&region=Nowhere", http.StatusNotFound, "NO_DATA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(handlers.HandleExtremum, http.MethodGet, tt.target)
			if w.Code != tt.wantCode {
				t.Fatalf("expected status %d, got %d", tt.wantCode, w.Code)
			}
			if body := decodeError(t, w); body.Error.Code != tt.wantErr {
				t.Errorf("expected %s, got %q", tt.wantErr, body.Error.Code)
			}
		})
	}
}

func TestAPIHandlers_HandleHealth(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger)

	w := serve(handlers.HandleHealth, http.MethodGet, "/health")
	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected content-type 'application/json', got %q", ct)
	}

	data := envelope[map[string]interface{}](t, w)
	if status, _ := data["status"].(string); status != "healthy" {
		t.Errorf("expected status 'healthy', got %q", status)
	}
	if timestamp, ok := data["timestamp"].(string); !ok || timestamp == "" {
		t.Error("expected non-empty timestamp")
	} else if _, err := time.Parse(time.RFC3339, timestamp); err != nil {
		t.Errorf("invalid timestamp format: %v", err)
	}
}

func TestAPIHandlers_HandleHealth_BeforeLoad(t *testing.T) {
	handlers := NewAPIHandlers(services.NewAnalytics(nil, testLogger, services.Options{}), testLogger)

	w := serve(handlers.HandleHealth, http.MethodGet, "/health")
	data := envelope[map[string]interface{}](t, w)
	if status, _ := data["status"].(string); status != "loading" {
		t.Errorf("expected status 'loading', got %q", status)
	}
}

// Test that health endpoint doesn't set cache headers
func TestAPIHandlers_HealthNoCaching(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger)

	w := serve(handlers.HandleHealth, http.MethodGet, "/health")
	if cc := w.Header().Get("Cache-Control"); cc != "" {
		t.Errorf("health endpoint should not set cache-control, got %q", cc)
	}
}

func TestAPIHandlers_HandleStats(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger)

	w := serve(handlers.HandleStats, http.MethodGet, "/admin/stats")
	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	data := envelope[map[string]interface{}](t, w)
	if count, _ := data["record_count"].(float64); count != 3 {
		t.Errorf("expected record_count 3, got %v", data["record_count"])
	}
	if source, _ := data["source"].(string); source != "memory" {
		t.Errorf("expected source 'memory', got %q", source)
	}
}

func TestAPIHandlers_HandleReload(t *testing.T) {
	analytics := services.NewAnalytics(fixedSource(testTransactions()[:2]), testLogger, services.Options{})
	handlers := NewAPIHandlers(analytics, testLogger)

	w := serve(handlers.HandleReload, http.MethodPost, "/admin/reload")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	data := envelope[map[string]interface{}](t, w)
	if version, _ := data["version"].(float64); version != 1 {
		t.Errorf("expected version 1 after reload, got %v", data["version"])
	}
	if count, _ := data["record_count"].(float64); count != 2 {
		t.Errorf("expected record_count 2, got %v", data["record_count"])
	}
}

func TestAPIHandlers_HandleReload_Failure(t *testing.T) {
	analytics := createTestAnalytics()
	handlers := NewAPIHandlers(analytics, testLogger)

	w := serve(handlers.HandleReload, http.MethodPost, "/admin/reload")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", w.Code)
	}
	if body := decodeError(t, w); body.Error.Code != "DATA_LOAD_ERROR" {
		t.Errorf("expected DATA_LOAD_ERROR, got %q", body.Error.Code)
	}

	// The previous snapshot keeps serving.
	if got := len(analytics.Dataset().Rows); got != 3 {
		t.Errorf("failed reload should keep the old rows, got %d", got)
	}
}

// Test that view endpoints set correct headers consistently
func TestAPIHandlers_HeaderConsistency(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger)

	apiEndpoints := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"kpis", handlers.HandleKPIs},
		{"monthly-trend", handlers.HandleMonthlyTrend},
		{"regions", handlers.HandleRegions},
		{"categories", handlers.HandleCategories},
		{"segments", handlers.HandleSegments},
		{"top-products", handlers.HandleTopProducts},
		{"top-customers", handlers.HandleTopCustomers},
		{"year-over-year", handlers.HandleYearOverYear},
		{"insights", handlers.HandleInsights},
	}

	for _, endpoint := range apiEndpoints {
		t.Run(endpoint.name, func(t *testing.T) {
			w := serve(endpoint.handler, http.MethodGet, "/api/"+endpoint.name)

			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected content-type 'application/json', got %q", ct)
			}
			if cc := w.Header().Get("Cache-Control"); cc != cacheControl {
				t.Errorf("expected cache-control %q, got %q", cacheControl, cc)
			}
			if v := w.Header().Get("X-Dataset-Version"); v != "1" {
				t.Errorf("expected dataset version 1, got %q", v)
			}

			body := w.Body.String()
			if !strings.HasPrefix(body, "{") || !strings.HasSuffix(strings.TrimSpace(body), "}") {
				t.Errorf("expected JSON object response, got: %s", body)
			}
		})
	}
}

func TestAPIHandlers_ExportRows(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger)

	w := serve(handlers.HandleExportRows, http.MethodGet, "/export/rows.csv?region=East")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("expected text/csv, got %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "superstore-rows.csv") {
		t.Errorf("expected attachment filename, got %q", cd)
	}

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus two East rows, got %d lines", len(lines))
	}
	if !strings.Contains(lines[0], "Order ID") {
		t.Errorf("expected header row, got %q", lines[0])
	}
}

func TestAPIHandlers_ExportKPIs(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger)

	w := serve(handlers.HandleExportKPIs, http.MethodGet, "/export/kpis.csv")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "350") {
		t.Errorf("expected total sales in export, got %s", w.Body.String())
	}
}

func TestAPIHandlers_ExportInvalidFilter(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger)

	w := serve(handlers.HandleExportRows, http.MethodGet, "/export/rows.csv?from=nope")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("errors stay JSON, got %q", ct)
	}
}
