package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"superstore-dashboard/internal/services"
	"superstore-dashboard/internal/ui/templates"
)

// sseRequest builds a Datastar GET carrying signals in the datastar parameter.
func sseRequest(path, signals string) *http.Request {
	target := path
	if signals != "" {
		target += "?datastar=" + url.QueryEscape(signals)
	}
	return httptest.NewRequest(http.MethodGet, target, nil)
}

func TestNewSSEHandlers(t *testing.T) {
	analytics := createTestAnalytics()
	handlers := NewSSEHandlers(analytics, testLogger)

	if handlers == nil {
		t.Fatal("NewSSEHandlers() returned nil")
	}
	if handlers.analytics != analytics {
		t.Error("NewSSEHandlers() should set analytics field")
	}
	if handlers.logger != testLogger {
		t.Error("NewSSEHandlers() should set logger field")
	}
}

func TestSSEHandlers_HandleDashboard(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), testLogger)

	w := httptest.NewRecorder()
	handlers.HandleDashboard(w, sseRequest("/sse/dashboard", ""))

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Errorf("expected content-type to contain 'text/event-stream', got %q", ct)
	}

	body := w.Body.String()
	for _, id := range []string{
		templates.StatusID, templates.KPICardsID, templates.RegionsID, templates.CategoriesID,
		templates.SegmentsID, templates.YearOverYearID, templates.TopProductsID,
		templates.TopCustomersID, templates.InsightsID,
	} {
		if !strings.Contains(body, `id="`+id+`"`) {
			t.Errorf("dashboard stream should patch %q", id)
		}
	}
	if !strings.Contains(body, "monthlyTrend") {
		t.Error("dashboard stream should push the monthlyTrend signal")
	}
	if !strings.Contains(body, "$350") {
		t.Error("unfiltered dashboard should show total sales of $350")
	}
}

func TestSSEHandlers_HandleDashboard_Filtered(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), testLogger)

	w := httptest.NewRecorder()
	handlers.HandleDashboard(w, sseRequest("/sse/dashboard", `{"regions":["East"]}`))

	body := w.Body.String()
	if !strings.Contains(body, "$150") {
		t.Error("East selection should show $150 of sales")
	}
	if strings.Contains(body, "Darrin Van Huff") {
		t.Error("West customers should be filtered out")
	}
}

func TestSSEHandlers_HandleDashboard_NothingSelected(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), testLogger)

	w := httptest.NewRecorder()
	handlers.HandleDashboard(w, sseRequest("/sse/dashboard", `{"regions":[]}`))

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "No data for the current selection.") {
		t.Error("clearing every region should render the empty state")
	}
	for _, name := range []string{"Darrin Van Huff", "$350", "$150"} {
		if strings.Contains(body, name) {
			t.Errorf("clearing every region should select no rows, found %q", name)
		}
	}
}

func TestSSEHandlers_InvalidSignals(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), testLogger)

	tests := []struct {
		name    string
		signals string
		want    string
	}{
		{"malformed json", `{"from":`, "invalid signals"},
		{"bad date", `{"from":"2016-02-30"}`, "invalid from"},
		{"reversed range", `{"from":"2017-01-01","to":"2016-01-01"}`, "to date is before from date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handlers.HandleDashboard(w, sseRequest("/sse/dashboard", tt.signals))

			body := w.Body.String()
			if !strings.Contains(body, `class="panel error"`) {
				t.Fatalf("expected an error panel, got %s", body)
			}
			if !strings.Contains(body, tt.want) {
				t.Errorf("expected %q in %s", tt.want, body)
			}
			if strings.Contains(body, templates.KPICardsID) {
				t.Error("no panels should be patched for a rejected filter")
			}
		})
	}
}

func TestSSEHandlers_HandleMonthlyTrend(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), testLogger)

	w := httptest.NewRecorder()
	handlers.HandleMonthlyTrend(w, sseRequest("/sse/monthly-trend", ""))

	body := w.Body.String()
	if !strings.Contains(body, "datastar-patch-signals") {
		t.Error("trend stream should patch signals")
	}
	for _, want := range []string{"monthlyTrend", `"labels"`, `"sales":[150,200]`, `"profit":[10,40]`} {
		if !strings.Contains(body, want) {
			t.Errorf("trend signals missing %q in %s", want, body)
		}
	}
}

func TestSSEHandlers_SinglePanels(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), testLogger)

	tests := []struct {
		name    string
		handler http.HandlerFunc
		id      string
	}{
		{"kpis", handlers.HandleKPIs, templates.KPICardsID},
		{"insights", handlers.HandleInsights, templates.InsightsID},
		{"regions", handlers.HandleRegions, templates.RegionsID},
		{"categories", handlers.HandleCategories, templates.CategoriesID},
		{"segments", handlers.HandleSegments, templates.SegmentsID},
		{"top-products", handlers.HandleTopProducts, templates.TopProductsID},
		{"top-customers", handlers.HandleTopCustomers, templates.TopCustomersID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.handler(w, sseRequest("/sse/"+tt.name, ""))

			if cc := w.Header().Get("Cache-Control"); cc != "no-cache" {
				t.Errorf("expected cache-control 'no-cache', got %q", cc)
			}

			body := w.Body.String()
			if !strings.Contains(body, "event:") || !strings.Contains(body, "data:") {
				t.Error("response should contain SSE event format")
			}
			if !strings.Contains(body, `id="`+tt.id+`"`) {
				t.Errorf("expected fragment %q", tt.id)
			}
			if strings.Contains(body, "monthlyTrend") {
				t.Error("single panels should not push the trend signal")
			}
		})
	}
}

func TestNewTrendSignals_Empty(t *testing.T) {
	sig := newTrendSignals(createTestAnalytics().View(t.Context(), filterFor(t, "region=Nowhere")).MonthlyTrend)
	if sig.Labels == nil || sig.Sales == nil || sig.Profit == nil {
		t.Error("empty series should encode as [] not null")
	}
	if len(sig.Labels) != 0 {
		t.Errorf("expected no labels, got %v", sig.Labels)
	}
}

func filterFor(t *testing.T, query string) services.Filter {
	t.Helper()
	f, err := FilterFromQuery(httptest.NewRequest(http.MethodGet, "/?"+query, nil))
	if err != nil {
		t.Fatalf("FilterFromQuery(%q): %v", query, err)
	}
	return f
}
