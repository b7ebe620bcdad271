package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"
)

func TestFilterFromQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/kpis?from=2016-01-01&to=2016-12-31&region=East,%20West&region=South&category=&segment=Consumer", nil)

	f, err := FilterFromQuery(req)
	if err != nil {
		t.Fatalf("FilterFromQuery: %v", err)
	}

	if !f.From.Equal(time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)) || !f.To.Equal(time.Date(2016, 12, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected range %v..%v", f.From, f.To)
	}
	if !slices.Equal(f.Regions, []string{"East", "West", "South"}) {
		t.Errorf("repeated and comma separated regions should merge, got %v", f.Regions)
	}
	if f.Categories == nil || len(f.Categories) != 0 {
		t.Errorf("a blank category parameter should be an empty selection, got %#v", f.Categories)
	}
	if !slices.Equal(f.Segments, []string{"Consumer"}) {
		t.Errorf("unexpected segments %v", f.Segments)
	}
}

func TestFilterFromQuery_Empty(t *testing.T) {
	f, err := FilterFromQuery(httptest.NewRequest(http.MethodGet, "/api/kpis", nil))
	if err != nil {
		t.Fatalf("FilterFromQuery: %v", err)
	}
	if !f.IsZero() {
		t.Errorf("no parameters should give the zero filter, got %+v", f)
	}
}

func TestFilterFromSignals(t *testing.T) {
	f, err := FilterFromSignals(sseRequest("/sse/dashboard", `{"from":"2017-01-01","regions":["West"],"categories":[],"segments":[],"monthlyTrend":{"labels":[]}}`))
	if err != nil {
		t.Fatalf("FilterFromSignals: %v", err)
	}
	if f.From.Year() != 2017 || !slices.Equal(f.Regions, []string{"West"}) {
		t.Errorf("unexpected filter %+v", f)
	}
	if f.Categories == nil || len(f.Categories) != 0 {
		t.Errorf("an empty signal list should stay an empty selection, got %#v", f.Categories)
	}
}

func TestFilterFromSignals_EmptySelectionMatchesNothing(t *testing.T) {
	f, err := FilterFromSignals(sseRequest("/sse/dashboard", `{"regions":[]}`))
	if err != nil {
		t.Fatalf("FilterFromSignals: %v", err)
	}
	if f.IsZero() {
		t.Fatal("an empty region list is a selection, not the zero filter")
	}
	if f.Categories != nil || f.Segments != nil {
		t.Errorf("absent signals should not restrict, got %#v %#v", f.Categories, f.Segments)
	}

	v := createTestAnalytics().View(context.Background(), f)
	if len(v.Rows) != 0 {
		t.Errorf("expected no rows, got %d", len(v.Rows))
	}
}

func TestSplitValues(t *testing.T) {
	got := splitValues([]string{" a ,b", "", ",c,,"})
	if !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("splitValues = %v", got)
	}
}
