package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"superstore-dashboard/internal/errors"
	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/observability"
	"superstore-dashboard/internal/services"
)

const (
	cacheControl  = "private, max-age=60"
	reloadTimeout = 30 * time.Second
)

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

type kpiResponse struct {
	Filter  services.Filter   `json:"filter"`
	Summary models.KPISummary `json:"summary"`
	Share   services.KPIShare `json:"share"`
}

type extremumResponse struct {
	Dimension string              `json:"dimension"`
	Metric    services.Metric     `json:"metric"`
	Mode      string              `json:"mode"`
	Row       models.AggregateRow `json:"row"`
}

func (h *APIHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(r.Context(), w, h.logger, err, observability.GetRequestID(r.Context()))
}

func viewHeaders(v *services.View) map[string]string {
	return map[string]string{
		"Cache-Control":     cacheControl,
		"X-Dataset-Version": strconv.FormatUint(v.Version, 10),
	}
}

// serveView runs the filtered view for r and writes pick(view).
func (h *APIHandlers) serveView(w http.ResponseWriter, r *http.Request, pick func(*services.View) any) {
	f, err := FilterFromQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	v := h.analytics.View(r.Context(), f)
	errors.WriteSuccessWithHeaders(w, pick(v), viewHeaders(v))
}

func (h *APIHandlers) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	h.serveView(w, r, func(v *services.View) any {
		return kpiResponse{Filter: v.Filter, Summary: v.Summary, Share: v.Share}
	})
}

func (h *APIHandlers) HandleMonthlyTrend(w http.ResponseWriter, r *http.Request) {
	h.serveView(w, r, func(v *services.View) any { return v.MonthlyTrend })
}

func (h *APIHandlers) HandleRegions(w http.ResponseWriter, r *http.Request) {
	h.serveView(w, r, func(v *services.View) any { return v.Regions })
}

func (h *APIHandlers) HandleCategories(w http.ResponseWriter, r *http.Request) {
	h.serveView(w, r, func(v *services.View) any { return v.Categories })
}

func (h *APIHandlers) HandleSegments(w http.ResponseWriter, r *http.Request) {
	h.serveView(w, r, func(v *services.View) any { return v.Segments })
}

func (h *APIHandlers) HandleTopProducts(w http.ResponseWriter, r *http.Request) {
	h.serveView(w, r, func(v *services.View) any { return v.TopProducts })
}

func (h *APIHandlers) HandleTopCustomers(w http.ResponseWriter, r *http.Request) {
	h.serveView(w, r, func(v *services.View) any { return v.TopCustomers })
}

func (h *APIHandlers) HandleYearOverYear(w http.ResponseWriter, r *http.Request) {
	h.serveView(w, r, func(v *services.View) any { return v.YearOverYear })
}

func (h *APIHandlers) HandleInsights(w http.ResponseWriter, r *http.Request) {
	h.serveView(w, r, func(v *services.View) any { return v.Insights })
}

// HandleExtremum answers "which dimension value has the highest (or lowest)
// metric" for the filtered rows. An empty selection is a 404 NO_DATA.
func (h *APIHandlers) HandleExtremum(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := extremumParams{
		Dimension: strings.TrimSpace(q.Get("dimension")),
		Metric:    strings.TrimSpace(q.Get("metric")),
		Mode:      strings.ToLower(strings.TrimSpace(q.Get("mode"))),
	}
	if err := validate.Struct(params); err != nil {
		h.fail(w, r, validationError(err))
		return
	}

	grouping, ok := services.GroupingByName(params.Dimension)
	if !ok {
		h.fail(w, r, errors.Validation("unknown dimension "+strconv.Quote(params.Dimension)))
		return
	}
	metric, err := services.ParseMetric(params.Metric)
	if err != nil {
		h.fail(w, r, errors.ValidationWrap(err, "unknown metric "+strconv.Quote(params.Metric)))
		return
	}
	dir := services.Max
	if params.Mode == "min" {
		dir = services.Min
	}

	f, err := FilterFromQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	v := h.analytics.View(r.Context(), f)

	row, err := services.Extremum(services.Aggregate(v.Rows, grouping, services.KeyAsc, nil), metric, dir)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, extremumResponse{
		Dimension: grouping.Name(),
		Metric:    metric,
		Mode:      dir.String(),
		Row:       row,
	}, viewHeaders(v))
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ds := h.analytics.Dataset()

	status := "healthy"
	if ds.Version == 0 {
		status = "loading"
	}

	healthData := map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
		"dataset":   ds.Version,
		"rows":      len(ds.Rows),
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats := h.analytics.Stats()

	errors.WriteSuccess(w, stats)
}

// HandleReload re-reads the source. A failed reload leaves the current
// snapshot serving.
func (h *APIHandlers) HandleReload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), reloadTimeout)
	defer cancel()

	if err := h.analytics.Load(ctx); err != nil {
		h.fail(w, r, err)
		return
	}

	h.logger.Info("dataset reloaded",
		"version", h.analytics.Dataset().Version,
		"request_id", observability.GetRequestID(r.Context()),
	)
	errors.WriteSuccess(w, h.analytics.Stats())
}
