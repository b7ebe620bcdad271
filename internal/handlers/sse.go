package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"superstore-dashboard/internal/errors"
	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/services"
	"superstore-dashboard/internal/ui/templates"
)

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// trendSignals is the chart series the page keeps in $monthlyTrend.
type trendSignals struct {
	Labels []string  `json:"labels"`
	Sales  []float64 `json:"sales"`
	Profit []float64 `json:"profit"`
}

func newTrendSignals(table models.AggregateTable) trendSignals {
	sig := trendSignals{
		Labels: make([]string, 0, len(table.Rows)),
		Sales:  make([]float64, 0, len(table.Rows)),
		Profit: make([]float64, 0, len(table.Rows)),
	}
	for _, row := range table.Rows {
		sig.Labels = append(sig.Labels, row.Label)
		sig.Sales = append(sig.Sales, row.Sales)
		sig.Profit = append(sig.Profit, row.Profit)
	}
	return sig
}

// panel renders one dashboard fragment from a view.
type panel func(*services.View) templ.Component

var (
	kpiPanel panel = func(v *services.View) templ.Component {
		return templates.KPICards(v.Summary, v.Share)
	}
	insightPanel panel = func(v *services.View) templ.Component {
		return templates.InsightPanel(v.Insights)
	}
	regionPanel panel = func(v *services.View) templ.Component {
		return templates.AggregateTable(templates.RegionsID, "Regional performance", v.Regions)
	}
	categoryPanel panel = func(v *services.View) templ.Component {
		return templates.AggregateTable(templates.CategoriesID, "Category performance", v.Categories)
	}
	segmentPanel panel = func(v *services.View) templ.Component {
		return templates.AggregateTable(templates.SegmentsID, "Customer segments", v.Segments)
	}
	productPanel panel = func(v *services.View) templ.Component {
		return templates.AggregateTable(templates.TopProductsID, "Top products", v.TopProducts)
	}
	customerPanel panel = func(v *services.View) templ.Component {
		return templates.AggregateTable(templates.TopCustomersID, "Top customers", v.TopCustomers)
	}
	yoyPanel panel = func(v *services.View) templ.Component {
		return templates.YearOverYearTable(v.YearOverYear)
	}

	dashboardPanels = []panel{kpiPanel, regionPanel, categoryPanel, segmentPanel, yoyPanel, productPanel, customerPanel, insightPanel}
)

// stream answers one Datastar request: read the filter signals, compute the
// view and patch the given panels. trend also pushes the chart series.
func (h *SSEHandlers) stream(w http.ResponseWriter, r *http.Request, panels []panel, trend, status bool) {
	f, filterErr := FilterFromSignals(r)

	sse := datastar.NewSSE(w, r)

	if filterErr != nil {
		h.logger.Warn("rejected dashboard filter", "error", filterErr)
		msg := filterErr.Error()
		var appErr *errors.AppError
		if stderrors.As(filterErr, &appErr) {
			msg = appErr.Message
		}
		h.patch(r.Context(), sse, templates.Problem(templates.StatusID, msg))
		return
	}

	v := h.analytics.View(r.Context(), f)

	if status {
		ds := h.analytics.Dataset()
		if !h.patch(r.Context(), sse, templates.Status(v, ds.Source, len(ds.Rejected))) {
			return
		}
	}
	for _, p := range panels {
		if !h.patch(r.Context(), sse, p(v)) {
			return
		}
	}

	if trend {
		signals, err := json.Marshal(map[string]any{"monthlyTrend": newTrendSignals(v.MonthlyTrend)})
		if err != nil {
			h.logger.Error("marshal trend signals", "error", err)
			return
		}
		if err := sse.PatchSignals(signals); err != nil {
			h.logger.Debug("patch signals", "error", err)
			return
		}
	}

	if fl, ok := w.(http.Flusher); ok {
		fl.Flush()
	}
}

// patch renders c and sends it. It reports false once the stream is unusable.
func (h *SSEHandlers) patch(ctx context.Context, sse *datastar.ServerSentEventGenerator, c templ.Component) bool {
	html, err := templates.Render(ctx, c)
	if err != nil {
		h.logger.Error("render fragment", "error", err)
		return false
	}
	if err := sse.PatchElements(html); err != nil {
		h.logger.Debug("patch elements", "error", err)
		return false
	}
	return true
}

// HandleDashboard refreshes every panel and the trend chart.
func (h *SSEHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, dashboardPanels, true, true)
}

func (h *SSEHandlers) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, []panel{kpiPanel}, false, false)
}

func (h *SSEHandlers) HandleInsights(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, []panel{insightPanel}, false, false)
}

func (h *SSEHandlers) HandleMonthlyTrend(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, nil, true, false)
}

func (h *SSEHandlers) HandleRegions(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, []panel{regionPanel}, false, false)
}

func (h *SSEHandlers) HandleCategories(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, []panel{categoryPanel}, false, false)
}

func (h *SSEHandlers) HandleSegments(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, []panel{segmentPanel}, false, false)
}

func (h *SSEHandlers) HandleTopProducts(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, []panel{productPanel}, false, false)
}

func (h *SSEHandlers) HandleTopCustomers(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, []panel{customerPanel}, false, false)
}
