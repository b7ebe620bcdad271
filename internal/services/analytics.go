package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	apperrors "superstore-dashboard/internal/errors"
	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/observability"
)

const dashboardTopN = 10

// Source produces the raw transaction table.
type Source interface {
	Load(ctx context.Context) ([]models.Transaction, error)
}

// Dataset is an immutable snapshot of the enriched table. A reload builds a
// new Dataset and swaps it in whole; readers holding the old one keep a
// consistent view.
type Dataset struct {
	Version  uint64
	Source   string
	LoadedAt time.Time
	Rows     []models.EnrichedTransaction
	Rejected []*apperrors.MalformedDateError
	Columns  int
	Options  FilterOptions
	Totals   models.KPISummary

	// RejectedRows holds the source row behind each entry of Rejected.
	RejectedRows []models.Transaction
}

type Options struct {
	StrictDates bool
	TopN        int
	Metrics     *observability.Metrics
}

// View is everything the dashboard shows for one filter.
type View struct {
	Version      uint64                       `json:"version"`
	Filter       Filter                       `json:"filter"`
	Rows         []models.EnrichedTransaction `json:"-"`
	Summary      models.KPISummary            `json:"summary"`
	Share        KPIShare                     `json:"share"`
	MonthlyTrend models.AggregateTable        `json:"monthly_trend"`
	Breakdown
	TopProducts  models.AggregateTable `json:"top_products"`
	TopCustomers models.AggregateTable `json:"top_customers"`
	YearOverYear []models.YearGrowth   `json:"year_over_year"`
	Insights     Insights              `json:"insights"`
}

type memo struct {
	version uint64
	key     string
	view    *View
}

type Analytics struct {
	source  Source
	opts    Options
	logger  *slog.Logger
	version atomic.Uint64
	current atomic.Pointer[Dataset]

	mu   sync.Mutex
	last *memo
}

func NewAnalytics(source Source, logger *slog.Logger, opts Options) *Analytics {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TopN <= 0 {
		opts.TopN = dashboardTopN
	}
	a := &Analytics{
		source: source,
		opts:   opts,
		logger: logger,
	}
	a.current.Store(&Dataset{})
	return a
}

// Load reads the source and installs the result as the current snapshot.
// On failure the previous snapshot stays in place.
func (a *Analytics) Load(ctx context.Context) error {
	if a.source == nil {
		return &apperrors.DataLoadError{Source: "<none>", Cause: fmt.Errorf("no source configured")}
	}

	ctx, span := observability.StartSpan(ctx, "analytics.load")
	defer span.End(a.logger)

	start := time.Now()
	raw, err := a.source.Load(ctx)
	if err != nil {
		span.SetError(err)
		return err
	}

	if err := a.install(raw, sourceName(a.source)); err != nil {
		span.SetError(err)
		return err
	}

	ds := a.Dataset()
	a.logger.Info("dataset loaded",
		"source", ds.Source,
		"rows", len(ds.Rows),
		"rejected", len(ds.Rejected),
		"version", ds.Version,
		"duration", time.Since(start),
	)
	return nil
}

// SetData installs raw rows held in memory.
func (a *Analytics) SetData(raw []models.Transaction) error {
	return a.install(raw, "memory")
}

func (a *Analytics) install(raw []models.Transaction, source string) error {
	var (
		rows     []models.EnrichedTransaction
		rejected []*apperrors.MalformedDateError
	)
	if a.opts.StrictDates {
		var err error
		if rows, err = Enrich(raw); err != nil {
			return err
		}
	} else {
		rows, rejected = EnrichLenient(raw)
	}

	var rejectedRows []models.Transaction
	for _, r := range rejected {
		a.logger.Warn("row rejected", "error", r)
		rejectedRows = append(rejectedRows, raw[r.Row-1])
	}

	ds := &Dataset{
		Version:      a.version.Add(1),
		Source:       source,
		LoadedAt:     time.Now(),
		Rows:         rows,
		Rejected:     rejected,
		RejectedRows: rejectedRows,
		Columns:      columnCount(raw),
		Options:      NewFilterOptions(rows),
		Totals:       Summarize(rows),
	}
	a.current.Store(ds)
	a.invalidate()

	if m := a.opts.Metrics; m != nil {
		m.DatasetRows.Set(float64(len(rows)))
		m.RejectedRows.Set(float64(len(rejected)))
	}
	return nil
}

func (a *Analytics) invalidate() {
	a.mu.Lock()
	a.last = nil
	a.mu.Unlock()
}

// Dataset returns the current snapshot. It is never nil.
func (a *Analytics) Dataset() *Dataset {
	return a.current.Load()
}

// View filters the current snapshot once and derives every dashboard table
// from the filtered rows. The last view is memoised until the filter or the
// snapshot changes.
func (a *Analytics) View(ctx context.Context, f Filter) *View {
	ds := a.Dataset()
	key := f.Key()

	a.mu.Lock()
	if a.last != nil && a.last.version == ds.Version && a.last.key == key {
		v := a.last.view
		a.mu.Unlock()
		if m := a.opts.Metrics; m != nil {
			m.ViewCacheHits.Inc()
		}
		return v
	}
	a.mu.Unlock()

	_, span := observability.StartSpan(ctx, "analytics.view")
	span.SetTag("filter", key)
	start := time.Now()

	v := BuildView(ds, f, a.opts.TopN)

	span.SetTag("rows", fmt.Sprint(len(v.Rows)))
	span.End(a.logger)
	if m := a.opts.Metrics; m != nil {
		m.ViewComputations.Inc()
		m.ViewDuration.Observe(time.Since(start).Seconds())
	}

	a.mu.Lock()
	a.last = &memo{version: ds.Version, key: key, view: v}
	a.mu.Unlock()
	return v
}

// BuildView is the uncached computation behind Analytics.View.
func BuildView(ds *Dataset, f Filter, topN int) *View {
	rows := Apply(ds.Rows, f.Predicate())
	summary := Summarize(rows)
	breakdown := NewBreakdown(rows)

	return &View{
		Version:      ds.Version,
		Filter:       f,
		Rows:         rows,
		Summary:      summary,
		Share:        CompareToTotal(summary, ds.Totals),
		MonthlyTrend: Aggregate(rows, ByMonth, KeyAsc, nil),
		Breakdown:    breakdown,
		TopProducts:  TopN(Aggregate(rows, ByProduct, SalesDesc, nil), topN),
		TopCustomers: TopN(Aggregate(rows, ByCustomer, SalesDesc, nil), topN),
		YearOverYear: YearOverYear(rows),
		Insights:     InsightsFrom(breakdown),
	}
}

func (a *Analytics) Stats() map[string]any {
	ds := a.Dataset()
	return map[string]any{
		"version":       ds.Version,
		"source":        ds.Source,
		"loaded_at":     ds.LoadedAt,
		"record_count":  len(ds.Rows),
		"rejected_rows": len(ds.Rejected),
		"regions":       len(ds.Options.Regions),
		"categories":    len(ds.Options.Categories),
		"segments":      len(ds.Options.Segments),
		"date_range":    ds.Options.Dates,
	}
}

func sourceName(s Source) string {
	if named, ok := s.(fmt.Stringer); ok {
		return named.String()
	}
	return fmt.Sprintf("%T", s)
}

// columnCount is the number of populated source columns, including the
// optional ones.
func columnCount(raw []models.Transaction) int {
	const required = 14
	if len(raw) == 0 {
		return 0
	}
	n := required
	optional := []func(models.Transaction) string{
		func(t models.Transaction) string { return t.RowID },
		func(t models.Transaction) string { return t.ShipMode },
		func(t models.Transaction) string { return t.Country },
		func(t models.Transaction) string { return t.City },
		func(t models.Transaction) string { return t.State },
		func(t models.Transaction) string { return t.PostalCode },
		func(t models.Transaction) string { return t.ProductID },
	}
	for _, get := range optional {
		for _, t := range raw {
			if get(t) != "" {
				n++
				break
			}
		}
	}
	return n
}
