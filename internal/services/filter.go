package services

import (
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"

	"superstore-dashboard/internal/models"
)

// Filter is the dashboard selection. Dates are inclusive and a zero date is
// unbounded. A nil set places no restriction on that dimension; an empty
// non-nil set matches no rows.
type Filter struct {
	From       time.Time `json:"from"`
	To         time.Time `json:"to"`
	Regions    []string  `json:"regions"`
	Categories []string  `json:"categories"`
	Segments   []string  `json:"segments"`
}

// emptySetKey marks an explicitly empty set in Key, apart from nil.
const emptySetKey = "\x00"

func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func toSet(values []string) map[string]struct{} {
	if values == nil {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func inSet(set map[string]struct{}, v string) bool {
	if set == nil {
		return true
	}
	_, ok := set[v]
	return ok
}

func (f Filter) IsZero() bool {
	return f.From.IsZero() && f.To.IsZero() &&
		f.Regions == nil && f.Categories == nil && f.Segments == nil
}

// Predicate composes every control into one row predicate. It returns nil
// for the zero filter.
func (f Filter) Predicate() Predicate {
	if f.IsZero() {
		return nil
	}
	from, to := dateOnly(f.From), dateOnly(f.To)
	regions, categories, segments := toSet(f.Regions), toSet(f.Categories), toSet(f.Segments)

	return func(r models.EnrichedTransaction) bool {
		if !from.IsZero() && r.OrderedOn.Before(from) {
			return false
		}
		if !to.IsZero() && r.OrderedOn.After(to) {
			return false
		}
		return inSet(regions, r.Region) && inSet(categories, r.Category) && inSet(segments, r.Segment)
	}
}

// Key is a canonical encoding of the filter: equal selections give equal
// keys regardless of the order values were picked in.
func (f Filter) Key() string {
	sorted := func(values []string) string {
		if values != nil && len(values) == 0 {
			return emptySetKey
		}
		c := slices.Clone(values)
		slices.Sort(c)
		return strings.Join(slices.Compact(c), ",")
	}
	day := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(time.DateOnly)
	}
	return strings.Join([]string{
		day(f.From), day(f.To), sorted(f.Regions), sorted(f.Categories), sorted(f.Segments),
	}, "|")
}

// Apply returns the rows selected by pred. The input is never modified.
func Apply(rows []models.EnrichedTransaction, pred Predicate) []models.EnrichedTransaction {
	if pred == nil {
		return rows
	}
	return lo.Filter(rows, func(r models.EnrichedTransaction, _ int) bool {
		return pred(r)
	})
}

// FilterOptions lists what the dashboard controls can offer.
type FilterOptions struct {
	Regions    []string         `json:"regions"`
	Categories []string         `json:"categories"`
	Segments   []string         `json:"segments"`
	Dates      models.DateRange `json:"dates"`
}

func NewFilterOptions(rows []models.EnrichedTransaction) FilterOptions {
	distinct := func(pick func(models.EnrichedTransaction) string) []string {
		values := lo.Uniq(lo.Map(rows, func(r models.EnrichedTransaction, _ int) string {
			return pick(r)
		}))
		slices.Sort(values)
		return values
	}

	return FilterOptions{
		Regions:    distinct(func(r models.EnrichedTransaction) string { return r.Region }),
		Categories: distinct(func(r models.EnrichedTransaction) string { return r.Category }),
		Segments:   distinct(func(r models.EnrichedTransaction) string { return r.Segment }),
		Dates:      Summarize(rows).DateRange,
	}
}

// SelectAll is the filter with every option of opts ticked.
func (o FilterOptions) SelectAll() Filter {
	return Filter{
		From:       o.Dates.From,
		To:         o.Dates.To,
		Regions:    slices.Clone(o.Regions),
		Categories: slices.Clone(o.Categories),
		Segments:   slices.Clone(o.Segments),
	}
}
