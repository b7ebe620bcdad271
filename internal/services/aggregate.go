package services

import (
	"cmp"
	"slices"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"superstore-dashboard/internal/models"
)

// Order selects the iteration order of aggregate groups.
type Order int

const (
	// FirstSeen keeps groups in the order their key first appears.
	FirstSeen Order = iota
	// SalesDesc sorts by sales, highest first; ties by key.
	SalesDesc
	// SalesAsc sorts by sales, lowest first; ties by key.
	SalesAsc
	// KeyAsc sorts by natural key order, which is chronological for periods.
	KeyAsc
)

// Predicate selects rows. A nil Predicate selects every row.
type Predicate func(models.EnrichedTransaction) bool

// Aggregate groups rows by g and reduces each group. Rows rejected by pred
// are skipped; when nothing is left the table has no rows.
func Aggregate(rows []models.EnrichedTransaction, g Grouping, order Order, pred Predicate) models.AggregateTable {
	index := make(map[string]int)
	var (
		keys   [][]string
		groups []*tally
	)

	for _, r := range rows {
		if pred != nil && !pred(r) {
			continue
		}
		key := g.key(r)
		id := strings.Join(key, "\x1f")
		i, ok := index[id]
		if !ok {
			i = len(groups)
			index[id] = i
			keys = append(keys, key)
			groups = append(groups, newTally())
		}
		groups[i].add(r)
	}

	table := models.AggregateTable{
		Dimensions: g.Dimensions(),
		Rows:       make([]models.AggregateRow, 0, len(groups)),
	}
	for i, t := range groups {
		table.Rows = append(table.Rows, t.row(keys[i], g.label(keys[i])))
	}
	sortRows(table.Rows, order)
	return table
}

func compareKeys(a, b []string) int {
	return slices.Compare(a, b)
}

func sortRows(rows []models.AggregateRow, order Order) {
	switch order {
	case SalesDesc:
		slices.SortStableFunc(rows, func(a, b models.AggregateRow) int {
			if c := cmp.Compare(b.Sales, a.Sales); c != 0 {
				return c
			}
			return compareKeys(a.Key, b.Key)
		})
	case SalesAsc:
		slices.SortStableFunc(rows, func(a, b models.AggregateRow) int {
			if c := cmp.Compare(a.Sales, b.Sales); c != 0 {
				return c
			}
			return compareKeys(a.Key, b.Key)
		})
	case KeyAsc:
		slices.SortStableFunc(rows, func(a, b models.AggregateRow) int {
			return compareKeys(a.Key, b.Key)
		})
	}
}

// TopN returns the first n rows of an already ordered table.
func TopN(table models.AggregateTable, n int) models.AggregateTable {
	if n < 0 || len(table.Rows) <= n {
		return table
	}
	return models.AggregateTable{
		Dimensions: table.Dimensions,
		Rows:       slices.Clone(table.Rows[:n]),
	}
}

// YearOverYear reports sales per calendar year present in rows and the
// percent change against the immediately preceding calendar year. Growth is
// undefined for a year whose prior year is absent or had zero sales.
func YearOverYear(rows []models.EnrichedTransaction) []models.YearGrowth {
	byYear := make(map[int]decimal.Decimal)
	for _, r := range rows {
		byYear[r.Year] = byYear[r.Year].Add(decimal.NewFromFloat(r.Sales))
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	out := make([]models.YearGrowth, 0, len(years))
	for _, y := range years {
		g := models.YearGrowth{Year: y, Sales: byYear[y].InexactFloat64()}
		if prior, ok := byYear[y-1]; ok {
			g.Growth = percent(byYear[y].Sub(prior), prior)
		}
		out = append(out, g)
	}
	return out
}
