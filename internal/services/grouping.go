package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"superstore-dashboard/internal/models"
)

type dimension struct {
	name  string
	key   func(models.EnrichedTransaction) string
	label func(string) string
}

// Grouping projects rows onto one or more categorical dimensions. Keys are
// compared part by part as strings; period keys are zero padded so that key
// order is chronological.
type Grouping struct {
	dims []dimension
}

// NewGrouping builds a single-dimension grouping from a key projection.
func NewGrouping(name string, key func(models.EnrichedTransaction) string) Grouping {
	return Grouping{dims: []dimension{{name: name, key: key}}}
}

// Compose groups by every dimension of gs, in order.
func Compose(gs ...Grouping) Grouping {
	var dims []dimension
	for _, g := range gs {
		dims = append(dims, g.dims...)
	}
	return Grouping{dims: dims}
}

func (g Grouping) Dimensions() []string {
	names := make([]string, len(g.dims))
	for i, d := range g.dims {
		names[i] = d.name
	}
	return names
}

func (g Grouping) Name() string {
	return strings.Join(g.Dimensions(), "+")
}

func (g Grouping) key(r models.EnrichedTransaction) []string {
	key := make([]string, len(g.dims))
	for i, d := range g.dims {
		key[i] = d.key(r)
	}
	return key
}

func (g Grouping) label(key []string) string {
	parts := make([]string, len(key))
	for i, part := range key {
		if i < len(g.dims) && g.dims[i].label != nil {
			part = g.dims[i].label(part)
		}
		parts[i] = part
	}
	return strings.Join(parts, " / ")
}

func monthLabel(part string) string {
	n, err := strconv.Atoi(part)
	if err != nil || n < 1 || n > 12 {
		return part
	}
	return time.Month(n).String()
}

var (
	ByRegion      = NewGrouping("region", func(r models.EnrichedTransaction) string { return r.Region })
	BySegment     = NewGrouping("segment", func(r models.EnrichedTransaction) string { return r.Segment })
	ByCategory    = NewGrouping("category", func(r models.EnrichedTransaction) string { return r.Category })
	BySubCategory = NewGrouping("sub_category", func(r models.EnrichedTransaction) string { return r.SubCategory })
	ByShipMode    = NewGrouping("ship_mode", func(r models.EnrichedTransaction) string { return r.ShipMode })
	ByState       = NewGrouping("state", func(r models.EnrichedTransaction) string { return r.State })
	ByProduct     = NewGrouping("product", func(r models.EnrichedTransaction) string { return r.ProductName })
	ByCustomer    = NewGrouping("customer", func(r models.EnrichedTransaction) string { return r.CustomerName })

	ByYear = NewGrouping("year", func(r models.EnrichedTransaction) string {
		return fmt.Sprintf("%04d", r.Year)
	})
	ByQuarter = NewGrouping("quarter", func(r models.EnrichedTransaction) string {
		return fmt.Sprintf("%04d-Q%d", r.Year, r.Quarter)
	})
	ByMonth = NewGrouping("month", func(r models.EnrichedTransaction) string {
		return fmt.Sprintf("%04d-%02d", r.Year, r.Month)
	})
	ByMonthOfYear = Grouping{dims: []dimension{{
		name:  "month_of_year",
		key:   func(r models.EnrichedTransaction) string { return fmt.Sprintf("%02d", r.Month) },
		label: monthLabel,
	}}}
)

var groupingsByName = map[string]Grouping{
	"region":        ByRegion,
	"segment":       BySegment,
	"category":      ByCategory,
	"sub_category":  BySubCategory,
	"ship_mode":     ByShipMode,
	"state":         ByState,
	"product":       ByProduct,
	"customer":      ByCustomer,
	"year":          ByYear,
	"quarter":       ByQuarter,
	"month":         ByMonth,
	"month_of_year": ByMonthOfYear,
}

// GroupingByName resolves a dimension name, or a "+" separated composite
// such as "region+category".
func GroupingByName(name string) (Grouping, bool) {
	var gs []Grouping
	for _, part := range strings.Split(name, "+") {
		g, ok := groupingsByName[strings.TrimSpace(part)]
		if !ok {
			return Grouping{}, false
		}
		gs = append(gs, g)
	}
	return Compose(gs...), true
}
