package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestFilter_ZeroSelectsEverything(t *testing.T) {
	rows := sample(t)
	var f Filter

	assert.True(t, f.IsZero())
	assert.Nil(t, f.Predicate())
	assert.Equal(t, rows, Apply(rows, f.Predicate()))
}

func TestFilter_SelectAllIsIdempotent(t *testing.T) {
	rows := sample(t)
	all := NewFilterOptions(rows).SelectAll()

	require.False(t, all.IsZero())
	assert.Equal(t, Summarize(rows), Summarize(Apply(rows, all.Predicate())))
	assert.Len(t, Apply(rows, all.Predicate()), len(rows))
}

func TestFilter_DatesAreInclusive(t *testing.T) {
	rows := sample(t)

	f := Filter{From: day("2015-06-20"), To: day("2016-12-24")}
	got := Apply(rows, f.Predicate())
	ids := make([]string, len(got))
	for i, r := range got {
		ids[i] = r.OrderID
	}
	assert.Equal(t, []string{"O2", "O3", "O4"}, ids)

	// A time of day on the bound does not exclude the bound's rows.
	f = Filter{To: day("2015-01-03").Add(9 * time.Hour)}
	assert.Len(t, Apply(rows, f.Predicate()), 2)
}

func TestFilter_Sets(t *testing.T) {
	rows := sample(t)

	f := Filter{Regions: []string{"East", "West"}, Segments: []string{"Corporate"}}
	got := Apply(rows, f.Predicate())
	require.Len(t, got, 3)
	for _, r := range got {
		assert.Contains(t, []string{"East", "West"}, r.Region)
		assert.Equal(t, "Corporate", r.Segment)
	}

	none := Filter{Categories: []string{"Groceries"}}
	assert.Empty(t, Apply(rows, none.Predicate()))
}

func TestFilter_EmptySetMatchesNothing(t *testing.T) {
	rows := sample(t)

	cleared := Filter{Regions: []string{}}
	require.False(t, cleared.IsZero())
	require.NotNil(t, cleared.Predicate())
	assert.Empty(t, Apply(rows, cleared.Predicate()))

	// Only the cleared dimension restricts.
	onlyRegions := Filter{Regions: []string{"East"}, Categories: nil}
	assert.NotEmpty(t, Apply(rows, onlyRegions.Predicate()))

	assert.NotEqual(t, Filter{}.Key(), cleared.Key())
	assert.Equal(t, cleared.Key(), Filter{Regions: []string{}}.Key())
}

func TestFilter_ApplyDoesNotModifyInput(t *testing.T) {
	rows := sample(t)
	before := append(rows[:0:0], rows...)

	Apply(rows, Filter{Regions: []string{"West"}}.Predicate())
	assert.Equal(t, before, rows)
}

func TestFilter_KeyIsCanonical(t *testing.T) {
	a := Filter{Regions: []string{"West", "East", "West"}, Segments: []string{"Consumer"}}
	b := Filter{Regions: []string{"East", "West"}, Segments: []string{"Consumer"}}
	assert.Equal(t, a.Key(), b.Key())

	c := Filter{Regions: []string{"East"}, Segments: []string{"Consumer"}}
	assert.NotEqual(t, a.Key(), c.Key())

	d := Filter{From: day("2016-01-01")}
	assert.Equal(t, "2016-01-01||||", d.Key())
	assert.Equal(t, "||||", Filter{}.Key())
}

func TestNewFilterOptions(t *testing.T) {
	opts := NewFilterOptions(sample(t))

	assert.Equal(t, []string{"Central", "East", "South", "West"}, opts.Regions)
	assert.Equal(t, []string{"Furniture", "Office Supplies", "Technology"}, opts.Categories)
	assert.Equal(t, []string{"Consumer", "Corporate", "Home Office"}, opts.Segments)
	assert.True(t, opts.Dates.Valid)
	assert.Equal(t, day("2015-01-03"), opts.Dates.From)

	empty := NewFilterOptions(nil)
	assert.Empty(t, empty.Regions)
	assert.False(t, empty.Dates.Valid)
}
