package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "superstore-dashboard/internal/errors"
	"superstore-dashboard/internal/models"
)

func TestParseDate_Layouts(t *testing.T) {
	want := time.Date(2016, time.November, 8, 0, 0, 0, 0, time.UTC)
	for _, v := range []string{"11/8/2016", "2016-11-08", "2016/11/08", "11-08-2016", " 11/08/2016 "} {
		got, ok := parseDate(v)
		require.True(t, ok, v)
		assert.True(t, want.Equal(got), "%s parsed as %s", v, got)
	}

	for _, v := range []string{"", "yesterday", "2016-13-01", "31/12/2016"} {
		_, ok := parseDate(v)
		assert.False(t, ok, v)
	}
}

func TestEnrich_DerivedFields(t *testing.T) {
	in := raw(line{order: "A", customer: "C", sales: 80, profit: 20})
	in[0].OrderDate, in[0].ShipDate = "8/30/2016", "9/2/2016"

	rows, err := Enrich(in)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	r := rows[0]
	assert.Equal(t, 2016, r.Year)
	assert.Equal(t, 8, r.Month)
	assert.Equal(t, 3, r.Quarter)
	assert.Equal(t, "August", r.MonthName)
	assert.Equal(t, "Tuesday", r.Weekday)
	assert.Equal(t, 3, r.DaysToShip)
	assert.Equal(t, models.NewRatio(25), r.ProfitMargin)
	assert.Equal(t, in[0], r.Transaction)
}

func TestEnrich_KeepsCardinalityAndOrder(t *testing.T) {
	in := raw(
		line{order: "3", customer: "x", sales: 1},
		line{order: "1", customer: "y", sales: 2},
		line{order: "2", customer: "z", sales: 3},
	)
	rows, err := Enrich(in)
	require.NoError(t, err)

	require.Len(t, rows, len(in))
	for i := range in {
		assert.Equal(t, in[i].OrderID, rows[i].OrderID)
	}
}

func TestEnrich_MarginUndefinedOnlyForZeroSales(t *testing.T) {
	for _, r := range sample(t) {
		_, defined := r.ProfitMargin.Get()
		assert.Equal(t, r.Sales != 0, defined, r.OrderID)
	}
}

func TestEnrich_NegativeShippingIsKept(t *testing.T) {
	in := raw(line{order: "A", customer: "C", sales: 1})
	in[0].OrderDate, in[0].ShipDate = "2016-03-10", "2016-03-07"

	rows, err := Enrich(in)
	require.NoError(t, err)
	assert.Equal(t, -3, rows[0].DaysToShip)
}

func TestEnrich_MalformedDateIsFatal(t *testing.T) {
	in := raw(line{order: "A", customer: "C", sales: 1}, line{order: "B", customer: "C", sales: 1})
	in[1].ShipDate = "soon"

	_, err := Enrich(in)
	var dateErr *apperrors.MalformedDateError
	require.ErrorAs(t, err, &dateErr)
	assert.Equal(t, 2, dateErr.Row)
	assert.Equal(t, "B", dateErr.OrderID)
	assert.Equal(t, "ship date", dateErr.Field)
	assert.Equal(t, "soon", dateErr.Value)
}

func TestEnrichLenient_RejectsAndCounts(t *testing.T) {
	in := raw(
		line{order: "A", customer: "C", sales: 1},
		line{order: "B", customer: "C", sales: 1},
		line{order: "C", customer: "C", sales: 1},
	)
	in[0].OrderDate = "n/a"
	in[2].ShipDate = ""

	rows, rejected := EnrichLenient(in)
	require.Len(t, rows, 1)
	assert.Equal(t, "B", rows[0].OrderID)

	require.Len(t, rejected, 2)
	assert.Equal(t, "order date", rejected[0].Field)
	assert.Equal(t, 1, rejected[0].Row)
	assert.Equal(t, 3, rejected[1].Row)
}
