package services

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRowsCSV(t *testing.T) {
	rows := scenario(t)

	var buf bytes.Buffer
	require.NoError(t, WriteRowsCSV(&buf, rows))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, len(rows)+1)
	assert.Equal(t, exportHeader, records[0])

	first := records[1]
	assert.Equal(t, "A", first[1])
	assert.Equal(t, "2016-01-15", first[2])
	assert.Equal(t, "100", first[17])
	assert.Equal(t, "20", first[26])
	assert.Equal(t, "3", first[27])
}

func TestWriteRowsCSV_IsReproducible(t *testing.T) {
	rows := sample(t)
	f := Filter{Regions: []string{"East", "West"}}

	var a, b bytes.Buffer
	require.NoError(t, WriteRowsCSV(&a, Apply(rows, f.Predicate())))
	require.NoError(t, WriteRowsCSV(&b, Apply(rows, f.Predicate())))
	assert.Equal(t, a.String(), b.String())
	assert.Equal(t, 6, strings.Count(a.String(), "\n"))
}

func TestWriteRowsCSV_UndefinedMarginIsBlank(t *testing.T) {
	rows := enriched(t, line{order: "Z", customer: "c", sales: 0, profit: -1})

	var buf bytes.Buffer
	require.NoError(t, WriteRowsCSV(&buf, rows))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "", records[1][26])
}

func TestWriteSummaryCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummaryCSV(&buf, Summarize(scenario(t))))

	want := strings.Join([]string{
		"Metric,Value",
		"Total Sales,$350.00",
		"Total Profit,$50.00",
		"Total Orders,2",
		"Avg Order Value,$175.00",
		"Profit Margin,14.29%",
		"Date Range,2016-01-15 to 2016-01-15",
	}, "\n") + "\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteSummaryCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummaryCSV(&buf, Summarize(nil)))
	assert.Contains(t, buf.String(), "Profit Margin,n/a\n")
	assert.Contains(t, buf.String(), "Date Range,n/a\n")
}
