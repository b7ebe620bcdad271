package templates

import (
	"encoding/json"
	"time"

	"superstore-dashboard/internal/services"
)

// initialSignals ticks every option, so the first view is the whole dataset.
func initialSignals(opts services.FilterOptions) string {
	day := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(time.DateOnly)
	}
	signals := map[string]any{
		"from":         day(opts.Dates.From),
		"to":           day(opts.Dates.To),
		"regions":      nonNil(opts.Regions),
		"categories":   nonNil(opts.Categories),
		"segments":     nonNil(opts.Segments),
		"monthlyTrend": map[string]any{"labels": []string{}, "sales": []float64{}, "profit": []float64{}},
	}
	b, _ := json.Marshal(signals)
	return string(b)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// exportLink is the Datastar expression for a download link carrying the
// current filter signals.
func exportLink(path string) string {
	return "'" + path + "?from=' + $from + '&to=' + $to + '&region=' + $regions.join(',') + '&category=' + $categories.join(',') + '&segment=' + $segments.join(',')"
}

const trendEffect = "window.drawTrend && window.drawTrend($monthlyTrend)"

var gridPanels = []string{RegionsID, CategoriesID, SegmentsID, YearOverYearID, TopProductsID, TopCustomersID}

const trendScript = `<script>
window.drawTrend = (function () {
  let chart;
  return function (data) {
    const el = document.getElementById('monthly-trend');
    if (!el || !window.Chart || !data) return;
    const datasets = [
      { label: 'Sales', data: data.sales, borderColor: '#2563eb', tension: 0.2 },
      { label: 'Profit', data: data.profit, borderColor: '#16a34a', tension: 0.2 },
    ];
    if (chart) {
      chart.data.labels = data.labels;
      chart.data.datasets = datasets;
      chart.update();
      return;
    }
    chart = new Chart(el, { type: 'line', data: { labels: data.labels, datasets: datasets } });
  };
})();
</script>`

const pageStyles = `<style>
body { font-family: system-ui, sans-serif; margin: 0; display: grid; grid-template-columns: 260px 1fr; grid-template-rows: auto 1fr; background: #f8fafc; color: #0f172a; }
header { grid-column: 1 / 3; padding: 1rem 2rem; background: #0f172a; color: #f8fafc; }
header .status { font-size: 0.9rem; opacity: 0.8; }
.filters { padding: 1rem; border-right: 1px solid #e2e8f0; }
.control { display: flex; flex-direction: column; gap: 0.25rem; margin-bottom: 1rem; font-weight: 600; }
.control select { min-height: 6rem; }
.exports a { display: block; margin-top: 0.5rem; }
main { padding: 1rem 2rem; }
.kpi-grid { display: grid; grid-template-columns: repeat(5, 1fr); gap: 1rem; }
.kpi-card { background: #fff; border-radius: 8px; padding: 1rem; box-shadow: 0 1px 2px #0002; }
.kpi-value { font-size: 1.5rem; font-weight: 700; }
.kpi-delta { font-size: 0.8rem; color: #64748b; }
.grid { display: grid; grid-template-columns: repeat(2, 1fr); gap: 1rem; }
.panel { background: #fff; border-radius: 8px; padding: 1rem; margin: 1rem 0; }
.panel.error { color: #b91c1c; }
.modern-table { width: 100%; border-collapse: collapse; }
.modern-table th, .modern-table td { text-align: left; padding: 0.35rem 0.5rem; border-bottom: 1px solid #e2e8f0; }
.empty { color: #64748b; }
</style>`
