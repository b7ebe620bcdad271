package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"superstore-dashboard/internal/services"
)

// writeCSV buffers the whole export so a failure can still become a JSON
// error instead of a truncated file.
func (h *APIHandlers) writeCSV(w http.ResponseWriter, r *http.Request, name string, write func(*bytes.Buffer, *services.View) error) {
	f, err := FilterFromQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	v := h.analytics.View(r.Context(), f)

	var buf bytes.Buffer
	if err := write(&buf, v); err != nil {
		h.fail(w, r, fmt.Errorf("export %s: %w", name, err))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("X-Dataset-Version", strconv.FormatUint(v.Version, 10))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *APIHandlers) HandleExportRows(w http.ResponseWriter, r *http.Request) {
	h.writeCSV(w, r, "superstore-rows.csv", func(buf *bytes.Buffer, v *services.View) error {
		return services.WriteRowsCSV(buf, v.Rows)
	})
}

func (h *APIHandlers) HandleExportKPIs(w http.ResponseWriter, r *http.Request) {
	h.writeCSV(w, r, "superstore-kpis.csv", func(buf *bytes.Buffer, v *services.View) error {
		return services.WriteSummaryCSV(buf, v.Summary)
	})
}
