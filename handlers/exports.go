package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/AlexanderErdelyi/Work-Time-Tracker/services"
)

type ExportHandler struct {
	timer    *services.TimerService
	exporter *services.ExportService
}

func NewExportHandler(timer *services.TimerService, exporter *services.ExportService) *ExportHandler {
	return &ExportHandler{timer: timer, exporter: exporter}
}

// ExportCSV streams the filtered entries as CSV. Filters are the same as on
// the time entry list.
func (h *ExportHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	entries, err := h.timer.List(r.Context(), entryFilterFromRequest(r))
	if err != nil {
		respondError(w, err)
		return
	}

	data, err := h.exporter.CSV(entries)
	if err != nil {
		respondError(w, err)
		return
	}

	filename := fmt.Sprintf("time-entries_%s.csv", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Write(data)
}

func (h *ExportHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	entries, err := h.timer.List(r.Context(), entryFilterFromRequest(r))
	if err != nil {
		respondError(w, err)
		return
	}

	data, err := h.exporter.XLSX(entries)
	if err != nil {
		respondError(w, err)
		return
	}

	filename := fmt.Sprintf("time-entries_%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Write(data)
}
