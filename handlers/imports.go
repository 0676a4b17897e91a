package handlers

import (
	"net/http"
	"strings"

	"github.com/AlexanderErdelyi/Work-Time-Tracker/apperr"
	"github.com/AlexanderErdelyi/Work-Time-Tracker/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ImportHandler struct {
	importer *services.ImportService
}

func NewImportHandler(importer *services.ImportService) *ImportHandler {
	return &ImportHandler{importer: importer}
}

// ImportTasks accepts a multipart xlsx upload and upserts its rows. A
// partial import returns 400 with the full result so the caller sees both
// the errors and what was still committed.
func (h *ImportHandler) ImportTasks(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, apperr.Validation("no file uploaded"))
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".xlsx") {
		respondError(w, apperr.Validation("only Excel files (.xlsx) are supported"))
		return
	}

	result, err := h.importer.ImportXLSX(r.Context(), file)
	if err != nil {
		respondError(w, apperr.Validation(err.Error()))
		return
	}

	status := http.StatusOK
	if !result.Success() {
		status = http.StatusBadRequest
	}
	respondJSON(w, status, result)
}

func (h *ImportHandler) Template(w http.ResponseWriter, r *http.Request) {
	template, err := h.importer.Template()
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename=task-import-template.xlsx`)
	w.Write(template)
}
