package handlers

import (
	"net/http"
	"time"

	"github.com/AlexanderErdelyi/Work-Time-Tracker/apperr"
	"github.com/AlexanderErdelyi/Work-Time-Tracker/models"
	"github.com/AlexanderErdelyi/Work-Time-Tracker/services"
)

type TimeEntryHandler struct {
	timer *services.TimerService
}

func NewTimeEntryHandler(timer *services.TimerService) *TimeEntryHandler {
	return &TimeEntryHandler{timer: timer}
}

// timeEntryResponse enriches an entry with the names of its task, project
// and customer so clients do not have to resolve the hierarchy themselves.
type timeEntryResponse struct {
	ID              uint       `json:"id"`
	TaskID          *uint      `json:"task_id"`
	TaskName        *string    `json:"task_name"`
	ProjectName     *string    `json:"project_name"`
	CustomerName    *string    `json:"customer_name"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	Notes           *string    `json:"notes"`
	DurationMinutes *float64   `json:"duration_minutes"`
	IsRunning       bool       `json:"is_running"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at"`
}

func toTimeEntryResponse(entry *models.TimeEntry) timeEntryResponse {
	resp := timeEntryResponse{
		ID:              entry.ID,
		TaskID:          entry.TaskID,
		StartTime:       entry.StartTime,
		EndTime:         entry.EndTime,
		Notes:           entry.Notes,
		DurationMinutes: entry.DurationMinutes(),
		IsRunning:       entry.IsRunning(),
		CreatedAt:       entry.CreatedAt,
		UpdatedAt:       entry.UpdatedAt,
	}
	if task := entry.Task; task != nil {
		resp.TaskName = &task.Name
		if project := task.Project; project != nil {
			resp.ProjectName = &project.Name
			if customer := project.Customer; customer != nil {
				resp.CustomerName = &customer.Name
			}
		}
	}
	return resp
}

func toTimeEntryResponses(entries []models.TimeEntry) []timeEntryResponse {
	out := make([]timeEntryResponse, len(entries))
	for i := range entries {
		out[i] = toTimeEntryResponse(&entries[i])
	}
	return out
}

type startTimerRequest struct {
	TaskID *int    `json:"task_id"`
	Notes  *string `json:"notes"`
}

type restartTimerRequest struct {
	StartTime      *time.Time `json:"start_time"`
	ElapsedSeconds *float64   `json:"elapsed_seconds"`
}

type createTimeEntryRequest struct {
	TaskID    *int       `json:"task_id"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Notes     *string    `json:"notes"`
}

type updateTimeEntryRequest struct {
	TaskID       *int       `json:"task_id"`
	ClearTask    bool       `json:"clear_task"`
	StartTime    *time.Time `json:"start_time"`
	EndTime      *time.Time `json:"end_time"`
	ClearEndTime bool       `json:"clear_end_time"`
	Notes        *string    `json:"notes"`
}

func entryFilterFromRequest(r *http.Request) models.TimeEntryFilter {
	return models.TimeEntryFilter{
		StartDate:  timeQuery(r, "start_date"),
		EndDate:    timeQuery(r, "end_date"),
		CustomerID: uintQuery(r, "customer_id"),
		ProjectID:  uintQuery(r, "project_id"),
		TaskID:     uintQuery(r, "task_id"),
		Search:     r.URL.Query().Get("search"),
		IsRunning:  boolQuery(r, "is_running"),
	}
}

func (h *TimeEntryHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.timer.List(r.Context(), entryFilterFromRequest(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toTimeEntryResponses(entries))
}

func (h *TimeEntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	entry, err := h.timer.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toTimeEntryResponse(entry))
}

func (h *TimeEntryHandler) Running(w http.ResponseWriter, r *http.Request) {
	entry, err := h.timer.Running(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	if entry == nil {
		respondJSON(w, http.StatusOK, (*timeEntryResponse)(nil))
		return
	}
	respondJSON(w, http.StatusOK, toTimeEntryResponse(entry))
}

func (h *TimeEntryHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startTimerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	entry, err := h.timer.Start(r.Context(), taskIDFromRequest(req.TaskID), req.Notes)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toTimeEntryResponse(entry))
}

func (h *TimeEntryHandler) Stop(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	entry, err := h.timer.Stop(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toTimeEntryResponse(entry))
}

// Restart re-opens a stopped entry. The new start time can be given
// directly, or as the number of already-elapsed seconds to preserve, in
// which case the entry restarts at now minus that much.
func (h *TimeEntryHandler) Restart(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req restartTimerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	var newStart time.Time
	switch {
	case req.StartTime != nil:
		newStart = *req.StartTime
	case req.ElapsedSeconds != nil && *req.ElapsedSeconds >= 0:
		newStart = time.Now().UTC().Add(-time.Duration(*req.ElapsedSeconds * float64(time.Second)))
	default:
		respondError(w, apperr.Validation("start_time or elapsed_seconds is required"))
		return
	}

	entry, err := h.timer.Restart(r.Context(), id, newStart)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toTimeEntryResponse(entry))
}

func (h *TimeEntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTimeEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	entry, err := h.timer.Create(r.Context(), services.CreateTimeEntryInput{
		TaskID:    taskIDFromRequest(req.TaskID),
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Notes:     req.Notes,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toTimeEntryResponse(entry))
}

func (h *TimeEntryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req updateTimeEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	entry, err := h.timer.Update(r.Context(), id, services.UpdateTimeEntryInput{
		TaskID:       taskIDFromRequest(req.TaskID),
		ClearTask:    req.ClearTask,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		ClearEndTime: req.ClearEndTime,
		Notes:        req.Notes,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toTimeEntryResponse(entry))
}

func (h *TimeEntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.timer.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (h *TimeEntryHandler) DailyTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.timer.DailyTotals(r.Context(), entryFilterFromRequest(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, totals)
}

func (h *TimeEntryHandler) WeeklyTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.timer.WeeklyTotals(r.Context(), entryFilterFromRequest(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, totals)
}
