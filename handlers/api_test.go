package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AlexanderErdelyi/Work-Time-Tracker/database"
	"github.com/AlexanderErdelyi/Work-Time-Tracker/services"

	"github.com/glebarez/sqlite"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestRouter wires the full API against an in-memory database, mirroring
// the route table in main.
func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	database.DB = db

	timerService := services.NewTimerService(db)
	importService := services.NewImportService(db)
	exportService := services.NewExportService()

	customerHandler := NewCustomerHandler()
	projectHandler := NewProjectHandler()
	taskHandler := NewTaskHandler()
	timeEntryHandler := NewTimeEntryHandler(timerService)
	importHandler := NewImportHandler(importService)
	exportHandler := NewExportHandler(timerService, exportService)

	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		r.Route("/customers", func(r chi.Router) {
			r.Get("/", customerHandler.List)
			r.Post("/", customerHandler.Create)
			r.Get("/{id}", customerHandler.Get)
			r.Put("/{id}", customerHandler.Update)
			r.Delete("/{id}", customerHandler.Delete)
		})
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", projectHandler.List)
			r.Post("/", projectHandler.Create)
			r.Get("/{id}", projectHandler.Get)
			r.Put("/{id}", projectHandler.Update)
			r.Delete("/{id}", projectHandler.Delete)
		})
		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.List)
			r.Post("/", taskHandler.Create)
			r.Get("/{id}", taskHandler.Get)
			r.Put("/{id}", taskHandler.Update)
			r.Delete("/{id}", taskHandler.Delete)
		})
		r.Route("/time-entries", func(r chi.Router) {
			r.Get("/", timeEntryHandler.List)
			r.Post("/", timeEntryHandler.Create)
			r.Get("/running", timeEntryHandler.Running)
			r.Post("/start", timeEntryHandler.Start)
			r.Get("/daily-totals", timeEntryHandler.DailyTotals)
			r.Get("/weekly-totals", timeEntryHandler.WeeklyTotals)
			r.Get("/{id}", timeEntryHandler.Get)
			r.Put("/{id}", timeEntryHandler.Update)
			r.Delete("/{id}", timeEntryHandler.Delete)
			r.Post("/{id}/stop", timeEntryHandler.Stop)
			r.Post("/{id}/restart", timeEntryHandler.Restart)
		})
		r.Route("/import", func(r chi.Router) {
			r.Post("/tasks", importHandler.ImportTasks)
			r.Get("/tasks/template", importHandler.Template)
		})
		r.Route("/export", func(r chi.Router) {
			r.Get("/csv", exportHandler.ExportCSV)
			r.Get("/xlsx", exportHandler.ExportXLSX)
		})
	})
	return router
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

type idResponse struct {
	ID uint `json:"id"`
}

func createHierarchy(t *testing.T, router http.Handler) (customerID, projectID, taskID uint) {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/api/customers", map[string]interface{}{"name": "Acme Corp"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var customer idResponse
	decodeBody(t, rec, &customer)

	rec = doJSON(t, router, http.MethodPost, "/api/projects", map[string]interface{}{
		"name": "Website Redesign", "customer_id": customer.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var project idResponse
	decodeBody(t, rec, &project)

	rec = doJSON(t, router, http.MethodPost, "/api/tasks", map[string]interface{}{
		"name": "Frontend Development", "project_id": project.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var task idResponse
	decodeBody(t, rec, &task)

	return customer.ID, project.ID, task.ID
}

func TestCustomerValidation(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/customers", map[string]interface{}{"name": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/customers/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteRestrictions(t *testing.T) {
	router := newTestRouter(t)
	customerID, projectID, taskID := createHierarchy(t, router)

	// Parents with children cannot be deleted.
	rec := doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/customers/%d", customerID), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/projects/%d", projectID), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// A task with time entries is pinned too.
	rec = doJSON(t, router, http.MethodPost, "/api/time-entries/start", map[string]interface{}{"task_id": taskID})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", taskID), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Bottom-up teardown succeeds.
	var running struct {
		ID uint `json:"id"`
	}
	rec = doJSON(t, router, http.MethodGet, "/api/time-entries/running", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &running)
	rec = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/time-entries/%d", running.ID), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	for _, path := range []string{
		fmt.Sprintf("/api/tasks/%d", taskID),
		fmt.Sprintf("/api/projects/%d", projectID),
		fmt.Sprintf("/api/customers/%d", customerID),
	} {
		rec = doJSON(t, router, http.MethodDelete, path, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code, path)
	}
}

func TestTimerLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	_, _, taskID := createHierarchy(t, router)

	// Idle: running returns null.
	rec := doJSON(t, router, http.MethodGet, "/api/time-entries/running", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null\n", rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/api/time-entries/start", map[string]interface{}{
		"task_id": taskID, "notes": "working",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var started struct {
		ID           uint    `json:"id"`
		IsRunning    bool    `json:"is_running"`
		TaskName     *string `json:"task_name"`
		ProjectName  *string `json:"project_name"`
		CustomerName *string `json:"customer_name"`
	}
	decodeBody(t, rec, &started)
	assert.True(t, started.IsRunning)
	require.NotNil(t, started.TaskName)
	assert.Equal(t, "Frontend Development", *started.TaskName)
	require.NotNil(t, started.CustomerName)
	assert.Equal(t, "Acme Corp", *started.CustomerName)

	// Second start conflicts.
	rec = doJSON(t, router, http.MethodPost, "/api/time-entries/start", map[string]interface{}{"task_id": taskID})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/time-entries/%d/stop", started.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stopped struct {
		IsRunning       bool     `json:"is_running"`
		DurationMinutes *float64 `json:"duration_minutes"`
	}
	decodeBody(t, rec, &stopped)
	assert.False(t, stopped.IsRunning)
	require.NotNil(t, stopped.DurationMinutes)

	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/time-entries/%d/stop", started.ID), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Restart with preserved elapsed time re-opens it.
	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/time-entries/%d/restart", started.ID), map[string]interface{}{
		"elapsed_seconds": 90.0,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var restarted struct {
		IsRunning bool `json:"is_running"`
	}
	decodeBody(t, rec, &restarted)
	assert.True(t, restarted.IsRunning)
}

func TestStartWithUnknownTaskOverHTTP(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/time-entries/start", map[string]interface{}{"task_id": 41})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestManualEntryValidationOverHTTP(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/time-entries", map[string]interface{}{
		"start_time": "2026-03-02T10:00:00Z",
		"end_time":   "2026-03-02T09:00:00Z",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func uploadWorkbook(t *testing.T, router http.Handler, rows [][]string) *httptest.ResponseRecorder {
	t.Helper()

	wb := excelize.NewFile()
	for i, row := range rows {
		for j, value := range row {
			cellRef, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, wb.SetCellValue("Sheet1", cellRef, value))
		}
	}
	buf, err := wb.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, wb.Close())

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "import.xlsx")
	require.NoError(t, err)
	_, err = part.Write(buf.Bytes())
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/import/tasks", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestImportEndpoint(t *testing.T) {
	router := newTestRouter(t)

	header := []string{
		"Customer Name", "Customer No", "Customer Description",
		"Project Name", "Project No", "Project Description",
		"Task Name", "Task Description", "Task Position", "Task Procurement Number",
	}
	rec := uploadWorkbook(t, router, [][]string{
		header,
		{"Acme", "", "", "Website", "", "", "Dev", "", "", ""},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var result services.ImportResult
	decodeBody(t, rec, &result)
	assert.Equal(t, 1, result.CustomersCreated)
	assert.Equal(t, 1, result.TasksCreated)
	assert.Empty(t, result.Errors)
}

func TestImportEndpointPartialFailure(t *testing.T) {
	router := newTestRouter(t)

	header := []string{
		"Customer Name", "Customer No", "Customer Description",
		"Project Name", "Project No", "Project Description",
		"Task Name", "Task Description", "Task Position", "Task Procurement Number",
	}
	rec := uploadWorkbook(t, router, [][]string{
		header,
		{"Acme", "", "", "Website", "", "", "Dev", "", "", ""},
		{"Acme", "", "", "Website", "", "", "", "", "", ""}, // no task name
		{"Acme", "", "", "Website", "", "", "Design", "", "", ""},
	})

	// Partial success still reports failure; counts tell what committed.
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var result services.ImportResult
	decodeBody(t, rec, &result)
	assert.Equal(t, 2, result.TasksCreated)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Row 3: Task Name is required", result.Errors[0])
}

func TestImportEndpointRejectsNonXLSX(t *testing.T) {
	router := newTestRouter(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "import.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("a,b,c"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/import/tasks", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportTemplateEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/import/tasks/template", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))

	wb, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer wb.Close()
	rows, err := wb.GetRows(wb.GetSheetList()[0])
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Customer Name", rows[0][0])
}

func TestExportCSVEndpoint(t *testing.T) {
	router := newTestRouter(t)
	_, _, taskID := createHierarchy(t, router)

	rec := doJSON(t, router, http.MethodPost, "/api/time-entries", map[string]interface{}{
		"task_id":    taskID,
		"start_time": "2026-03-02T09:00:00Z",
		"end_time":   "2026-03-02T10:30:00Z",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/export/csv", nil)
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req)

	require.Equal(t, http.StatusOK, rec2.Code)
	assert.Equal(t, "text/csv", rec2.Header().Get("Content-Type"))
	body := rec2.Body.String()
	assert.True(t, strings.Contains(body, "Acme Corp"))
	assert.True(t, strings.Contains(body, "Frontend Development"))
	assert.True(t, strings.Contains(body, "1.50"))
}

func TestExportXLSXEndpoint(t *testing.T) {
	router := newTestRouter(t)
	_, _, taskID := createHierarchy(t, router)

	rec := doJSON(t, router, http.MethodPost, "/api/time-entries", map[string]interface{}{
		"task_id":    taskID,
		"start_time": "2026-03-02T09:00:00Z",
		"end_time":   "2026-03-02T10:30:00Z",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/export/xlsx", nil)
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req)

	require.Equal(t, http.StatusOK, rec2.Code)
	wb, err := excelize.OpenReader(bytes.NewReader(rec2.Body.Bytes()))
	require.NoError(t, err)
	defer wb.Close()
	rows, err := wb.GetRows("Time Entries")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Acme Corp", rows[1][0])
}

func TestUpdateEntryClearEndTimeOverHTTP(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/time-entries", map[string]interface{}{
		"start_time": "2026-03-02T09:00:00Z",
		"end_time":   "2026-03-02T10:00:00Z",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created idResponse
	decodeBody(t, rec, &created)

	rec = doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/time-entries/%d", created.ID), map[string]interface{}{
		"clear_end_time": true,
		"notes":          "back at it",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated struct {
		IsRunning bool    `json:"is_running"`
		Notes     *string `json:"notes"`
	}
	decodeBody(t, rec, &updated)
	assert.True(t, updated.IsRunning)
	require.NotNil(t, updated.Notes)
	assert.Equal(t, "back at it", *updated.Notes)
}
