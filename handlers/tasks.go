package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/AlexanderErdelyi/Work-Time-Tracker/apperr"
	"github.com/AlexanderErdelyi/Work-Time-Tracker/database"
	"github.com/AlexanderErdelyi/Work-Time-Tracker/models"
)

type TaskHandler struct{}

func NewTaskHandler() *TaskHandler {
	return &TaskHandler{}
}

type createTaskRequest struct {
	Name              string  `json:"name"`
	Description       *string `json:"description"`
	Position          *string `json:"position"`
	ProcurementNumber *string `json:"procurement_number"`
	ProjectID         uint    `json:"project_id"`
}

type updateTaskRequest struct {
	Name              *string `json:"name"`
	Description       *string `json:"description"`
	Position          *string `json:"position"`
	ProcurementNumber *string `json:"procurement_number"`
	ProjectID         *uint   `json:"project_id"`
	IsActive          *bool   `json:"is_active"`
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := models.TaskFilter{
		ProjectID: uintQuery(r, "project_id"),
		IsActive:  boolQuery(r, "is_active"),
		Search:    r.URL.Query().Get("search"),
	}

	query := database.GetDB().Model(&models.Task{}).Preload("Project.Customer")
	if filter.ProjectID != nil {
		query = query.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", pattern, pattern)
	}

	var tasks []models.Task
	if err := query.Order("name").Find(&tasks).Error; err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	task, err := findTask(id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.Name == "" {
		respondError(w, apperr.Validation("name is required"))
		return
	}
	if _, err := findProject(req.ProjectID); err != nil {
		respondError(w, apperr.Validation(fmt.Sprintf("project %d not found", req.ProjectID)))
		return
	}

	task := models.Task{
		Name:              req.Name,
		Description:       req.Description,
		Position:          req.Position,
		ProcurementNumber: req.ProcurementNumber,
		ProjectID:         req.ProjectID,
		IsActive:          true,
	}
	if err := database.GetDB().Create(&task).Error; err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req updateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	task, err := findTask(id)
	if err != nil {
		respondError(w, err)
		return
	}

	if req.Name != nil {
		if *req.Name == "" {
			respondError(w, apperr.Validation("name cannot be empty"))
			return
		}
		task.Name = *req.Name
	}
	if req.Description != nil {
		task.Description = req.Description
	}
	if req.Position != nil {
		task.Position = req.Position
	}
	if req.ProcurementNumber != nil {
		task.ProcurementNumber = req.ProcurementNumber
	}
	if req.ProjectID != nil {
		if _, err := findProject(*req.ProjectID); err != nil {
			respondError(w, apperr.Validation(fmt.Sprintf("project %d not found", *req.ProjectID)))
			return
		}
		task.ProjectID = *req.ProjectID
	}
	if req.IsActive != nil {
		task.IsActive = *req.IsActive
	}
	now := time.Now().UTC()
	task.UpdatedAt = &now

	if err := database.GetDB().Save(task).Error; err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	task, err := findTask(id)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := database.GetDB().Delete(task).Error; err != nil {
		if isFKViolation(err) {
			respondError(w, apperr.Conflict("task owns time entries and cannot be deleted"))
			return
		}
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func findTask(id uint) (*models.Task, error) {
	var task models.Task
	if err := database.GetDB().First(&task, id).Error; err != nil {
		return nil, apperr.NotFound(fmt.Sprintf("task %d not found", id))
	}
	return &task, nil
}
