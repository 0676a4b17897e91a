package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/AlexanderErdelyi/Work-Time-Tracker/apperr"
	"github.com/AlexanderErdelyi/Work-Time-Tracker/database"
	"github.com/AlexanderErdelyi/Work-Time-Tracker/models"
)

type ProjectHandler struct{}

func NewProjectHandler() *ProjectHandler {
	return &ProjectHandler{}
}

type createProjectRequest struct {
	Name        string  `json:"name"`
	No          *string `json:"no"`
	Description *string `json:"description"`
	CustomerID  uint    `json:"customer_id"`
}

type updateProjectRequest struct {
	Name        *string `json:"name"`
	No          *string `json:"no"`
	Description *string `json:"description"`
	CustomerID  *uint   `json:"customer_id"`
	IsActive    *bool   `json:"is_active"`
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := models.ProjectFilter{
		CustomerID: uintQuery(r, "customer_id"),
		IsActive:   boolQuery(r, "is_active"),
		Search:     r.URL.Query().Get("search"),
	}

	query := database.GetDB().Model(&models.Project{}).Preload("Customer")
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", pattern, pattern)
	}

	var projects []models.Project
	if err := query.Order("name").Find(&projects).Error; err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, projects)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	project, err := findProject(id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.Name == "" {
		respondError(w, apperr.Validation("name is required"))
		return
	}
	if _, err := findCustomer(req.CustomerID); err != nil {
		respondError(w, apperr.Validation(fmt.Sprintf("customer %d not found", req.CustomerID)))
		return
	}

	project := models.Project{
		Name:        req.Name,
		No:          req.No,
		Description: req.Description,
		CustomerID:  req.CustomerID,
		IsActive:    true,
	}
	if err := database.GetDB().Create(&project).Error; err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req updateProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	project, err := findProject(id)
	if err != nil {
		respondError(w, err)
		return
	}

	if req.Name != nil {
		if *req.Name == "" {
			respondError(w, apperr.Validation("name cannot be empty"))
			return
		}
		project.Name = *req.Name
	}
	if req.No != nil {
		project.No = req.No
	}
	if req.Description != nil {
		project.Description = req.Description
	}
	if req.CustomerID != nil {
		if _, err := findCustomer(*req.CustomerID); err != nil {
			respondError(w, apperr.Validation(fmt.Sprintf("customer %d not found", *req.CustomerID)))
			return
		}
		project.CustomerID = *req.CustomerID
	}
	if req.IsActive != nil {
		project.IsActive = *req.IsActive
	}
	now := time.Now().UTC()
	project.UpdatedAt = &now

	if err := database.GetDB().Save(project).Error; err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	project, err := findProject(id)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := database.GetDB().Delete(project).Error; err != nil {
		if isFKViolation(err) {
			respondError(w, apperr.Conflict("project owns tasks and cannot be deleted"))
			return
		}
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func findProject(id uint) (*models.Project, error) {
	var project models.Project
	if err := database.GetDB().First(&project, id).Error; err != nil {
		return nil, apperr.NotFound(fmt.Sprintf("project %d not found", id))
	}
	return &project, nil
}
