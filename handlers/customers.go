package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/AlexanderErdelyi/Work-Time-Tracker/apperr"
	"github.com/AlexanderErdelyi/Work-Time-Tracker/database"
	"github.com/AlexanderErdelyi/Work-Time-Tracker/models"
)

type CustomerHandler struct{}

func NewCustomerHandler() *CustomerHandler {
	return &CustomerHandler{}
}

type createCustomerRequest struct {
	Name        string  `json:"name"`
	No          *string `json:"no"`
	Description *string `json:"description"`
}

type updateCustomerRequest struct {
	Name        *string `json:"name"`
	No          *string `json:"no"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := models.CustomerFilter{
		IsActive: boolQuery(r, "is_active"),
		Search:   r.URL.Query().Get("search"),
	}

	query := database.GetDB().Model(&models.Customer{})
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", pattern, pattern)
	}

	var customers []models.Customer
	if err := query.Order("name").Find(&customers).Error; err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, customers)
}

func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	customer, err := findCustomer(id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, customer)
}

func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.Name == "" {
		respondError(w, apperr.Validation("name is required"))
		return
	}

	customer := models.Customer{
		Name:        req.Name,
		No:          req.No,
		Description: req.Description,
		IsActive:    true,
	}
	if err := database.GetDB().Create(&customer).Error; err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, customer)
}

func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req updateCustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	customer, err := findCustomer(id)
	if err != nil {
		respondError(w, err)
		return
	}

	if req.Name != nil {
		if *req.Name == "" {
			respondError(w, apperr.Validation("name cannot be empty"))
			return
		}
		customer.Name = *req.Name
	}
	if req.No != nil {
		customer.No = req.No
	}
	if req.Description != nil {
		customer.Description = req.Description
	}
	if req.IsActive != nil {
		customer.IsActive = *req.IsActive
	}
	now := time.Now().UTC()
	customer.UpdatedAt = &now

	if err := database.GetDB().Save(customer).Error; err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, customer)
}

func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	customer, err := findCustomer(id)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := database.GetDB().Delete(customer).Error; err != nil {
		if isFKViolation(err) {
			respondError(w, apperr.Conflict("customer owns projects and cannot be deleted"))
			return
		}
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func findCustomer(id uint) (*models.Customer, error) {
	var customer models.Customer
	if err := database.GetDB().First(&customer, id).Error; err != nil {
		return nil, apperr.NotFound(fmt.Sprintf("customer %d not found", id))
	}
	return &customer, nil
}
