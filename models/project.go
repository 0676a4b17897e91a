package models

import (
	"time"
)

type Project struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`
	No          *string    `gorm:"size:50" json:"no"`
	Name        string     `gorm:"not null;size:200;index:idx_projects_customer_name" json:"name"`
	Description *string    `gorm:"size:500" json:"description"`
	CustomerID  uint       `gorm:"not null;index:idx_projects_customer_name" json:"customer_id"`
	Customer    *Customer  `gorm:"foreignKey:CustomerID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"customer,omitempty"`
	IsActive    bool       `gorm:"default:true" json:"is_active"`
	Tasks       []Task     `gorm:"foreignKey:ProjectID" json:"tasks,omitempty"`
}

type ProjectFilter struct {
	CustomerID *uint
	IsActive   *bool
	Search     string
}
