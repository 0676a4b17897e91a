package models

import (
	"time"
)

type Customer struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`
	No          *string    `gorm:"size:50" json:"no"`
	Name        string     `gorm:"index;not null;size:200" json:"name"`
	Description *string    `gorm:"size:500" json:"description"`
	IsActive    bool       `gorm:"default:true" json:"is_active"`
	Projects    []Project  `gorm:"foreignKey:CustomerID" json:"projects,omitempty"`
}

type CustomerFilter struct {
	IsActive *bool
	Search   string
}
