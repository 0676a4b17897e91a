package models

import (
	"time"
)

type Task struct {
	ID                uint        `gorm:"primaryKey" json:"id"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         *time.Time  `gorm:"autoUpdateTime:false" json:"updated_at"`
	Name              string      `gorm:"not null;size:200;index:idx_tasks_project_name" json:"name"`
	Description       *string     `gorm:"size:500" json:"description"`
	Position          *string     `gorm:"size:100" json:"position"`
	ProcurementNumber *string     `gorm:"size:100" json:"procurement_number"`
	ProjectID         uint        `gorm:"not null;index:idx_tasks_project_name" json:"project_id"`
	Project           *Project    `gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"project,omitempty"`
	IsActive          bool        `gorm:"default:true" json:"is_active"`
	TimeEntries       []TimeEntry `gorm:"foreignKey:TaskID" json:"time_entries,omitempty"`
}

type TaskFilter struct {
	ProjectID *uint
	IsActive  *bool
	Search    string
}
