package models

import (
	"time"
)

// TimeEntry is a single tracked span of work. An entry with a nil EndTime is
// the running timer; a partial unique index (see database.Init) keeps the
// store from ever holding more than one of those.
type TimeEntry struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`
	TaskID    *uint      `gorm:"index" json:"task_id"`
	Task      *Task      `gorm:"foreignKey:TaskID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"task,omitempty"`
	StartTime time.Time  `gorm:"not null;index" json:"start_time"`
	EndTime   *time.Time `gorm:"index" json:"end_time"`
	Notes     *string    `gorm:"size:1000" json:"notes"`
}

func (e *TimeEntry) IsRunning() bool {
	return e.EndTime == nil
}

func (e *TimeEntry) Duration() *time.Duration {
	if e.EndTime == nil {
		return nil
	}
	d := e.EndTime.Sub(e.StartTime)
	return &d
}

func (e *TimeEntry) DurationMinutes() *float64 {
	d := e.Duration()
	if d == nil {
		return nil
	}
	m := d.Minutes()
	return &m
}

type TimeEntryFilter struct {
	StartDate  *time.Time
	EndDate    *time.Time
	CustomerID *uint
	ProjectID  *uint
	TaskID     *uint
	Search     string
	IsRunning  *bool
}
