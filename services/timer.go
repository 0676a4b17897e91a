package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/AlexanderErdelyi/Work-Time-Tracker/apperr"
	"github.com/AlexanderErdelyi/Work-Time-Tracker/models"

	"gorm.io/gorm"
)

// TimerService owns the time-entry lifecycle: the start/stop/restart state
// machine plus plain CRUD over entries. The running timer is never cached in
// process memory; it is always the entry whose end_time is NULL, re-read from
// the store on every check. Transitions are serialized behind a mutex, and
// the store backs that up with a partial unique index over running rows, so
// two concurrent starts cannot both succeed even across server instances.
type TimerService struct {
	db *gorm.DB
	mu sync.Mutex
}

func NewTimerService(db *gorm.DB) *TimerService {
	return &TimerService{db: db}
}

type CreateTimeEntryInput struct {
	TaskID    *uint
	StartTime *time.Time
	EndTime   *time.Time
	Notes     *string
}

// UpdateTimeEntryInput uses nil pointers for "leave unchanged". Clearing a
// nullable field is requested with an explicit flag rather than a sentinel
// value, so "no change" and "set to null" stay distinguishable.
type UpdateTimeEntryInput struct {
	TaskID       *uint
	ClearTask    bool
	StartTime    *time.Time
	EndTime      *time.Time
	ClearEndTime bool
	Notes        *string
}

type TimeEntrySummary struct {
	Date         time.Time `json:"date"`
	TotalMinutes float64   `json:"total_minutes"`
	TotalHours   float64   `json:"total_hours"`
	EntryCount   int       `json:"entry_count"`
}

// Running returns the entry currently tracking time, or nil when idle.
func (s *TimerService) Running(ctx context.Context) (*models.TimeEntry, error) {
	var entry models.TimeEntry
	err := s.db.WithContext(ctx).
		Preload("Task.Project.Customer").
		Where("end_time IS NULL").
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying running entry: %w", err)
	}
	return &entry, nil
}

// Start creates a new running entry. A taskID of zero means "no task"; the
// timer runs without one.
func (s *TimerService) Start(ctx context.Context, taskID *uint, notes *string) (*models.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if running, err := s.Running(ctx); err != nil {
		return nil, err
	} else if running != nil {
		return nil, apperr.Conflict("a timer is already running, stop it before starting a new one")
	}

	if taskID != nil && *taskID == 0 {
		taskID = nil
	}
	if taskID != nil {
		if err := s.checkTaskExists(ctx, *taskID); err != nil {
			return nil, err
		}
	}

	entry := models.TimeEntry{
		TaskID:    taskID,
		StartTime: time.Now().UTC(),
		Notes:     notes,
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		if isRunningIndexViolation(err) {
			return nil, apperr.Conflict("a timer is already running, stop it before starting a new one")
		}
		return nil, fmt.Errorf("creating time entry: %w", err)
	}

	return s.Get(ctx, entry.ID)
}

// Stop transitions a running entry to stopped. The write is a single UPDATE
// guarded on end_time still being NULL, so a lost race surfaces as a
// conflict instead of silently overwriting the other caller's end time.
func (s *TimerService) Stop(ctx context.Context, id uint) (*models.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.EndTime != nil {
		return nil, apperr.Conflict("this time entry has already been stopped")
	}

	now := time.Now().UTC()
	res := s.db.WithContext(ctx).
		Model(&models.TimeEntry{}).
		Where("id = ? AND end_time IS NULL", id).
		Updates(map[string]interface{}{"end_time": now, "updated_at": now})
	if res.Error != nil {
		return nil, fmt.Errorf("stopping time entry: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.Conflict("this time entry has already been stopped")
	}

	entry.EndTime = &now
	entry.UpdatedAt = &now
	return entry, nil
}

// Restart re-activates an existing entry so it keeps accumulating time.
// The caller picks newStart (typically now minus the already-elapsed
// duration) so the prior duration is preserved. Stopping any currently
// running entry first is the caller's job; a different running entry is a
// conflict here.
func (s *TimerService) Restart(ctx context.Context, id uint, newStart time.Time) (*models.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	var others int64
	err := s.db.WithContext(ctx).
		Model(&models.TimeEntry{}).
		Where("end_time IS NULL AND id <> ?", id).
		Count(&others).Error
	if err != nil {
		return nil, fmt.Errorf("querying running entry: %w", err)
	}
	if others > 0 {
		return nil, apperr.Conflict("a timer is already running, stop it before restarting this one")
	}

	now := time.Now().UTC()
	err = s.db.WithContext(ctx).
		Model(&models.TimeEntry{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"start_time": newStart.UTC(),
			"end_time":   nil,
			"updated_at": now,
		}).Error
	if err != nil {
		if isRunningIndexViolation(err) {
			return nil, apperr.Conflict("a timer is already running, stop it before restarting this one")
		}
		return nil, fmt.Errorf("restarting time entry: %w", err)
	}

	return s.Get(ctx, id)
}

func (s *TimerService) Get(ctx context.Context, id uint) (*models.TimeEntry, error) {
	var entry models.TimeEntry
	err := s.db.WithContext(ctx).
		Preload("Task.Project.Customer").
		First(&entry, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(fmt.Sprintf("time entry %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("loading time entry: %w", err)
	}
	return &entry, nil
}

func (s *TimerService) List(ctx context.Context, f models.TimeEntryFilter) ([]models.TimeEntry, error) {
	var entries []models.TimeEntry
	err := s.filtered(ctx, f).
		Preload("Task.Project.Customer").
		Order("time_entries.start_time desc").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("listing time entries: %w", err)
	}
	return entries, nil
}

// Create records a manual entry with both times supplied by the caller.
// Creating an entry without an end time is a start in disguise and honors
// the running-timer invariant.
func (s *TimerService) Create(ctx context.Context, in CreateTimeEntryInput) (*models.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now().UTC()
	if in.StartTime != nil {
		start = in.StartTime.UTC()
	}
	if in.EndTime != nil && in.EndTime.Before(start) {
		return nil, apperr.Validation("end time must be after start time")
	}
	if in.EndTime == nil {
		if running, err := s.Running(ctx); err != nil {
			return nil, err
		} else if running != nil {
			return nil, apperr.Conflict("a timer is already running, stop it before starting a new one")
		}
	}

	taskID := in.TaskID
	if taskID != nil && *taskID == 0 {
		taskID = nil
	}
	if taskID != nil {
		if err := s.checkTaskExists(ctx, *taskID); err != nil {
			return nil, err
		}
	}

	var end *time.Time
	if in.EndTime != nil {
		t := in.EndTime.UTC()
		end = &t
	}
	entry := models.TimeEntry{
		TaskID:    taskID,
		StartTime: start,
		EndTime:   end,
		Notes:     in.Notes,
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		if isRunningIndexViolation(err) {
			return nil, apperr.Conflict("a timer is already running, stop it before starting a new one")
		}
		return nil, fmt.Errorf("creating time entry: %w", err)
	}

	return s.Get(ctx, entry.ID)
}

func (s *TimerService) Update(ctx context.Context, id uint, in UpdateTimeEntryInput) (*models.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if in.ClearEndTime && in.EndTime != nil {
		return nil, apperr.Validation("clear_end_time cannot be combined with end_time")
	}
	if in.ClearTask && in.TaskID != nil {
		return nil, apperr.Validation("clear_task cannot be combined with task_id")
	}

	entry, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	start := entry.StartTime
	if in.StartTime != nil {
		start = in.StartTime.UTC()
	}
	end := entry.EndTime
	switch {
	case in.ClearEndTime:
		end = nil
	case in.EndTime != nil:
		t := in.EndTime.UTC()
		end = &t
	}
	if end != nil && end.Before(start) {
		return nil, apperr.Validation("end time must be after start time")
	}
	if end == nil && entry.EndTime != nil {
		// Re-opening a stopped entry starts a timer.
		var others int64
		err := s.db.WithContext(ctx).
			Model(&models.TimeEntry{}).
			Where("end_time IS NULL AND id <> ?", id).
			Count(&others).Error
		if err != nil {
			return nil, fmt.Errorf("querying running entry: %w", err)
		}
		if others > 0 {
			return nil, apperr.Conflict("a timer is already running, stop it before re-opening this entry")
		}
	}

	updates := map[string]interface{}{
		"start_time": start,
		"end_time":   end,
		"updated_at": time.Now().UTC(),
	}

	if in.ClearTask {
		updates["task_id"] = nil
	} else if in.TaskID != nil {
		if *in.TaskID == 0 {
			updates["task_id"] = nil
		} else {
			if err := s.checkTaskExists(ctx, *in.TaskID); err != nil {
				return nil, err
			}
			updates["task_id"] = *in.TaskID
		}
	}
	if in.Notes != nil {
		updates["notes"] = *in.Notes
	}

	err = s.db.WithContext(ctx).
		Model(&models.TimeEntry{}).
		Where("id = ?", id).
		Updates(updates).Error
	if err != nil {
		if isRunningIndexViolation(err) {
			return nil, apperr.Conflict("a timer is already running, stop it before re-opening this entry")
		}
		return nil, fmt.Errorf("updating time entry: %w", err)
	}

	return s.Get(ctx, id)
}

func (s *TimerService) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.TimeEntry{}, id)
	if res.Error != nil {
		return fmt.Errorf("deleting time entry: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(fmt.Sprintf("time entry %d not found", id))
	}
	return nil
}

// DailyTotals sums completed entries per calendar day, newest first.
func (s *TimerService) DailyTotals(ctx context.Context, f models.TimeEntryFilter) ([]TimeEntrySummary, error) {
	return s.totals(ctx, f, func(t time.Time) time.Time {
		t = t.UTC()
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	})
}

// WeeklyTotals sums completed entries per week, keyed by the Monday the week
// starts on.
func (s *TimerService) WeeklyTotals(ctx context.Context, f models.TimeEntryFilter) ([]TimeEntrySummary, error) {
	return s.totals(ctx, f, func(t time.Time) time.Time {
		t = t.UTC()
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		offset := int(day.Weekday()) - 1
		if offset < 0 {
			offset = 6 // Sunday
		}
		return day.AddDate(0, 0, -offset)
	})
}

func (s *TimerService) totals(ctx context.Context, f models.TimeEntryFilter, bucket func(time.Time) time.Time) ([]TimeEntrySummary, error) {
	var entries []models.TimeEntry
	err := s.filtered(ctx, f).
		Where("time_entries.end_time IS NOT NULL").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("loading entries for totals: %w", err)
	}

	byBucket := make(map[time.Time]*TimeEntrySummary)
	for _, entry := range entries {
		key := bucket(entry.StartTime)
		sum, ok := byBucket[key]
		if !ok {
			sum = &TimeEntrySummary{Date: key}
			byBucket[key] = sum
		}
		d := entry.EndTime.Sub(entry.StartTime)
		sum.TotalMinutes += d.Minutes()
		sum.TotalHours += d.Hours()
		sum.EntryCount++
	}

	totals := make([]TimeEntrySummary, 0, len(byBucket))
	for _, sum := range byBucket {
		totals = append(totals, *sum)
	}
	sort.Slice(totals, func(i, j int) bool {
		return totals[i].Date.After(totals[j].Date)
	})
	return totals, nil
}

func (s *TimerService) filtered(ctx context.Context, f models.TimeEntryFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.TimeEntry{})

	needsJoins := f.CustomerID != nil || f.ProjectID != nil || f.Search != ""
	if needsJoins {
		q = q.Joins("LEFT JOIN tasks ON tasks.id = time_entries.task_id").
			Joins("LEFT JOIN projects ON projects.id = tasks.project_id").
			Joins("LEFT JOIN customers ON customers.id = projects.customer_id")
	}

	if f.StartDate != nil {
		q = q.Where("time_entries.start_time >= ?", f.StartDate.UTC())
	}
	if f.EndDate != nil {
		q = q.Where("time_entries.start_time <= ?", f.EndDate.UTC())
	}
	if f.CustomerID != nil {
		q = q.Where("customers.id = ?", *f.CustomerID)
	}
	if f.ProjectID != nil {
		q = q.Where("projects.id = ?", *f.ProjectID)
	}
	if f.TaskID != nil {
		q = q.Where("time_entries.task_id = ?", *f.TaskID)
	}
	if f.IsRunning != nil {
		if *f.IsRunning {
			q = q.Where("time_entries.end_time IS NULL")
		} else {
			q = q.Where("time_entries.end_time IS NOT NULL")
		}
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		q = q.Where(
			"tasks.name LIKE ? OR projects.name LIKE ? OR customers.name LIKE ? OR time_entries.notes LIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}
	return q
}

func (s *TimerService) checkTaskExists(ctx context.Context, id uint) error {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Task{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return fmt.Errorf("looking up task: %w", err)
	}
	if count == 0 {
		return apperr.NotFound(fmt.Sprintf("task %d not found", id))
	}
	return nil
}

// isRunningIndexViolation spots the partial unique index that allows only
// one running entry. Message shapes differ between postgres and sqlite.
func isRunningIndexViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "idx_time_entries_one_running") ||
		(errors.Is(err, gorm.ErrDuplicatedKey) && strings.Contains(msg, "time_entries"))
}
