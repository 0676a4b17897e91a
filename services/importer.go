package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/AlexanderErdelyi/Work-Time-Tracker/models"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// TaskImportRow is one spreadsheet row of the customer/project/task
// hierarchy. Column order is fixed; row 1 is the header, data starts at
// row 2.
type TaskImportRow struct {
	CustomerName          string
	CustomerNo            string
	CustomerDescription   string
	ProjectName           string
	ProjectNo             string
	ProjectDescription    string
	TaskName              string
	TaskDescription       string
	TaskPosition          string
	TaskProcurementNumber string
}

type ImportResult struct {
	CustomersCreated int      `json:"customers_created"`
	CustomersUpdated int      `json:"customers_updated"`
	ProjectsCreated  int      `json:"projects_created"`
	ProjectsUpdated  int      `json:"projects_updated"`
	TasksCreated     int      `json:"tasks_created"`
	TasksUpdated     int      `json:"tasks_updated"`
	Errors           []string `json:"errors"`
}

// Success means every row imported. Partial imports report failure on
// purpose: callers read the counts to learn what was still committed.
func (r *ImportResult) Success() bool {
	return len(r.Errors) == 0
}

var importHeader = []string{
	"Customer Name", "Customer No", "Customer Description",
	"Project Name", "Project No", "Project Description",
	"Task Name", "Task Description", "Task Position", "Task Procurement Number",
}

// ImportService upserts a customer -> project -> task hierarchy from
// spreadsheet rows.
type ImportService struct {
	db *gorm.DB
}

func NewImportService(db *gorm.DB) *ImportService {
	return &ImportService{db: db}
}

// ImportXLSX parses the first sheet of an xlsx workbook and imports its
// rows. An unreadable workbook or a missing header row is fatal: the error
// return is set and no rows are processed.
func (s *ImportService) ImportXLSX(ctx context.Context, r io.Reader) (*ImportResult, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("reading xlsx file: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx file has no sheets")
	}
	rawRows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	if len(rawRows) == 0 || len(rawRows[0]) == 0 {
		return nil, fmt.Errorf("xlsx file is empty or has no header row")
	}

	rows := make([]TaskImportRow, 0, len(rawRows)-1)
	for _, raw := range rawRows[1:] {
		rows = append(rows, TaskImportRow{
			CustomerName:          cell(raw, 0),
			CustomerNo:            cell(raw, 1),
			CustomerDescription:   cell(raw, 2),
			ProjectName:           cell(raw, 3),
			ProjectNo:             cell(raw, 4),
			ProjectDescription:    cell(raw, 5),
			TaskName:              cell(raw, 6),
			TaskDescription:       cell(raw, 7),
			TaskPosition:          cell(raw, 8),
			TaskProcurementNumber: cell(raw, 9),
		})
	}

	return s.ImportRows(ctx, rows), nil
}

// ImportRows runs the per-row upsert pipeline. Rows are processed in order
// and each row runs in its own transaction, so one bad row never rolls back
// the rows before it and never stops the rows after it. Row numbers in error
// messages are spreadsheet row numbers (data starts at row 2).
func (s *ImportService) ImportRows(ctx context.Context, rows []TaskImportRow) *ImportResult {
	result := &ImportResult{Errors: []string{}}

	for i, row := range rows {
		rowNum := i + 2
		row = row.trimmed()

		// Blank spacer row.
		if row.CustomerName == "" && row.ProjectName == "" && row.TaskName == "" {
			continue
		}

		if row.CustomerName == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: Customer Name is required", rowNum))
			continue
		}
		if row.ProjectName == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: Project Name is required", rowNum))
			continue
		}
		if row.TaskName == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: Task Name is required", rowNum))
			continue
		}

		if err := s.importRow(ctx, row, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s", rowNum, err.Error()))
		}
	}

	return result
}

// importRow upserts one customer/project/task triple inside a transaction.
// Each level is flushed before the next level's lookup so the child always
// sees the parent's id, and later rows see everything earlier rows wrote.
func (s *ImportService) importRow(ctx context.Context, row TaskImportRow, result *ImportResult) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customer, err := upsertCustomer(tx, row, result)
		if err != nil {
			return err
		}
		project, err := upsertProject(tx, row, customer.ID, result)
		if err != nil {
			return err
		}
		return upsertTask(tx, row, project.ID, result)
	})
}

func upsertCustomer(tx *gorm.DB, row TaskImportRow, result *ImportResult) (*models.Customer, error) {
	var customer models.Customer
	err := tx.Where("name = ?", row.CustomerName).First(&customer).Error
	if err == nil {
		updated := false
		if row.CustomerNo != "" && !ptrEquals(customer.No, row.CustomerNo) {
			customer.No = strPtr(row.CustomerNo)
			updated = true
		}
		if row.CustomerDescription != "" && !ptrEquals(customer.Description, row.CustomerDescription) {
			customer.Description = strPtr(row.CustomerDescription)
			updated = true
		}
		if updated {
			now := time.Now().UTC()
			customer.UpdatedAt = &now
			if err := tx.Save(&customer).Error; err != nil {
				return nil, fmt.Errorf("updating customer %q: %w", row.CustomerName, err)
			}
			result.CustomersUpdated++
		}
		return &customer, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("looking up customer %q: %w", row.CustomerName, err)
	}

	customer = models.Customer{
		Name:        row.CustomerName,
		No:          optional(row.CustomerNo),
		Description: optional(row.CustomerDescription),
		IsActive:    true,
	}
	if err := tx.Create(&customer).Error; err != nil {
		return nil, fmt.Errorf("creating customer %q: %w", row.CustomerName, err)
	}
	result.CustomersCreated++
	return &customer, nil
}

func upsertProject(tx *gorm.DB, row TaskImportRow, customerID uint, result *ImportResult) (*models.Project, error) {
	var project models.Project
	err := tx.Where("name = ? AND customer_id = ?", row.ProjectName, customerID).First(&project).Error
	if err == nil {
		updated := false
		if row.ProjectNo != "" && !ptrEquals(project.No, row.ProjectNo) {
			project.No = strPtr(row.ProjectNo)
			updated = true
		}
		if row.ProjectDescription != "" && !ptrEquals(project.Description, row.ProjectDescription) {
			project.Description = strPtr(row.ProjectDescription)
			updated = true
		}
		if updated {
			now := time.Now().UTC()
			project.UpdatedAt = &now
			if err := tx.Save(&project).Error; err != nil {
				return nil, fmt.Errorf("updating project %q: %w", row.ProjectName, err)
			}
			result.ProjectsUpdated++
		}
		return &project, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("looking up project %q: %w", row.ProjectName, err)
	}

	project = models.Project{
		Name:        row.ProjectName,
		No:          optional(row.ProjectNo),
		Description: optional(row.ProjectDescription),
		CustomerID:  customerID,
		IsActive:    true,
	}
	if err := tx.Create(&project).Error; err != nil {
		return nil, fmt.Errorf("creating project %q: %w", row.ProjectName, err)
	}
	result.ProjectsCreated++
	return &project, nil
}

func upsertTask(tx *gorm.DB, row TaskImportRow, projectID uint, result *ImportResult) error {
	var task models.Task
	err := tx.Where("name = ? AND project_id = ?", row.TaskName, projectID).First(&task).Error
	if err == nil {
		updated := false
		if row.TaskDescription != "" && !ptrEquals(task.Description, row.TaskDescription) {
			task.Description = strPtr(row.TaskDescription)
			updated = true
		}
		if row.TaskPosition != "" && !ptrEquals(task.Position, row.TaskPosition) {
			task.Position = strPtr(row.TaskPosition)
			updated = true
		}
		if row.TaskProcurementNumber != "" && !ptrEquals(task.ProcurementNumber, row.TaskProcurementNumber) {
			task.ProcurementNumber = strPtr(row.TaskProcurementNumber)
			updated = true
		}
		if updated {
			now := time.Now().UTC()
			task.UpdatedAt = &now
			if err := tx.Save(&task).Error; err != nil {
				return fmt.Errorf("updating task %q: %w", row.TaskName, err)
			}
			result.TasksUpdated++
		}
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("looking up task %q: %w", row.TaskName, err)
	}

	task = models.Task{
		Name:              row.TaskName,
		Description:       optional(row.TaskDescription),
		Position:          optional(row.TaskPosition),
		ProcurementNumber: optional(row.TaskProcurementNumber),
		ProjectID:         projectID,
		IsActive:          true,
	}
	if err := tx.Create(&task).Error; err != nil {
		return fmt.Errorf("creating task %q: %w", row.TaskName, err)
	}
	result.TasksCreated++
	return nil
}

// Template builds the import spreadsheet skeleton: styled header row plus
// one example row.
func (s *ImportService) Template() ([]byte, error) {
	wb := excelize.NewFile()
	defer wb.Close()

	const sheet = "Task Import Template"
	index, err := wb.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("creating sheet: %w", err)
	}
	wb.SetActiveSheet(index)
	if err := wb.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("removing default sheet: %w", err)
	}

	for i, title := range importHeader {
		cellRef, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := wb.SetCellValue(sheet, cellRef, title); err != nil {
			return nil, fmt.Errorf("writing header: %w", err)
		}
	}
	headerStyle, err := wb.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D3D3D3"}},
	})
	if err != nil {
		return nil, fmt.Errorf("creating header style: %w", err)
	}
	if err := wb.SetCellStyle(sheet, "A1", "J1", headerStyle); err != nil {
		return nil, fmt.Errorf("styling header: %w", err)
	}

	sample := []string{
		"Acme Corp", "CUST001", "Sample customer",
		"Website Redesign", "PROJ001", "Redesign company website",
		"Frontend Development", "Develop frontend UI", "POS001", "PROC001",
	}
	for i, value := range sample {
		cellRef, _ := excelize.CoordinatesToCellName(i+1, 2)
		if err := wb.SetCellValue(sheet, cellRef, value); err != nil {
			return nil, fmt.Errorf("writing sample row: %w", err)
		}
	}

	for i := range importHeader {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := wb.SetColWidth(sheet, col, col, 24); err != nil {
			return nil, fmt.Errorf("sizing columns: %w", err)
		}
	}

	buf, err := wb.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serializing template: %w", err)
	}
	return buf.Bytes(), nil
}

func (r TaskImportRow) trimmed() TaskImportRow {
	return TaskImportRow{
		CustomerName:          strings.TrimSpace(r.CustomerName),
		CustomerNo:            strings.TrimSpace(r.CustomerNo),
		CustomerDescription:   strings.TrimSpace(r.CustomerDescription),
		ProjectName:           strings.TrimSpace(r.ProjectName),
		ProjectNo:             strings.TrimSpace(r.ProjectNo),
		ProjectDescription:    strings.TrimSpace(r.ProjectDescription),
		TaskName:              strings.TrimSpace(r.TaskName),
		TaskDescription:       strings.TrimSpace(r.TaskDescription),
		TaskPosition:          strings.TrimSpace(r.TaskPosition),
		TaskProcurementNumber: strings.TrimSpace(r.TaskProcurementNumber),
	}
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func strPtr(s string) *string {
	return &s
}

func ptrEquals(p *string, s string) bool {
	return p != nil && *p == s
}
