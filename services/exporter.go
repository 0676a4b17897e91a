package services

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/AlexanderErdelyi/Work-Time-Tracker/models"

	"github.com/xuri/excelize/v2"
)

const exportTimeLayout = "2006-01-02 15:04:05"

var exportHeader = []string{
	"Customer", "Customer No", "Project", "Project No",
	"Task", "Task Position", "Task Procurement Number",
	"Start Time", "End Time", "Duration (Hours)", "Notes",
}

// ExportService renders resolved time entries to CSV or XLSX. Entries must
// come preloaded with their Task -> Project -> Customer chain; task-less
// entries render with blank hierarchy columns.
type ExportService struct{}

func NewExportService() *ExportService {
	return &ExportService{}
}

func (s *ExportService) CSV(entries []models.TimeEntry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("writing csv header: %w", err)
	}
	for i := range entries {
		if err := w.Write(exportRecord(&entries[i])); err != nil {
			return nil, fmt.Errorf("writing csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing csv: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *ExportService) XLSX(entries []models.TimeEntry) ([]byte, error) {
	wb := excelize.NewFile()
	defer wb.Close()

	const sheet = "Time Entries"
	index, err := wb.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("creating sheet: %w", err)
	}
	wb.SetActiveSheet(index)
	if err := wb.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("removing default sheet: %w", err)
	}

	for i, title := range exportHeader {
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
	if err := wb.SetCellStyle(sheet, "A1", "K1", headerStyle); err != nil {
		return nil, fmt.Errorf("styling header: %w", err)
	}

	for i := range entries {
		record := exportRecord(&entries[i])
		for j, value := range record {
			cellRef, _ := excelize.CoordinatesToCellName(j+1, i+2)
			if err := wb.SetCellValue(sheet, cellRef, value); err != nil {
				return nil, fmt.Errorf("writing row %d: %w", i+2, err)
			}
		}
	}

	for i := range exportHeader {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := wb.SetColWidth(sheet, col, col, 22); err != nil {
			return nil, fmt.Errorf("sizing columns: %w", err)
		}
	}

	buf, err := wb.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serializing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func exportRecord(entry *models.TimeEntry) []string {
	var customerName, customerNo, projectName, projectNo string
	var taskName, taskPosition, taskProcurement string

	if task := entry.Task; task != nil {
		taskName = task.Name
		taskPosition = deref(task.Position)
		taskProcurement = deref(task.ProcurementNumber)
		if project := task.Project; project != nil {
			projectName = project.Name
			projectNo = deref(project.No)
			if customer := project.Customer; customer != nil {
				customerName = customer.Name
				customerNo = deref(customer.No)
			}
		}
	}

	endTime := ""
	duration := "Running"
	if entry.EndTime != nil {
		endTime = entry.EndTime.UTC().Format(exportTimeLayout)
		duration = fmt.Sprintf("%.2f", entry.EndTime.Sub(entry.StartTime).Hours())
	}

	return []string{
		customerName,
		customerNo,
		projectName,
		projectNo,
		taskName,
		taskPosition,
		taskProcurement,
		entry.StartTime.UTC().Format(exportTimeLayout),
		endTime,
		duration,
		deref(entry.Notes),
	}
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
