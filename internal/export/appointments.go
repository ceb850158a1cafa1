// Package export renders appointment listings as spreadsheets.
package export

import (
	"fmt"
	"io"

	"meetmed/internal/models"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Appointments"

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var headers = []string{"Date", "Time", "Patient", "Phone", "Email", "Consultation type", "Status", "Note"}

var statusLabels = map[string]string{
	models.StatusPending:   "Pending",
	models.StatusConfirmed: "Confirmed",
	models.StatusRejected:  "Rejected",
	models.StatusCancelled: "Cancelled",
}

// statusFills colours the status cell.
var statusFills = map[string]string{
	models.StatusPending:   "#FFF2CC",
	models.StatusConfirmed: "#E2EFDA",
	models.StatusRejected:  "#F8CBAD",
	models.StatusCancelled: "#EDEDED",
}

// FileName is the download name for a doctor's export over [from, to].
func FileName(from, to string) string {
	return fmt.Sprintf("appointments_%s_to_%s.xlsx", from, to)
}

// WriteAppointments writes an xlsx workbook listing appts to w. The first
// row holds the period title, the second the column headers.
func WriteAppointments(w io.Writer, from, to string, appts []*models.AppointmentView) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}

	if err := writeTitle(f, from, to); err != nil {
		return err
	}
	if err := writeHeaders(f); err != nil {
		return err
	}
	for i, a := range appts {
		if err := writeRow(f, i+3, a); err != nil {
			return err
		}
	}

	_ = f.SetColWidth(sheetName, "A", "B", 12)
	_ = f.SetColWidth(sheetName, "C", "C", 25)
	_ = f.SetColWidth(sheetName, "D", "D", 16)
	_ = f.SetColWidth(sheetName, "E", "F", 28)
	_ = f.SetColWidth(sheetName, "G", "G", 12)
	_ = f.SetColWidth(sheetName, "H", "H", 35)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeTitle(f *excelize.File, from, to string) error {
	if err := f.SetCellValue(sheetName, "A1", fmt.Sprintf("Appointments %s - %s", from, to)); err != nil {
		return fmt.Errorf("write title: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	_ = f.MergeCell(sheetName, "A1", lastCol+"1")

	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("title style: %w", err)
	}
	return f.SetCellStyle(sheetName, "A1", "A1", style)
}

func writeHeaders(f *excelize.File) error {
	style, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		_ = f.SetCellStyle(sheetName, cell, cell, style)
	}
	return nil
}

func writeRow(f *excelize.File, row int, a *models.AppointmentView) error {
	var name, phone, email string
	if a.Patient != nil {
		name, phone, email = a.Patient.Name, a.Patient.Phone, a.Patient.Email
	}
	var note string
	switch {
	case a.RejectionReason != nil:
		note = *a.RejectionReason
	case a.CancelledBy != nil:
		note = "cancelled by " + *a.CancelledBy
	}

	status, ok := statusLabels[a.Status]
	if !ok {
		status = a.Status
	}

	values := []any{a.Date, a.Time, name, phone, email, a.ConsultationType, status, note}
	cell, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}

	if fill, ok := statusFills[a.Status]; ok {
		style, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1},
		})
		if err == nil {
			statusCell, _ := excelize.CoordinatesToCellName(7, row)
			_ = f.SetCellStyle(sheetName, statusCell, statusCell, style)
		}
	}
	return nil
}
