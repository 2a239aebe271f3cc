// Package export renders a distribution result as an xlsx workbook.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/CouSixz/Ciborg/internal/models"
)

const (
	AssignmentsSheet   = "Distribuicao_OS"
	UndistributedSheet = "Nao_Distribuidas"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	assignmentHeader    = []any{"Nº da OS", "Id do Usuário Responsável", "Responsável", "Alçada", "Valor", "Status"}
	undistributedHeader = []any{"Nº da OS", "Motivo"}
)

// Build returns a workbook with one sheet of assignments and one of orders
// left without an agent. The caller owns the returned file and must Close it.
func Build(assignments []models.Assignment, undistributed []models.UndistributedRecord) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", AssignmentsSheet); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetSheetRow(AssignmentsSheet, "A1", &assignmentHeader); err != nil {
		f.Close()
		return nil, err
	}
	for i, a := range assignments {
		value, _ := a.Value.Float64()
		row := []any{a.OrderID, a.AgentID, a.AgentName, a.Band, value, a.Status}
		if err := f.SetSheetRow(AssignmentsSheet, cell(i+2), &row); err != nil {
			f.Close()
			return nil, err
		}
	}

	if _, err := f.NewSheet(UndistributedSheet); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetSheetRow(UndistributedSheet, "A1", &undistributedHeader); err != nil {
		f.Close()
		return nil, err
	}
	for i, u := range undistributed {
		row := []any{u.OrderID, u.Reason}
		if err := f.SetSheetRow(UndistributedSheet, cell(i+2), &row); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// Write builds the workbook and streams it to w.
func Write(w io.Writer, assignments []models.Assignment, undistributed []models.UndistributedRecord) error {
	f, err := Build(assignments, undistributed)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveAs writes the workbook to a file path.
func SaveAs(path string, assignments []models.Assignment, undistributed []models.UndistributedRecord) error {
	f, err := Build(assignments, undistributed)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.SaveAs(path)
}

func cell(row int) string {
	return fmt.Sprintf("A%d", row)
}
