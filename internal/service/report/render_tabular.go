package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/report"
	"github.com/xuri/excelize/v2"
)

const teamSummarySheet = "Team Summary"

func rowValues(row report.TeamSummaryRow) []string {
	return []string{
		row.EmployeeID,
		row.Name,
		row.Period,
		strconv.Itoa(row.BusinessDays),
		strconv.Itoa(row.UnpaidDays),
		row.NetPay.StringFixed(2),
	}
}

// RenderTeamSummary writes rows under the fixed TeamSummaryColumns header.
func RenderTeamSummary(format report.Format, rows []report.TeamSummaryRow) ([]byte, error) {
	switch format {
	case report.FormatCSV:
		return renderCSV(rows)
	case report.FormatXLSX:
		return renderXLSX(rows)
	}
	return nil, fmt.Errorf("%w: %s", report.ErrUnsupportedFormat, format)
}

func renderCSV(rows []report.TeamSummaryRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(report.TeamSummaryColumns); err != nil {
		return nil, fmt.Errorf("%w: %v", report.ErrRenderFailure, err)
	}
	for _, row := range rows {
		if err := w.Write(rowValues(row)); err != nil {
			return nil, fmt.Errorf("%w: %v", report.ErrRenderFailure, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", report.ErrRenderFailure, err)
	}
	return buf.Bytes(), nil
}

func renderXLSX(rows []report.TeamSummaryRow) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), teamSummarySheet); err != nil {
		return nil, fmt.Errorf("%w: %v", report.ErrRenderFailure, err)
	}

	header := make([]interface{}, len(report.TeamSummaryColumns))
	for i, c := range report.TeamSummaryColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(teamSummarySheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("%w: %v", report.ErrRenderFailure, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", report.ErrRenderFailure, err)
		}
		netPay, _ := row.NetPay.Round(2).Float64()
		values := []interface{}{row.EmployeeID, row.Name, row.Period, row.BusinessDays, row.UnpaidDays, netPay}
		if err := f.SetSheetRow(teamSummarySheet, cell, &values); err != nil {
			return nil, fmt.Errorf("%w: %v", report.ErrRenderFailure, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", report.ErrRenderFailure, err)
	}
	return buf.Bytes(), nil
}
