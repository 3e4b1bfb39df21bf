package report

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/report"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sample(t *testing.T) (employee.Employee, payroll.Period, payroll.Payslip) {
	t.Helper()
	period, err := payroll.NewPeriod(2024, 1)
	require.NoError(t, err)
	period.ID = "period-1"

	e := employee.Employee{ID: "emp-1", FirstName: "Ana", LastName: "Pop", Email: "ana@example.com", NationalID: "2900101000001", IsActive: true}
	slip := payroll.Payslip{
		ID:              "slip-1",
		EmployeeID:      e.ID,
		PeriodID:        period.ID,
		Currency:        payroll.DefaultCurrency,
		BaseAmount:      dec("2300"),
		BusinessDays:    23,
		UnpaidDays:      1,
		PaidDays:        22,
		DailyRate:       dec("100"),
		ProratedBase:    dec("2200"),
		UnpaidDeduction: dec("100"),
		BonusTotal:      dec("150"),
		Bonuses: []payroll.BonusLine{
			{Reason: "referral", Amount: dec("50")},
			{Reason: "overtime", Amount: dec("100")},
		},
		NetPay:     dec("2350"),
		ComputedAt: time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC),
	}
	return e, period, slip
}

func TestNewPayslipDocument(t *testing.T) {
	e, period, slip := sample(t)

	doc, err := NewPayslipDocument(e, period, slip, attendance.Summary{Present: 21, UnpaidLeave: 1, HoursWorked: dec("168")})
	require.NoError(t, err)

	labels := make([]string, 0)
	values := make(map[string]string)
	for _, l := range doc.Lines() {
		labels = append(labels, l.Label)
		values[l.Label] = l.Value
	}
	assert.Equal(t, []string{
		"Employee", "Employee ID", "Period", "Base salary",
		"Business days", "Unpaid days", "Paid days", "Daily rate", "Unpaid deduction",
		"Bonus: overtime", "Bonus: referral",
		"Bonus total", "Net pay",
	}, labels)
	assert.Equal(t, "Ana Pop", values["Employee"])
	assert.Equal(t, "2024-01 (2024-01-01 to 2024-01-31)", values["Period"])
	assert.Equal(t, "23", values["Business days"])
	assert.Equal(t, "100.00 RON", values["Daily rate"])
	assert.Equal(t, "2350.00 RON", values["Net pay"])

	// the input slice is not reordered
	assert.Equal(t, "referral", slip.Bonuses[0].Reason)
}

func TestNewPayslipDocument_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(e *employee.Employee, p *payroll.Period, s *payroll.Payslip)
		field  string
	}{
		{"no payslip id", func(_ *employee.Employee, _ *payroll.Period, s *payroll.Payslip) { s.ID = "" }, "payslip id"},
		{"other employee", func(e *employee.Employee, _ *payroll.Period, _ *payroll.Payslip) { e.ID = "emp-2" }, "employee identity"},
		{"no name", func(e *employee.Employee, _ *payroll.Period, _ *payroll.Payslip) { e.FirstName, e.LastName = "", "" }, "employee name"},
		{"other period", func(_ *employee.Employee, p *payroll.Period, _ *payroll.Payslip) { p.ID = "period-2" }, "period"},
		{"no business days", func(_ *employee.Employee, _ *payroll.Period, s *payroll.Payslip) { s.BusinessDays = 0 }, "business_days"},
		{"no currency", func(_ *employee.Employee, _ *payroll.Period, s *payroll.Payslip) { s.Currency = "" }, "currency"},
		{"never computed", func(_ *employee.Employee, _ *payroll.Period, s *payroll.Payslip) { s.ComputedAt = time.Time{} }, "computed_at"},
		{"empty bonus line", func(_ *employee.Employee, _ *payroll.Period, s *payroll.Payslip) {
			s.Bonuses = append(s.Bonuses, payroll.BonusLine{Amount: decimal.Zero})
		}, "bonus line 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, period, slip := sample(t)
			tt.mutate(&e, &period, &slip)
			_, err := NewPayslipDocument(e, period, slip, attendance.Summary{})
			assert.ErrorIs(t, err, report.ErrRenderFailure)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestPDFRenderer(t *testing.T) {
	e, period, slip := sample(t)
	doc, err := NewPayslipDocument(e, period, slip, attendance.Summary{})
	require.NoError(t, err)

	out, err := NewPDFRenderer("owner-secret").Render(doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Contains(t, string(out), "/Encrypt")

	doc.NationalID = ""
	_, err = NewPDFRenderer("owner-secret").Render(doc)
	assert.ErrorIs(t, err, report.ErrRenderFailure)
}

func teamRows() []report.TeamSummaryRow {
	return []report.TeamSummaryRow{
		{EmployeeID: "emp-1", Name: "Ana Pop", Period: "2024-01", BusinessDays: 23, UnpaidDays: 1, NetPay: dec("2200")},
		{EmployeeID: "emp-2", Name: "Dan, Ion", Period: "2024-01", BusinessDays: 23, UnpaidDays: 0, NetPay: dec("1043.475")},
	}
}

func TestRenderTeamSummary_CSV(t *testing.T) {
	out, err := RenderTeamSummary(report.FormatCSV, teamRows())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, report.TeamSummaryColumns, records[0])
	assert.Equal(t, []string{"emp-1", "Ana Pop", "2024-01", "23", "1", "2200.00"}, records[1])
	assert.Equal(t, []string{"emp-2", "Dan, Ion", "2024-01", "23", "0", "1043.48"}, records[2])
}

func TestRenderTeamSummary_EmptyKeepsHeader(t *testing.T) {
	out, err := RenderTeamSummary(report.FormatCSV, nil)
	require.NoError(t, err)
	assert.Equal(t, "employee_id,name,period,business_days,unpaid_days,net_pay\n", string(out))
}

func TestRenderTeamSummary_XLSX(t *testing.T) {
	out, err := RenderTeamSummary(report.FormatXLSX, teamRows())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, teamSummarySheet, f.GetSheetName(0))
	rows, err := f.GetRows(teamSummarySheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, report.TeamSummaryColumns, rows[0])
	assert.Equal(t, []string{"emp-1", "Ana Pop", "2024-01", "23", "1", "2200"}, rows[1])
	assert.Equal(t, "1043.48", rows[2][5])
}

func TestRenderTeamSummary_UnsupportedFormat(t *testing.T) {
	_, err := RenderTeamSummary(report.FormatPDF, teamRows())
	assert.ErrorIs(t, err, report.ErrUnsupportedFormat)
}
