package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/report"
	"github.com/shopspring/decimal"
)

// PayslipDocument is the single-employee report in the order it is laid out.
type PayslipDocument struct {
	EmployeeID      string
	EmployeeName    string
	NationalID      string
	Period          string
	PeriodStart     time.Time
	PeriodEnd       time.Time
	Currency        string
	BaseAmount      decimal.Decimal
	BusinessDays    int
	UnpaidDays      int
	PaidDays        int
	DailyRate       decimal.Decimal
	UnpaidDeduction decimal.Decimal
	Bonuses         []payroll.BonusLine
	BonusTotal      decimal.Decimal
	NetPay          decimal.Decimal
	Attendance      attendance.Summary
	ComputedAt      time.Time
}

func renderFailure(field string) error {
	return fmt.Errorf("%w: missing %s", report.ErrRenderFailure, field)
}

// NewPayslipDocument copies an already computed payslip into document form.
// Missing figures fail the render; nothing is recomputed here.
func NewPayslipDocument(e employee.Employee, period payroll.Period, slip payroll.Payslip, summary attendance.Summary) (PayslipDocument, error) {
	switch {
	case slip.ID == "":
		return PayslipDocument{}, renderFailure("payslip id")
	case e.ID == "" || e.ID != slip.EmployeeID:
		return PayslipDocument{}, renderFailure("employee identity")
	case strings.TrimSpace(e.FullName()) == "":
		return PayslipDocument{}, renderFailure("employee name")
	case period.ID == "" || period.ID != slip.PeriodID:
		return PayslipDocument{}, renderFailure("period")
	case slip.BusinessDays <= 0:
		return PayslipDocument{}, renderFailure("business_days")
	case slip.Currency == "":
		return PayslipDocument{}, renderFailure("currency")
	case slip.ComputedAt.IsZero():
		return PayslipDocument{}, renderFailure("computed_at")
	}
	for i, line := range slip.Bonuses {
		if strings.TrimSpace(line.Reason) == "" && line.Amount.IsZero() {
			return PayslipDocument{}, renderFailure(fmt.Sprintf("bonus line %d", i+1))
		}
	}

	bonuses := append([]payroll.BonusLine(nil), slip.Bonuses...)
	payroll.SortBonusLines(bonuses)

	return PayslipDocument{
		EmployeeID:      e.ID,
		EmployeeName:    e.FullName(),
		NationalID:      e.NationalID,
		Period:          period.Label(),
		PeriodStart:     period.StartDate,
		PeriodEnd:       period.EndDate,
		Currency:        slip.Currency,
		BaseAmount:      slip.BaseAmount,
		BusinessDays:    slip.BusinessDays,
		UnpaidDays:      slip.UnpaidDays,
		PaidDays:        slip.PaidDays,
		DailyRate:       slip.DailyRate,
		UnpaidDeduction: slip.UnpaidDeduction,
		Bonuses:         bonuses,
		BonusTotal:      slip.BonusTotal,
		NetPay:          slip.NetPay,
		Attendance:      summary,
		ComputedAt:      slip.ComputedAt,
	}, nil
}

// Line is one label/value pair of the document body.
type Line struct {
	Label string
	Value string
}

func money(d decimal.Decimal, currency string) string {
	return d.StringFixed(2) + " " + currency
}

// Lines returns the document body in its fixed order.
func (d PayslipDocument) Lines() []Line {
	lines := []Line{
		{"Employee", d.EmployeeName},
		{"Employee ID", d.EmployeeID},
		{"Period", fmt.Sprintf("%s (%s to %s)", d.Period, d.PeriodStart.Format("2006-01-02"), d.PeriodEnd.Format("2006-01-02"))},
		{"Base salary", money(d.BaseAmount, d.Currency)},
		{"Business days", fmt.Sprintf("%d", d.BusinessDays)},
		{"Unpaid days", fmt.Sprintf("%d", d.UnpaidDays)},
		{"Paid days", fmt.Sprintf("%d", d.PaidDays)},
		{"Daily rate", money(d.DailyRate, d.Currency)},
		{"Unpaid deduction", money(d.UnpaidDeduction, d.Currency)},
	}
	for _, b := range d.Bonuses {
		reason := b.Reason
		if reason == "" {
			reason = "-"
		}
		lines = append(lines, Line{"Bonus: " + reason, money(b.Amount, d.Currency)})
	}
	lines = append(lines,
		Line{"Bonus total", money(d.BonusTotal, d.Currency)},
		Line{"Net pay", money(d.NetPay, d.Currency)},
	)
	return lines
}

// AttendanceLines summarises the month's attendance ledger.
func (d PayslipDocument) AttendanceLines() []Line {
	return []Line{
		{"Present", fmt.Sprintf("%d", d.Attendance.Present)},
		{"Paid leave", fmt.Sprintf("%d", d.Attendance.PaidLeave)},
		{"Unpaid leave", fmt.Sprintf("%d", d.Attendance.UnpaidLeave)},
		{"Other", fmt.Sprintf("%d", d.Attendance.Other)},
		{"Hours worked", d.Attendance.HoursWorked.StringFixed(2)},
	}
}

// NewTeamSummaryRow validates and flattens one payslip for the team export.
func NewTeamSummaryRow(e employee.Employee, period payroll.Period, slip payroll.Payslip) (report.TeamSummaryRow, error) {
	switch {
	case e.ID == "" || e.ID != slip.EmployeeID:
		return report.TeamSummaryRow{}, renderFailure("employee identity")
	case strings.TrimSpace(e.FullName()) == "":
		return report.TeamSummaryRow{}, renderFailure("employee name")
	case period.ID == "" || period.ID != slip.PeriodID:
		return report.TeamSummaryRow{}, renderFailure("period")
	case slip.BusinessDays <= 0:
		return report.TeamSummaryRow{}, renderFailure("business_days")
	case slip.ComputedAt.IsZero():
		return report.TeamSummaryRow{}, renderFailure("computed_at")
	}
	return report.TeamSummaryRow{
		EmployeeID:   e.ID,
		Name:         e.FullName(),
		Period:       period.Label(),
		BusinessDays: slip.BusinessDays,
		UnpaidDays:   slip.UnpaidDays,
		NetPay:       slip.NetPay.Round(2),
	}, nil
}
