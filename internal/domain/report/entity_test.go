package report

import (
	"testing"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/delivery"
	"github.com/stretchr/testify/assert"
)

func TestStoragePath(t *testing.T) {
	name := FileName(KindPayslip, "2024-01", "emp-1", FormatPDF)
	assert.Equal(t, "payslip_2024-01_emp-1.pdf", name)
	assert.Equal(t,
		"reports/2024-01/payslip/employee_emp-1/payslip_2024-01_emp-1.pdf",
		StoragePath("2024-01", KindPayslip, SubjectOf(KindPayslip, "emp-1"), name),
	)

	team := FileName(KindTeamSummary, "2024-01", "mgr-1", FormatCSV)
	assert.Equal(t, "salary_report_2024-01_mgr-1.csv", team)
	assert.Equal(t,
		"reports/2024-01/team_summary/team_mgr-1/salary_report_2024-01_mgr-1.csv",
		StoragePath("2024-01", KindTeamSummary, SubjectOf(KindTeamSummary, "mgr-1"), team),
	)

	a := Artifact{Kind: KindArchive, Path: "reports/2024-01/archive/period/2024-01-20240201T000000Z.zip"}
	assert.Equal(t, "period", a.Subject())
	assert.Equal(t, "2024-01-20240201T000000Z.zip", a.FileName())
}

func TestDeliveryStateOf(t *testing.T) {
	assert.Equal(t, DeliveryPending, DeliveryStateOf(delivery.StatePending))
	assert.Equal(t, DeliveryPending, DeliveryStateOf(delivery.StateSending))
	assert.Equal(t, DeliveryPending, DeliveryStateOf(delivery.StateCancelled))
	assert.Equal(t, DeliverySent, DeliveryStateOf(delivery.StateSent))
	assert.Equal(t, DeliveryFailed, DeliveryStateOf(delivery.StateFailed))
}

func TestExportTeamSummaryRequest_Validate(t *testing.T) {
	req := ExportTeamSummaryRequest{PeriodID: "123e4567-e89b-12d3-a456-426614174000"}
	assert.NoError(t, req.Validate())
	assert.Equal(t, FormatCSV, req.Format)

	req.Format = "XLSX"
	assert.NoError(t, req.Validate())
	assert.Equal(t, FormatXLSX, req.Format)

	req.Format = FormatPDF
	assert.Error(t, req.Validate())
}
