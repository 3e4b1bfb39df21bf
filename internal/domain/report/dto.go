package report

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/delivery"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type GeneratePayslipReportRequest struct {
	EmployeeID string `json:"employee_id"`
	PeriodID   string `json:"period_id"`
}

func (r *GeneratePayslipReportRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.EmployeeID) {
		errs.Add("employee_id", "must be a valid UUID")
	}
	if !validator.IsValidUUID(r.PeriodID) {
		errs.Add("period_id", "must be a valid UUID")
	}

	return errs.Err()
}

// GeneratePayslipReportsRequest renders one payslip report per employee.
// Without EmployeeIDs every active employee in scope is included.
type GeneratePayslipReportsRequest struct {
	PeriodID    string   `json:"period_id"`
	EmployeeIDs []string `json:"employee_ids,omitempty"`
}

func (r *GeneratePayslipReportsRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.PeriodID) {
		errs.Add("period_id", "must be a valid UUID")
	}
	validateEmployeeIDs(&errs, r.EmployeeIDs)

	return errs.Err()
}

// ExportTeamSummaryRequest exports the requester's scope, or the part of it
// named by EmployeeIDs.
type ExportTeamSummaryRequest struct {
	PeriodID    string   `json:"period_id"`
	Format      Format   `json:"format"`
	EmployeeIDs []string `json:"employee_ids,omitempty"`
}

func (r *ExportTeamSummaryRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.PeriodID) {
		errs.Add("period_id", "must be a valid UUID")
	}
	validateEmployeeIDs(&errs, r.EmployeeIDs)
	r.Format = Format(strings.ToLower(strings.TrimSpace(string(r.Format))))
	if r.Format == "" {
		r.Format = FormatCSV
	}
	if !r.Format.TabularFormat() {
		errs.Add("format", "must be csv or xlsx")
	}

	return errs.Err()
}

func validateEmployeeIDs(errs *validator.ValidationErrors, ids []string) {
	for _, id := range ids {
		if !validator.IsValidUUID(id) {
			errs.Add("employee_ids", "must contain valid UUIDs")
			return
		}
	}
}

// TeamSummaryColumns is the fixed header of every team summary export.
var TeamSummaryColumns = []string{"employee_id", "name", "period", "business_days", "unpaid_days", "net_pay"}

type TeamSummaryRow struct {
	EmployeeID   string          `json:"employee_id"`
	Name         string          `json:"name"`
	Period       string          `json:"period"`
	BusinessDays int             `json:"business_days"`
	UnpaidDays   int             `json:"unpaid_days"`
	NetPay       decimal.Decimal `json:"net_pay"`
}

type ExportFailure struct {
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
	Error      string `json:"error"`
}

type ArtifactResponse struct {
	ID            string        `json:"id"`
	Kind          Kind          `json:"kind"`
	Format        Format        `json:"format"`
	PeriodID      string        `json:"period_id"`
	Period        string        `json:"period"`
	SubjectID     string        `json:"subject_id,omitempty"`
	FileName      string        `json:"file_name"`
	ContentType   string        `json:"content_type"`
	SizeBytes     int64         `json:"size_bytes"`
	PayslipIDs    []string      `json:"payslip_ids"`
	DeliveryState DeliveryState `json:"delivery_state"`
	CreatedAt     time.Time     `json:"created_at"`
	ArchivedAt    *time.Time    `json:"archived_at,omitempty"`
}

func NewArtifactResponse(a Artifact) ArtifactResponse {
	ids := a.PayslipIDs
	if ids == nil {
		ids = []string{}
	}
	return ArtifactResponse{
		ID:            a.ID,
		Kind:          a.Kind,
		Format:        a.Format,
		PeriodID:      a.PeriodID,
		Period:        a.PeriodLabel,
		SubjectID:     a.SubjectID,
		FileName:      a.FileName(),
		ContentType:   a.ContentType,
		SizeBytes:     a.SizeBytes,
		PayslipIDs:    ids,
		DeliveryState: a.DeliveryState,
		CreatedAt:     a.CreatedAt,
		ArchivedAt:    a.ArchivedAt,
	}
}

type TeamExportResponse struct {
	Artifact ArtifactResponse `json:"artifact"`
	Rows     []TeamSummaryRow `json:"rows"`
	Failures []ExportFailure  `json:"failures"`
}

type BatchReportResponse struct {
	Artifacts []ArtifactResponse `json:"artifacts"`
	Failures  []ExportFailure    `json:"failures"`
}

type SendResponse struct {
	Artifact ArtifactResponse        `json:"artifact"`
	Ticket   delivery.TicketResponse `json:"ticket"`
	Failures []ExportFailure         `json:"failures,omitempty"`
}
