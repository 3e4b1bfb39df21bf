package report

import (
	"fmt"
	"path"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/delivery"
)

type Kind string

const (
	KindPayslip     Kind = "payslip"
	KindTeamSummary Kind = "team_summary"
	KindArchive     Kind = "archive"
)

type Format string

const (
	FormatPDF  Format = "pdf"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatZIP  Format = "zip"
)

func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatZIP:
		return "application/zip"
	}
	return "application/octet-stream"
}

// TabularFormat reports formats accepted for team summary exports.
func (f Format) TabularFormat() bool {
	return f == FormatCSV || f == FormatXLSX
}

// DeliveryState mirrors the latest ticket of an artifact.
type DeliveryState string

const (
	DeliveryPending DeliveryState = "PENDING"
	DeliverySent    DeliveryState = "SENT"
	DeliveryFailed  DeliveryState = "FAILED"
)

// DeliveryStateOf folds ticket states into the three artifact-level states.
func DeliveryStateOf(s delivery.State) DeliveryState {
	switch s {
	case delivery.StateSent:
		return DeliverySent
	case delivery.StateFailed:
		return DeliveryFailed
	default:
		return DeliveryPending
	}
}

// Artifact is a rendered document kept in file storage.
type Artifact struct {
	ID            string
	Kind          Kind
	Format        Format
	PeriodID      string
	PeriodLabel   string
	SubjectID     string // employee for payslips, requester for team summaries, empty for archives
	Path          string
	ContentType   string
	SizeBytes     int64
	PayslipIDs    []string
	DeliveryState DeliveryState
	CreatedAt     time.Time
	ArchivedAt    *time.Time
}

// Subject is the storage partition for the artifact's owner.
func (a Artifact) Subject() string {
	return SubjectOf(a.Kind, a.SubjectID)
}

func (a Artifact) FileName() string {
	return path.Base(a.Path)
}

func SubjectOf(kind Kind, subjectID string) string {
	switch kind {
	case KindPayslip:
		return "employee_" + subjectID
	case KindTeamSummary:
		return "team_" + subjectID
	default:
		return "period"
	}
}

// FileName builds the download name, e.g. payslip_2024-01_<id>.pdf.
func FileName(kind Kind, periodLabel, subjectID string, format Format) string {
	switch kind {
	case KindPayslip:
		return fmt.Sprintf("payslip_%s_%s.%s", periodLabel, subjectID, format)
	case KindTeamSummary:
		return fmt.Sprintf("salary_report_%s_%s.%s", periodLabel, subjectID, format)
	default:
		return fmt.Sprintf("%s-%s.%s", periodLabel, subjectID, format)
	}
}

// StoragePath lays artifacts out as reports/{period}/{kind}/{subject}/{file}.
func StoragePath(periodLabel string, kind Kind, subject, fileName string) string {
	return path.Join("reports", periodLabel, string(kind), subject, fileName)
}
