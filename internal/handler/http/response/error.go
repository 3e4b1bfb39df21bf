package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/access"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/delivery"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Access
	case errors.Is(err, access.ErrUnauthenticated):
		Unauthorized(w, "Authentication required")
	case errors.Is(err, access.ErrInactiveRequester):
		Forbidden(w, "Employee account is inactive")
	case errors.Is(err, access.ErrInsufficientCapability):
		Forbidden(w, "Insufficient permissions")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrEmailExists):
		Conflict(w, "Email already registered")
	case errors.Is(err, employee.ErrNationalIDExists):
		Conflict(w, "National ID already registered")
	case errors.Is(err, employee.ErrInvalidManager),
		errors.Is(err, employee.ErrSelfManaged),
		errors.Is(err, employee.ErrManagerCycle):
		UnprocessableEntity(w, "INVALID_MANAGER", err.Error())
	case errors.Is(err, employee.ErrManagerHasReports):
		Conflict(w, "Employee still manages direct reports")
	case errors.Is(err, employee.ErrCannotDeactivateSelf):
		Conflict(w, "Cannot deactivate your own record")

	// Payroll domain errors
	case errors.Is(err, payroll.ErrPeriodNotFound):
		NotFound(w, "Payroll period not found")
	case errors.Is(err, payroll.ErrPeriodExists):
		Conflict(w, "Payroll period already exists")
	case errors.Is(err, payroll.ErrPeriodLocked):
		Conflict(w, "Payroll period is locked")
	case errors.Is(err, payroll.ErrInvalidPeriod):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, payroll.ErrCompensationNotFound):
		NotFound(w, "Compensation not found")
	case errors.Is(err, payroll.ErrBonusExists):
		Conflict(w, "Bonus with this reason already exists for the period")
	case errors.Is(err, payroll.ErrPayslipNotFound):
		NotFound(w, "Payslip not found")
	case errors.Is(err, payroll.ErrMissingCompensation):
		UnprocessableEntity(w, "MISSING_COMPENSATION", err.Error())
	case errors.Is(err, payroll.ErrDegeneratePeriod):
		UnprocessableEntity(w, "DEGENERATE_PERIOD", err.Error())
	case errors.Is(err, payroll.ErrAttendanceIntegrity):
		UnprocessableEntity(w, "ATTENDANCE_INTEGRITY", err.Error())

	// Attendance domain errors
	case errors.Is(err, attendance.ErrDuplicateRecord):
		Conflict(w, "Attendance already recorded for this date")
	case errors.Is(err, attendance.ErrRecordNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrInvalidStatus):
		BadRequest(w, "Invalid attendance status", nil)

	// Report domain errors
	case errors.Is(err, report.ErrArtifactNotFound):
		NotFound(w, "Report not found")
	case errors.Is(err, report.ErrUnsupportedFormat):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, report.ErrNothingToArchive):
		Conflict(w, "Nothing to archive for this period")
	case errors.Is(err, report.ErrNoRecipient):
		UnprocessableEntity(w, "NO_RECIPIENT", "Recipient has no email address")
	case errors.Is(err, report.ErrRenderFailure):
		slog.Error("Report rendering failed", "error", err)
		InternalServerErrorWithCode(w, "RENDER_FAILURE", err.Error())

	// Delivery domain errors
	case errors.Is(err, delivery.ErrTicketNotFound):
		NotFound(w, "Delivery ticket not found")
	case errors.Is(err, delivery.ErrTicketInFlight):
		Conflict(w, "Delivery already handed to the mail transport")
	case errors.Is(err, delivery.ErrTicketAlreadySent):
		Conflict(w, "Delivery already sent")
	case errors.Is(err, delivery.ErrTicketExists), errors.Is(err, delivery.ErrStateConflict):
		Conflict(w, err.Error())
	case errors.Is(err, delivery.ErrDispatcherStopped):
		ServiceUnavailable(w, "Delivery is shutting down")

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
