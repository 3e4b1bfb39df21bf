package attendance

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type CreateRecordRequest struct {
	EmployeeID  string           `json:"employee_id"`
	Date        string           `json:"date"`
	Status      Status           `json:"status"`
	HoursWorked *decimal.Decimal `json:"hours_worked,omitempty"`

	date time.Time
}

func (r *CreateRecordRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.EmployeeID) {
		errs.Add("employee_id", "must be a valid UUID")
	}
	if d, ok := validator.IsValidDate(r.Date); ok {
		r.date = d
	} else {
		errs.Add("date", "must be a date in YYYY-MM-DD format")
	}

	r.Status = Status(strings.ToUpper(strings.TrimSpace(string(r.Status))))
	if !r.Status.IsValid() {
		errs.Add("status", "must be one of PRESENT, UNPAID_LEAVE, PAID_LEAVE, OTHER")
	}

	switch {
	case r.Status == StatusPresent:
		if r.HoursWorked == nil || !r.HoursWorked.IsPositive() || r.HoursWorked.GreaterThan(MaxHoursPerDay) {
			errs.Add("hours_worked", "must be greater than 0 and at most 12 for PRESENT")
		}
	case r.HoursWorked != nil && !r.HoursWorked.IsZero():
		errs.Add("hours_worked", "must be 0 unless status is PRESENT")
	}

	return errs.Err()
}

// RecordDate is populated by Validate.
func (r CreateRecordRequest) RecordDate() time.Time {
	return r.date
}

// Hours returns the validated hours, zero when absent.
func (r CreateRecordRequest) Hours() decimal.Decimal {
	if r.HoursWorked == nil {
		return decimal.Zero
	}
	return r.HoursWorked.Round(2)
}

type ListRecordsFilter struct {
	EmployeeID string
	From       string
	To         string
}

func (f ListRecordsFilter) Validate() (time.Time, time.Time, error) {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(f.EmployeeID) {
		errs.Add("employee_id", "must be a valid UUID")
	}
	from, okFrom := validator.IsValidDate(f.From)
	if !okFrom {
		errs.Add("from", "must be a date in YYYY-MM-DD format")
	}
	to, okTo := validator.IsValidDate(f.To)
	if !okTo {
		errs.Add("to", "must be a date in YYYY-MM-DD format")
	}
	if okFrom && okTo && to.Before(from) {
		errs.Add("to", "must not be before from")
	}

	return from, to, errs.Err()
}

type RecordResponse struct {
	ID          string          `json:"id"`
	EmployeeID  string          `json:"employee_id"`
	Date        string          `json:"date"`
	Status      Status          `json:"status"`
	HoursWorked decimal.Decimal `json:"hours_worked"`
	CreatedAt   time.Time       `json:"created_at"`
}

func NewRecordResponse(r Record) RecordResponse {
	return RecordResponse{
		ID:          r.ID,
		EmployeeID:  r.EmployeeID,
		Date:        r.Date.Format("2006-01-02"),
		Status:      r.Status,
		HoursWorked: r.HoursWorked,
		CreatedAt:   r.CreatedAt,
	}
}

type SummaryResponse struct {
	EmployeeID string `json:"employee_id"`
	Period     string `json:"period"`
	Summary
}
