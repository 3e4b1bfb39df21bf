package payroll

import "errors"

var (
	ErrPeriodNotFound       = errors.New("payroll period not found")
	ErrPeriodExists         = errors.New("payroll period already exists")
	ErrPeriodLocked         = errors.New("payroll period is locked")
	ErrInvalidPeriod        = errors.New("invalid payroll period")
	ErrCompensationNotFound = errors.New("compensation not found")
	ErrMissingCompensation  = errors.New("no active compensation as of period start")
	ErrBonusExists          = errors.New("bonus with this reason already exists for the period")
	ErrPayslipNotFound      = errors.New("payslip not found")
	ErrDegeneratePeriod     = errors.New("period has no business days")
	ErrAttendanceIntegrity  = errors.New("duplicate attendance records for the same date")
)
