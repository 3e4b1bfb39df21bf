package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPresent     Status = "PRESENT"
	StatusUnpaidLeave Status = "UNPAID_LEAVE"
	StatusPaidLeave   Status = "PAID_LEAVE"
	StatusOther       Status = "OTHER"
)

var MaxHoursPerDay = decimal.NewFromInt(12)

func (s Status) IsValid() bool {
	switch s {
	case StatusPresent, StatusUnpaidLeave, StatusPaidLeave, StatusOther:
		return true
	}
	return false
}

type Record struct {
	ID          string
	EmployeeID  string
	Date        time.Time
	Status      Status
	HoursWorked decimal.Decimal
	CreatedAt   time.Time
}

// Summary counts records per status over a date range.
type Summary struct {
	Present     int             `json:"present"`
	UnpaidLeave int             `json:"unpaid_leave"`
	PaidLeave   int             `json:"paid_leave"`
	Other       int             `json:"other"`
	HoursWorked decimal.Decimal `json:"hours_worked"`
}

func Summarize(records []Record) Summary {
	s := Summary{HoursWorked: decimal.Zero}
	for _, r := range records {
		switch r.Status {
		case StatusPresent:
			s.Present++
		case StatusUnpaidLeave:
			s.UnpaidLeave++
		case StatusPaidLeave:
			s.PaidLeave++
		default:
			s.Other++
		}
		s.HoursWorked = s.HoursWorked.Add(r.HoursWorked)
	}
	s.HoursWorked = s.HoursWorked.Round(2)
	return s
}
