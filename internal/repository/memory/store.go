// Package memory provides in-process repositories for tests and the
// STORE_DRIVER=memory development mode.
package memory

import (
	"sync"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/delivery"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/report"
	"github.com/google/uuid"
)

// Store holds every table behind one lock so cross-table checks (period
// lock vs payslip write) are atomic, like a single database transaction.
type Store struct {
	mu            sync.RWMutex
	employees     map[string]employee.Employee
	periods       map[string]payroll.Period
	compensations map[string][]payroll.Compensation
	bonuses       map[string]payroll.Bonus
	attendance    map[string]attendance.Record
	payslips      map[payslipKey]payroll.Payslip
	artifacts     map[string]report.Artifact
	tickets       map[string]delivery.Ticket
	now           func() time.Time
}

type payslipKey struct {
	EmployeeID string
	PeriodID   string
}

func NewStore() *Store {
	return &Store{
		employees:     make(map[string]employee.Employee),
		periods:       make(map[string]payroll.Period),
		compensations: make(map[string][]payroll.Compensation),
		bonuses:       make(map[string]payroll.Bonus),
		attendance:    make(map[string]attendance.Record),
		payslips:      make(map[payslipKey]payroll.Payslip),
		artifacts:     make(map[string]report.Artifact),
		tickets:       make(map[string]delivery.Ticket),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func newID() string {
	return uuid.NewString()
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func cloneTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
