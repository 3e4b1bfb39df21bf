// Package fixtures stages directory and ledger data for tests.
package fixtures

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-backend-go/internal/repository"
	"github.com/cmlabs-hris/payroll-backend-go/internal/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// ==========================================
// SEEDED ORGANISATION
// ==========================================

// Org is a small hierarchy:
//
//	Top (top manager)
//	├── Manager (manager)
//	│   ├── Report
//	│   └── Inactive (is_active = false)
//	└── Peer
type Org struct {
	Store *memory.Store
	Repos repository.Repositories

	Top      employee.Employee
	Manager  employee.Employee
	Report   employee.Employee
	Inactive employee.Employee
	Peer     employee.Employee
}

func strPtr(s string) *string { return &s }

// NewOrg seeds the hierarchy into a fresh in-memory store.
func NewOrg(t *testing.T) *Org {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	o := &Org{Store: store, Repos: repository.NewMemory(store)}

	o.Top = o.mustCreate(t, ctx, employee.Employee{FirstName: "Tudor", LastName: "Ionescu", Email: "tudor@example.com", NationalID: "1800101000001", IsManager: true, IsActive: true})
	o.Manager = o.mustCreate(t, ctx, employee.Employee{FirstName: "Maria", LastName: "Popescu", Email: "maria@example.com", NationalID: "2850202000002", IsManager: true, ManagerID: strPtr(o.Top.ID), IsActive: true})
	o.Report = o.mustCreate(t, ctx, employee.Employee{FirstName: "Andrei", LastName: "Georgescu", Email: "andrei@example.com", NationalID: "1900303000003", ManagerID: strPtr(o.Manager.ID), IsActive: true})
	o.Inactive = o.mustCreate(t, ctx, employee.Employee{FirstName: "Ioana", LastName: "Dumitru", Email: "ioana@example.com", NationalID: "2910404000004", ManagerID: strPtr(o.Manager.ID), IsActive: false})
	o.Peer = o.mustCreate(t, ctx, employee.Employee{FirstName: "Bogdan", LastName: "Stan", Email: "bogdan@example.com", NationalID: "1920505000005", ManagerID: strPtr(o.Top.ID), IsActive: true})

	return o
}

func (o *Org) mustCreate(t *testing.T, ctx context.Context, e employee.Employee) employee.Employee {
	t.Helper()
	created, err := o.Repos.Employees.Create(ctx, e)
	require.NoError(t, err)
	return created
}

// ==========================================
// LEDGER HELPERS
// ==========================================

// Period creates an unlocked calendar-month period.
func (o *Org) Period(t *testing.T, year, month int) payroll.Period {
	t.Helper()
	p, err := payroll.NewPeriod(year, month)
	require.NoError(t, err)
	created, err := o.Repos.Periods.Create(context.Background(), p)
	require.NoError(t, err)
	return created
}

// Lock locks a period as the top manager.
func (o *Org) Lock(t *testing.T, periodID string) payroll.Period {
	t.Helper()
	p, err := o.Repos.Periods.SetLocked(context.Background(), periodID, true, strPtr(o.Top.ID), time.Now().UTC())
	require.NoError(t, err)
	return p
}

// Compensation records a base amount effective from the given date.
func (o *Org) Compensation(t *testing.T, employeeID, amount string, effectiveFrom time.Time) payroll.Compensation {
	t.Helper()
	c, err := o.Repos.Compensations.Create(context.Background(), payroll.Compensation{
		EmployeeID:    employeeID,
		BaseAmount:    decimal.RequireFromString(amount),
		Currency:      payroll.DefaultCurrency,
		EffectiveFrom: effectiveFrom,
	})
	require.NoError(t, err)
	return c
}

func (o *Org) Bonus(t *testing.T, employeeID, periodID, amount, reason string) payroll.Bonus {
	t.Helper()
	b, err := o.Repos.Bonuses.Create(context.Background(), payroll.Bonus{
		EmployeeID: employeeID,
		PeriodID:   periodID,
		Amount:     decimal.RequireFromString(amount),
		Reason:     reason,
	})
	require.NoError(t, err)
	return b
}

// UnpaidLeave records UNPAID_LEAVE on each of the given days.
func (o *Org) UnpaidLeave(t *testing.T, employeeID string, days ...time.Time) {
	t.Helper()
	for _, d := range days {
		_, err := o.Repos.Attendance.Create(context.Background(), attendance.Record{
			EmployeeID:  employeeID,
			Date:        d,
			Status:      attendance.StatusUnpaidLeave,
			HoursWorked: decimal.Zero,
		})
		require.NoError(t, err)
	}
}

// Date is a UTC calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
