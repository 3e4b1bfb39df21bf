package payroll

import (
	"context"
	"time"
)

type PeriodRepository interface {
	Create(ctx context.Context, p Period) (Period, error)
	GetByID(ctx context.Context, id string) (Period, error)
	GetByYearMonth(ctx context.Context, year, month int) (Period, error)
	// List returns periods newest first.
	List(ctx context.Context) ([]Period, error)
	// SetLocked flips the lock flag; unlocking clears LockedAt and LockedBy.
	SetLocked(ctx context.Context, id string, locked bool, by *string, at time.Time) (Period, error)
}

type CompensationRepository interface {
	Create(ctx context.Context, c Compensation) (Compensation, error)
	// ListByEmployee returns the history newest EffectiveFrom first.
	ListByEmployee(ctx context.Context, employeeID string) ([]Compensation, error)
	GetActive(ctx context.Context, employeeID string, asOf time.Time) (Compensation, error)
}

type BonusRepository interface {
	Create(ctx context.Context, b Bonus) (Bonus, error)
	ListByEmployeePeriod(ctx context.Context, employeeID, periodID string) ([]Bonus, error)
}

type PayslipRepository interface {
	Get(ctx context.Context, employeeID, periodID string) (Payslip, error)
	ListByPeriod(ctx context.Context, periodID string) ([]Payslip, error)
	// Upsert writes the payslip only while its period is unlocked; a locked
	// period at write time yields ErrPeriodLocked.
	Upsert(ctx context.Context, p Payslip) (Payslip, error)
}
