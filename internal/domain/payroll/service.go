package payroll

import "context"

type PayrollService interface {
	// Periods
	CreatePeriod(ctx context.Context, req CreatePeriodRequest) (PeriodResponse, error)
	GetPeriod(ctx context.Context, id string) (PeriodResponse, error)
	ListPeriods(ctx context.Context) ([]PeriodResponse, error)
	LockPeriod(ctx context.Context, id string) (PeriodResponse, error)
	UnlockPeriod(ctx context.Context, id string) (PeriodResponse, error)

	// Compensation ledger
	CreateCompensation(ctx context.Context, req CreateCompensationRequest) (CompensationResponse, error)
	ListCompensations(ctx context.Context, employeeID string) ([]CompensationResponse, error)
	CreateBonus(ctx context.Context, req CreateBonusRequest) (BonusResponse, error)
	ListBonuses(ctx context.Context, employeeID, periodID string) ([]BonusResponse, error)

	// Payslips
	GeneratePayslip(ctx context.Context, req GeneratePayslipRequest) (PayslipResponse, error)
	GetPayslip(ctx context.Context, employeeID, periodID string) (PayslipResponse, error)
	ListPayslips(ctx context.Context, periodID string) ([]PayslipResponse, error)
}
