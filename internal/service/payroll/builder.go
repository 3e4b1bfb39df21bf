package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/keylock"
)

// PayslipBuilder computes and stores the payslip of one (employee, period)
// key. Builds of the same key run one at a time.
type PayslipBuilder struct {
	periodRepo       payroll.PeriodRepository
	compensationRepo payroll.CompensationRepository
	bonusRepo        payroll.BonusRepository
	attendanceRepo   attendance.AttendanceRepository
	payslipRepo      payroll.PayslipRepository
	calculator       *ProrationCalculator
	locks            *keylock.Map
	now              func() time.Time
}

func NewPayslipBuilder(
	periodRepo payroll.PeriodRepository,
	compensationRepo payroll.CompensationRepository,
	bonusRepo payroll.BonusRepository,
	attendanceRepo attendance.AttendanceRepository,
	payslipRepo payroll.PayslipRepository,
) *PayslipBuilder {
	return &PayslipBuilder{
		periodRepo:       periodRepo,
		compensationRepo: compensationRepo,
		bonusRepo:        bonusRepo,
		attendanceRepo:   attendanceRepo,
		payslipRepo:      payslipRepo,
		calculator:       NewProrationCalculator(),
		locks:            keylock.New(),
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// Build recomputes the payslip. A locked period never recomputes; unchanged
// inputs return the stored payslip untouched.
func (b *PayslipBuilder) Build(ctx context.Context, employeeID, periodID string) (payroll.Payslip, error) {
	unlock := b.locks.Lock(employeeID + "/" + periodID)
	defer unlock()

	period, err := b.periodRepo.GetByID(ctx, periodID)
	if err != nil {
		return payroll.Payslip{}, err
	}
	if period.Locked {
		return payroll.Payslip{}, fmt.Errorf("%w: %s", payroll.ErrPeriodLocked, period.Label())
	}

	comp, err := b.compensationRepo.GetActive(ctx, employeeID, period.StartDate)
	if err != nil {
		if errors.Is(err, payroll.ErrCompensationNotFound) {
			return payroll.Payslip{}, fmt.Errorf("%w: employee %s, %s", payroll.ErrMissingCompensation, employeeID, period.StartDate.Format("2006-01-02"))
		}
		return payroll.Payslip{}, fmt.Errorf("failed to get active compensation: %w", err)
	}

	bonuses, err := b.bonusRepo.ListByEmployeePeriod(ctx, employeeID, periodID)
	if err != nil {
		return payroll.Payslip{}, fmt.Errorf("failed to list bonuses: %w", err)
	}

	records, err := b.attendanceRepo.ListByEmployee(ctx, employeeID, period.StartDate, period.EndDate)
	if err != nil {
		return payroll.Payslip{}, fmt.Errorf("failed to list attendance: %w", err)
	}

	breakdown, err := b.calculator.Prorate(ProrationInput{
		BaseAmount: comp.BaseAmount,
		Bonuses:    bonuses,
		Attendance: records,
		StartDate:  period.StartDate,
		EndDate:    period.EndDate,
	})
	if err != nil {
		return payroll.Payslip{}, err
	}

	computed := payroll.Payslip{
		EmployeeID:      employeeID,
		PeriodID:        periodID,
		Currency:        comp.Currency,
		BaseAmount:      comp.BaseAmount.Round(MoneyPlaces),
		BusinessDays:    breakdown.BusinessDays,
		UnpaidDays:      breakdown.UnpaidDays,
		PaidDays:        breakdown.PaidDays,
		DailyRate:       breakdown.DailyRate,
		ProratedBase:    breakdown.ProratedBase,
		UnpaidDeduction: breakdown.UnpaidDeduction,
		BonusTotal:      breakdown.BonusTotal,
		Bonuses:         breakdown.Bonuses,
		NetPay:          breakdown.NetPay,
	}

	existing, err := b.payslipRepo.Get(ctx, employeeID, periodID)
	switch {
	case err == nil:
		if existing.SameFigures(computed) {
			return existing, nil
		}
		computed.ID = existing.ID
	case !errors.Is(err, payroll.ErrPayslipNotFound):
		return payroll.Payslip{}, fmt.Errorf("failed to get payslip: %w", err)
	}

	computed.ComputedAt = b.now()
	saved, err := b.payslipRepo.Upsert(ctx, computed)
	if err != nil {
		return payroll.Payslip{}, err
	}

	slog.Info("Payslip computed",
		"employee_id", employeeID,
		"period", period.Label(),
		"business_days", saved.BusinessDays,
		"unpaid_days", saved.UnpaidDays,
		"net_pay", saved.NetPay.StringFixed(MoneyPlaces),
	)
	return saved, nil
}
