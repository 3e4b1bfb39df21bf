package payroll

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/access"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	accessservice "github.com/cmlabs-hris/payroll-backend-go/internal/service/access"
)

type PayrollServiceImpl struct {
	periodRepo       payroll.PeriodRepository
	compensationRepo payroll.CompensationRepository
	bonusRepo        payroll.BonusRepository
	payslipRepo      payroll.PayslipRepository
	builder          *PayslipBuilder
	resolver         *accessservice.Resolver
}

func NewPayrollService(
	periodRepo payroll.PeriodRepository,
	compensationRepo payroll.CompensationRepository,
	bonusRepo payroll.BonusRepository,
	payslipRepo payroll.PayslipRepository,
	builder *PayslipBuilder,
	resolver *accessservice.Resolver,
) payroll.PayrollService {
	return &PayrollServiceImpl{
		periodRepo:       periodRepo,
		compensationRepo: compensationRepo,
		bonusRepo:        bonusRepo,
		payslipRepo:      payslipRepo,
		builder:          builder,
		resolver:         resolver,
	}
}

// ========== PERIODS ==========

// CreatePeriod implements payroll.PayrollService.
func (s *PayrollServiceImpl) CreatePeriod(ctx context.Context, req payroll.CreatePeriodRequest) (payroll.PeriodResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PeriodResponse{}, err
	}
	if _, err := s.resolver.Require(ctx, access.CapPeriodManage); err != nil {
		return payroll.PeriodResponse{}, err
	}

	period, err := payroll.NewPeriod(req.Year, req.Month)
	if err != nil {
		return payroll.PeriodResponse{}, err
	}
	created, err := s.periodRepo.Create(ctx, period)
	if err != nil {
		return payroll.PeriodResponse{}, err
	}
	return payroll.NewPeriodResponse(created), nil
}

// GetPeriod implements payroll.PayrollService.
func (s *PayrollServiceImpl) GetPeriod(ctx context.Context, id string) (payroll.PeriodResponse, error) {
	if _, err := s.resolver.Requester(ctx); err != nil {
		return payroll.PeriodResponse{}, err
	}
	period, err := s.periodRepo.GetByID(ctx, id)
	if err != nil {
		return payroll.PeriodResponse{}, err
	}
	return payroll.NewPeriodResponse(period), nil
}

// ListPeriods implements payroll.PayrollService.
func (s *PayrollServiceImpl) ListPeriods(ctx context.Context) ([]payroll.PeriodResponse, error) {
	if _, err := s.resolver.Requester(ctx); err != nil {
		return nil, err
	}
	periods, err := s.periodRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	responses := make([]payroll.PeriodResponse, 0, len(periods))
	for _, p := range periods {
		responses = append(responses, payroll.NewPeriodResponse(p))
	}
	return responses, nil
}

// LockPeriod implements payroll.PayrollService. Locking twice keeps the
// first LockedAt and LockedBy.
func (s *PayrollServiceImpl) LockPeriod(ctx context.Context, id string) (payroll.PeriodResponse, error) {
	return s.setLocked(ctx, id, true)
}

// UnlockPeriod implements payroll.PayrollService.
func (s *PayrollServiceImpl) UnlockPeriod(ctx context.Context, id string) (payroll.PeriodResponse, error) {
	return s.setLocked(ctx, id, false)
}

func (s *PayrollServiceImpl) setLocked(ctx context.Context, id string, locked bool) (payroll.PeriodResponse, error) {
	req, err := s.resolver.Require(ctx, access.CapPeriodManage)
	if err != nil {
		return payroll.PeriodResponse{}, err
	}

	period, err := s.periodRepo.GetByID(ctx, id)
	if err != nil {
		return payroll.PeriodResponse{}, err
	}
	if period.Locked == locked {
		return payroll.NewPeriodResponse(period), nil
	}

	by := req.ID()
	updated, err := s.periodRepo.SetLocked(ctx, id, locked, &by, time.Now().UTC())
	if err != nil {
		return payroll.PeriodResponse{}, err
	}

	slog.Info("Payroll period lock changed", "period", updated.Label(), "locked", locked, "by", by)
	return payroll.NewPeriodResponse(updated), nil
}

// ========== COMPENSATION LEDGER ==========

// CreateCompensation implements payroll.PayrollService.
func (s *PayrollServiceImpl) CreateCompensation(ctx context.Context, reqBody payroll.CreateCompensationRequest) (payroll.CompensationResponse, error) {
	if err := reqBody.Validate(); err != nil {
		return payroll.CompensationResponse{}, err
	}
	req, err := s.resolver.Require(ctx, access.CapCompensationManage)
	if err != nil {
		return payroll.CompensationResponse{}, err
	}
	if _, err := s.resolver.Lookup(ctx, req, reqBody.EmployeeID); err != nil {
		return payroll.CompensationResponse{}, err
	}

	created, err := s.compensationRepo.Create(ctx, payroll.Compensation{
		EmployeeID:    reqBody.EmployeeID,
		BaseAmount:    reqBody.BaseAmount,
		Currency:      reqBody.Currency,
		EffectiveFrom: reqBody.EffectiveDate(),
	})
	if err != nil {
		return payroll.CompensationResponse{}, err
	}
	return payroll.NewCompensationResponse(created), nil
}

// ListCompensations implements payroll.PayrollService.
func (s *PayrollServiceImpl) ListCompensations(ctx context.Context, employeeID string) ([]payroll.CompensationResponse, error) {
	req, err := s.resolver.Requester(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.resolver.Lookup(ctx, req, employeeID); err != nil {
		return nil, err
	}

	history, err := s.compensationRepo.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	responses := make([]payroll.CompensationResponse, 0, len(history))
	for _, c := range history {
		responses = append(responses, payroll.NewCompensationResponse(c))
	}
	return responses, nil
}

// CreateBonus implements payroll.PayrollService.
func (s *PayrollServiceImpl) CreateBonus(ctx context.Context, reqBody payroll.CreateBonusRequest) (payroll.BonusResponse, error) {
	if err := reqBody.Validate(); err != nil {
		return payroll.BonusResponse{}, err
	}
	req, err := s.resolver.Require(ctx, access.CapCompensationManage)
	if err != nil {
		return payroll.BonusResponse{}, err
	}
	if _, err := s.resolver.Lookup(ctx, req, reqBody.EmployeeID); err != nil {
		return payroll.BonusResponse{}, err
	}

	period, err := s.periodRepo.GetByID(ctx, reqBody.PeriodID)
	if err != nil {
		return payroll.BonusResponse{}, err
	}
	if period.Locked {
		return payroll.BonusResponse{}, fmt.Errorf("%w: %s", payroll.ErrPeriodLocked, period.Label())
	}

	created, err := s.bonusRepo.Create(ctx, payroll.Bonus{
		EmployeeID: reqBody.EmployeeID,
		PeriodID:   reqBody.PeriodID,
		Amount:     reqBody.Amount,
		Reason:     reqBody.Reason,
	})
	if err != nil {
		return payroll.BonusResponse{}, err
	}
	return payroll.NewBonusResponse(created), nil
}

// ListBonuses implements payroll.PayrollService.
func (s *PayrollServiceImpl) ListBonuses(ctx context.Context, employeeID, periodID string) ([]payroll.BonusResponse, error) {
	req, err := s.resolver.Requester(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.resolver.Lookup(ctx, req, employeeID); err != nil {
		return nil, err
	}

	bonuses, err := s.bonusRepo.ListByEmployeePeriod(ctx, employeeID, periodID)
	if err != nil {
		return nil, err
	}
	responses := make([]payroll.BonusResponse, 0, len(bonuses))
	for _, b := range bonuses {
		responses = append(responses, payroll.NewBonusResponse(b))
	}
	return responses, nil
}

// ========== PAYSLIPS ==========

// GeneratePayslip implements payroll.PayrollService.
func (s *PayrollServiceImpl) GeneratePayslip(ctx context.Context, reqBody payroll.GeneratePayslipRequest) (payroll.PayslipResponse, error) {
	if err := reqBody.Validate(); err != nil {
		return payroll.PayslipResponse{}, err
	}
	req, err := s.resolver.Require(ctx, access.CapPayslipGenerate)
	if err != nil {
		return payroll.PayslipResponse{}, err
	}
	if _, err := s.resolver.Lookup(ctx, req, reqBody.EmployeeID); err != nil {
		return payroll.PayslipResponse{}, err
	}

	slip, err := s.builder.Build(ctx, reqBody.EmployeeID, reqBody.PeriodID)
	if err != nil {
		return payroll.PayslipResponse{}, err
	}
	return payroll.NewPayslipResponse(slip), nil
}

// GetPayslip implements payroll.PayrollService.
func (s *PayrollServiceImpl) GetPayslip(ctx context.Context, employeeID, periodID string) (payroll.PayslipResponse, error) {
	req, err := s.resolver.Requester(ctx)
	if err != nil {
		return payroll.PayslipResponse{}, err
	}
	if _, err := s.resolver.Lookup(ctx, req, employeeID); err != nil {
		return payroll.PayslipResponse{}, err
	}

	slip, err := s.payslipRepo.Get(ctx, employeeID, periodID)
	if err != nil {
		return payroll.PayslipResponse{}, err
	}
	return payroll.NewPayslipResponse(slip), nil
}

// ListPayslips implements payroll.PayrollService. Only payslips of employees
// in scope are returned.
func (s *PayrollServiceImpl) ListPayslips(ctx context.Context, periodID string) ([]payroll.PayslipResponse, error) {
	req, err := s.resolver.Requester(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.periodRepo.GetByID(ctx, periodID); err != nil {
		return nil, err
	}

	slips, err := s.payslipRepo.ListByPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}

	candidates := make([]string, 0, len(slips))
	for _, p := range slips {
		candidates = append(candidates, p.EmployeeID)
	}
	allowed, err := s.resolver.Resolve(ctx, req, candidates)
	if err != nil {
		return nil, err
	}
	inScope := make(map[string]bool, len(allowed))
	for _, id := range allowed {
		inScope[id] = true
	}

	responses := make([]payroll.PayslipResponse, 0, len(allowed))
	for _, p := range slips {
		if inScope[p.EmployeeID] {
			responses = append(responses, payroll.NewPayslipResponse(p))
		}
	}
	return responses, nil
}
