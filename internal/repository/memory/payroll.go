package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
)

// ========== PERIODS ==========

type periodRepository struct {
	s *Store
}

func NewPeriodRepository(s *Store) payroll.PeriodRepository {
	return &periodRepository{s: s}
}

func copyPeriod(p payroll.Period) payroll.Period {
	p.LockedAt = cloneTimePtr(p.LockedAt)
	p.LockedBy = cloneStringPtr(p.LockedBy)
	return p
}

func (r *periodRepository) Create(ctx context.Context, p payroll.Period) (payroll.Period, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.periods {
		if existing.Year == p.Year && existing.Month == p.Month {
			return payroll.Period{}, payroll.ErrPeriodExists
		}
	}
	if p.ID == "" {
		p.ID = newID()
	}
	p.CreatedAt = r.s.now()
	r.s.periods[p.ID] = copyPeriod(p)
	return copyPeriod(p), nil
}

func (r *periodRepository) GetByID(ctx context.Context, id string) (payroll.Period, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.periods[id]
	if !ok {
		return payroll.Period{}, payroll.ErrPeriodNotFound
	}
	return copyPeriod(p), nil
}

func (r *periodRepository) GetByYearMonth(ctx context.Context, year, month int) (payroll.Period, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.periods {
		if p.Year == year && p.Month == month {
			return copyPeriod(p), nil
		}
	}
	return payroll.Period{}, payroll.ErrPeriodNotFound
}

func (r *periodRepository) List(ctx context.Context) ([]payroll.Period, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := make([]payroll.Period, 0, len(r.s.periods))
	for _, p := range r.s.periods {
		list = append(list, copyPeriod(p))
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].StartDate.After(list[j].StartDate)
	})
	return list, nil
}

func (r *periodRepository) SetLocked(ctx context.Context, id string, locked bool, by *string, at time.Time) (payroll.Period, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.periods[id]
	if !ok {
		return payroll.Period{}, payroll.ErrPeriodNotFound
	}
	p.Locked = locked
	if locked {
		p.LockedAt = &at
		p.LockedBy = cloneStringPtr(by)
	} else {
		p.LockedAt = nil
		p.LockedBy = nil
	}
	r.s.periods[id] = copyPeriod(p)
	return copyPeriod(p), nil
}

// ========== COMPENSATION ==========

type compensationRepository struct {
	s *Store
}

func NewCompensationRepository(s *Store) payroll.CompensationRepository {
	return &compensationRepository{s: s}
}

func (r *compensationRepository) Create(ctx context.Context, c payroll.Compensation) (payroll.Compensation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if c.ID == "" {
		c.ID = newID()
	}
	c.EffectiveFrom = payroll.DateOf(c.EffectiveFrom)
	c.CreatedAt = r.s.now()
	r.s.compensations[c.EmployeeID] = append(r.s.compensations[c.EmployeeID], c)
	return c, nil
}

func (r *compensationRepository) ListByEmployee(ctx context.Context, employeeID string) ([]payroll.Compensation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := append([]payroll.Compensation(nil), r.s.compensations[employeeID]...)
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].EffectiveFrom.Equal(list[j].EffectiveFrom) {
			return list[i].EffectiveFrom.After(list[j].EffectiveFrom)
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

func (r *compensationRepository) GetActive(ctx context.Context, employeeID string, asOf time.Time) (payroll.Compensation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := payroll.ActiveAsOf(r.s.compensations[employeeID], asOf)
	if !ok {
		return payroll.Compensation{}, payroll.ErrCompensationNotFound
	}
	return c, nil
}

// ========== BONUS ==========

type bonusRepository struct {
	s *Store
}

func NewBonusRepository(s *Store) payroll.BonusRepository {
	return &bonusRepository{s: s}
}

func (r *bonusRepository) Create(ctx context.Context, b payroll.Bonus) (payroll.Bonus, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if p, ok := r.s.periods[b.PeriodID]; ok && p.Locked {
		return payroll.Bonus{}, payroll.ErrPeriodLocked
	}
	for _, existing := range r.s.bonuses {
		if existing.EmployeeID == b.EmployeeID && existing.PeriodID == b.PeriodID && existing.Reason == b.Reason {
			return payroll.Bonus{}, payroll.ErrBonusExists
		}
	}
	if b.ID == "" {
		b.ID = newID()
	}
	b.CreatedAt = r.s.now()
	r.s.bonuses[b.ID] = b
	return b, nil
}

func (r *bonusRepository) ListByEmployeePeriod(ctx context.Context, employeeID, periodID string) ([]payroll.Bonus, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var list []payroll.Bonus
	for _, b := range r.s.bonuses {
		if b.EmployeeID == employeeID && b.PeriodID == periodID {
			list = append(list, b)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

// ========== PAYSLIPS ==========

type payslipRepository struct {
	s *Store
}

func NewPayslipRepository(s *Store) payroll.PayslipRepository {
	return &payslipRepository{s: s}
}

func copyPayslip(p payroll.Payslip) payroll.Payslip {
	if p.Bonuses != nil {
		p.Bonuses = append([]payroll.BonusLine(nil), p.Bonuses...)
	}
	return p
}

func (r *payslipRepository) Get(ctx context.Context, employeeID, periodID string) (payroll.Payslip, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.payslips[payslipKey{employeeID, periodID}]
	if !ok {
		return payroll.Payslip{}, payroll.ErrPayslipNotFound
	}
	return copyPayslip(p), nil
}

func (r *payslipRepository) ListByPeriod(ctx context.Context, periodID string) ([]payroll.Payslip, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var list []payroll.Payslip
	for k, p := range r.s.payslips {
		if k.PeriodID == periodID {
			list = append(list, copyPayslip(p))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].EmployeeID < list[j].EmployeeID })
	return list, nil
}

func (r *payslipRepository) Upsert(ctx context.Context, p payroll.Payslip) (payroll.Payslip, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	period, ok := r.s.periods[p.PeriodID]
	if !ok {
		return payroll.Payslip{}, payroll.ErrPeriodNotFound
	}
	if period.Locked {
		return payroll.Payslip{}, payroll.ErrPeriodLocked
	}

	key := payslipKey{p.EmployeeID, p.PeriodID}
	if existing, ok := r.s.payslips[key]; ok {
		p.ID = existing.ID
	} else if p.ID == "" {
		p.ID = newID()
	}
	r.s.payslips[key] = copyPayslip(p)
	return copyPayslip(p), nil
}
