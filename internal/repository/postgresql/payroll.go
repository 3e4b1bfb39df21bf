package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

// ========== PERIODS ==========

const periodColumns = `id, year, month, start_date, end_date, locked, locked_at, locked_by, created_at`

type periodRepositoryImpl struct {
	db *database.DB
}

func NewPeriodRepository(db *database.DB) payroll.PeriodRepository {
	return &periodRepositoryImpl{db: db}
}

func scanPeriod(row pgx.Row) (payroll.Period, error) {
	var p payroll.Period
	err := row.Scan(&p.ID, &p.Year, &p.Month, &p.StartDate, &p.EndDate, &p.Locked, &p.LockedAt, &p.LockedBy, &p.CreatedAt)
	if err != nil {
		return payroll.Period{}, err
	}
	p.StartDate = payroll.DateOf(p.StartDate)
	p.EndDate = payroll.DateOf(p.EndDate)
	return p, nil
}

// Create implements payroll.PeriodRepository.
func (r *periodRepositoryImpl) Create(ctx context.Context, p payroll.Period) (payroll.Period, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_periods (year, month, start_date, end_date)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + periodColumns

	created, err := scanPeriod(q.QueryRow(ctx, query, p.Year, p.Month, p.StartDate, p.EndDate))
	if err != nil {
		if uniqueConstraint(err) != "" {
			return payroll.Period{}, payroll.ErrPeriodExists
		}
		return payroll.Period{}, fmt.Errorf("failed to create payroll period: %w", err)
	}
	return created, nil
}

func (r *periodRepositoryImpl) getOne(ctx context.Context, where string, args ...any) (payroll.Period, error) {
	q := GetQuerier(ctx, r.db)

	p, err := scanPeriod(q.QueryRow(ctx, `SELECT `+periodColumns+` FROM payroll_periods WHERE `+where, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Period{}, payroll.ErrPeriodNotFound
		}
		return payroll.Period{}, fmt.Errorf("failed to get payroll period: %w", err)
	}
	return p, nil
}

// GetByID implements payroll.PeriodRepository.
func (r *periodRepositoryImpl) GetByID(ctx context.Context, id string) (payroll.Period, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetByYearMonth implements payroll.PeriodRepository.
func (r *periodRepositoryImpl) GetByYearMonth(ctx context.Context, year, month int) (payroll.Period, error) {
	return r.getOne(ctx, "year = $1 AND month = $2", year, month)
}

// List implements payroll.PeriodRepository.
func (r *periodRepositoryImpl) List(ctx context.Context) ([]payroll.Period, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+periodColumns+` FROM payroll_periods ORDER BY start_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll periods: %w", err)
	}
	defer rows.Close()

	var periods []payroll.Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

// SetLocked implements payroll.PeriodRepository.
func (r *periodRepositoryImpl) SetLocked(ctx context.Context, id string, locked bool, by *string, at time.Time) (payroll.Period, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_periods
		SET locked = $2,
			locked_at = CASE WHEN $2 THEN $3::timestamptz ELSE NULL END,
			locked_by = CASE WHEN $2 THEN $4::uuid ELSE NULL END
		WHERE id = $1
		RETURNING ` + periodColumns

	p, err := scanPeriod(q.QueryRow(ctx, query, id, locked, at, by))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Period{}, payroll.ErrPeriodNotFound
		}
		return payroll.Period{}, fmt.Errorf("failed to update period lock: %w", err)
	}
	return p, nil
}

// ========== COMPENSATION ==========

const compensationColumns = `id, employee_id, base_amount, currency, effective_from, created_at`

type compensationRepositoryImpl struct {
	db *database.DB
}

func NewCompensationRepository(db *database.DB) payroll.CompensationRepository {
	return &compensationRepositoryImpl{db: db}
}

func scanCompensation(row pgx.Row) (payroll.Compensation, error) {
	var c payroll.Compensation
	if err := row.Scan(&c.ID, &c.EmployeeID, &c.BaseAmount, &c.Currency, &c.EffectiveFrom, &c.CreatedAt); err != nil {
		return payroll.Compensation{}, err
	}
	c.EffectiveFrom = payroll.DateOf(c.EffectiveFrom)
	return c, nil
}

// Create implements payroll.CompensationRepository.
func (r *compensationRepositoryImpl) Create(ctx context.Context, c payroll.Compensation) (payroll.Compensation, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO compensations (employee_id, base_amount, currency, effective_from)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + compensationColumns

	created, err := scanCompensation(q.QueryRow(ctx, query, c.EmployeeID, c.BaseAmount, c.Currency, payroll.DateOf(c.EffectiveFrom)))
	if err != nil {
		return payroll.Compensation{}, fmt.Errorf("failed to create compensation: %w", err)
	}
	return created, nil
}

// ListByEmployee implements payroll.CompensationRepository.
func (r *compensationRepositoryImpl) ListByEmployee(ctx context.Context, employeeID string) ([]payroll.Compensation, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + compensationColumns + `
		FROM compensations
		WHERE employee_id = $1
		ORDER BY effective_from DESC, created_at DESC
	`
	rows, err := q.Query(ctx, query, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list compensations: %w", err)
	}
	defer rows.Close()

	var list []payroll.Compensation
	for rows.Next() {
		c, err := scanCompensation(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// GetActive implements payroll.CompensationRepository.
func (r *compensationRepositoryImpl) GetActive(ctx context.Context, employeeID string, asOf time.Time) (payroll.Compensation, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + compensationColumns + `
		FROM compensations
		WHERE employee_id = $1 AND effective_from <= $2
		ORDER BY effective_from DESC, created_at DESC
		LIMIT 1
	`
	c, err := scanCompensation(q.QueryRow(ctx, query, employeeID, payroll.DateOf(asOf)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Compensation{}, payroll.ErrCompensationNotFound
		}
		return payroll.Compensation{}, fmt.Errorf("failed to get active compensation: %w", err)
	}
	return c, nil
}

// ========== BONUS ==========

const bonusColumns = `id, employee_id, period_id, amount, reason, created_at`

type bonusRepositoryImpl struct {
	db *database.DB
}

func NewBonusRepository(db *database.DB) payroll.BonusRepository {
	return &bonusRepositoryImpl{db: db}
}

// Create implements payroll.BonusRepository. The insert only happens while
// the period is unlocked.
func (r *bonusRepositoryImpl) Create(ctx context.Context, b payroll.Bonus) (payroll.Bonus, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO bonuses (employee_id, period_id, amount, reason)
		SELECT $1, p.id, $3, $4
		FROM payroll_periods p
		WHERE p.id = $2 AND NOT p.locked
		RETURNING ` + bonusColumns

	var created payroll.Bonus
	err := q.QueryRow(ctx, query, b.EmployeeID, b.PeriodID, b.Amount, b.Reason).Scan(
		&created.ID, &created.EmployeeID, &created.PeriodID, &created.Amount, &created.Reason, &created.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Bonus{}, payroll.ErrPeriodLocked
		}
		if uniqueConstraint(err) != "" {
			return payroll.Bonus{}, payroll.ErrBonusExists
		}
		return payroll.Bonus{}, fmt.Errorf("failed to create bonus: %w", err)
	}
	return created, nil
}

// ListByEmployeePeriod implements payroll.BonusRepository.
func (r *bonusRepositoryImpl) ListByEmployeePeriod(ctx context.Context, employeeID, periodID string) ([]payroll.Bonus, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + bonusColumns + `
		FROM bonuses
		WHERE employee_id = $1 AND period_id = $2
		ORDER BY created_at, id
	`
	rows, err := q.Query(ctx, query, employeeID, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bonuses: %w", err)
	}
	defer rows.Close()

	var list []payroll.Bonus
	for rows.Next() {
		var b payroll.Bonus
		if err := rows.Scan(&b.ID, &b.EmployeeID, &b.PeriodID, &b.Amount, &b.Reason, &b.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// ========== PAYSLIPS ==========

const payslipColumns = `id, employee_id, period_id, currency, base_amount, business_days, unpaid_days, paid_days,
	daily_rate, prorated_base, unpaid_deduction, bonus_total, bonus_lines, net_pay, computed_at`

type payslipRepositoryImpl struct {
	db *database.DB
}

func NewPayslipRepository(db *database.DB) payroll.PayslipRepository {
	return &payslipRepositoryImpl{db: db}
}

func scanPayslip(row pgx.Row) (payroll.Payslip, error) {
	var (
		p     payroll.Payslip
		lines []byte
	)
	err := row.Scan(
		&p.ID, &p.EmployeeID, &p.PeriodID, &p.Currency, &p.BaseAmount, &p.BusinessDays, &p.UnpaidDays, &p.PaidDays,
		&p.DailyRate, &p.ProratedBase, &p.UnpaidDeduction, &p.BonusTotal, &lines, &p.NetPay, &p.ComputedAt,
	)
	if err != nil {
		return payroll.Payslip{}, err
	}
	if err := json.Unmarshal(lines, &p.Bonuses); err != nil {
		return payroll.Payslip{}, fmt.Errorf("decode bonus lines: %w", err)
	}
	return p, nil
}

// Get implements payroll.PayslipRepository.
func (r *payslipRepositoryImpl) Get(ctx context.Context, employeeID, periodID string) (payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + payslipColumns + ` FROM payslips WHERE employee_id = $1 AND period_id = $2`
	p, err := scanPayslip(q.QueryRow(ctx, query, employeeID, periodID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Payslip{}, payroll.ErrPayslipNotFound
		}
		return payroll.Payslip{}, fmt.Errorf("failed to get payslip: %w", err)
	}
	return p, nil
}

// ListByPeriod implements payroll.PayslipRepository.
func (r *payslipRepositoryImpl) ListByPeriod(ctx context.Context, periodID string) ([]payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+payslipColumns+` FROM payslips WHERE period_id = $1 ORDER BY employee_id`, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payslips: %w", err)
	}
	defer rows.Close()

	var list []payroll.Payslip
	for rows.Next() {
		p, err := scanPayslip(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Upsert implements payroll.PayslipRepository. The period row is read FOR
// SHARE so a concurrent lock waits for this write, or this write sees the lock.
func (r *payslipRepositoryImpl) Upsert(ctx context.Context, p payroll.Payslip) (payroll.Payslip, error) {
	lines := p.Bonuses
	if lines == nil {
		lines = []payroll.BonusLine{}
	}
	encoded, err := json.Marshal(lines)
	if err != nil {
		return payroll.Payslip{}, fmt.Errorf("encode bonus lines: %w", err)
	}

	var saved payroll.Payslip
	err = WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		var locked bool
		err := tx.QueryRow(ctx, `SELECT locked FROM payroll_periods WHERE id = $1 FOR SHARE`, p.PeriodID).Scan(&locked)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return payroll.ErrPeriodNotFound
			}
			return fmt.Errorf("failed to read period lock: %w", err)
		}
		if locked {
			return payroll.ErrPeriodLocked
		}

		query := `
			INSERT INTO payslips (
				employee_id, period_id, currency, base_amount, business_days, unpaid_days, paid_days,
				daily_rate, prorated_base, unpaid_deduction, bonus_total, bonus_lines, net_pay, computed_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			ON CONFLICT (employee_id, period_id) DO UPDATE SET
				currency = EXCLUDED.currency,
				base_amount = EXCLUDED.base_amount,
				business_days = EXCLUDED.business_days,
				unpaid_days = EXCLUDED.unpaid_days,
				paid_days = EXCLUDED.paid_days,
				daily_rate = EXCLUDED.daily_rate,
				prorated_base = EXCLUDED.prorated_base,
				unpaid_deduction = EXCLUDED.unpaid_deduction,
				bonus_total = EXCLUDED.bonus_total,
				bonus_lines = EXCLUDED.bonus_lines,
				net_pay = EXCLUDED.net_pay,
				computed_at = EXCLUDED.computed_at
			RETURNING ` + payslipColumns

		saved, err = scanPayslip(tx.QueryRow(ctx, query,
			p.EmployeeID, p.PeriodID, p.Currency, p.BaseAmount, p.BusinessDays, p.UnpaidDays, p.PaidDays,
			p.DailyRate, p.ProratedBase, p.UnpaidDeduction, p.BonusTotal, encoded, p.NetPay, p.ComputedAt,
		))
		if err != nil {
			return fmt.Errorf("failed to upsert payslip: %w", err)
		}
		return nil
	})
	if err != nil {
		return payroll.Payslip{}, err
	}
	return saved, nil
}
