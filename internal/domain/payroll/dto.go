package payroll

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== PERIOD DTOs ==========

type CreatePeriodRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func (r *CreatePeriodRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Year < MinYear || r.Year > MaxYear {
		errs.Add("year", "must be between 2000 and 2100")
	}
	if r.Month < 1 || r.Month > 12 {
		errs.Add("month", "must be between 1 and 12")
	}

	return errs.Err()
}

type PeriodResponse struct {
	ID        string     `json:"id"`
	Year      int        `json:"year"`
	Month     int        `json:"month"`
	Label     string     `json:"label"`
	StartDate string     `json:"start_date"`
	EndDate   string     `json:"end_date"`
	Locked    bool       `json:"locked"`
	LockedAt  *time.Time `json:"locked_at,omitempty"`
	LockedBy  *string    `json:"locked_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func NewPeriodResponse(p Period) PeriodResponse {
	return PeriodResponse{
		ID:        p.ID,
		Year:      p.Year,
		Month:     p.Month,
		Label:     p.Label(),
		StartDate: p.StartDate.Format("2006-01-02"),
		EndDate:   p.EndDate.Format("2006-01-02"),
		Locked:    p.Locked,
		LockedAt:  p.LockedAt,
		LockedBy:  p.LockedBy,
		CreatedAt: p.CreatedAt,
	}
}

// ========== COMPENSATION DTOs ==========

type CreateCompensationRequest struct {
	EmployeeID    string          `json:"employee_id"`
	BaseAmount    decimal.Decimal `json:"base_amount"`
	Currency      string          `json:"currency"`
	EffectiveFrom string          `json:"effective_from"`

	effectiveFrom time.Time
}

func (r *CreateCompensationRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.EmployeeID) {
		errs.Add("employee_id", "must be a valid UUID")
	}
	if !validator.IsPositiveAmount(r.BaseAmount) {
		errs.Add("base_amount", "must be positive with at most two decimals")
	}
	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	if r.Currency == "" {
		r.Currency = DefaultCurrency
	}
	if !validator.IsValidCurrency(r.Currency) {
		errs.Add("currency", "must be a three letter currency code")
	}
	if date, ok := validator.IsValidDate(r.EffectiveFrom); ok {
		r.effectiveFrom = date
	} else {
		errs.Add("effective_from", "must be a date in YYYY-MM-DD format")
	}

	return errs.Err()
}

// EffectiveDate is populated by Validate.
func (r CreateCompensationRequest) EffectiveDate() time.Time {
	return r.effectiveFrom
}

type CompensationResponse struct {
	ID            string          `json:"id"`
	EmployeeID    string          `json:"employee_id"`
	BaseAmount    decimal.Decimal `json:"base_amount"`
	Currency      string          `json:"currency"`
	EffectiveFrom string          `json:"effective_from"`
	CreatedAt     time.Time       `json:"created_at"`
}

func NewCompensationResponse(c Compensation) CompensationResponse {
	return CompensationResponse{
		ID:            c.ID,
		EmployeeID:    c.EmployeeID,
		BaseAmount:    c.BaseAmount.Round(2),
		Currency:      c.Currency,
		EffectiveFrom: c.EffectiveFrom.Format("2006-01-02"),
		CreatedAt:     c.CreatedAt,
	}
}

// ========== BONUS DTOs ==========

type CreateBonusRequest struct {
	EmployeeID string          `json:"employee_id"`
	PeriodID   string          `json:"period_id"`
	Amount     decimal.Decimal `json:"amount"`
	Reason     string          `json:"reason"`
}

func (r *CreateBonusRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.EmployeeID) {
		errs.Add("employee_id", "must be a valid UUID")
	}
	if !validator.IsValidUUID(r.PeriodID) {
		errs.Add("period_id", "must be a valid UUID")
	}
	if !validator.IsPositiveAmount(r.Amount) {
		errs.Add("amount", "must be positive with at most two decimals")
	}
	r.Reason = strings.TrimSpace(r.Reason)
	if len(r.Reason) > 255 {
		errs.Add("reason", "must be at most 255 characters")
	}

	return errs.Err()
}

type BonusResponse struct {
	ID         string          `json:"id"`
	EmployeeID string          `json:"employee_id"`
	PeriodID   string          `json:"period_id"`
	Amount     decimal.Decimal `json:"amount"`
	Reason     string          `json:"reason"`
	CreatedAt  time.Time       `json:"created_at"`
}

func NewBonusResponse(b Bonus) BonusResponse {
	return BonusResponse{
		ID:         b.ID,
		EmployeeID: b.EmployeeID,
		PeriodID:   b.PeriodID,
		Amount:     b.Amount.Round(2),
		Reason:     b.Reason,
		CreatedAt:  b.CreatedAt,
	}
}

// ========== PAYSLIP DTOs ==========

type GeneratePayslipRequest struct {
	EmployeeID string `json:"employee_id"`
	PeriodID   string `json:"period_id"`
}

func (r *GeneratePayslipRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.EmployeeID) {
		errs.Add("employee_id", "must be a valid UUID")
	}
	if !validator.IsValidUUID(r.PeriodID) {
		errs.Add("period_id", "must be a valid UUID")
	}

	return errs.Err()
}

type PayslipResponse struct {
	ID              string          `json:"id"`
	EmployeeID      string          `json:"employee_id"`
	PeriodID        string          `json:"period_id"`
	Currency        string          `json:"currency"`
	BaseAmount      decimal.Decimal `json:"base_amount"`
	BusinessDays    int             `json:"business_days"`
	UnpaidDays      int             `json:"unpaid_days"`
	PaidDays        int             `json:"paid_days"`
	DailyRate       decimal.Decimal `json:"daily_rate"`
	ProratedBase    decimal.Decimal `json:"prorated_base"`
	UnpaidDeduction decimal.Decimal `json:"unpaid_deduction"`
	BonusTotal      decimal.Decimal `json:"bonus_total"`
	Bonuses         []BonusLine     `json:"bonuses"`
	NetPay          decimal.Decimal `json:"net_pay"`
	ComputedAt      time.Time       `json:"computed_at"`
}

func NewPayslipResponse(p Payslip) PayslipResponse {
	bonuses := p.Bonuses
	if bonuses == nil {
		bonuses = []BonusLine{}
	}
	return PayslipResponse{
		ID:              p.ID,
		EmployeeID:      p.EmployeeID,
		PeriodID:        p.PeriodID,
		Currency:        p.Currency,
		BaseAmount:      p.BaseAmount,
		BusinessDays:    p.BusinessDays,
		UnpaidDays:      p.UnpaidDays,
		PaidDays:        p.PaidDays,
		DailyRate:       p.DailyRate,
		ProratedBase:    p.ProratedBase,
		UnpaidDeduction: p.UnpaidDeduction,
		BonusTotal:      p.BonusTotal,
		Bonuses:         bonuses,
		NetPay:          p.NetPay,
		ComputedAt:      p.ComputedAt,
	}
}
