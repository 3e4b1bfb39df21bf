package payroll

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const (
	MinYear         = 2000
	MaxYear         = 2100
	DefaultCurrency = "RON"
)

// ========== PERIOD ==========

type Period struct {
	ID        string
	Year      int
	Month     int
	StartDate time.Time
	EndDate   time.Time
	Locked    bool
	LockedAt  *time.Time
	LockedBy  *string
	CreatedAt time.Time
}

// NewPeriod derives calendar-month bounds as UTC dates.
func NewPeriod(year, month int) (Period, error) {
	if year < MinYear || year > MaxYear {
		return Period{}, fmt.Errorf("%w: year %d outside %d..%d", ErrInvalidPeriod, year, MinYear, MaxYear)
	}
	if month < 1 || month > 12 {
		return Period{}, fmt.Errorf("%w: month %d outside 1..12", ErrInvalidPeriod, month)
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return Period{
		Year:      year,
		Month:     month,
		StartDate: start,
		EndDate:   start.AddDate(0, 1, -1),
	}, nil
}

// Label formats the period as YYYY-MM.
func (p Period) Label() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// Contains reports whether the calendar date of d falls in the period.
func (p Period) Contains(d time.Time) bool {
	day := DateOf(d)
	return !day.Before(DateOf(p.StartDate)) && !day.After(DateOf(p.EndDate))
}

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ========== COMPENSATION ==========

type Compensation struct {
	ID            string
	EmployeeID    string
	BaseAmount    decimal.Decimal
	Currency      string
	EffectiveFrom time.Time
	CreatedAt     time.Time
}

// ActiveAsOf picks the record with the greatest EffectiveFrom on or before
// date; ties go to the most recently created record.
func ActiveAsOf(history []Compensation, date time.Time) (Compensation, bool) {
	day := DateOf(date)
	var (
		best  Compensation
		found bool
	)
	for _, c := range history {
		from := DateOf(c.EffectiveFrom)
		if from.After(day) {
			continue
		}
		if !found ||
			from.After(DateOf(best.EffectiveFrom)) ||
			(from.Equal(DateOf(best.EffectiveFrom)) && c.CreatedAt.After(best.CreatedAt)) {
			best = c
			found = true
		}
	}
	return best, found
}

// ========== BONUS ==========

type Bonus struct {
	ID         string
	EmployeeID string
	PeriodID   string
	Amount     decimal.Decimal
	Reason     string
	CreatedAt  time.Time
}

// ========== PAYSLIP ==========

type BonusLine struct {
	Reason string          `json:"reason"`
	Amount decimal.Decimal `json:"amount"`
}

// Payslip is the computed pay for one (employee, period) key.
type Payslip struct {
	ID              string
	EmployeeID      string
	PeriodID        string
	Currency        string
	BaseAmount      decimal.Decimal
	BusinessDays    int
	UnpaidDays      int
	PaidDays        int
	DailyRate       decimal.Decimal
	ProratedBase    decimal.Decimal
	UnpaidDeduction decimal.Decimal
	BonusTotal      decimal.Decimal
	Bonuses         []BonusLine
	NetPay          decimal.Decimal
	ComputedAt      time.Time
}

// SameFigures compares every computed value, ignoring identity and timestamps.
func (p Payslip) SameFigures(o Payslip) bool {
	if p.EmployeeID != o.EmployeeID || p.PeriodID != o.PeriodID || p.Currency != o.Currency {
		return false
	}
	if p.BusinessDays != o.BusinessDays || p.UnpaidDays != o.UnpaidDays || p.PaidDays != o.PaidDays {
		return false
	}
	money := [][2]decimal.Decimal{
		{p.BaseAmount, o.BaseAmount},
		{p.DailyRate, o.DailyRate},
		{p.ProratedBase, o.ProratedBase},
		{p.UnpaidDeduction, o.UnpaidDeduction},
		{p.BonusTotal, o.BonusTotal},
		{p.NetPay, o.NetPay},
	}
	for _, pair := range money {
		if !pair[0].Equal(pair[1]) {
			return false
		}
	}
	if len(p.Bonuses) != len(o.Bonuses) {
		return false
	}
	for i := range p.Bonuses {
		if p.Bonuses[i].Reason != o.Bonuses[i].Reason || !p.Bonuses[i].Amount.Equal(o.Bonuses[i].Amount) {
			return false
		}
	}
	return true
}

// SortBonusLines orders lines by reason then amount so documents render stably.
func SortBonusLines(lines []BonusLine) {
	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].Reason != lines[j].Reason {
			return lines[i].Reason < lines[j].Reason
		}
		return lines[i].Amount.LessThan(lines[j].Amount)
	})
}
