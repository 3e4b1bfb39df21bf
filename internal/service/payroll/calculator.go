package payroll

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the scale every money figure is rounded to, half away from zero.
const MoneyPlaces = 2

// ProrationInput is everything the calculator reads. It never touches storage.
type ProrationInput struct {
	BaseAmount decimal.Decimal
	Bonuses    []payroll.Bonus
	Attendance []attendance.Record
	StartDate  time.Time
	EndDate    time.Time
}

// Breakdown is the computed pay for one period.
type Breakdown struct {
	BusinessDays    int
	UnpaidDays      int
	PaidDays        int
	DailyRate       decimal.Decimal
	ProratedBase    decimal.Decimal
	UnpaidDeduction decimal.Decimal
	BonusTotal      decimal.Decimal
	Bonuses         []payroll.BonusLine
	NetPay          decimal.Decimal
}

type ProrationCalculator struct {
}

func NewProrationCalculator() *ProrationCalculator {
	return &ProrationCalculator{}
}

// BusinessDays counts Monday to Friday in [start, end], both inclusive.
func BusinessDays(start, end time.Time) int {
	start, end = payroll.DateOf(start), payroll.DateOf(end)
	days := 0
	for cur := start; !cur.After(end); cur = cur.AddDate(0, 0, 1) {
		if wd := cur.Weekday(); wd != time.Saturday && wd != time.Sunday {
			days++
		}
	}
	return days
}

// Prorate subtracts unpaid leave from the base and adds bonuses. Only
// UNPAID_LEAVE reduces pay; days without a record are paid.
func (c *ProrationCalculator) Prorate(in ProrationInput) (Breakdown, error) {
	start, end := payroll.DateOf(in.StartDate), payroll.DateOf(in.EndDate)

	businessDays := BusinessDays(start, end)
	if businessDays == 0 {
		return Breakdown{}, payroll.ErrDegeneratePeriod
	}

	unpaidDays, err := countUnpaidDays(in.Attendance, start, end)
	if err != nil {
		return Breakdown{}, err
	}

	paidDays := businessDays - unpaidDays
	if paidDays < 0 {
		paidDays = 0
	}

	base := in.BaseAmount.Round(MoneyPlaces)
	dailyRate := in.BaseAmount.DivRound(decimal.NewFromInt(int64(businessDays)), MoneyPlaces)

	// the deduction uses the rounded rate, so a full month pays exactly the
	// base; it never exceeds the base
	deduction := dailyRate.Mul(decimal.NewFromInt(int64(unpaidDays))).Round(MoneyPlaces)
	if deduction.GreaterThan(base) {
		deduction = base
	}
	proratedBase := base.Sub(deduction)

	lines := make([]payroll.BonusLine, 0, len(in.Bonuses))
	bonusTotal := decimal.Zero
	for _, b := range in.Bonuses {
		lines = append(lines, payroll.BonusLine{Reason: b.Reason, Amount: b.Amount.Round(MoneyPlaces)})
		bonusTotal = bonusTotal.Add(b.Amount)
	}
	bonusTotal = bonusTotal.Round(MoneyPlaces)
	payroll.SortBonusLines(lines)

	return Breakdown{
		BusinessDays:    businessDays,
		UnpaidDays:      unpaidDays,
		PaidDays:        paidDays,
		DailyRate:       dailyRate,
		ProratedBase:    proratedBase,
		UnpaidDeduction: deduction,
		BonusTotal:      bonusTotal,
		Bonuses:         lines,
		NetPay:          proratedBase.Add(bonusTotal),
	}, nil
}

// countUnpaidDays counts UNPAID_LEAVE records dated inside [start, end].
// Two records on the same date are an integrity error whatever their status.
func countUnpaidDays(records []attendance.Record, start, end time.Time) (int, error) {
	seen := make(map[time.Time]bool, len(records))
	unpaid := 0
	for _, r := range records {
		day := payroll.DateOf(r.Date)
		if day.Before(start) || day.After(end) {
			continue
		}
		if seen[day] {
			return 0, fmt.Errorf("%w: %s", payroll.ErrAttendanceIntegrity, day.Format("2006-01-02"))
		}
		seen[day] = true
		if r.Status == attendance.StatusUnpaidLeave {
			unpaid++
		}
	}
	return unpaid, nil
}
