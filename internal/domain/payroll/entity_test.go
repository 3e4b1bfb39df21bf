package payroll

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewPeriod(t *testing.T) {
	cases := []struct {
		year, month int
		end         time.Time
	}{
		{2024, 1, date(2024, time.January, 31)},
		{2024, 2, date(2024, time.February, 29)},
		{2023, 2, date(2023, time.February, 28)},
		{2024, 12, date(2024, time.December, 31)},
	}
	for _, c := range cases {
		p, err := NewPeriod(c.year, c.month)
		require.NoError(t, err)
		assert.Equal(t, date(c.year, time.Month(c.month), 1), p.StartDate)
		assert.Equal(t, c.end, p.EndDate)
	}

	p, _ := NewPeriod(2024, 3)
	assert.Equal(t, "2024-03", p.Label())

	for _, bad := range [][2]int{{1999, 1}, {2101, 1}, {2024, 0}, {2024, 13}} {
		_, err := NewPeriod(bad[0], bad[1])
		assert.ErrorIs(t, err, ErrInvalidPeriod)
	}
}

func TestPeriod_Contains(t *testing.T) {
	p, err := NewPeriod(2024, 1)
	require.NoError(t, err)

	assert.True(t, p.Contains(date(2024, time.January, 1)))
	assert.True(t, p.Contains(time.Date(2024, time.January, 31, 23, 59, 0, 0, time.UTC)))
	assert.False(t, p.Contains(date(2024, time.February, 1)))
	assert.False(t, p.Contains(date(2023, time.December, 31)))
}

func TestActiveAsOf(t *testing.T) {
	created := date(2023, time.June, 1)
	history := []Compensation{
		{ID: "old", BaseAmount: decimal.NewFromInt(2000), EffectiveFrom: date(2023, time.January, 1), CreatedAt: created},
		{ID: "raise", BaseAmount: decimal.NewFromInt(2300), EffectiveFrom: date(2024, time.January, 1), CreatedAt: created},
		{ID: "correction", BaseAmount: decimal.NewFromInt(2350), EffectiveFrom: date(2024, time.January, 1), CreatedAt: created.Add(time.Hour)},
		{ID: "future", BaseAmount: decimal.NewFromInt(3000), EffectiveFrom: date(2024, time.February, 15), CreatedAt: created},
	}

	c, ok := ActiveAsOf(history, date(2024, time.January, 1))
	require.True(t, ok)
	assert.Equal(t, "correction", c.ID)

	c, ok = ActiveAsOf(history, date(2023, time.December, 1))
	require.True(t, ok)
	assert.Equal(t, "old", c.ID)

	_, ok = ActiveAsOf(history, date(2022, time.December, 31))
	assert.False(t, ok)
}

func TestPayslip_SameFigures(t *testing.T) {
	base := Payslip{
		EmployeeID:   "e",
		PeriodID:     "p",
		Currency:     "RON",
		BaseAmount:   decimal.RequireFromString("2300.00"),
		BusinessDays: 23,
		PaidDays:     23,
		DailyRate:    decimal.RequireFromString("100"),
		NetPay:       decimal.RequireFromString("2300"),
		Bonuses:      []BonusLine{{Reason: "q1", Amount: decimal.NewFromInt(150)}},
		ComputedAt:   time.Now(),
	}
	same := base
	same.ID = "other"
	same.ComputedAt = base.ComputedAt.Add(time.Hour)
	same.BaseAmount = decimal.RequireFromString("2300")
	assert.True(t, base.SameFigures(same))

	changed := base
	changed.Bonuses = []BonusLine{{Reason: "q1", Amount: decimal.NewFromInt(200)}}
	assert.False(t, base.SameFigures(changed))

	changed = base
	changed.UnpaidDays = 1
	assert.False(t, base.SameFigures(changed))
}
