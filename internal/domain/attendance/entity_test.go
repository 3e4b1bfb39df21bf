package attendance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	records := []Record{
		{Status: StatusPresent, HoursWorked: decimal.RequireFromString("8")},
		{Status: StatusPresent, HoursWorked: decimal.RequireFromString("7.5")},
		{Status: StatusUnpaidLeave, HoursWorked: decimal.Zero},
		{Status: StatusPaidLeave, HoursWorked: decimal.Zero},
		{Status: StatusOther, HoursWorked: decimal.Zero},
	}

	s := Summarize(records)
	assert.Equal(t, 2, s.Present)
	assert.Equal(t, 1, s.UnpaidLeave)
	assert.Equal(t, 1, s.PaidLeave)
	assert.Equal(t, 1, s.Other)
	assert.True(t, decimal.RequireFromString("15.5").Equal(s.HoursWorked))

	empty := Summarize(nil)
	assert.True(t, empty.HoursWorked.IsZero())
}

func TestCreateRecordRequest_Validate(t *testing.T) {
	eight := decimal.NewFromInt(8)
	thirteen := decimal.NewFromInt(13)
	id := "123e4567-e89b-12d3-a456-426614174000"

	ok := CreateRecordRequest{EmployeeID: id, Date: "2024-01-15", Status: "present", HoursWorked: &eight}
	assert.NoError(t, ok.Validate())
	assert.Equal(t, StatusPresent, ok.Status)
	assert.Equal(t, 15, ok.RecordDate().Day())

	leave := CreateRecordRequest{EmployeeID: id, Date: "2024-01-16", Status: StatusUnpaidLeave}
	assert.NoError(t, leave.Validate())
	assert.True(t, leave.Hours().IsZero())

	cases := map[string]CreateRecordRequest{
		"present without hours": {EmployeeID: id, Date: "2024-01-15", Status: StatusPresent},
		"too many hours":        {EmployeeID: id, Date: "2024-01-15", Status: StatusPresent, HoursWorked: &thirteen},
		"hours on leave":        {EmployeeID: id, Date: "2024-01-15", Status: StatusPaidLeave, HoursWorked: &eight},
		"unknown status":        {EmployeeID: id, Date: "2024-01-15", Status: "SICK"},
		"bad date":              {EmployeeID: id, Date: "15/01/2024", Status: StatusOther},
	}
	for name, req := range cases {
		assert.Error(t, req.Validate(), name)
	}
}
