package attendance

import "context"

type AttendanceService interface {
	CreateRecord(ctx context.Context, req CreateRecordRequest) (RecordResponse, error)
	ListRecords(ctx context.Context, filter ListRecordsFilter) ([]RecordResponse, error)
	MonthlySummary(ctx context.Context, employeeID string, year, month int) (SummaryResponse, error)
}
