package report

import (
	"context"
	"io"
)

type ReportService interface {
	GeneratePayslipReport(ctx context.Context, req GeneratePayslipReportRequest) (ArtifactResponse, error)
	GeneratePayslipReports(ctx context.Context, req GeneratePayslipReportsRequest) (BatchReportResponse, error)
	ExportTeamSummary(ctx context.Context, req ExportTeamSummaryRequest) (TeamExportResponse, error)
	SendPayslip(ctx context.Context, req GeneratePayslipReportRequest) (SendResponse, error)
	SendTeamSummary(ctx context.Context, req ExportTeamSummaryRequest) (SendResponse, error)

	ListArtifacts(ctx context.Context, periodID string) ([]ArtifactResponse, error)
	GetArtifact(ctx context.Context, id string) (ArtifactResponse, error)
	OpenArtifact(ctx context.Context, id string) (Artifact, io.ReadCloser, error)
	ArchivePeriod(ctx context.Context, periodID string) (ArtifactResponse, error)
}
