package http

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/payroll-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type ReportHandler interface {
	GeneratePayslip(w http.ResponseWriter, r *http.Request)
	GeneratePayslips(w http.ResponseWriter, r *http.Request)
	ExportTeamSummary(w http.ResponseWriter, r *http.Request)
	SendPayslip(w http.ResponseWriter, r *http.Request)
	SendTeamSummary(w http.ResponseWriter, r *http.Request)

	ListArtifacts(w http.ResponseWriter, r *http.Request)
	GetArtifact(w http.ResponseWriter, r *http.Request)
	DownloadArtifact(w http.ResponseWriter, r *http.Request)
	ArchivePeriod(w http.ResponseWriter, r *http.Request)
}

type reportHandlerImpl struct {
	reportService report.ReportService
}

func NewReportHandler(reportService report.ReportService) ReportHandler {
	return &reportHandlerImpl{
		reportService: reportService,
	}
}

// ========== GENERATION ==========

// GeneratePayslip implements ReportHandler
// POST /periods/{periodID}/reports/payslips/{id}
func (h *reportHandlerImpl) GeneratePayslip(w http.ResponseWriter, r *http.Request) {
	req := report.GeneratePayslipReportRequest{
		EmployeeID: chi.URLParam(r, "id"),
		PeriodID:   chi.URLParam(r, "periodID"),
	}

	result, err := h.reportService.GeneratePayslipReport(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Payslip report generated successfully", result)
}

// GeneratePayslips implements ReportHandler
// POST /periods/{periodID}/reports/payslips
func (h *reportHandlerImpl) GeneratePayslips(w http.ResponseWriter, r *http.Request) {
	var req report.GeneratePayslipReportsRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "Invalid request format", nil)
			return
		}
	}
	req.PeriodID = chi.URLParam(r, "periodID")

	result, err := h.reportService.GeneratePayslipReports(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Payslip reports generated successfully", result)
}

// ExportTeamSummary implements ReportHandler
// POST /periods/{periodID}/reports/team-summary?format=xlsx
func (h *reportHandlerImpl) ExportTeamSummary(w http.ResponseWriter, r *http.Request) {
	var req report.ExportTeamSummaryRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "Invalid request format", nil)
			return
		}
	}
	req.PeriodID = chi.URLParam(r, "periodID")
	if f := r.URL.Query().Get("format"); f != "" {
		req.Format = report.Format(f)
	}

	result, err := h.reportService.ExportTeamSummary(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Team summary exported successfully", result)
}

// ========== DELIVERY ==========

// SendPayslip implements ReportHandler
func (h *reportHandlerImpl) SendPayslip(w http.ResponseWriter, r *http.Request) {
	req := report.GeneratePayslipReportRequest{
		EmployeeID: chi.URLParam(r, "id"),
		PeriodID:   chi.URLParam(r, "periodID"),
	}

	result, err := h.reportService.SendPayslip(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Accepted(w, "Payslip queued for delivery", result)
}

// SendTeamSummary implements ReportHandler
func (h *reportHandlerImpl) SendTeamSummary(w http.ResponseWriter, r *http.Request) {
	var req report.ExportTeamSummaryRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "Invalid request format", nil)
			return
		}
	}
	req.PeriodID = chi.URLParam(r, "periodID")
	if f := r.URL.Query().Get("format"); f != "" {
		req.Format = report.Format(f)
	}

	result, err := h.reportService.SendTeamSummary(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Accepted(w, "Team summary queued for delivery", result)
}

// ========== ARTIFACTS ==========

// ListArtifacts implements ReportHandler
func (h *reportHandlerImpl) ListArtifacts(w http.ResponseWriter, r *http.Request) {
	results, err := h.reportService.ListArtifacts(r.Context(), chi.URLParam(r, "periodID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// GetArtifact implements ReportHandler
func (h *reportHandlerImpl) GetArtifact(w http.ResponseWriter, r *http.Request) {
	result, err := h.reportService.GetArtifact(r.Context(), chi.URLParam(r, "artifactID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// DownloadArtifact implements ReportHandler
func (h *reportHandlerImpl) DownloadArtifact(w http.ResponseWriter, r *http.Request) {
	artifact, file, err := h.reportService.OpenArtifact(r.Context(), chi.URLParam(r, "artifactID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.FileName()))
	if artifact.SizeBytes > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(artifact.SizeBytes, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, file); err != nil {
		slog.Warn("artifact download interrupted", "artifact_id", artifact.ID, "error", err)
	}
}

// ArchivePeriod implements ReportHandler
func (h *reportHandlerImpl) ArchivePeriod(w http.ResponseWriter, r *http.Request) {
	result, err := h.reportService.ArchivePeriod(r.Context(), chi.URLParam(r, "periodID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Period archived successfully", result)
}
