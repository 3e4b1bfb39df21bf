package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/cmlabs-hris/payroll-backend-go/internal/config"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/access"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/delivery"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/storage"
	accessservice "github.com/cmlabs-hris/payroll-backend-go/internal/service/access"
	deliveryservice "github.com/cmlabs-hris/payroll-backend-go/internal/service/delivery"
	payrollservice "github.com/cmlabs-hris/payroll-backend-go/internal/service/payroll"
	"golang.org/x/sync/errgroup"
)

type ReportServiceImpl struct {
	periodRepo     payroll.PeriodRepository
	payslipRepo    payroll.PayslipRepository
	attendanceRepo attendance.AttendanceRepository
	artifactRepo   report.ArtifactRepository
	builder        *payrollservice.PayslipBuilder
	pdf            *PDFRenderer
	fileStorage    storage.FileStorage
	dispatcher     *deliveryservice.Dispatcher
	archiver       *Archiver
	resolver       *accessservice.Resolver
	concurrency    int
}

func NewReportService(
	cfg config.ReportConfig,
	periodRepo payroll.PeriodRepository,
	payslipRepo payroll.PayslipRepository,
	attendanceRepo attendance.AttendanceRepository,
	artifactRepo report.ArtifactRepository,
	builder *payrollservice.PayslipBuilder,
	fileStorage storage.FileStorage,
	dispatcher *deliveryservice.Dispatcher,
	archiver *Archiver,
	resolver *accessservice.Resolver,
) report.ReportService {
	concurrency := cfg.ExportConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &ReportServiceImpl{
		periodRepo:     periodRepo,
		payslipRepo:    payslipRepo,
		attendanceRepo: attendanceRepo,
		artifactRepo:   artifactRepo,
		builder:        builder,
		pdf:            NewPDFRenderer(cfg.PDFOwnerPassword),
		fileStorage:    fileStorage,
		dispatcher:     dispatcher,
		archiver:       archiver,
		resolver:       resolver,
		concurrency:    concurrency,
	}
}

// payslipFor returns the figures a report is rendered from. A locked period
// only ever serves the stored payslip; an open one is rebuilt when the
// requester may trigger computations.
func (s *ReportServiceImpl) payslipFor(ctx context.Context, req access.Requester, period payroll.Period, employeeID string) (payroll.Payslip, error) {
	if period.Locked || !req.Can(access.CapPayslipGenerate) {
		return s.payslipRepo.Get(ctx, employeeID, period.ID)
	}
	return s.builder.Build(ctx, employeeID, period.ID)
}

// store uploads content and records it as the active artifact for its
// (kind, period, subject). A previous file under another name is removed.
// A delivered artifact is kept exactly as it was mailed.
func (s *ReportServiceImpl) store(ctx context.Context, a report.Artifact, content []byte) (report.Artifact, error) {
	previous, err := s.artifactRepo.FindActive(ctx, a.Kind, a.PeriodID, a.SubjectID)
	if err != nil && !errors.Is(err, report.ErrArtifactNotFound) {
		return report.Artifact{}, fmt.Errorf("failed to find active artifact: %w", err)
	}
	if previous.DeliveryState == report.DeliverySent {
		slog.Debug("Keeping delivered artifact", "artifact_id", previous.ID)
		return previous, nil
	}

	key, err := s.fileStorage.Upload(ctx, bytes.NewReader(content), a.Path, a.ContentType)
	if err != nil {
		return report.Artifact{}, fmt.Errorf("failed to store report file: %w", err)
	}
	a.Path = key
	a.SizeBytes = int64(len(content))
	a.DeliveryState = report.DeliveryPending

	saved, err := s.artifactRepo.Upsert(ctx, a)
	if err != nil {
		return report.Artifact{}, fmt.Errorf("failed to save artifact: %w", err)
	}

	if previous.ID != "" && previous.Path != saved.Path {
		if err := s.fileStorage.Delete(ctx, previous.Path); err != nil && !errors.Is(err, storage.ErrFileNotFound) {
			slog.Warn("Failed to remove replaced report file", "path", previous.Path, "error", err)
		}
	}
	return saved, nil
}

// ========== SINGLE-EMPLOYEE REPORT ==========

// GeneratePayslipReport implements report.ReportService.
func (s *ReportServiceImpl) GeneratePayslipReport(ctx context.Context, reqBody report.GeneratePayslipReportRequest) (report.ArtifactResponse, error) {
	artifact, _, err := s.payslipReport(ctx, reqBody)
	if err != nil {
		return report.ArtifactResponse{}, err
	}
	return report.NewArtifactResponse(artifact), nil
}

func (s *ReportServiceImpl) payslipReport(ctx context.Context, reqBody report.GeneratePayslipReportRequest) (report.Artifact, employee.Employee, error) {
	if err := reqBody.Validate(); err != nil {
		return report.Artifact{}, employee.Employee{}, err
	}
	req, err := s.resolver.Requester(ctx)
	if err != nil {
		return report.Artifact{}, employee.Employee{}, err
	}
	target, err := s.resolver.Lookup(ctx, req, reqBody.EmployeeID)
	if err != nil {
		return report.Artifact{}, employee.Employee{}, err
	}
	period, err := s.periodRepo.GetByID(ctx, reqBody.PeriodID)
	if err != nil {
		return report.Artifact{}, employee.Employee{}, err
	}

	artifact, err := s.renderPayslip(ctx, req, period, target)
	if err != nil {
		return report.Artifact{}, employee.Employee{}, err
	}
	return artifact, target, nil
}

// renderPayslip renders and stores the payslip report of one in-scope employee.
func (s *ReportServiceImpl) renderPayslip(ctx context.Context, req access.Requester, period payroll.Period, target employee.Employee) (report.Artifact, error) {
	slip, err := s.payslipFor(ctx, req, period, target.ID)
	if err != nil {
		return report.Artifact{}, err
	}
	records, err := s.attendanceRepo.ListByEmployee(ctx, target.ID, period.StartDate, period.EndDate)
	if err != nil {
		return report.Artifact{}, fmt.Errorf("failed to list attendance: %w", err)
	}

	doc, err := NewPayslipDocument(target, period, slip, attendance.Summarize(records))
	if err != nil {
		return report.Artifact{}, err
	}
	content, err := s.pdf.Render(doc)
	if err != nil {
		return report.Artifact{}, err
	}

	label := period.Label()
	fileName := report.FileName(report.KindPayslip, label, target.ID, report.FormatPDF)
	artifact, err := s.store(ctx, report.Artifact{
		Kind:        report.KindPayslip,
		Format:      report.FormatPDF,
		PeriodID:    period.ID,
		PeriodLabel: label,
		SubjectID:   target.ID,
		Path:        report.StoragePath(label, report.KindPayslip, report.SubjectOf(report.KindPayslip, target.ID), fileName),
		ContentType: report.FormatPDF.ContentType(),
		PayslipIDs:  []string{slip.ID},
	}, content)
	if err != nil {
		return report.Artifact{}, err
	}

	slog.Info("Payslip report generated", "employee_id", target.ID, "period", label, "artifact_id", artifact.ID)
	return artifact, nil
}

// ========== BATCH REPORTS ==========

// GeneratePayslipReports implements report.ReportService. Requested ids
// outside the requester's scope are dropped; employees whose report fails are
// listed under Failures and the batch goes on.
func (s *ReportServiceImpl) GeneratePayslipReports(ctx context.Context, reqBody report.GeneratePayslipReportsRequest) (report.BatchReportResponse, error) {
	if err := reqBody.Validate(); err != nil {
		return report.BatchReportResponse{}, err
	}
	req, err := s.resolver.Requester(ctx)
	if err != nil {
		return report.BatchReportResponse{}, err
	}
	period, err := s.periodRepo.GetByID(ctx, reqBody.PeriodID)
	if err != nil {
		return report.BatchReportResponse{}, err
	}
	targets, err := s.selectMembers(ctx, req, reqBody.EmployeeIDs)
	if err != nil {
		return report.BatchReportResponse{}, err
	}

	type batchResult struct {
		artifact report.Artifact
		failure  *report.ExportFailure
	}
	results := make([]batchResult, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, target := range targets {
		g.Go(func() error {
			artifact, err := s.renderPayslip(gctx, req, period, target)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				slog.Warn("Payslip report failed", "employee_id", target.ID, "period", period.Label(), "error", err)
				results[i].failure = &report.ExportFailure{EmployeeID: target.ID, Name: target.FullName(), Error: err.Error()}
				return nil
			}
			results[i].artifact = artifact
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report.BatchReportResponse{}, err
	}

	resp := report.BatchReportResponse{
		Artifacts: make([]report.ArtifactResponse, 0, len(targets)),
		Failures:  []report.ExportFailure{},
	}
	for _, r := range results {
		if r.failure != nil {
			resp.Failures = append(resp.Failures, *r.failure)
			continue
		}
		resp.Artifacts = append(resp.Artifacts, report.NewArtifactResponse(r.artifact))
	}

	slog.Info("Payslip reports generated",
		"requester_id", req.ID(),
		"period", period.Label(),
		"artifacts", len(resp.Artifacts),
		"failures", len(resp.Failures),
	)
	return resp, nil
}

// selectMembers returns the active employees in scope, narrowed to ids when
// any are given. Ids outside the scope are dropped without an error.
func (s *ReportServiceImpl) selectMembers(ctx context.Context, req access.Requester, ids []string) ([]employee.Employee, error) {
	members, err := s.resolver.Visible(ctx, req, true)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return members, nil
	}

	allowed, err := s.resolver.Resolve(ctx, req, ids)
	if err != nil {
		return nil, err
	}
	keep := make(map[string]bool, len(allowed))
	for _, id := range allowed {
		keep[id] = true
	}

	selected := make([]employee.Employee, 0, len(allowed))
	for _, m := range members {
		if keep[m.ID] {
			selected = append(selected, m)
		}
	}
	return selected, nil
}

// ========== TEAM SUMMARY ==========

// ExportTeamSummary implements report.ReportService. Employees whose payslip
// cannot be produced are listed under Failures; the export goes on.
func (s *ReportServiceImpl) ExportTeamSummary(ctx context.Context, reqBody report.ExportTeamSummaryRequest) (report.TeamExportResponse, error) {
	artifact, rows, failures, _, err := s.teamSummary(ctx, reqBody)
	if err != nil {
		return report.TeamExportResponse{}, err
	}
	return report.TeamExportResponse{
		Artifact: report.NewArtifactResponse(artifact),
		Rows:     rows,
		Failures: failures,
	}, nil
}

type teamResult struct {
	row     report.TeamSummaryRow
	slipID  string
	failure *report.ExportFailure
}

func (s *ReportServiceImpl) teamSummary(ctx context.Context, reqBody report.ExportTeamSummaryRequest) (report.Artifact, []report.TeamSummaryRow, []report.ExportFailure, access.Requester, error) {
	if err := reqBody.Validate(); err != nil {
		return report.Artifact{}, nil, nil, access.Requester{}, err
	}
	req, err := s.resolver.Require(ctx, access.CapReportExport)
	if err != nil {
		return report.Artifact{}, nil, nil, access.Requester{}, err
	}
	period, err := s.periodRepo.GetByID(ctx, reqBody.PeriodID)
	if err != nil {
		return report.Artifact{}, nil, nil, access.Requester{}, err
	}
	members, err := s.selectMembers(ctx, req, reqBody.EmployeeIDs)
	if err != nil {
		return report.Artifact{}, nil, nil, access.Requester{}, err
	}

	results := make([]teamResult, len(members))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, member := range members {
		g.Go(func() error {
			row, slipID, err := s.teamRow(gctx, req, period, member)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				slog.Warn("Team summary row failed", "employee_id", member.ID, "period", period.Label(), "error", err)
				results[i].failure = &report.ExportFailure{EmployeeID: member.ID, Name: member.FullName(), Error: err.Error()}
				return nil
			}
			results[i] = teamResult{row: row, slipID: slipID}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report.Artifact{}, nil, nil, access.Requester{}, err
	}

	rows := make([]report.TeamSummaryRow, 0, len(members))
	slipIDs := make([]string, 0, len(members))
	failures := []report.ExportFailure{}
	for _, r := range results {
		if r.failure != nil {
			failures = append(failures, *r.failure)
			continue
		}
		rows = append(rows, r.row)
		slipIDs = append(slipIDs, r.slipID)
	}

	content, err := RenderTeamSummary(reqBody.Format, rows)
	if err != nil {
		return report.Artifact{}, nil, nil, access.Requester{}, err
	}

	label := period.Label()
	fileName := report.FileName(report.KindTeamSummary, label, req.ID(), reqBody.Format)
	artifact, err := s.store(ctx, report.Artifact{
		Kind:        report.KindTeamSummary,
		Format:      reqBody.Format,
		PeriodID:    period.ID,
		PeriodLabel: label,
		SubjectID:   req.ID(),
		Path:        report.StoragePath(label, report.KindTeamSummary, report.SubjectOf(report.KindTeamSummary, req.ID()), fileName),
		ContentType: reqBody.Format.ContentType(),
		PayslipIDs:  slipIDs,
	}, content)
	if err != nil {
		return report.Artifact{}, nil, nil, access.Requester{}, err
	}

	slog.Info("Team summary exported",
		"requester_id", req.ID(),
		"period", label,
		"format", reqBody.Format,
		"rows", len(rows),
		"failures", len(failures),
	)
	return artifact, rows, failures, req, nil
}

func (s *ReportServiceImpl) teamRow(ctx context.Context, req access.Requester, period payroll.Period, member employee.Employee) (report.TeamSummaryRow, string, error) {
	slip, err := s.payslipFor(ctx, req, period, member.ID)
	if err != nil {
		return report.TeamSummaryRow{}, "", err
	}
	row, err := NewTeamSummaryRow(member, period, slip)
	if err != nil {
		return report.TeamSummaryRow{}, "", err
	}
	return row, slip.ID, nil
}

// ========== DELIVERY ==========

// SendPayslip implements report.ReportService. The payslip report is
// rendered synchronously and mailed to the employee in the background.
func (s *ReportServiceImpl) SendPayslip(ctx context.Context, reqBody report.GeneratePayslipReportRequest) (report.SendResponse, error) {
	req, err := s.resolver.Require(ctx, access.CapDeliveryManage)
	if err != nil {
		return report.SendResponse{}, err
	}
	artifact, target, err := s.payslipReport(ctx, reqBody)
	if err != nil {
		return report.SendResponse{}, err
	}
	if target.Email == "" {
		return report.SendResponse{}, report.ErrNoRecipient
	}

	ticket, err := s.dispatcher.Dispatch(ctx, deliveryservice.Request{
		ArtifactID:    artifact.ID,
		PeriodID:      artifact.PeriodID,
		Recipient:     target.Email,
		RecipientName: target.FullName(),
		RequestedBy:   req.ID(),
	})
	if err != nil {
		return report.SendResponse{}, err
	}
	return s.sendResponse(ctx, artifact, ticket, nil), nil
}

// SendTeamSummary implements report.ReportService. The export goes to the
// requester's own address.
func (s *ReportServiceImpl) SendTeamSummary(ctx context.Context, reqBody report.ExportTeamSummaryRequest) (report.SendResponse, error) {
	if _, err := s.resolver.Require(ctx, access.CapDeliveryManage); err != nil {
		return report.SendResponse{}, err
	}
	artifact, _, failures, req, err := s.teamSummary(ctx, reqBody)
	if err != nil {
		return report.SendResponse{}, err
	}
	if req.Employee.Email == "" {
		return report.SendResponse{}, report.ErrNoRecipient
	}

	ticket, err := s.dispatcher.Dispatch(ctx, deliveryservice.Request{
		ArtifactID:    artifact.ID,
		PeriodID:      artifact.PeriodID,
		Recipient:     req.Employee.Email,
		RecipientName: req.Employee.FullName(),
		RequestedBy:   req.ID(),
	})
	if err != nil {
		return report.SendResponse{}, err
	}
	return s.sendResponse(ctx, artifact, ticket, failures), nil
}

// sendResponse re-reads the artifact so its delivery state matches the ticket.
func (s *ReportServiceImpl) sendResponse(ctx context.Context, artifact report.Artifact, ticket delivery.Ticket, failures []report.ExportFailure) report.SendResponse {
	if fresh, err := s.artifactRepo.GetByID(ctx, artifact.ID); err == nil {
		artifact = fresh
	}
	return report.SendResponse{
		Artifact: report.NewArtifactResponse(artifact),
		Ticket:   delivery.NewTicketResponse(ticket),
		Failures: failures,
	}
}

// ========== ARTIFACTS ==========

// canSee applies the requester scope to an artifact: payslips follow the
// employee scope, team summaries belong to whoever exported them, archive
// bundles are visible to view-all holders only.
func (s *ReportServiceImpl) canSee(ctx context.Context, req access.Requester, a report.Artifact) (bool, error) {
	if req.Can(access.CapViewAll) {
		return true, nil
	}
	switch a.Kind {
	case report.KindPayslip:
		if _, err := s.resolver.Lookup(ctx, req, a.SubjectID); err != nil {
			if errors.Is(err, employee.ErrEmployeeNotFound) {
				return false, nil
			}
			return false, err
		}
		return true, nil
	case report.KindTeamSummary:
		return a.SubjectID == req.ID(), nil
	}
	return false, nil
}

func (s *ReportServiceImpl) lookupArtifact(ctx context.Context, id string) (report.Artifact, error) {
	req, err := s.resolver.Requester(ctx)
	if err != nil {
		return report.Artifact{}, err
	}
	a, err := s.artifactRepo.GetByID(ctx, id)
	if err != nil {
		return report.Artifact{}, err
	}
	ok, err := s.canSee(ctx, req, a)
	if err != nil {
		return report.Artifact{}, err
	}
	if !ok {
		return report.Artifact{}, report.ErrArtifactNotFound
	}
	return a, nil
}

// ListArtifacts implements report.ReportService.
func (s *ReportServiceImpl) ListArtifacts(ctx context.Context, periodID string) ([]report.ArtifactResponse, error) {
	req, err := s.resolver.Requester(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.periodRepo.GetByID(ctx, periodID); err != nil {
		return nil, err
	}
	artifacts, err := s.artifactRepo.ListByPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}

	responses := make([]report.ArtifactResponse, 0, len(artifacts))
	for _, a := range artifacts {
		ok, err := s.canSee(ctx, req, a)
		if err != nil {
			return nil, err
		}
		if ok {
			responses = append(responses, report.NewArtifactResponse(a))
		}
	}
	return responses, nil
}

// GetArtifact implements report.ReportService.
func (s *ReportServiceImpl) GetArtifact(ctx context.Context, id string) (report.ArtifactResponse, error) {
	a, err := s.lookupArtifact(ctx, id)
	if err != nil {
		return report.ArtifactResponse{}, err
	}
	return report.NewArtifactResponse(a), nil
}

// OpenArtifact implements report.ReportService. The caller closes the reader.
func (s *ReportServiceImpl) OpenArtifact(ctx context.Context, id string) (report.Artifact, io.ReadCloser, error) {
	a, err := s.lookupArtifact(ctx, id)
	if err != nil {
		return report.Artifact{}, nil, err
	}
	rc, err := s.fileStorage.Download(ctx, a.Path)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			return report.Artifact{}, nil, fmt.Errorf("%w: file missing", report.ErrArtifactNotFound)
		}
		return report.Artifact{}, nil, err
	}
	return a, rc, nil
}

// ArchivePeriod implements report.ReportService.
func (s *ReportServiceImpl) ArchivePeriod(ctx context.Context, periodID string) (report.ArtifactResponse, error) {
	req, err := s.resolver.Require(ctx, access.CapPeriodManage)
	if err != nil {
		return report.ArtifactResponse{}, err
	}
	period, err := s.periodRepo.GetByID(ctx, periodID)
	if err != nil {
		return report.ArtifactResponse{}, err
	}
	bundle, err := s.archiver.Archive(ctx, period)
	if err != nil {
		return report.ArtifactResponse{}, err
	}
	slog.Info("Period archived on request", "period", period.Label(), "by", req.ID(), "artifact_id", bundle.ID)
	return report.NewArtifactResponse(bundle), nil
}
