package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type PayrollHandler interface {
	// Periods
	CreatePeriod(w http.ResponseWriter, r *http.Request)
	GetPeriod(w http.ResponseWriter, r *http.Request)
	ListPeriods(w http.ResponseWriter, r *http.Request)
	LockPeriod(w http.ResponseWriter, r *http.Request)
	UnlockPeriod(w http.ResponseWriter, r *http.Request)

	// Compensation ledger
	CreateCompensation(w http.ResponseWriter, r *http.Request)
	ListCompensations(w http.ResponseWriter, r *http.Request)
	CreateBonus(w http.ResponseWriter, r *http.Request)
	ListBonuses(w http.ResponseWriter, r *http.Request)

	// Payslips
	GeneratePayslip(w http.ResponseWriter, r *http.Request)
	GetPayslip(w http.ResponseWriter, r *http.Request)
	ListPayslips(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
}

func NewPayrollHandler(payrollService payroll.PayrollService) PayrollHandler {
	return &payrollHandlerImpl{
		payrollService: payrollService,
	}
}

// ========== PERIODS ==========

// CreatePeriod implements PayrollHandler
func (h *payrollHandlerImpl) CreatePeriod(w http.ResponseWriter, r *http.Request) {
	var req payroll.CreatePeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.payrollService.CreatePeriod(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Payroll period created successfully", result)
}

// GetPeriod implements PayrollHandler
func (h *payrollHandlerImpl) GetPeriod(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.GetPeriod(r.Context(), chi.URLParam(r, "periodID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ListPeriods implements PayrollHandler
func (h *payrollHandlerImpl) ListPeriods(w http.ResponseWriter, r *http.Request) {
	results, err := h.payrollService.ListPeriods(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// LockPeriod implements PayrollHandler
func (h *payrollHandlerImpl) LockPeriod(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.LockPeriod(r.Context(), chi.URLParam(r, "periodID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll period locked", result)
}

// UnlockPeriod implements PayrollHandler
func (h *payrollHandlerImpl) UnlockPeriod(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.UnlockPeriod(r.Context(), chi.URLParam(r, "periodID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll period unlocked", result)
}

// ========== COMPENSATION LEDGER ==========

// CreateCompensation implements PayrollHandler
func (h *payrollHandlerImpl) CreateCompensation(w http.ResponseWriter, r *http.Request) {
	var req payroll.CreateCompensationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.EmployeeID = chi.URLParam(r, "id")

	result, err := h.payrollService.CreateCompensation(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Compensation recorded successfully", result)
}

// ListCompensations implements PayrollHandler
func (h *payrollHandlerImpl) ListCompensations(w http.ResponseWriter, r *http.Request) {
	results, err := h.payrollService.ListCompensations(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// CreateBonus implements PayrollHandler
func (h *payrollHandlerImpl) CreateBonus(w http.ResponseWriter, r *http.Request) {
	var req payroll.CreateBonusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.EmployeeID = chi.URLParam(r, "id")

	result, err := h.payrollService.CreateBonus(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Bonus recorded successfully", result)
}

// ListBonuses implements PayrollHandler
// GET /employees/{id}/bonuses?period_id=...
func (h *payrollHandlerImpl) ListBonuses(w http.ResponseWriter, r *http.Request) {
	results, err := h.payrollService.ListBonuses(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("period_id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// ========== PAYSLIPS ==========

// GeneratePayslip implements PayrollHandler
// POST /periods/{periodID}/payslips/{id}
func (h *payrollHandlerImpl) GeneratePayslip(w http.ResponseWriter, r *http.Request) {
	req := payroll.GeneratePayslipRequest{
		EmployeeID: chi.URLParam(r, "id"),
		PeriodID:   chi.URLParam(r, "periodID"),
	}

	result, err := h.payrollService.GeneratePayslip(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetPayslip implements PayrollHandler
func (h *payrollHandlerImpl) GetPayslip(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.GetPayslip(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "periodID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ListPayslips implements PayrollHandler
func (h *payrollHandlerImpl) ListPayslips(w http.ResponseWriter, r *http.Request) {
	results, err := h.payrollService.ListPayslips(r.Context(), chi.URLParam(r, "periodID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}
