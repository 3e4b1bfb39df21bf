package employee

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/access"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	accessservice "github.com/cmlabs-hris/payroll-backend-go/internal/service/access"
)

type EmployeeServiceImpl struct {
	employeeRepo employee.EmployeeRepository
	resolver     *accessservice.Resolver
}

func NewEmployeeService(employeeRepo employee.EmployeeRepository, resolver *accessservice.Resolver) employee.EmployeeService {
	return &EmployeeServiceImpl{
		employeeRepo: employeeRepo,
		resolver:     resolver,
	}
}

func toResponse(e employee.Employee) employee.EmployeeResponse {
	return employee.NewEmployeeResponse(e, string(access.RoleOf(e)))
}

// ListEmployees implements employee.EmployeeService.
func (s *EmployeeServiceImpl) ListEmployees(ctx context.Context) ([]employee.EmployeeResponse, error) {
	req, err := s.resolver.Requester(ctx)
	if err != nil {
		return nil, err
	}

	visible, err := s.resolver.Visible(ctx, req, false)
	if err != nil {
		return nil, err
	}

	responses := make([]employee.EmployeeResponse, 0, len(visible))
	for _, e := range visible {
		responses = append(responses, toResponse(e))
	}
	return responses, nil
}

// GetEmployee implements employee.EmployeeService.
func (s *EmployeeServiceImpl) GetEmployee(ctx context.Context, id string) (employee.EmployeeResponse, error) {
	req, err := s.resolver.Requester(ctx)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	e, err := s.resolver.Lookup(ctx, req, id)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	return toResponse(e), nil
}

// CreateEmployee implements employee.EmployeeService.
func (s *EmployeeServiceImpl) CreateEmployee(ctx context.Context, reqBody employee.CreateEmployeeRequest) (employee.EmployeeResponse, error) {
	if err := reqBody.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}

	req, err := s.resolver.Require(ctx, access.CapEmployeeManage)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	// Non-top managers always own the employees they create
	managerID := req.ID()
	if req.Role == access.RoleTopManager && reqBody.ManagerID != nil {
		manager, err := s.employeeRepo.GetByID(ctx, *reqBody.ManagerID)
		if err != nil {
			if errors.Is(err, employee.ErrEmployeeNotFound) {
				return employee.EmployeeResponse{}, employee.ErrInvalidManager
			}
			return employee.EmployeeResponse{}, err
		}
		if !manager.IsManager || !manager.IsActive {
			return employee.EmployeeResponse{}, employee.ErrInvalidManager
		}
		managerID = manager.ID
	}

	created, err := s.employeeRepo.Create(ctx, employee.Employee{
		FirstName:  strings.TrimSpace(reqBody.FirstName),
		LastName:   strings.TrimSpace(reqBody.LastName),
		Email:      reqBody.Email,
		NationalID: reqBody.NationalID,
		IsManager:  reqBody.IsManager,
		ManagerID:  &managerID,
		IsActive:   true,
	})
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	slog.Info("Employee created", "employee_id", created.ID, "manager_id", managerID, "created_by", req.ID())
	return toResponse(created), nil
}

// UpdateEmployee implements employee.EmployeeService.
func (s *EmployeeServiceImpl) UpdateEmployee(ctx context.Context, reqBody employee.UpdateEmployeeRequest) (employee.EmployeeResponse, error) {
	if err := reqBody.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}

	req, err := s.resolver.Requester(ctx)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	target, err := s.resolver.Lookup(ctx, req, reqBody.ID)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	selfProfile := target.ID == req.ID() && reqBody.OnlyProfileFields()
	if !selfProfile && !req.Can(access.CapEmployeeManage) {
		return employee.EmployeeResponse{}, fmt.Errorf("%w: %s", access.ErrInsufficientCapability, access.CapEmployeeManage)
	}

	updated := target
	if reqBody.FirstName != nil {
		updated.FirstName = strings.TrimSpace(*reqBody.FirstName)
	}
	if reqBody.LastName != nil {
		updated.LastName = strings.TrimSpace(*reqBody.LastName)
	}
	if reqBody.Email != nil {
		updated.Email = *reqBody.Email
	}
	if reqBody.NationalID != nil {
		updated.NationalID = *reqBody.NationalID
	}
	if reqBody.IsActive != nil {
		if !*reqBody.IsActive && target.ID == req.ID() {
			return employee.EmployeeResponse{}, employee.ErrCannotDeactivateSelf
		}
		updated.IsActive = *reqBody.IsActive
	}
	if reqBody.IsManager != nil {
		if !*reqBody.IsManager && target.IsManager {
			reports, err := s.employeeRepo.ListDirectReports(ctx, target.ID, false)
			if err != nil {
				return employee.EmployeeResponse{}, fmt.Errorf("failed to list direct reports: %w", err)
			}
			if len(reports) > 0 {
				return employee.EmployeeResponse{}, employee.ErrManagerHasReports
			}
		}
		updated.IsManager = *reqBody.IsManager
	}

	if reqBody.ManagerID.Set {
		if req.Role == access.RoleTopManager {
			if err := s.checkManagerChange(ctx, target.ID, reqBody.ManagerID.Value); err != nil {
				return employee.EmployeeResponse{}, err
			}
			updated.ManagerID = reqBody.ManagerID.Value
		} else {
			slog.Debug("Ignoring manager change from non-top manager", "employee_id", target.ID, "requester_id", req.ID())
		}
	}

	saved, err := s.employeeRepo.Update(ctx, updated)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	return toResponse(saved), nil
}

// checkManagerChange validates assigning newManagerID to employeeID: the
// manager must be an active manager and the chain above it must not reach
// employeeID.
func (s *EmployeeServiceImpl) checkManagerChange(ctx context.Context, employeeID string, newManagerID *string) error {
	if newManagerID == nil {
		return nil
	}
	if *newManagerID == employeeID {
		return employee.ErrSelfManaged
	}

	manager, err := s.employeeRepo.GetByID(ctx, *newManagerID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return employee.ErrInvalidManager
		}
		return err
	}
	if !manager.IsManager || !manager.IsActive {
		return employee.ErrInvalidManager
	}

	seen := map[string]bool{}
	current := manager
	for current.ManagerID != nil {
		next := *current.ManagerID
		if next == employeeID {
			return employee.ErrManagerCycle
		}
		if seen[next] {
			// pre-existing loop that does not involve employeeID
			return employee.ErrManagerCycle
		}
		seen[next] = true

		current, err = s.employeeRepo.GetByID(ctx, next)
		if err != nil {
			return fmt.Errorf("failed to walk manager chain: %w", err)
		}
	}
	return nil
}
