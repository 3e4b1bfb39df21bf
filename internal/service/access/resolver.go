package access

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/access"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/jwt"
)

// Resolver turns verified claims into a Requester and answers scope queries.
// Every call reads the directory, so role and hierarchy changes apply on the
// next request.
type Resolver struct {
	employees employee.EmployeeRepository
}

func NewResolver(employees employee.EmployeeRepository) *Resolver {
	return &Resolver{employees: employees}
}

// Requester loads the acting employee named by the employee_id claim.
func (r *Resolver) Requester(ctx context.Context) (access.Requester, error) {
	employeeID, err := jwt.EmployeeIDFromContext(ctx)
	if err != nil {
		return access.Requester{}, fmt.Errorf("%w: %v", access.ErrUnauthenticated, err)
	}
	return r.RequesterByID(ctx, employeeID)
}

// RequesterByID loads the acting employee for an id taken from an already
// verified token other than the request's access token.
func (r *Resolver) RequesterByID(ctx context.Context, employeeID string) (access.Requester, error) {
	e, err := r.employees.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return access.Requester{}, access.ErrUnauthenticated
		}
		return access.Requester{}, fmt.Errorf("failed to load requester: %w", err)
	}
	if !e.IsActive {
		return access.Requester{}, access.ErrInactiveRequester
	}

	return access.NewRequester(e), nil
}

// Require loads the requester and checks one capability.
func (r *Resolver) Require(ctx context.Context, capability access.Capability) (access.Requester, error) {
	req, err := r.Requester(ctx)
	if err != nil {
		return access.Requester{}, err
	}
	if !req.Can(capability) {
		return access.Requester{}, fmt.Errorf("%w: %s", access.ErrInsufficientCapability, capability)
	}
	return req, nil
}

// Lookup returns the employee when it is in scope; anything else looks like
// an unknown id.
func (r *Resolver) Lookup(ctx context.Context, req access.Requester, id string) (employee.Employee, error) {
	e, err := r.employees.GetByID(ctx, id)
	if err != nil {
		return employee.Employee{}, err
	}
	if !req.Allows(e) {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

// Resolve filters candidateIDs down to those in scope, keeping input order
// and dropping unknown ids and repeats.
func (r *Resolver) Resolve(ctx context.Context, req access.Requester, candidateIDs []string) ([]string, error) {
	allowed := make([]string, 0, len(candidateIDs))
	seen := make(map[string]bool, len(candidateIDs))
	for _, id := range candidateIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		if _, err := r.Lookup(ctx, req, id); err != nil {
			if errors.Is(err, employee.ErrEmployeeNotFound) {
				continue
			}
			return nil, err
		}
		allowed = append(allowed, id)
	}
	return allowed, nil
}

// Visible lists every employee in scope ordered by last then first name.
func (r *Resolver) Visible(ctx context.Context, req access.Requester, activeOnly bool) ([]employee.Employee, error) {
	if req.Can(access.CapViewAll) {
		return r.employees.List(ctx, activeOnly)
	}

	reports, err := r.employees.ListDirectReports(ctx, req.ID(), activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list direct reports: %w", err)
	}

	visible := append([]employee.Employee{req.Employee}, reports...)
	sort.SliceStable(visible, func(i, j int) bool {
		if visible[i].LastName != visible[j].LastName {
			return visible[i].LastName < visible[j].LastName
		}
		return visible[i].FirstName < visible[j].FirstName
	})
	return visible, nil
}
