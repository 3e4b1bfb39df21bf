package employee

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/validator"
)

// NullableID distinguishes an omitted JSON field from an explicit null.
type NullableID struct {
	Set   bool
	Value *string
}

func (n *NullableID) UnmarshalJSON(b []byte) error {
	n.Set = true
	if string(b) == "null" {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

type CreateEmployeeRequest struct {
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	Email      string  `json:"email"`
	NationalID string  `json:"national_id"`
	IsManager  bool    `json:"is_manager"`
	ManagerID  *string `json:"manager_id,omitempty"`
}

func (r *CreateEmployeeRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Email = strings.ToLower(strings.TrimSpace(r.Email))

	if validator.IsEmpty(r.FirstName) {
		errs.Add("first_name", "first_name is required")
	}
	if validator.IsEmpty(r.LastName) {
		errs.Add("last_name", "last_name is required")
	}
	if !validator.IsValidEmail(r.Email) {
		errs.Add("email", "must be a valid email address")
	}
	if !validator.IsValidNationalID(r.NationalID) {
		errs.Add("national_id", "must be exactly 13 digits")
	}
	if r.ManagerID != nil && !validator.IsValidUUID(*r.ManagerID) {
		errs.Add("manager_id", "must be a valid UUID")
	}

	return errs.Err()
}

type UpdateEmployeeRequest struct {
	ID         string     `json:"-"`
	FirstName  *string    `json:"first_name,omitempty"`
	LastName   *string    `json:"last_name,omitempty"`
	Email      *string    `json:"email,omitempty"`
	NationalID *string    `json:"national_id,omitempty"`
	IsManager  *bool      `json:"is_manager,omitempty"`
	IsActive   *bool      `json:"is_active,omitempty"`
	ManagerID  NullableID `json:"manager_id"`
}

func (r *UpdateEmployeeRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.FirstName != nil && validator.IsEmpty(*r.FirstName) {
		errs.Add("first_name", "first_name cannot be empty")
	}
	if r.LastName != nil && validator.IsEmpty(*r.LastName) {
		errs.Add("last_name", "last_name cannot be empty")
	}
	if r.Email != nil {
		normalized := strings.ToLower(strings.TrimSpace(*r.Email))
		r.Email = &normalized
		if !validator.IsValidEmail(normalized) {
			errs.Add("email", "must be a valid email address")
		}
	}
	if r.NationalID != nil && !validator.IsValidNationalID(*r.NationalID) {
		errs.Add("national_id", "must be exactly 13 digits")
	}
	if r.ManagerID.Value != nil && !validator.IsValidUUID(*r.ManagerID.Value) {
		errs.Add("manager_id", "must be a valid UUID")
	}

	return errs.Err()
}

// OnlyProfileFields reports whether the update touches names only.
func (r UpdateEmployeeRequest) OnlyProfileFields() bool {
	return r.Email == nil && r.NationalID == nil && r.IsManager == nil && r.IsActive == nil && !r.ManagerID.Set
}

type EmployeeResponse struct {
	ID         string    `json:"id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	FullName   string    `json:"full_name"`
	Email      string    `json:"email"`
	NationalID string    `json:"national_id"`
	IsManager  bool      `json:"is_manager"`
	ManagerID  *string   `json:"manager_id"`
	IsActive   bool      `json:"is_active"`
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func NewEmployeeResponse(e Employee, role string) EmployeeResponse {
	return EmployeeResponse{
		ID:         e.ID,
		FirstName:  e.FirstName,
		LastName:   e.LastName,
		FullName:   e.FullName(),
		Email:      e.Email,
		NationalID: e.NationalID,
		IsManager:  e.IsManager,
		ManagerID:  e.ManagerID,
		IsActive:   e.IsActive,
		Role:       role,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}
