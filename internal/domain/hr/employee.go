package hr

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// EmployeeStatus represents the employment status
type EmployeeStatus string

const (
	EmployeeStatusActive     EmployeeStatus = "active"
	EmployeeStatusOnLeave    EmployeeStatus = "on_leave"
	EmployeeStatusTerminated EmployeeStatus = "terminated"
)

// IsValid checks if the status is known
func (s EmployeeStatus) IsValid() bool {
	return s == EmployeeStatusActive || s == EmployeeStatusOnLeave || s == EmployeeStatusTerminated
}

var employeeCodeRegex = regexp.MustCompile(`^[A-Za-z0-9_\-]{1,30}$`)

// EmployeeDetails holds the editable fields of an employee
type EmployeeDetails struct {
	Name          string
	Email         string
	Phone         string
	Department    string
	Designation   string
	MonthlySalary decimal.Decimal
}

// Employee is a person on the tenant's payroll
type Employee struct {
	shared.TenantAggregateRoot
	EmployeeDetails
	EmployeeCode    string
	JoinDate        time.Time
	Status          EmployeeStatus
	TerminationDate *time.Time
	UserID          *uuid.UUID
}

// NewEmployee onboards an active employee
func NewEmployee(tenantID uuid.UUID, code string, details EmployeeDetails, joinDate time.Time) (*Employee, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !employeeCodeRegex.MatchString(code) {
		return nil, shared.NewDomainError("INVALID_CODE", "Employee code must be 1-30 letters, numbers, underscores or hyphens")
	}
	if joinDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_JOIN_DATE", "Join date is required")
	}
	e := &Employee{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		EmployeeCode:        code,
		JoinDate:            joinDate,
		Status:              EmployeeStatusActive,
	}
	if err := e.Update(details); err != nil {
		return nil, err
	}
	e.Version = 1
	return e, nil
}

// Update replaces the editable details
func (e *Employee) Update(details EmployeeDetails) error {
	if e.Status == EmployeeStatusTerminated {
		return shared.NewDomainError("INVALID_STATE", "Terminated employees cannot be edited")
	}
	details.Name = strings.TrimSpace(details.Name)
	details.Email = strings.ToLower(strings.TrimSpace(details.Email))
	details.Department = strings.TrimSpace(details.Department)
	details.Designation = strings.TrimSpace(details.Designation)
	if details.Name == "" || len(details.Name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Employee name must be between 1 and 200 characters")
	}
	if details.MonthlySalary.IsNegative() {
		return shared.NewDomainError("INVALID_SALARY", "Salary cannot be negative")
	}
	details.MonthlySalary = details.MonthlySalary.Round(2)
	e.EmployeeDetails = details
	e.MarkModified()
	return nil
}

// LinkUser connects the employee to a platform login
func (e *Employee) LinkUser(userID *uuid.UUID) {
	e.UserID = userID
	e.MarkModified()
}

// StartLeave puts an active employee on leave
func (e *Employee) StartLeave() error {
	if e.Status != EmployeeStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Only active employees can go on leave")
	}
	e.Status = EmployeeStatusOnLeave
	e.MarkModified()
	return nil
}

// ReturnFromLeave reactivates an employee on leave
func (e *Employee) ReturnFromLeave() error {
	if e.Status != EmployeeStatusOnLeave {
		return shared.NewDomainError("INVALID_STATE", "Employee is not on leave")
	}
	e.Status = EmployeeStatusActive
	e.MarkModified()
	return nil
}

// Terminate ends employment. It is terminal.
func (e *Employee) Terminate(date time.Time) error {
	if e.Status == EmployeeStatusTerminated {
		return shared.NewDomainError("INVALID_STATE", "Employee is already terminated")
	}
	if date.Before(e.JoinDate) {
		return shared.NewDomainError("INVALID_DATE", "Termination date cannot precede the join date")
	}
	e.Status = EmployeeStatusTerminated
	e.TerminationDate = &date
	e.MarkModified()
	return nil
}

// IsOnPayroll reports whether the employee is paid this month
func (e *Employee) IsOnPayroll() bool {
	return e.Status != EmployeeStatusTerminated
}
