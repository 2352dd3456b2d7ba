package hr

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/hr"
	"github.com/payaid/backend/internal/domain/identity"
	"github.com/payaid/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EmployeeService manages the tenant's workforce
type EmployeeService struct {
	employeeRepo hr.EmployeeRepository
	userRepo     identity.UserRepository
	logger       *zap.Logger
}

// NewEmployeeService creates a new employee service
func NewEmployeeService(employeeRepo hr.EmployeeRepository, userRepo identity.UserRepository, logger *zap.Logger) *EmployeeService {
	return &EmployeeService{
		employeeRepo: employeeRepo,
		userRepo:     userRepo,
		logger:       logger,
	}
}

// EmployeeInput holds the editable fields of an employee
type EmployeeInput struct {
	Name          string
	Email         string
	Phone         string
	Department    string
	Designation   string
	MonthlySalary decimal.Decimal
	UserID        *uuid.UUID
}

func (in EmployeeInput) details() hr.EmployeeDetails {
	return hr.EmployeeDetails{
		Name:          in.Name,
		Email:         in.Email,
		Phone:         in.Phone,
		Department:    in.Department,
		Designation:   in.Designation,
		MonthlySalary: in.MonthlySalary,
	}
}

// CreateEmployeeInput contains input for onboarding an employee
type CreateEmployeeInput struct {
	EmployeeInput
	EmployeeCode string
	JoinDate     time.Time
	CreatedBy    uuid.UUID
}

// StatusChangeInput moves an employee between statuses.
// Action is one of "leave", "return" or "terminate".
type StatusChangeInput struct {
	Action string
	Date   *time.Time
}

// EmployeeListFilter represents filter for querying employees
type EmployeeListFilter struct {
	Page       int
	PageSize   int
	SortBy     string
	SortDir    string
	Keyword    string
	Status     string
	Department string
}

// ToSharedFilter converts EmployeeListFilter to shared.Filter
func (f EmployeeListFilter) ToSharedFilter() shared.Filter {
	filter := shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  f.SortBy,
		OrderDir: f.SortDir,
		Search:   f.Keyword,
		Filters:  map[string]any{},
	}
	if f.Status != "" {
		filter.Filters["status"] = f.Status
	}
	if f.Department != "" {
		filter.Filters["department"] = f.Department
	}
	return filter.Normalize()
}

// EmployeeDTO is the API view of an employee
type EmployeeDTO struct {
	ID              uuid.UUID       `json:"id"`
	EmployeeCode    string          `json:"employee_code"`
	Name            string          `json:"name"`
	Email           string          `json:"email,omitempty"`
	Phone           string          `json:"phone,omitempty"`
	Department      string          `json:"department,omitempty"`
	Designation     string          `json:"designation,omitempty"`
	MonthlySalary   decimal.Decimal `json:"monthly_salary"`
	JoinDate        time.Time       `json:"join_date"`
	Status          string          `json:"status"`
	TerminationDate *time.Time      `json:"termination_date,omitempty"`
	UserID          *uuid.UUID      `json:"user_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ToEmployeeDTO converts a domain employee
func ToEmployeeDTO(e *hr.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:              e.ID,
		EmployeeCode:    e.EmployeeCode,
		Name:            e.Name,
		Email:           e.Email,
		Phone:           e.Phone,
		Department:      e.Department,
		Designation:     e.Designation,
		MonthlySalary:   e.MonthlySalary,
		JoinDate:        e.JoinDate,
		Status:          string(e.Status),
		TerminationDate: e.TerminationDate,
		UserID:          e.UserID,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

// Create onboards an employee
func (s *EmployeeService) Create(ctx context.Context, tenantID uuid.UUID, input CreateEmployeeInput) (*EmployeeDTO, error) {
	employee, err := hr.NewEmployee(tenantID, input.EmployeeCode, input.details(), input.JoinDate)
	if err != nil {
		return nil, err
	}
	exists, err := s.employeeRepo.ExistsByCode(ctx, tenantID, employee.EmployeeCode)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("EMPLOYEE_CODE_EXISTS", "An employee with this code already exists")
	}
	if input.UserID != nil {
		if err := s.checkUser(ctx, tenantID, *input.UserID); err != nil {
			return nil, err
		}
		employee.LinkUser(input.UserID)
	}
	employee.SetCreatedBy(input.CreatedBy)

	if err := s.employeeRepo.Save(ctx, employee); err != nil {
		s.logger.Error("Failed to create employee", zap.Error(err))
		return nil, err
	}
	s.logger.Info("Employee onboarded",
		zap.String("tenant_id", tenantID.String()),
		zap.String("employee_id", employee.ID.String()),
		zap.String("code", employee.EmployeeCode))
	dto := ToEmployeeDTO(employee)
	return &dto, nil
}

// Get returns an employee by ID
func (s *EmployeeService) Get(ctx context.Context, tenantID, id uuid.UUID) (*EmployeeDTO, error) {
	employee, err := s.employeeRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	dto := ToEmployeeDTO(employee)
	return &dto, nil
}

// List returns a page of employees
func (s *EmployeeService) List(ctx context.Context, tenantID uuid.UUID, filter EmployeeListFilter) (*shared.Paginated[EmployeeDTO], error) {
	f := filter.ToSharedFilter()
	employees, err := s.employeeRepo.FindAllForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	total, err := s.employeeRepo.CountForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	items := make([]EmployeeDTO, len(employees))
	for i := range employees {
		items[i] = ToEmployeeDTO(&employees[i])
	}
	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// Update edits an employee's details
func (s *EmployeeService) Update(ctx context.Context, tenantID, id uuid.UUID, input EmployeeInput) (*EmployeeDTO, error) {
	employee, err := s.employeeRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := employee.Update(input.details()); err != nil {
		return nil, err
	}
	if input.UserID != nil {
		if err := s.checkUser(ctx, tenantID, *input.UserID); err != nil {
			return nil, err
		}
		employee.LinkUser(input.UserID)
	}
	if err := s.employeeRepo.Save(ctx, employee); err != nil {
		return nil, err
	}
	dto := ToEmployeeDTO(employee)
	return &dto, nil
}

// ChangeStatus starts leave, ends leave or terminates an employee
func (s *EmployeeService) ChangeStatus(ctx context.Context, tenantID, id uuid.UUID, input StatusChangeInput) (*EmployeeDTO, error) {
	employee, err := s.employeeRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	switch input.Action {
	case "leave":
		err = employee.StartLeave()
	case "return":
		err = employee.ReturnFromLeave()
	case "terminate":
		date := time.Now()
		if input.Date != nil {
			date = *input.Date
		}
		err = employee.Terminate(date)
	default:
		err = shared.NewDomainError("INVALID_ACTION", "Action must be leave, return or terminate")
	}
	if err != nil {
		return nil, err
	}
	if err := s.employeeRepo.Save(ctx, employee); err != nil {
		return nil, err
	}
	s.logger.Info("Employee status changed",
		zap.String("employee_id", id.String()),
		zap.String("status", string(employee.Status)))
	dto := ToEmployeeDTO(employee)
	return &dto, nil
}

// Delete removes an employee record
func (s *EmployeeService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.employeeRepo.DeleteForTenant(ctx, tenantID, id)
}

func (s *EmployeeService) checkUser(ctx context.Context, tenantID, userID uuid.UUID) error {
	if _, err := s.userRepo.FindByIDForTenant(ctx, tenantID, userID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("INVALID_USER", "Linked user not found")
		}
		return err
	}
	return nil
}
