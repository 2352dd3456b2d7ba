package projects

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ProjectStatus represents the delivery status of a project
type ProjectStatus string

const (
	ProjectStatusPlanned   ProjectStatus = "planned"
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusOnHold    ProjectStatus = "on_hold"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusCancelled ProjectStatus = "cancelled"
)

// IsClosed reports whether the project is finished or abandoned
func (s ProjectStatus) IsClosed() bool {
	return s == ProjectStatusCompleted || s == ProjectStatusCancelled
}

// IsValid checks if the status is known
func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectStatusPlanned, ProjectStatusActive, ProjectStatusOnHold, ProjectStatusCompleted, ProjectStatusCancelled:
		return true
	}
	return false
}

// Project is a body of client or internal work
type Project struct {
	shared.TenantAggregateRoot
	Code        string
	Name        string
	Description string
	Status      ProjectStatus
	Budget      decimal.Decimal
	StartDate   *time.Time
	EndDate     *time.Time
	ManagerID   *uuid.UUID
	ContactID   *uuid.UUID
	Progress    int
}

// NewProject creates a planned project
func NewProject(tenantID uuid.UUID, code, name string, budget decimal.Decimal) (*Project, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || len(code) > 30 {
		return nil, shared.NewDomainError("INVALID_CODE", "Project code must be between 1 and 30 characters")
	}
	p := &Project{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Status:              ProjectStatusPlanned,
	}
	if err := p.Update(name, "", budget, nil, nil); err != nil {
		return nil, err
	}
	p.Version = 1
	return p, nil
}

// Update edits an open project
func (p *Project) Update(name, description string, budget decimal.Decimal, start, end *time.Time) error {
	if p.Status.IsClosed() {
		return shared.NewDomainError("INVALID_STATE", "Closed projects cannot be edited")
	}
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Project name must be between 1 and 200 characters")
	}
	if budget.IsNegative() {
		return shared.NewDomainError("INVALID_BUDGET", "Budget cannot be negative")
	}
	if start != nil && end != nil && end.Before(*start) {
		return shared.NewDomainError("INVALID_DATES", "End date cannot precede the start date")
	}
	p.Name = name
	p.Description = strings.TrimSpace(description)
	p.Budget = budget.Round(2)
	p.StartDate = start
	p.EndDate = end
	p.MarkModified()
	return nil
}

// AssignManager sets the project manager
func (p *Project) AssignManager(managerID *uuid.UUID) {
	p.ManagerID = managerID
	p.MarkModified()
}

// LinkContact ties the project to a CRM contact
func (p *Project) LinkContact(contactID *uuid.UUID) {
	p.ContactID = contactID
	p.MarkModified()
}

// Start begins work on a planned project
func (p *Project) Start() error {
	if p.Status != ProjectStatusPlanned {
		return shared.NewDomainError("INVALID_STATE", "Only planned projects can be started")
	}
	p.Status = ProjectStatusActive
	if p.StartDate == nil {
		now := time.Now()
		p.StartDate = &now
	}
	p.MarkModified()
	return nil
}

// Hold pauses an active project
func (p *Project) Hold() error {
	if p.Status != ProjectStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Only active projects can be put on hold")
	}
	p.Status = ProjectStatusOnHold
	p.MarkModified()
	return nil
}

// Resume restarts a project on hold
func (p *Project) Resume() error {
	if p.Status != ProjectStatusOnHold {
		return shared.NewDomainError("INVALID_STATE", "Project is not on hold")
	}
	p.Status = ProjectStatusActive
	p.MarkModified()
	return nil
}

// Complete closes the project with full progress
func (p *Project) Complete() error {
	if p.Status != ProjectStatusActive && p.Status != ProjectStatusOnHold {
		return shared.NewDomainError("INVALID_STATE", "Only started projects can be completed")
	}
	now := time.Now()
	p.Status = ProjectStatusCompleted
	p.Progress = 100
	p.EndDate = &now
	p.MarkModified()
	return nil
}

// Cancel abandons an open project
func (p *Project) Cancel() error {
	if p.Status.IsClosed() {
		return shared.NewDomainError("INVALID_STATE", "Project is already closed")
	}
	p.Status = ProjectStatusCancelled
	p.MarkModified()
	return nil
}

// UpdateProgress records percent complete on an active project
func (p *Project) UpdateProgress(progress int) error {
	if p.Status != ProjectStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Progress can only be reported on active projects")
	}
	if progress < 0 || progress > 100 {
		return shared.NewDomainError("INVALID_PROGRESS", "Progress must be between 0 and 100")
	}
	p.Progress = progress
	p.MarkModified()
	return nil
}
