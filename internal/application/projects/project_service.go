package projects

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/crm"
	"github.com/payaid/backend/internal/domain/identity"
	"github.com/payaid/backend/internal/domain/projects"
	"github.com/payaid/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProjectService manages client and internal projects
type ProjectService struct {
	projectRepo projects.ProjectRepository
	userRepo    identity.UserRepository
	contactRepo crm.ContactRepository
	logger      *zap.Logger
}

// NewProjectService creates a new project service
func NewProjectService(
	projectRepo projects.ProjectRepository,
	userRepo identity.UserRepository,
	contactRepo crm.ContactRepository,
	logger *zap.Logger,
) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		userRepo:    userRepo,
		contactRepo: contactRepo,
		logger:      logger,
	}
}

// ProjectInput holds the editable fields of a project
type ProjectInput struct {
	Name        string
	Description string
	Budget      decimal.Decimal
	StartDate   *time.Time
	EndDate     *time.Time
	ManagerID   *uuid.UUID
	ContactID   *uuid.UUID
}

// CreateProjectInput contains input for creating a project
type CreateProjectInput struct {
	ProjectInput
	Code      string
	CreatedBy uuid.UUID
}

// ProjectListFilter represents filter for querying projects
type ProjectListFilter struct {
	Page      int
	PageSize  int
	SortBy    string
	SortDir   string
	Keyword   string
	Status    string
	ManagerID string
}

// ToSharedFilter converts ProjectListFilter to shared.Filter
func (f ProjectListFilter) ToSharedFilter() shared.Filter {
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
	if f.ManagerID != "" {
		filter.Filters["manager_id"] = f.ManagerID
	}
	return filter.Normalize()
}

// ProjectDTO is the API view of a project
type ProjectDTO struct {
	ID          uuid.UUID       `json:"id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Status      string          `json:"status"`
	Budget      decimal.Decimal `json:"budget"`
	StartDate   *time.Time      `json:"start_date,omitempty"`
	EndDate     *time.Time      `json:"end_date,omitempty"`
	ManagerID   *uuid.UUID      `json:"manager_id,omitempty"`
	ContactID   *uuid.UUID      `json:"contact_id,omitempty"`
	Progress    int             `json:"progress"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ToProjectDTO converts a domain project
func ToProjectDTO(p *projects.Project) ProjectDTO {
	return ProjectDTO{
		ID:          p.ID,
		Code:        p.Code,
		Name:        p.Name,
		Description: p.Description,
		Status:      string(p.Status),
		Budget:      p.Budget,
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		ManagerID:   p.ManagerID,
		ContactID:   p.ContactID,
		Progress:    p.Progress,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// Create plans a new project
func (s *ProjectService) Create(ctx context.Context, tenantID uuid.UUID, input CreateProjectInput) (*ProjectDTO, error) {
	project, err := projects.NewProject(tenantID, input.Code, input.Name, input.Budget)
	if err != nil {
		return nil, err
	}
	exists, err := s.projectRepo.ExistsByCode(ctx, tenantID, project.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("PROJECT_CODE_EXISTS", "A project with this code already exists")
	}
	if err := s.apply(ctx, project, input.ProjectInput); err != nil {
		return nil, err
	}
	project.SetCreatedBy(input.CreatedBy)

	if err := s.projectRepo.Save(ctx, project); err != nil {
		s.logger.Error("Failed to create project", zap.Error(err))
		return nil, err
	}
	s.logger.Info("Project created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("project_id", project.ID.String()),
		zap.String("code", project.Code))
	dto := ToProjectDTO(project)
	return &dto, nil
}

// Get returns a project by ID
func (s *ProjectService) Get(ctx context.Context, tenantID, id uuid.UUID) (*ProjectDTO, error) {
	project, err := s.projectRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	dto := ToProjectDTO(project)
	return &dto, nil
}

// List returns a page of projects
func (s *ProjectService) List(ctx context.Context, tenantID uuid.UUID, filter ProjectListFilter) (*shared.Paginated[ProjectDTO], error) {
	f := filter.ToSharedFilter()
	rows, err := s.projectRepo.FindAllForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	total, err := s.projectRepo.CountForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	items := make([]ProjectDTO, len(rows))
	for i := range rows {
		items[i] = ToProjectDTO(&rows[i])
	}
	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// Update edits an open project
func (s *ProjectService) Update(ctx context.Context, tenantID, id uuid.UUID, input ProjectInput) (*ProjectDTO, error) {
	project, err := s.projectRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, project, input); err != nil {
		return nil, err
	}
	if err := s.projectRepo.Save(ctx, project); err != nil {
		return nil, err
	}
	dto := ToProjectDTO(project)
	return &dto, nil
}

// Transition applies a lifecycle action: start, hold, resume, complete or cancel
func (s *ProjectService) Transition(ctx context.Context, tenantID, id uuid.UUID, action string) (*ProjectDTO, error) {
	project, err := s.projectRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	from := project.Status
	switch action {
	case "start":
		err = project.Start()
	case "hold":
		err = project.Hold()
	case "resume":
		err = project.Resume()
	case "complete":
		err = project.Complete()
	case "cancel":
		err = project.Cancel()
	default:
		err = shared.NewDomainError("INVALID_ACTION", "Action must be start, hold, resume, complete or cancel")
	}
	if err != nil {
		return nil, err
	}
	if err := s.projectRepo.Save(ctx, project); err != nil {
		return nil, err
	}
	s.logger.Info("Project status changed",
		zap.String("project_id", id.String()),
		zap.String("from", string(from)),
		zap.String("to", string(project.Status)))
	dto := ToProjectDTO(project)
	return &dto, nil
}

// UpdateProgress records percent complete
func (s *ProjectService) UpdateProgress(ctx context.Context, tenantID, id uuid.UUID, progress int) (*ProjectDTO, error) {
	project, err := s.projectRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := project.UpdateProgress(progress); err != nil {
		return nil, err
	}
	if err := s.projectRepo.Save(ctx, project); err != nil {
		return nil, err
	}
	dto := ToProjectDTO(project)
	return &dto, nil
}

// Delete removes a project
func (s *ProjectService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.projectRepo.DeleteForTenant(ctx, tenantID, id)
}

func (s *ProjectService) apply(ctx context.Context, project *projects.Project, input ProjectInput) error {
	if err := project.Update(input.Name, input.Description, input.Budget, input.StartDate, input.EndDate); err != nil {
		return err
	}
	if input.ManagerID != nil {
		if _, err := s.userRepo.FindByIDForTenant(ctx, project.TenantID, *input.ManagerID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError("INVALID_MANAGER", "Project manager not found")
			}
			return err
		}
		project.AssignManager(input.ManagerID)
	}
	if input.ContactID != nil {
		if _, err := s.contactRepo.FindByIDForTenant(ctx, project.TenantID, *input.ContactID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError("CONTACT_NOT_FOUND", "Contact not found")
			}
			return err
		}
		project.LinkContact(input.ContactID)
	}
	return nil
}
