package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/identity"
	"github.com/payaid/backend/internal/domain/shared"
	"github.com/payaid/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// UserService handles user administration within a tenant
type UserService struct {
	userRepo   identity.UserRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	logger     *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(
	userRepo identity.UserRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo:   userRepo,
		jwtService: jwtService,
		blacklist:  blacklist,
		logger:     logger,
	}
}

// CreateUserInput contains input for creating a user
type CreateUserInput struct {
	Email        string
	Name         string
	Password     string
	Role         string
	IsSalesRep   *bool
	MaxOpenLeads int
	CreatedBy    uuid.UUID
}

// UserListFilter represents filter for querying users
type UserListFilter struct {
	Page     int
	PageSize int
	SortBy   string
	SortDir  string
	Keyword  string
	Role     string
	Status   string
}

// ToSharedFilter converts UserListFilter to shared.Filter
func (f UserListFilter) ToSharedFilter() shared.Filter {
	filter := shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  f.SortBy,
		OrderDir: f.SortDir,
		Search:   f.Keyword,
		Filters:  map[string]any{},
	}
	if f.Role != "" {
		filter.Filters["role"] = f.Role
	}
	if f.Status != "" {
		filter.Filters["status"] = f.Status
	}
	return filter.Normalize()
}

// Create adds a user to the tenant
func (s *UserService) Create(ctx context.Context, tenantID uuid.UUID, input CreateUserInput) (*UserDTO, error) {
	role := identity.UserRole(input.Role)
	if input.Role == "" {
		role = identity.UserRoleMember
	}
	if role == identity.UserRoleOwner {
		return nil, shared.NewDomainError("INVALID_ROLE", "A tenant has exactly one owner")
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, tenantID, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("EMAIL_EXISTS", "A user with this email already exists")
	}

	user, err := identity.NewUser(tenantID, input.Email, input.Name, input.Password, role)
	if err != nil {
		return nil, err
	}
	isSalesRep := user.IsSalesRep
	if input.IsSalesRep != nil {
		isSalesRep = *input.IsSalesRep
	}
	if err := user.UpdateSalesSettings(isSalesRep, input.MaxOpenLeads); err != nil {
		return nil, err
	}
	user.SetCreatedBy(input.CreatedBy)

	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.Error("Failed to create user", zap.Error(err))
		return nil, err
	}

	s.logger.Info("User created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)))

	dto := ToUserDTO(user)
	return &dto, nil
}

// Get returns a user by ID
func (s *UserService) Get(ctx context.Context, tenantID, id uuid.UUID) (*UserDTO, error) {
	user, err := s.userRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	dto := ToUserDTO(user)
	return &dto, nil
}

// List returns a page of users
func (s *UserService) List(ctx context.Context, tenantID uuid.UUID, f UserListFilter) (*shared.Paginated[UserDTO], error) {
	filter := f.ToSharedFilter()
	users, err := s.userRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.userRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]UserDTO, len(users))
	for i := range users {
		items[i] = ToUserDTO(&users[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// UpdateSalesSettings toggles routing eligibility and lead capacity
func (s *UserService) UpdateSalesSettings(ctx context.Context, tenantID, id uuid.UUID, isSalesRep bool, maxOpenLeads int) (*UserDTO, error) {
	user, err := s.userRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := user.UpdateSalesSettings(isSalesRep, maxOpenLeads); err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("Sales settings updated",
		zap.String("user_id", id.String()),
		zap.Bool("is_sales_rep", isSalesRep),
		zap.Int("max_open_leads", maxOpenLeads))

	dto := ToUserDTO(user)
	return &dto, nil
}

// ChangeRole updates a user's role. The owner role cannot be granted or removed here.
func (s *UserService) ChangeRole(ctx context.Context, tenantID, id uuid.UUID, role string) (*UserDTO, error) {
	user, err := s.userRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if user.Role == identity.UserRoleOwner || identity.UserRole(role) == identity.UserRoleOwner {
		return nil, shared.NewDomainError("INVALID_ROLE", "The owner role cannot be changed")
	}
	if err := user.ChangeRole(identity.UserRole(role)); err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	dto := ToUserDTO(user)
	return &dto, nil
}

// Deactivate disables a user and revokes all of their tokens
func (s *UserService) Deactivate(ctx context.Context, tenantID, id uuid.UUID) error {
	user, err := s.userRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := user.Deactivate(); err != nil {
		return err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return err
	}
	if err := s.blacklist.RevokeUser(ctx, id.String(), sessionTTL(s.jwtService)); err != nil {
		s.logger.Error("Failed to revoke sessions of deactivated user", zap.Error(err))
	}

	s.logger.Info("User deactivated", zap.String("user_id", id.String()))
	return nil
}

// Activate re-enables a user
func (s *UserService) Activate(ctx context.Context, tenantID, id uuid.UUID) (*UserDTO, error) {
	user, err := s.userRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := user.Activate(); err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	dto := ToUserDTO(user)
	return &dto, nil
}
