package crm

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/crm"
	"github.com/payaid/backend/internal/domain/identity"
	"github.com/payaid/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// TerritoryService manages sales territories
type TerritoryService struct {
	territoryRepo crm.TerritoryRepository
	userRepo      identity.UserRepository
	matcher       *crm.TerritoryMatcher
	logger        *zap.Logger
}

// NewTerritoryService creates a new territory service
func NewTerritoryService(
	territoryRepo crm.TerritoryRepository,
	userRepo identity.UserRepository,
	logger *zap.Logger,
) *TerritoryService {
	return &TerritoryService{
		territoryRepo: territoryRepo,
		userRepo:      userRepo,
		matcher:       crm.NewTerritoryMatcher(),
		logger:        logger,
	}
}

var errTerritoryNameExists = shared.NewDomainError("TERRITORY_NAME_EXISTS", "A territory with this name already exists")

// Create defines a new territory
func (s *TerritoryService) Create(ctx context.Context, tenantID uuid.UUID, input TerritoryInput) (*TerritoryDTO, error) {
	exists, err := s.territoryRepo.ExistsByName(ctx, tenantID, strings.TrimSpace(input.Name))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errTerritoryNameExists
	}

	territory, err := crm.NewTerritory(tenantID, input.Name, input.Criteria, input.Priority)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, territory, input); err != nil {
		return nil, err
	}
	if err := s.territoryRepo.Save(ctx, territory); err != nil {
		s.logger.Error("Failed to create territory", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Territory created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("territory_id", territory.ID.String()),
		zap.String("name", territory.Name))
	dto := ToTerritoryDTO(territory)
	return &dto, nil
}

// Get returns a territory by ID
func (s *TerritoryService) Get(ctx context.Context, tenantID, id uuid.UUID) (*TerritoryDTO, error) {
	territory, err := s.territoryRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	dto := ToTerritoryDTO(territory)
	return &dto, nil
}

// List returns a page of territories
func (s *TerritoryService) List(ctx context.Context, tenantID uuid.UUID, filter TerritoryListFilter) (*shared.Paginated[TerritoryDTO], error) {
	f := filter.ToSharedFilter()
	territories, err := s.territoryRepo.FindAllForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	total, err := s.territoryRepo.CountForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(mapSlice(territories, ToTerritoryDTO), total, f.Page, f.PageSize)
	return &page, nil
}

// Update replaces the definition of a territory
func (s *TerritoryService) Update(ctx context.Context, tenantID, id uuid.UUID, input TerritoryInput) (*TerritoryDTO, error) {
	territory, err := s.territoryRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if !strings.EqualFold(name, territory.Name) {
		exists, err := s.territoryRepo.ExistsByName(ctx, tenantID, name)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, errTerritoryNameExists
		}
	}
	if err := territory.Update(name, input.Description, input.Criteria, input.Priority); err != nil {
		return nil, err
	}
	if err := s.apply(ctx, territory, input); err != nil {
		return nil, err
	}
	if err := s.territoryRepo.Save(ctx, territory); err != nil {
		return nil, err
	}
	dto := ToTerritoryDTO(territory)
	return &dto, nil
}

// Delete removes a territory
func (s *TerritoryService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := s.territoryRepo.DeleteForTenant(ctx, tenantID, id); err != nil {
		return err
	}
	s.logger.Info("Territory deleted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("territory_id", id.String()))
	return nil
}

// PreviewMatch shows which active territories a contact would fall into
func (s *TerritoryService) PreviewMatch(ctx context.Context, tenantID uuid.UUID, input ContactInput) (*MatchPreview, error) {
	territories, err := s.territoryRepo.FindActive(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	matched := s.matcher.Match(input.Profile(), territories)
	preview := &MatchPreview{Matches: mapSlice(matched, ToTerritoryDTO)}
	if len(preview.Matches) > 0 {
		best := preview.Matches[0]
		preview.Best = &best
	}
	return preview, nil
}

// apply sets description, reps and the active flag from input
func (s *TerritoryService) apply(ctx context.Context, territory *crm.Territory, input TerritoryInput) error {
	if input.Description != territory.Description {
		if err := territory.Update(territory.Name, input.Description, territory.Criteria, territory.Priority); err != nil {
			return err
		}
	}
	if input.RepIDs != nil {
		if err := s.validateReps(ctx, territory.TenantID, input.RepIDs); err != nil {
			return err
		}
		territory.SetReps(input.RepIDs)
	}
	if input.Active != nil {
		if *input.Active {
			territory.Activate()
		} else {
			territory.Deactivate()
		}
	}
	return nil
}

func (s *TerritoryService) validateReps(ctx context.Context, tenantID uuid.UUID, repIDs []uuid.UUID) error {
	for _, id := range repIDs {
		user, err := s.userRepo.FindByIDForTenant(ctx, tenantID, id)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError("INVALID_REP", "Territory rep not found").WithDetail("rep_id", id.String())
			}
			return err
		}
		if !user.IsSalesRep {
			return shared.NewDomainError("INVALID_REP", "Territory reps must be sales reps").WithDetail("rep_id", id.String())
		}
	}
	return nil
}
