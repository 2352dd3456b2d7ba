package crm

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/crm"
	"github.com/payaid/backend/internal/domain/identity"
	"github.com/payaid/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DealService manages the sales pipeline
type DealService struct {
	dealRepo    crm.DealRepository
	contactRepo crm.ContactRepository
	userRepo    identity.UserRepository
	logger      *zap.Logger
}

// NewDealService creates a new deal service
func NewDealService(
	dealRepo crm.DealRepository,
	contactRepo crm.ContactRepository,
	userRepo identity.UserRepository,
	logger *zap.Logger,
) *DealService {
	return &DealService{
		dealRepo:    dealRepo,
		contactRepo: contactRepo,
		userRepo:    userRepo,
		logger:      logger,
	}
}

// Create opens a deal. Without an explicit owner the contact's rep owns it.
func (s *DealService) Create(ctx context.Context, tenantID uuid.UUID, input CreateDealInput) (*DealDTO, error) {
	contact, err := s.contactRepo.FindByIDForTenant(ctx, tenantID, input.ContactID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("CONTACT_NOT_FOUND", "Contact not found")
		}
		return nil, err
	}

	deal, err := crm.NewDeal(tenantID, contact.ID, input.Title, input.Value, input.Currency)
	if err != nil {
		return nil, err
	}
	if input.ExpectedCloseDate != nil {
		if err := deal.Update(deal.Title, deal.Value, deal.Currency, input.ExpectedCloseDate); err != nil {
			return nil, err
		}
	}
	owner := contact.AssignedToID
	if input.OwnerID != nil {
		if err := s.checkOwner(ctx, tenantID, *input.OwnerID); err != nil {
			return nil, err
		}
		owner = input.OwnerID
	}
	if owner != nil {
		deal.SetOwner(owner)
	}
	deal.SetCreatedBy(input.CreatedBy)

	if err := s.dealRepo.Save(ctx, deal); err != nil {
		s.logger.Error("Failed to create deal", zap.Error(err))
		return nil, err
	}
	s.logger.Info("Deal created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("deal_id", deal.ID.String()),
		zap.String("value", deal.Value.String()))
	dto := ToDealDTO(deal)
	return &dto, nil
}

// Get returns a deal by ID
func (s *DealService) Get(ctx context.Context, tenantID, id uuid.UUID) (*DealDTO, error) {
	deal, err := s.dealRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	dto := ToDealDTO(deal)
	return &dto, nil
}

// List returns a page of deals
func (s *DealService) List(ctx context.Context, tenantID uuid.UUID, filter DealListFilter) (*shared.Paginated[DealDTO], error) {
	f := filter.ToSharedFilter()
	deals, err := s.dealRepo.FindAllForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	total, err := s.dealRepo.CountForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(mapSlice(deals, ToDealDTO), total, f.Page, f.PageSize)
	return &page, nil
}

// Update edits an open deal
func (s *DealService) Update(ctx context.Context, tenantID, id uuid.UUID, input UpdateDealInput) (*DealDTO, error) {
	deal, err := s.dealRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := deal.Update(input.Title, input.Value, input.Currency, input.ExpectedCloseDate); err != nil {
		return nil, err
	}
	if input.Probability != nil {
		if err := deal.SetProbability(*input.Probability); err != nil {
			return nil, err
		}
	}
	if input.OwnerID != nil {
		if err := s.checkOwner(ctx, tenantID, *input.OwnerID); err != nil {
			return nil, err
		}
		deal.SetOwner(input.OwnerID)
	}
	if err := s.dealRepo.Save(ctx, deal); err != nil {
		return nil, err
	}
	dto := ToDealDTO(deal)
	return &dto, nil
}

// MoveStage advances a deal through the pipeline
func (s *DealService) MoveStage(ctx context.Context, tenantID, id uuid.UUID, stage string) (*DealDTO, error) {
	deal, err := s.dealRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	from := deal.Stage
	if err := deal.MoveToStage(crm.DealStage(stage)); err != nil {
		return nil, err
	}
	if err := s.dealRepo.Save(ctx, deal); err != nil {
		return nil, err
	}
	s.logger.Info("Deal stage changed",
		zap.String("deal_id", id.String()),
		zap.String("from", string(from)),
		zap.String("to", string(deal.Stage)))
	dto := ToDealDTO(deal)
	return &dto, nil
}

// Delete removes a deal
func (s *DealService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := s.dealRepo.DeleteForTenant(ctx, tenantID, id); err != nil {
		return err
	}
	s.logger.Info("Deal deleted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("deal_id", id.String()))
	return nil
}

func (s *DealService) checkOwner(ctx context.Context, tenantID, ownerID uuid.UUID) error {
	owner, err := s.userRepo.FindByIDForTenant(ctx, tenantID, ownerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("INVALID_OWNER", "Deal owner not found")
		}
		return err
	}
	if !owner.CanLogin() {
		return shared.NewDomainError("INVALID_OWNER", "Deal owner is not active")
	}
	return nil
}
