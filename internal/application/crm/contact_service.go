package crm

import (
	"context"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/crm"
	"github.com/payaid/backend/internal/domain/identity"
	"github.com/payaid/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ContactService manages contacts and leads
type ContactService struct {
	contactRepo crm.ContactRepository
	userRepo    identity.UserRepository
	routing     *RoutingService
	logger      *zap.Logger
}

// NewContactService creates a new contact service
func NewContactService(
	contactRepo crm.ContactRepository,
	userRepo identity.UserRepository,
	routing *RoutingService,
	logger *zap.Logger,
) *ContactService {
	return &ContactService{
		contactRepo: contactRepo,
		userRepo:    userRepo,
		routing:     routing,
		logger:      logger,
	}
}

// Create adds a contact. With AutoAssign set the new lead is routed right away;
// a routing failure leaves the contact unassigned.
func (s *ContactService) Create(ctx context.Context, tenantID uuid.UUID, input CreateContactInput) (*ContactResult, error) {
	contact, err := crm.NewContact(tenantID, input.Profile(), crm.ContactSource(input.Source))
	if err != nil {
		return nil, err
	}
	if input.LeadScore != nil {
		if err := contact.SetScore(*input.LeadScore); err != nil {
			return nil, err
		}
	}
	contact.SetCreatedBy(input.CreatedBy)

	if err := s.contactRepo.Save(ctx, contact); err != nil {
		s.logger.Error("Failed to create contact", zap.Error(err))
		return nil, err
	}
	s.logger.Info("Contact created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("contact_id", contact.ID.String()),
		zap.String("source", string(contact.Source)))

	result := &ContactResult{}
	if input.AutoAssign && s.routing != nil {
		strategy, err := s.routing.parseStrategy(input.Strategy)
		if err != nil {
			return nil, err
		}
		routed, err := s.routing.routeContact(ctx, contact, strategy)
		if err != nil {
			s.logger.Warn("Auto-assignment skipped",
				zap.String("contact_id", contact.ID.String()),
				zap.Error(err))
		} else {
			result.Routing = routed
		}
	}
	result.Contact = ToContactDTO(contact)
	return result, nil
}

// Get returns a contact by ID
func (s *ContactService) Get(ctx context.Context, tenantID, id uuid.UUID) (*ContactDTO, error) {
	contact, err := s.contactRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	dto := ToContactDTO(contact)
	return &dto, nil
}

// List returns a page of contacts
func (s *ContactService) List(ctx context.Context, tenantID uuid.UUID, filter ContactListFilter) (*shared.Paginated[ContactDTO], error) {
	f := filter.ToSharedFilter()
	contacts, err := s.contactRepo.FindAllForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	total, err := s.contactRepo.CountForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(mapSlice(contacts, ToContactDTO), total, f.Page, f.PageSize)
	return &page, nil
}

// Update replaces the profile of a contact
func (s *ContactService) Update(ctx context.Context, tenantID, id uuid.UUID, input ContactInput) (*ContactDTO, error) {
	contact, err := s.contactRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := contact.Update(input.Profile()); err != nil {
		return nil, err
	}
	if input.LeadScore != nil {
		if err := contact.SetScore(*input.LeadScore); err != nil {
			return nil, err
		}
	}
	if err := s.contactRepo.Save(ctx, contact); err != nil {
		return nil, err
	}
	dto := ToContactDTO(contact)
	return &dto, nil
}

// MoveStage moves a contact through the funnel
func (s *ContactService) MoveStage(ctx context.Context, tenantID, id uuid.UUID, stage string) (*ContactDTO, error) {
	contact, err := s.contactRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	from := contact.Stage
	if err := contact.MoveToStage(crm.ContactStage(stage)); err != nil {
		return nil, err
	}
	if err := s.contactRepo.Save(ctx, contact); err != nil {
		return nil, err
	}
	s.logger.Info("Contact stage changed",
		zap.String("contact_id", id.String()),
		zap.String("from", string(from)),
		zap.String("to", string(contact.Stage)))
	dto := ToContactDTO(contact)
	return &dto, nil
}

// Assign hands a contact to a specific rep
func (s *ContactService) Assign(ctx context.Context, tenantID, id, repID uuid.UUID) (*ContactDTO, error) {
	contact, err := s.contactRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	rep, err := s.userRepo.FindByIDForTenant(ctx, tenantID, repID)
	if err != nil {
		return nil, err
	}
	if !rep.IsRoutable() {
		return nil, shared.NewDomainError("INVALID_ASSIGNEE", "Assignee must be an active sales rep")
	}
	if err := contact.AssignTo(rep.ID, nil); err != nil {
		return nil, err
	}
	if err := s.contactRepo.Save(ctx, contact); err != nil {
		return nil, err
	}
	rep.MarkAssigned(*contact.AssignedAt)
	if err := s.userRepo.Save(ctx, rep); err != nil {
		s.logger.Warn("Failed to record assignment time", zap.String("rep_id", rep.ID.String()), zap.Error(err))
	}

	s.logger.Info("Contact assigned",
		zap.String("contact_id", id.String()),
		zap.String("rep_id", repID.String()))
	dto := ToContactDTO(contact)
	return &dto, nil
}

// Unassign clears the owner of a contact
func (s *ContactService) Unassign(ctx context.Context, tenantID, id uuid.UUID) (*ContactDTO, error) {
	contact, err := s.contactRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !contact.IsAssigned() {
		dto := ToContactDTO(contact)
		return &dto, nil
	}
	contact.Unassign()
	if err := s.contactRepo.Save(ctx, contact); err != nil {
		return nil, err
	}
	dto := ToContactDTO(contact)
	return &dto, nil
}

// Delete removes a contact
func (s *ContactService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := s.contactRepo.DeleteForTenant(ctx, tenantID, id); err != nil {
		return err
	}
	s.logger.Info("Contact deleted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("contact_id", id.String()))
	return nil
}
