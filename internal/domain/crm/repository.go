package crm

import (
	"context"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/shared"
)

// ContactRepository defines persistence for contacts
type ContactRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Contact, error)

	// FindAllForTenant supports filters "stage", "source", "assigned_to" and "unassigned"
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Contact, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// FindUnassignedOpen returns open leads with no owner, oldest first
	FindUnassignedOpen(ctx context.Context, tenantID uuid.UUID, limit int) ([]Contact, error)

	// CountOpenByAssignee returns open lead counts keyed by rep
	CountOpenByAssignee(ctx context.Context, tenantID uuid.UUID) (map[uuid.UUID]int, error)

	Save(ctx context.Context, contact *Contact) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
}

// TerritoryRepository defines persistence for territories
type TerritoryRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Territory, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Territory, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// FindActive returns all active territories of the tenant
	FindActive(ctx context.Context, tenantID uuid.UUID) ([]Territory, error)

	Save(ctx context.Context, territory *Territory) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
	ExistsByName(ctx context.Context, tenantID uuid.UUID, name string) (bool, error)
}

// DealRepository defines persistence for deals
type DealRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Deal, error)

	// FindAllForTenant supports filters "stage", "owner_id" and "contact_id"
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Deal, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	Save(ctx context.Context, deal *Deal) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
}
