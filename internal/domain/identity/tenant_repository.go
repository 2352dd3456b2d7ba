package identity

import (
	"context"

	"github.com/google/uuid"
)

// TenantRepository defines the interface for tenant persistence
type TenantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)

	// FindByCode finds a tenant by its unique code, case-insensitively
	FindByCode(ctx context.Context, code string) (*Tenant, error)

	Save(ctx context.Context, tenant *Tenant) error

	ExistsByCode(ctx context.Context, code string) (bool, error)
}
