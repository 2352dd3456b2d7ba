package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/shared"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*User, error)

	// FindByEmail finds a user by email within a tenant
	FindByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*User, error)

	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]User, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// FindSalesReps returns active users flagged as sales reps
	FindSalesReps(ctx context.Context, tenantID uuid.UUID) ([]User, error)

	Save(ctx context.Context, user *User) error
	ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string) (bool, error)
}
