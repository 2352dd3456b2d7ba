package hr

import (
	"context"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/shared"
)

// EmployeeRepository defines persistence for employees
type EmployeeRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Employee, error)

	// FindAllForTenant supports filters "status" and "department"
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Employee, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	Save(ctx context.Context, employee *Employee) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)
}
