package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/shared"
)

// InvoiceRepository defines persistence for invoices
type InvoiceRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)

	// FindAllForTenant supports filters "status" and "contact_id"
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Invoice, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// FindDueBefore returns sent or partially paid invoices due before the given time
	FindDueBefore(ctx context.Context, tenantID uuid.UUID, before time.Time) ([]Invoice, error)

	Save(ctx context.Context, invoice *Invoice) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
	ExistsByNumber(ctx context.Context, tenantID uuid.UUID, number string) (bool, error)
}
