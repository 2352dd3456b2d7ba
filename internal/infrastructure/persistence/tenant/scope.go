// Package tenant provides GORM scopes that confine queries to one tenant.
//
//	db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).Find(&contacts)
package tenant

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrTenantIDRequired is added to the statement when a scope is built with uuid.Nil.
var ErrTenantIDRequired = errors.New("tenant_id is required for tenant-scoped queries")

// Column is the tenant discriminator column on every tenant-owned table.
const Column = "tenant_id"

// Scope restricts a statement to rows owned by tenantID. A nil tenant id
// fails the statement instead of silently querying across tenants.
func Scope(tenantID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if tenantID == uuid.Nil {
			_ = db.AddError(ErrTenantIDRequired)
			return db
		}
		return db.Where(db.Statement.Quote(Column)+" = ?", tenantID)
	}
}

// Owned restricts a statement to one row of tenantID.
func Owned(tenantID, id uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return Scope(tenantID)(db).Where(db.Statement.Quote("id")+" = ?", id)
	}
}
