package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDomainError_IsMatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("loading contact: %w", ErrNotFound)
	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.True(t, errors.Is(NewDomainError("NOT_FOUND", "contact missing"), ErrNotFound))
	assert.False(t, errors.Is(ErrAlreadyExists, ErrNotFound))
}

func TestDomainError_WithDetailDoesNotMutateSentinel(t *testing.T) {
	err := ErrInvalidInput.WithDetail("field", "email")
	assert.Equal(t, "email", err.Details["field"])
	assert.Nil(t, ErrInvalidInput.Details)
}

func TestFilter_Normalize(t *testing.T) {
	f := Filter{Page: 0, PageSize: 500}
	n := f.Normalize()
	assert.Equal(t, 1, n.Page)
	assert.Equal(t, MaxPageSize, n.PageSize)
	assert.NotNil(t, n.Filters)

	f = Filter{Page: 3, PageSize: 10}
	assert.Equal(t, 20, f.Offset())
	assert.Equal(t, 10, f.Limit())
}

func TestFilter_StringFilter(t *testing.T) {
	f := DefaultFilter()
	f.Filters["stage"] = "lead"
	f.Filters["count"] = 3
	assert.Equal(t, "lead", f.StringFilter("stage"))
	assert.Equal(t, "", f.StringFilter("count"))
	assert.Equal(t, "", Filter{}.StringFilter("stage"))
}

func TestNewPaginated(t *testing.T) {
	p := NewPaginated([]int{1, 2}, 21, 1, 10)
	assert.Equal(t, 3, p.TotalPages)
	p = NewPaginated([]int{}, 0, 1, 0)
	assert.Equal(t, 20, p.PageSize)
	assert.Equal(t, 0, p.TotalPages)
}

func TestTenantAggregateRoot(t *testing.T) {
	tenantID := uuid.New()
	root := NewTenantAggregateRoot(tenantID)
	assert.Equal(t, 1, root.Version)
	assert.True(t, root.BelongsTo(tenantID))
	assert.False(t, root.BelongsTo(uuid.New()))

	root.SetCreatedBy(uuid.Nil)
	assert.Nil(t, root.CreatedBy)
	userID := uuid.New()
	root.SetCreatedBy(userID)
	assert.Equal(t, userID, *root.CreatedBy)

	before := root.UpdatedAt
	root.MarkModified()
	assert.Equal(t, 2, root.Version)
	assert.False(t, root.UpdatedAt.Before(before))
}
