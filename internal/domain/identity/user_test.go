package identity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUser(t *testing.T, role UserRole) *User {
	t.Helper()
	user, err := NewUser(uuid.New(), "Rep@Example.com", "Priya Sharma", "secret123", role)
	require.NoError(t, err)
	return user
}

func TestNewUser(t *testing.T) {
	user := newTestUser(t, UserRoleSalesRep)

	assert.Equal(t, "rep@example.com", user.Email)
	assert.True(t, user.IsSalesRep)
	assert.True(t, user.VerifyPassword("secret123"))
	assert.False(t, user.VerifyPassword("wrong"))

	_, err := NewUser(uuid.New(), "bad-email", "X", "secret123", UserRoleMember)
	assert.Error(t, err)
	_, err = NewUser(uuid.New(), "a@b.co", "X", "short", UserRoleMember)
	assert.Error(t, err)
	_, err = NewUser(uuid.New(), "a@b.co", "X", "onlyletters", UserRoleMember)
	assert.Error(t, err)
	_, err = NewUser(uuid.New(), "a@b.co", "X", "secret123", "janitor")
	assert.Error(t, err)
}

func TestUser_FailedLoginsLockAccount(t *testing.T) {
	user := newTestUser(t, UserRoleMember)

	for i := 1; i < MaxFailedAttempts; i++ {
		assert.False(t, user.RecordFailedLogin())
	}
	assert.True(t, user.RecordFailedLogin())
	assert.True(t, user.IsLocked())
	assert.False(t, user.CanLogin())

	past := time.Now().Add(-time.Minute)
	user.LockedUntil = &past
	assert.False(t, user.IsLocked(), "expired lock no longer applies")

	user.RecordLogin()
	assert.Equal(t, UserStatusActive, user.Status)
	assert.Zero(t, user.FailedAttempts)
}

func TestUser_SalesSettings(t *testing.T) {
	user := newTestUser(t, UserRoleMember)
	assert.False(t, user.IsRoutable())

	require.NoError(t, user.UpdateSalesSettings(true, 25))
	assert.True(t, user.IsRoutable())
	assert.Equal(t, 25, user.MaxOpenLeads)

	assert.Error(t, user.UpdateSalesSettings(true, -1))

	require.NoError(t, user.Deactivate())
	assert.False(t, user.IsRoutable())
}

func TestUser_OwnerCannotBeDeactivated(t *testing.T) {
	owner := newTestUser(t, UserRoleOwner)
	assert.Error(t, owner.Deactivate())
	assert.True(t, owner.Role.IsAdmin())
}
