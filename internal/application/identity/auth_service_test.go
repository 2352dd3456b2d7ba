package identity

import (
	"context"
	"testing"
	"time"

	"github.com/payaid/backend/internal/domain/identity"
	"github.com/payaid/backend/internal/domain/shared"
	"github.com/payaid/backend/internal/infrastructure/auth"
	"github.com/payaid/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testPassword = "Password123"

type authFixture struct {
	tenantRepo *MockTenantRepository
	userRepo   *MockUserRepository
	jwt        *auth.JWTService
	blacklist  *auth.MemoryTokenBlacklist
	service    *AuthService
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		tenantRepo: new(MockTenantRepository),
		userRepo:   new(MockUserRepository),
		jwt: auth.NewJWTService(config.JWTConfig{
			Secret:                 "test-secret-key-32-characters-long",
			AccessTokenExpiration:  15 * time.Minute,
			RefreshTokenExpiration: 7 * 24 * time.Hour,
			Issuer:                 "payaid-test",
			MaxRefreshCount:        10,
		}),
		blacklist: auth.NewMemoryTokenBlacklist(),
	}
	tenants := NewTenantService(f.tenantRepo, f.userRepo, zap.NewNop())
	f.service = NewAuthService(tenants, f.tenantRepo, f.userRepo, f.jwt, f.blacklist, zap.NewNop())
	return f
}

func newTestTenant(t *testing.T) *identity.Tenant {
	t.Helper()
	tenant, err := identity.NewTenant("acme", "Acme Corp")
	require.NoError(t, err)
	return tenant
}

func newTestUser(t *testing.T, tenant *identity.Tenant, role identity.UserRole) *identity.User {
	t.Helper()
	user, err := identity.NewUser(tenant.ID, "asha@acme.test", "Asha", testPassword, role)
	require.NoError(t, err)
	return user
}

func assertDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, code, domainErr.Code)
}

func TestAuthService_Register(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	f.tenantRepo.On("ExistsByCode", ctx, "acme").Return(false, nil)
	f.tenantRepo.On("Save", ctx, mock.AnythingOfType("*identity.Tenant")).Return(nil)
	f.userRepo.On("Save", ctx, mock.AnythingOfType("*identity.User")).Return(nil)

	result, err := f.service.Register(ctx, RegisterInput{
		TenantCode: "acme",
		TenantName: "Acme Corp",
		Plan:       "professional",
		TrialDays:  14,
		OwnerName:  "Asha",
		OwnerEmail: "Asha@Acme.test",
		Password:   testPassword,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.AccessToken)
	assert.Equal(t, "Bearer", result.TokenType)
	assert.Equal(t, "owner", result.User.Role)
	assert.Equal(t, "asha@acme.test", result.User.Email)
	assert.Equal(t, "ACME", result.Tenant.Code)
	assert.Equal(t, "trial", result.Tenant.Status)
	assert.Contains(t, result.Tenant.Modules, "knowledge")
	assert.NotContains(t, result.Tenant.Modules, "ai_assistant")

	claims, err := f.jwt.ValidateAccessToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, result.Tenant.ID.String(), claims.TenantID)
	assert.Equal(t, "owner", claims.Role)

	f.tenantRepo.AssertExpectations(t)
	f.userRepo.AssertExpectations(t)
}

func TestAuthService_Register_DuplicateCode(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	f.tenantRepo.On("ExistsByCode", ctx, "acme").Return(true, nil)

	_, err := f.service.Register(ctx, RegisterInput{TenantCode: "acme", TenantName: "Acme", OwnerName: "A", OwnerEmail: "a@acme.test", Password: testPassword})
	assertDomainCode(t, err, "TENANT_CODE_EXISTS")
	f.tenantRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestAuthService_Login_Success(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	tenant := newTestTenant(t)
	user := newTestUser(t, tenant, identity.UserRoleSalesRep)

	f.tenantRepo.On("FindByCode", ctx, "acme").Return(tenant, nil)
	f.userRepo.On("FindByEmail", ctx, tenant.ID, "asha@acme.test").Return(user, nil)
	f.userRepo.On("Save", ctx, user).Return(nil)

	result, err := f.service.Login(ctx, LoginInput{TenantCode: "acme", Email: " ASHA@acme.test ", Password: testPassword})
	require.NoError(t, err)

	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, user.ID, result.User.ID)
	assert.NotNil(t, user.LastLoginAt)
	f.userRepo.AssertExpectations(t)
}

func TestAuthService_Login_UnknownTenant(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	f.tenantRepo.On("FindByCode", ctx, "nope").Return(nil, shared.ErrNotFound)

	_, err := f.service.Login(ctx, LoginInput{TenantCode: "nope", Email: "a@b.test", Password: testPassword})
	assertDomainCode(t, err, "INVALID_CREDENTIALS")
}

func TestAuthService_Login_SuspendedTenant(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	tenant := newTestTenant(t)
	require.NoError(t, tenant.Suspend())
	f.tenantRepo.On("FindByCode", ctx, "acme").Return(tenant, nil)

	_, err := f.service.Login(ctx, LoginInput{TenantCode: "acme", Email: "asha@acme.test", Password: testPassword})
	assertDomainCode(t, err, "TENANT_INACTIVE")
	f.userRepo.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_Login_LocksAfterMaxAttempts(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	tenant := newTestTenant(t)
	user := newTestUser(t, tenant, identity.UserRoleMember)

	f.tenantRepo.On("FindByCode", ctx, "acme").Return(tenant, nil)
	f.userRepo.On("FindByEmail", ctx, tenant.ID, "asha@acme.test").Return(user, nil)
	f.userRepo.On("Save", ctx, user).Return(nil)

	input := LoginInput{TenantCode: "acme", Email: "asha@acme.test", Password: "WrongPassword1"}
	for i := 1; i < identity.MaxFailedAttempts; i++ {
		_, err := f.service.Login(ctx, input)
		assertDomainCode(t, err, "INVALID_CREDENTIALS")
	}
	_, err := f.service.Login(ctx, input)
	assertDomainCode(t, err, "ACCOUNT_LOCKED")
	assert.True(t, user.IsLocked())

	input.Password = testPassword
	_, err = f.service.Login(ctx, input)
	assertDomainCode(t, err, "ACCOUNT_LOCKED")
}

func TestAuthService_RefreshToken_RotatesAndRejectsReuse(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	tenant := newTestTenant(t)
	user := newTestUser(t, tenant, identity.UserRoleAdmin)

	pair, err := f.jwt.GenerateTokenPair(auth.GenerateTokenInput{TenantID: tenant.ID, UserID: user.ID, Email: user.Email, Role: "admin"})
	require.NoError(t, err)

	f.tenantRepo.On("FindByID", ctx, tenant.ID).Return(tenant, nil)
	f.userRepo.On("FindByIDForTenant", ctx, tenant.ID, user.ID).Return(user, nil)

	result, err := f.service.RefreshToken(ctx, RefreshTokenInput{RefreshToken: pair.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, result.RefreshToken)

	claims, err := f.jwt.ValidateRefreshToken(result.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, 1, claims.RefreshCount)

	_, err = f.service.RefreshToken(ctx, RefreshTokenInput{RefreshToken: pair.RefreshToken})
	assertDomainCode(t, err, "TOKEN_REVOKED")
}

func TestAuthService_RefreshToken_Invalid(t *testing.T) {
	f := newAuthFixture()
	_, err := f.service.RefreshToken(context.Background(), RefreshTokenInput{RefreshToken: "not-a-token"})
	assertDomainCode(t, err, "TOKEN_INVALID")
}

func TestAuthService_Logout_RevokesTokens(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	tenant := newTestTenant(t)
	user := newTestUser(t, tenant, identity.UserRoleMember)

	pair, err := f.jwt.GenerateTokenPair(auth.GenerateTokenInput{TenantID: tenant.ID, UserID: user.ID})
	require.NoError(t, err)
	access, err := f.jwt.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(ctx, LogoutInput{Claims: access, RefreshToken: pair.RefreshToken}))

	revoked, err := f.service.IsTokenRevoked(ctx, access)
	require.NoError(t, err)
	assert.True(t, revoked)

	_, err = f.service.RefreshToken(ctx, RefreshTokenInput{RefreshToken: pair.RefreshToken})
	assertDomainCode(t, err, "TOKEN_REVOKED")
}

func TestAuthService_Logout_RequiresClaims(t *testing.T) {
	f := newAuthFixture()
	err := f.service.Logout(context.Background(), LogoutInput{})
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestAuthService_GetCurrentUser(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	tenant := newTestTenant(t)
	user := newTestUser(t, tenant, identity.UserRoleOwner)

	f.tenantRepo.On("FindByID", ctx, tenant.ID).Return(tenant, nil)
	f.userRepo.On("FindByIDForTenant", ctx, tenant.ID, user.ID).Return(user, nil)

	result, err := f.service.GetCurrentUser(ctx, tenant.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "asha@acme.test", result.User.Email)
	assert.ElementsMatch(t, []string{"crm", "dashboard"}, result.Modules)
}

func TestAuthService_ChangePassword(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	tenant := newTestTenant(t)
	user := newTestUser(t, tenant, identity.UserRoleMember)

	issued := time.Now().Add(-2 * time.Second)
	f.userRepo.On("FindByIDForTenant", ctx, tenant.ID, user.ID).Return(user, nil)
	f.userRepo.On("Save", ctx, user).Return(nil)

	err := f.service.ChangePassword(ctx, ChangePasswordInput{TenantID: tenant.ID, UserID: user.ID, OldPassword: "wrong", NewPassword: "NewPassw0rd"})
	assertDomainCode(t, err, "INVALID_PASSWORD")

	require.NoError(t, f.service.ChangePassword(ctx, ChangePasswordInput{TenantID: tenant.ID, UserID: user.ID, OldPassword: testPassword, NewPassword: "NewPassw0rd"}))
	assert.True(t, user.VerifyPassword("NewPassw0rd"))

	revoked, err := f.blacklist.IsUserRevoked(ctx, user.ID.String(), issued)
	require.NoError(t, err)
	assert.True(t, revoked)
}
