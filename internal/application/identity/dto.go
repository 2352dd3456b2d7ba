package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/identity"
	"github.com/payaid/backend/internal/infrastructure/auth"
)

// RegisterInput signs up a new tenant together with its owner
type RegisterInput struct {
	TenantCode string
	TenantName string
	Plan       string
	TrialDays  int
	OwnerName  string
	OwnerEmail string
	Password   string
}

// LoginInput contains the input for user login
type LoginInput struct {
	TenantCode string
	Email      string
	Password   string
}

// RefreshTokenInput contains the input for token refresh
type RefreshTokenInput struct {
	RefreshToken string
}

// LogoutInput contains the input for user logout
type LogoutInput struct {
	Claims       *auth.Claims
	RefreshToken string // optional, revoked together with the access token
}

// ChangePasswordInput contains the input for password change
type ChangePasswordInput struct {
	TenantID    uuid.UUID
	UserID      uuid.UUID
	OldPassword string
	NewPassword string
}

// AuthResult is returned by register, login and refresh
type AuthResult struct {
	AccessToken           string     `json:"access_token"`
	RefreshToken          string     `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time  `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time  `json:"refresh_token_expires_at"`
	TokenType             string     `json:"token_type"`
	User                  *UserDTO   `json:"user,omitempty"`
	Tenant                *TenantDTO `json:"tenant,omitempty"`
}

func newAuthResult(pair *auth.TokenPair, user *identity.User, tenant *identity.Tenant) *AuthResult {
	result := &AuthResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
	}
	if user != nil {
		dto := ToUserDTO(user)
		result.User = &dto
	}
	if tenant != nil {
		dto := ToTenantDTO(tenant)
		result.Tenant = &dto
	}
	return result
}

// CurrentUserResult is the signed-in user with the tenant's usable modules
type CurrentUserResult struct {
	User    UserDTO   `json:"user"`
	Tenant  TenantDTO `json:"tenant"`
	Modules []string  `json:"modules"`
}

// UserDTO is the API view of a user
type UserDTO struct {
	ID             uuid.UUID  `json:"id"`
	TenantID       uuid.UUID  `json:"tenant_id"`
	Email          string     `json:"email"`
	Name           string     `json:"name"`
	Role           string     `json:"role"`
	Status         string     `json:"status"`
	IsSalesRep     bool       `json:"is_sales_rep"`
	MaxOpenLeads   int        `json:"max_open_leads"`
	LastAssignedAt *time.Time `json:"last_assigned_at,omitempty"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ToUserDTO converts a domain user
func ToUserDTO(u *identity.User) UserDTO {
	return UserDTO{
		ID:             u.ID,
		TenantID:       u.TenantID,
		Email:          u.Email,
		Name:           u.Name,
		Role:           string(u.Role),
		Status:         string(u.Status),
		IsSalesRep:     u.IsSalesRep,
		MaxOpenLeads:   u.MaxOpenLeads,
		LastAssignedAt: u.LastAssignedAt,
		LastLoginAt:    u.LastLoginAt,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

// TenantDTO is the API view of a tenant
type TenantDTO struct {
	ID           uuid.UUID  `json:"id"`
	Code         string     `json:"code"`
	Name         string     `json:"name"`
	Status       string     `json:"status"`
	Plan         string     `json:"plan"`
	Modules      []string   `json:"modules"`
	ContactEmail string     `json:"contact_email,omitempty"`
	Currency     string     `json:"currency"`
	Timezone     string     `json:"timezone"`
	TrialEndsAt  *time.Time `json:"trial_ends_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ToTenantDTO converts a domain tenant
func ToTenantDTO(t *identity.Tenant) TenantDTO {
	return TenantDTO{
		ID:           t.ID,
		Code:         t.Code,
		Name:         t.Name,
		Status:       string(t.Status),
		Plan:         string(t.Plan),
		Modules:      moduleStrings(t.Modules),
		ContactEmail: t.ContactEmail,
		Currency:     t.Currency,
		Timezone:     t.Timezone,
		TrialEndsAt:  t.TrialEndsAt,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func moduleStrings(set identity.ModuleSet) []string {
	out := make([]string, len(set))
	for i, k := range set {
		out[i] = string(k)
	}
	return out
}

// usableModules lists the modules the tenant can use right now
func usableModules(t *identity.Tenant) []string {
	out := make([]string, 0, len(t.Modules))
	for _, k := range t.Modules {
		if t.HasModule(k) {
			out = append(out, string(k))
		}
	}
	return out
}
