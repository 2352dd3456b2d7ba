package identity

import (
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// UserStatus represents the status of a user account
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
	UserStatusLocked   UserStatus = "locked" // Locked due to failed attempts
)

// UserRole is the coarse-grained role of a user within its tenant
type UserRole string

const (
	UserRoleOwner    UserRole = "owner"
	UserRoleAdmin    UserRole = "admin"
	UserRoleManager  UserRole = "manager"
	UserRoleSalesRep UserRole = "sales_rep"
	UserRoleMember   UserRole = "member"
)

// IsValid reports whether the role is known
func (r UserRole) IsValid() bool {
	return slices.Contains([]UserRole{UserRoleOwner, UserRoleAdmin, UserRoleManager, UserRoleSalesRep, UserRoleMember}, r)
}

// IsAdmin reports whether the role can administer the tenant
func (r UserRole) IsAdmin() bool {
	return r == UserRoleOwner || r == UserRoleAdmin
}

const (
	// MaxFailedAttempts before an account is locked
	MaxFailedAttempts = 5
	// LockDuration applied after too many failed attempts
	LockDuration = 15 * time.Minute

	bcryptCost = 12
)

var (
	emailRegex     = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	hasLetterRegex = regexp.MustCompile(`[a-zA-Z]`)
	hasNumberRegex = regexp.MustCompile(`[0-9]`)
)

// User represents a person who can sign in to a tenant
type User struct {
	shared.TenantAggregateRoot
	Email          string
	Name           string
	PasswordHash   string
	Role           UserRole
	Status         UserStatus
	IsSalesRep     bool
	MaxOpenLeads   int // 0 means unlimited
	LastAssignedAt *time.Time
	LastLoginAt    *time.Time
	FailedAttempts int
	LockedUntil    *time.Time
}

// NewUser creates an active user with a hashed password
func NewUser(tenantID uuid.UUID, email, name, password string, role UserRole) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Name must be between 1 and 200 characters")
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Invalid user role")
	}

	user := &User{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Email:               email,
		Name:                name,
		Role:                role,
		Status:              UserStatusActive,
		IsSalesRep:          role == UserRoleSalesRep,
	}
	if err := user.SetPassword(password); err != nil {
		return nil, err
	}
	return user, nil
}

// SetPassword validates and stores a new password hash
func (u *User) SetPassword(password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	u.PasswordHash = string(hash)
	u.MarkModified()
	return nil
}

// VerifyPassword verifies if the provided password matches
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// ChangeRole updates the user's role
func (u *User) ChangeRole(role UserRole) error {
	if !role.IsValid() {
		return shared.NewDomainError("INVALID_ROLE", "Invalid user role")
	}
	u.Role = role
	if role == UserRoleSalesRep {
		u.IsSalesRep = true
	}
	u.MarkModified()
	return nil
}

// UpdateSalesSettings toggles lead routing eligibility and capacity
func (u *User) UpdateSalesSettings(isSalesRep bool, maxOpenLeads int) error {
	if maxOpenLeads < 0 {
		return shared.NewDomainError("INVALID_CAPACITY", "Max open leads cannot be negative")
	}
	u.IsSalesRep = isSalesRep
	u.MaxOpenLeads = maxOpenLeads
	u.MarkModified()
	return nil
}

// MarkAssigned records that a lead was just routed to this user
func (u *User) MarkAssigned(at time.Time) {
	u.LastAssignedAt = &at
	u.MarkModified()
}

// RecordLogin records a successful login
func (u *User) RecordLogin() {
	now := time.Now()
	u.LastLoginAt = &now
	u.FailedAttempts = 0
	u.LockedUntil = nil
	if u.Status == UserStatusLocked {
		u.Status = UserStatusActive
	}
	u.MarkModified()
}

// RecordFailedLogin records a failed login attempt.
// Returns true if the account became locked.
func (u *User) RecordFailedLogin() bool {
	u.FailedAttempts++
	u.MarkModified()
	if u.FailedAttempts < MaxFailedAttempts {
		return false
	}
	until := time.Now().Add(LockDuration)
	u.Status = UserStatusLocked
	u.LockedUntil = &until
	return true
}

// IsLocked returns true if the user is locked and the lock has not expired
func (u *User) IsLocked() bool {
	if u.Status != UserStatusLocked {
		return false
	}
	if u.LockedUntil != nil && time.Now().After(*u.LockedUntil) {
		return false
	}
	return true
}

// CanLogin returns true if the user may authenticate
func (u *User) CanLogin() bool {
	return u.Status != UserStatusInactive && !u.IsLocked()
}

// IsRoutable reports whether the user can receive routed leads
func (u *User) IsRoutable() bool {
	return u.IsSalesRep && u.Status == UserStatusActive
}

// Deactivate disables the account
func (u *User) Deactivate() error {
	if u.Status == UserStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "User is already inactive")
	}
	if u.Role == UserRoleOwner {
		return shared.NewDomainError("CANNOT_DEACTIVATE_OWNER", "The tenant owner cannot be deactivated")
	}
	u.Status = UserStatusInactive
	u.MarkModified()
	return nil
}

// Activate re-enables the account and clears any lock
func (u *User) Activate() error {
	if u.Status == UserStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "User is already active")
	}
	u.Status = UserStatusActive
	u.FailedAttempts = 0
	u.LockedUntil = nil
	u.MarkModified()
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 72 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 characters")
	}
	if !hasLetterRegex.MatchString(password) || !hasNumberRegex.MatchString(password) {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must contain at least one letter and one number")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}
