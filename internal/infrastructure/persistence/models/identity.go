package models

import (
	"time"

	"github.com/payaid/backend/internal/domain/identity"
)

// TenantModel is the persistence model for the Tenant aggregate.
type TenantModel struct {
	AggregateModel
	Code         string                `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name         string                `gorm:"type:varchar(200);not null"`
	Status       identity.TenantStatus `gorm:"type:varchar(20);not null;default:'active'"`
	Plan         identity.TenantPlan   `gorm:"type:varchar(20);not null;default:'free'"`
	Modules      string                `gorm:"type:varchar(500);not null;default:''"` // comma separated module keys
	ContactEmail string                `gorm:"type:varchar(200)"`
	Currency     string                `gorm:"type:varchar(3);not null;default:'INR'"`
	Timezone     string                `gorm:"type:varchar(50);not null;default:'Asia/Kolkata'"`
	TrialEndsAt  *time.Time
}

// TableName returns the table name for GORM
func (TenantModel) TableName() string {
	return "tenants"
}

// ToDomain converts the persistence model to a domain Tenant.
func (m *TenantModel) ToDomain() *identity.Tenant {
	return &identity.Tenant{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Code:              m.Code,
		Name:              m.Name,
		Status:            m.Status,
		Plan:              m.Plan,
		Modules:           identity.ParseModuleSet(m.Modules),
		ContactEmail:      m.ContactEmail,
		Currency:          m.Currency,
		Timezone:          m.Timezone,
		TrialEndsAt:       m.TrialEndsAt,
	}
}

// TenantModelFromDomain creates a persistence model from a domain Tenant.
func TenantModelFromDomain(t *identity.Tenant) *TenantModel {
	m := &TenantModel{
		Code:         t.Code,
		Name:         t.Name,
		Status:       t.Status,
		Plan:         t.Plan,
		Modules:      t.Modules.String(),
		ContactEmail: t.ContactEmail,
		Currency:     t.Currency,
		Timezone:     t.Timezone,
		TrialEndsAt:  t.TrialEndsAt,
	}
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	return m
}

// UserModel is the persistence model for the User aggregate.
type UserModel struct {
	TenantAggregateModel
	Email          string              `gorm:"type:varchar(200);not null;index"`
	Name           string              `gorm:"type:varchar(200);not null"`
	PasswordHash   string              `gorm:"type:varchar(255);not null"`
	Role           identity.UserRole   `gorm:"type:varchar(20);not null;default:'member'"`
	Status         identity.UserStatus `gorm:"type:varchar(20);not null;default:'active'"`
	IsSalesRep     bool                `gorm:"not null;default:false"`
	MaxOpenLeads   int                 `gorm:"not null;default:0"`
	LastAssignedAt *time.Time
	LastLoginAt    *time.Time
	FailedAttempts int `gorm:"not null;default:0"`
	LockedUntil    *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User.
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Email:               m.Email,
		Name:                m.Name,
		PasswordHash:        m.PasswordHash,
		Role:                m.Role,
		Status:              m.Status,
		IsSalesRep:          m.IsSalesRep,
		MaxOpenLeads:        m.MaxOpenLeads,
		LastAssignedAt:      m.LastAssignedAt,
		LastLoginAt:         m.LastLoginAt,
		FailedAttempts:      m.FailedAttempts,
		LockedUntil:         m.LockedUntil,
	}
}

// UserModelFromDomain creates a persistence model from a domain User.
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{
		Email:          u.Email,
		Name:           u.Name,
		PasswordHash:   u.PasswordHash,
		Role:           u.Role,
		Status:         u.Status,
		IsSalesRep:     u.IsSalesRep,
		MaxOpenLeads:   u.MaxOpenLeads,
		LastAssignedAt: u.LastAssignedAt,
		LastLoginAt:    u.LastLoginAt,
		FailedAttempts: u.FailedAttempts,
		LockedUntil:    u.LockedUntil,
	}
	m.FromDomainTenantAggregateRoot(u.TenantAggregateRoot)
	return m
}
