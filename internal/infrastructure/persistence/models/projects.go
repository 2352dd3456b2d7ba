package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/projects"
	"github.com/shopspring/decimal"
)

// ProjectModel is the persistence model for the Project aggregate.
type ProjectModel struct {
	TenantAggregateModel
	Code        string                 `gorm:"type:varchar(50);not null;index"`
	Name        string                 `gorm:"type:varchar(200);not null"`
	Description string                 `gorm:"type:text"`
	Status      projects.ProjectStatus `gorm:"type:varchar(20);not null;default:'planned';index"`
	Budget      decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	StartDate   *time.Time             `gorm:"type:date"`
	EndDate     *time.Time             `gorm:"type:date"`
	ManagerID   *uuid.UUID             `gorm:"type:uuid;index"`
	ContactID   *uuid.UUID             `gorm:"type:uuid"`
	Progress    int                    `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ProjectModel) TableName() string {
	return "projects"
}

// ToDomain converts the persistence model to a domain Project.
func (m *ProjectModel) ToDomain() *projects.Project {
	return &projects.Project{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Code:                m.Code,
		Name:                m.Name,
		Description:         m.Description,
		Status:              m.Status,
		Budget:              m.Budget,
		StartDate:           m.StartDate,
		EndDate:             m.EndDate,
		ManagerID:           m.ManagerID,
		ContactID:           m.ContactID,
		Progress:            m.Progress,
	}
}

// ProjectModelFromDomain creates a persistence model from a domain Project.
func ProjectModelFromDomain(p *projects.Project) *ProjectModel {
	m := &ProjectModel{
		Code:        p.Code,
		Name:        p.Name,
		Description: p.Description,
		Status:      p.Status,
		Budget:      p.Budget,
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		ManagerID:   p.ManagerID,
		ContactID:   p.ContactID,
		Progress:    p.Progress,
	}
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	return m
}
