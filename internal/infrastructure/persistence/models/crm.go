package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/crm"
	"github.com/shopspring/decimal"
)

// ContactModel is the persistence model for the Contact aggregate.
type ContactModel struct {
	TenantAggregateModel
	Name         string            `gorm:"type:varchar(200);not null"`
	Email        string            `gorm:"type:varchar(200);index"`
	Phone        string            `gorm:"type:varchar(50)"`
	Company      string            `gorm:"type:varchar(200)"`
	Industry     string            `gorm:"type:varchar(100)"`
	City         string            `gorm:"type:varchar(100)"`
	State        string            `gorm:"type:varchar(100)"`
	Country      string            `gorm:"type:varchar(100)"`
	PostalCode   string            `gorm:"type:varchar(20)"`
	Notes        string            `gorm:"type:text"`
	Tags         StringList        `gorm:"type:text"`
	Source       crm.ContactSource `gorm:"type:varchar(20);not null;default:'manual'"`
	Stage        crm.ContactStage  `gorm:"type:varchar(20);not null;default:'lead';index"`
	LeadScore    int               `gorm:"not null;default:0"`
	AssignedToID *uuid.UUID        `gorm:"type:uuid;index"`
	AssignedAt   *time.Time
	TerritoryID  *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (ContactModel) TableName() string {
	return "contacts"
}

// ToDomain converts the persistence model to a domain Contact.
func (m *ContactModel) ToDomain() *crm.Contact {
	return &crm.Contact{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		ContactProfile: crm.ContactProfile{
			Name:       m.Name,
			Email:      m.Email,
			Phone:      m.Phone,
			Company:    m.Company,
			Industry:   m.Industry,
			City:       m.City,
			State:      m.State,
			Country:    m.Country,
			PostalCode: m.PostalCode,
			Notes:      m.Notes,
			Tags:       []string(m.Tags),
		},
		Source:       m.Source,
		Stage:        m.Stage,
		LeadScore:    m.LeadScore,
		AssignedToID: m.AssignedToID,
		AssignedAt:   m.AssignedAt,
		TerritoryID:  m.TerritoryID,
	}
}

// ContactModelFromDomain creates a persistence model from a domain Contact.
func ContactModelFromDomain(c *crm.Contact) *ContactModel {
	m := &ContactModel{
		Name:         c.Name,
		Email:        c.Email,
		Phone:        c.Phone,
		Company:      c.Company,
		Industry:     c.Industry,
		City:         c.City,
		State:        c.State,
		Country:      c.Country,
		PostalCode:   c.PostalCode,
		Notes:        c.Notes,
		Tags:         StringList(c.Tags),
		Source:       c.Source,
		Stage:        c.Stage,
		LeadScore:    c.LeadScore,
		AssignedToID: c.AssignedToID,
		AssignedAt:   c.AssignedAt,
		TerritoryID:  c.TerritoryID,
	}
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	return m
}

// CriteriaColumn stores territory criteria as a JSON object.
type CriteriaColumn crm.TerritoryCriteria

// Value implements driver.Valuer
func (c CriteriaColumn) Value() (driver.Value, error) {
	b, err := json.Marshal(crm.TerritoryCriteria(c))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (c *CriteriaColumn) Scan(src any) error {
	return scanJSON(src, (*crm.TerritoryCriteria)(c))
}

// TerritoryModel is the persistence model for the Territory aggregate.
type TerritoryModel struct {
	TenantAggregateModel
	Name        string         `gorm:"type:varchar(100);not null"`
	Description string         `gorm:"type:text"`
	Criteria    CriteriaColumn `gorm:"type:text;not null"`
	Priority    int            `gorm:"not null;default:0"`
	RepIDs      UUIDList       `gorm:"column:rep_ids;type:text;not null"`
	Active      bool           `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TerritoryModel) TableName() string {
	return "territories"
}

// ToDomain converts the persistence model to a domain Territory.
func (m *TerritoryModel) ToDomain() *crm.Territory {
	return &crm.Territory{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Name:                m.Name,
		Description:         m.Description,
		Criteria:            crm.TerritoryCriteria(m.Criteria),
		Priority:            m.Priority,
		RepIDs:              []uuid.UUID(m.RepIDs),
		Active:              m.Active,
	}
}

// TerritoryModelFromDomain creates a persistence model from a domain Territory.
func TerritoryModelFromDomain(t *crm.Territory) *TerritoryModel {
	m := &TerritoryModel{
		Name:        t.Name,
		Description: t.Description,
		Criteria:    CriteriaColumn(t.Criteria),
		Priority:    t.Priority,
		RepIDs:      UUIDList(t.RepIDs),
		Active:      t.Active,
	}
	m.FromDomainTenantAggregateRoot(t.TenantAggregateRoot)
	return m
}

// DealModel is the persistence model for the Deal aggregate.
type DealModel struct {
	TenantAggregateModel
	ContactID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	OwnerID           *uuid.UUID      `gorm:"type:uuid;index"`
	Title             string          `gorm:"type:varchar(200);not null"`
	Value             decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Currency          string          `gorm:"type:varchar(3);not null"`
	Stage             crm.DealStage   `gorm:"type:varchar(20);not null;index"`
	Probability       int             `gorm:"not null;default:0"`
	ExpectedCloseDate *time.Time
	ClosedAt          *time.Time
}

// TableName returns the table name for GORM
func (DealModel) TableName() string {
	return "deals"
}

// ToDomain converts the persistence model to a domain Deal.
func (m *DealModel) ToDomain() *crm.Deal {
	return &crm.Deal{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		ContactID:           m.ContactID,
		OwnerID:             m.OwnerID,
		Title:               m.Title,
		Value:               m.Value,
		Currency:            m.Currency,
		Stage:               m.Stage,
		Probability:         m.Probability,
		ExpectedCloseDate:   m.ExpectedCloseDate,
		ClosedAt:            m.ClosedAt,
	}
}

// DealModelFromDomain creates a persistence model from a domain Deal.
func DealModelFromDomain(d *crm.Deal) *DealModel {
	m := &DealModel{
		ContactID:         d.ContactID,
		OwnerID:           d.OwnerID,
		Title:             d.Title,
		Value:             d.Value,
		Currency:          d.Currency,
		Stage:             d.Stage,
		Probability:       d.Probability,
		ExpectedCloseDate: d.ExpectedCloseDate,
		ClosedAt:          d.ClosedAt,
	}
	m.FromDomainTenantAggregateRoot(d.TenantAggregateRoot)
	return m
}
