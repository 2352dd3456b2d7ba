package crm

import (
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/shared"
)

// ContactStage is the lifecycle stage of a contact
type ContactStage string

const (
	ContactStageLead      ContactStage = "lead"
	ContactStageQualified ContactStage = "qualified"
	ContactStageProspect  ContactStage = "prospect"
	ContactStageCustomer  ContactStage = "customer"
	ContactStageLost      ContactStage = "lost"
)

// IsValid reports whether the stage is known
func (s ContactStage) IsValid() bool {
	switch s {
	case ContactStageLead, ContactStageQualified, ContactStageProspect, ContactStageCustomer, ContactStageLost:
		return true
	}
	return false
}

// IsOpen reports whether contacts in this stage count against a rep's open leads
func (s ContactStage) IsOpen() bool {
	return s == ContactStageLead || s == ContactStageQualified || s == ContactStageProspect
}

// OpenStages lists the stages that count as open leads
var OpenStages = []ContactStage{ContactStageLead, ContactStageQualified, ContactStageProspect}

// ContactSource records where a contact came from
type ContactSource string

const (
	ContactSourceWebsite  ContactSource = "website"
	ContactSourceReferral ContactSource = "referral"
	ContactSourceCampaign ContactSource = "campaign"
	ContactSourceManual   ContactSource = "manual"
	ContactSourceImport   ContactSource = "import"
	ContactSourceOther    ContactSource = "other"
)

// IsValid reports whether the source is known
func (s ContactSource) IsValid() bool {
	return slices.Contains([]ContactSource{
		ContactSourceWebsite, ContactSourceReferral, ContactSourceCampaign,
		ContactSourceManual, ContactSourceImport, ContactSourceOther,
	}, s)
}

var contactEmailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ContactProfile holds the descriptive fields of a contact
type ContactProfile struct {
	Name       string
	Email      string
	Phone      string
	Company    string
	Industry   string
	City       string
	State      string
	Country    string
	PostalCode string
	Notes      string
	Tags       []string
}

// Contact is a lead or customer of a tenant
type Contact struct {
	shared.TenantAggregateRoot
	ContactProfile
	Source       ContactSource
	Stage        ContactStage
	LeadScore    int
	AssignedToID *uuid.UUID
	AssignedAt   *time.Time
	TerritoryID  *uuid.UUID
}

// NewContact creates a contact in the lead stage
func NewContact(tenantID uuid.UUID, profile ContactProfile, source ContactSource) (*Contact, error) {
	if source == "" {
		source = ContactSourceManual
	}
	if !source.IsValid() {
		return nil, shared.NewDomainError("INVALID_SOURCE", "Invalid contact source")
	}
	profile, err := normalizeProfile(profile)
	if err != nil {
		return nil, err
	}
	return &Contact{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ContactProfile:      profile,
		Source:              source,
		Stage:               ContactStageLead,
	}, nil
}

// Update replaces the descriptive profile
func (c *Contact) Update(profile ContactProfile) error {
	profile, err := normalizeProfile(profile)
	if err != nil {
		return err
	}
	c.ContactProfile = profile
	c.MarkModified()
	return nil
}

// AssignTo routes the contact to a rep, optionally within a territory
func (c *Contact) AssignTo(repID uuid.UUID, territoryID *uuid.UUID) error {
	if repID == uuid.Nil {
		return shared.NewDomainError("INVALID_ASSIGNEE", "Assignee is required")
	}
	now := time.Now()
	c.AssignedToID = &repID
	c.AssignedAt = &now
	c.TerritoryID = territoryID
	c.MarkModified()
	return nil
}

// Unassign clears the current owner
func (c *Contact) Unassign() {
	c.AssignedToID = nil
	c.AssignedAt = nil
	c.TerritoryID = nil
	c.MarkModified()
}

// IsAssigned reports whether a rep owns the contact
func (c *Contact) IsAssigned() bool {
	return c.AssignedToID != nil
}

// IsOpenLead reports whether the contact is still being worked
func (c *Contact) IsOpenLead() bool {
	return c.Stage.IsOpen()
}

// MoveToStage transitions the contact through the funnel.
// Customers may only be marked lost; lost contacts may only be reopened as leads.
func (c *Contact) MoveToStage(stage ContactStage) error {
	if !stage.IsValid() {
		return shared.NewDomainError("INVALID_STAGE", "Invalid contact stage")
	}
	if stage == c.Stage {
		return nil
	}
	switch c.Stage {
	case ContactStageCustomer:
		if stage != ContactStageLost {
			return shared.NewDomainError("INVALID_STATE", "A customer can only be marked as lost")
		}
	case ContactStageLost:
		if stage != ContactStageLead {
			return shared.NewDomainError("INVALID_STATE", "A lost contact can only be reopened as a lead")
		}
	}
	c.Stage = stage
	c.MarkModified()
	return nil
}

// SetScore sets the lead score in the range 0..100
func (c *Contact) SetScore(score int) error {
	if score < 0 || score > 100 {
		return shared.NewDomainError("INVALID_SCORE", "Lead score must be between 0 and 100")
	}
	c.LeadScore = score
	c.MarkModified()
	return nil
}

func normalizeProfile(p ContactProfile) (ContactProfile, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Phone = strings.TrimSpace(p.Phone)
	p.Company = strings.TrimSpace(p.Company)
	p.Industry = strings.TrimSpace(p.Industry)
	p.City = strings.TrimSpace(p.City)
	p.State = strings.TrimSpace(p.State)
	p.Country = strings.TrimSpace(p.Country)
	p.PostalCode = strings.ReplaceAll(strings.TrimSpace(p.PostalCode), " ", "")

	if p.Name == "" {
		return p, shared.NewDomainError("INVALID_NAME", "Contact name cannot be empty")
	}
	if len(p.Name) > 200 {
		return p, shared.NewDomainError("INVALID_NAME", "Contact name cannot exceed 200 characters")
	}
	if p.Email != "" && !contactEmailRegex.MatchString(p.Email) {
		return p, shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	if len(p.Phone) > 50 {
		return p, shared.NewDomainError("INVALID_PHONE", "Phone cannot exceed 50 characters")
	}

	tags := make([]string, 0, len(p.Tags))
	for _, tag := range p.Tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" && !slices.Contains(tags, tag) {
			tags = append(tags, tag)
		}
	}
	p.Tags = tags
	return p, nil
}
