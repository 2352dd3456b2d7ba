package crm

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/crm"
	"github.com/payaid/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ListQuery carries paging and search options shared by the CRM lists
type ListQuery struct {
	Page     int
	PageSize int
	SortBy   string
	SortDir  string
	Keyword  string
}

func (q ListQuery) toFilter() shared.Filter {
	return shared.Filter{
		Page:     q.Page,
		PageSize: q.PageSize,
		OrderBy:  q.SortBy,
		OrderDir: q.SortDir,
		Search:   strings.TrimSpace(q.Keyword),
		Filters:  map[string]any{},
	}
}

// ContactInput holds the editable fields of a contact
type ContactInput struct {
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
	LeadScore  *int
}

// Profile converts the input to the domain profile
func (in ContactInput) Profile() crm.ContactProfile {
	return crm.ContactProfile{
		Name:       in.Name,
		Email:      in.Email,
		Phone:      in.Phone,
		Company:    in.Company,
		Industry:   in.Industry,
		City:       in.City,
		State:      in.State,
		Country:    in.Country,
		PostalCode: in.PostalCode,
		Notes:      in.Notes,
		Tags:       in.Tags,
	}
}

// CreateContactInput creates a contact and optionally routes it
type CreateContactInput struct {
	ContactInput
	Source     string
	AutoAssign bool
	Strategy   string
	CreatedBy  uuid.UUID
}

// ContactListFilter narrows a contact listing
type ContactListFilter struct {
	ListQuery
	Stage      string
	Source     string
	AssignedTo string
	Unassigned bool
}

// ToSharedFilter converts the filter for the repository
func (f ContactListFilter) ToSharedFilter() shared.Filter {
	filter := f.toFilter()
	if f.Stage != "" {
		filter.Filters["stage"] = f.Stage
	}
	if f.Source != "" {
		filter.Filters["source"] = f.Source
	}
	if f.AssignedTo != "" {
		filter.Filters["assigned_to"] = f.AssignedTo
	}
	if f.Unassigned {
		filter.Filters["unassigned"] = "true"
	}
	return filter.Normalize()
}

// ContactDTO is the API view of a contact
type ContactDTO struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	Company      string     `json:"company,omitempty"`
	Industry     string     `json:"industry,omitempty"`
	City         string     `json:"city,omitempty"`
	State        string     `json:"state,omitempty"`
	Country      string     `json:"country,omitempty"`
	PostalCode   string     `json:"postal_code,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	Tags         []string   `json:"tags"`
	Source       string     `json:"source"`
	Stage        string     `json:"stage"`
	LeadScore    int        `json:"lead_score"`
	AssignedToID *uuid.UUID `json:"assigned_to_id,omitempty"`
	AssignedAt   *time.Time `json:"assigned_at,omitempty"`
	TerritoryID  *uuid.UUID `json:"territory_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Version      int        `json:"version"`
}

// ToContactDTO converts a domain contact
func ToContactDTO(c *crm.Contact) ContactDTO {
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	return ContactDTO{
		ID:           c.ID,
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
		Tags:         tags,
		Source:       string(c.Source),
		Stage:        string(c.Stage),
		LeadScore:    c.LeadScore,
		AssignedToID: c.AssignedToID,
		AssignedAt:   c.AssignedAt,
		TerritoryID:  c.TerritoryID,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
		Version:      c.Version,
	}
}

// ContactResult is a contact together with the routing outcome, if any
type ContactResult struct {
	Contact ContactDTO     `json:"contact"`
	Routing *RoutingResult `json:"routing,omitempty"`
}

// TerritoryInput holds the editable fields of a territory
type TerritoryInput struct {
	Name        string
	Description string
	Criteria    crm.TerritoryCriteria
	Priority    int
	RepIDs      []uuid.UUID
	Active      *bool
}

// TerritoryListFilter narrows a territory listing
type TerritoryListFilter struct {
	ListQuery
	Active *bool
}

// ToSharedFilter converts the filter for the repository
func (f TerritoryListFilter) ToSharedFilter() shared.Filter {
	filter := f.toFilter()
	if f.Active != nil {
		if *f.Active {
			filter.Filters["active"] = "true"
		} else {
			filter.Filters["active"] = "false"
		}
	}
	return filter.Normalize()
}

// TerritoryDTO is the API view of a territory
type TerritoryDTO struct {
	ID          uuid.UUID             `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	Criteria    crm.TerritoryCriteria `json:"criteria"`
	Specificity int                   `json:"specificity"`
	Priority    int                   `json:"priority"`
	RepIDs      []uuid.UUID           `json:"rep_ids"`
	Active      bool                  `json:"active"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// ToTerritoryDTO converts a domain territory
func ToTerritoryDTO(t *crm.Territory) TerritoryDTO {
	reps := t.RepIDs
	if reps == nil {
		reps = []uuid.UUID{}
	}
	return TerritoryDTO{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Criteria:    t.Criteria,
		Specificity: t.Criteria.Specificity(),
		Priority:    t.Priority,
		RepIDs:      reps,
		Active:      t.Active,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// MatchPreview lists the territories a contact would fall into, best first
type MatchPreview struct {
	Matches []TerritoryDTO `json:"matches"`
	Best    *TerritoryDTO  `json:"best,omitempty"`
}

// RoutingResult explains one routing decision
type RoutingResult struct {
	ContactID   uuid.UUID  `json:"contact_id"`
	RepID       uuid.UUID  `json:"rep_id"`
	RepName     string     `json:"rep_name"`
	TerritoryID *uuid.UUID `json:"territory_id,omitempty"`
	Strategy    string     `json:"strategy"`
	Reason      string     `json:"reason"`
}

// BatchRoutingResult summarizes a bulk routing run
type BatchRoutingResult struct {
	Strategy   string          `json:"strategy"`
	Considered int             `json:"considered"`
	Routed     []RoutingResult `json:"routed"`
	Unrouted   []uuid.UUID     `json:"unrouted"`
}

// CreateDealInput opens a deal for a contact
type CreateDealInput struct {
	ContactID         uuid.UUID
	Title             string
	Value             decimal.Decimal
	Currency          string
	OwnerID           *uuid.UUID
	ExpectedCloseDate *time.Time
	CreatedBy         uuid.UUID
}

// UpdateDealInput edits an open deal
type UpdateDealInput struct {
	Title             string
	Value             decimal.Decimal
	Currency          string
	ExpectedCloseDate *time.Time
	Probability       *int
	OwnerID           *uuid.UUID
}

// DealListFilter narrows a deal listing
type DealListFilter struct {
	ListQuery
	Stage     string
	OwnerID   string
	ContactID string
}

// ToSharedFilter converts the filter for the repository
func (f DealListFilter) ToSharedFilter() shared.Filter {
	filter := f.toFilter()
	if f.Stage != "" {
		filter.Filters["stage"] = f.Stage
	}
	if f.OwnerID != "" {
		filter.Filters["owner_id"] = f.OwnerID
	}
	if f.ContactID != "" {
		filter.Filters["contact_id"] = f.ContactID
	}
	return filter.Normalize()
}

// DealDTO is the API view of a deal
type DealDTO struct {
	ID                uuid.UUID       `json:"id"`
	ContactID         uuid.UUID       `json:"contact_id"`
	OwnerID           *uuid.UUID      `json:"owner_id,omitempty"`
	Title             string          `json:"title"`
	Value             decimal.Decimal `json:"value"`
	WeightedValue     decimal.Decimal `json:"weighted_value"`
	Currency          string          `json:"currency"`
	Stage             string          `json:"stage"`
	Probability       int             `json:"probability"`
	ExpectedCloseDate *time.Time      `json:"expected_close_date,omitempty"`
	ClosedAt          *time.Time      `json:"closed_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ToDealDTO converts a domain deal
func ToDealDTO(d *crm.Deal) DealDTO {
	return DealDTO{
		ID:                d.ID,
		ContactID:         d.ContactID,
		OwnerID:           d.OwnerID,
		Title:             d.Title,
		Value:             d.Value,
		WeightedValue:     d.WeightedValue(),
		Currency:          d.Currency,
		Stage:             string(d.Stage),
		Probability:       d.Probability,
		ExpectedCloseDate: d.ExpectedCloseDate,
		ClosedAt:          d.ClosedAt,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

func mapSlice[T, D any](items []T, convert func(*T) D) []D {
	out := make([]D, len(items))
	for i := range items {
		out[i] = convert(&items[i])
	}
	return out
}
