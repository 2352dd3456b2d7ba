package crm

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DealStage is a step in the sales pipeline
type DealStage string

const (
	DealStageProspecting   DealStage = "prospecting"
	DealStageQualification DealStage = "qualification"
	DealStageProposal      DealStage = "proposal"
	DealStageNegotiation   DealStage = "negotiation"
	DealStageWon           DealStage = "won"
	DealStageLost          DealStage = "lost"
)

// defaultProbability is the win probability assumed for each stage, in percent
var defaultProbability = map[DealStage]int{
	DealStageProspecting:   10,
	DealStageQualification: 25,
	DealStageProposal:      50,
	DealStageNegotiation:   75,
	DealStageWon:           100,
	DealStageLost:          0,
}

// IsValid reports whether the stage is known
func (s DealStage) IsValid() bool {
	_, ok := defaultProbability[s]
	return ok
}

// IsClosed reports whether the stage is terminal
func (s DealStage) IsClosed() bool {
	return s == DealStageWon || s == DealStageLost
}

// Deal is a sales opportunity attached to a contact
type Deal struct {
	shared.TenantAggregateRoot
	ContactID         uuid.UUID
	OwnerID           *uuid.UUID
	Title             string
	Value             decimal.Decimal
	Currency          string
	Stage             DealStage
	Probability       int
	ExpectedCloseDate *time.Time
	ClosedAt          *time.Time
}

// NewDeal opens a deal in the prospecting stage
func NewDeal(tenantID, contactID uuid.UUID, title string, value decimal.Decimal, currency string) (*Deal, error) {
	d := &Deal{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ContactID:           contactID,
		Stage:               DealStageProspecting,
		Probability:         defaultProbability[DealStageProspecting],
	}
	if contactID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CONTACT", "Deal must reference a contact")
	}
	if err := d.Update(title, value, currency, nil); err != nil {
		return nil, err
	}
	d.Version = 1
	return d, nil
}

// Update edits an open deal
func (d *Deal) Update(title string, value decimal.Decimal, currency string, expectedClose *time.Time) error {
	if d.Stage.IsClosed() {
		return shared.NewDomainError("INVALID_STATE", "Closed deals cannot be edited")
	}
	title = strings.TrimSpace(title)
	if title == "" || len(title) > 200 {
		return shared.NewDomainError("INVALID_TITLE", "Deal title must be between 1 and 200 characters")
	}
	if value.IsNegative() {
		return shared.NewDomainError("INVALID_VALUE", "Deal value cannot be negative")
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "INR"
	}
	if len(currency) != 3 {
		return shared.NewDomainError("INVALID_CURRENCY", "Currency must be a 3-letter ISO code")
	}
	d.Title = title
	d.Value = value.Round(2)
	d.Currency = currency
	d.ExpectedCloseDate = expectedClose
	d.MarkModified()
	return nil
}

// SetOwner assigns the deal to a user
func (d *Deal) SetOwner(ownerID *uuid.UUID) {
	d.OwnerID = ownerID
	d.MarkModified()
}

// MoveToStage advances the deal. Won and lost are terminal.
func (d *Deal) MoveToStage(stage DealStage) error {
	if !stage.IsValid() {
		return shared.NewDomainError("INVALID_STAGE", "Invalid deal stage")
	}
	if d.Stage.IsClosed() {
		return shared.NewDomainError("INVALID_STATE", "Deal is already closed")
	}
	if stage == d.Stage {
		return nil
	}
	d.Stage = stage
	d.Probability = defaultProbability[stage]
	if stage.IsClosed() {
		now := time.Now()
		d.ClosedAt = &now
	}
	d.MarkModified()
	return nil
}

// SetProbability overrides the stage default for an open deal
func (d *Deal) SetProbability(p int) error {
	if d.Stage.IsClosed() {
		return shared.NewDomainError("INVALID_STATE", "Closed deals have a fixed probability")
	}
	if p < 0 || p > 100 {
		return shared.NewDomainError("INVALID_PROBABILITY", "Probability must be between 0 and 100")
	}
	d.Probability = p
	d.MarkModified()
	return nil
}

// WeightedValue is the value discounted by win probability
func (d *Deal) WeightedValue() decimal.Decimal {
	return d.Value.Mul(decimal.NewFromInt(int64(d.Probability))).Div(decimal.NewFromInt(100)).Round(2)
}
