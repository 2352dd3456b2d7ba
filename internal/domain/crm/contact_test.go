package crm

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContact(t *testing.T) {
	contact, err := NewContact(uuid.New(), ContactProfile{
		Name:       "  Ravi Kumar ",
		Email:      "Ravi@Example.COM",
		PostalCode: "560 001",
		Tags:       []string{"VIP", "vip", " "},
	}, "")
	require.NoError(t, err)

	assert.Equal(t, "Ravi Kumar", contact.Name)
	assert.Equal(t, "ravi@example.com", contact.Email)
	assert.Equal(t, "560001", contact.PostalCode)
	assert.Equal(t, []string{"vip"}, contact.Tags)
	assert.Equal(t, ContactSourceManual, contact.Source)
	assert.Equal(t, ContactStageLead, contact.Stage)
	assert.True(t, contact.IsOpenLead())

	_, err = NewContact(uuid.New(), ContactProfile{Name: ""}, ContactSourceWebsite)
	assert.Error(t, err)
	_, err = NewContact(uuid.New(), ContactProfile{Name: "X", Email: "nope"}, ContactSourceWebsite)
	assert.Error(t, err)
	_, err = NewContact(uuid.New(), ContactProfile{Name: "X"}, "billboard")
	assert.Error(t, err)
}

func TestContact_StageTransitions(t *testing.T) {
	contact, err := NewContact(uuid.New(), ContactProfile{Name: "Asha"}, ContactSourceReferral)
	require.NoError(t, err)

	require.NoError(t, contact.MoveToStage(ContactStageQualified))
	require.NoError(t, contact.MoveToStage(ContactStageCustomer))
	assert.False(t, contact.IsOpenLead())

	assert.Error(t, contact.MoveToStage(ContactStageLead), "customers cannot go back to lead")
	require.NoError(t, contact.MoveToStage(ContactStageLost))
	assert.Error(t, contact.MoveToStage(ContactStageProspect))
	require.NoError(t, contact.MoveToStage(ContactStageLead))

	assert.Error(t, contact.MoveToStage("archived"))
}

func TestContact_Assignment(t *testing.T) {
	contact, err := NewContact(uuid.New(), ContactProfile{Name: "Asha"}, ContactSourceReferral)
	require.NoError(t, err)

	assert.Error(t, contact.AssignTo(uuid.Nil, nil))

	rep := uuid.New()
	territory := uuid.New()
	require.NoError(t, contact.AssignTo(rep, &territory))
	assert.True(t, contact.IsAssigned())
	assert.NotNil(t, contact.AssignedAt)
	assert.Equal(t, territory, *contact.TerritoryID)

	contact.Unassign()
	assert.False(t, contact.IsAssigned())
	assert.Nil(t, contact.TerritoryID)
}

func TestContact_SetScore(t *testing.T) {
	contact, err := NewContact(uuid.New(), ContactProfile{Name: "Asha"}, ContactSourceReferral)
	require.NoError(t, err)
	require.NoError(t, contact.SetScore(80))
	assert.Error(t, contact.SetScore(101))
}

func TestDeal_Lifecycle(t *testing.T) {
	deal, err := NewDeal(uuid.New(), uuid.New(), "Annual license", decimal.NewFromFloat(120000.456), "inr")
	require.NoError(t, err)

	assert.Equal(t, 1, deal.Version)
	assert.Equal(t, "INR", deal.Currency)
	assert.True(t, deal.Value.Equal(decimal.RequireFromString("120000.46")))
	assert.Equal(t, 10, deal.Probability)
	assert.True(t, deal.WeightedValue().Equal(decimal.RequireFromString("12000.05")))

	require.NoError(t, deal.MoveToStage(DealStageNegotiation))
	assert.Equal(t, 75, deal.Probability)
	require.NoError(t, deal.SetProbability(90))

	require.NoError(t, deal.MoveToStage(DealStageWon))
	assert.NotNil(t, deal.ClosedAt)
	assert.Equal(t, 100, deal.Probability)

	assert.Error(t, deal.MoveToStage(DealStageLost))
	assert.Error(t, deal.Update("x", decimal.Zero, "INR", nil))
	assert.Error(t, deal.SetProbability(10))
}

func TestDeal_Validation(t *testing.T) {
	_, err := NewDeal(uuid.New(), uuid.Nil, "x", decimal.Zero, "INR")
	assert.Error(t, err)
	_, err = NewDeal(uuid.New(), uuid.New(), "x", decimal.NewFromInt(-1), "INR")
	assert.Error(t, err)
	_, err = NewDeal(uuid.New(), uuid.New(), "x", decimal.Zero, "RUPEES")
	assert.Error(t, err)
}
