package crm

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/crm"
	"github.com/payaid/backend/internal/domain/identity"
	"github.com/payaid/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newContactService(f *routingFixture) *ContactService {
	return NewContactService(f.contacts, f.users, f.svc, zap.NewNop())
}

func TestContactService_Create(t *testing.T) {
	ctx := context.Background()
	f := newRoutingFixture()
	f.contacts.On("Save", ctx, mock.AnythingOfType("*crm.Contact")).Return(nil)
	svc := newContactService(f)

	score := 40
	result, err := svc.Create(ctx, f.tenantID, CreateContactInput{
		ContactInput: ContactInput{
			Name:      "  Meera Iyer ",
			Email:     "Meera@Example.com",
			Tags:      []string{"VIP", "vip", " expo "},
			LeadScore: &score,
		},
		Source: "referral",
	})
	require.NoError(t, err)
	assert.Nil(t, result.Routing)
	assert.Equal(t, "Meera Iyer", result.Contact.Name)
	assert.Equal(t, "meera@example.com", result.Contact.Email)
	assert.Equal(t, []string{"vip", "expo"}, result.Contact.Tags)
	assert.Equal(t, "lead", result.Contact.Stage)
	assert.Equal(t, "referral", result.Contact.Source)
	assert.Equal(t, 40, result.Contact.LeadScore)
	f.users.AssertNotCalled(t, "FindSalesReps", mock.Anything, mock.Anything)
}

func TestContactService_Create_Invalid(t *testing.T) {
	f := newRoutingFixture()
	svc := newContactService(f)

	_, err := svc.Create(context.Background(), f.tenantID, CreateContactInput{ContactInput: ContactInput{Name: ""}})
	assertDomainCode(t, err, "INVALID_NAME")

	_, err = svc.Create(context.Background(), f.tenantID, CreateContactInput{ContactInput: ContactInput{Name: "X"}, Source: "billboard"})
	assertDomainCode(t, err, "INVALID_SOURCE")
}

func TestContactService_Create_AutoAssign(t *testing.T) {
	ctx := context.Background()
	f := newRoutingFixture()
	rep := newRep(f.tenantID, "asha", 0)
	f.pool([]identity.User{rep}, map[uuid.UUID]int{}, nil)
	svc := newContactService(f)

	result, err := svc.Create(ctx, f.tenantID, CreateContactInput{
		ContactInput: ContactInput{Name: "Meera", State: "Goa"},
		AutoAssign:   true,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Routing)
	assert.Equal(t, rep.ID, result.Routing.RepID)
	require.NotNil(t, result.Contact.AssignedToID)
	assert.Equal(t, rep.ID, *result.Contact.AssignedToID)
}

func TestContactService_Create_AutoAssignWithoutReps(t *testing.T) {
	ctx := context.Background()
	f := newRoutingFixture()
	f.pool([]identity.User{}, map[uuid.UUID]int{}, nil)
	svc := newContactService(f)

	result, err := svc.Create(ctx, f.tenantID, CreateContactInput{
		ContactInput: ContactInput{Name: "Meera"},
		AutoAssign:   true,
	})
	require.NoError(t, err)
	assert.Nil(t, result.Routing)
	assert.Nil(t, result.Contact.AssignedToID)
	assert.Equal(t, []string{"territory:no_rep"}, f.recorder.outcomes)
}

func TestContactService_List(t *testing.T) {
	ctx := context.Background()
	f := newRoutingFixture()
	lead := newLead(t, f.tenantID, "Meera", "Goa")

	filter := ContactListFilter{ListQuery: ListQuery{Page: 1, PageSize: 10}, Stage: "lead", Unassigned: true}
	expected := filter.ToSharedFilter()
	assert.Equal(t, "true", expected.StringFilter("unassigned"))
	assert.Equal(t, "lead", expected.StringFilter("stage"))

	f.contacts.On("FindAllForTenant", ctx, f.tenantID, expected).Return([]crm.Contact{*lead}, nil)
	f.contacts.On("CountForTenant", ctx, f.tenantID, expected).Return(int64(11), nil)

	page, err := newContactService(f).List(ctx, f.tenantID, filter)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, lead.ID, page.Items[0].ID)
	assert.Equal(t, 2, page.TotalPages)
}

func TestContactService_Assign(t *testing.T) {
	ctx := context.Background()
	f := newRoutingFixture()
	lead := newLead(t, f.tenantID, "Meera", "Goa")
	rep := newRep(f.tenantID, "asha", 0)
	member := newRep(f.tenantID, "sam", 0)
	member.IsSalesRep = false

	f.contacts.On("FindByIDForTenant", ctx, f.tenantID, lead.ID).Return(lead, nil)
	f.contacts.On("Save", ctx, lead).Return(nil)
	f.users.On("FindByIDForTenant", ctx, f.tenantID, rep.ID).Return(&rep, nil)
	f.users.On("FindByIDForTenant", ctx, f.tenantID, member.ID).Return(&member, nil)
	f.users.On("Save", ctx, &rep).Return(nil)
	svc := newContactService(f)

	_, err := svc.Assign(ctx, f.tenantID, lead.ID, member.ID)
	assertDomainCode(t, err, "INVALID_ASSIGNEE")

	dto, err := svc.Assign(ctx, f.tenantID, lead.ID, rep.ID)
	require.NoError(t, err)
	require.NotNil(t, dto.AssignedToID)
	assert.Equal(t, rep.ID, *dto.AssignedToID)
	assert.NotNil(t, rep.LastAssignedAt)

	dto, err = svc.Unassign(ctx, f.tenantID, lead.ID)
	require.NoError(t, err)
	assert.Nil(t, dto.AssignedToID)
}

func TestContactService_MoveStage(t *testing.T) {
	ctx := context.Background()
	f := newRoutingFixture()
	lead := newLead(t, f.tenantID, "Meera", "Goa")
	f.contacts.On("FindByIDForTenant", ctx, f.tenantID, lead.ID).Return(lead, nil)
	f.contacts.On("Save", ctx, lead).Return(nil)
	svc := newContactService(f)

	dto, err := svc.MoveStage(ctx, f.tenantID, lead.ID, "customer")
	require.NoError(t, err)
	assert.Equal(t, "customer", dto.Stage)

	_, err = svc.MoveStage(ctx, f.tenantID, lead.ID, "qualified")
	assertDomainCode(t, err, "INVALID_STATE")

	_, err = svc.MoveStage(ctx, f.tenantID, lead.ID, "vip")
	assertDomainCode(t, err, "INVALID_STAGE")
}

func TestContactService_GetAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newRoutingFixture()
	missing := uuid.New()
	f.contacts.On("FindByIDForTenant", ctx, f.tenantID, missing).Return(nil, shared.ErrNotFound)
	f.contacts.On("DeleteForTenant", ctx, f.tenantID, missing).Return(shared.ErrNotFound)
	svc := newContactService(f)

	_, err := svc.Get(ctx, f.tenantID, missing)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, f.tenantID, missing), shared.ErrNotFound)
}
