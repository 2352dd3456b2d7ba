package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	crmapp "github.com/payaid/backend/internal/application/crm"
	"github.com/payaid/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerCRM(env *testEnv) func(rg *gin.RouterGroup) {
	return func(rg *gin.RouterGroup) {
		contacts := NewContactHandler(env.contacts)
		territories := NewTerritoryHandler(env.territory)
		routing := NewRoutingHandler(env.routing)
		deals := NewDealHandler(env.deals)

		crm := rg.Group("/crm")
		crm.POST("/contacts", contacts.Create)
		crm.GET("/contacts", contacts.List)
		crm.GET("/contacts/:id", contacts.Get)
		crm.PUT("/contacts/:id", contacts.Update)
		crm.DELETE("/contacts/:id", contacts.Delete)
		crm.PUT("/contacts/:id/stage", contacts.MoveStage)
		crm.PUT("/contacts/:id/assign", contacts.Assign)
		crm.DELETE("/contacts/:id/assign", contacts.Unassign)

		crm.POST("/territories", territories.Create)
		crm.GET("/territories", territories.List)
		crm.POST("/territories/preview", territories.PreviewMatch)
		crm.GET("/territories/:id", territories.Get)
		crm.PUT("/territories/:id", territories.Update)
		crm.DELETE("/territories/:id", territories.Delete)

		crm.POST("/routing/contacts/:id", routing.RouteLead)
		crm.POST("/routing/unassigned", routing.RouteUnassigned)

		crm.POST("/deals", deals.Create)
		crm.GET("/deals", deals.List)
		crm.GET("/deals/:id", deals.Get)
		crm.PUT("/deals/:id", deals.Update)
		crm.PUT("/deals/:id/stage", deals.MoveStage)
		crm.DELETE("/deals/:id", deals.Delete)
	}
}

func createContact(t *testing.T, router *gin.Engine, req CreateContactRequest) crmapp.ContactResult {
	t.Helper()
	w := performRequest(router, http.MethodPost, "/api/v1/crm/contacts", req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[crmapp.ContactResult](t, w).Data
}

func TestContactHandler(t *testing.T) {
	env := newTestEnv(t)
	router := env.ownerRouter(registerCRM(env))

	t.Run("create and get", func(t *testing.T) {
		result := createContact(t, router, CreateContactRequest{
			ContactRequest: ContactRequest{Name: "Priya Sharma", Email: "priya@sharmaexports.in", City: "Surat"},
			Source:         "website",
		})

		assert.Equal(t, "lead", result.Contact.Stage)
		assert.Equal(t, "website", result.Contact.Source)
		assert.Nil(t, result.Routing)

		w := performRequest(router, http.MethodGet, "/api/v1/crm/contacts/"+result.Contact.ID.String(), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Priya Sharma", decode[crmapp.ContactDTO](t, w).Data.Name)
	})

	t.Run("validation errors name the field", func(t *testing.T) {
		w := performRequest(router, http.MethodPost, "/api/v1/crm/contacts", map[string]any{
			"email":  "not-an-email",
			"source": "billboard",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode[any](t, w)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.NotEmpty(t, resp.Error.Details)
	})

	t.Run("unknown contact is 404", func(t *testing.T) {
		w := performRequest(router, http.MethodGet, "/api/v1/crm/contacts/"+uuid.NewString(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, dto.ErrCodeNotFound, errorCode(t, w))
	})

	t.Run("malformed id is 400", func(t *testing.T) {
		w := performRequest(router, http.MethodGet, "/api/v1/crm/contacts/abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("stage transitions", func(t *testing.T) {
		contact := createContact(t, router, CreateContactRequest{ContactRequest: ContactRequest{Name: "Vikram Rao"}}).Contact
		path := "/api/v1/crm/contacts/" + contact.ID.String() + "/stage"

		w := performRequest(router, http.MethodPut, path, MoveStageRequest{Stage: "customer"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "customer", decode[crmapp.ContactDTO](t, w).Data.Stage)

		w = performRequest(router, http.MethodPut, path, MoveStageRequest{Stage: "qualified"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidState, errorCode(t, w))

		w = performRequest(router, http.MethodPut, path, MoveStageRequest{Stage: "archived"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("list filters and paginates", func(t *testing.T) {
		for _, name := range []string{"Meera Nair", "Meera Pillai", "Arjun Das"} {
			createContact(t, router, CreateContactRequest{ContactRequest: ContactRequest{Name: name}})
		}

		w := performRequest(router, http.MethodGet, "/api/v1/crm/contacts?search=Meera&page_size=1", nil)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := decode[[]crmapp.ContactDTO](t, w)
		assert.Len(t, resp.Data, 1)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(2), resp.Meta.Total)
		assert.Equal(t, 2, resp.Meta.TotalPages)

		w = performRequest(router, http.MethodGet, "/api/v1/crm/contacts?stage=won", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("assign, unassign and delete", func(t *testing.T) {
		rep := env.createRep("Kiran Shah", "kiran@acme.in")
		contact := createContact(t, router, CreateContactRequest{ContactRequest: ContactRequest{Name: "Farah Khan"}}).Contact
		base := "/api/v1/crm/contacts/" + contact.ID.String()

		w := performRequest(router, http.MethodPut, base+"/assign", AssignContactRequest{RepID: rep.ID})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assigned := decode[crmapp.ContactDTO](t, w).Data
		require.NotNil(t, assigned.AssignedToID)
		assert.Equal(t, rep.ID, *assigned.AssignedToID)

		w = performRequest(router, http.MethodPut, base+"/assign", AssignContactRequest{RepID: env.owner.ID})
		assert.Equal(t, http.StatusBadRequest, w.Code, "the owner is not a sales rep")

		w = performRequest(router, http.MethodDelete, base+"/assign", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, decode[crmapp.ContactDTO](t, w).Data.AssignedToID)

		w = performRequest(router, http.MethodDelete, base, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
		w = performRequest(router, http.MethodGet, base, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestContactHandler_TenantIsolation(t *testing.T) {
	env := newTestEnv(t)
	router := env.ownerRouter(registerCRM(env))
	contact := createContact(t, router, CreateContactRequest{ContactRequest: ContactRequest{Name: "Priya Sharma"}}).Contact

	other := gin.New()
	other.Use(authAs(uuid.New(), uuid.New(), "owner"))
	registerCRM(env)(other.Group("/api/v1"))

	w := performRequest(other, http.MethodGet, "/api/v1/crm/contacts/"+contact.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performRequest(other, http.MethodGet, "/api/v1/crm/contacts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]crmapp.ContactDTO](t, w).Data)
}

func TestTerritoryAndRoutingHandlers(t *testing.T) {
	env := newTestEnv(t)
	router := env.ownerRouter(registerCRM(env))
	west := env.createRep("Kiran Shah", "kiran@acme.in")
	south := env.createRep("Lakshmi Iyer", "lakshmi@acme.in")

	w := performRequest(router, http.MethodPost, "/api/v1/crm/territories", TerritoryRequest{
		Name:     "Maharashtra",
		Criteria: TerritoryCriteriaRequest{States: []string{"Maharashtra"}},
		RepIDs:   []uuid.UUID{west.ID},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	maharashtra := decode[crmapp.TerritoryDTO](t, w).Data
	assert.True(t, maharashtra.Active)

	w = performRequest(router, http.MethodPost, "/api/v1/crm/territories", TerritoryRequest{
		Name:     "Pune",
		Criteria: TerritoryCriteriaRequest{States: []string{"Maharashtra"}, Cities: []string{"Pune"}},
		RepIDs:   []uuid.UUID{south.ID},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	pune := decode[crmapp.TerritoryDTO](t, w).Data

	t.Run("unknown reps are rejected", func(t *testing.T) {
		w := performRequest(router, http.MethodPost, "/api/v1/crm/territories", TerritoryRequest{
			Name:   "Ghost",
			RepIDs: []uuid.UUID{uuid.New()},
		})
		assert.GreaterOrEqual(t, w.Code, http.StatusBadRequest)
		assert.Less(t, w.Code, http.StatusInternalServerError)
	})

	t.Run("preview picks the most specific match", func(t *testing.T) {
		w := performRequest(router, http.MethodPost, "/api/v1/crm/territories/preview", ContactRequest{
			Name: "Preview", City: "pune", State: "maharashtra",
		})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		preview := decode[crmapp.MatchPreview](t, w).Data
		assert.Len(t, preview.Matches, 2)
		require.NotNil(t, preview.Best)
		assert.Equal(t, pune.ID, preview.Best.ID)
	})

	t.Run("auto assign on create routes by territory", func(t *testing.T) {
		result := createContact(t, router, CreateContactRequest{
			ContactRequest: ContactRequest{Name: "Rohan Kulkarni", City: "Mumbai", State: "Maharashtra"},
			AutoAssign:     true,
			Strategy:       "territory",
		})

		require.NotNil(t, result.Routing)
		assert.Equal(t, west.ID, result.Routing.RepID)
		require.NotNil(t, result.Routing.TerritoryID)
		assert.Equal(t, maharashtra.ID, *result.Routing.TerritoryID)
		assert.Equal(t, "territory_match", result.Routing.Reason)
	})

	t.Run("route a single lead", func(t *testing.T) {
		contact := createContact(t, router, CreateContactRequest{
			ContactRequest: ContactRequest{Name: "Sneha Patil", City: "Pune", State: "Maharashtra"},
		}).Contact

		w := performRequest(router, http.MethodPost, "/api/v1/crm/routing/contacts/"+contact.ID.String(), nil)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		routed := decode[crmapp.RoutingResult](t, w).Data
		assert.Equal(t, south.ID, routed.RepID)
		assert.Equal(t, "Lakshmi Iyer", routed.RepName)
	})

	t.Run("invalid strategy", func(t *testing.T) {
		contact := createContact(t, router, CreateContactRequest{ContactRequest: ContactRequest{Name: "Anil"}}).Contact

		w := performRequest(router, http.MethodPost, "/api/v1/crm/routing/contacts/"+contact.ID.String(),
			RouteLeadRequest{Strategy: "random"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("batch routing balances the unassigned leads", func(t *testing.T) {
		w := performRequest(router, http.MethodPost, "/api/v1/crm/routing/unassigned", RouteUnassignedRequest{
			Strategy: "least_loaded",
		})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		batch := decode[crmapp.BatchRoutingResult](t, w).Data
		assert.Equal(t, "least_loaded", batch.Strategy)
		assert.Equal(t, batch.Considered, len(batch.Routed)+len(batch.Unrouted))
		assert.Empty(t, batch.Unrouted)

		w = performRequest(router, http.MethodGet, "/api/v1/crm/contacts?unassigned=true", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decode[[]crmapp.ContactDTO](t, w).Data)
	})

	t.Run("limit is bounded", func(t *testing.T) {
		w := performRequest(router, http.MethodPost, "/api/v1/crm/routing/unassigned", RouteUnassignedRequest{Limit: 501})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("deactivate and delete a territory", func(t *testing.T) {
		inactive := false
		w := performRequest(router, http.MethodPut, "/api/v1/crm/territories/"+pune.ID.String(), TerritoryRequest{
			Name:     "Pune",
			Criteria: TerritoryCriteriaRequest{Cities: []string{"Pune"}},
			Active:   &inactive,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.False(t, decode[crmapp.TerritoryDTO](t, w).Data.Active)

		w = performRequest(router, http.MethodGet, "/api/v1/crm/territories?active=true", nil)
		require.Equal(t, http.StatusOK, w.Code)
		active := decode[[]crmapp.TerritoryDTO](t, w).Data
		require.Len(t, active, 1)
		assert.Equal(t, maharashtra.ID, active[0].ID)

		w = performRequest(router, http.MethodDelete, "/api/v1/crm/territories/"+pune.ID.String(), nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestDealHandler(t *testing.T) {
	env := newTestEnv(t)
	router := env.ownerRouter(registerCRM(env))
	rep := env.createRep("Kiran Shah", "kiran@acme.in")
	contact := createContact(t, router, CreateContactRequest{ContactRequest: ContactRequest{Name: "Sharma Exports"}}).Contact
	w := performRequest(router, http.MethodPut, "/api/v1/crm/contacts/"+contact.ID.String()+"/assign", AssignContactRequest{RepID: rep.ID})
	require.Equal(t, http.StatusOK, w.Code)

	var deal crmapp.DealDTO
	t.Run("create defaults the owner to the contact's rep", func(t *testing.T) {
		w := performRequest(router, http.MethodPost, "/api/v1/crm/deals", CreateDealRequest{
			ContactID:         contact.ID,
			Title:             "Annual AMC renewal",
			Value:             decimal.RequireFromString("250000.00"),
			Currency:          "INR",
			ExpectedCloseDate: "2026-03-31",
		})

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		deal = decode[crmapp.DealDTO](t, w).Data
		require.NotNil(t, deal.OwnerID)
		assert.Equal(t, rep.ID, *deal.OwnerID)
		assert.Equal(t, "prospecting", deal.Stage)
		assert.True(t, deal.Value.Equal(decimal.NewFromInt(250000)))
		require.NotNil(t, deal.ExpectedCloseDate)
		assert.Equal(t, "2026-03-31", deal.ExpectedCloseDate.Format(dateLayout))
	})

	t.Run("rejects a malformed close date", func(t *testing.T) {
		w := performRequest(router, http.MethodPost, "/api/v1/crm/deals", map[string]any{
			"contact_id":          contact.ID,
			"title":               "Bad date",
			"expected_close_date": "31/03/2026",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown contact", func(t *testing.T) {
		w := performRequest(router, http.MethodPost, "/api/v1/crm/deals", CreateDealRequest{
			ContactID: uuid.New(),
			Title:     "Orphan",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("update probability", func(t *testing.T) {
		probability := 60
		w := performRequest(router, http.MethodPut, "/api/v1/crm/deals/"+deal.ID.String(), UpdateDealRequest{
			Title:       deal.Title,
			Value:       decimal.NewFromInt(300000),
			Probability: &probability,
		})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		updated := decode[crmapp.DealDTO](t, w).Data
		assert.Equal(t, 60, updated.Probability)
		assert.True(t, updated.WeightedValue.Equal(decimal.NewFromInt(180000)))
	})

	t.Run("win then refuse further moves", func(t *testing.T) {
		path := "/api/v1/crm/deals/" + deal.ID.String() + "/stage"

		w := performRequest(router, http.MethodPut, path, MoveStageRequest{Stage: "won"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		won := decode[crmapp.DealDTO](t, w).Data
		assert.Equal(t, 100, won.Probability)
		assert.NotNil(t, won.ClosedAt)

		w = performRequest(router, http.MethodPut, path, MoveStageRequest{Stage: "negotiation"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("list by stage", func(t *testing.T) {
		w := performRequest(router, http.MethodGet, "/api/v1/crm/deals?stage=won", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]crmapp.DealDTO](t, w).Data, 1)

		w = performRequest(router, http.MethodGet, "/api/v1/crm/deals?stage=proposal", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decode[[]crmapp.DealDTO](t, w).Data)
	})
}
