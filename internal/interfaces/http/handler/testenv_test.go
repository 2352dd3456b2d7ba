package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/payaid/backend/internal/application/assistant"
	crmapp "github.com/payaid/backend/internal/application/crm"
	financeapp "github.com/payaid/backend/internal/application/finance"
	hrapp "github.com/payaid/backend/internal/application/hr"
	identityapp "github.com/payaid/backend/internal/application/identity"
	knowledgeapp "github.com/payaid/backend/internal/application/knowledge"
	projectsapp "github.com/payaid/backend/internal/application/projects"
	reportapp "github.com/payaid/backend/internal/application/report"
	"github.com/payaid/backend/internal/domain/identity"
	"github.com/payaid/backend/internal/infrastructure/ai"
	"github.com/payaid/backend/internal/infrastructure/auth"
	"github.com/payaid/backend/internal/infrastructure/cache"
	"github.com/payaid/backend/internal/infrastructure/config"
	"github.com/payaid/backend/internal/infrastructure/extract"
	"github.com/payaid/backend/internal/infrastructure/persistence"
	"github.com/payaid/backend/internal/infrastructure/persistence/models"
	"github.com/payaid/backend/internal/infrastructure/storage"
	"github.com/payaid/backend/internal/interfaces/http/dto"
	"github.com/payaid/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

const testPassword = "S3cure-pass"

// testEnv wires real services over an in-memory sqlite database with one enterprise tenant
type testEnv struct {
	t         *testing.T
	db        *gorm.DB
	tenant    *identity.Tenant
	owner     *identity.User
	jwt       *auth.JWTService
	blacklist *auth.MemoryTokenBlacklist
	storage   *storage.MemoryObjectStorage

	tenants   *identityapp.TenantService
	auth      *identityapp.AuthService
	users     *identityapp.UserService
	contacts  *crmapp.ContactService
	routing   *crmapp.RoutingService
	territory *crmapp.TerritoryService
	deals     *crmapp.DealService
	invoices  *financeapp.InvoiceService
	employees *hrapp.EmployeeService
	projects  *projectsapp.ProjectService
	documents *knowledgeapp.DocumentService
	search    *knowledgeapp.SearchService
	chat      *assistant.ChatService
	dashboard *reportapp.DashboardService
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	log := zap.NewNop()

	tenantRepo := persistence.NewGormTenantRepository(db)
	userRepo := persistence.NewGormUserRepository(db)
	contactRepo := persistence.NewGormContactRepository(db)
	territoryRepo := persistence.NewGormTerritoryRepository(db)
	docRepo := persistence.NewGormDocumentRepository(db)
	chunkRepo := persistence.NewGormChunkRepository(db)

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		RefreshSecret:          "test-refresh-secret-key-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "payaid-test",
		MaxRefreshCount:        10,
	})
	blacklist := auth.NewMemoryTokenBlacklist()
	objects := storage.NewMemoryObjectStorage()

	env := &testEnv{
		t:         t,
		db:        db,
		jwt:       jwtService,
		blacklist: blacklist,
		storage:   objects,
	}
	env.tenants = identityapp.NewTenantService(tenantRepo, userRepo, log)
	env.auth = identityapp.NewAuthService(env.tenants, tenantRepo, userRepo, jwtService, blacklist, log)
	env.users = identityapp.NewUserService(userRepo, jwtService, blacklist, log)
	env.routing = crmapp.NewRoutingService(contactRepo, territoryRepo, userRepo, nil, log)
	env.contacts = crmapp.NewContactService(contactRepo, userRepo, env.routing, log)
	env.territory = crmapp.NewTerritoryService(territoryRepo, userRepo, log)
	env.deals = crmapp.NewDealService(persistence.NewGormDealRepository(db), contactRepo, userRepo, log)
	env.invoices = financeapp.NewInvoiceService(persistence.NewGormInvoiceRepository(db), contactRepo, log)
	env.employees = hrapp.NewEmployeeService(persistence.NewGormEmployeeRepository(db), userRepo, log)
	env.projects = projectsapp.NewProjectService(persistence.NewGormProjectRepository(db), userRepo, contactRepo, log)

	documents, err := knowledgeapp.NewDocumentService(docRepo, chunkRepo, objects, extract.New(0), nil, nil,
		knowledgeapp.Options{ChunkSize: 200}, log)
	require.NoError(t, err)
	t.Cleanup(documents.Close)
	env.documents = documents
	env.search = knowledgeapp.NewSearchService(docRepo, chunkRepo, nil, nil, knowledgeapp.SearchOptions{}, log)
	env.chat = assistant.NewChatService(tenantRepo, env.search,
		ai.NewFallbackChain([]ai.ChatProvider{ai.NewRuleBasedProvider()}), log)

	memCache := cache.NewMemoryCache()
	env.dashboard = reportapp.NewDashboardService(tenantRepo, persistence.NewGormDashboardRepository(db),
		memCache, time.Minute, nil, log)

	provisioned, err := env.tenants.Provision(t.Context(), identityapp.ProvisionInput{
		Code:          "ACME",
		Name:          "Acme Traders",
		Plan:          string(identity.TenantPlanEnterprise),
		OwnerName:     "Asha Mehta",
		OwnerEmail:    "asha@acme.in",
		OwnerPassword: testPassword,
	})
	require.NoError(t, err)
	env.tenant = provisioned.Tenant
	env.owner = provisioned.Owner
	return env
}

// authAs stands in for JWTAuth and TenantContext
func authAs(tenantID, userID uuid.UUID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.TenantIDKey, tenantID)
		c.Set(middleware.UserIDKey, userID)
		c.Set(middleware.UserRoleKey, role)
		c.Next()
	}
}

// ownerRouter returns an engine whose requests act as the tenant owner under /api/v1
func (e *testEnv) ownerRouter(register func(rg *gin.RouterGroup)) *gin.Engine {
	return e.routerAs(e.owner.ID, string(identity.UserRoleOwner), register)
}

func (e *testEnv) routerAs(userID uuid.UUID, role string, register func(rg *gin.RouterGroup)) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestID(), authAs(e.tenant.ID, userID, role))
	register(engine.Group("/api/v1"))
	return engine
}

// createRep adds an active sales rep to the tenant
func (e *testEnv) createRep(name, email string) *identityapp.UserDTO {
	e.t.Helper()
	isRep := true
	rep, err := e.users.Create(e.t.Context(), e.tenant.ID, identityapp.CreateUserInput{
		Email:        email,
		Name:         name,
		Password:     testPassword,
		Role:         string(identity.UserRoleSalesRep),
		IsSalesRep:   &isRep,
		MaxOpenLeads: 50,
		CreatedBy:    e.owner.ID,
	})
	require.NoError(e.t, err)
	return rep
}

func performRequest(router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// envelope mirrors dto.Response with a typed data field
type envelope[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data"`
	Error   *dto.ErrorInfo `json:"error"`
	Meta    *dto.Meta      `json:"meta"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var resp envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// errorCode returns the error code of a failed response
func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	resp := decode[json.RawMessage](t, w)
	require.False(t, resp.Success, w.Body.String())
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

// seedContact creates a lead directly through the service
func (e *testEnv) seedContact(name string) uuid.UUID {
	e.t.Helper()
	result, err := e.contacts.Create(e.t.Context(), e.tenant.ID, crmapp.CreateContactInput{
		ContactInput: crmapp.ContactInput{Name: name, City: "Mumbai", State: "Maharashtra"},
		Source:       "manual",
		CreatedBy:    e.owner.ID,
	})
	require.NoError(e.t, err)
	return result.Contact.ID
}
