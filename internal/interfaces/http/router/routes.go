package router

import (
	"github.com/gin-gonic/gin"
	"github.com/payaid/backend/internal/domain/identity"
	"github.com/payaid/backend/internal/interfaces/http/handler"
	"github.com/payaid/backend/internal/interfaces/http/middleware"
)

// ModuleRequirer produces middleware that admits only tenants licensed for a module
type ModuleRequirer interface {
	Require(key identity.ModuleKey) gin.HandlerFunc
}

// Handlers bundles the HTTP handlers served under /api/v1
type Handlers struct {
	System    *handler.SystemHandler
	Auth      *handler.AuthHandler
	Tenant    *handler.TenantHandler
	User      *handler.UserHandler
	Contact   *handler.ContactHandler
	Territory *handler.TerritoryHandler
	Routing   *handler.RoutingHandler
	Deal      *handler.DealHandler
	Invoice   *handler.InvoiceHandler
	Employee  *handler.EmployeeHandler
	Project   *handler.ProjectHandler
	Knowledge *handler.KnowledgeHandler
	Assistant *handler.AssistantHandler
	Dashboard *handler.DashboardHandler
}

var (
	adminRoles   = []string{string(identity.UserRoleOwner), string(identity.UserRoleAdmin)}
	managerRoles = []string{string(identity.UserRoleOwner), string(identity.UserRoleAdmin), string(identity.UserRoleManager)}
)

// APIGroups builds the domain route groups. Each business group is guarded by its module.
func APIGroups(h *Handlers, modules ModuleRequirer) []RouteRegistrar {
	requireAdmin := middleware.RequireRole(adminRoles...)
	requireManager := middleware.RequireRole(managerRoles...)

	auth := NewDomainGroup("auth", "/auth")
	auth.POST("/register", h.Auth.Register).
		POST("/login", h.Auth.Login).
		POST("/refresh", h.Auth.RefreshToken).
		POST("/logout", h.Auth.Logout).
		GET("/me", h.Auth.GetCurrentUser).
		PUT("/password", h.Auth.ChangePassword)

	tenant := NewDomainGroup("tenant", "/tenant")
	tenant.GET("", h.Tenant.Get).
		PATCH("", requireAdmin, h.Tenant.Update).
		PUT("/modules/:module", requireAdmin, h.Tenant.EnableModule).
		DELETE("/modules/:module", requireAdmin, h.Tenant.DisableModule)

	users := NewDomainGroup("users", "/users")
	users.GET("", h.User.List).
		GET("/:id", h.User.Get).
		POST("", requireAdmin, h.User.Create).
		PUT("/:id/sales-settings", requireAdmin, h.User.UpdateSalesSettings).
		PUT("/:id/role", requireAdmin, h.User.ChangeRole).
		POST("/:id/deactivate", requireAdmin, h.User.Deactivate).
		POST("/:id/activate", requireAdmin, h.User.Activate)

	crm := NewDomainGroup("crm", "/crm").Use(modules.Require(identity.ModuleCRM))
	crm.Group("contacts", "/contacts").
		POST("", h.Contact.Create).
		GET("", h.Contact.List).
		GET("/:id", h.Contact.Get).
		PUT("/:id", h.Contact.Update).
		PUT("/:id/stage", h.Contact.MoveStage).
		PUT("/:id/assign", h.Contact.Assign).
		DELETE("/:id/assign", h.Contact.Unassign).
		DELETE("/:id", h.Contact.Delete)
	crm.Group("territories", "/territories").
		POST("", requireManager, h.Territory.Create).
		GET("", h.Territory.List).
		POST("/preview", h.Territory.PreviewMatch).
		GET("/:id", h.Territory.Get).
		PUT("/:id", requireManager, h.Territory.Update).
		DELETE("/:id", requireManager, h.Territory.Delete)
	crm.Group("routing", "/routing").
		POST("/contacts/:id", h.Routing.RouteLead).
		POST("/unassigned", requireManager, h.Routing.RouteUnassigned)
	crm.Group("deals", "/deals").
		POST("", h.Deal.Create).
		GET("", h.Deal.List).
		GET("/:id", h.Deal.Get).
		PUT("/:id", h.Deal.Update).
		PUT("/:id/stage", h.Deal.MoveStage).
		DELETE("/:id", h.Deal.Delete)

	finance := NewDomainGroup("finance", "/finance").Use(modules.Require(identity.ModuleFinance))
	finance.Group("invoices", "/invoices").
		POST("", h.Invoice.Create).
		GET("", h.Invoice.List).
		POST("/mark-overdue", requireManager, h.Invoice.MarkOverdue).
		GET("/:id", h.Invoice.Get).
		DELETE("/:id", h.Invoice.Delete).
		POST("/:id/lines", h.Invoice.AddLine).
		DELETE("/:id/lines/:line_id", h.Invoice.RemoveLine).
		POST("/:id/send", h.Invoice.Send).
		POST("/:id/payments", h.Invoice.RecordPayment).
		POST("/:id/cancel", h.Invoice.Cancel)

	hr := NewDomainGroup("hr", "/hr").Use(modules.Require(identity.ModuleHR))
	hr.Group("employees", "/employees").
		POST("", requireManager, h.Employee.Create).
		GET("", h.Employee.List).
		GET("/:id", h.Employee.Get).
		PUT("/:id", requireManager, h.Employee.Update).
		POST("/:id/status", requireManager, h.Employee.ChangeStatus).
		DELETE("/:id", requireAdmin, h.Employee.Delete)

	projects := NewDomainGroup("projects", "/projects").Use(modules.Require(identity.ModuleProjects))
	projects.POST("", h.Project.Create).
		GET("", h.Project.List).
		GET("/:id", h.Project.Get).
		PUT("/:id", h.Project.Update).
		POST("/:id/transition", h.Project.Transition).
		PUT("/:id/progress", h.Project.UpdateProgress).
		DELETE("/:id", requireManager, h.Project.Delete)

	knowledge := NewDomainGroup("knowledge", "/knowledge").Use(modules.Require(identity.ModuleKnowledge))
	knowledge.Group("documents", "/documents").
		POST("", h.Knowledge.Upload).
		POST("/text", h.Knowledge.IngestText).
		GET("", h.Knowledge.List).
		GET("/:id", h.Knowledge.Get).
		POST("/:id/reindex", h.Knowledge.Reindex).
		DELETE("/:id", h.Knowledge.Delete)
	knowledge.POST("/search", h.Knowledge.Search)

	// knowledge grounding is checked per request by the chat service
	assistant := NewDomainGroup("ai", "/ai").Use(modules.Require(identity.ModuleAIAssistant))
	assistant.POST("/chat", h.Assistant.Chat)

	dashboard := NewDomainGroup("dashboard", "/dashboard").Use(modules.Require(identity.ModuleDashboard))
	dashboard.GET("/stats", h.Dashboard.Stats)

	return []RouteRegistrar{auth, tenant, users, crm, finance, hr, projects, knowledge, assistant, dashboard}
}
