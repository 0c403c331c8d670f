package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/asiste-ing/incident-service/internal/api/http/handlers"
	"github.com/asiste-ing/incident-service/internal/auth"
	"github.com/asiste-ing/incident-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Incidents      *handlers.IncidentsHandler
	Dashboard      *handlers.DashboardHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Role guards keep the obvious
// role-constrained routes off-limits early; finer ownership checks live in
// the policy layer.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Post("/password/reset/request", cfg.Users.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Users.ConfirmPasswordReset)

	authProtected := authGroup.Group("", cfg.AuthMiddleware.Handle)
	authProtected.Post("/register", auth.RequireRole(domain.RoleAdmin), cfg.Users.Register)
	authProtected.Get("/me", cfg.Users.Me)
	authProtected.Post("/password/change", cfg.Users.ChangePassword)

	api := app.Group("/api", cfg.AuthMiddleware.Handle, auth.RequireRole())

	incidents := api.Group("/incidents")
	incidents.Post("",
		auth.RequireRole(domain.RoleAdmin, domain.RoleCoordinador, domain.RoleAdministrativo, domain.RoleJefeOperaciones),
		cfg.Incidents.Create)
	incidents.Get("", cfg.Incidents.List)
	incidents.Get("/:id", cfg.Incidents.Get)
	incidents.Get("/:id/history", cfg.Incidents.History)
	incidents.Post("/:id/assign",
		auth.RequireRole(domain.RoleAdmin, domain.RoleTechnician),
		cfg.Incidents.Assign)
	incidents.Post("/:id/reassign",
		auth.RequireRole(domain.RoleAdmin),
		cfg.Incidents.Reassign)
	incidents.Post("/:id/resolve",
		auth.RequireRole(domain.RoleTechnician),
		cfg.Incidents.Resolve)
	incidents.Post("/:id/return",
		auth.RequireRole(domain.RoleTechnician),
		cfg.Incidents.Return)
	incidents.Post("/:id/approve",
		auth.RequireRole(domain.RoleAdmin, domain.RoleCoordinador, domain.RoleAdministrativo, domain.RoleJefeOperaciones),
		cfg.Incidents.Approve)
	incidents.Post("/:id/reject",
		auth.RequireRole(domain.RoleAdmin, domain.RoleCoordinador, domain.RoleAdministrativo, domain.RoleJefeOperaciones),
		cfg.Incidents.Reject)

	dashboard := api.Group("/dashboard")
	dashboard.Get("/cities", cfg.Dashboard.Cities)
	dashboard.Get("/stations", cfg.Dashboard.StationRisks)
	dashboard.Get("/stations/:code/risk", cfg.Dashboard.StationRisk)
	dashboard.Get("/technicians", cfg.Dashboard.TechnicianRanking)
}
