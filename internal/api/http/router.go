package http

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/api/http/handlers"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/auth"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Staff          *handlers.StaffHandler
	Users          *handlers.UsersHandler
	Documents      *handlers.DocumentsHandler
	Audit          *handlers.AuditHandler
	Files          *handlers.FilesHandler // nil unless the local storage driver is active
	AuthMiddleware *auth.AuthMiddleware
	APILimiter     *RateLimiter
	AuthLimiter    *RateLimiter
	Metrics        http.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics))
	}
	if cfg.Files != nil {
		app.Get("/files/*", cfg.Files.Download)
	}

	api := app.Group("/api")
	if cfg.APILimiter != nil {
		api.Use(cfg.APILimiter.Handle)
	}

	authGroup := api.Group("/auth")
	if cfg.AuthLimiter != nil {
		authGroup.Use(cfg.AuthLimiter.Handle)
	}
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Post("/logout", cfg.Auth.Logout)

	authed := cfg.AuthMiddleware.Handle
	admin := auth.RequireRole(domain.RoleAdmin)

	authGroup.Get("/me", authed, cfg.Auth.Me)
	authGroup.Post("/password/change", authed, cfg.Auth.ChangePassword)

	staff := api.Group("/staff", authed)
	staff.Get("/", admin, cfg.Staff.List)
	staff.Post("/", admin, cfg.Staff.Create)
	staff.Get("/export/csv", admin, cfg.Staff.ExportCSV)
	staff.Get("/:id", cfg.Staff.Get)
	staff.Patch("/:id", admin, cfg.Staff.Update)
	staff.Patch("/:id/self", cfg.Staff.SelfUpdate)

	users := api.Group("/users", authed, admin)
	users.Get("/", cfg.Users.List)
	users.Post("/", cfg.Users.Create)
	users.Patch("/:id", cfg.Users.Update)
	users.Post("/:id/reset-password", cfg.Users.ResetPassword)

	docs := api.Group("/docs", authed)
	docs.Get("/staff/:staffId", cfg.Documents.ListForStaff)
	docs.Post("/:staffId", cfg.Documents.Create)
	docs.Get("/:documentId", cfg.Documents.Get)
	docs.Patch("/:documentId", cfg.Documents.Update)
	docs.Post("/:documentId/upload", cfg.Documents.Upload)
	docs.Get("/:documentId/versions", cfg.Documents.Versions)
	docs.Get("/:documentId/signed-url", cfg.Documents.SignedURL)
	docs.Post("/:documentId/verify", admin, cfg.Documents.Verify)

	api.Get("/audit", authed, admin, cfg.Audit.List)
}
