package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-service/internal/api/http/handlers"
	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health *handlers.HealthHandler
	Auth   *handlers.AuthHandler
	Users  *handlers.UsersHandler
	Tasks  *handlers.TasksHandler
	Gate   *auth.Gate
}

// RegisterRoutes wires HTTP routes. The gate runs for every request; guards
// on each group decide whether an anonymous caller may continue.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Use(cfg.Gate.Handle)

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.Auth.Logout)

	users := app.Group("/users")
	users.Post("/register", cfg.Users.Register)
	users.Get("/me", auth.RequireAuthenticated(), cfg.Users.Me)

	adminOnly := auth.RequireRole(domain.RoleAdmin)
	users.Get("/", adminOnly, cfg.Users.List)
	users.Delete("/:id", adminOnly, cfg.Users.Delete)
	users.Put("/:id/role", adminOnly, cfg.Users.UpdateRole)

	tasks := app.Group("/tasks", auth.RequireAuthenticated())
	tasks.Post("/", cfg.Tasks.Create)
	tasks.Get("/", cfg.Tasks.List)
	tasks.Put("/:id", cfg.Tasks.Update)
	tasks.Delete("/:id", cfg.Tasks.Delete)
}
