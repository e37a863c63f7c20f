package routes

import (
	"github.com/featurepulse/backend/internal/handlers"
	"github.com/featurepulse/backend/internal/middleware"
	"github.com/featurepulse/backend/internal/services"
	"github.com/go-chi/chi/v5"
)

// SetupRoutes registers the API surface. Chart routes sit behind the
// session gate; auth routes do not.
func SetupRoutes(r *chi.Mux, sessions *services.SessionManager) {
	// Auth routes
	r.Post("/api/signup", handlers.Signup)
	r.Post("/api/login", handlers.Signin)
	r.Post("/api/logout", handlers.Signout)

	// Chart routes (session cookie required)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(sessions))
		r.Get("/api/bar-data", handlers.GetBarData)
		r.Get("/api/line-chart-data", handlers.GetLineChartData)
	})
}
