package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/good-yellow-bee/atelier/internal/access"
	"github.com/good-yellow-bee/atelier/internal/api/auth"
	"github.com/good-yellow-bee/atelier/internal/api/middleware"
	"github.com/good-yellow-bee/atelier/internal/api/projects"
	"github.com/good-yellow-bee/atelier/internal/api/respond"
	"github.com/good-yellow-bee/atelier/internal/api/suppliers"
)

// setupRouter creates and configures the chi router with all routes.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	gate := middleware.NewGate(access.NewController(s.storage.Projects()), s.sessions, s.logger)

	// Global middleware
	r.Use(chimw.RequestID)
	if s.config.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.RequestLogger(s.logger, s.config.Verbose))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Recoverer(s.logger))
	r.Use(middleware.PrometheusMiddleware)

	r.Get("/health", s.health.Health)
	r.Get("/health/ready", s.health.Ready)
	if s.config.ExposeMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.LoadSession(s.sessions, s.config.SecureCookies))
		if s.config.CSRFEnabled {
			r.Use(middleware.CSRF(s.config.CSRFKey, s.config.SecureCookies, s.config.TrustedOrigins, s.logger))
		}

		r.Route("/auth", func(r chi.Router) {
			authHandler := auth.NewHandler(s.authn, s.sessions, s.lockout, s.logger)

			// Public routes with IP rate limiting
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimitByIP(s.limiter))
				r.Post("/designers/register", authHandler.RegisterDesigner)
				r.Post("/designers/login", authHandler.LoginDesigner)
				r.Post("/clients/login", authHandler.LoginClient)
			})

			r.Get("/csrf", authHandler.CSRFToken)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Post("/logout", authHandler.Logout)
				r.Get("/me", authHandler.Me)
			})
		})

		projectHandler := projects.NewHandler(s.storage, s.projects, s.files, s.config.MaxUploadBytes, s.logger)
		if s.notifier.Len() > 0 {
			projectHandler.WithEvents(s.notifier)
		}

		// Designer routes
		r.Group(func(r chi.Router) {
			r.Use(gate.RequireDesigner)

			r.Get("/projects", projectHandler.List)
			r.Post("/projects", projectHandler.Create)

			r.Route("/projects/{projectID}", func(r chi.Router) {
				r.Use(gate.DesignerProject)

				r.Get("/", projectHandler.Get)
				r.Patch("/", projectHandler.Update)
				r.Delete("/", projectHandler.Delete)

				r.Get("/tasks", projectHandler.ListTasks)
				r.Post("/tasks", projectHandler.CreateTask)
				r.Put("/tasks/{id}", projectHandler.UpdateTask)
				r.Delete("/tasks/{id}", projectHandler.DeleteTask)

				r.Get("/budget", projectHandler.ListBudget)
				r.Post("/budget", projectHandler.CreateBudgetItem)
				r.Put("/budget/{id}", projectHandler.UpdateBudgetItem)
				r.Delete("/budget/{id}", projectHandler.DeleteBudgetItem)

				r.Get("/timeline", projectHandler.ListTimeline)
				r.Post("/timeline", projectHandler.CreateMilestone)
				r.Put("/timeline/{id}", projectHandler.UpdateMilestone)
				r.Delete("/timeline/{id}", projectHandler.DeleteMilestone)

				r.Get("/files", projectHandler.ListFiles)
				r.Post("/files", projectHandler.Upload)
				r.Get("/files/{id}/content", projectHandler.Content)
				r.Delete("/files/{id}", projectHandler.DeleteFile)

				r.Get("/feedback", projectHandler.ListFeedback)

				r.Get("/notes", projectHandler.GetNote)
				r.Put("/notes", projectHandler.SaveNote)
			})

			r.Route("/suppliers", func(r chi.Router) {
				supplierHandler := suppliers.NewHandler(s.storage.Suppliers(), s.logger)

				r.Get("/", supplierHandler.Search)
				r.Get("/categories", supplierHandler.Categories)
				r.Post("/", supplierHandler.Create)
				r.Put("/{id}", supplierHandler.Update)
				r.Delete("/{id}", supplierHandler.Delete)
			})
		})

		// Client routes: the project is always the client's own.
		r.Route("/client/project", func(r chi.Router) {
			r.Use(gate.RequireClient)
			r.Use(gate.ClientProject)

			r.Get("/", projectHandler.Get)
			r.Get("/tasks", projectHandler.ListTasks)
			r.Get("/budget", projectHandler.ListBudget)
			r.Get("/timeline", projectHandler.ListTimeline)
			r.Get("/files", projectHandler.ListFiles)
			r.Get("/files/{id}/content", projectHandler.Content)
			r.Get("/feedback", projectHandler.ListFeedback)
			r.Get("/notes", projectHandler.GetNote)
			r.Post("/gallery", projectHandler.UploadGallery)
			r.Post("/feedback", projectHandler.CreateFeedback)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.JSONError(w, respond.ErrNotFound)
	})

	return r
}
