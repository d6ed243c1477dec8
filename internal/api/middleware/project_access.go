package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/good-yellow-bee/atelier/internal/api/respond"
	"github.com/good-yellow-bee/atelier/internal/models"
	"github.com/good-yellow-bee/atelier/internal/session"
)

// DesignerProject loads the {projectID} route parameter and admits the
// request only if the logged-in designer owns that project.
func (g *Gate) DesignerProject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, apiErr := respond.ParseID(chi.URLParam(r, "projectID"))
		if apiErr != nil {
			respond.JSONError(w, apiErr)
			return
		}

		state := session.FromContext(r.Context())
		project, err := g.access.DesignerProject(r.Context(), state, id)
		if err != nil {
			g.deny(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithProject(r.Context(), project)))
	})
}

// ClientProject admits a logged-in client and binds their own project.
func (g *Gate) ClientProject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state := session.FromContext(r.Context())
		project, err := g.access.ClientProject(r.Context(), state)
		if err != nil {
			g.deny(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithProject(r.Context(), project)))
	})
}

// WithProject returns ctx carrying project.
func WithProject(ctx context.Context, project *models.Project) context.Context {
	return context.WithValue(ctx, projectKey, project)
}

// GetProject returns the project bound by DesignerProject or ClientProject.
func GetProject(ctx context.Context) *models.Project {
	if p, ok := ctx.Value(projectKey).(*models.Project); ok {
		return p
	}
	return nil
}
