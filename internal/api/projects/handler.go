// Package projects serves a project and its records to the owning designer
// and to the project's client.
package projects

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/good-yellow-bee/atelier/internal/api/middleware"
	"github.com/good-yellow-bee/atelier/internal/api/respond"
	"github.com/good-yellow-bee/atelier/internal/files"
	"github.com/good-yellow-bee/atelier/internal/models"
	projectsvc "github.com/good-yellow-bee/atelier/internal/projects"
	"github.com/good-yellow-bee/atelier/internal/session"
	"github.com/good-yellow-bee/atelier/internal/storage"
)

// Handler handles project endpoints.
type Handler struct {
	store     storage.Storage
	svc       *projectsvc.Service
	files     *files.Manager
	maxUpload int64
	events    Events
	logger    *zap.SugaredLogger
}

// NewHandler creates a new projects handler. maxUpload caps multipart
// request bodies in bytes.
func NewHandler(store storage.Storage, svc *projectsvc.Service, fm *files.Manager, maxUpload int64, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		store:     store,
		svc:       svc,
		files:     fm,
		maxUpload: maxUpload,
		logger:    logger,
	}
}

// Overview is a project with its progress and budget totals.
type Overview struct {
	*models.Project
	Completion float64              `json:"completion_percent"`
	Budget     models.BudgetSummary `json:"budget"`
	Client     *models.User         `json:"client,omitempty"`
}

// List handles GET /api/v1/projects.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	designerID := session.FromContext(r.Context()).CurrentUserID()

	projects, err := h.store.Projects().ListByDesigner(r.Context(), designerID)
	if err != nil {
		respond.Err(w, h.logger, "list projects", err)
		return
	}
	if projects == nil {
		projects = []*models.Project{}
	}

	respond.OK(w, map[string]any{
		"items": projects,
		"total": len(projects),
	})
}

// Create handles POST /api/v1/projects. The response carries the new
// client's access code, which is not shown again.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in projectsvc.NewClientInput
	if apiErr := respond.Decode(r, &in); apiErr != nil {
		respond.JSONError(w, apiErr)
		return
	}

	designerID := session.FromContext(r.Context()).CurrentUserID()
	out, err := h.svc.CreateClientProject(r.Context(), designerID, in)
	if err != nil {
		respond.Err(w, h.logger, "create project", err)
		return
	}

	respond.Created(w, out)
}

// Get handles GET /api/v1/projects/{projectID} and GET /api/v1/client/project.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	project := middleware.GetProject(ctx)

	tasks, err := h.store.Tasks().ListByProject(ctx, project.ID)
	if err != nil {
		respond.Err(w, h.logger, "load tasks", err)
		return
	}
	items, err := h.store.Budget().ListByProject(ctx, project.ID)
	if err != nil {
		respond.Err(w, h.logger, "load budget", err)
		return
	}
	client, err := h.store.Users().GetByID(ctx, project.ClientID)
	if err != nil {
		respond.Err(w, h.logger, "load client", err)
		return
	}

	respond.OK(w, Overview{
		Project:    project,
		Completion: models.TaskCompletion(tasks),
		Budget:     models.SummarizeBudget(items),
		Client:     client,
	})
}

// Update handles PATCH /api/v1/projects/{projectID}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	project := middleware.GetProject(r.Context())

	var req UpdateProjectRequest
	if apiErr := respond.Decode(r, &req); apiErr != nil {
		respond.JSONError(w, apiErr)
		return
	}
	if err := req.apply(project); err != nil {
		respond.Err(w, h.logger, "update project", err)
		return
	}
	if err := h.store.Projects().Update(r.Context(), project); err != nil {
		respond.Err(w, h.logger, "update project", err)
		return
	}

	h.logger.Infow("project updated", "project_id", project.ID)
	respond.OK(w, project)
}

// Delete handles DELETE /api/v1/projects/{projectID}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	project := middleware.GetProject(r.Context())

	if err := h.svc.DeleteProject(r.Context(), project.ID); err != nil {
		respond.Err(w, h.logger, "delete project", err)
		return
	}

	respond.NoContent(w)
}
