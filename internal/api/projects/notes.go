package projects

import (
	"net/http"
	"time"

	"github.com/good-yellow-bee/atelier/internal/api/middleware"
	"github.com/good-yellow-bee/atelier/internal/api/respond"
	"github.com/good-yellow-bee/atelier/internal/models"
	"github.com/good-yellow-bee/atelier/internal/validate"
)

// NoteRequest replaces the whiteboard note.
type NoteRequest struct {
	Text string `json:"text_note" validate:"max=10000"`
}

// GetNote handles GET …/notes. A project without a note yields an empty one.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	project := middleware.GetProject(r.Context())

	note, err := h.store.Notes().Get(r.Context(), project.ID)
	if err != nil {
		respond.Err(w, h.logger, "get note", err)
		return
	}
	if note == nil {
		note = &models.ProjectNote{ProjectID: project.ID}
	}

	respond.OK(w, note)
}

// SaveNote handles PUT /api/v1/projects/{projectID}/notes.
func (h *Handler) SaveNote(w http.ResponseWriter, r *http.Request) {
	project := middleware.GetProject(r.Context())

	var req NoteRequest
	if apiErr := respond.Decode(r, &req); apiErr != nil {
		respond.JSONError(w, apiErr)
		return
	}
	if err := validate.Struct(req); err != nil {
		respond.Err(w, h.logger, "save note", err)
		return
	}

	note := &models.ProjectNote{
		ProjectID: project.ID,
		Text:      req.Text,
		UpdatedAt: time.Now().UTC(),
	}
	if err := h.store.Notes().Save(r.Context(), note); err != nil {
		respond.Err(w, h.logger, "save note", err)
		return
	}

	h.logger.Infow("whiteboard note saved", "project_id", project.ID)
	respond.OK(w, note)
}
