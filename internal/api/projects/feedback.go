package projects

import (
	"net/http"
	"strings"
	"time"

	"github.com/good-yellow-bee/atelier/internal/api/middleware"
	"github.com/good-yellow-bee/atelier/internal/api/respond"
	"github.com/good-yellow-bee/atelier/internal/models"
	"github.com/good-yellow-bee/atelier/internal/notifier"
	"github.com/good-yellow-bee/atelier/internal/validate"
)

// ListFeedback handles GET …/feedback.
func (h *Handler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	project := middleware.GetProject(r.Context())

	list, err := h.store.Feedback().ListByProject(r.Context(), project.ID)
	if err != nil {
		respond.Err(w, h.logger, "list feedback", err)
		return
	}
	if list == nil {
		list = []*models.Feedback{}
	}

	respond.OK(w, map[string]any{
		"items":   list,
		"summary": models.SummarizeFeedback(list),
	})
}

// CreateFeedback handles POST /api/v1/client/project/feedback.
func (h *Handler) CreateFeedback(w http.ResponseWriter, r *http.Request) {
	project := middleware.GetProject(r.Context())

	var req FeedbackRequest
	if apiErr := respond.Decode(r, &req); apiErr != nil {
		respond.JSONError(w, apiErr)
		return
	}
	req.Comment = strings.TrimSpace(req.Comment)
	if err := validate.Struct(req); err != nil {
		respond.Err(w, h.logger, "create feedback", err)
		return
	}

	fb := &models.Feedback{
		ProjectID:      project.ID,
		ItemType:       req.ItemType,
		Comment:        req.Comment,
		ApprovalStatus: req.ApprovalStatus,
		CreatedAt:      time.Now().UTC(),
	}
	if fb.ApprovalStatus == "" {
		fb.ApprovalStatus = models.ApprovalPending
	}
	if err := h.store.Feedback().Create(r.Context(), fb); err != nil {
		respond.Err(w, h.logger, "create feedback", err)
		return
	}

	h.logger.Infow("feedback received", "project_id", project.ID, "item_type", fb.ItemType)
	h.notifyDesigner(r.Context(), project, notifier.EventFeedback, fb.Comment)
	respond.Created(w, fb)
}
