package projects

import (
	"context"
	"time"

	"github.com/good-yellow-bee/atelier/internal/models"
	"github.com/good-yellow-bee/atelier/internal/notifier"
)

// Events receives client activity for delivery to the designer.
type Events interface {
	Enqueue(ev *notifier.Event) bool
}

// WithEvents sets where client activity is reported.
func (h *Handler) WithEvents(e Events) *Handler {
	h.events = e
	return h
}

// notifyDesigner reports client activity on project. Lookup failures only
// cost the notification.
func (h *Handler) notifyDesigner(ctx context.Context, project *models.Project, kind notifier.EventKind, summary string) {
	if h.events == nil {
		return
	}

	designer, err := h.store.Users().GetByID(ctx, project.DesignerID)
	if err != nil || designer == nil {
		h.logger.Warnw("designer lookup for notification failed", "project_id", project.ID, "error", err)
		return
	}
	clientName := project.ClientName
	if clientName == "" {
		if client, err := h.store.Users().GetByID(ctx, project.ClientID); err == nil && client != nil {
			clientName = client.Name
		}
	}

	h.events.Enqueue(&notifier.Event{
		Kind:          kind,
		ProjectID:     project.ID,
		ClientName:    clientName,
		DesignerEmail: designer.Email,
		Summary:       summary,
		Time:          time.Now().UTC(),
	})
}
