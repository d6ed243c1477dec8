// Package access gates dashboards by role and projects by ownership.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/good-yellow-bee/atelier/internal/models"
	"github.com/good-yellow-bee/atelier/internal/session"
)

var (
	// ErrUnauthenticated means no identity is bound to the request.
	ErrUnauthenticated = errors.New("not logged in")
	// ErrUnauthorizedRole means the identity has the wrong role for the
	// dashboard. Callers respond by logging the user out.
	ErrUnauthorizedRole = errors.New("unauthorized role")
	// ErrForbidden means the project belongs to someone else.
	ErrForbidden = errors.New("no access to project")
	// ErrNotFound means the project does not exist.
	ErrNotFound = errors.New("project not found")
)

// ProjectFinder loads projects for ownership checks.
type ProjectFinder interface {
	GetByID(ctx context.Context, id int64) (*models.Project, error)
	GetByClientID(ctx context.Context, clientID int64) (*models.Project, error)
}

// Controller answers "may this request proceed". It holds no cache; every
// check reads the current state.
type Controller struct {
	projects ProjectFinder
}

// NewController creates a Controller over projects.
func NewController(projects ProjectFinder) *Controller {
	return &Controller{projects: projects}
}

// RequireRole passes only an authenticated state with the given role.
func (c *Controller) RequireRole(state *session.State, role models.Role) error {
	if !state.IsAuthenticated() {
		return ErrUnauthenticated
	}
	if state.CurrentRole() != role {
		return ErrUnauthorizedRole
	}
	return nil
}

// RequireDesigner gates the designer dashboard.
func (c *Controller) RequireDesigner(state *session.State) error {
	return c.RequireRole(state, models.RoleDesigner)
}

// RequireClient gates the client dashboard.
func (c *Controller) RequireClient(state *session.State) error {
	return c.RequireRole(state, models.RoleClient)
}

// DesignerProject returns projectID if the current designer owns it.
func (c *Controller) DesignerProject(ctx context.Context, state *session.State, projectID int64) (*models.Project, error) {
	if err := c.RequireDesigner(state); err != nil {
		return nil, err
	}
	p, err := c.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	if p == nil {
		return nil, ErrNotFound
	}
	if !p.OwnedBy(state.CurrentUserID()) {
		return nil, ErrForbidden
	}
	return p, nil
}

// ClientProject returns the current client's own project.
func (c *Controller) ClientProject(ctx context.Context, state *session.State) (*models.Project, error) {
	if err := c.RequireClient(state); err != nil {
		return nil, err
	}
	p, err := c.projects.GetByClientID(ctx, state.CurrentUserID())
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	if p == nil {
		return nil, ErrNotFound
	}
	if err := c.AuthorizeClient(state, p); err != nil {
		return nil, err
	}
	return p, nil
}

// AuthorizeClient checks that project belongs to the current client.
func (c *Controller) AuthorizeClient(state *session.State, project *models.Project) error {
	if err := c.RequireClient(state); err != nil {
		return err
	}
	if !project.BelongsTo(state.CurrentUserID()) {
		return ErrForbidden
	}
	return nil
}
