// Package storage provides database storage interfaces and implementations.
package storage

import (
	"context"
	"errors"

	"github.com/good-yellow-bee/atelier/internal/models"
)

// ErrNotFound is returned by update and delete operations when no row matched.
// Lookups return (nil, nil) instead.
var ErrNotFound = errors.New("record not found")

// Repositories groups the repository accessors. It is implemented both by the
// storage itself and by the transactional view passed to WithTx callbacks.
type Repositories interface {
	Users() UserRepository
	Projects() ProjectRepository
	Tasks() TaskRepository
	Budget() BudgetRepository
	Timeline() TimelineRepository
	Files() FileRepository
	Feedback() FeedbackRepository
	Notes() NoteRepository
	Suppliers() SupplierRepository
}

// Storage is the main interface for database operations.
type Storage interface {
	// Open initializes the database connection.
	Open() error
	// Close closes the database connection.
	Close() error
	// Migrate runs database migrations.
	Migrate() error
	// Ping verifies the connection is alive.
	Ping(ctx context.Context) error
	// WithTx runs fn against repositories bound to one transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error

	Repositories
}

// UserRepository is the credential store.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ClientCodeExists(ctx context.Context, code string) (bool, error)
	Delete(ctx context.Context, id int64) error
	ListByRole(ctx context.Context, role models.Role) ([]*models.User, error)
}

// ProjectRepository defines operations for project management.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id int64) (*models.Project, error)
	GetByClientID(ctx context.Context, clientID int64) (*models.Project, error)
	ListByDesigner(ctx context.Context, designerID int64) ([]*models.Project, error)
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id int64) error
}

// TaskRepository defines operations on a project's tasks.
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, projectID, id int64) (*models.Task, error)
	ListByProject(ctx context.Context, projectID int64) ([]*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, projectID, id int64) error
}

// BudgetRepository defines operations on a project's budget items.
type BudgetRepository interface {
	Create(ctx context.Context, item *models.BudgetItem) error
	GetByID(ctx context.Context, projectID, id int64) (*models.BudgetItem, error)
	ListByProject(ctx context.Context, projectID int64) ([]*models.BudgetItem, error)
	Update(ctx context.Context, item *models.BudgetItem) error
	Delete(ctx context.Context, projectID, id int64) error
}

// TimelineRepository defines operations on a project's milestones.
type TimelineRepository interface {
	Create(ctx context.Context, m *models.Milestone) error
	GetByID(ctx context.Context, projectID, id int64) (*models.Milestone, error)
	ListByProject(ctx context.Context, projectID int64) ([]*models.Milestone, error)
	Update(ctx context.Context, m *models.Milestone) error
	Delete(ctx context.Context, projectID, id int64) error
}

// FileRepository records uploaded files.
type FileRepository interface {
	Create(ctx context.Context, f *models.StoredFile) error
	GetByID(ctx context.Context, projectID, id int64) (*models.StoredFile, error)
	ListByProject(ctx context.Context, projectID int64, category models.FileCategory) ([]*models.StoredFile, error)
	Delete(ctx context.Context, projectID, id int64) error
}

// FeedbackRepository stores client feedback.
type FeedbackRepository interface {
	Create(ctx context.Context, f *models.Feedback) error
	ListByProject(ctx context.Context, projectID int64) ([]*models.Feedback, error)
}

// NoteRepository keeps each project's whiteboard note.
type NoteRepository interface {
	// Get returns (nil, nil) when the project has no note yet.
	Get(ctx context.Context, projectID int64) (*models.ProjectNote, error)
	// Save creates or replaces the note.
	Save(ctx context.Context, n *models.ProjectNote) error
}

// SupplierRepository manages the shared supplier directory.
type SupplierRepository interface {
	Create(ctx context.Context, s *models.Supplier) error
	GetByID(ctx context.Context, id int64) (*models.Supplier, error)
	Search(ctx context.Context, term string) ([]*models.Supplier, error)
	Update(ctx context.Context, s *models.Supplier) error
	Delete(ctx context.Context, id int64) error
}
