// Package projects coordinates the multi-step project operations that span
// the database and the file store.
package projects

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/good-yellow-bee/atelier/internal/auth"
	"github.com/good-yellow-bee/atelier/internal/files"
	"github.com/good-yellow-bee/atelier/internal/metrics"
	"github.com/good-yellow-bee/atelier/internal/models"
	"github.com/good-yellow-bee/atelier/internal/storage"
	"github.com/good-yellow-bee/atelier/internal/validate"
)

// ErrNotFound is returned when a project or file does not exist.
var ErrNotFound = errors.New("not found")

// FileStore is the subset of the file manager the service uses.
type FileStore interface {
	Store(r io.Reader, originalName string, projectID int64, category models.FileCategory) (string, error)
	Delete(rel string) error
	CreateProjectDirectories(projectID int64) error
	DeleteProjectFiles(projectID int64) error
}

// NewClientInput describes a client and the project created for them.
type NewClientInput struct {
	Name             string               `json:"name" validate:"required,max=200"`
	Email            string               `json:"email" validate:"required,email,max=254"`
	SiteType         models.SiteType      `json:"site_type" validate:"omitempty,oneof=Residential Commercial Office Restaurant Retail Other"`
	ContactDetails   string               `json:"contact_details" validate:"max=500"`
	PreferredContact models.ContactMethod `json:"preferred_contact" validate:"omitempty,oneof=Email Phone WhatsApp Any"`
}

// Created is the outcome of CreateClientProject. Code is the client's access
// code and is shown to the designer once.
type Created struct {
	Project *models.Project `json:"project"`
	Client  *models.User    `json:"client"`
	Code    string          `json:"access_code"`
}

// UploadMeta carries the optional descriptive fields of an upload.
type UploadMeta struct {
	RoomName   string
	Kind       string
	Notes      string
	UploadedBy models.Role
}

// Service implements project creation, deletion and uploads.
type Service struct {
	store    storage.Storage
	auth     *auth.Authenticator
	files    FileStore
	sessions SessionRevoker
	logger   *zap.SugaredLogger
}

// SessionRevoker ends every live session of a user.
type SessionRevoker interface {
	DeleteUser(userID int64)
}

// NewService creates a Service.
func NewService(store storage.Storage, authn *auth.Authenticator, fs FileStore, logger *zap.SugaredLogger) *Service {
	return &Service{store: store, auth: authn, files: fs, logger: logger}
}

// WithSessions makes DeleteProject log the removed client out everywhere.
func (s *Service) WithSessions(r SessionRevoker) *Service {
	s.sessions = r
	return s
}

// CreateClientProject registers the client, creates the project, seeds the
// default tasks and budget and creates the project directories. Nothing is
// kept if any step fails.
func (s *Service) CreateClientProject(ctx context.Context, designerID int64, in NewClientInput) (*Created, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = models.NormalizeEmail(in.Email)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	var (
		out       Created
		projectID int64
	)
	err := s.store.WithTx(ctx, func(ctx context.Context, repos storage.Repositories) error {
		client, err := s.auth.WithStore(repos.Users()).RegisterClient(ctx, in.Name, in.Email, designerID)
		if err != nil {
			return err
		}

		project := models.NewProject(designerID, client.ID, in.SiteType)
		project.ContactDetails = strings.TrimSpace(in.ContactDetails)
		if in.PreferredContact != "" {
			project.PreferredContact = in.PreferredContact
		}
		if err := repos.Projects().Create(ctx, project); err != nil {
			return err
		}
		projectID = project.ID

		if err := seedProject(ctx, repos, project.ID); err != nil {
			return err
		}

		if err := s.files.CreateProjectDirectories(project.ID); err != nil {
			return err
		}

		project.ClientName = client.Name
		project.ClientEmail = client.Email
		out = Created{Project: project, Client: client, Code: client.ClientCode}
		return nil
	})
	if err != nil {
		if projectID != 0 {
			if derr := s.files.DeleteProjectFiles(projectID); derr != nil {
				s.logger.Warnw("project directories not removed", "project_id", projectID, "error", derr)
			}
		}
		return nil, err
	}

	metrics.ProjectsCreatedTotal.Inc()
	metrics.RegistrationsTotal.WithLabelValues(string(models.RoleClient)).Inc()
	s.logger.Infow("client project created",
		"project_id", out.Project.ID,
		"client_id", out.Client.ID,
		"designer_id", designerID,
	)
	return &out, nil
}

func seedProject(ctx context.Context, repos storage.Repositories, projectID int64) error {
	now := time.Now().UTC()
	for _, title := range models.DefaultTasks {
		task := &models.Task{ProjectID: projectID, Title: title, CreatedAt: now}
		if err := repos.Tasks().Create(ctx, task); err != nil {
			return fmt.Errorf("seed task %q: %w", title, err)
		}
	}
	for _, name := range models.DefaultBudgetCategories {
		item := &models.BudgetItem{ProjectID: projectID, ItemName: name}
		if err := repos.Budget().Create(ctx, item); err != nil {
			return fmt.Errorf("seed budget item %q: %w", name, err)
		}
	}
	return nil
}

// DeleteProject removes the project, its client account and its files, and
// ends the client's sessions.
func (s *Service) DeleteProject(ctx context.Context, projectID int64) error {
	project, err := s.store.Projects().GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	if project == nil {
		return ErrNotFound
	}

	if err := s.store.Projects().Delete(ctx, projectID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if s.sessions != nil {
		s.sessions.DeleteUser(project.ClientID)
	}
	if err := s.files.DeleteProjectFiles(projectID); err != nil {
		s.logger.Warnw("project files not removed", "project_id", projectID, "error", err)
	}
	s.logger.Infow("project deleted", "project_id", projectID)
	return nil
}

// Upload stores r under the project and records it. A file whose record
// cannot be written is removed again.
func (s *Service) Upload(ctx context.Context, projectID int64, category models.FileCategory, name string, r io.Reader, meta UploadMeta) (*models.StoredFile, error) {
	category = models.ParseFileCategory(string(category))
	if err := files.ValidateExtension(name, category); err != nil {
		metrics.UploadsTotal.WithLabelValues(string(category), "rejected").Inc()
		return nil, err
	}
	if category == models.CategoryDrawing && meta.Kind != "" &&
		meta.Kind != models.DrawingExisting && meta.Kind != models.DrawingProposed {
		metrics.UploadsTotal.WithLabelValues(string(category), "rejected").Inc()
		return nil, validate.New("kind must be one of: existing proposed")
	}

	counted := &countingReader{r: r}
	rel, err := s.files.Store(counted, name, projectID, category)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues(string(category), "error").Inc()
		return nil, err
	}

	rec := &models.StoredFile{
		ProjectID:    projectID,
		Category:     category,
		RelativePath: rel,
		RoomName:     strings.TrimSpace(meta.RoomName),
		Kind:         meta.Kind,
		Notes:        strings.TrimSpace(meta.Notes),
		UploadedBy:   meta.UploadedBy,
		UploadedAt:   time.Now().UTC(),
	}
	if err := s.store.Files().Create(ctx, rec); err != nil {
		if derr := s.files.Delete(rel); derr != nil {
			s.logger.Warnw("orphaned upload", "path", rel, "error", derr)
		}
		metrics.UploadsTotal.WithLabelValues(string(category), "error").Inc()
		return nil, err
	}

	metrics.UploadsTotal.WithLabelValues(string(category), "success").Inc()
	metrics.UploadBytes.WithLabelValues(string(category)).Observe(float64(counted.n))
	s.logger.Debugw("file uploaded", "project_id", projectID, "path", rel, "bytes", counted.n)
	return rec, nil
}

// DeleteFile removes the file record, then the file itself.
func (s *Service) DeleteFile(ctx context.Context, projectID, fileID int64) error {
	rec, err := s.store.Files().GetByID(ctx, projectID, fileID)
	if err != nil {
		return err
	}
	if rec == nil {
		return ErrNotFound
	}
	if err := s.store.Files().Delete(ctx, projectID, fileID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := s.files.Delete(rec.RelativePath); err != nil {
		s.logger.Warnw("stored file not removed", "path", rec.RelativePath, "error", err)
	}
	return nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
