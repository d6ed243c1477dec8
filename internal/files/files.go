// Package files stores project uploads on disk under one root directory.
package files

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/good-yellow-bee/atelier/internal/models"
)

// TimestampLayout prefixes every stored filename.
const TimestampLayout = "20060102_150405"

// ErrInvalidPath is returned for relative paths that are absolute or leave the root.
var ErrInvalidPath = errors.New("invalid storage path")

// StorageWriteError reports a failed upload. No partial file remains.
type StorageWriteError struct {
	Path string
	Err  error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Path, e.Err)
}

func (e *StorageWriteError) Unwrap() error {
	return e.Err
}

// categoryDirs maps upload categories to their directory under a project.
var categoryDirs = map[models.FileCategory]string{
	models.CategoryReference:  "reference",
	models.CategoryDrawing:    "drawings",
	models.CategoryGallery:    "gallery",
	models.CategoryWhiteboard: "whiteboard",
	models.CategoryMisc:       "misc",
}

// projectDirs are created with every new project.
var projectDirs = []string{"reference", "drawings", "gallery", "whiteboard"}

// CategoryDir returns the directory name for category; unknown values use misc.
func CategoryDir(category models.FileCategory) string {
	if dir, ok := categoryDirs[category]; ok {
		return dir
	}
	return categoryDirs[models.CategoryMisc]
}

// Manager owns the on-disk layout
// <root>/projects/<projectID>/<category dir>/<YYYYMMDD_HHMMSS>_<name>.
type Manager struct {
	root string
	now  func() time.Time
}

// NewManager creates the root directory if missing.
func NewManager(root string) (*Manager, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("storage root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Manager{root: abs, now: time.Now}, nil
}

// Root returns the absolute storage root.
func (m *Manager) Root() string {
	return m.root
}

// Store writes r under the project's category directory and returns the
// slash-separated path relative to the root. An existing file is never
// overwritten.
func (m *Manager) Store(r io.Reader, originalName string, projectID int64, category models.FileCategory) (string, error) {
	name := m.now().Format(TimestampLayout) + "_" + SafeFilename(originalName)
	rel := path.Join(projectPrefix(projectID), CategoryDir(category), name)
	target := filepath.Join(m.root, filepath.FromSlash(rel))

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", &StorageWriteError{Path: rel, Err: err}
	}

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", &StorageWriteError{Path: rel, Err: err}
	}

	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		os.Remove(target)
		return "", &StorageWriteError{Path: rel, Err: err}
	}
	if err := out.Close(); err != nil {
		os.Remove(target)
		return "", &StorageWriteError{Path: rel, Err: err}
	}
	return rel, nil
}

// Resolve maps a relative path to an absolute path inside the root.
func (m *Manager) Resolve(rel string) (string, error) {
	if rel == "" || strings.HasPrefix(rel, "/") || strings.HasPrefix(rel, `\`) || filepath.IsAbs(rel) || filepath.VolumeName(rel) != "" {
		return "", ErrInvalidPath
	}
	abs := filepath.Join(m.root, filepath.FromSlash(rel))
	within, err := filepath.Rel(m.root, abs)
	if err != nil || within == "." || within == ".." || strings.HasPrefix(within, ".."+string(filepath.Separator)) {
		return "", ErrInvalidPath
	}
	return abs, nil
}

// Open resolves rel and opens it for reading.
func (m *Manager) Open(rel string) (*os.File, error) {
	abs, err := m.Resolve(rel)
	if err != nil {
		return nil, err
	}
	return os.Open(abs)
}

// Delete removes a stored file. A missing file is not an error.
func (m *Manager) Delete(rel string) error {
	abs, err := m.Resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// CreateProjectDirectories creates the standard category directories.
func (m *Manager) CreateProjectDirectories(projectID int64) error {
	base := filepath.Join(m.root, filepath.FromSlash(projectPrefix(projectID)))
	for _, dir := range projectDirs {
		if err := os.MkdirAll(filepath.Join(base, dir), 0o755); err != nil {
			return fmt.Errorf("create project dir: %w", err)
		}
	}
	return nil
}

// DeleteProjectFiles removes the whole project tree. A missing tree is not an error.
func (m *Manager) DeleteProjectFiles(projectID int64) error {
	base := filepath.Join(m.root, filepath.FromSlash(projectPrefix(projectID)))
	if err := os.RemoveAll(base); err != nil {
		return fmt.Errorf("delete project files: %w", err)
	}
	return nil
}

func projectPrefix(projectID int64) string {
	return path.Join("projects", strconv.FormatInt(projectID, 10))
}

// SafeFilename reduces an uploaded name to a single path element.
func SafeFilename(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = path.Base(name)
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." || name == "/" {
		return "upload"
	}
	return name
}
