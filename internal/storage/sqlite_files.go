package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/good-yellow-bee/atelier/internal/models"
)

type sqliteFileRepo struct {
	db DBTX
}

const fileColumns = `id, project_id, category, relative_path, room_name, kind, notes, uploaded_by, uploaded_at`

func scanStoredFile(row rowScanner) (*models.StoredFile, error) {
	var (
		f                 models.StoredFile
		room, kind, notes sql.NullString
	)
	err := row.Scan(&f.ID, &f.ProjectID, &f.Category, &f.RelativePath, &room, &kind, &notes, &f.UploadedBy, &f.UploadedAt)
	if err != nil {
		return nil, err
	}
	f.RoomName, f.Kind, f.Notes = room.String, kind.String, notes.String
	return &f, nil
}

func (r *sqliteFileRepo) Create(ctx context.Context, f *models.StoredFile) error {
	query := `
		INSERT INTO stored_files (project_id, category, relative_path, room_name, kind, notes, uploaded_by, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := r.db.ExecContext(ctx, query,
		f.ProjectID, f.Category, f.RelativePath,
		nullIfEmpty(f.RoomName), nullIfEmpty(f.Kind), nullIfEmpty(f.Notes),
		f.UploadedBy, f.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("insert stored file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert stored file: last id: %w", err)
	}
	f.ID = id
	return nil
}

func (r *sqliteFileRepo) GetByID(ctx context.Context, projectID, id int64) (*models.StoredFile, error) {
	query := `SELECT ` + fileColumns + ` FROM stored_files WHERE id = ? AND project_id = ?`
	f, err := scanStoredFile(r.db.QueryRowContext(ctx, query, id, projectID))
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get stored file: %w", err)
	}
	return f, nil
}

// ListByProject returns the newest uploads first. An empty category lists all.
func (r *sqliteFileRepo) ListByProject(ctx context.Context, projectID int64, category models.FileCategory) ([]*models.StoredFile, error) {
	query := `SELECT ` + fileColumns + ` FROM stored_files WHERE project_id = ?`
	args := []any{projectID}
	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY uploaded_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stored files: %w", err)
	}
	defer rows.Close()

	var files []*models.StoredFile
	for rows.Next() {
		f, err := scanStoredFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stored file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (r *sqliteFileRepo) Delete(ctx context.Context, projectID, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM stored_files WHERE id = ? AND project_id = ?", id, projectID)
	if err != nil {
		return fmt.Errorf("delete stored file: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("delete stored file %d: %w", id, ErrNotFound)
	}
	return nil
}
