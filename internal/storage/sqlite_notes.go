package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/good-yellow-bee/atelier/internal/models"
)

type sqliteNoteRepo struct {
	db DBTX
}

func (r *sqliteNoteRepo) Get(ctx context.Context, projectID int64) (*models.ProjectNote, error) {
	var n models.ProjectNote
	err := r.db.QueryRowContext(ctx,
		"SELECT project_id, text_note, updated_at FROM project_notes WHERE project_id = ?", projectID,
	).Scan(&n.ProjectID, &n.Text, &n.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return &n, nil
}

func (r *sqliteNoteRepo) Save(ctx context.Context, n *models.ProjectNote) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO project_notes (project_id, text_note, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET text_note = excluded.text_note, updated_at = excluded.updated_at
	`, n.ProjectID, n.Text, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save note: %w", err)
	}
	return nil
}
