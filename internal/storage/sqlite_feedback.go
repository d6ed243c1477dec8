package storage

import (
	"context"
	"fmt"

	"github.com/good-yellow-bee/atelier/internal/models"
)

type sqliteFeedbackRepo struct {
	db DBTX
}

func (r *sqliteFeedbackRepo) Create(ctx context.Context, f *models.Feedback) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO feedback (project_id, item_type, comment, approval_status, created_at) VALUES (?, ?, ?, ?, ?)",
		f.ProjectID, f.ItemType, f.Comment, f.ApprovalStatus, f.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert feedback: last id: %w", err)
	}
	f.ID = id
	return nil
}

// ListByProject returns the newest feedback first.
func (r *sqliteFeedbackRepo) ListByProject(ctx context.Context, projectID int64) ([]*models.Feedback, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, project_id, item_type, comment, approval_status, created_at
		FROM feedback WHERE project_id = ? ORDER BY created_at DESC, id DESC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	var items []*models.Feedback
	for rows.Next() {
		var f models.Feedback
		if err := rows.Scan(&f.ID, &f.ProjectID, &f.ItemType, &f.Comment, &f.ApprovalStatus, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		items = append(items, &f)
	}
	return items, rows.Err()
}
