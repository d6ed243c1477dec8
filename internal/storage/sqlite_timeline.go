package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/good-yellow-bee/atelier/internal/models"
)

type sqliteTimelineRepo struct {
	db DBTX
}

const timelineColumns = `id, project_id, milestone, deadline, status`

func scanMilestone(row rowScanner) (*models.Milestone, error) {
	var m models.Milestone
	if err := row.Scan(&m.ID, &m.ProjectID, &m.Milestone, &m.Deadline, &m.Status); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *sqliteTimelineRepo) Create(ctx context.Context, m *models.Milestone) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO timeline (project_id, milestone, deadline, status) VALUES (?, ?, ?, ?)",
		m.ProjectID, m.Milestone, m.Deadline, m.Status,
	)
	if err != nil {
		return fmt.Errorf("insert milestone: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert milestone: last id: %w", err)
	}
	m.ID = id
	return nil
}

func (r *sqliteTimelineRepo) GetByID(ctx context.Context, projectID, id int64) (*models.Milestone, error) {
	query := `SELECT ` + timelineColumns + ` FROM timeline WHERE id = ? AND project_id = ?`
	m, err := scanMilestone(r.db.QueryRowContext(ctx, query, id, projectID))
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get milestone: %w", err)
	}
	return m, nil
}

// ListByProject returns milestones ordered by deadline.
func (r *sqliteTimelineRepo) ListByProject(ctx context.Context, projectID int64) ([]*models.Milestone, error) {
	query := `SELECT ` + timelineColumns + ` FROM timeline WHERE project_id = ? ORDER BY deadline, id`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list milestones: %w", err)
	}
	defer rows.Close()

	var items []*models.Milestone
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, fmt.Errorf("scan milestone: %w", err)
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func (r *sqliteTimelineRepo) Update(ctx context.Context, m *models.Milestone) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE timeline SET milestone = ?, deadline = ?, status = ? WHERE id = ? AND project_id = ?",
		m.Milestone, m.Deadline, m.Status, m.ID, m.ProjectID,
	)
	if err != nil {
		return fmt.Errorf("update milestone: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("update milestone %d: %w", m.ID, ErrNotFound)
	}
	return nil
}

func (r *sqliteTimelineRepo) Delete(ctx context.Context, projectID, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM timeline WHERE id = ? AND project_id = ?", id, projectID)
	if err != nil {
		return fmt.Errorf("delete milestone: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("delete milestone %d: %w", id, ErrNotFound)
	}
	return nil
}
