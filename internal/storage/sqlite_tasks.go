package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/good-yellow-bee/atelier/internal/models"
)

type sqliteTaskRepo struct {
	db DBTX
}

const taskColumns = `id, project_id, title, description, progress_percent, comments, created_at`

func scanTask(row rowScanner) (*models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.ProgressPercent, &t.Comments, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *sqliteTaskRepo) Create(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (project_id, title, description, progress_percent, comments, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	res, err := r.db.ExecContext(ctx, query,
		task.ProjectID, task.Title, task.Description, task.ProgressPercent, task.Comments, task.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert task: last id: %w", err)
	}
	task.ID = id
	return nil
}

func (r *sqliteTaskRepo) GetByID(ctx context.Context, projectID, id int64) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ? AND project_id = ?`
	t, err := scanTask(r.db.QueryRowContext(ctx, query, id, projectID))
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (r *sqliteTaskRepo) ListByProject(ctx context.Context, projectID int64) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE project_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *sqliteTaskRepo) Update(ctx context.Context, task *models.Task) error {
	query := `
		UPDATE tasks SET title = ?, description = ?, progress_percent = ?, comments = ?
		WHERE id = ? AND project_id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		task.Title, task.Description, task.ProgressPercent, task.Comments, task.ID, task.ProjectID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("update task %d: %w", task.ID, ErrNotFound)
	}
	return nil
}

func (r *sqliteTaskRepo) Delete(ctx context.Context, projectID, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ? AND project_id = ?", id, projectID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("delete task %d: %w", id, ErrNotFound)
	}
	return nil
}
