package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/good-yellow-bee/atelier/internal/models"
)

type sqliteBudgetRepo struct {
	db DBTX
}

const budgetColumns = `id, project_id, item_name, estimated_cost, actual_cost`

func scanBudgetItem(row rowScanner) (*models.BudgetItem, error) {
	var b models.BudgetItem
	if err := row.Scan(&b.ID, &b.ProjectID, &b.ItemName, &b.EstimatedCost, &b.ActualCost); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *sqliteBudgetRepo) Create(ctx context.Context, item *models.BudgetItem) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO budget_items (project_id, item_name, estimated_cost, actual_cost) VALUES (?, ?, ?, ?)",
		item.ProjectID, item.ItemName, item.EstimatedCost, item.ActualCost,
	)
	if err != nil {
		return fmt.Errorf("insert budget item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert budget item: last id: %w", err)
	}
	item.ID = id
	return nil
}

func (r *sqliteBudgetRepo) GetByID(ctx context.Context, projectID, id int64) (*models.BudgetItem, error) {
	query := `SELECT ` + budgetColumns + ` FROM budget_items WHERE id = ? AND project_id = ?`
	b, err := scanBudgetItem(r.db.QueryRowContext(ctx, query, id, projectID))
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get budget item: %w", err)
	}
	return b, nil
}

func (r *sqliteBudgetRepo) ListByProject(ctx context.Context, projectID int64) ([]*models.BudgetItem, error) {
	query := `SELECT ` + budgetColumns + ` FROM budget_items WHERE project_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list budget items: %w", err)
	}
	defer rows.Close()

	var items []*models.BudgetItem
	for rows.Next() {
		b, err := scanBudgetItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget item: %w", err)
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

func (r *sqliteBudgetRepo) Update(ctx context.Context, item *models.BudgetItem) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE budget_items SET item_name = ?, estimated_cost = ?, actual_cost = ? WHERE id = ? AND project_id = ?",
		item.ItemName, item.EstimatedCost, item.ActualCost, item.ID, item.ProjectID,
	)
	if err != nil {
		return fmt.Errorf("update budget item: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("update budget item %d: %w", item.ID, ErrNotFound)
	}
	return nil
}

func (r *sqliteBudgetRepo) Delete(ctx context.Context, projectID, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM budget_items WHERE id = ? AND project_id = ?", id, projectID)
	if err != nil {
		return fmt.Errorf("delete budget item: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("delete budget item %d: %w", id, ErrNotFound)
	}
	return nil
}
