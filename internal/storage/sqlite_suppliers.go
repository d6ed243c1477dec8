package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/good-yellow-bee/atelier/internal/models"
)

type sqliteSupplierRepo struct {
	db DBTX
}

const supplierColumns = `id, name, category, phone, email, address`

func scanSupplier(row rowScanner) (*models.Supplier, error) {
	var s models.Supplier
	if err := row.Scan(&s.ID, &s.Name, &s.Category, &s.Phone, &s.Email, &s.Address); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sqliteSupplierRepo) Create(ctx context.Context, s *models.Supplier) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO suppliers (name, category, phone, email, address) VALUES (?, ?, ?, ?, ?)",
		s.Name, s.Category, s.Phone, s.Email, s.Address,
	)
	if err != nil {
		return fmt.Errorf("insert supplier: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert supplier: last id: %w", err)
	}
	s.ID = id
	return nil
}

func (r *sqliteSupplierRepo) GetByID(ctx context.Context, id int64) (*models.Supplier, error) {
	s, err := scanSupplier(r.db.QueryRowContext(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get supplier: %w", err)
	}
	return s, nil
}

// Search matches term against name, category, phone and email. An empty term lists all.
func (r *sqliteSupplierRepo) Search(ctx context.Context, term string) ([]*models.Supplier, error) {
	query := `SELECT ` + supplierColumns + ` FROM suppliers`
	var args []any
	if term = strings.TrimSpace(term); term != "" {
		like := "%" + escapeLike(term) + "%"
		query += ` WHERE name LIKE ? ESCAPE '\' OR category LIKE ? ESCAPE '\' OR phone LIKE ? ESCAPE '\' OR email LIKE ? ESCAPE '\'`
		args = append(args, like, like, like, like)
	}
	query += ` ORDER BY category, name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search suppliers: %w", err)
	}
	defer rows.Close()

	var out []*models.Supplier
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, fmt.Errorf("scan supplier: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *sqliteSupplierRepo) Update(ctx context.Context, s *models.Supplier) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE suppliers SET name = ?, category = ?, phone = ?, email = ?, address = ? WHERE id = ?",
		s.Name, s.Category, s.Phone, s.Email, s.Address, s.ID,
	)
	if err != nil {
		return fmt.Errorf("update supplier: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("update supplier %d: %w", s.ID, ErrNotFound)
	}
	return nil
}

func (r *sqliteSupplierRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM suppliers WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete supplier: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("delete supplier %d: %w", id, ErrNotFound)
	}
	return nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
