package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/good-yellow-bee/atelier/internal/models"
)

type sqliteProjectRepo struct {
	db DBTX
}

const projectSelect = `
	SELECT p.id, p.designer_id, p.client_id, p.site_type, p.contact_details,
		p.preferred_contact, p.created_at, u.name, u.email
	FROM projects p JOIN users u ON u.id = p.client_id
`

func scanProject(row rowScanner) (*models.Project, error) {
	var (
		p       models.Project
		contact sql.NullString
	)
	err := row.Scan(
		&p.ID, &p.DesignerID, &p.ClientID, &p.SiteType, &contact,
		&p.PreferredContact, &p.CreatedAt, &p.ClientName, &p.ClientEmail,
	)
	if err != nil {
		return nil, err
	}
	p.ContactDetails = contact.String
	return &p, nil
}

func (r *sqliteProjectRepo) Create(ctx context.Context, project *models.Project) error {
	query := `
		INSERT INTO projects (designer_id, client_id, site_type, contact_details, preferred_contact, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	res, err := r.db.ExecContext(ctx, query,
		project.DesignerID, project.ClientID, project.SiteType,
		project.ContactDetails, project.PreferredContact, project.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert project: last id: %w", err)
	}
	project.ID = id
	return nil
}

func (r *sqliteProjectRepo) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	p, err := scanProject(r.db.QueryRowContext(ctx, projectSelect+` WHERE p.id = ?`, id))
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project by id: %w", err)
	}
	return p, nil
}

func (r *sqliteProjectRepo) GetByClientID(ctx context.Context, clientID int64) (*models.Project, error) {
	p, err := scanProject(r.db.QueryRowContext(ctx, projectSelect+` WHERE p.client_id = ?`, clientID))
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project by client: %w", err)
	}
	return p, nil
}

func (r *sqliteProjectRepo) ListByDesigner(ctx context.Context, designerID int64) ([]*models.Project, error) {
	rows, err := r.db.QueryContext(ctx, projectSelect+` WHERE p.designer_id = ? ORDER BY p.created_at DESC, p.id DESC`, designerID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *sqliteProjectRepo) Update(ctx context.Context, project *models.Project) error {
	query := `UPDATE projects SET site_type = ?, contact_details = ?, preferred_contact = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query,
		project.SiteType, project.ContactDetails, project.PreferredContact, project.ID,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("update project %d: %w", project.ID, ErrNotFound)
	}
	return nil
}

// Delete removes the project together with its client account. Child rows
// cascade from the foreign keys.
func (r *sqliteProjectRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM users WHERE id = (SELECT client_id FROM projects WHERE id = ?)", id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("delete project %d: %w", id, ErrNotFound)
	}
	return nil
}
