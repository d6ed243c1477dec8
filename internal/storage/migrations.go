package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// Migration represents a database migration.
type Migration struct {
	Version int
	Name    string
	Up      string
}

// migrations holds all database migrations in order.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "initial_schema",
		Up: `
			-- Designers and clients share one table; role decides the credential.
			CREATE TABLE IF NOT EXISTS users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL,
				email TEXT UNIQUE NOT NULL,
				role TEXT NOT NULL CHECK (role IN ('designer', 'client')),
				password_hash TEXT,
				client_code TEXT,
				designer_id INTEGER,
				created_at DATETIME NOT NULL,
				CHECK (
					(role = 'designer' AND password_hash IS NOT NULL AND client_code IS NULL) OR
					(role = 'client' AND client_code IS NOT NULL AND password_hash IS NULL)
				),
				FOREIGN KEY (designer_id) REFERENCES users(id) ON DELETE SET NULL
			);

			CREATE TABLE IF NOT EXISTS projects (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				designer_id INTEGER NOT NULL,
				client_id INTEGER NOT NULL UNIQUE,
				site_type TEXT NOT NULL,
				contact_details TEXT,
				preferred_contact TEXT NOT NULL DEFAULT 'Any',
				created_at DATETIME NOT NULL,
				FOREIGN KEY (designer_id) REFERENCES users(id) ON DELETE CASCADE,
				FOREIGN KEY (client_id) REFERENCES users(id) ON DELETE CASCADE
			);

			CREATE TABLE IF NOT EXISTS tasks (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				project_id INTEGER NOT NULL,
				title TEXT NOT NULL,
				description TEXT,
				progress_percent INTEGER NOT NULL DEFAULT 0 CHECK (progress_percent BETWEEN 0 AND 100),
				comments TEXT,
				created_at DATETIME NOT NULL,
				FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
			);

			CREATE TABLE IF NOT EXISTS budget_items (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				project_id INTEGER NOT NULL,
				item_name TEXT NOT NULL,
				estimated_cost REAL NOT NULL DEFAULT 0,
				actual_cost REAL NOT NULL DEFAULT 0,
				FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
			);

			CREATE TABLE IF NOT EXISTS timeline (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				project_id INTEGER NOT NULL,
				milestone TEXT NOT NULL,
				deadline DATETIME NOT NULL,
				status TEXT NOT NULL DEFAULT 'pending',
				FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
			);

			-- Reference images, drawings, gallery photos and whiteboard sketches.
			CREATE TABLE IF NOT EXISTS stored_files (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				project_id INTEGER NOT NULL,
				category TEXT NOT NULL,
				relative_path TEXT NOT NULL UNIQUE,
				room_name TEXT,
				kind TEXT,
				notes TEXT,
				uploaded_by TEXT NOT NULL,
				uploaded_at DATETIME NOT NULL,
				FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
			);

			CREATE TABLE IF NOT EXISTS feedback (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				project_id INTEGER NOT NULL,
				item_type TEXT NOT NULL,
				comment TEXT NOT NULL,
				approval_status TEXT NOT NULL DEFAULT 'pending',
				created_at DATETIME NOT NULL,
				FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
			);

			CREATE TABLE IF NOT EXISTS suppliers (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL,
				category TEXT NOT NULL,
				phone TEXT,
				email TEXT,
				address TEXT
			);

			-- Indexes
			CREATE INDEX IF NOT EXISTS idx_users_client_code ON users(client_code);
			CREATE INDEX IF NOT EXISTS idx_projects_designer ON projects(designer_id);
			CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id);
			CREATE INDEX IF NOT EXISTS idx_budget_project ON budget_items(project_id);
			CREATE INDEX IF NOT EXISTS idx_timeline_project ON timeline(project_id);
			CREATE INDEX IF NOT EXISTS idx_files_project ON stored_files(project_id, category);
			CREATE INDEX IF NOT EXISTS idx_feedback_project ON feedback(project_id);
		`,
	},
	{
		Version: 2,
		Name:    "whiteboard_notes",
		Up: `
			-- One free-text whiteboard note per project.
			CREATE TABLE IF NOT EXISTS project_notes (
				project_id INTEGER PRIMARY KEY,
				text_note TEXT NOT NULL DEFAULT '',
				updated_at DATETIME NOT NULL,
				FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
			);
		`,
	},
}

// runMigrations applies all pending migrations.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	var currentVersion int
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("get current version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= currentVersion {
			continue
		}

		// Run migration in transaction
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction for migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.Up); err != nil {
			tx.Rollback()
			return fmt.Errorf("execute migration %d (%s): %w", m.Version, m.Name, err)
		}

		_, err = tx.Exec(
			"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)",
			m.Version, m.Name, time.Now().UTC(),
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}
