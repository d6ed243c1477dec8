package storage

import (
	"context"
	"database/sql"
	"fmt"

	// Pure-Go SQLite driver, registered as "sqlite".
	_ "modernc.org/sqlite"
)

// DBTX is the subset of database/sql used by the repositories.
// Both *sql.DB and *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	path string
	db   *sql.DB

	repoSet
}

// repoSet binds every repository to one DBTX.
type repoSet struct {
	users     *sqliteUserRepo
	projects  *sqliteProjectRepo
	tasks     *sqliteTaskRepo
	budget    *sqliteBudgetRepo
	timeline  *sqliteTimelineRepo
	files     *sqliteFileRepo
	feedback  *sqliteFeedbackRepo
	notes     *sqliteNoteRepo
	suppliers *sqliteSupplierRepo
}

func newRepoSet(db DBTX) repoSet {
	return repoSet{
		users:     &sqliteUserRepo{db: db},
		projects:  &sqliteProjectRepo{db: db},
		tasks:     &sqliteTaskRepo{db: db},
		budget:    &sqliteBudgetRepo{db: db},
		timeline:  &sqliteTimelineRepo{db: db},
		files:     &sqliteFileRepo{db: db},
		feedback:  &sqliteFeedbackRepo{db: db},
		notes:     &sqliteNoteRepo{db: db},
		suppliers: &sqliteSupplierRepo{db: db},
	}
}

func (r repoSet) Users() UserRepository         { return r.users }
func (r repoSet) Projects() ProjectRepository   { return r.projects }
func (r repoSet) Tasks() TaskRepository         { return r.tasks }
func (r repoSet) Budget() BudgetRepository      { return r.budget }
func (r repoSet) Timeline() TimelineRepository  { return r.timeline }
func (r repoSet) Files() FileRepository         { return r.files }
func (r repoSet) Feedback() FeedbackRepository  { return r.feedback }
func (r repoSet) Notes() NoteRepository         { return r.notes }
func (r repoSet) Suppliers() SupplierRepository { return r.suppliers }

// NewSQLiteStorage creates a new SQLite storage.
func NewSQLiteStorage(path string) *SQLiteStorage {
	return &SQLiteStorage{path: path}
}

// Open initializes the database connection.
func (s *SQLiteStorage) Open() error {
	ctx := context.Background()

	if s.path == "" {
		return fmt.Errorf("database path is required")
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	s.db = db
	s.repoSet = newRepoSet(db)

	return nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying database connection for health checks.
func (s *SQLiteStorage) DB() *sql.DB {
	return s.db
}

// Ping verifies the connection is alive.
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not open")
	}
	return s.db.PingContext(ctx)
}

// Migrate runs database migrations.
func (s *SQLiteStorage) Migrate() error {
	return runMigrations(s.db)
}

// WithTx begins a transaction, runs fn with repositories bound to it, and
// commits on success or rolls back on error or panic. Panics are rethrown.
func (s *SQLiteStorage) WithTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("commit transaction: %w", cerr)
		}
	}()

	err = fn(ctx, newRepoSet(tx))
	return err
}
