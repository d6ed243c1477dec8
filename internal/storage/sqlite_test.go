package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/good-yellow-bee/atelier/internal/models"
)

func setupTestDB(t *testing.T) *SQLiteStorage {
	t.Helper()

	store := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Open(); err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate database: %v", err)
	}
	return store
}

func createDesigner(t *testing.T, store *SQLiteStorage, email string) *models.User {
	t.Helper()
	u := models.NewDesigner("Dana", email, "$2a$10$hash")
	if err := store.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("create designer: %v", err)
	}
	return u
}

func createClientProject(t *testing.T, store *SQLiteStorage, designerID int64, email, code string) (*models.User, *models.Project) {
	t.Helper()
	ctx := context.Background()
	c := models.NewClient("Carl", email, code, designerID)
	if err := store.Users().Create(ctx, c); err != nil {
		t.Fatalf("create client: %v", err)
	}
	p := models.NewProject(designerID, c.ID, models.SiteOffice)
	if err := store.Projects().Create(ctx, p); err != nil {
		t.Fatalf("create project: %v", err)
	}
	return c, p
}

func TestSQLiteStorage_Migrate(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	tables := []string{"users", "projects", "tasks", "budget_items", "timeline", "stored_files", "feedback", "project_notes", "suppliers", "schema_migrations"}
	for _, table := range tables {
		var count int
		err := store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count)
		if err != nil {
			t.Errorf("table %s should exist: %v", table, err)
		}
	}

	// Second run is a no-op.
	if err := store.Migrate(); err != nil {
		t.Fatalf("re-run migrations: %v", err)
	}
}

func TestUserRepository_CreateAndLookup(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	d := createDesigner(t, store, " Dana@Example.com ")
	if d.ID == 0 {
		t.Fatal("expected generated id")
	}

	got, err := store.Users().GetByEmail(ctx, "dana@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got == nil || got.ID != d.ID {
		t.Fatalf("got %+v, want id %d", got, d.ID)
	}
	if got.Role != models.RoleDesigner {
		t.Errorf("role = %q, want designer", got.Role)
	}
	if got.ClientCode != "" {
		t.Errorf("designer should not carry a client code")
	}

	missing, err := store.Users().GetByID(ctx, 9999)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing user")
	}
}

func TestUserRepository_DuplicateEmailRejected(t *testing.T) {
	store := setupTestDB(t)
	createDesigner(t, store, "dup@example.com")

	again := models.NewClient("Other", "DUP@example.com", "ABC123", 0)
	if err := store.Users().Create(context.Background(), again); err == nil {
		t.Fatal("expected unique violation across roles")
	}
}

func TestUserRepository_CredentialShape(t *testing.T) {
	store := setupTestDB(t)
	u := &models.User{Name: "x", Email: "x@example.com", Role: models.RoleClient, PasswordHash: "h", CreatedAt: time.Now()}
	err := store.Users().Create(context.Background(), u)
	if !errors.Is(err, models.ErrCredentialShape) {
		t.Fatalf("err = %v, want ErrCredentialShape", err)
	}
}

func TestUserRepository_ClientCredentials(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	d := createDesigner(t, store, "d@example.com")
	c, _ := createClientProject(t, store, d.ID, "c@example.com", "Q7X2P9")

	exists, err := store.Users().ClientCodeExists(ctx, "Q7X2P9")
	if err != nil || !exists {
		t.Fatalf("ClientCodeExists = %v, %v", exists, err)
	}

	exists, err = store.Users().ClientCodeExists(ctx, "NOPE00")
	if err != nil || exists {
		t.Fatalf("unknown code: %v, %v", exists, err)
	}

	got, err := store.Users().GetByEmail(ctx, "C@example.com")
	if err != nil || got == nil || got.ID != c.ID {
		t.Fatalf("GetByEmail = %+v, %v", got, err)
	}
	if got.ClientCode != "Q7X2P9" || got.PasswordHash != "" {
		t.Errorf("client credential = %q / %q", got.ClientCode, got.PasswordHash)
	}
}

func TestProjectRepository_DeleteCascades(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	d := createDesigner(t, store, "d@example.com")
	c, p := createClientProject(t, store, d.ID, "c@example.com", "AAAAAA")

	task := &models.Task{ProjectID: p.ID, Title: "Conceptual Design", CreatedAt: time.Now()}
	if err := store.Tasks().Create(ctx, task); err != nil {
		t.Fatalf("create task: %v", err)
	}

	byClient, err := store.Projects().GetByClientID(ctx, c.ID)
	if err != nil || byClient == nil || byClient.ID != p.ID {
		t.Fatalf("GetByClientID = %+v, %v", byClient, err)
	}
	if byClient.ClientEmail != "c@example.com" {
		t.Errorf("client email = %q", byClient.ClientEmail)
	}

	if err := store.Projects().Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete project: %v", err)
	}

	if got, _ := store.Projects().GetByID(ctx, p.ID); got != nil {
		t.Error("project should be gone")
	}
	if got, _ := store.Users().GetByID(ctx, c.ID); got != nil {
		t.Error("client should be removed with the project")
	}
	tasks, _ := store.Tasks().ListByProject(ctx, p.ID)
	if len(tasks) != 0 {
		t.Errorf("tasks = %d, want 0", len(tasks))
	}

	if err := store.Projects().Delete(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestNoteRepository_SaveReplaces(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	d := createDesigner(t, store, "d@example.com")
	_, p := createClientProject(t, store, d.ID, "c@example.com", "AAAAAA")

	got, err := store.Notes().Get(ctx, p.ID)
	if err != nil || got != nil {
		t.Fatalf("Get before save = %+v, %v, want nil, nil", got, err)
	}

	first := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	if err := store.Notes().Save(ctx, &models.ProjectNote{ProjectID: p.ID, Text: "draft", UpdatedAt: first}); err != nil {
		t.Fatalf("save note: %v", err)
	}
	if err := store.Notes().Save(ctx, &models.ProjectNote{ProjectID: p.ID, Text: "final", UpdatedAt: first.Add(time.Hour)}); err != nil {
		t.Fatalf("replace note: %v", err)
	}

	got, err = store.Notes().Get(ctx, p.ID)
	if err != nil || got == nil {
		t.Fatalf("Get = %+v, %v", got, err)
	}
	if got.Text != "final" || !got.UpdatedAt.Equal(first.Add(time.Hour)) {
		t.Errorf("note = %+v", got)
	}

	if err := store.Projects().Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete project: %v", err)
	}
	if got, _ := store.Notes().Get(ctx, p.ID); got != nil {
		t.Error("note should be removed with the project")
	}
}

func TestWithTx_RollbackOnError(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	d := createDesigner(t, store, "d@example.com")

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(ctx context.Context, repos Repositories) error {
		c := models.NewClient("Carl", "c@example.com", "ZZZZZZ", d.ID)
		if err := repos.Users().Create(ctx, c); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	got, err := store.Users().GetByEmail(ctx, "c@example.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("client row should have been rolled back")
	}
}

func TestFileRepository_ListByCategory(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	d := createDesigner(t, store, "d@example.com")
	_, p := createClientProject(t, store, d.ID, "c@example.com", "BBBBBB")

	now := time.Now().UTC()
	for i, cat := range []models.FileCategory{models.CategoryGallery, models.CategoryDrawing, models.CategoryGallery} {
		f := &models.StoredFile{
			ProjectID:    p.ID,
			Category:     cat,
			RelativePath: "projects/1/x/" + string(rune('a'+i)),
			UploadedBy:   models.RoleDesigner,
			UploadedAt:   now.Add(time.Duration(i) * time.Second),
		}
		if err := store.Files().Create(ctx, f); err != nil {
			t.Fatalf("create file: %v", err)
		}
	}

	gallery, err := store.Files().ListByProject(ctx, p.ID, models.CategoryGallery)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(gallery) != 2 {
		t.Fatalf("gallery = %d, want 2", len(gallery))
	}
	if gallery[0].RelativePath != "projects/1/x/c" {
		t.Errorf("newest first: got %s", gallery[0].RelativePath)
	}

	all, _ := store.Files().ListByProject(ctx, p.ID, "")
	if len(all) != 3 {
		t.Errorf("all = %d, want 3", len(all))
	}
}

func TestSupplierRepository_Search(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	for _, s := range []*models.Supplier{
		{Name: "Lumen Works", Category: "Lighting", Phone: "555-0100"},
		{Name: "Oak & Co", Category: "Furniture", Email: "sales@oak.example"},
	} {
		if err := store.Suppliers().Create(ctx, s); err != nil {
			t.Fatalf("create supplier: %v", err)
		}
	}

	got, err := store.Suppliers().Search(ctx, "light")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Lumen Works" {
		t.Errorf("search light = %+v", got)
	}

	got, _ = store.Suppliers().Search(ctx, "")
	if len(got) != 2 {
		t.Errorf("empty search = %d, want 2", len(got))
	}

	got, _ = store.Suppliers().Search(ctx, "%")
	if len(got) != 0 {
		t.Errorf("wildcard should be literal, got %d", len(got))
	}
}
