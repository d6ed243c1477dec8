package suppliers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/good-yellow-bee/atelier/internal/models"
	"github.com/good-yellow-bee/atelier/internal/storage"
)

type mockSuppliers struct {
	mu     sync.Mutex
	byID   map[int64]*models.Supplier
	nextID int64
}

func newMockSuppliers() *mockSuppliers {
	return &mockSuppliers{byID: make(map[int64]*models.Supplier)}
}

func (m *mockSuppliers) Create(_ context.Context, s *models.Supplier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	s.ID = m.nextID
	cp := *s
	m.byID[s.ID] = &cp
	return nil
}

func (m *mockSuppliers) GetByID(_ context.Context, id int64) (*models.Supplier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id], nil
}

func (m *mockSuppliers) Search(_ context.Context, term string) ([]*models.Supplier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Supplier
	for _, s := range m.byID {
		if term == "" || strings.Contains(strings.ToLower(s.Name+" "+s.Category), strings.ToLower(term)) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockSuppliers) Update(_ context.Context, s *models.Supplier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[s.ID]; !ok {
		return fmt.Errorf("update supplier %d: %w", s.ID, storage.ErrNotFound)
	}
	cp := *s
	m.byID[s.ID] = &cp
	return nil
}

func (m *mockSuppliers) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return fmt.Errorf("delete supplier %d: %w", id, storage.ErrNotFound)
	}
	delete(m.byID, id)
	return nil
}

func newRouter(repo *mockSuppliers) http.Handler {
	h := NewHandler(repo, zap.NewNop().Sugar())
	r := chi.NewRouter()
	r.Get("/suppliers", h.Search)
	r.Get("/suppliers/categories", h.Categories)
	r.Post("/suppliers", h.Create)
	r.Put("/suppliers/{id}", h.Update)
	r.Delete("/suppliers/{id}", h.Delete)
	return r
}

func send(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreate(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"valid", `{"name":"Lumen Co","category":"Lighting","email":" Sales@Lumen.example "}`, http.StatusCreated},
		{"missing name", `{"category":"Lighting"}`, http.StatusBadRequest},
		{"unknown category", `{"name":"Rocks Ltd","category":"Gravel"}`, http.StatusBadRequest},
		{"bad email", `{"name":"Lumen","category":"Lighting","email":"nope"}`, http.StatusBadRequest},
		{"malformed", `{"name":`, http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := newMockSuppliers()
			rec := send(newRouter(repo), http.MethodPost, "/suppliers", tc.body)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tc.wantStatus, rec.Body.String())
			}
			if tc.wantStatus == http.StatusCreated && repo.byID[1].Email != "sales@lumen.example" {
				t.Errorf("email = %q, want normalized", repo.byID[1].Email)
			}
		})
	}
}

func TestSearch(t *testing.T) {
	repo := newMockSuppliers()
	ctx := context.Background()
	repo.Create(ctx, &models.Supplier{Name: "Lumen Co", Category: "Lighting"})
	repo.Create(ctx, &models.Supplier{Name: "Oak & Ash", Category: "Furniture"})
	h := newRouter(repo)

	rec := send(h, http.MethodGet, "/suppliers?q=light", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Data struct {
			Total int `json:"total"`
		} `json:"data"`
	}
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Data.Total != 1 {
		t.Errorf("total = %d, want 1", resp.Data.Total)
	}

	rec = send(h, http.MethodGet, "/suppliers/categories", "")
	if !strings.Contains(rec.Body.String(), "Furniture") {
		t.Errorf("categories missing: %s", rec.Body.String())
	}
}

func TestUpdateAndDelete(t *testing.T) {
	repo := newMockSuppliers()
	repo.Create(context.Background(), &models.Supplier{Name: "Lumen Co", Category: "Lighting"})
	h := newRouter(repo)

	rec := send(h, http.MethodPut, "/suppliers/1", `{"name":"Lumen & Co","category":"Lighting","phone":"555-0100"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}
	if repo.byID[1].Phone != "555-0100" {
		t.Errorf("phone = %q", repo.byID[1].Phone)
	}

	if rec := send(h, http.MethodPut, "/suppliers/9", `{"name":"X","category":"Paint"}`); rec.Code != http.StatusNotFound {
		t.Errorf("update missing: status = %d, want 404", rec.Code)
	}
	if rec := send(h, http.MethodDelete, "/suppliers/x", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id: status = %d, want 400", rec.Code)
	}
	if rec := send(h, http.MethodDelete, "/suppliers/1", ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete: status = %d, want 204", rec.Code)
	}
	if rec := send(h, http.MethodDelete, "/suppliers/1", ""); rec.Code != http.StatusNotFound {
		t.Errorf("delete again: status = %d, want 404", rec.Code)
	}
}
