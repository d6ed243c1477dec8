// Package suppliers serves the shared supplier directory to designers.
package suppliers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/good-yellow-bee/atelier/internal/api/respond"
	"github.com/good-yellow-bee/atelier/internal/models"
	"github.com/good-yellow-bee/atelier/internal/storage"
	"github.com/good-yellow-bee/atelier/internal/validate"
)

// SupplierRequest creates or replaces a supplier entry.
type SupplierRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Category string `json:"category" validate:"required"`
	Phone    string `json:"phone" validate:"max=50"`
	Email    string `json:"email" validate:"omitempty,email,max=254"`
	Address  string `json:"address" validate:"max=500"`
}

func (req *SupplierRequest) normalize() {
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = models.NormalizeEmail(req.Email)
	req.Address = strings.TrimSpace(req.Address)
}

func (req *SupplierRequest) validate() error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	for _, c := range models.SupplierCategories {
		if c == req.Category {
			return nil
		}
	}
	return validate.New("category must be one of: " + strings.Join(models.SupplierCategories, " "))
}

// Handler handles supplier endpoints.
type Handler struct {
	suppliers storage.SupplierRepository
	logger    *zap.SugaredLogger
}

// NewHandler creates a supplier handler.
func NewHandler(suppliers storage.SupplierRepository, logger *zap.SugaredLogger) *Handler {
	return &Handler{suppliers: suppliers, logger: logger}
}

// Search handles GET /api/v1/suppliers?q=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	list, err := h.suppliers.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respond.Err(w, h.logger, "search suppliers", err)
		return
	}
	if list == nil {
		list = []*models.Supplier{}
	}
	respond.OK(w, map[string]any{"items": list, "total": len(list)})
}

// Categories handles GET /api/v1/suppliers/categories.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	respond.OK(w, models.SupplierCategories)
}

// Create handles POST /api/v1/suppliers.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req SupplierRequest
	if apiErr := respond.Decode(r, &req); apiErr != nil {
		respond.JSONError(w, apiErr)
		return
	}
	req.normalize()
	if err := req.validate(); err != nil {
		respond.Err(w, h.logger, "create supplier", err)
		return
	}

	s := &models.Supplier{
		Name:     req.Name,
		Category: req.Category,
		Phone:    req.Phone,
		Email:    req.Email,
		Address:  req.Address,
	}
	if err := h.suppliers.Create(r.Context(), s); err != nil {
		respond.Err(w, h.logger, "create supplier", err)
		return
	}

	respond.Created(w, s)
}

// Update handles PUT /api/v1/suppliers/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, apiErr := respond.ParseID(chi.URLParam(r, "id"))
	if apiErr != nil {
		respond.JSONError(w, apiErr)
		return
	}

	var req SupplierRequest
	if apiErr := respond.Decode(r, &req); apiErr != nil {
		respond.JSONError(w, apiErr)
		return
	}
	req.normalize()
	if err := req.validate(); err != nil {
		respond.Err(w, h.logger, "update supplier", err)
		return
	}

	s := &models.Supplier{
		ID:       id,
		Name:     req.Name,
		Category: req.Category,
		Phone:    req.Phone,
		Email:    req.Email,
		Address:  req.Address,
	}
	if err := h.suppliers.Update(r.Context(), s); err != nil {
		respond.Err(w, h.logger, "update supplier", err)
		return
	}

	respond.OK(w, s)
}

// Delete handles DELETE /api/v1/suppliers/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, apiErr := respond.ParseID(chi.URLParam(r, "id"))
	if apiErr != nil {
		respond.JSONError(w, apiErr)
		return
	}

	if err := h.suppliers.Delete(r.Context(), id); err != nil {
		respond.Err(w, h.logger, "delete supplier", err)
		return
	}

	respond.NoContent(w)
}
