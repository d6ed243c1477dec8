package projects

import (
	"errors"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/good-yellow-bee/atelier/internal/api/middleware"
	"github.com/good-yellow-bee/atelier/internal/api/respond"
	"github.com/good-yellow-bee/atelier/internal/models"
	"github.com/good-yellow-bee/atelier/internal/notifier"
	projectsvc "github.com/good-yellow-bee/atelier/internal/projects"
	"github.com/good-yellow-bee/atelier/internal/session"
)

// multipartMemory is how much of a multipart body is buffered in memory
// before spilling to temporary files.
const multipartMemory = 8 << 20

// formCategory resolves a client-supplied category name.
func formCategory(raw string) (models.FileCategory, *respond.Error) {
	c, ok := models.LookupFileCategory(raw)
	if !ok {
		names := make([]string, len(models.FileCategories))
		for i, c := range models.FileCategories {
			names[i] = string(c)
		}
		return "", respond.NewValidationError("category must be one of: " + strings.Join(names, " "))
	}
	return c, nil
}

// ListFiles handles GET …/files. ?category= narrows the listing.
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	project := middleware.GetProject(r.Context())

	var category models.FileCategory
	if raw := r.URL.Query().Get("category"); raw != "" {
		c, apiErr := formCategory(raw)
		if apiErr != nil {
			respond.JSONError(w, apiErr)
			return
		}
		category = c
	}

	list, err := h.store.Files().ListByProject(r.Context(), project.ID, category)
	if err != nil {
		respond.Err(w, h.logger, "list files", err)
		return
	}
	if list == nil {
		list = []*models.StoredFile{}
	}

	respond.OK(w, map[string]any{"items": list})
}

// Upload handles POST /api/v1/projects/{projectID}/files. The form carries
// the file under "file" and the category under "category".
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, "")
}

// UploadGallery handles POST /api/v1/client/project/gallery.
func (h *Handler) UploadGallery(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, models.CategoryGallery)
}

// upload stores the multipart "file" part. An empty category is taken from
// the form.
func (h *Handler) upload(w http.ResponseWriter, r *http.Request, category models.FileCategory) {
	project := middleware.GetProject(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) || r.ContentLength > h.maxUpload {
			respond.Err(w, h.logger, "upload", &http.MaxBytesError{Limit: h.maxUpload})
			return
		}
		respond.JSONError(w, respond.NewBadRequest("expected a multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	if category == "" {
		raw := strings.ToLower(strings.TrimSpace(r.FormValue("category")))
		if raw == "" {
			category = models.CategoryMisc
		} else {
			c, apiErr := formCategory(raw)
			if apiErr != nil {
				respond.JSONError(w, apiErr)
				return
			}
			category = c
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respond.JSONError(w, respond.NewValidationError("file is required"))
		return
	}
	defer file.Close()

	meta := projectsvc.UploadMeta{
		RoomName:   r.FormValue("room_name"),
		Kind:       strings.ToLower(strings.TrimSpace(r.FormValue("kind"))),
		Notes:      r.FormValue("notes"),
		UploadedBy: session.FromContext(r.Context()).CurrentRole(),
	}
	rec, err := h.svc.Upload(r.Context(), project.ID, category, header.Filename, file, meta)
	if err != nil {
		respond.Err(w, h.logger, "upload", err)
		return
	}

	if meta.UploadedBy == models.RoleClient {
		h.notifyDesigner(r.Context(), project, notifier.EventGalleryUpload, rec.Notes)
	}
	respond.Created(w, rec)
}

// Content handles GET …/files/{id}/content.
func (h *Handler) Content(w http.ResponseWriter, r *http.Request) {
	project := middleware.GetProject(r.Context())
	id, apiErr := recordID(r)
	if apiErr != nil {
		respond.JSONError(w, apiErr)
		return
	}

	rec, err := h.store.Files().GetByID(r.Context(), project.ID, id)
	if err != nil {
		respond.Err(w, h.logger, "get file", err)
		return
	}
	if rec == nil {
		respond.JSONError(w, respond.NewNotFound("File not found"))
		return
	}

	f, err := h.files.Open(rec.RelativePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			h.logger.Warnw("file record without content", "file_id", rec.ID, "path", rec.RelativePath)
			respond.JSONError(w, respond.NewNotFound("File not found"))
			return
		}
		respond.Err(w, h.logger, "open file", err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		respond.Err(w, h.logger, "stat file", err)
		return
	}

	http.ServeContent(w, r, path.Base(rec.RelativePath), info.ModTime(), f)
}

// DeleteFile handles DELETE /api/v1/projects/{projectID}/files/{id}.
func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	project := middleware.GetProject(r.Context())
	id, apiErr := recordID(r)
	if apiErr != nil {
		respond.JSONError(w, apiErr)
		return
	}

	if err := h.svc.DeleteFile(r.Context(), project.ID, id); err != nil {
		respond.Err(w, h.logger, "delete file", err)
		return
	}

	respond.NoContent(w)
}
