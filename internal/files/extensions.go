package files

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/good-yellow-bee/atelier/internal/models"
	"github.com/good-yellow-bee/atelier/internal/validate"
)

// Allowed upload extensions, without the dot.
var (
	ImageExtensions   = []string{"png", "jpg", "jpeg", "gif", "webp"}
	DrawingExtensions = []string{"pdf", "dwg", "dxf", "png", "jpg", "jpeg"}
)

// AllowedExtensions returns the allow-list for category. Misc uploads accept
// the union of images and drawings.
func AllowedExtensions(category models.FileCategory) []string {
	switch category {
	case models.CategoryDrawing:
		return DrawingExtensions
	case models.CategoryReference, models.CategoryGallery, models.CategoryWhiteboard:
		return ImageExtensions
	default:
		out := slices.Clone(ImageExtensions)
		for _, ext := range DrawingExtensions {
			if !slices.Contains(out, ext) {
				out = append(out, ext)
			}
		}
		return out
	}
}

// ValidateExtension checks name against the category's allow-list,
// case-insensitively.
func ValidateExtension(name string, category models.FileCategory) error {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(SafeFilename(name)), "."))
	allowed := AllowedExtensions(category)
	if ext == "" || !slices.Contains(allowed, ext) {
		return validate.New(fmt.Sprintf("file type not allowed; use one of: %s", strings.Join(allowed, ", ")))
	}
	return nil
}
