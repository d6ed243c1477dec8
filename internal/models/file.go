package models

import (
	"time"
)

// FileCategory selects the directory an upload lands in.
type FileCategory string

const (
	CategoryReference  FileCategory = "reference"
	CategoryDrawing    FileCategory = "drawing"
	CategoryGallery    FileCategory = "gallery"
	CategoryWhiteboard FileCategory = "whiteboard"
	CategoryMisc       FileCategory = "misc"
)

// FileCategories lists every category in display order.
var FileCategories = []FileCategory{CategoryReference, CategoryDrawing, CategoryGallery, CategoryWhiteboard, CategoryMisc}

// LookupFileCategory reports whether s names a category.
func LookupFileCategory(s string) (FileCategory, bool) {
	for _, c := range FileCategories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// ParseFileCategory maps unknown values to CategoryMisc.
func ParseFileCategory(s string) FileCategory {
	if c, ok := LookupFileCategory(s); ok {
		return c
	}
	return CategoryMisc
}

// Drawing kinds distinguish site surveys from proposals.
const (
	DrawingExisting = "existing"
	DrawingProposed = "proposed"
)

// StoredFile is the database record of an uploaded file.
type StoredFile struct {
	ID           int64        `json:"id"`
	ProjectID    int64        `json:"project_id"`
	Category     FileCategory `json:"category"`
	RelativePath string       `json:"relative_path"`
	RoomName     string       `json:"room_name,omitempty"`
	Kind         string       `json:"kind,omitempty"`
	Notes        string       `json:"notes,omitempty"`
	UploadedBy   Role         `json:"uploaded_by"`
	UploadedAt   time.Time    `json:"uploaded_at"`
}
