package respond

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"

	"github.com/good-yellow-bee/atelier/internal/access"
	"github.com/good-yellow-bee/atelier/internal/auth"
	"github.com/good-yellow-bee/atelier/internal/storage"
	"github.com/good-yellow-bee/atelier/internal/validate"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"unauthenticated", access.ErrUnauthenticated, http.StatusUnauthorized, ErrCodeUnauthorized, "Please login to access this page"},
		{"wrong role", fmt.Errorf("gate: %w", access.ErrUnauthorizedRole), http.StatusForbidden, ErrCodeForbidden, "Unauthorized access"},
		{"duplicate email", auth.ErrDuplicateEmail, http.StatusConflict, ErrCodeConflict, "Email already registered"},
		{"missing project", access.ErrNotFound, http.StatusNotFound, ErrCodeNotFound, "Project not found"},
		{"missing row", storage.ErrNotFound, http.StatusNotFound, ErrCodeNotFound, "Resource not found"},
		{"validation", validate.New("name is required"), http.StatusBadRequest, ErrCodeValidationFailed, "name is required"},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, ErrCodeInternalError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromError(tt.err)
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.code, got.Code)
			assert.Equal(t, tt.message, got.Message)
		})
	}
}

func TestSentinelsAreLowercase(t *testing.T) {
	for _, err := range []error{access.ErrUnauthenticated, access.ErrUnauthorizedRole, auth.ErrDuplicateEmail} {
		msg := err.Error()
		assert.False(t, unicode.IsUpper(rune(msg[0])), msg)
	}
}
