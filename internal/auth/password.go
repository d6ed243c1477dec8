package auth

import (
	"github.com/good-yellow-bee/atelier/internal/validate"
)

// Password bounds. bcrypt ignores everything past 72 bytes.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

// ValidatePassword checks the password length rules.
func ValidatePassword(password string) error {
	var messages []string

	if len(password) < MinPasswordLength {
		messages = append(messages, "Password must be at least 8 characters long")
	}
	if len(password) > MaxPasswordLength {
		messages = append(messages, "Password must be at most 72 bytes long")
	}

	if len(messages) > 0 {
		return validate.New(messages...)
	}
	return nil
}
