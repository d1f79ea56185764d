package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidState       = errors.New("invalid state")
	ErrAccessDenied       = errors.New("access denied")
	ErrDuplicateAnswer    = errors.New("question already answered")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUserExists         = errors.New("username or email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// notFound translates gorm's missing-row error into ErrNotFound, wrapping
// everything else unchanged.
func notFound(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", msg, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
