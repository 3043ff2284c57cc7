// Package id provides UUIDv7 identifiers for all entities.
package id

import (
	"strings"

	"github.com/google/uuid"

	"hesap/internal/core/apperror"
)

// ID is a type alias for UUID, used across all entities.
type ID = uuid.UUID

// New generates a new UUIDv7 (time-ordered UUID).
func New() ID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}

// Parse converts string to ID.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// ParseField parses a required identifier, reporting failures as validation errors.
func ParseField(field, s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uuid.Nil, apperror.NewFieldValidation(field, "is required")
	}
	v, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, apperror.NewFieldValidation(field, "must be a UUID")
	}
	return v, nil
}

// ParseOptional parses an optional identifier; empty input yields nil.
func ParseOptional(field string, s *string) (*ID, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	v, err := ParseField(field, *s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// MustParse converts string to ID, panics on error.
// Use only for constants and tests.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

// Nil returns zero-value UUID.
func Nil() ID {
	return uuid.Nil
}

// IsNil checks if ID is zero-value.
func IsNil(id ID) bool {
	return id == uuid.Nil
}

// Ptr returns a pointer to a copy of v.
func Ptr(v ID) *ID {
	return &v
}

// EqualPtr compares optional identifiers; two nils are equal.
func EqualPtr(a, b *ID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// StringPtr renders an optional identifier for DTOs.
func StringPtr(v *ID) *string {
	if v == nil {
		return nil
	}
	s := v.String()
	return &s
}
