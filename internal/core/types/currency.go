package types

import (
	"strings"

	"golang.org/x/text/currency"

	"hesap/internal/core/apperror"
)

// ParseCurrency validates an ISO 4217 code and returns it upper-cased.
func ParseCurrency(field, s string) (string, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", apperror.NewFieldValidation(field, "is required")
	}
	if len(s) != 3 {
		return "", apperror.NewFieldValidation(field, "must be a 3-letter ISO 4217 code")
	}
	unit, err := currency.ParseISO(s)
	if err != nil {
		return "", apperror.NewFieldValidation(field, "is not a known ISO 4217 currency").
			WithDetail("value", s)
	}
	return unit.String(), nil
}
