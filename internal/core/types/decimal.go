// Package types provides the decimal money/quantity codec and date parsing
// shared by every monetary document.
//
// Every amount has a fixed scale: unit prices 4, quantities 3, monetary totals 2.
// Inputs are parsed culture-invariantly and rounded half away from zero to their
// scale before any arithmetic; any operation that changes semantic scale rounds
// immediately instead of at the end of a chain.
package types

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hesap/internal/core/apperror"
)

// Scales used across the domain.
const (
	ScaleMoney    int32 = 2
	ScaleQuantity int32 = 3
	ScalePrice    int32 = 4
)

// Precision is the total digit count of every stored NUMERIC column, so a
// value at scale s keeps at most Precision-s integer digits.
const Precision int32 = 18

// RoundingPolicy is reported to API consumers alongside computed totals.
const RoundingPolicy = "AwayFromZero"

// Money is a monetary amount at ScaleMoney.
type Money = decimal.Decimal

// Quantity is a stock/line quantity at ScaleQuantity.
type Quantity = decimal.Decimal

// Price is a unit price at ScalePrice.
type Price = decimal.Decimal

// Zero returns the zero decimal.
func Zero() decimal.Decimal {
	return decimal.Zero
}

// TryParseAtScale parses s with invariant rules ('.' decimal point, optional
// leading sign, no grouping separators, no exponent) and rounds the result to
// scale. It reports false instead of failing on malformed input or on a value
// that does not fit a NUMERIC(Precision, scale) column.
func TryParseAtScale(s string, scale int32) (decimal.Decimal, bool) {
	d, err := parseAtScale(s, scale)
	return d, err == nil
}

// ParseAtScale is TryParseAtScale with a validation error naming the field.
func ParseAtScale(field, s string, scale int32) (decimal.Decimal, error) {
	d, err := parseAtScale(s, scale)
	if err != nil {
		return decimal.Zero, apperror.NewFieldValidation(field, fmt.Sprintf("%q %s", s, err.Error())).
			WithDetail("value", s)
	}
	return d, nil
}

func parseAtScale(s string, scale int32) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if !isPlainDecimal(s) {
		return decimal.Zero, errNotDecimal
	}
	d, err := decimal.NewFromString(strings.TrimPrefix(s, "+"))
	if err != nil {
		return decimal.Zero, errNotDecimal
	}
	d = RoundAtScale(d, scale)
	if !FitsAtScale(d, scale) {
		return decimal.Zero, fmt.Errorf("exceeds %d integer digits", Precision-scale)
	}
	return d, nil
}

var errNotDecimal = errors.New("is not a valid decimal")

// FitsAtScale reports whether d, already rounded to scale, fits a
// NUMERIC(Precision, scale) column.
func FitsAtScale(d decimal.Decimal, scale int32) bool {
	return d.Abs().LessThan(decimal.New(1, Precision-scale))
}

// RoundAtScale rounds half away from zero to scale fractional digits.
func RoundAtScale(d decimal.Decimal, scale int32) decimal.Decimal {
	// decimal.Round rounds half away from zero (-2.5 -> -3).
	return d.Round(scale)
}

// FormatAtScale renders exactly scale fractional digits without grouping.
func FormatAtScale(d decimal.Decimal, scale int32) string {
	return d.StringFixed(scale)
}

// MulRound multiplies and rounds the product to scale at once.
func MulRound(a, b decimal.Decimal, scale int32) decimal.Decimal {
	return RoundAtScale(a.Mul(b), scale)
}

// AddRound adds and rounds the sum to scale.
func AddRound(a, b decimal.Decimal, scale int32) decimal.Decimal {
	return RoundAtScale(a.Add(b), scale)
}

// SumRound adds all values and rounds once to scale. Inputs are already at
// scale, so no intermediate rounding is lost.
func SumRound(scale int32, values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return RoundAtScale(total, scale)
}

// LineAmounts derives a document line's amounts, rounding after each step:
// net = round2(qty * price), vat = round2(net * rate / 100), gross = net + vat.
func LineAmounts(qty, price decimal.Decimal, vatRate int) (net, vat, gross decimal.Decimal) {
	net = MulRound(qty, price, ScaleMoney)
	vat = RoundAtScale(net.Mul(decimal.NewFromInt(int64(vatRate))).Shift(-2), ScaleMoney)
	gross = AddRound(net, vat, ScaleMoney)
	return net, vat, gross
}

// FormatMoney formats at ScaleMoney.
func FormatMoney(d decimal.Decimal) string { return FormatAtScale(d, ScaleMoney) }

// FormatQuantity formats at ScaleQuantity.
func FormatQuantity(d decimal.Decimal) string { return FormatAtScale(d, ScaleQuantity) }

// FormatPrice formats at ScalePrice.
func FormatPrice(d decimal.Decimal) string { return FormatAtScale(d, ScalePrice) }

// isPlainDecimal accepts [+-]digits[.digits] with at least one digit.
func isPlainDecimal(s string) bool {
	if s == "" {
		return false
	}
	i := 0
	if s[0] == '+' || s[0] == '-' {
		i++
	}
	digits, dots := 0, 0
	for ; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
			dots++
			if dots > 1 {
				return false
			}
		default:
			return false
		}
	}
	return digits > 0
}

// dateLayouts are the accepted ISO-8601 shapes, most specific first.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate parses an ISO-8601 timestamp or date into UTC.
func ParseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, apperror.NewFieldValidation(field, "is required")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apperror.NewFieldValidation(field, fmt.Sprintf("%q is not an ISO-8601 date", s)).
		WithDetail("value", s)
}

// ParseOptionalDate parses s when present and falls back to def otherwise.
func ParseOptionalDate(field string, s *string, def time.Time) (time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return def.UTC(), nil
	}
	return ParseDate(field, *s)
}
