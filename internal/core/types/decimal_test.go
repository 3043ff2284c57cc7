package types

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hesap/internal/core/apperror"
)

func TestTryParseAtScale(t *testing.T) {
	tests := []struct {
		input string
		scale int32
		want  string
		ok    bool
	}{
		{"2", ScaleQuantity, "2.000", true},
		{"100.0000", ScalePrice, "100.0000", true},
		{" 12.5 ", ScaleMoney, "12.50", true},
		{"+1.005", ScaleMoney, "1.01", true},
		{"-1.005", ScaleMoney, "-1.01", true},
		{"0.0005", ScaleQuantity, "0.001", true},
		{"2.4999", ScaleMoney, "2.50", true},
		{".5", ScaleMoney, "0.50", true},
		{"5.", ScaleMoney, "5.00", true},
		{"", ScaleMoney, "", false},
		{"abc", ScaleMoney, "", false},
		{"1,000.00", ScaleMoney, "", false},
		{"1,5", ScaleMoney, "", false},
		{"1e3", ScaleMoney, "", false},
		{"1.2.3", ScaleMoney, "", false},
		{"-", ScaleMoney, "", false},
		{"NaN", ScaleMoney, "", false},
		{"9999999999999999.99", ScaleMoney, "9999999999999999.99", true},
		{"-9999999999999999.99", ScaleMoney, "-9999999999999999.99", true},
		{"99999999999999999", ScaleMoney, "", false},
		{"9999999999999999.995", ScaleMoney, "", false},
		{"99999999999999.9999", ScalePrice, "99999999999999.9999", true},
		{"123456789012345", ScalePrice, "", false},
		{"999999999999999.9994", ScaleQuantity, "999999999999999.999", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := TryParseAtScale(tt.input, tt.scale)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, FormatAtScale(got, tt.scale))
			}
		})
	}
}

func TestRoundAtScale_HalfAwayFromZero(t *testing.T) {
	tests := []struct {
		in    string
		scale int32
		want  string
	}{
		{"2.5", 0, "3"},
		{"-2.5", 0, "-3"},
		{"0.125", 2, "0.13"},
		{"-0.125", 2, "-0.13"},
		{"0.1249", 2, "0.12"},
		{"1.0005", 3, "1.001"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := RoundAtScale(decimal.RequireFromString(tt.in), tt.scale)
			assert.Equal(t, tt.want, FormatAtScale(got, tt.scale))
		})
	}
}

func TestRoundAtScale_Idempotent(t *testing.T) {
	values := []string{"0", "1.23", "-45.678", "999999.9999", "0.001", "-0.50"}
	for _, scale := range []int32{ScaleMoney, ScaleQuantity, ScalePrice} {
		for _, v := range values {
			once := RoundAtScale(decimal.RequireFromString(v), scale)
			twice := RoundAtScale(once, scale)
			assert.True(t, once.Equal(twice), "scale %d value %s", scale, v)
		}
	}
}

func TestFormatAtScale_NoGrouping(t *testing.T) {
	d := decimal.RequireFromString("1234567.5")

	assert.Equal(t, "1234567.50", FormatAtScale(d, ScaleMoney))
	assert.Equal(t, "1234567.500", FormatAtScale(d, ScaleQuantity))
	assert.Equal(t, "1234567.5000", FormatAtScale(d, ScalePrice))
}

func TestMulRound_RoundsAtOnce(t *testing.T) {
	qty := decimal.RequireFromString("3.333")
	price := decimal.RequireFromString("0.3333")

	net := MulRound(qty, price, ScaleMoney)

	// 3.333 * 0.3333 = 1.1108889
	assert.Equal(t, "1.11", FormatMoney(net))
}

func TestLineAmounts(t *testing.T) {
	tests := []struct {
		qty, price      string
		rate            int
		net, vat, gross string
	}{
		{"2.000", "100.0000", 20, "200.00", "40.00", "240.00"},
		{"1", "100", 18, "100.00", "18.00", "118.00"},
		{"3.333", "0.3333", 18, "1.11", "0.20", "1.31"},
		{"1", "0.125", 0, "0.13", "0.00", "0.13"},
		{"1", "10.05", 50, "10.05", "5.03", "15.08"},
	}

	for _, tt := range tests {
		net, vat, gross := LineAmounts(decimal.RequireFromString(tt.qty), decimal.RequireFromString(tt.price), tt.rate)
		assert.Equal(t, tt.net, FormatMoney(net))
		assert.Equal(t, tt.vat, FormatMoney(vat))
		assert.Equal(t, tt.gross, FormatMoney(gross))
		assert.True(t, gross.Equal(net.Add(vat)))
	}
}

func TestParseAtScale_ValidationError(t *testing.T) {
	_, err := ParseAtScale("lines[0].quantity", "12,5", ScaleQuantity)

	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, "lines[0].quantity", appErr.Details["field"])
}

func TestParseAtScale_OutOfRange(t *testing.T) {
	_, err := ParseAtScale("amount", "12345678901234567", ScaleMoney)

	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	assert.Contains(t, err.Error(), "exceeds 16 integer digits")
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("date", "2025-01-10T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseDate("date", "2025-01-10")
	require.NoError(t, err)
	assert.Equal(t, 10, got.Day())

	got, err = ParseDate("date", "2025-01-10T03:00:00+03:00")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Hour())

	_, err = ParseDate("date", "10/01/2025")
	assert.True(t, apperror.IsValidation(err))

	_, err = ParseDate("date", "")
	assert.True(t, apperror.IsValidation(err))
}

func TestParseOptionalDate_Default(t *testing.T) {
	def := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	got, err := ParseOptionalDate("date", nil, def)
	require.NoError(t, err)
	assert.Equal(t, def, got)

	empty := " "
	got, err = ParseOptionalDate("date", &empty, def)
	require.NoError(t, err)
	assert.Equal(t, def, got)
}
