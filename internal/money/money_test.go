package money_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transit-ticketing/internal/money"
)

// boxedDecimal mimics a driver-specific numeric wrapper that only exposes
// its value through String().
type boxedDecimal struct {
	raw string
}

func (b boxedDecimal) String() string { return b.raw }

func TestNormalize_CanonicalForms(t *testing.T) {
	inputs := []interface{}{
		"45.00",
		`"45.00"`,
		"  '45.00'  ",
		45.0,
		float32(45.0),
		45,
		int64(45),
		decimal.RequireFromString("45"),
		boxedDecimal{raw: "45.00"},
		[]byte("45.00"),
	}

	for _, in := range inputs {
		got, err := money.Normalize(in)
		require.NoError(t, err, "input %#v", in)
		assert.Equal(t, "45.00", money.Format(got), "input %#v", in)
	}
}

func TestNormalize_RoundsToTwoDigits(t *testing.T) {
	got, err := money.Normalize("92.005")
	require.NoError(t, err)
	assert.Equal(t, "92.01", money.Format(got))

	got, err = money.Normalize(0.1)
	require.NoError(t, err)
	assert.Equal(t, "0.10", money.Format(got))
}

func TestNormalize_UnparsableErrors(t *testing.T) {
	for _, in := range []interface{}{"not-a-number", "", "''", nil, "12,34x"} {
		_, err := money.Normalize(in)
		assert.ErrorIs(t, err, money.ErrUnparsableAmount, "input %#v", in)
	}
}

func TestNormalize_NegativeRejected(t *testing.T) {
	_, err := money.Normalize("-10.00")
	assert.ErrorIs(t, err, money.ErrNegativeAmount)
}

func TestEqual_IgnoresScaleArtifacts(t *testing.T) {
	a := decimal.RequireFromString("92")
	b := decimal.RequireFromString("92.00")
	assert.True(t, money.Equal(a, b))
}
