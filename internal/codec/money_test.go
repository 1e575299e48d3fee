package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "globaltrust/pkg/domain-errors"
)

func TestEncodeMoney(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"0", 0},
		{"12", 1200},
		{"12.3", 1230},
		{"12.34", 1234},
		{".5", 50},
		{"+7.01", 701},
		{"1.005", 101},
		{"1.004", 100},
		{"1.0049", 100},
		{"-1.005", -101},
		{"-1.004", -100},
		{"0.995", 100},
		{" 250000.00 ", 25000000},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := EncodeMoney(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeMoneyRejects(t *testing.T) {
	for _, in := range []string{"", "-", ".", "12.", "1,000", "abc", "1.2.3", "1e3", "99999999999999999999"} {
		t.Run(in, func(t *testing.T) {
			_, err := EncodeMoney(in)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}
}

func TestMoneyRoundTrip(t *testing.T) {
	for _, in := range []string{"0.00", "0.01", "1.00", "12.34", "-12.34", "-0.05", "1000000.99", "92233720368547757.07"} {
		t.Run(in, func(t *testing.T) {
			minor, err := EncodeMoney(in)
			require.NoError(t, err)
			assert.Equal(t, in, DecodeMoney(minor).Decimal())
		})
	}
}

func TestMoneyDecimalAtBounds(t *testing.T) {
	assert.Equal(t, "-92233720368547758.08", Money(-9223372036854775808).Decimal())
	assert.Equal(t, "0.00", Money(0).Decimal())
}
