package payments

import (
	"testing"

	"github.com/dmitrijs2005/gearhub/internal/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		price string
		want  int64
	}{
		{"19.99", 1999},
		{"0.01", 1},
		{"5", 500},
		{"10.005", 1001},
		{"0.994", 99},
	}
	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			got, err := ToMinorUnits(decimal.RequireFromString(tt.price))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToMinorUnits_Rejects(t *testing.T) {
	for _, in := range []string{"0", "-1", "0.001", "1000000000000"} {
		_, err := ToMinorUnits(decimal.RequireFromString(in))
		assert.ErrorIs(t, err, common.ErrorValidation, in)
	}
}

func TestToMinorUnits_RoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cents := rapid.Int64Range(1, 99_999_999_999).Draw(t, "cents")

		got, err := ToMinorUnits(FromMinorUnits(cents))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != cents {
			t.Fatalf("got %d want %d", got, cents)
		}
	})
}

func TestToMinorUnits_SubCentProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		mills := rapid.Int64Range(10, 1_000_000_000).Draw(t, "mills")
		price := decimal.New(mills, -3)

		got, err := ToMinorUnits(price)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		diff := FromMinorUnits(got).Sub(price).Abs()
		if diff.GreaterThan(decimal.New(5, -3)) {
			t.Fatalf("price %s converted to %d, off by %s", price, got, diff)
		}
	})
}
