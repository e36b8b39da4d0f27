package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestToMinorUnits(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{in: "200", want: 20000},
		{in: "499.00", want: 49900},
		{in: "0.1", want: 10},
		{in: "19.99", want: 1999},
	}
	for _, tc := range cases {
		got, err := ToMinorUnits(decimal.RequireFromString(tc.in))
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("%s: expected %d got %d", tc.in, tc.want, got)
		}
	}
}

func TestToMinorUnitsRejectsExtraPrecision(t *testing.T) {
	if _, err := ToMinorUnits(decimal.RequireFromString("10.005")); err == nil {
		t.Fatal("expected error for sub-paise amount")
	}
}

func TestFromMinorUnitsRoundTrip(t *testing.T) {
	amount := FromMinorUnits(49900)
	if !amount.Equal(decimal.NewFromInt(499)) {
		t.Fatalf("expected 499, got %s", amount)
	}
	minor, err := ToMinorUnits(amount)
	if err != nil || minor != 49900 {
		t.Fatalf("expected 49900, got %d (%v)", minor, err)
	}
}

func TestRound(t *testing.T) {
	if got := Round(decimal.RequireFromString("33.335")); !got.Equal(decimal.RequireFromString("33.34")) {
		t.Fatalf("unexpected rounding %s", got)
	}
}
