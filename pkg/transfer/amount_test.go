package transfer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToBaseUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		decimals uint8
		want     string
		wantErr  bool
	}{
		{name: "whole number", amount: "100", decimals: 6, want: "100000000"},
		{name: "full precision fraction", amount: "12.345678", decimals: 6, want: "12345678"},
		{name: "trailing zeros preserved", amount: "100.0", decimals: 6, want: "100000000"},
		{name: "native half unit", amount: "0.5", decimals: 18, want: "500000000000000000"},
		{name: "bare fraction", amount: ".25", decimals: 2, want: "25"},
		{name: "zero decimals", amount: "42", decimals: 0, want: "42"},
		{name: "large value exceeds float precision", amount: "123456789012345678.901234567890123456", decimals: 18, want: "123456789012345678901234567890123456"},
		{name: "zero rejected", amount: "0", decimals: 6, wantErr: true},
		{name: "zero with fraction rejected", amount: "0.000", decimals: 6, wantErr: true},
		{name: "negative rejected", amount: "-1", decimals: 6, wantErr: true},
		{name: "explicit plus rejected", amount: "+1", decimals: 6, wantErr: true},
		{name: "too many decimal places", amount: "1.2345678", decimals: 6, wantErr: true},
		{name: "not a number", amount: "abc", decimals: 6, wantErr: true},
		{name: "two dots", amount: "1.2.3", decimals: 6, wantErr: true},
		{name: "empty", amount: "", decimals: 6, wantErr: true},
		{name: "lone dot", amount: ".", decimals: 6, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToBaseUnits(tt.amount, tt.decimals)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got.String())
		})
	}
}

func TestValidateAmount(t *testing.T) {
	// Fraction length is a per-asset concern; a long fraction is still a
	// well-formed amount here
	require.NoError(t, ValidateAmount("1"))
	require.NoError(t, ValidateAmount("0.123456789012345678901234567890"))

	for _, amount := range []string{"", "0", "0.00", "-1", "+1", "abc", "1.2.3", "."} {
		require.Error(t, ValidateAmount(amount), "amount %q", amount)
	}
}
