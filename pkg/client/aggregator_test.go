package client

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSmallestUnit(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		decimals float32
		want     string
		wantErr  bool
	}{
		{name: "whole number", amount: "100", decimals: 6, want: "100000000"},
		{name: "full 18-decimal fraction", amount: "1.234567890123456789", decimals: 18, want: "1234567890123456789"},
		{name: "exceeds float64 precision", amount: "123456789012345678.901234567890123456", decimals: 18, want: "123456789012345678901234567890123456"},
		{name: "zero rejected", amount: "0", decimals: 6, wantErr: true},
		{name: "not a number", amount: "abc", decimals: 6, wantErr: true},
		{name: "bad decimals", amount: "1", decimals: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := smallestUnit(tt.amount, tt.decimals)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
