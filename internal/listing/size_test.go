package listing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want int64
		ok   bool
	}{
		{name: "empty", raw: "", ok: false},
		{name: "whitespace only", raw: "   ", ok: false},
		{name: "dash", raw: "-", ok: false},
		{name: "padded dash", raw: " - ", ok: false},
		{name: "plain bytes", raw: "1234567", want: 1234567, ok: true},
		{name: "zero bytes", raw: "0", want: 0, ok: true},
		{name: "negative bytes", raw: "-5", want: -5, ok: true},
		{name: "kibibytes", raw: "12K", want: 12288, ok: true},
		{name: "lowercase suffix", raw: "12k", want: 12288, ok: true},
		{name: "fractional kibibytes", raw: "1.5K", want: 1536, ok: true},
		{name: "padded suffix", raw: " 1.5K ", want: 1536, ok: true},
		{name: "sub-unit fraction rounds", raw: "0.1K", want: 102, ok: true},
		{name: "fractional mebibytes", raw: "3.4M", want: 3565158, ok: true},
		{name: "half mebibytes", raw: "12.5M", want: 13107200, ok: true},
		{name: "large mebibytes", raw: "851M", want: 892338176, ok: true},
		{name: "gibibytes", raw: "2G", want: 2147483648, ok: true},
		{name: "scientific notation", raw: "1e3K", want: 1024000, ok: true},
		{name: "bare suffix", raw: "K", ok: false},
		{name: "float without suffix", raw: "12.5", ok: false},
		{name: "text", raw: "large", ok: false},
		{name: "not-applicable marker", raw: "n/a", ok: false},
		{name: "garbage before suffix", raw: "x2K", ok: false},
		{name: "date string", raw: "2024-01-09 10:12", ok: false},
		{name: "infinite suffix value", raw: "infG", ok: false},
		{name: "nan suffix value", raw: "nanK", ok: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseSize(tt.raw)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				require.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseSizeRoundsHalfwayCases(t *testing.T) {
	t.Parallel()

	// 0.3K is 307.2 bytes, 0.7K is 716.8; both round to nearest.
	got, ok := ParseSize("0.3K")
	require.True(t, ok)
	require.Equal(t, int64(307), got)

	got, ok = ParseSize("0.7K")
	require.True(t, ok)
	require.Equal(t, int64(717), got)
}
