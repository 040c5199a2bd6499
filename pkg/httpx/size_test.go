package httpx_test

import (
	"testing"

	"github.com/berat-eth/huglu-gateway/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestParseSize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want int64
	}{
		{"512b", 512},
		{"1kb", 1 << 10},
		{"1.5kb", 1536},
		{"10mb", 10 << 20},
		{"1gb", 1 << 30},
		{"10MB", 10 << 20},
		{"  10mb  ", 10 << 20},
		{"10 mb", 10 << 20},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := httpx.ParseSize(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}

	t.Run("rejects invalid input", func(t *testing.T) {
		for _, in := range []string{"", "mb", "10", "10tb", "-10mb", "ten mb"} {
			_, err := httpx.ParseSize(in)
			require.Error(t, err, "input %q", in)
		}
	})
}
