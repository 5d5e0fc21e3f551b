package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExpiry(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"15m", 15 * time.Minute},
		{"12h", 12 * time.Hour},
		{"7d", 7 * 24 * time.Hour},
		{"1d", 24 * time.Hour},
		{"90s", 90 * time.Second},
		{" 30m ", 30 * time.Minute},
	}

	for _, tt := range tests {
		got, err := ParseExpiry(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseExpiry_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "7x", "d", "-1d", "0m", "1.5d"} {
		_, err := ParseExpiry(in)
		assert.Error(t, err, in)
	}
}
