package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseExpiry converts an expiry string such as "15m", "12h" or "7d" into a
// duration. Anything time.ParseDuration understands ("90s", "1h30m") is
// accepted too. Zero and negative values are rejected.
func ParseExpiry(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty expiry")
	}

	var d time.Duration
	if n, ok := strings.CutSuffix(s, "d"); ok {
		days, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("invalid expiry %q", s)
		}
		d = time.Duration(days) * 24 * time.Hour
	} else {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("invalid expiry %q", s)
		}
		d = parsed
	}

	if d <= 0 {
		return 0, fmt.Errorf("expiry %q must be positive", s)
	}
	return d, nil
}
