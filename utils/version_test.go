package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckLedgerVersion(t *testing.T) {
	cases := []struct {
		version   string
		status    string
		supported bool
	}{
		{"1.4.0", "current", true},
		{"v1.4.0", "current", true},
		{"1.5.2", "current", true},
		{"1.3.0", "outdated", true},
		{"1.1.5", "outdated", false},
		{"1.0.0", "deprecated", false},
		{"garbage", "unknown", false},
		{"", "unknown", false},
	}

	for _, tc := range cases {
		status, supported := CheckLedgerVersion(tc.version, nil)
		require.Equal(t, tc.status, status, "version=%q", tc.version)
		require.Equal(t, tc.supported, supported, "version=%q", tc.version)
	}
}
