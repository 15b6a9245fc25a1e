package utils

import (
	"strings"

	"github.com/hashicorp/go-version"
)

// LedgerVersionConfig holds the ledger API version requirements the engine
// was built against.
type LedgerVersionConfig struct {
	CurrentStable string
	MinSupported  string
	Deprecated    string
}

var DefaultLedgerVersions = LedgerVersionConfig{
	CurrentStable: "1.4.0", // Latest ledger execution API
	MinSupported:  "1.2.0", // Minimum version with idempotent burns
	Deprecated:    "1.1.0", // Versions below this reject treasury refs
}

// CheckLedgerVersion determines whether a ledger node's API version is safe
// to execute burns against.
func CheckLedgerVersion(ledgerVersion string, config *LedgerVersionConfig) (status string, supported bool) {
	if config == nil {
		config = &DefaultLedgerVersions
	}

	// Clean version string (remove 'v' prefix if present)
	ledgerVersion = strings.TrimPrefix(ledgerVersion, "v")

	ver, err := version.NewVersion(ledgerVersion)
	if err != nil {
		return "unknown", false
	}

	current, _ := version.NewVersion(config.CurrentStable)
	minSupported, _ := version.NewVersion(config.MinSupported)
	deprecated, _ := version.NewVersion(config.Deprecated)

	if ver.LessThan(deprecated) {
		return "deprecated", false
	}

	if ver.LessThan(minSupported) {
		return "outdated", false
	}

	if ver.LessThan(current) {
		return "outdated", true
	}

	return "current", true
}
