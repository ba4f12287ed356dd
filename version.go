package cashier

import "github.com/itsneelabh/cashier/core"

// Build metadata, set with -ldflags at release time.
var (
	BuildDate = "development"
	GitCommit = "unknown"
)

// Version returns the client version reported to the POS API.
func Version() string {
	return core.Version
}
