package core

import "strconv"

// Version is the client version reported in the User-Agent header and telemetry resources.
// Overridden at build time with -ldflags "-X github.com/itsneelabh/cashier/core.Version=...".
var Version = "development"

// Environment variables read outside the CASHIER_ prefix
const (
	EnvRedisURL = "REDIS_URL" // Redis connection URL for the session store
)

// Redis database allocation.
// DB 2 holds sessions so the store can share a Redis instance with other services.
const (
	RedisDBDefault  = 0
	RedisDBSessions = 2
)

// Session keys. The remote API contract fixes these names.
const (
	KeyToken = "token"
	KeyCart  = "cart"
)

// GetRedisDBName returns a human-readable name for a Redis database number.
func GetRedisDBName(db int) string {
	switch db {
	case RedisDBDefault:
		return "Default"
	case RedisDBSessions:
		return "Sessions"
	default:
		return "DB " + strconv.Itoa(db)
	}
}
