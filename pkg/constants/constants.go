// Package constants provides shared constants for the carlitos application.
package constants

import "time"

// DateTimeLayout is the month format used for schedules and chart labels.
const DateTimeLayout = "2006-01"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// MaxSimulationMonths bounds the time-to-target simulation (1000 years).
	MaxSimulationMonths = 1000 * MonthsPerYear

	// MillionTarget is the default target of the time-to-target simulator.
	MillionTarget = 1000000.0
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// DefaultEnvFile is loaded before the configuration when present
	DefaultEnvFile = ".env"

	// EnvPrefix prefixes environment overrides (CARLITOS_STORAGE_PATH, ...)
	EnvPrefix = "CARLITOS"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size (256 KB)
	DefaultMaxBodySizeBytes int64 = 256 * 1024

	// DefaultRateLimit is the number of requests a client may burst per window
	DefaultRateLimit = 60
)

// Storage and sync defaults
const (
	// DefaultStoragePath is the sqlite database used for local state
	DefaultStoragePath = "carlitos.db"

	// DefaultSyncKeyPrefix prefixes every remote document key
	DefaultSyncKeyPrefix = "carlitos"

	// DefaultSyncSchedule pushes local state every fifteen minutes
	DefaultSyncSchedule = "*/15 * * * *"

	// DefaultSyncTimeout bounds one best-effort push after a mutation
	DefaultSyncTimeout = 3 * time.Second

	// DefaultUserID identifies the single local user
	DefaultUserID = "local"

	// DefaultProfileName is shown until the user picks a name
	DefaultProfileName = "Explorador"
)

// Validation constants
const (
	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)
