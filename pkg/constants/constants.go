// Package constants provides shared constants for the loan-revision application.
package constants

// DateLayout is the format of every date accepted and produced by the
// application (due dates, contract dates, index dates).
const DateLayout = "2006-01-02"

// MonthLayout is used when only the month of a date matters.
const MonthLayout = "2006-01"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// MQJSMonthlyRateCap is the ceiling applied to the MQJS monthly rate (1% a.m.)
	MQJSMonthlyRateCap = 0.01

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
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
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum size of an index import body (8 MB)
	DefaultMaxUploadSizeBytes int64 = 8 * 1024 * 1024
)

// Index store defaults
const (
	// IndexDriverMemory keeps index points in process memory
	IndexDriverMemory = "memory"

	// IndexDriverSQLite stores index points in a SQLite database file
	IndexDriverSQLite = "sqlite"

	// IndexDriverPostgres stores index points in PostgreSQL
	IndexDriverPostgres = "postgres"

	// DefaultIndexDSN is the default SQLite database path
	DefaultIndexDSN = "indices.db"
)
