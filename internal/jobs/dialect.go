package jobs

import (
	"database/sql"
	"regexp"
	"strconv"
)

// Dialect isolates the SQL differences between the supported job databases.
type Dialect interface {
	// DriverName returns the driver name for sql.Open
	DriverName() string

	// DSN returns the data source name for the connection
	DSN(config DialectConfig) string

	// RewriteQuery converts placeholder syntax if needed (e.g., ? to $1 for postgres)
	RewriteQuery(query string) string

	// ConfigureConnection applies pool settings and per-database session options
	ConfigureConnection(db *sql.DB) error

	// CreateJobsTableQuery returns the DDL for the jobs table
	CreateJobsTableQuery() string
}

// DialectConfig holds configuration for database connection
type DialectConfig struct {
	// For SQLite
	Path string

	// For PostgreSQL/MySQL
	URL string
}

// DialectFor maps a store name onto its dialect.
func DialectFor(name string) (Dialect, bool) {
	switch name {
	case "sqlite", "sqlite3":
		return NewSQLiteDialect(), true
	case "postgres", "postgresql":
		return NewPostgresDialect(), true
	case "mysql":
		return NewMySQLDialect(), true
	}
	return nil, false
}

var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
func rewritePlaceholdersToNumbered(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}
