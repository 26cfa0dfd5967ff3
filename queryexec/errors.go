package queryexec

import "errors"

// Connection errors
var (
	ErrConnectionFailed    = errors.New("failed to connect to database")
	ErrInvalidDatabaseURL  = errors.New("invalid database URL")
	ErrEmptyDatabaseURL    = errors.New("database URL cannot be empty")
	ErrUnsupportedDatabase = errors.New("unsupported database type")
	ErrConnectionClosed    = errors.New("connection already released")
)

// Catalog and query errors
var (
	ErrTableNotFound        = errors.New("table not found")
	ErrQueryExecutionFailed = errors.New("query execution failed")
	ErrResultScanFailed     = errors.New("result scan failed")
)

// Baseline errors
var (
	ErrBaselinePathMissing   = errors.New("baseline schema path is empty")
	ErrBaselineDriverMissing = errors.New("baseline schema has no driver metadata")
	ErrBaselineTablesEmpty   = errors.New("baseline schema has no tables")
)
