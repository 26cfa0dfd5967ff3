package snapcheck

import "errors"

// Common errors used throughout the SnapCheck packages
var (
	// ErrConfigValidation is returned when configuration validation fails
	ErrConfigValidation = errors.New("configuration validation failed")
	// ErrEnvironmentNotFound indicates the requested database environment is not configured.
	ErrEnvironmentNotFound = errors.New("database environment not found")

	// Dialect errors
	// ErrUnsupportedDialect indicates a dialect other than postgres, mysql or sqlite.
	ErrUnsupportedDialect = errors.New("unsupported dialect")
	// ErrInvalidIdentifier indicates a table or column name cannot be quoted safely.
	ErrInvalidIdentifier = errors.New("invalid SQL identifier")
)
