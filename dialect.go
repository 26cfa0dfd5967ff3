package snapcheck

import (
	"fmt"
	"strings"
)

// Dialect represents supported database dialects
// This type is shared across all packages
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
	DialectSQLite   Dialect = "sqlite"
)

// ParseDialect normalizes driver and dialect spellings.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "postgres", "postgresql", "pgx", "pg":
		return DialectPostgres, nil
	case "mysql", "mariadb":
		return DialectMySQL, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDialect, s)
	}
}

// DriverName returns the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	switch d {
	case DialectPostgres:
		return "pgx"
	case DialectMySQL:
		return "mysql"
	case DialectSQLite:
		return "sqlite3"
	default:
		return ""
	}
}

// QuoteIdentifier quotes a possibly schema-qualified identifier ("schema.table").
// Names containing quote characters or control characters are rejected.
func (d Dialect) QuoteIdentifier(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidIdentifier)
	}

	quote := `"`
	if d == DialectMySQL {
		quote = "`"
	}

	parts := strings.Split(name, ".")
	for i, part := range parts {
		if part == "" || strings.ContainsAny(part, "\"`;\x00\n\r") {
			return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
		}

		parts[i] = quote + part + quote
	}

	return strings.Join(parts, "."), nil
}
