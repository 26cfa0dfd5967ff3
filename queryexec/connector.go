// Package queryexec provides the blocking query capability used by the comparison operations:
// scoped connection acquisition, ad-hoc queries and per-dialect catalog introspection.
package queryexec

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver (pgx)
	_ "github.com/mattn/go-sqlite3"    // SQLite driver
	snapcheck "github.com/shibukawa/snapcheck"
)

// PoolSettings defines database connection pool configuration
type PoolSettings struct {
	MaxOpenConns    int // Maximum number of open connections
	MaxIdleConns    int // Maximum number of idle connections
	ConnMaxLifetime int // Maximum lifetime of connections in seconds
}

// DefaultPoolSettings keeps one row in flight at a time while allowing a few idle connections.
var DefaultPoolSettings = PoolSettings{
	MaxOpenConns:    4,
	MaxIdleConns:    2,
	ConnMaxLifetime: 300,
}

// Pool hands out one exclusive connection per operation.
type Pool struct {
	db      *sql.DB
	dialect snapcheck.Dialect
	schema  string
}

// Open parses a connection URL (or a bare DSN when dialect is known), opens the
// database with the matching driver and verifies it with a ping.
func Open(ctx context.Context, dialect snapcheck.Dialect, connection, schema string) (*Pool, error) {
	if strings.TrimSpace(connection) == "" {
		return nil, ErrEmptyDatabaseURL
	}

	if dialect == "" {
		detected, err := ParseDatabaseURL(connection)
		if err != nil {
			return nil, err
		}

		dialect = detected
	}

	dsn, err := convertToDriverString(connection, dialect)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	settings := DefaultPoolSettings
	if dialect == snapcheck.DialectSQLite && strings.Contains(dsn, ":memory:") {
		// every sqlite in-memory connection is a separate database
		settings.MaxOpenConns = 1
		settings.MaxIdleConns = 1
	}

	db.SetMaxOpenConns(settings.MaxOpenConns)
	db.SetMaxIdleConns(settings.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(settings.ConnMaxLifetime) * time.Second)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return NewPool(db, dialect, schema), nil
}

// NewPool wraps an existing database handle.
func NewPool(db *sql.DB, dialect snapcheck.Dialect, schema string) *Pool {
	return &Pool{db: db, dialect: dialect, schema: schema}
}

// Dialect returns the pool's dialect.
func (p *Pool) Dialect() snapcheck.Dialect {
	return p.dialect
}

// Acquire reserves a dedicated connection. The caller must Close it on every path.
func (p *Pool) Acquire(ctx context.Context) (Conn, error) {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return &Session{conn: conn, dialect: p.dialect, schema: p.schema}, nil
}

// Close closes the underlying database handle.
func (p *Pool) Close() error {
	if p == nil || p.db == nil {
		return nil
	}

	return p.db.Close()
}

// ParseDatabaseURL extracts the dialect from a connection URL
func ParseDatabaseURL(databaseURL string) (snapcheck.Dialect, error) {
	if databaseURL == "" {
		return "", ErrEmptyDatabaseURL
	}

	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", ErrInvalidDatabaseURL
	}

	switch u.Scheme {
	case "postgres", "postgresql":
		return snapcheck.DialectPostgres, nil
	case "mysql":
		return snapcheck.DialectMySQL, nil
	case "sqlite", "sqlite3":
		return snapcheck.DialectSQLite, nil
	default:
		return "", fmt.Errorf("%w: '%s'", ErrUnsupportedDatabase, u.Scheme)
	}
}

// convertToDriverString turns a URL into the form each driver expects.
// Strings without a scheme are passed through untouched.
func convertToDriverString(connection string, dialect snapcheck.Dialect) (string, error) {
	if !strings.Contains(connection, "://") {
		return connection, nil
	}

	u, err := url.Parse(connection)
	if err != nil {
		return "", ErrInvalidDatabaseURL
	}

	switch dialect {
	case snapcheck.DialectPostgres:
		// pgx accepts standard PostgreSQL URLs
		if u.Host == "" || strings.TrimPrefix(u.Path, "/") == "" {
			return "", ErrInvalidDatabaseURL
		}

		q := u.Query()
		if q.Get("sslmode") == "" {
			q.Set("sslmode", "disable")
			u.RawQuery = q.Encode()
		}

		u.Scheme = "postgres"

		return u.String(), nil

	case snapcheck.DialectMySQL:
		// Convert to go-sql-driver/mysql format
		if u.Host == "" || strings.TrimPrefix(u.Path, "/") == "" {
			return "", ErrInvalidDatabaseURL
		}

		connStr := ""
		if u.User != nil {
			connStr += u.User.Username()
			if password, ok := u.User.Password(); ok {
				connStr += ":" + password
			}

			connStr += "@"
		}

		host := u.Host
		if u.Port() == "" {
			host += ":3306"
		}

		connStr += "tcp(" + host + ")/" + strings.TrimPrefix(u.Path, "/")
		if u.RawQuery != "" {
			connStr += "?" + u.RawQuery
		}

		return connStr, nil

	case snapcheck.DialectSQLite:
		// sqlite:///abs/path.db or sqlite://./rel.db
		path := u.Host + u.Path
		if path == "" {
			return "", ErrInvalidDatabaseURL
		}

		if u.RawQuery != "" {
			path += "?" + u.RawQuery
		}

		return path, nil

	default:
		return "", ErrUnsupportedDatabase
	}
}
