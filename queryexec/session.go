package queryexec

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	snapcheck "github.com/shibukawa/snapcheck"
)

// Querier is the blocking query capability consumed by comparison operations.
type Querier interface {
	Dialect() snapcheck.Dialect
	Ping(ctx context.Context) error
	// Query runs a statement and buffers every row.
	Query(ctx context.Context, query string, args ...any) (*Rows, error)
	// Count runs a single-value integer query such as SELECT COUNT(*).
	Count(ctx context.Context, query string, args ...any) (int64, error)
	TableExists(ctx context.Context, table string) (bool, error)
	RowCount(ctx context.Context, table string) (int64, error)
	// QuoteTable quotes table for use in SQL, qualifying unqualified names with the configured schema.
	QuoteTable(table string) (string, error)
	// Columns returns catalog metadata in ordinal order; a table without columns is ErrTableNotFound.
	Columns(ctx context.Context, table string) ([]ColumnMeta, error)
}

// Conn is a Querier held exclusively by one operation until Close.
type Conn interface {
	Querier
	Close() error
}

// Rows is a fully buffered result set.
type Rows struct {
	Columns []string
	Values  [][]any
}

// Session is a Conn backed by a dedicated *sql.Conn.
type Session struct {
	conn    *sql.Conn
	dialect snapcheck.Dialect
	schema  string

	closeOnce sync.Once
	closeErr  error
	closed    bool
}

// Dialect returns the session dialect.
func (s *Session) Dialect() snapcheck.Dialect {
	return s.dialect
}

// Close returns the connection to the pool. Calling it twice is safe.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closed = true
		s.closeErr = s.conn.Close()
	})

	return s.closeErr
}

// Ping verifies the connection with a round trip.
func (s *Session) Ping(ctx context.Context) error {
	if s.closed {
		return ErrConnectionClosed
	}

	var one int64
	if err := s.conn.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return nil
}

// Query executes query and buffers all rows. []byte values are converted to strings.
func (s *Session) Query(ctx context.Context, query string, args ...any) (*Rows, error) {
	if s.closed {
		return nil, ErrConnectionClosed
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryExecutionFailed, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResultScanFailed, err)
	}

	result := &Rows{Columns: columns}

	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))

		for i := range values {
			ptrs[i] = &values[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrResultScanFailed, err)
		}

		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}

		result.Values = append(result.Values, values)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryExecutionFailed, err)
	}

	return result, nil
}

// Count executes a query returning a single integer.
func (s *Session) Count(ctx context.Context, query string, args ...any) (int64, error) {
	if s.closed {
		return 0, ErrConnectionClosed
	}

	var n sql.NullInt64
	if err := s.conn.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrQueryExecutionFailed, err)
	}

	return n.Int64, nil
}

// QuoteTable quotes table, resolving it against the session schema the way Columns and TableExists do.
func (s *Session) QuoteTable(table string) (string, error) {
	schema, name := s.splitTable(table)
	if schema != "" {
		name = schema + "." + name
	}

	return s.dialect.QuoteIdentifier(name)
}

// RowCount returns COUNT(*) of table.
func (s *Session) RowCount(ctx context.Context, table string) (int64, error) {
	quoted, err := s.QuoteTable(table)
	if err != nil {
		return 0, err
	}

	return s.Count(ctx, "SELECT COUNT(*) FROM "+quoted)
}

// TableExists reports whether table (optionally schema-qualified) exists.
func (s *Session) TableExists(ctx context.Context, table string) (bool, error) {
	schema, name := s.splitTable(table)

	query, args := tableExistsQuery(s.dialect, schema, name)

	n, err := s.Count(ctx, query, args...)
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

// Columns returns column metadata for table in ordinal order.
func (s *Session) Columns(ctx context.Context, table string) ([]ColumnMeta, error) {
	if s.closed {
		return nil, ErrConnectionClosed
	}

	schema, name := s.splitTable(table)

	var (
		columns []ColumnMeta
		err     error
	)

	if s.dialect == snapcheck.DialectSQLite {
		columns, err = s.sqliteColumns(ctx, schema, name)
	} else {
		columns, err = s.informationSchemaColumns(ctx, schema, name)
	}

	if err != nil {
		return nil, err
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}

	return columns, nil
}

func (s *Session) splitTable(table string) (schema, name string) {
	schema, name = splitSchemaAndName(table)
	if schema == "" {
		schema = s.schema
	}

	return schema, name
}
