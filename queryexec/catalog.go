package queryexec

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	snapcheck "github.com/shibukawa/snapcheck"
)

// ColumnMeta is one catalog entry. Zero Length, Precision or Scale means the catalog reported none.
type ColumnMeta struct {
	Name      string
	Type      string
	Length    int64
	Precision int64
	Scale     int64
	Nullable  bool
}

// Format renders a column type for reports, e.g. VARCHAR(50) NOT NULL.
func (c ColumnMeta) Format() string {
	t := strings.ToLower(c.Type)

	var s string

	switch t {
	case "character varying", "varchar":
		s = withArgs("VARCHAR", c.Length)
	case "character", "char", "bpchar":
		s = withArgs("CHAR", c.Length)
	case "numeric", "decimal":
		if c.Scale > 0 {
			s = withArgs(strings.ToUpper(t), c.Precision, c.Scale)
		} else {
			s = withArgs(strings.ToUpper(t), c.Precision)
		}
	case "timestamp without time zone":
		s = "TIMESTAMP"
	case "timestamp with time zone":
		s = "TIMESTAMPTZ"
	default:
		s = strings.ToUpper(c.Type)
	}

	if !c.Nullable {
		s += " NOT NULL"
	}

	return s
}

func withArgs(name string, args ...int64) string {
	var parts []string

	for _, a := range args {
		if a <= 0 {
			break
		}

		parts = append(parts, strconv.FormatInt(a, 10))
	}

	if len(parts) == 0 {
		return name
	}

	return name + "(" + strings.Join(parts, ",") + ")"
}

// parseTypeSpec splits a declared type such as VARCHAR(50) or NUMERIC(10,2).
// A single argument is a length for character types and a precision otherwise.
func parseTypeSpec(declared string) ColumnMeta {
	declared = strings.TrimSpace(declared)

	open := strings.IndexByte(declared, '(')
	if open < 0 || !strings.HasSuffix(declared, ")") {
		return ColumnMeta{Type: declared}
	}

	meta := ColumnMeta{Type: strings.TrimSpace(declared[:open])}

	args := strings.Split(declared[open+1:len(declared)-1], ",")

	nums := make([]int64, 0, len(args))
	for _, a := range args {
		n, err := strconv.ParseInt(strings.TrimSpace(a), 10, 64)
		if err != nil {
			return ColumnMeta{Type: declared}
		}

		nums = append(nums, n)
	}

	upper := strings.ToUpper(meta.Type)
	isChar := strings.Contains(upper, "CHAR") || strings.Contains(upper, "TEXT") || strings.Contains(upper, "CLOB")

	switch {
	case len(nums) == 1 && isChar:
		meta.Length = nums[0]
	case len(nums) == 1:
		meta.Precision = nums[0]
	case len(nums) >= 2:
		meta.Precision = nums[0]
		meta.Scale = nums[1]
	}

	return meta
}

func splitSchemaAndName(fullName string) (string, string) {
	if idx := strings.LastIndex(fullName, "."); idx >= 0 {
		return fullName[:idx], fullName[idx+1:]
	}

	return "", fullName
}

func placeholder(dialect snapcheck.Dialect, n int) string {
	if dialect == snapcheck.DialectPostgres {
		return "$" + strconv.Itoa(n)
	}

	return "?"
}

// schemaPredicate compares table_schema with an explicit schema or the session default.
func schemaPredicate(dialect snapcheck.Dialect, schema string) (string, []any) {
	if schema != "" {
		return "table_schema = " + placeholder(dialect, 1), []any{schema}
	}

	if dialect == snapcheck.DialectMySQL {
		return "table_schema = DATABASE()", nil
	}

	return "table_schema = current_schema()", nil
}

func tableExistsQuery(dialect snapcheck.Dialect, schema, name string) (string, []any) {
	if dialect == snapcheck.DialectSQLite {
		if schema != "" {
			quoted, err := dialect.QuoteIdentifier(schema)
			if err == nil {
				return "SELECT COUNT(*) FROM " + quoted + ".sqlite_master WHERE type IN ('table', 'view') AND name = ?", []any{name}
			}
		}

		return "SELECT COUNT(*) FROM sqlite_master WHERE type IN ('table', 'view') AND name = ?", []any{name}
	}

	predicate, args := schemaPredicate(dialect, schema)
	args = append(args, name)

	return fmt.Sprintf(`SELECT COUNT(*) FROM information_schema.tables WHERE %s AND table_name = %s`,
		predicate, placeholder(dialect, len(args))), args
}

// BuildColumnsQuery returns the information_schema query for postgres and mysql.
func BuildColumnsQuery(dialect snapcheck.Dialect, schema, name string) (string, []any) {
	predicate, args := schemaPredicate(dialect, schema)
	args = append(args, name)

	return fmt.Sprintf(`
		SELECT
			column_name,
			data_type,
			character_maximum_length,
			numeric_precision,
			numeric_scale,
			is_nullable
		FROM information_schema.columns
		WHERE %s
		AND table_name = %s
		ORDER BY ordinal_position
	`, predicate, placeholder(dialect, len(args))), args
}

func (s *Session) informationSchemaColumns(ctx context.Context, schema, name string) ([]ColumnMeta, error) {
	query, args := BuildColumnsQuery(s.dialect, schema, name)

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryExecutionFailed, err)
	}
	defer rows.Close()

	var columns []ColumnMeta

	for rows.Next() {
		var (
			col                      ColumnMeta
			length, precision, scale sql.NullInt64
			isNullable               string
		)

		if err := rows.Scan(&col.Name, &col.Type, &length, &precision, &scale, &isNullable); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrResultScanFailed, err)
		}

		col.Length = length.Int64
		col.Precision = precision.Int64
		col.Scale = scale.Int64
		col.Nullable = isNullable == "YES"

		columns = append(columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryExecutionFailed, err)
	}

	return columns, nil
}

func (s *Session) sqliteColumns(ctx context.Context, schema, name string) ([]ColumnMeta, error) {
	quotedName, err := s.dialect.QuoteIdentifier(name)
	if err != nil {
		return nil, err
	}

	query := "PRAGMA table_info(" + quotedName + ")"

	if schema != "" {
		quotedSchema, err := s.dialect.QuoteIdentifier(schema)
		if err != nil {
			return nil, err
		}

		query = "PRAGMA " + quotedSchema + ".table_info(" + quotedName + ")"
	}

	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryExecutionFailed, err)
	}
	defer rows.Close()

	var columns []ColumnMeta

	for rows.Next() {
		var (
			cid, notNull, pk int
			colName, decl    string
			defaultValue     sql.NullString
		)

		if err := rows.Scan(&cid, &colName, &decl, &notNull, &defaultValue, &pk); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrResultScanFailed, err)
		}

		col := parseTypeSpec(decl)
		col.Name = colName
		col.Nullable = notNull == 0

		columns = append(columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryExecutionFailed, err)
	}

	return columns, nil
}
