package queryexec

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestParseTypeSpec(t *testing.T) {
	tests := []struct {
		declared string
		expected ColumnMeta
	}{
		{"INTEGER", ColumnMeta{Type: "INTEGER"}},
		{"VARCHAR(50)", ColumnMeta{Type: "VARCHAR", Length: 50}},
		{"character varying(20)", ColumnMeta{Type: "character varying", Length: 20}},
		{"NUMERIC(10, 2)", ColumnMeta{Type: "NUMERIC", Precision: 10, Scale: 2}},
		{"DECIMAL(8)", ColumnMeta{Type: "DECIMAL", Precision: 8}},
		{"ENUM(a,b)", ColumnMeta{Type: "ENUM(a,b)"}},
	}

	for _, tt := range tests {
		t.Run(tt.declared, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseTypeSpec(tt.declared))
		})
	}
}

func TestColumnMeta_Format(t *testing.T) {
	assert.Equal(t, "VARCHAR(50) NOT NULL", ColumnMeta{Type: "character varying", Length: 50}.Format())
	assert.Equal(t, "NUMERIC(10,2)", ColumnMeta{Type: "numeric", Precision: 10, Scale: 2, Nullable: true}.Format())
	assert.Equal(t, "TIMESTAMPTZ", ColumnMeta{Type: "timestamp with time zone", Nullable: true}.Format())
	assert.Equal(t, "INTEGER", ColumnMeta{Type: "integer", Nullable: true}.Format())
}

func TestBuildColumnsQuery(t *testing.T) {
	query, args := BuildColumnsQuery("postgres", "", "users")
	assert.Contains(t, query, "table_schema = current_schema()")
	assert.Contains(t, query, "table_name = $1")
	assert.Equal(t, []any{"users"}, args)

	query, args = BuildColumnsQuery("mysql", "app", "users")
	assert.Contains(t, query, "table_schema = ?")
	assert.Equal(t, []any{"app", "users"}, args)
}
