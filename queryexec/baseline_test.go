package queryexec

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/stretchr/testify/require"
)

const baselineJSON = `{"driver":{"name":"postgres","database":"app"},"tables":[{"name":"public.products","type":"TABLE","columns":[{"name":"id","type":"integer","pk":true},{"name":"name","type":"varchar(50)","nullable":false},{"name":"price","type":"numeric(10,2)","nullable":true}]}]}`

func TestLoadBaseline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.json")
	require.NoError(t, os.WriteFile(path, []byte(baselineJSON), 0o644))

	baseline, err := LoadBaseline(t.Context(), path)
	require.NoError(t, err)

	columns, err := baseline.Columns("products")
	require.NoError(t, err)
	assert.Equal(t, []ColumnMeta{
		{Name: "id", Type: "integer"},
		{Name: "name", Type: "varchar", Length: 50},
		{Name: "price", Type: "numeric", Precision: 10, Scale: 2, Nullable: true},
	}, columns)

	_, err = baseline.Columns("public.orders")
	assert.True(t, errors.Is(err, ErrTableNotFound))
}

func TestDecodeBaseline_Invalid(t *testing.T) {
	_, err := DecodeBaseline(strings.NewReader(`{"tables":[]}`))
	assert.True(t, errors.Is(err, ErrBaselineDriverMissing))

	_, err = DecodeBaseline(strings.NewReader(`{"driver":{"name":"mysql"},"tables":[]}`))
	assert.True(t, errors.Is(err, ErrBaselineTablesEmpty))

	_, err = LoadBaseline(t.Context(), " ")
	assert.True(t, errors.Is(err, ErrBaselinePathMissing))
}
