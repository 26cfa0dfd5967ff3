package queryexec

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	snapcheck "github.com/shibukawa/snapcheck"
)

// newSQLitePool opens a single-connection in-memory database and runs the setup statements.
func newSQLitePool(t *testing.T, statements ...string) *Pool {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	t.Cleanup(func() { db.Close() })

	for _, stmt := range statements {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}

	return NewPool(db, snapcheck.DialectSQLite, "")
}
