package compare

import (
	"database/sql"
	"testing"

	"github.com/alecthomas/assert/v2"
	_ "github.com/mattn/go-sqlite3"

	snapcheck "github.com/shibukawa/snapcheck"
	"github.com/shibukawa/snapcheck/definition"
	"github.com/shibukawa/snapcheck/queryexec"
)

// seedProducts inserts 100 generated rows into table.
func seedProducts(table string) string {
	return `WITH RECURSIVE seq(n) AS (SELECT 1 UNION ALL SELECT n + 1 FROM seq WHERE n < 100)
		INSERT INTO ` + table + ` (id, name, price) SELECT n, 'item' || n, n * 1.5 FROM seq`
}

const productsDDL = `(id INTEGER PRIMARY KEY, name VARCHAR(50) NOT NULL, price NUMERIC(10,2) NOT NULL)`

func newConn(t *testing.T, statements ...string) queryexec.Conn {
	t.Helper()

	return newSchemaConn(t, "", statements...)
}

// newSchemaConn is newConn with unqualified tables resolved against schema.
func newSchemaConn(t *testing.T, schema string, statements ...string) queryexec.Conn {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	assert.NoError(t, err)
	db.SetMaxOpenConns(1)

	for _, stmt := range statements {
		_, err := db.Exec(stmt)
		assert.NoError(t, err, stmt)
	}

	conn, err := queryexec.NewPool(db, snapcheck.DialectSQLite, schema).Acquire(t.Context())
	assert.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		db.Close()
	})

	return conn
}

func request(params string) Request {
	return NewRequest(definition.ParseParameters(params), "new_")
}
