package compare

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestSmokeOperations(t *testing.T) {
	conn := newConn(t,
		`CREATE TABLE products (id INTEGER, name TEXT)`,
		`INSERT INTO products VALUES (1, 'a'), (2, 'b'), (3, 'c')`,
	)

	tests := []struct {
		name    string
		c       Comparator
		params  string
		passed  bool
		faulted bool
	}{
		{"connection", Connection{}, "", true, false},
		{"queries default", Queries{}, "", true, false},
		{"queries custom", Queries{}, "query=SELECT name FROM products", true, false},
		{"queries broken", Queries{}, "query=SELECT FROM", false, true},
		{"performance", Performance{}, "iterations=2;max_ms=10000", true, false},
		{"performance bad iterations", Performance{}, "iterations=zero", false, true},
		{"table exists", TableExists{}, "products", true, false},
		{"table missing", TableExists{}, "ghost", false, false},
		{"table exists without name", TableExists{}, "", false, true},
		{"rows default", TableRows{}, "products", true, false},
		{"rows above minimum", TableRows{}, "table_name=products;min_rows=5", false, false},
		{"select", TableSelect{}, "products", true, false},
		{"select missing", TableSelect{}, "ghost", false, true},
		{"structure", TableStructure{}, "table_name=products;columns=id,NAME", true, false},
		{"structure missing column", TableStructure{}, "table_name=products;columns=id,price", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := tt.c.Compare(t.Context(), conn, request(tt.params))
			assert.Equal(t, tt.passed, outcome.Passed, outcome.Message)
			assert.Equal(t, tt.faulted, outcome.Faulted(), outcome.Message)
		})
	}

	outcome := TableStructure{}.Compare(t.Context(), conn, request("table_name=products;columns=id,price"))
	assert.Equal(t, []string{"price"}, outcome.Details.(SmokeDetails).Missing)
}
