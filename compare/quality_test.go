package compare

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestScenarioD_DuplicateGroups(t *testing.T) {
	conn := newConn(t,
		`CREATE TABLE new_orders (order_ref TEXT, amount INTEGER)`,
		`INSERT INTO new_orders VALUES ('a', 1), ('b', 2), ('b', 3), ('c', 4), ('c', 5), ('c', 6), ('d', 7)`,
	)

	outcome := DataQualityCompare{Settings: DefaultSettings()}.Compare(t.Context(), conn, request("source_table=orders"))
	assert.False(t, outcome.Passed)
	assert.False(t, outcome.Faulted())

	details := outcome.Details.(QualityDetails)
	assert.Equal(t, "new_orders", details.Table)
	assert.Equal(t, []CheckKind{CheckDuplicates}, details.ChecksRun)
	assert.Equal(t, 1, details.TotalIssues)
	assert.Equal(t, 1, details.HighSeverityIssues)

	issue, ok := details.Issue(CheckDuplicates)
	assert.True(t, ok)
	assert.Equal(t, "order_ref", issue.Column)
	assert.Equal(t, int64(2), issue.AffectedValues)
	assert.Equal(t, int64(3), issue.Count)
	assert.Equal(t, []any{"c", "b"}, issue.Sample)
	assert.Equal(t, SeverityHigh, issue.Severity)
}

func TestDataQualityCompare_AllChecks(t *testing.T) {
	conn := newConn(t,
		`CREATE TABLE customers (id INTEGER PRIMARY KEY, email TEXT)`,
		`INSERT INTO customers VALUES (1, 'a@example.com'), (2, 'b@example.com')`,
		`CREATE TABLE new_orders (id INTEGER, customer_id INTEGER, amount INTEGER, email TEXT)`,
		`INSERT INTO new_orders VALUES
			(1, 1, 50, 'a@example.com'),
			(2, 2, -5, 'broken'),
			(3, 3, 150, NULL),
			(4, NULL, 20, 'c@example.com'),
			(5, 3, 70, 'd@example.com')`,
	)

	params := "source_table=orders;key_column=id;fk_column=customer_id;reference_table=customers;reference_column=id;" +
		"rule_column=amount;min_value=0;max_value=100;required_column=email"

	outcome := DataQualityCompare{Settings: DefaultSettings()}.Compare(t.Context(), conn, request(params))
	assert.False(t, outcome.Passed)

	details := outcome.Details.(QualityDetails)
	assert.Equal(t, int64(5), details.TotalRows)
	assert.Equal(t, []CheckKind{CheckDuplicates, CheckOrphans, CheckInvalidValues, CheckMissingData}, details.ChecksRun)
	assert.Equal(t, 3, details.TotalIssues)
	assert.Equal(t, 1, details.HighSeverityIssues)

	orphans, ok := details.Issue(CheckOrphans)
	assert.True(t, ok)
	assert.Equal(t, int64(2), orphans.Count)
	assert.Equal(t, "40", orphans.Percentage.String())
	assert.Equal(t, []any{int64(3)}, orphans.Sample)

	invalid, ok := details.Issue(CheckInvalidValues)
	assert.True(t, ok)
	assert.Equal(t, int64(2), invalid.Count)
	assert.Equal(t, SeverityMedium, invalid.Severity)

	missing, ok := details.Issue(CheckMissingData)
	assert.True(t, ok)
	assert.Equal(t, int64(1), missing.Count)
	assert.Equal(t, SeverityLow, missing.Severity)
}

func TestDataQualityCompare_ClientSideRules(t *testing.T) {
	conn := newConn(t,
		`CREATE TABLE new_users (id INTEGER, email TEXT, age INTEGER)`,
		`INSERT INTO new_users VALUES (1, 'a@example.com', 5), (2, 'broken', 20), (3, NULL, 40)`,
	)

	outcome := DataQualityCompare{}.Compare(t.Context(), conn, request(`users;rule_column=email;pattern=^[^@]+@[^@]+$`))
	issue, ok := outcome.Details.(QualityDetails).Issue(CheckInvalidValues)
	assert.True(t, ok)
	assert.Equal(t, int64(1), issue.Count)
	assert.Equal(t, []any{"broken"}, issue.Sample)

	outcome = DataQualityCompare{}.Compare(t.Context(), conn, request(`users;rule_column=age;rule_expr=value >= 18`))
	issue, ok = outcome.Details.(QualityDetails).Issue(CheckInvalidValues)
	assert.True(t, ok)
	assert.Equal(t, int64(1), issue.Count)
	assert.Equal(t, []any{int64(5)}, issue.Sample)

	outcome = DataQualityCompare{}.Compare(t.Context(), conn, request(`users;rule_column=age;rule_expr=value >=`))
	assert.True(t, errors.Is(outcome.Fault, ErrInvalidRule))
}

func TestDataQualityCompare_SeverityOverride(t *testing.T) {
	conn := newConn(t,
		`CREATE TABLE new_tags (name TEXT)`,
		`INSERT INTO new_tags VALUES ('x'), ('x')`,
	)

	settings := DefaultSettings()
	settings.Severities[CheckDuplicates] = SeverityLow

	outcome := DataQualityCompare{Settings: settings}.Compare(t.Context(), conn, request("tags"))
	details := outcome.Details.(QualityDetails)
	assert.Equal(t, 1, details.TotalIssues)
	assert.Equal(t, 0, details.HighSeverityIssues)
}

func TestDataQualityCompare_MissingTableIsFault(t *testing.T) {
	conn := newConn(t)

	outcome := DataQualityCompare{}.Compare(t.Context(), conn, request("ghost"))
	assert.False(t, outcome.Passed)
	assert.True(t, outcome.Faulted())
}
