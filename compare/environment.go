package compare

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	snapcheck "github.com/shibukawa/snapcheck"
	"github.com/shibukawa/snapcheck/queryexec"
)

// EnvironmentDetails is the payload of the configuration checks.
type EnvironmentDetails struct {
	Check       string
	Environment string
	Dialect     snapcheck.Dialect
	User        string
}

func (d EnvironmentDetails) Operation() string { return "environment_" + d.Check }

// The environment checks read Settings.Config and never touch the Querier, which may be nil.
// The parameter environment=<name> overrides Settings.Environment.

// EnvironmentSetup checks that the selected database environment is configured with a known dialect.
type EnvironmentSetup struct {
	Settings Settings
}

func (c EnvironmentSetup) Compare(_ context.Context, _ queryexec.Querier, req Request) Outcome {
	details := EnvironmentDetails{Check: "setup"}

	name, db, msg := c.Settings.resolveDatabase(req)
	details.Environment = name

	if msg != "" {
		return fail(details, "Environment setup invalid: %s", msg)
	}

	dialect, err := c.Settings.Config.DatabaseDialect(db)
	if err != nil {
		return fail(details, "Environment setup invalid: %v", err)
	}

	details.Dialect = dialect

	return pass(details, "Environment %s is configured for %s", displayName(name), dialect)
}

// ConfigAvailability checks that the selected environment has a usable connection string
// once ${VAR} references are expanded.
type ConfigAvailability struct {
	Settings Settings
}

func (c ConfigAvailability) Compare(_ context.Context, _ queryexec.Querier, req Request) Outcome {
	details := EnvironmentDetails{Check: "configuration"}

	name, db, msg := c.Settings.resolveDatabase(req)
	details.Environment = name

	if msg != "" {
		return fail(details, "Configuration unavailable: %s", msg)
	}

	if strings.TrimSpace(db.Connection) == "" {
		return fail(details, "Configuration unavailable: connection for %s is empty after variable expansion", displayName(name))
	}

	dialect, err := c.Settings.Config.DatabaseDialect(db)
	if err != nil {
		return fail(details, "Configuration unavailable: %v", err)
	}

	details.Dialect = dialect

	if strings.Contains(db.Connection, "://") {
		fromURL, err := queryexec.ParseDatabaseURL(db.Connection)
		if err != nil {
			return fail(details, "Configuration unavailable: %v", err)
		}

		if fromURL != dialect {
			return fail(details, "Configuration unavailable: connection URL is %s but %s is configured", fromURL, dialect)
		}
	}

	return pass(details, "Configuration for %s is available", displayName(name))
}

// EnvironmentCredentials checks that the selected connection carries a user name and a password.
// SQLite connections need none.
type EnvironmentCredentials struct {
	Settings Settings
}

func (c EnvironmentCredentials) Compare(_ context.Context, _ queryexec.Querier, req Request) Outcome {
	details := EnvironmentDetails{Check: "credentials"}

	name, db, msg := c.Settings.resolveDatabase(req)
	details.Environment = name

	if msg != "" {
		return fail(details, "Credentials unavailable: %s", msg)
	}

	dialect, err := c.Settings.Config.DatabaseDialect(db)
	if err != nil {
		return fail(details, "Credentials unavailable: %v", err)
	}

	details.Dialect = dialect

	if dialect == snapcheck.DialectSQLite {
		return pass(details, "SQLite connections carry no credentials")
	}

	user, hasPassword := credentials(db.Connection, dialect)
	details.User = user

	switch {
	case user == "":
		return fail(details, "Credentials unavailable: no user name in the %s connection", displayName(name))
	case !hasPassword:
		return fail(details, "Credentials unavailable: no password for user %s", user)
	}

	return pass(details, "Credentials present for user %s", user)
}

// NotImplemented accepts a category that has no operation and reports it as skipped.
type NotImplemented struct {
	Name string
}

func (c NotImplemented) Compare(context.Context, queryexec.Querier, Request) Outcome {
	return Outcome{Skipped: true, Message: c.Name + " test not implemented"}
}

// resolveDatabase picks the database entry for the request. msg is non-empty when none can be used.
func (s Settings) resolveDatabase(req Request) (string, snapcheck.Database, string) {
	if s.Config == nil {
		return "", snapcheck.Database{}, "no configuration loaded"
	}

	if len(s.Config.Databases) == 0 {
		return "", snapcheck.Database{}, "no databases configured"
	}

	name := req.Params.Value("environment", s.Environment)
	if name == "" {
		name = s.Config.Execution.Environment
	}

	if name == "" && len(s.Config.Databases) == 1 {
		for only := range s.Config.Databases {
			name = only
		}
	}

	db, err := s.Config.Database(name)
	if err != nil {
		return name, snapcheck.Database{}, err.Error()
	}

	return name, db, ""
}

// credentials extracts the user name and whether a non-empty password is present,
// from a URL or from a driver DSN.
func credentials(connection string, dialect snapcheck.Dialect) (string, bool) {
	connection = strings.TrimSpace(connection)

	if strings.Contains(connection, "://") {
		u, err := url.Parse(connection)
		if err != nil || u.User == nil {
			return "", false
		}

		password, ok := u.User.Password()

		return u.User.Username(), ok && password != ""
	}

	if dialect == snapcheck.DialectMySQL {
		// user:password@tcp(host:port)/db
		at := strings.LastIndex(connection, "@")
		if at < 0 {
			return "", false
		}

		user, password, _ := strings.Cut(connection[:at], ":")

		return user, password != ""
	}

	// host=... user=... password=...
	var user, password string

	for _, field := range strings.Fields(connection) {
		key, value, _ := strings.Cut(field, "=")

		switch strings.ToLower(key) {
		case "user":
			user = strings.Trim(value, "'")
		case "password":
			password = strings.Trim(value, "'")
		}
	}

	return user, password != ""
}

func displayName(name string) string {
	if name == "" {
		return "the default environment"
	}

	return fmt.Sprintf("'%s'", name)
}
