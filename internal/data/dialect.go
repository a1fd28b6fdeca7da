package data

import (
	"fmt"
	"regexp"

	"github.com/aoideee/peopleview/internal/config"
)

// Dialect captures the few statements that differ between the supported
// engines. Queries are written with $n placeholders and rebound as needed.
type Dialect struct {
	Name string

	// createTable creates personas when it does not exist yet.
	createTable string

	// resetIdentity restarts the personId sequence at 1. It must be
	// transactional so a rolled-back restore leaves the counter alone.
	resetIdentity string

	// placeholder rewrites "$n" for the engine; nil keeps it.
	placeholder func(n string) string
}

// Postgres serves both the lib/pq and the pgx drivers.
var Postgres = Dialect{
	Name: "postgres",
	createTable: `
		CREATE TABLE IF NOT EXISTS personas (
			personId  SERIAL PRIMARY KEY,
			firstName VARCHAR(100) NOT NULL,
			lastName  VARCHAR(100) NOT NULL,
			birthDate VARCHAR(100) NULL
		)`,
	// Unquoted identifiers fold to lower case, hence personid in the name.
	resetIdentity: `ALTER SEQUENCE personas_personid_seq RESTART WITH 1`,
}

// SQLite is used for embedded deployments and tests.
var SQLite = Dialect{
	Name: "sqlite3",
	createTable: `
		CREATE TABLE IF NOT EXISTS personas (
			personId  INTEGER PRIMARY KEY AUTOINCREMENT,
			firstName VARCHAR(100) NOT NULL,
			lastName  VARCHAR(100) NOT NULL,
			birthDate VARCHAR(100) NULL
		)`,
	resetIdentity: `DELETE FROM sqlite_sequence WHERE name = 'personas'`,
	placeholder:   func(n string) string { return "?" + n },
}

// DialectFor returns the dialect matching a configured driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case config.DriverPostgres, config.DriverPgx:
		return Postgres, nil
	case config.DriverSQLite:
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("data: no dialect for driver %q", driver)
	}
}

var placeholderRX = regexp.MustCompile(`\$(\d+)`)

// rebind rewrites the $n placeholders of query for the dialect.
func (d Dialect) rebind(query string) string {
	if d.placeholder == nil {
		return query
	}
	return placeholderRX.ReplaceAllStringFunc(query, func(m string) string {
		return d.placeholder(m[1:])
	})
}
