// Package config loads the database connection parameters from a
// key-value properties file, with environment variables taking precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/magiconair/properties"
	"github.com/united-manufacturing-hub/umh-utils/env"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres" // github.com/lib/pq
	DriverPgx      = "pgx"      // github.com/jackc/pgx/v5/stdlib
	DriverSQLite   = "sqlite3"  // github.com/mattn/go-sqlite3
)

var (
	// ErrMissingKey is returned when a required key is absent or blank.
	ErrMissingKey = errors.New("config: required key is missing")

	// ErrUnknownDriver is returned for a driver value we cannot open.
	ErrUnknownDriver = errors.New("config: unknown database driver")
)

// Config holds the parameters needed to reach the people database.
type Config struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Pass     string
	Database string
	SSLMode  string
}

// envPrefix is prepended to the upper-cased key to form the override variable.
const envPrefix = "PEOPLE_DB_"

// LoadFile reads the properties file at path and applies environment
// overrides. An empty path skips the file and uses the environment only.
func LoadFile(path string) (Config, error) {
	p := properties.NewProperties()
	if path != "" {
		loaded, err := properties.LoadFile(path, properties.UTF8)
		if err != nil {
			return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
		}
		p = loaded
	}
	return FromProperties(p)
}

// FromProperties builds a Config from already-parsed properties plus the
// environment, then checks that every required key is present. A variable
// that is set but blank does not override the file.
func FromProperties(p *properties.Properties) (Config, error) {
	var (
		values = make(map[string]string)
		keys   = []string{"driver", "host", "port", "user", "pass", "database", "sslmode"}
	)

	for _, key := range keys {
		fromFile, _ := p.Get(key)
		value, err := env.GetAsString(envPrefix+strings.ToUpper(key), false, fromFile)
		if err != nil {
			return Config{}, err
		}
		value = strings.TrimSpace(value)
		if value == "" {
			value = strings.TrimSpace(fromFile)
		}
		values[key] = value
	}

	cfg := Config{
		Driver:   values["driver"],
		Host:     values["host"],
		User:     values["user"],
		Pass:     values["pass"],
		Database: values["database"],
		SSLMode:  values["sslmode"],
	}
	if cfg.Driver == "" {
		cfg.Driver = DriverPostgres
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}

	required := []string{"host", "port", "user", "pass", "database"}
	switch cfg.Driver {
	case DriverPostgres, DriverPgx:
	case DriverSQLite:
		required = []string{"database"}
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}

	for _, key := range required {
		if values[key] == "" {
			return Config{}, fmt.Errorf("%w: %s", ErrMissingKey, key)
		}
	}

	if values["port"] != "" {
		port, err := strconv.Atoi(values["port"])
		if err != nil || port < 1 || port > 65535 {
			return Config{}, fmt.Errorf("config: port %q is not a valid TCP port", values["port"])
		}
		cfg.Port = port
	}

	return cfg, nil
}

// DSN returns the data source name understood by the configured driver.
func (c Config) DSN() string {
	switch c.Driver {
	case DriverSQLite:
		if strings.HasPrefix(c.Database, "file:") {
			return c.Database
		}
		return "file:" + c.Database + "?_busy_timeout=5000&_journal_mode=WAL"
	default:
		// Keyword/value form is accepted by both lib/pq and pgx.
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			quote(c.Host), c.Port, quote(c.User), quote(c.Pass), quote(c.Database), quote(c.SSLMode))
	}
}

// String describes the target without the password, for logs.
func (c Config) String() string {
	if c.Driver == DriverSQLite {
		return c.Driver + ":" + c.Database
	}
	u := url.URL{
		Scheme: c.Driver,
		User:   url.User(c.User),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.Database,
	}
	return u.String()
}

// quote escapes a keyword/value DSN value.
func quote(s string) string {
	if s != "" && !strings.ContainsAny(s, ` '\`) {
		return s
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}
