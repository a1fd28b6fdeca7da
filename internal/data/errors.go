package data

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrRecordNotFound is returned when a statement matched no row.
	ErrRecordNotFound = errors.New("record not found")

	// ErrInvalidPerson is returned when a write is attempted with a Person
	// that does not pass IsValid.
	ErrInvalidPerson = errors.New("person is not valid")

	// ErrSeedMismatch is returned when the restore insert did not write
	// exactly the expected number of seed rows.
	ErrSeedMismatch = errors.New("seed rows inserted do not match the seed set")

	// ErrConstraint is returned when the database rejected a statement for
	// violating an integrity constraint.
	ErrConstraint = errors.New("integrity constraint violated")
)

// classify wraps err with ErrConstraint when any of the supported drivers
// reports an integrity violation (SQLSTATE class 23 or SQLITE_CONSTRAINT).
func classify(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == "23" {
		return fmt.Errorf("%w: %w", ErrConstraint, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
		return fmt.Errorf("%w: %w", ErrConstraint, err)
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) && liteErr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%w: %w", ErrConstraint, err)
	}

	return err
}
