// internal/data/models.go
package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/aoideee/peopleview/internal/database"
)

// Models is a top-level container that groups all database model types together.
// It is passed around the application so callers never import database/sql directly.
type Models struct {
	People PersonModel // Handles all database operations for the personas table
}

// NewModels constructs a Models value wired up to the given connection pool.
// Call this once during application startup.
func NewModels(db *sql.DB, dialect Dialect, logger *slog.Logger) Models {
	return Models{
		People: PersonModel{DB: db, Dialect: dialect, Logger: logger},
	}
}

// PersonModel wraps a *sql.DB and provides the operations on the personas
// table. Every operation runs on its own scoped connection.
type PersonModel struct {
	DB      *sql.DB      // Shared database connection pool
	Dialect Dialect      // SQL differences of the configured engine
	Logger  *slog.Logger // Optional; nil discards

	// seed replaces BasicData as the restore payload. Only tests set it.
	seed []SeedRow
}

func (m PersonModel) logger() *slog.Logger {
	if m.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return m.Logger.With(slog.String("component", "person_store"))
}

func (m PersonModel) seedRows() []SeedRow {
	if m.seed != nil {
		return m.seed
	}
	return BasicData
}

// EnsureSchema creates the personas table if it does not exist yet.
func (m PersonModel) EnsureSchema(ctx context.Context) error {
	err := database.Scoped(ctx, m.DB, func(conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx, m.Dialect.createTable)
		return err
	})
	if err != nil {
		return fmt.Errorf("create personas table: %w", err)
	}
	return nil
}

// Bootstrap writes the seed data into an empty table. It reports whether it
// did so; a table that already holds rows is left untouched.
func (m PersonModel) Bootstrap(ctx context.Context) (bool, error) {
	var count int
	err := database.Scoped(ctx, m.DB, func(conn *sql.Conn) error {
		return conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM personas`).Scan(&count)
	})
	if err != nil {
		return false, fmt.Errorf("count people: %w", err)
	}
	if count > 0 {
		return false, nil
	}
	if err := m.RestoreBasicData(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// ListAll returns every person in the table, ordered by id. Each Person keeps
// the row's id instead of drawing one from a Sequence. An empty table yields
// an empty, non-nil slice.
func (m PersonModel) ListAll(ctx context.Context) (people []*Person, err error) {
	defer func(start time.Time) { observe("list", start, err) }(time.Now())

	query := `SELECT personId, firstName, lastName, birthDate FROM personas ORDER BY personId`

	err = database.Scoped(ctx, m.DB, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		// Always close the result set so the connection can be released.
		defer rows.Close()

		people = []*Person{}
		for rows.Next() {
			var (
				id        int64
				firstName string
				lastName  string
				birthDate sql.NullString
			)
			if err := rows.Scan(&id, &firstName, &lastName, &birthDate); err != nil {
				return err
			}

			d, err := parseBirthDate(birthDate)
			if err != nil {
				return fmt.Errorf("person %d: %w", id, err)
			}
			people = append(people, hydrate(id, firstName, lastName, d))
		}

		// Check for any error that occurred while iterating the rows.
		return rows.Err()
	})
	if err != nil {
		m.logger().Error("loading people failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("list people: %w", err)
	}

	m.logger().Debug("loaded people", slog.Int("count", len(people)))
	return people, nil
}

// Insert adds p to the table. The generated id is not read back; call
// ListAll to see it. Returns ErrInvalidPerson without touching the database
// when p does not pass IsValid.
func (m PersonModel) Insert(ctx context.Context, p *Person) (err error) {
	defer func(start time.Time) { observe("insert", start, err) }(time.Now())

	if !p.IsValid() {
		m.logger().Warn("refusing to insert invalid person", slog.Any("person", p))
		return fmt.Errorf("insert person %d: %w", p.ID(), ErrInvalidPerson)
	}

	query := m.Dialect.rebind(`INSERT INTO personas (firstName, lastName, birthDate) VALUES ($1, $2, $3)`)

	var affected int64
	err = database.Scoped(ctx, m.DB, func(conn *sql.Conn) error {
		result, err := conn.ExecContext(ctx, query, p.FirstName(), p.LastName(), formatBirthDate(p.birthDate))
		if err != nil {
			return classify(err)
		}
		affected, err = result.RowsAffected()
		return err
	})
	if err == nil && affected != 1 {
		err = fmt.Errorf("%d rows affected, want 1", affected)
	}
	if err != nil {
		m.logger().Error("inserting person failed", slog.Any("person", p), slog.String("error", err.Error()))
		return fmt.Errorf("insert person %d: %w", p.ID(), err)
	}

	m.logger().Info("person inserted", slog.Any("person", p))
	return nil
}

// Delete removes the row whose id equals p's. Returns ErrRecordNotFound,
// leaving the table unchanged, when no such row exists.
func (m PersonModel) Delete(ctx context.Context, p *Person) (err error) {
	defer func(start time.Time) { observe("delete", start, err) }(time.Now())

	query := m.Dialect.rebind(`DELETE FROM personas WHERE personId = $1`)

	var affected int64
	err = database.Scoped(ctx, m.DB, func(conn *sql.Conn) error {
		// Exec returns a Result that tells us how many rows were affected.
		result, err := conn.ExecContext(ctx, query, p.ID())
		if err != nil {
			return classify(err)
		}
		affected, err = result.RowsAffected()
		return err
	})

	switch {
	case err != nil:
		m.logger().Error("deleting person failed", slog.Any("person", p), slog.String("error", err.Error()))
		return fmt.Errorf("delete person %d: %w", p.ID(), err)
	case affected == 0:
		m.logger().Warn("no person to delete", slog.Int64("person_id", p.ID()))
		return fmt.Errorf("delete person %d: %w", p.ID(), ErrRecordNotFound)
	case affected != 1:
		return fmt.Errorf("delete person %d: %d rows affected, want 1", p.ID(), affected)
	}

	m.logger().Info("person deleted", slog.Any("person", p))
	return nil
}

// RestoreBasicData replaces the whole table with the seed set in a single
// transaction: clear every row, restart the id sequence at 1, insert the
// seed rows. Nothing is committed unless all of it succeeds and exactly
// seedSize rows were inserted; on any failure the table is left as
// it was.
func (m PersonModel) RestoreBasicData(ctx context.Context) (err error) {
	defer func(start time.Time) { observe("restore", start, err) }(time.Now())

	insert, args := seedInsert(m.seedRows())
	insert = m.Dialect.rebind(insert)

	var deleted, inserted int64
	err = database.Scoped(ctx, m.DB, func(conn *sql.Conn) error {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		defer func() {
			// After a successful Commit this is a no-op reporting ErrTxDone.
			if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
				m.logger().Error("rollback failed", slog.String("error", rerr.Error()))
			}
		}()

		result, err := tx.ExecContext(ctx, `DELETE FROM personas`)
		if err != nil {
			return fmt.Errorf("clear table: %w", err)
		}
		if deleted, err = result.RowsAffected(); err != nil {
			return fmt.Errorf("clear table: %w", err)
		}

		if _, err := tx.ExecContext(ctx, m.Dialect.resetIdentity); err != nil {
			return fmt.Errorf("reset identity: %w", err)
		}

		result, err = tx.ExecContext(ctx, insert, args...)
		if err != nil {
			return fmt.Errorf("insert seed rows: %w", classify(err))
		}
		if inserted, err = result.RowsAffected(); err != nil {
			return fmt.Errorf("insert seed rows: %w", err)
		}
		if inserted != seedSize {
			return fmt.Errorf("%w: inserted %d, want %d", ErrSeedMismatch, inserted, seedSize)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		return nil
	})
	if err != nil {
		m.logger().Error("restoring basic data failed, rolled back", slog.String("error", err.Error()))
		return fmt.Errorf("restore basic data: %w", err)
	}

	m.logger().Info("basic data restored", slog.Int64("deleted", deleted), slog.Int64("inserted", inserted))
	return nil
}

// parseBirthDate maps a stored birthDate to a date: NULL and blank text
// mean no date, anything else must be ISO-8601.
func parseBirthDate(s sql.NullString) (*civil.Date, error) {
	if !s.Valid || strings.TrimSpace(s.String) == "" {
		return nil, nil
	}
	d, err := civil.ParseDate(strings.TrimSpace(s.String))
	if err != nil {
		return nil, fmt.Errorf("birth date %q: %w", s.String, err)
	}
	return &d, nil
}

// formatBirthDate is the inverse of parseBirthDate.
func formatBirthDate(d *civil.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}
