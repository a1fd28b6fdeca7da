package data

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aoideee/peopleview/internal/config"
	"github.com/aoideee/peopleview/internal/database"
)

// newTestModel returns a PersonModel on a private in-memory SQLite database
// with the personas table created.
func newTestModel(t *testing.T) PersonModel {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(context.Background(), config.Config{
		Driver:   config.DriverSQLite,
		Database: fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	m := NewModels(db, SQLite, nil).People
	require.NoError(t, m.EnsureSchema(context.Background()))
	return m
}

func mustExec(t *testing.T, db *sql.DB, query string, args ...any) {
	t.Helper()
	_, err := db.ExecContext(context.Background(), query, args...)
	require.NoError(t, err)
}

func mustList(t *testing.T, m PersonModel) []*Person {
	t.Helper()
	people, err := m.ListAll(context.Background())
	require.NoError(t, err)
	return people
}

func mustInsert(t *testing.T, m PersonModel, ids *Sequence, first, last string, birth *civil.Date) *Person {
	t.Helper()
	p, err := NewPerson(ids, first, last, birth)
	require.NoError(t, err)
	require.NoError(t, m.Insert(context.Background(), p))
	return p
}

// snapshot reduces a listing to comparable strings, ids included.
func snapshot(people []*Person) []string {
	out := make([]string, 0, len(people))
	for _, p := range people {
		out = append(out, p.String())
	}
	return out
}

func assertSeeded(t *testing.T, people []*Person) {
	t.Helper()
	require.Len(t, people, len(BasicData))
	for i, row := range BasicData {
		assert.Equal(t, int64(i+1), people[i].ID())
		assert.Equal(t, row.FirstName, people[i].FirstName())
		assert.Equal(t, row.LastName, people[i].LastName())
		require.NotNil(t, people[i].BirthDate())
		assert.Equal(t, row.BirthDate, people[i].BirthDate().String())
	}
}

func TestListAllEmptyTable(t *testing.T) {
	m := newTestModel(t)

	people := mustList(t, m)
	assert.NotNil(t, people)
	assert.Empty(t, people)
}

func TestInsertListRoundTrip(t *testing.T) {
	m := newTestModel(t)
	ids := NewSequence()

	// Burn a few in-memory ids so they differ from the store's.
	for i := 0; i < 10; i++ {
		ids.Next()
	}

	john := mustInsert(t, m, ids, "John", "Lennon", date(t, "1940-10-09"))
	nobody := mustInsert(t, m, ids, "Stuart", "Sutcliffe", nil)

	people := mustList(t, m)
	require.Len(t, people, 2)

	assert.Equal(t, int64(1), people[0].ID(), "id comes from the store")
	assert.NotEqual(t, john.ID(), people[0].ID())
	assert.Equal(t, john.FirstName(), people[0].FirstName())
	assert.Equal(t, john.LastName(), people[0].LastName())
	assert.Equal(t, john.BirthDate(), people[0].BirthDate())

	assert.Equal(t, int64(2), people[1].ID())
	assert.Equal(t, nobody.FirstName(), people[1].FirstName())
	assert.Nil(t, people[1].BirthDate())
}

func TestBirthDateSurvivesStorage(t *testing.T) {
	m := newTestModel(t)
	mustInsert(t, m, NewSequence(), "George", "Harrison", date(t, "1943-02-25"))

	var stored string
	require.NoError(t, m.DB.QueryRow(`SELECT birthDate FROM personas`).Scan(&stored))
	assert.Equal(t, "1943-02-25", stored)

	people := mustList(t, m)
	require.Len(t, people, 1)
	assert.Equal(t, civil.Date{Year: 1943, Month: 2, Day: 25}, *people[0].BirthDate())
}

func TestInsertRefusesInvalidPerson(t *testing.T) {
	m := newTestModel(t)

	p, err := NewPerson(NewSequence(), "John", "  ", nil)
	require.NoError(t, err)

	err = m.Insert(context.Background(), p)
	require.ErrorIs(t, err, ErrInvalidPerson)
	assert.Empty(t, mustList(t, m))
}

func TestDeleteMissingIsNoOp(t *testing.T) {
	m := newTestModel(t)
	mustInsert(t, m, NewSequence(), "John", "Lennon", nil)
	before := snapshot(mustList(t, m))

	err := m.Delete(context.Background(), hydrate(999, "Nobody", "Here", nil))
	require.ErrorIs(t, err, ErrRecordNotFound)
	assert.Equal(t, before, snapshot(mustList(t, m)))

	// Deleting the same row twice: the second attempt matches nothing.
	stored := mustList(t, m)[0]
	require.NoError(t, m.Delete(context.Background(), stored))
	require.ErrorIs(t, m.Delete(context.Background(), stored), ErrRecordNotFound)
}

func TestInsertThreeDeleteOne(t *testing.T) {
	m := newTestModel(t)
	ids := NewSequence()

	mustInsert(t, m, ids, "John", "Lennon", date(t, "1940-10-09"))
	mustInsert(t, m, ids, "Paul", "McCartney", date(t, "1942-06-18"))
	mustInsert(t, m, ids, "George", "Harrison", nil)

	people := mustList(t, m)
	require.Len(t, people, 3)
	require.NoError(t, m.Delete(context.Background(), people[1]))

	remaining := mustList(t, m)
	assert.Equal(t, []string{people[0].String(), people[2].String()}, snapshot(remaining))
}

func TestRestoreBasicDataOnEmptyTable(t *testing.T) {
	m := newTestModel(t)

	require.NoError(t, m.RestoreBasicData(context.Background()))
	assertSeeded(t, mustList(t, m))
}

func TestRestoreBasicDataResetsIdentity(t *testing.T) {
	m := newTestModel(t)
	ids := NewSequence()
	for i := 0; i < 7; i++ {
		mustInsert(t, m, ids, fmt.Sprintf("Person%d", i), "Extra", nil)
	}

	require.NoError(t, m.RestoreBasicData(context.Background()))
	assertSeeded(t, mustList(t, m))

	// The sequence restarted, so the next row follows the seed.
	next := mustInsert(t, m, ids, "Pete", "Best", nil)
	people := mustList(t, m)
	require.Len(t, people, 5)
	assert.Equal(t, int64(5), people[4].ID())
	assert.Equal(t, next.FirstName(), people[4].FirstName())
}

func TestRestoreBasicDataWithThousandsOfRows(t *testing.T) {
	m := newTestModel(t)

	tx, err := m.DB.Begin()
	require.NoError(t, err)
	for i := 0; i < 3000; i++ {
		_, err := tx.Exec(`INSERT INTO personas (firstName, lastName, birthDate) VALUES (?, ?, ?)`,
			fmt.Sprintf("First%d", i), fmt.Sprintf("Last%d", i), "2000-01-01")
		require.NoError(t, err)
	}
	require.NoError(t, tx.Commit())
	require.Len(t, mustList(t, m), 3000)

	require.NoError(t, m.RestoreBasicData(context.Background()))
	assertSeeded(t, mustList(t, m))
}

func TestRestoreBasicDataIsRepeatable(t *testing.T) {
	m := newTestModel(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, m.RestoreBasicData(context.Background()))
	}
	assertSeeded(t, mustList(t, m))
}

func TestRestoreBasicDataRollsBackWhenInsertFails(t *testing.T) {
	m := newTestModel(t)
	ids := NewSequence()
	mustInsert(t, m, ids, "Brian", "Epstein", date(t, "1934-09-19"))
	mustInsert(t, m, ids, "George", "Martin", nil)
	mustInsert(t, m, ids, "Mal", "Evans", nil)
	before := snapshot(mustList(t, m))

	// Fail the seed insert half way, after the delete and reset ran.
	mustExec(t, m.DB, `
		CREATE TRIGGER reject_ringo BEFORE INSERT ON personas
		WHEN NEW.firstName = 'Ringo'
		BEGIN
			SELECT RAISE(ABORT, 'ringo rejected');
		END`)

	err := m.RestoreBasicData(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConstraint)
	assert.Equal(t, before, snapshot(mustList(t, m)))

	// The identity reset was rolled back too.
	mustExec(t, m.DB, `DROP TRIGGER reject_ringo`)
	mustInsert(t, m, ids, "Neil", "Aspinall", nil)
	people := mustList(t, m)
	require.Len(t, people, 4)
	assert.Equal(t, int64(4), people[3].ID())
}

func TestRestoreBasicDataRollsBackOnSeedMismatch(t *testing.T) {
	m := newTestModel(t)
	mustInsert(t, m, NewSequence(), "Yoko", "Ono", date(t, "1933-02-18"))
	before := snapshot(mustList(t, m))

	m.seed = append(append([]SeedRow{}, BasicData...), SeedRow{FirstName: "Pete", LastName: "Best", BirthDate: "1941-11-24"})

	err := m.RestoreBasicData(context.Background())
	require.ErrorIs(t, err, ErrSeedMismatch)
	assert.Equal(t, before, snapshot(mustList(t, m)))
}

func TestRestoreBasicDataRejectsShortSeed(t *testing.T) {
	require.Len(t, BasicData, seedSize)

	m := newTestModel(t)
	mustInsert(t, m, NewSequence(), "Yoko", "Ono", date(t, "1933-02-18"))
	before := snapshot(mustList(t, m))

	m.seed = BasicData[:seedSize-1]

	err := m.RestoreBasicData(context.Background())
	require.ErrorIs(t, err, ErrSeedMismatch)
	assert.Equal(t, before, snapshot(mustList(t, m)))
}

func TestListAllParsesStoredDates(t *testing.T) {
	m := newTestModel(t)
	mustExec(t, m.DB, `INSERT INTO personas (firstName, lastName, birthDate) VALUES ('A', 'Null', NULL)`)
	mustExec(t, m.DB, `INSERT INTO personas (firstName, lastName, birthDate) VALUES ('B', 'Blank', '  ')`)
	mustExec(t, m.DB, `INSERT INTO personas (firstName, lastName, birthDate) VALUES ('C', 'Date', '1940-07-07')`)

	people := mustList(t, m)
	require.Len(t, people, 3)
	assert.Nil(t, people[0].BirthDate())
	assert.Nil(t, people[1].BirthDate())
	assert.Equal(t, "1940-07-07", people[2].BirthDate().String())
}

func TestListAllRejectsCorruptDate(t *testing.T) {
	m := newTestModel(t)
	mustExec(t, m.DB, `INSERT INTO personas (firstName, lastName, birthDate) VALUES ('X', 'Y', '09/10/1940')`)

	people, err := m.ListAll(context.Background())
	require.Error(t, err)
	assert.Nil(t, people)
}

func TestOperationsFailWithoutTable(t *testing.T) {
	m := newTestModel(t)
	mustExec(t, m.DB, `DROP TABLE personas`)
	ctx := context.Background()

	_, err := m.ListAll(ctx)
	require.Error(t, err)

	p, _ := NewPerson(NewSequence(), "John", "Lennon", nil)
	err = m.Insert(ctx, p)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidPerson)

	err = m.Delete(ctx, p)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRecordNotFound, "a failed call is not the same as no match")

	require.Error(t, m.RestoreBasicData(ctx))
}

func TestBootstrap(t *testing.T) {
	m := newTestModel(t)
	ctx := context.Background()

	seeded, err := m.Bootstrap(ctx)
	require.NoError(t, err)
	assert.True(t, seeded)
	assertSeeded(t, mustList(t, m))

	require.NoError(t, m.Delete(ctx, mustList(t, m)[0]))
	seeded, err = m.Bootstrap(ctx)
	require.NoError(t, err)
	assert.False(t, seeded)
	assert.Len(t, mustList(t, m), 3)
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	m := newTestModel(t)
	require.NoError(t, m.EnsureSchema(context.Background()))
}

func TestClassifyConstraintViolation(t *testing.T) {
	m := newTestModel(t)

	_, err := m.DB.Exec(`INSERT INTO personas (firstName, lastName) VALUES (NULL, 'Lennon')`)
	require.Error(t, err)
	assert.ErrorIs(t, classify(err), ErrConstraint)

	assert.NoError(t, classify(nil))
	assert.NotErrorIs(t, classify(sql.ErrNoRows), ErrConstraint)
}
