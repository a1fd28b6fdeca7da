package data

import (
	"fmt"
	"strings"
)

// SeedRow is one row of the fixed dataset written by RestoreBasicData.
type SeedRow struct {
	FirstName string
	LastName  string
	BirthDate string // ISO-8601, as stored
}

// seedSize is the number of rows a restore must insert. It is fixed on
// purpose and not derived from the payload, so a payload that grows or
// shrinks fails the restore instead of silently changing the table.
const seedSize = 4

// BasicData is the seed set, in insertion order.
var BasicData = []SeedRow{
	{FirstName: "John", LastName: "Lennon", BirthDate: "1940-10-09"},
	{FirstName: "Paul", LastName: "McCartney", BirthDate: "1942-06-18"},
	{FirstName: "George", LastName: "Harrison", BirthDate: "1943-02-25"},
	{FirstName: "Ringo", LastName: "Starr", BirthDate: "1940-07-07"},
}

// seedInsert builds one multi-row INSERT for rows, with its arguments.
func seedInsert(rows []SeedRow) (string, []any) {
	var (
		values = make([]string, 0, len(rows))
		args   = make([]any, 0, 3*len(rows))
	)
	for i, row := range rows {
		n := 3 * i
		values = append(values, fmt.Sprintf("($%d, $%d, $%d)", n+1, n+2, n+3))
		args = append(args, row.FirstName, row.LastName, row.BirthDate)
	}

	query := `INSERT INTO personas (firstName, lastName, birthDate) VALUES ` + strings.Join(values, ", ")
	return query, args
}
