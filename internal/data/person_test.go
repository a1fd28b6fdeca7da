package data

import (
	"encoding/json"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aoideee/peopleview/internal/validator"
)

// fixToday pins the clock used for birth date checks.
func fixToday(t *testing.T, d civil.Date) {
	t.Helper()
	prev := today
	today = func() civil.Date { return d }
	t.Cleanup(func() { today = prev })
}

func date(t *testing.T, s string) *civil.Date {
	t.Helper()
	d, err := civil.ParseDate(s)
	require.NoError(t, err)
	return &d
}

func TestNewPersonValid(t *testing.T) {
	fixToday(t, civil.Date{Year: 2025, Month: 10, Day: 5})
	ids := NewSequence()

	p, err := NewPerson(ids, "  John ", "Lennon\t", date(t, "1940-10-09"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), p.ID())
	assert.Equal(t, "John", p.FirstName())
	assert.Equal(t, "Lennon", p.LastName())
	assert.Equal(t, "1940-10-09", p.BirthDate().String())
	assert.True(t, p.IsValid())
}

func TestNewPersonIDsStrictlyIncrease(t *testing.T) {
	ids := NewSequence()

	var last int64
	for i := 0; i < 50; i++ {
		p, err := NewPerson(ids, "Paul", "McCartney", nil)
		require.NoError(t, err)
		assert.Greater(t, p.ID(), last)
		last = p.ID()
	}
}

func TestSequencesAreIndependent(t *testing.T) {
	a, b := NewSequence(), NewSequence()
	assert.Equal(t, int64(1), a.Next())
	assert.Equal(t, int64(2), a.Next())
	assert.Equal(t, int64(1), b.Next())
}

func TestNewPersonBlankNamesLeaveFieldsUnset(t *testing.T) {
	p, err := NewPerson(NewSequence(), "   ", "", nil)

	// Blank input on an unset field is not an error, just not assigned.
	require.NoError(t, err)
	assert.Empty(t, p.FirstName())
	assert.Empty(t, p.LastName())
	assert.False(t, p.IsValid())
}

func TestNewPersonFutureBirthDate(t *testing.T) {
	fixToday(t, civil.Date{Year: 2025, Month: 10, Day: 5})

	p, err := NewPerson(NewSequence(), "George", "Harrison", date(t, "2025-10-06"))
	require.ErrorIs(t, err, ErrFutureBirthDate)
	assert.Nil(t, p.BirthDate())
	assert.True(t, p.IsValid(), "a rejected date leaves the person without one")
}

func TestSetNameRejectsBlankOverwrite(t *testing.T) {
	p, err := NewPerson(NewSequence(), "Ringo", "Starr", nil)
	require.NoError(t, err)

	for _, blank := range []string{"", " ", "\t\n"} {
		require.ErrorIs(t, p.SetFirstName(blank), ErrBlankName)
		require.ErrorIs(t, p.SetLastName(blank), ErrBlankName)
	}
	assert.Equal(t, "Ringo", p.FirstName())
	assert.Equal(t, "Starr", p.LastName())

	require.NoError(t, p.SetFirstName(" Richard "))
	assert.Equal(t, "Richard", p.FirstName())
}

func TestSetBirthDate(t *testing.T) {
	fixToday(t, civil.Date{Year: 2025, Month: 10, Day: 5})
	p, err := NewPerson(NewSequence(), "Paul", "McCartney", date(t, "1942-06-18"))
	require.NoError(t, err)

	t.Run("future keeps prior value", func(t *testing.T) {
		require.ErrorIs(t, p.SetBirthDate(date(t, "2030-01-01")), ErrFutureBirthDate)
		assert.Equal(t, "1942-06-18", p.BirthDate().String())
	})

	t.Run("impossible date keeps prior value", func(t *testing.T) {
		bad := civil.Date{Year: 1942, Month: 2, Day: 30}
		require.ErrorIs(t, p.SetBirthDate(&bad), ErrInvalidBirthDate)
		assert.Equal(t, "1942-06-18", p.BirthDate().String())
	})

	t.Run("today is accepted", func(t *testing.T) {
		require.NoError(t, p.SetBirthDate(date(t, "2025-10-05")))
		assert.Equal(t, "2025-10-05", p.BirthDate().String())
	})

	t.Run("nil clears", func(t *testing.T) {
		require.NoError(t, p.SetBirthDate(nil))
		assert.Nil(t, p.BirthDate())
		assert.True(t, p.IsValid())
	})
}

func TestBirthDateIsCopied(t *testing.T) {
	d := date(t, "1940-07-07")
	p, err := NewPerson(NewSequence(), "Ringo", "Starr", d)
	require.NoError(t, err)

	d.Year = 1999
	got := p.BirthDate()
	got.Year = 2001
	assert.Equal(t, "1940-07-07", p.BirthDate().String())
}

func TestValidBirthDate(t *testing.T) {
	fixToday(t, civil.Date{Year: 2025, Month: 10, Day: 5})

	tests := []struct {
		name string
		in   *civil.Date
		want bool
	}{
		{"nil", nil, true},
		{"past", date(t, "1943-02-25"), true},
		{"today", date(t, "2025-10-05"), true},
		{"tomorrow", date(t, "2025-10-06"), false},
		{"far future", date(t, "2125-01-01"), false},
		{"invalid", &civil.Date{Year: 2001, Month: 13, Day: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidBirthDate(tt.in))
		})
	}
}

func TestIsValidIsNotCached(t *testing.T) {
	fixToday(t, civil.Date{Year: 2025, Month: 10, Day: 5})
	p, err := NewPerson(NewSequence(), "John", "Lennon", date(t, "2025-10-05"))
	require.NoError(t, err)
	assert.True(t, p.IsValid())

	// Moving the clock backwards puts the stored date in the future.
	fixToday(t, civil.Date{Year: 2025, Month: 10, Day: 4})
	assert.False(t, p.IsValid())
}

func TestValidatePerson(t *testing.T) {
	p, _ := NewPerson(NewSequence(), "", "", nil)

	v := validator.New()
	ValidatePerson(v, p)
	assert.Equal(t, map[string]string{
		"first_name": "must be provided",
		"last_name":  "must be provided",
	}, v.Errors)

	long := make([]rune, 101)
	for i := range long {
		long[i] = 'a'
	}
	p, _ = NewPerson(NewSequence(), string(long), "Starr", nil)
	v = validator.New()
	ValidatePerson(v, p)
	assert.Equal(t, map[string]string{"first_name": "must not be more than 100 characters"}, v.Errors)
}

func TestPersonJSON(t *testing.T) {
	p := hydrate(3, "George", "Harrison", date(t, "1943-02-25"))
	js, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"person_id":3,"first_name":"George","last_name":"Harrison","birth_date":"1943-02-25"}`, string(js))

	p = hydrate(4, "Ringo", "Starr", nil)
	js, err = json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"person_id":4,"first_name":"Ringo","last_name":"Starr","birth_date":null}`, string(js))
}

func TestPersonString(t *testing.T) {
	p := hydrate(1, "John", "Lennon", date(t, "1940-10-09"))
	assert.Equal(t, "Person ID: 1, First Name: John, Last Name: Lennon, Birth Date: 1940-10-09", p.String())
}

func TestClone(t *testing.T) {
	p := hydrate(1, "John", "Lennon", date(t, "1940-10-09"))
	c := p.Clone()
	require.NoError(t, c.SetFirstName("Julian"))
	assert.Equal(t, "John", p.FirstName())
	assert.Equal(t, p.ID(), c.ID())
}
