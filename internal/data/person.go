// Package data provides the Person entity and the database interaction
// logic for the personas table.
package data

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"cloud.google.com/go/civil"

	"github.com/aoideee/peopleview/internal/validator"
)

// Column limits from the personas table definition.
const maxNameChars = 100

var (
	// ErrBlankName is returned when an empty value would replace a name
	// that is already set.
	ErrBlankName = errors.New("name must not be blank")

	// ErrFutureBirthDate is returned for a birth date later than today.
	ErrFutureBirthDate = errors.New("birth date must not be in the future")

	// ErrInvalidBirthDate is returned for a date that does not exist, such
	// as February 30th.
	ErrInvalidBirthDate = errors.New("birth date is not a valid calendar date")
)

// today reports the current local calendar date. Tests replace it.
var today = func() civil.Date {
	return civil.DateOf(time.Now())
}

// Sequence hands out in-process person ids. It is safe for concurrent use.
// The zero value starts at 1.
type Sequence struct {
	last atomic.Int64
}

// NewSequence returns a sequence whose first id is 1.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Next returns the next id, strictly greater than any id returned before.
func (s *Sequence) Next() int64 {
	return s.last.Add(1)
}

// Person is a single row of the personas table, held in memory.
// Fields are only changed through the setters, which re-validate.
type Person struct {
	id        int64
	firstName string
	lastName  string
	birthDate *civil.Date
}

// NewPerson takes the next id from ids and applies every field through its
// setter. The returned error joins every rejected assignment; the Person is
// returned either way so the caller can inspect what was accepted.
func NewPerson(ids *Sequence, firstName, lastName string, birthDate *civil.Date) (*Person, error) {
	p := &Person{id: ids.Next()}

	return p, errors.Join(
		p.SetFirstName(firstName),
		p.SetLastName(lastName),
		p.SetBirthDate(birthDate),
	)
}

// hydrate builds a Person from a stored row, keeping the row's id and
// bypassing the sequence.
func hydrate(id int64, firstName, lastName string, birthDate *civil.Date) *Person {
	return &Person{
		id:        id,
		firstName: firstName,
		lastName:  lastName,
		birthDate: birthDate,
	}
}

// ID returns the person's identity: the in-process sequence value until the
// row has been loaded back from the store, the store's id afterwards.
func (p *Person) ID() int64 { return p.id }

// FirstName returns the trimmed first name, or "" if never set.
func (p *Person) FirstName() string { return p.firstName }

// LastName returns the trimmed last name, or "" if never set.
func (p *Person) LastName() string { return p.lastName }

// BirthDate returns a copy of the birth date, or nil.
func (p *Person) BirthDate() *civil.Date {
	if p.birthDate == nil {
		return nil
	}
	d := *p.birthDate
	return &d
}

// SetFirstName trims value and assigns it when non-empty. A blank value is
// ignored when no first name is set yet, and rejected with ErrBlankName
// when it would overwrite an existing one.
func (p *Person) SetFirstName(value string) error {
	return setName(&p.firstName, "first name", value)
}

// SetLastName behaves like SetFirstName for the last name.
func (p *Person) SetLastName(value string) error {
	return setName(&p.lastName, "last name", value)
}

func setName(field *string, label, value string) error {
	value = strings.TrimSpace(value)
	if value != "" {
		*field = value
		return nil
	}
	if *field != "" {
		return fmt.Errorf("%s: %w", label, ErrBlankName)
	}
	return nil
}

// SetBirthDate assigns value, or clears the birth date when value is nil.
// A future or malformed date is rejected and the prior value kept.
func (p *Person) SetBirthDate(value *civil.Date) error {
	if value == nil {
		p.birthDate = nil
		return nil
	}
	if !value.IsValid() {
		return fmt.Errorf("%s: %w", value, ErrInvalidBirthDate)
	}
	if !ValidBirthDate(value) {
		return fmt.Errorf("%s: %w", value, ErrFutureBirthDate)
	}
	d := *value
	p.birthDate = &d
	return nil
}

// ValidBirthDate reports whether d is acceptable as a birth date: nil is,
// otherwise d must be a real date no later than today.
func ValidBirthDate(d *civil.Date) bool {
	if d == nil {
		return true
	}
	return d.IsValid() && !d.After(today())
}

// IsValid reports whether both names are set and the birth date is valid.
// It is derived from the current fields on every call.
func (p *Person) IsValid() bool {
	return p.firstName != "" && p.lastName != "" && ValidBirthDate(p.birthDate)
}

// ValidatePerson records a field error in v for every rule p breaks.
func ValidatePerson(v *validator.Validator, p *Person) {
	v.Check(validator.NotBlank(p.firstName), "first_name", "must be provided")
	v.Check(validator.MaxChars(p.firstName, maxNameChars), "first_name", "must not be more than 100 characters")
	v.Check(validator.NotBlank(p.lastName), "last_name", "must be provided")
	v.Check(validator.MaxChars(p.lastName, maxNameChars), "last_name", "must not be more than 100 characters")
	v.Check(ValidBirthDate(p.birthDate), "birth_date", "must not be in the future")
}

// Clone returns an independent copy of p.
func (p *Person) Clone() *Person {
	return hydrate(p.id, p.firstName, p.lastName, p.BirthDate())
}

func (p *Person) String() string {
	birth := "<nil>"
	if p.birthDate != nil {
		birth = p.birthDate.String()
	}
	return fmt.Sprintf("Person ID: %d, First Name: %s, Last Name: %s, Birth Date: %s",
		p.id, p.firstName, p.lastName, birth)
}

// LogValue implements slog.LogValuer.
func (p *Person) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("person_id", p.id),
		slog.String("first_name", p.firstName),
		slog.String("last_name", p.lastName),
	}
	if p.birthDate != nil {
		attrs = append(attrs, slog.String("birth_date", p.birthDate.String()))
	}
	return slog.GroupValue(attrs...)
}

// personJSON is the wire shape of a Person.
type personJSON struct {
	ID        int64       `json:"person_id"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	BirthDate *civil.Date `json:"birth_date"` // "YYYY-MM-DD" or null
}

// MarshalJSON implements json.Marshaler.
func (p *Person) MarshalJSON() ([]byte, error) {
	return json.Marshal(personJSON{
		ID:        p.id,
		FirstName: p.firstName,
		LastName:  p.lastName,
		BirthDate: p.birthDate,
	})
}
