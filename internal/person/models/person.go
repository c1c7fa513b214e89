package models

import "github.com/google/uuid"

// Person is the internal shape of a person record.
//
// Invariants (enforced by the service before anything reaches a store):
//   - ID is assigned once on creation and never changes
//   - FirstName and LastName are non-blank; they are stored as received,
//     surrounding whitespace included
type Person struct {
	ID        uuid.UUID
	FirstName string
	LastName  string
}

// Clone returns a copy that shares nothing with p.
func (p *Person) Clone() *Person {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// Filter selects persons by case-insensitive substring on each name.
// An empty field does not constrain; set fields combine with AND.
type Filter struct {
	FirstName string
	LastName  string
}

// IsEmpty reports whether the filter matches every person.
func (f Filter) IsEmpty() bool {
	return f.FirstName == "" && f.LastName == ""
}
