// Package people defines the records exchanged with the People service:
// list pages of identifiers and per-person detail records.
package people

import (
	"encoding/json"
	"fmt"
)

// ID identifies a person in the People service. Zero means "not set".
type ID int64

// ValidationError is returned when a record is missing a required field.
type ValidationError struct {
	Entity string
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s %s", e.Entity, e.Field, e.Reason)
}

// Person is a detail record as returned by the detail endpoint.
// Values are immutable once constructed.
type Person struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Age         int    `json:"age"`
	PhoneNumber string `json:"number,omitempty"`
	PhotoURL    string `json:"photo,omitempty"`
	Bio         string `json:"bio,omitempty"`
}

// NewPerson builds a Person, requiring a non-zero id, a name and a positive age.
func NewPerson(id ID, name string, age int, phone, photo, bio string) (Person, error) {
	p := Person{
		ID:          id,
		Name:        name,
		Age:         age,
		PhoneNumber: phone,
		PhotoURL:    photo,
		Bio:         bio,
	}
	if err := p.Validate(); err != nil {
		return Person{}, err
	}
	return p, nil
}

// Validate reports the first missing required field.
func (p Person) Validate() error {
	switch {
	case p.ID == 0:
		return &ValidationError{Entity: "person", Field: "id", Reason: "is required"}
	case p.Name == "":
		return &ValidationError{Entity: "person", Field: "name", Reason: "is required"}
	case p.Age <= 0:
		return &ValidationError{Entity: "person", Field: "age", Reason: "is required"}
	}
	return nil
}

// HasPhone reports whether a phone number was supplied.
func (p Person) HasPhone() bool {
	return p.PhoneNumber != ""
}

// ParsePerson decodes a detail endpoint payload.
func ParsePerson(data []byte) (Person, error) {
	var p Person
	if err := json.Unmarshal(data, &p); err != nil {
		return Person{}, fmt.Errorf("decode person: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Person{}, err
	}
	return p, nil
}
