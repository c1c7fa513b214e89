// Package validator holds the field rules for person records. It is the single
// source of truth for what a storable name looks like.
package validator

import (
	"strings"

	"peopleapi/internal/person/models"
	dErrors "peopleapi/pkg/domain-errors"
)

// asciiSpace is the set trimmed before the blank check.
const asciiSpace = " \t\n\v\f\r"

// FieldError names a field and the rule it broke.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) String() string {
	return e.Field + ": " + e.Message
}

// Check evaluates every rule against p and returns the failures in field order.
func Check(p *models.Person) []FieldError {
	if p == nil {
		return []FieldError{
			{Field: "firstName", Message: "First name cannot be empty"},
			{Field: "lastName", Message: "Last name cannot be empty"},
		}
	}
	var errs []FieldError
	if isBlank(p.FirstName) {
		errs = append(errs, FieldError{Field: "firstName", Message: "First name cannot be empty"})
	}
	if isBlank(p.LastName) {
		errs = append(errs, FieldError{Field: "lastName", Message: "Last name cannot be empty"})
	}
	return errs
}

// Validate returns a validation_error naming every offending field, or nil.
func Validate(p *models.Person) error {
	errs := Check(p)
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.String()
	}
	return dErrors.New(dErrors.CodeValidation, strings.Join(msgs, "; "))
}

func isBlank(s string) bool {
	return strings.Trim(s, asciiSpace) == ""
}
