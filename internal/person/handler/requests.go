package handler

import (
	"strings"

	"peopleapi/internal/person/models"
	dErrors "peopleapi/pkg/domain-errors"
)

// PersonRequest is the HTTP request body for POST and PUT /api/persons.
// Pointers distinguish a missing or null field from an empty string.
type PersonRequest struct {
	// ID is accepted for symmetry with the response shape and ignored.
	ID        *string `json:"id,omitempty"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

// Validate checks that both names were sent as strings. Content rules
// (blank names) belong to the validator so that create and update report
// them the same way.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *PersonRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	var missing []string
	if r.FirstName == nil {
		missing = append(missing, "firstName: First name cannot be empty")
	}
	if r.LastName == nil {
		missing = append(missing, "lastName: Last name cannot be empty")
	}
	if len(missing) > 0 {
		return dErrors.New(dErrors.CodeValidation, strings.Join(missing, "; "))
	}
	return nil
}

// ToModel converts the request into the internal shape. The id is never
// carried over.
func (r *PersonRequest) ToModel() *models.Person {
	if r == nil {
		return nil
	}
	p := &models.Person{}
	if r.FirstName != nil {
		p.FirstName = *r.FirstName
	}
	if r.LastName != nil {
		p.LastName = *r.LastName
	}
	return p
}
