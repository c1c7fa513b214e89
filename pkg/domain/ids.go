package domain

import (
	"github.com/google/uuid"

	dErrors "peopleapi/pkg/domain-errors"
)

// canonicalUUIDLen is the length of the 8-4-4-4-12 textual form.
const canonicalUUIDLen = 36

// ParsePersonID parses a person identifier received at a trust boundary.
// Only the canonical hyphenated form is accepted; uuid.Parse alone would also
// take the urn:uuid:, braced and bare-hex spellings.
//
// The nil UUID is well-formed and parses successfully; lookups simply miss.
func ParsePersonID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "person id is required")
	}
	if len(s) != canonicalUUIDLen {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "person id must be a UUID")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "person id must be a UUID")
	}
	return id, nil
}
