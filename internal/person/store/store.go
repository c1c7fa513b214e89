// Package store persists person records. Every backend satisfies Backend and
// reports missing rows with sentinel.ErrNotFound and duplicate ids with
// sentinel.ErrConflict.
package store

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"peopleapi/internal/person/models"
)

// Backend is the full contract of a person store, lifecycle included.
type Backend interface {
	Insert(ctx context.Context, p *models.Person) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Person, error)
	FindAll(ctx context.Context) ([]*models.Person, error)
	Search(ctx context.Context, filter models.Filter) ([]*models.Person, error)
	Update(ctx context.Context, p *models.Person) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching s anywhere, with LIKE
// metacharacters in s taken literally. Pair with ESCAPE '\'.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// containsFold reports whether sub occurs in s, ignoring case.
func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// matches applies filter semantics to one record.
func matches(p *models.Person, filter models.Filter) bool {
	if filter.FirstName != "" && !containsFold(p.FirstName, filter.FirstName) {
		return false
	}
	if filter.LastName != "" && !containsFold(p.LastName, filter.LastName) {
		return false
	}
	return true
}
