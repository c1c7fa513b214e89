package handler

import "peopleapi/internal/person/models"

// PersonResponse is the wire shape of a stored person.
type PersonResponse struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// FromModel maps a person to its response; nil maps to nil.
func FromModel(p *models.Person) *PersonResponse {
	if p == nil {
		return nil
	}
	return &PersonResponse{
		ID:        p.ID.String(),
		FirstName: p.FirstName,
		LastName:  p.LastName,
	}
}

// FromModels maps a list. The result is never nil so it encodes as [].
func FromModels(persons []*models.Person) []*PersonResponse {
	out := make([]*PersonResponse, 0, len(persons))
	for _, p := range persons {
		if r := FromModel(p); r != nil {
			out = append(out, r)
		}
	}
	return out
}
