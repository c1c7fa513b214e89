package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"peopleapi/internal/person/models"
	"peopleapi/internal/person/validator"
	"peopleapi/internal/platform/metrics"
	dErrors "peopleapi/pkg/domain-errors"
	"peopleapi/pkg/platform/sentinel"
	"peopleapi/pkg/requestcontext"
)

// Store is the persistence contract the service depends on.
type Store interface {
	Insert(ctx context.Context, p *models.Person) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Person, error)
	FindAll(ctx context.Context) ([]*models.Person, error)
	Search(ctx context.Context, filter models.Filter) ([]*models.Person, error)
	Update(ctx context.Context, p *models.Person) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service orchestrates person lifecycle operations.
type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	newID   func() uuid.UUID
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service.
func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.Default(),
		newID:  uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search lists persons whose names contain the given fragments. Empty
// arguments do not filter.
func (s *Service) Search(ctx context.Context, firstName, lastName string) ([]*models.Person, error) {
	filter := models.Filter{FirstName: firstName, LastName: lastName}
	var (
		persons []*models.Person
		err     error
	)
	if filter.IsEmpty() {
		persons, err = s.store.FindAll(ctx)
	} else {
		persons, err = s.store.Search(ctx, filter)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search persons")
	}
	return persons, nil
}

// GetByID returns the person with id or a not_found error.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.Person, error) {
	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "person not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load person")
	}
	return p, nil
}

// Create validates p, assigns a fresh id and persists it. Any id on p is
// discarded.
func (s *Service) Create(ctx context.Context, p *models.Person) (*models.Person, error) {
	if err := validator.Validate(p); err != nil {
		return nil, err
	}

	person := &models.Person{
		ID:        s.newID(),
		FirstName: p.FirstName,
		LastName:  p.LastName,
	}
	if err := s.store.Insert(ctx, person); err != nil {
		// a v4 collision is not the client's fault; there is no 409
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create person")
	}

	s.logger.InfoContext(ctx, "person created",
		"request_id", requestcontext.RequestID(ctx),
		"person_id", person.ID,
	)
	s.metrics.IncrementPersonsCreated()
	return person, nil
}

// Update replaces the names of the person with id, keeping the id.
func (s *Service) Update(ctx context.Context, id uuid.UUID, details *models.Person) (*models.Person, error) {
	if err := validator.Validate(details); err != nil {
		return nil, err
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	existing.FirstName = details.FirstName
	existing.LastName = details.LastName

	if err := s.store.Update(ctx, existing); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "person not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update person")
	}

	s.logger.InfoContext(ctx, "person updated",
		"request_id", requestcontext.RequestID(ctx),
		"person_id", existing.ID,
	)
	s.metrics.IncrementPersonsUpdated()
	return existing, nil
}

// Delete removes the person with id and reports whether it existed.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	if _, err := s.store.FindByID(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load person")
	}

	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete person")
	}
	if deleted {
		s.logger.InfoContext(ctx, "person deleted",
			"request_id", requestcontext.RequestID(ctx),
			"person_id", id,
		)
		s.metrics.IncrementPersonsDeleted()
	}
	return deleted, nil
}
