package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"peopleapi/internal/person/models"
	id "peopleapi/pkg/domain"
	dErrors "peopleapi/pkg/domain-errors"
	"peopleapi/pkg/platform/httputil"
	"peopleapi/pkg/requestcontext"
)

// Service defines the interface for person operations.
type Service interface {
	Search(ctx context.Context, firstName, lastName string) ([]*models.Person, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Person, error)
	Create(ctx context.Context, p *models.Person) (*models.Person, error)
	Update(ctx context.Context, id uuid.UUID, details *models.Person) (*models.Person, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// Handler wires the /api/persons endpoints to the person service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a person handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the person endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/persons", func(r chi.Router) {
		r.Get("/", h.HandleSearch)
		r.Post("/", h.HandleCreate)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
	})
}

// HandleSearch handles GET /api/persons?firstName=&lastName=.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	persons, err := h.service.Search(ctx, query.Get("firstName"), query.Get("lastName"))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to search persons",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromModels(persons))
}

// HandleGet handles GET /api/persons/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	personID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	p, err := h.service.GetByID(ctx, personID)
	if err != nil {
		h.logFailure(ctx, "failed to get person", personID, err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromModel(p))
}

// HandleCreate handles POST /api/persons.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[PersonRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	p, err := h.service.Create(ctx, req.ToModel())
	if err != nil {
		h.logFailure(ctx, "failed to create person", uuid.Nil, err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, FromModel(p))
}

// HandleUpdate handles PUT /api/persons/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	personID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[PersonRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	p, err := h.service.Update(ctx, personID, req.ToModel())
	if err != nil {
		h.logFailure(ctx, "failed to update person", personID, err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromModel(p))
}

// HandleDelete handles DELETE /api/persons/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	personID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	deleted, err := h.service.Delete(ctx, personID)
	if err != nil {
		h.logFailure(ctx, "failed to delete person", personID, err)
		httputil.WriteError(w, err)
		return
	}
	if !deleted {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "person not found"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	personID, err := id.ParsePersonID(raw)
	if err != nil {
		ctx := r.Context()
		h.logger.WarnContext(ctx, "invalid person id",
			"request_id", requestcontext.RequestID(ctx),
			"id", raw,
		)
		httputil.WriteError(w, err)
		return uuid.Nil, false
	}
	return personID, true
}

// logFailure logs client errors at warn and everything else at error.
func (h *Handler) logFailure(ctx context.Context, msg string, personID uuid.UUID, err error) {
	attrs := []any{"request_id", requestcontext.RequestID(ctx), "error", err}
	if personID != uuid.Nil {
		attrs = append(attrs, "person_id", personID)
	}
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, attrs...)
		return
	}
	h.logger.WarnContext(ctx, msg, attrs...)
}
