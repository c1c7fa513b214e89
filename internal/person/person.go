// Package person assembles the person service and its HTTP handler.
package person

import (
	"log/slog"

	"peopleapi/internal/person/handler"
	"peopleapi/internal/person/service"
	"peopleapi/internal/platform/metrics"
)

// Module bundles the wired person components.
type Module struct {
	Service *service.Service
	Handler *handler.Handler
}

// New wires a service over store and a handler over that service.
func New(store service.Store, logger *slog.Logger, m *metrics.Metrics) *Module {
	svc := service.New(store,
		service.WithLogger(logger),
		service.WithMetrics(m),
	)
	return &Module{
		Service: svc,
		Handler: handler.New(svc, logger),
	}
}
