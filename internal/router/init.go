package router

import (
	userapp "user-registry/internal/application"
	"user-registry/internal/container"
	pginfra "user-registry/internal/infrastructure/postgres"
	handlers "user-registry/internal/interface/http"
	"user-registry/internal/router/modules"
)

// InitModules wires all application modules from the container singletons and
// registers them with the router registry. Every component receives its
// collaborators explicitly at construction; there is no runtime discovery.
func InitModules(r *Registry) {
	cfg := container.GetConfig()

	// Avoid handing a typed nil to the service when the broker is absent.
	var events userapp.EventPublisher
	if pub := container.GetRabbitPub(); pub != nil {
		events = pub
	}

	repo := pginfra.NewUserRepository(container.GetPGPool())
	service := userapp.NewService(
		repo,
		events,
		container.GetLogger(),
		container.GetES(),
		cfg.ESUsersIndex,
	)
	handler := handlers.NewUserHandler(service, container.GetLogger())

	r.Add(modules.NewUserModule(handler, cfg.RateLimitMax, cfg.RateLimitWindow))
	r.Add(modules.NewHealthModule())
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
