package ports

import (
	"context"

	"github.com/technophil98/traefik-docker-http-provider-server/internal/core/domain"
	"github.com/technophil98/traefik-docker-http-provider-server/internal/core/dynconf"
)

// ContainerService lists the containers currently running on an engine.
// This interface allows us to switch between Docker, Podman, or any other
// engine without changing how routing configuration is derived.
type ContainerService interface {
	// ListContainers returns every running container, unfiltered, with its
	// names, labels and port bindings.
	ListContainers(ctx context.Context) ([]domain.RawContainer, error)
}

// ConfigurationProvider produces the proxy's dynamic configuration.
type ConfigurationProvider interface {
	DynamicConfiguration(ctx context.Context) (*dynconf.Document, error)
}
