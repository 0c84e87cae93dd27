package docker

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"

	"github.com/technophil98/traefik-docker-http-provider-server/internal/core/domain"
)

// engineClient is the part of the Docker SDK client the adapter relies on.
type engineClient interface {
	ContainerList(ctx context.Context, options container.ListOptions) ([]types.Container, error)
	Close() error
}

// Adapter implements ports.ContainerService using Docker SDK
type Adapter struct {
	cli engineClient
}

// NewAdapter creates a new Docker adapter instance. The daemon location and
// TLS settings are taken from the usual DOCKER_* environment variables.
func NewAdapter() (*Adapter, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &Adapter{cli: cli}, nil
}

// ListContainers returns every running container with its names, labels and
// port bindings. No filtering is applied.
func (a *Adapter) ListContainers(ctx context.Context) ([]domain.RawContainer, error) {
	containers, err := a.cli.ContainerList(ctx, container.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	result := make([]domain.RawContainer, 0, len(containers))
	for _, c := range containers {
		result = append(result, toRawContainer(c))
	}
	return result, nil
}

// Close releases the underlying Docker client.
func (a *Adapter) Close() error {
	return a.cli.Close()
}

func toRawContainer(c types.Container) domain.RawContainer {
	var ports []domain.PortBinding
	if c.Ports != nil {
		ports = make([]domain.PortBinding, 0, len(c.Ports))
		for _, p := range c.Ports {
			ports = append(ports, domain.PortBinding{
				PrivatePort: p.PrivatePort,
				PublicPort:  p.PublicPort,
				Protocol:    p.Type,
			})
		}
	}

	return domain.RawContainer{
		ID:     c.ID,
		Names:  c.Names,
		Labels: c.Labels,
		Ports:  ports,
	}
}
