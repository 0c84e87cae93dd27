package domain

import (
	"errors"
	"strings"
)

var (
	ErrMissingName     = errors.New("no container name found")
	ErrMissingPorts    = errors.New("no ports specified")
	ErrNoRoutingConfig = errors.New("could not find a routing rule label")
)

// PortBinding is a single port entry as reported by the container engine.
// A zero PublicPort means the private port is not published on the host.
type PortBinding struct {
	PrivatePort uint16
	PublicPort  uint16
	Protocol    string
}

// RawContainer is a container as returned by the engine (Docker, Podman, ...),
// before any routing labels have been interpreted.
type RawContainer struct {
	ID     string
	Names  []string
	Labels map[string]string
	Ports  []PortBinding // nil when the engine did not report any port list
}

// Container is a running container that carries a usable routing configuration.
type Container struct {
	Name        string
	PublicPorts []uint16
	Routing     RoutingConfig
}

// NewContainer converts a raw engine record into a Container, interpreting
// its labels with the given extractor.
func NewContainer(raw RawContainer, extractor *LabelExtractor) (Container, error) {
	return NewRoutedContainer(raw, extractor.Extract(raw.Labels))
}

// NewRoutedContainer is NewContainer for callers that already extracted the
// routing configuration from raw's labels. A nil routing is rejected.
func NewRoutedContainer(raw RawContainer, routing RoutingConfig) (Container, error) {
	if len(raw.Names) == 0 || raw.Names[0] == "" {
		return Container{}, ErrMissingName
	}
	// Remove leading / in container name
	name := strings.TrimPrefix(raw.Names[0], "/")

	if raw.Ports == nil {
		return Container{}, ErrMissingPorts
	}
	publicPorts := make([]uint16, 0, len(raw.Ports))
	for _, p := range raw.Ports {
		if p.PublicPort != 0 {
			publicPorts = append(publicPorts, p.PublicPort)
		}
	}

	if routing == nil {
		return Container{}, ErrNoRoutingConfig
	}

	return Container{
		Name:        name,
		PublicPorts: publicPorts,
		Routing:     routing,
	}, nil
}
