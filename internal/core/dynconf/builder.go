package dynconf

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/technophil98/traefik-docker-http-provider-server/internal/core/domain"
)

var (
	ErrNoPublicPort     = errors.New("no public port specified for container")
	ErrInvalidBaseURL   = errors.New("cannot append container port to base URL")
	ErrBuilderFinalized = errors.New("configuration builder already finalized")
)

// defaultPorts are elided from backend URLs, the same way a URL parser would
// normalize them.
var defaultPorts = map[string]uint16{
	"http":  80,
	"https": 443,
	"ws":    80,
	"wss":   443,
	"ftp":   21,
}

// Builder accumulates containers into a Document. A Builder is not safe for
// concurrent use; create one per request.
type Builder struct {
	baseURL   url.URL
	routers   map[string]Router
	services  map[string]Service
	finalized bool
}

// NewBuilder returns an empty builder resolving every backend against baseURL.
func NewBuilder(baseURL *url.URL) *Builder {
	return &Builder{
		baseURL:  *baseURL,
		routers:  map[string]Router{},
		services: map[string]Service{},
	}
}

// AddContainer registers the routers and services of c. Entries already
// registered under the same router or service name are replaced.
func (b *Builder) AddContainer(c domain.Container) (*Builder, error) {
	if b.finalized {
		return b, ErrBuilderFinalized
	}

	switch config := c.Routing.(type) {
	case domain.SinglePort:
		if len(c.PublicPorts) == 0 {
			return b, fmt.Errorf("%w '%s'", ErrNoPublicPort, c.Name)
		}
		backend, err := b.backendURL(c.PublicPorts[0])
		if err != nil {
			return b, err
		}
		b.register(config.RouterName, config.Rule, c.Name, backend)

	case domain.MultiPort:
		for _, entry := range config.Entries {
			backend, err := b.backendURL(entry.TargetPort)
			if err != nil {
				return b, err
			}
			b.register(entry.RouterName, entry.Rule, entry.ServiceName, backend)
		}

	default:
		return b, fmt.Errorf("container '%s': %w", c.Name, domain.ErrNoRoutingConfig)
	}

	return b, nil
}

// Build finalizes the builder and returns the assembled document. The builder
// cannot be used afterwards.
func (b *Builder) Build() *Document {
	doc := &Document{
		HTTP: HTTPConfiguration{
			Routers:  b.routers,
			Services: b.services,
		},
	}
	b.routers, b.services = nil, nil
	b.finalized = true
	return doc
}

func (b *Builder) register(routerName, rule, serviceName, backend string) {
	b.services[serviceName] = Service{
		LoadBalancer: LoadBalancer{
			Servers: []Server{{URL: backend}},
		},
	}
	b.routers[routerName] = Router{
		Rule:    rule,
		Service: serviceName,
	}
}

// backendURL returns the base URL with its port replaced by port.
func (b *Builder) backendURL(port uint16) (string, error) {
	u := b.baseURL
	if u.Opaque != "" || u.Host == "" || strings.EqualFold(u.Scheme, "file") {
		return "", ErrInvalidBaseURL
	}

	host := u.Hostname()
	if def, ok := defaultPorts[strings.ToLower(u.Scheme)]; ok && def == port {
		if strings.Contains(host, ":") {
			host = "[" + host + "]"
		}
		u.Host = host
	} else {
		u.Host = net.JoinHostPort(host, strconv.Itoa(int(port)))
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String(), nil
}
