package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/technophil98/traefik-docker-http-provider-server/internal/core/domain"
	"github.com/technophil98/traefik-docker-http-provider-server/internal/core/dynconf"
	"github.com/technophil98/traefik-docker-http-provider-server/internal/core/ports"
)

// DiscoveryError reports that the container engine could not be queried.
type DiscoveryError struct {
	Err error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("container discovery failed: %v", e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// Options tunes how the provider reacts to the engine and to bad containers.
type Options struct {
	// DiscoveryTimeout bounds a single engine query. Zero means no bound
	// beyond the caller's context.
	DiscoveryTimeout time.Duration
	// SkipInvalidContainers logs and skips routed containers that cannot be
	// turned into configuration, instead of failing the whole request.
	SkipInvalidContainers bool
}

// ProviderService derives the proxy's dynamic configuration from the
// containers running on the engine. Every call queries the engine afresh.
type ProviderService struct {
	containers ports.ContainerService
	baseURL    *url.URL
	extractor  *domain.LabelExtractor
	opts       Options
	log        logrus.FieldLogger
}

// NewProviderService creates a provider resolving backends against baseURL.
func NewProviderService(
	containers ports.ContainerService,
	baseURL *url.URL,
	extractor *domain.LabelExtractor,
	opts Options,
	log logrus.FieldLogger,
) *ProviderService {
	return &ProviderService{
		containers: containers,
		baseURL:    baseURL,
		extractor:  extractor,
		opts:       opts,
		log:        log,
	}
}

// DynamicConfiguration lists the running containers and builds the document
// from those carrying routing labels. Containers without routing labels are
// left out.
func (s *ProviderService) DynamicConfiguration(ctx context.Context) (*dynconf.Document, error) {
	raws, err := s.listContainers(ctx)
	if err != nil {
		return nil, &DiscoveryError{Err: err}
	}

	builder := dynconf.NewBuilder(s.baseURL)
	for _, raw := range raws {
		entry := s.log.WithField("container_id", raw.ID)

		routing := s.extractor.Extract(raw.Labels)
		if routing == nil {
			entry.Debug("container has no routing configuration, skipping")
			continue
		}

		container, err := domain.NewRoutedContainer(raw, routing)
		if err == nil {
			_, err = builder.AddContainer(container)
		}
		if err != nil {
			if s.opts.SkipInvalidContainers && !errors.Is(err, dynconf.ErrInvalidBaseURL) {
				entry.WithError(err).Warn("skipping container with unusable routing configuration")
				continue
			}
			return nil, err
		}
		entry.WithField("container", container.Name).Debug("container added to dynamic configuration")
	}

	doc := builder.Build()
	s.log.WithFields(logrus.Fields{
		"containers": len(raws),
		"routers":    len(doc.HTTP.Routers),
		"services":   len(doc.HTTP.Services),
	}).Debug("dynamic configuration built")
	return doc, nil
}

func (s *ProviderService) listContainers(ctx context.Context) ([]domain.RawContainer, error) {
	if s.opts.DiscoveryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.DiscoveryTimeout)
		defer cancel()
	}
	return s.containers.ListContainers(ctx)
}
