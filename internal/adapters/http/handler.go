package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/technophil98/traefik-docker-http-provider-server/internal/core/ports"
	"github.com/technophil98/traefik-docker-http-provider-server/internal/core/services"
)

const (
	contentTypeYAML = "text/yaml"
	formatJSON      = "json"
)

type ConfigurationHandler struct {
	provider ports.ConfigurationProvider
	log      logrus.FieldLogger
}

func NewConfigurationHandler(provider ports.ConfigurationProvider, log logrus.FieldLogger) *ConfigurationHandler {
	return &ConfigurationHandler{provider: provider, log: log}
}

// Register mounts the health and dynamic configuration routes on app.
func (h *ConfigurationHandler) Register(app fiber.Router) {
	app.Get("/", h.HealthCheck)
	app.Get("/dynamic_configuration", h.DynamicConfiguration)
}

func (h *ConfigurationHandler) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// DynamicConfiguration renders the proxy configuration as YAML, or as JSON
// when the request asks for ?format=json.
func (h *ConfigurationHandler) DynamicConfiguration(c *fiber.Ctx) error {
	doc, err := h.provider.DynamicConfiguration(c.Context())
	if err != nil {
		return h.fail(c, err)
	}

	if c.Query("format") == formatJSON {
		body, err := doc.JSON()
		if err != nil {
			return h.fail(c, err)
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(body)
	}

	body, err := doc.YAML()
	if err != nil {
		return h.fail(c, err)
	}
	c.Set(fiber.HeaderContentType, contentTypeYAML)
	return c.Send(body)
}

func (h *ConfigurationHandler) fail(c *fiber.Ctx, err error) error {
	message := "Something went wrong: " + err.Error()
	var discoveryErr *services.DiscoveryError
	if errors.As(err, &discoveryErr) {
		message = "Internal Docker error: " + discoveryErr.Err.Error()
	}

	h.log.WithError(err).WithField("request_id", requestID(c)).Error("failed to build dynamic configuration")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": message,
	})
}
