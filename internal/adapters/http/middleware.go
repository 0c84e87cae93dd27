package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const requestIDKey = "requestid"

// Use installs panic recovery, request ids and access logging on app.
func Use(app *fiber.App, log logrus.FieldLogger) {
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Header:     fiber.HeaderXRequestID,
		Generator:  uuid.NewString,
		ContextKey: requestIDKey,
	}))
	app.Use(AccessLog(log))
}

// AccessLog logs every request with method, path, status and duration.
func AccessLog(log logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}

		entry := log.WithFields(logrus.Fields{
			"method":      c.Method(),
			"path":        c.Path(),
			"status":      status,
			"duration_ms": time.Since(start).Milliseconds(),
			"remote_addr": c.IP(),
			"request_id":  requestID(c),
		})
		if ua := c.Get(fiber.HeaderUserAgent); ua != "" {
			entry = entry.WithField("user_agent", ua)
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			entry.Error("HTTP request completed")
		case status >= fiber.StatusBadRequest:
			entry.Warn("HTTP request completed")
		default:
			entry.Info("HTTP request completed")
		}
		return err
	}
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDKey).(string)
	return id
}
