package observability

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/auth-service/internal/auth"
)

// RequestLogger logs one line per request and feeds request metrics.
// It must be registered before the authentication gate so the identity the
// gate attaches is visible once the chain returns.
func RequestLogger(logger *zap.Logger, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		elapsed := time.Since(start)

		status := c.Response().StatusCode()
		metrics.RecordRequest(c.Route().Path, c.Method(), status, elapsed)

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", elapsed),
			zap.String("ip", c.IP()),
		}
		if identity, ok := auth.IdentityFromContext(c); ok {
			fields = append(fields, zap.String("subject", identity.Subject), zap.String("role", string(identity.Role)))
		} else {
			fields = append(fields, zap.Bool("anonymous", true))
		}
		logger.Info("request", fields...)
		return err
	}
}
