// middleware/gateway.go
package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// GatewayAuthMiddleware validates the Bearer token from the Gateway. Paths in open
// (health checks, metrics scrapes) skip the check.
func GatewayAuthMiddleware(expectedToken string, logger *zap.Logger, open ...string) fiber.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	skip := make(map[string]struct{}, len(open))
	for _, p := range open {
		skip[p] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		if _, ok := skip[c.Path()]; ok {
			return c.Next()
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			logger.Warn("gateway auth header missing", zap.String("path", c.Path()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "gateway authentication token missing",
			})
		}

		// "Bearer <token>", or the raw token
		token := strings.TrimPrefix(authHeader, "Bearer ")

		if expectedToken == "" || token != expectedToken {
			logger.Warn("gateway token rejected", zap.String("path", c.Path()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid gateway authentication token",
			})
		}

		logger.Debug("gateway request accepted", zap.String("path", c.Path()))
		return c.Next()
	}
}
