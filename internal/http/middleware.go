// FILE: internal/http/middleware.go
package http

import (
	"strings"

	"chessboard/internal/core"

	"github.com/gofiber/fiber/v2"
)

// TokenValidator validates session tokens
type TokenValidator func(token string) (sessionID string, claims map[string]any, err error)

// SessionAuth requires a bearer token issued for the session named in the
// :id route parameter
func SessionAuth(validateToken TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractBearerToken(c.Get("Authorization"))
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(core.ErrorResponse{
				Error: "missing authorization token",
				Code:  core.ErrUnauthorized,
			})
		}

		sessionID, _, err := validateToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(core.ErrorResponse{
				Error: "invalid or expired token",
				Code:  core.ErrUnauthorized,
			})
		}

		if sessionID != c.Params("id") {
			return c.Status(fiber.StatusForbidden).JSON(core.ErrorResponse{
				Error: "token not valid for this session",
				Code:  core.ErrUnauthorized,
			})
		}

		c.Locals("sessionID", sessionID)
		return c.Next()
	}
}

// extractBearerToken extracts the token from an Authorization header
func extractBearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimPrefix(header, prefix)
}

// contentTypeValidator ensures POST and PUT requests have application/json
func contentTypeValidator(c *fiber.Ctx) error {
	method := c.Method()
	if method == fiber.MethodPost || method == fiber.MethodPut {
		contentType := c.Get("Content-Type")
		if contentType != "application/json" && contentType != "" {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(core.ErrorResponse{
				Error:   "unsupported media type",
				Code:    core.ErrInvalidContent,
				Details: "Content-Type must be application/json",
			})
		}
	}
	return c.Next()
}
