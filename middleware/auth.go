package middleware

import (
	"strings"

	"clinic_backoffice/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

func extractToken(c *fiber.Ctx) (string, error) {
	auth := c.Get("Authorization")
	if auth == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "No token provided")
	}

	parts := strings.Split(auth, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Invalid token format")
	}

	return parts[1], nil
}

// RequireAuth parses the bearer token issued by the external auth service
// and exposes the principal to handlers via Locals. Token issuance is not
// this service's job.
func RequireAuth(c *fiber.Ctx) error {
	token, err := extractToken(c)
	if err != nil {
		return err
	}

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(config.AppConfig.JWTSecret), nil
	})

	if err != nil {
		return c.Status(401).JSON(fiber.Map{
			"error": "Invalid or expired token",
		})
	}

	c.Locals("user_id", claims["user_id"])
	c.Locals("role", claims["role"])

	return c.Next()
}

// RequireValidator restricts a route to the human reviewer role. It runs
// after RequireAuth in the chain.
func RequireValidator(c *fiber.Ctx) error {
	role, _ := c.Locals("role").(string)
	if role != "validator" && role != "admin" {
		return c.Status(403).JSON(fiber.Map{
			"error": "Validator access required",
		})
	}

	return c.Next()
}
