// Package middleware provides authentication and authorization middleware for the application.
package middleware

import (
	"context"
	"strings"

	"socialflow/internal/config"
	"socialflow/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Token claims shared by the issuing auth handler and the validator here.
const (
	TokenIssuer   = "socialflow-api"
	TokenAudience = "socialflow-client"
)

var cfg *config.Config

// InitMiddleware hands the loaded config to this package. Token validation
// and rate limiting read it; call once at startup before serving.
func InitMiddleware(c *config.Config) {
	cfg = c
}

// AuthRequired enforces a Bearer JWT on protected routes.
func AuthRequired(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authorization required"))
	}

	// Extract token from "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid authorization header format"))
	}

	return ValidateToken(c, parts[1])
}

// ReviewerRequired allows only Admin and Superadmin principals through. It
// must run after AuthRequired.
func ReviewerRequired(c *fiber.Ctx) error {
	role, ok := c.Locals("userRole").(models.UserRole)
	if !ok || !role.CanReview() {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewUnauthorizedError("Reviewer access required"))
	}
	return c.Next()
}

// ValidateToken parses and validates a signed token, stores the principal,
// and passes the request on.
func ValidateToken(c *fiber.Ctx, tokenString string) error {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid or expired token"))
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid token claims"))
	}

	// Validate issuer and audience
	if issuer, issuerOk := claims["iss"].(string); !issuerOk || issuer != TokenIssuer {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid token issuer"))
	}
	if audience, audienceOk := claims["aud"].(string); !audienceOk || audience != TokenAudience {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid token audience"))
	}

	// Extract user ID from "sub" claim (subject claim per RFC 7519)
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid subject claim"))
	}

	role := models.RoleUser
	if r, roleOk := claims["role"].(string); roleOk && models.UserRole(r).Valid() {
		role = models.UserRole(r)
	}
	email, _ := claims["email"].(string)

	StorePrincipal(c, sub, role, email)
	return c.Next()
}

// StorePrincipal stashes the authenticated identity in Fiber locals and the
// request context used by the logger.
func StorePrincipal(c *fiber.Ctx, userID string, role models.UserRole, email string) {
	if !role.Valid() {
		role = models.RoleUser
	}
	c.Locals("userID", userID)
	c.Locals("userRole", role)
	c.Locals("userEmail", email)
	ctx := context.WithValue(c.UserContext(), UserIDKey, userID)
	c.SetUserContext(ctx)
}
