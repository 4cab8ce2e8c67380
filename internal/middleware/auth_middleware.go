package middleware

import (
	"strings"

	"go-ecom-api/internal/policy"
	"go-ecom-api/internal/repository"
	"go-ecom-api/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

const principalKey = "principal"

// RequireAuth is middleware that validates the bearer token and stores the
// principal in context. Websocket clients may pass the token as ?token=.
func RequireAuth(userRepo repository.UserRepository, tokens *jwt.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := c.Query("token")

		// Extract token from "Bearer <token>"
		if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>"})
			}
			tokenString = parts[1]
		}
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing authorization token"})
		}

		// Validate token
		claims, err := tokens.ValidateToken(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		// The role may have changed since the token was issued
		user, err := userRepo.FindByID(c.UserContext(), claims.UserID)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
		}
		if !user.IsActive {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User account is inactive"})
		}

		c.Locals(principalKey, policy.Principal{UserID: user.ID, Email: user.Email, Role: user.Role})
		c.Locals("user_id", user.ID.String())
		c.Locals("user_email", user.Email)

		return c.Next()
	}
}

// Principal returns the authenticated principal set by RequireAuth.
func Principal(c *fiber.Ctx) (policy.Principal, bool) {
	p, ok := c.Locals(principalKey).(policy.Principal)
	return p, ok
}

// RequirePrivilege checks if the authenticated user's role grants action
func RequirePrivilege(action policy.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := Principal(c)
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "No privileges found"})
		}
		if _, allowed := policy.Allowed(p, action); !allowed {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden: requires '" + string(action) + "' privilege",
			})
		}
		return c.Next()
	}
}

// RequireAnyPrivilege checks if the user's role grants at least one of actions
func RequireAnyPrivilege(actions ...policy.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := Principal(c)
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "No privileges found"})
		}
		names := make([]string, 0, len(actions))
		for _, action := range actions {
			if _, allowed := policy.Allowed(p, action); allowed {
				return c.Next()
			}
			names = append(names, string(action))
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Forbidden: requires one of " + strings.Join(names, ", ") + " privileges",
		})
	}
}
