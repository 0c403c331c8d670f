package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/asiste-ing/incident-service/internal/domain"
	apperrors "github.com/asiste-ing/incident-service/pkg/util"
)

// RequireRole ensures the authenticated user has one of the allowed roles.
// An empty list only requires authentication.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		user, ok := ActorFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[user.Role]; !exists {
			return apperrors.NewPermissionDenied("role:" + string(user.Role))
		}
		return c.Next()
	}
}
