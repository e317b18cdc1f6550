package middlewares

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/safatanc/travel-checkout/internal/app/errors"
	"github.com/safatanc/travel-checkout/internal/app/models"
	"github.com/safatanc/travel-checkout/internal/app/pkg"
	"github.com/safatanc/travel-checkout/internal/app/services"
)

type AuthMiddleware struct {
	connectService *services.ConnectService
	userService    *services.UserService
}

func NewAuthMiddleware(connectService *services.ConnectService, userService *services.UserService) *AuthMiddleware {
	return &AuthMiddleware{connectService: connectService, userService: userService}
}

func (m *AuthMiddleware) AuthConnect(c *fiber.Ctx) error {
	token := c.Get("Authorization")
	if token == "" {
		return pkg.ErrorResponse(c, errors.NewUnauthorizedError())
	}

	token = strings.TrimPrefix(token, "Bearer ")

	connectUser, err := m.connectService.GetCurrentUser(c.UserContext(), token)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	c.Locals("connect_user", connectUser)

	return c.Next()
}

func (m *AuthMiddleware) AuthUser(c *fiber.Ctx) error {
	connectUser, ok := c.Locals("connect_user").(*models.ConnectUser)
	if !ok || connectUser == nil {
		return pkg.ErrorResponse(c, errors.NewUnauthorizedError("User is not authenticated"))
	}

	user, err := m.userService.GetUser(c.UserContext(), connectUser.ID)
	if err != nil {
		if errors.IsKind(err, errors.KindNotFound) {
			return pkg.ErrorResponse(c, errors.NewUnauthorizedError("User "+connectUser.Username+" is not registered. Please register first."))
		}
		return pkg.ErrorResponse(c, err)
	}

	c.Locals("user", user)
	c.Locals("user_id", user.ID.String())

	return c.Next()
}
