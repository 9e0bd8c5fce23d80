package middleware

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/unreadapp/unread/app/models"
	"github.com/unreadapp/unread/app/repository"
	"github.com/unreadapp/unread/internal/pkg/session"
	"github.com/unreadapp/unread/internal/pkg/usercontext"
)

// SessionAuth resolves the bearer session token into a user context for
// every request. Requests without a token (or with a bad one) continue
// anonymously; routes that need a login use RequireAuth on top.
func SessionAuth(c *fiber.Ctx) error {
	token := extractBearerToken(c)
	if token == "" {
		return c.Next()
	}

	userID, err := session.GetStore().Verify(token)
	if err != nil {
		return c.Next()
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("session auth: load user %d: %v", userID, err)
		}
		return c.Next()
	}
	if !user.IsActive() {
		return c.Next()
	}

	usercontext.Set(c, usercontext.UserContext{
		UserID:     user.ID,
		Username:   user.Username,
		IsLoggedIn: true,
		IsAdmin:    user.Role == models.ROLE_ADMIN,
	})
	return c.Next()
}

// RequireAuth rejects anonymous requests with a JSON 401.
func RequireAuth(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "Missing or invalid session token",
		})
	}
	return c.Next()
}

// RequireAdmin rejects non-admin requests with a JSON 403.
func RequireAdmin(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "Missing or invalid session token",
		})
	}
	if !usercontext.IsAdmin(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "forbidden",
			"message": "Admin privileges required",
		})
	}
	return c.Next()
}

func extractBearerToken(c *fiber.Ctx) string {
	auth := strings.TrimSpace(c.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
