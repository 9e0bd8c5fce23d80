package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/unreadapp/unread/app/repository"
	"github.com/unreadapp/unread/internal/pkg/usercontext"
)

type userUpdateRequest struct {
	Username  *string `json:"username"`
	AvatarURL *string `json:"avatar_url"`
}

// HandleGetUserProfile returns the public profile of a user by username,
// including their public ebooks count
func HandleGetUserProfile(c *fiber.Ctx) error {
	username := c.Params("username")
	if username == "" {
		return errorJSON(c, fiber.StatusBadRequest, "bad_request", "username missing")
	}

	user, err := repository.GetGlobalFactory().GetUserRepository().GetByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "not_found", "user not found")
		}
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load user")
	}

	return c.JSON(serializeUser(user))
}

// HandleCheckUsername reports whether a username is still free, so the
// mobile client can validate while the user types
func HandleCheckUsername(c *fiber.Ctx) error {
	username := strings.ToLower(strings.TrimSpace(c.Params("name")))
	if username == "" {
		return errorJSON(c, fiber.StatusBadRequest, "bad_request", "username missing")
	}

	taken, err := repository.GetGlobalFactory().GetUserRepository().UsernameExists(username)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to check username")
	}

	return c.JSON(fiber.Map{
		"username":  username,
		"available": !taken,
	})
}

// HandleUpdateMe lets the authenticated user change username and avatar
func HandleUpdateMe(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(userCtx.UserID)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load user")
	}

	var req userUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	if req.Username != nil {
		username := strings.ToLower(strings.TrimSpace(*req.Username))
		if username != user.Username {
			taken, err := repo.UsernameExists(username)
			if err != nil {
				return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to update user")
			}
			if taken {
				return errorJSON(c, fiber.StatusConflict, "username_taken", "this username is already in use")
			}
			user.Username = username
		}
	}
	if req.AvatarURL != nil {
		user.AvatarURL = *req.AvatarURL
	}

	if err := user.Validate(); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "bad_request", "invalid username or avatar URL")
	}

	if err := repo.Update(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errorJSON(c, fiber.StatusConflict, "username_taken", "this username is already in use")
		}
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to update user")
	}

	return c.JSON(serializeUser(user))
}
