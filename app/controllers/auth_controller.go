package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/unreadapp/unread/app/repository"
	"github.com/unreadapp/unread/internal/pkg/oauth"
	"github.com/unreadapp/unread/internal/pkg/session"
	"github.com/unreadapp/unread/internal/pkg/usercontext"
)

type loginRequest struct {
	Provider string `json:"provider"`
	Token    string `json:"token"`
}

// HandleLogin exchanges a provider ID token for an application session.
// Unknown identities create a new account, known ones log in.
func HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	if req.Provider == "" || req.Token == "" {
		return errorJSON(c, fiber.StatusBadRequest, "bad_request", "provider and token are required")
	}

	ident, err := oauth.GetRegistry().Verify(c.Context(), req.Provider, req.Token)
	if err != nil {
		return mapAuthError(c, err)
	}

	resolver := oauth.NewResolver(repository.GetGlobalFactory().GetUserRepository())
	user, err := resolver.Resolve(ident, 0)
	if err != nil {
		return mapAuthError(c, err)
	}

	if !user.IsActive() {
		return errorJSON(c, fiber.StatusForbidden, "account_disabled", "This account has been disabled")
	}

	token, err := session.GetStore().Issue(user.ID)
	if err != nil {
		log.Errorf("[Auth] Failed to issue session for user %d: %v", user.ID, err)
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create session")
	}

	return c.JSON(fiber.Map{
		"session_token": token,
		"expires_in":    int64(session.GetStore().TTL().Seconds()),
		"user":          serializeUser(user),
	})
}

// HandleLink attaches an additional provider identity to the logged-in account
func HandleLink(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	if req.Provider == "" || req.Token == "" {
		return errorJSON(c, fiber.StatusBadRequest, "bad_request", "provider and token are required")
	}

	ident, err := oauth.GetRegistry().Verify(c.Context(), req.Provider, req.Token)
	if err != nil {
		return mapAuthError(c, err)
	}

	resolver := oauth.NewResolver(repository.GetGlobalFactory().GetUserRepository())
	user, err := resolver.Resolve(ident, userCtx.UserID)
	if err != nil {
		return mapAuthError(c, err)
	}
	if user.ID != userCtx.UserID {
		// Identity resolved to a different account
		return errorJSON(c, fiber.StatusConflict, "identity_conflict", "This identity belongs to another account")
	}

	// Reload to include the freshly attached identity
	user, err = repository.GetGlobalFactory().GetUserRepository().GetByID(userCtx.UserID)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load user")
	}

	return c.JSON(fiber.Map{
		"user":      serializeUser(user),
		"providers": user.ProviderList(),
	})
}

// HandleRefresh issues a fresh session token for the authenticated user
func HandleRefresh(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	token, err := session.GetStore().Issue(userCtx.UserID)
	if err != nil {
		log.Errorf("[Auth] Failed to refresh session for user %d: %v", userCtx.UserID, err)
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create session")
	}

	return c.JSON(fiber.Map{
		"session_token": token,
		"expires_in":    int64(session.GetStore().TTL().Seconds()),
	})
}

// HandleMe returns the authenticated user's account including linked providers
func HandleMe(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(userCtx.UserID)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load user")
	}

	response := serializeUser(user)
	response["role"] = user.Role
	response["status"] = user.Status
	response["last_login_at"] = formatTimePtr(user.LastLoginAt)
	response["providers"] = user.ProviderList()

	return c.JSON(response)
}

// mapAuthError translates auth sentinel errors into API responses
func mapAuthError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, oauth.ErrUnknownProvider):
		return errorJSON(c, fiber.StatusBadRequest, "unknown_provider", "The requested provider is not supported")
	case errors.Is(err, oauth.ErrInvalidToken):
		return errorJSON(c, fiber.StatusUnauthorized, "invalid_token", "The provider token could not be verified")
	case errors.Is(err, oauth.ErrProviderUnavailable):
		return errorJSON(c, fiber.StatusServiceUnavailable, "provider_unavailable", "The identity provider is currently unreachable")
	case errors.Is(err, oauth.ErrIdentityAlreadyLinked):
		return errorJSON(c, fiber.StatusConflict, "identity_conflict", "This identity is already linked to another account")
	default:
		log.Errorf("[Auth] Unexpected error: %v", err)
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Authentication failed")
	}
}
