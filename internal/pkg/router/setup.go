package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/unreadapp/unread/internal/pkg/middleware"
	"github.com/unreadapp/unread/internal/pkg/oauth"
	"github.com/unreadapp/unread/internal/pkg/session"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

func InstallRouter(app *fiber.App) {
	// Session store and provider registry must exist before any request
	// passes through SessionAuth
	session.Setup()
	oauth.GetRegistry()

	// Resolve the session user for every request; handlers read it from
	// the request context
	app.Use(middleware.SessionAuth)

	setup(app, NewApiRouter())
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
