package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/unreadapp/unread/app/controllers"
	"github.com/unreadapp/unread/internal/pkg/constants"
	"github.com/unreadapp/unread/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group(constants.APIRoute, limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group(constants.APIv1Route)
	v1.Get("/ping", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{"status": "ok"})
	})

	// Auth
	auth := v1.Group("/auth")
	auth.Post("/login", controllers.HandleLogin)
	auth.Post("/link", middleware.RequireAuth, controllers.HandleLink)
	auth.Post("/refresh", middleware.RequireAuth, controllers.HandleRefresh)
	auth.Get("/me", middleware.RequireAuth, controllers.HandleMe)

	// Users
	users := v1.Group("/users")
	users.Get("/me", middleware.RequireAuth, controllers.HandleMe)
	users.Patch("/me", middleware.RequireAuth, controllers.HandleUpdateMe)
	users.Get("/check-username/:name", controllers.HandleCheckUsername)
	users.Get("/:username", controllers.HandleGetUserProfile)

	// Ebooks
	ebooks := v1.Group("/ebooks")
	ebooks.Get("/", controllers.HandleListPublicEbooks)
	ebooks.Get("/mine", middleware.RequireAuth, controllers.HandleListMyEbooks)
	ebooks.Get("/recent", controllers.HandleListRecentEbooks)
	ebooks.Get("/popular", controllers.HandleListPopularEbooks)
	ebooks.Post("/", middleware.RequireAuth, controllers.HandleCreateEbook)
	ebooks.Get("/:uuid", controllers.HandleGetEbook)
	ebooks.Patch("/:uuid", middleware.RequireAuth, controllers.HandleUpdateEbook)
	ebooks.Delete("/:uuid", middleware.RequireAuth, controllers.HandleDeleteEbook)
	ebooks.Post("/:uuid/cover", middleware.RequireAuth, controllers.HandleUploadCover)
	ebooks.Get("/:uuid/download", controllers.HandleGetDownloadURL)
	ebooks.Get("/:uuid/progress", middleware.RequireAuth, controllers.HandleGetProgress)
	ebooks.Put("/:uuid/progress", middleware.RequireAuth, controllers.HandleUpsertProgress)

	// Collections
	collections := v1.Group("/collections")
	collections.Get("/", controllers.HandleListPublicCollections)
	collections.Get("/mine", middleware.RequireAuth, controllers.HandleListMyCollections)
	collections.Post("/", middleware.RequireAuth, controllers.HandleCreateCollection)
	collections.Get("/:id", controllers.HandleGetCollection)
	collections.Patch("/:id", middleware.RequireAuth, controllers.HandleUpdateCollection)
	collections.Delete("/:id", middleware.RequireAuth, controllers.HandleDeleteCollection)
	collections.Post("/:id/ebooks", middleware.RequireAuth, controllers.HandleAddCollectionEbook)
	collections.Delete("/:id/ebooks/:ebookUuid", middleware.RequireAuth, controllers.HandleRemoveCollectionEbook)
	collections.Put("/:id/order", middleware.RequireAuth, controllers.HandleReorderCollection)

	// Share links
	shares := v1.Group("/shares")
	shares.Post("/", middleware.RequireAuth, controllers.HandleCreateShareLink)
	shares.Get("/mine", middleware.RequireAuth, controllers.HandleListMyShareLinks)
	shares.Delete("/:id", middleware.RequireAuth, controllers.HandleDeleteShareLink)
	shares.Get("/:slug", controllers.HandleResolveShareLink)

	// Reading history
	v1.Get("/reading/recent", middleware.RequireAuth, controllers.HandleGetRecentReading)

	// Catalog statistics
	v1.Get("/stats", controllers.HandleGetStats)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
