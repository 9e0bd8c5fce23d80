package controllers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/unreadapp/unread/app/models"
	"github.com/unreadapp/unread/app/repository"
	metrics "github.com/unreadapp/unread/internal/pkg/metrics/counter"
	"github.com/unreadapp/unread/internal/pkg/storage"
	"github.com/unreadapp/unread/internal/pkg/usercontext"
)

type shareCreateRequest struct {
	EbookUUID string `json:"ebook_uuid"`
	ExpiresIn int64  `json:"expires_in"` // seconds, 0 = never
}

// HandleCreateShareLink creates a slug-addressed share link for an owned ebook
func HandleCreateShareLink(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req shareCreateRequest
	if err := c.BodyParser(&req); err != nil || req.EbookUUID == "" {
		return errorJSON(c, fiber.StatusBadRequest, "bad_request", "ebook_uuid is required")
	}

	ebook, err := findOwnedEbook(req.EbookUUID, userCtx.UserID)
	if err != nil {
		return errorJSON(c, fiber.StatusNotFound, "not_found", "ebook not found")
	}

	link := &models.ShareLink{
		EbookID:  ebook.ID,
		AuthorID: userCtx.UserID,
	}
	if req.ExpiresIn > 0 {
		expiry := time.Now().Add(time.Duration(req.ExpiresIn) * time.Second)
		link.ExpiresAt = &expiry
	}

	if err := repository.GetGlobalFactory().GetShareLinkRepository().Create(link); err != nil {
		log.Errorf("[Share] Failed to create share link for %s: %v", ebook.UUID, err)
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create share link")
	}

	return c.Status(fiber.StatusCreated).JSON(serializeShareLink(link, ebook))
}

// HandleListMyShareLinks returns all share links created by the user
func HandleListMyShareLinks(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	links, err := repository.GetGlobalFactory().GetShareLinkRepository().GetByAuthor(userCtx.UserID)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load share links")
	}

	out := make([]fiber.Map, len(links))
	for i := range links {
		out[i] = serializeShareLink(&links[i], &links[i].Ebook)
	}

	return c.JSON(fiber.Map{"share_links": out})
}

// HandleDeleteShareLink revokes an owned share link
func HandleDeleteShareLink(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return errorJSON(c, fiber.StatusNotFound, "not_found", "share link not found")
	}

	repo := repository.GetGlobalFactory().GetShareLinkRepository()
	links, err := repo.GetByAuthor(userCtx.UserID)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load share links")
	}

	for i := range links {
		if links[i].ID == uint(id) {
			if err := repo.Delete(links[i].ID); err != nil {
				return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to delete share link")
			}
			return c.SendStatus(fiber.StatusNoContent)
		}
	}

	return errorJSON(c, fiber.StatusNotFound, "not_found", "share link not found")
}

// HandleResolveShareLink resolves a public share slug to the shared ebook.
// Works without authentication; expired links behave like missing ones.
func HandleResolveShareLink(c *fiber.Ctx) error {
	slug := c.Params("slug")
	if slug == "" {
		return errorJSON(c, fiber.StatusNotFound, "not_found", "share link not found")
	}

	link, err := repository.GetGlobalFactory().GetShareLinkRepository().GetBySlug(slug)
	if err != nil {
		return errorJSON(c, fiber.StatusNotFound, "not_found", "share link not found")
	}
	if link.IsExpired() {
		return errorJSON(c, fiber.StatusGone, "link_expired", "this share link has expired")
	}

	if err := repository.GetGlobalFactory().GetShareLinkRepository().IncrementAccessCount(link.ID); err != nil {
		log.Errorf("[Share] Failed to count access for %s: %v", slug, err)
	}
	if err := metrics.AddEbookView(link.EbookID); err != nil {
		log.Errorf("[Share] Failed to count view for ebook %d: %v", link.EbookID, err)
	}

	response := serializeEbook(&link.Ebook)
	if link.Ebook.HasFile() {
		if url, err := storage.GetClient().PresignDownload(c.Context(), link.Ebook.FileKey, link.Ebook.OriginalFilename); err == nil {
			response["download_url"] = url
			if err := metrics.AddEbookDownload(link.EbookID); err != nil {
				log.Errorf("[Share] Failed to count download for ebook %d: %v", link.EbookID, err)
			}
		}
	}
	if link.Ebook.CoverThumbKey != "" {
		if url, err := storage.GetClient().PresignDownload(c.Context(), link.Ebook.CoverThumbKey, ""); err == nil {
			response["cover_thumb_url"] = url
		}
	}

	return c.JSON(response)
}

func serializeShareLink(link *models.ShareLink, ebook *models.Ebook) fiber.Map {
	m := fiber.Map{
		"id":           link.ID,
		"slug":         link.Slug,
		"access_count": link.AccessCount,
		"expires_at":   formatTimePtr(link.ExpiresAt),
		"created_at":   link.CreatedAt.UTC().Format(time.RFC3339),
	}
	if ebook != nil && ebook.ID != 0 {
		m["ebook"] = serializeEbook(ebook)
	}
	return m
}
