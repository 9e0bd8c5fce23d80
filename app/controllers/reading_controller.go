package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/unreadapp/unread/app/models"
	"github.com/unreadapp/unread/app/repository"
	"github.com/unreadapp/unread/internal/pkg/usercontext"
)

type progressRequest struct {
	Position   string  `json:"position"`
	Percentage float64 `json:"percentage"`
}

// HandleUpsertProgress stores the reading position for an ebook. Every user
// has at most one progress row per ebook.
func HandleUpsertProgress(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	ebook, err := findAccessibleEbook(c.Params("uuid"), userCtx.UserID)
	if err != nil {
		return errorJSON(c, fiber.StatusNotFound, "not_found", "ebook not found")
	}

	var req progressRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	if req.Percentage < 0 || req.Percentage > 100 {
		return errorJSON(c, fiber.StatusBadRequest, "bad_request", "percentage must be between 0 and 100")
	}

	progress := &models.ReadingProgress{
		UserID:     userCtx.UserID,
		EbookID:    ebook.ID,
		Position:   req.Position,
		Percentage: req.Percentage,
		LastReadAt: time.Now(),
	}

	if err := repository.GetGlobalFactory().GetReadingRepository().Upsert(progress); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to store progress")
	}

	return c.JSON(serializeProgress(progress, nil))
}

// HandleGetProgress returns the user's reading position for one ebook
func HandleGetProgress(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	ebook, err := findAccessibleEbook(c.Params("uuid"), userCtx.UserID)
	if err != nil {
		return errorJSON(c, fiber.StatusNotFound, "not_found", "ebook not found")
	}

	progress, err := repository.GetGlobalFactory().GetReadingRepository().GetByUserAndEbook(userCtx.UserID, ebook.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "not_found", "no reading progress yet")
		}
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load progress")
	}

	return c.JSON(serializeProgress(progress, nil))
}

// HandleGetRecentReading returns the user's recently read ebooks, most
// recent first
func HandleGetRecentReading(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	_, limit := parsePagination(c)
	entries, err := repository.GetGlobalFactory().GetReadingRepository().GetRecentByUser(userCtx.UserID, limit)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load reading history")
	}

	out := make([]fiber.Map, len(entries))
	for i := range entries {
		out[i] = serializeProgress(&entries[i], &entries[i].Ebook)
	}

	return c.JSON(fiber.Map{"reading": out})
}

func serializeProgress(progress *models.ReadingProgress, ebook *models.Ebook) fiber.Map {
	m := fiber.Map{
		"position":     progress.Position,
		"percentage":   progress.Percentage,
		"last_read_at": progress.LastReadAt.UTC().Format(time.RFC3339),
	}
	if ebook != nil && ebook.ID != 0 {
		m["ebook"] = serializeEbook(ebook)
	}
	return m
}
