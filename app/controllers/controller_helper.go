package controllers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/unreadapp/unread/app/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// parsePagination reads page/per_page query params and returns offset/limit
func parsePagination(c *fiber.Ctx) (offset, limit int) {
	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err = strconv.Atoi(c.Query("per_page", strconv.Itoa(defaultPageSize)))
	if err != nil || limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return (page - 1) * limit, limit
}

func errorJSON(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": code, "message": message})
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// serializeUser builds the public user representation
func serializeUser(user *models.User) fiber.Map {
	return fiber.Map{
		"id":         user.ID,
		"username":   user.Username,
		"avatar_url": user.AvatarURL,
		"created_at": user.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// serializeEbook builds the ebook representation for list and detail views
func serializeEbook(ebook *models.Ebook) fiber.Map {
	m := fiber.Map{
		"uuid":           ebook.UUID,
		"title":          ebook.Title,
		"description":    ebook.Description,
		"language":       ebook.Language,
		"format":         ebook.Format,
		"file_size":      ebook.FileSize,
		"is_public":      ebook.IsPublic,
		"view_count":     ebook.ViewCount,
		"download_count": ebook.DownloadCount,
		"has_file":       ebook.HasFile(),
		"has_cover":      ebook.CoverKey != "",
		"author_id":      ebook.AuthorID,
		"created_at":     ebook.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at":     ebook.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if ebook.Author.ID != 0 {
		m["author"] = serializeUser(&ebook.Author)
	}
	return m
}

func serializeEbooks(ebooks []models.Ebook) []fiber.Map {
	out := make([]fiber.Map, len(ebooks))
	for i := range ebooks {
		out[i] = serializeEbook(&ebooks[i])
	}
	return out
}

// serializeCollection builds the collection representation
func serializeCollection(collection *models.Collection) fiber.Map {
	m := fiber.Map{
		"id":          collection.ID,
		"name":        collection.Name,
		"description": collection.Description,
		"cover_url":   collection.CoverURL,
		"is_public":   collection.IsPublic,
		"author_id":   collection.AuthorID,
		"created_at":  collection.CreatedAt.UTC().Format(time.RFC3339),
	}
	if collection.Author.ID != 0 {
		m["author"] = serializeUser(&collection.Author)
	}
	return m
}
