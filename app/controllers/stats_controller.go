package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/unreadapp/unread/internal/pkg/statistics"
)

// HandleGetStats returns catalog-wide counters for the discover screen
func HandleGetStats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"ebooks_total":  statistics.GetTotalEbooks(),
		"ebooks_public": statistics.GetPublicEbooks(),
		"ebooks_today":  statistics.GetTodayEbooks(),
		"users_total":   statistics.GetTotalUsers(),
	})
}
