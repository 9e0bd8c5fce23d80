package controllers

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/unreadapp/unread/app/models"
	"github.com/unreadapp/unread/app/repository"
	"github.com/unreadapp/unread/internal/pkg/jobqueue"
	metrics "github.com/unreadapp/unread/internal/pkg/metrics/counter"
	"github.com/unreadapp/unread/internal/pkg/storage"
	"github.com/unreadapp/unread/internal/pkg/upload"
	"github.com/unreadapp/unread/internal/pkg/usercontext"
)

type ebookUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Language    *string `json:"language"`
	IsPublic    *bool   `json:"is_public"`
}

// HandleListPublicEbooks returns the public catalog with pagination and search
func HandleListPublicEbooks(c *fiber.Ctx) error {
	offset, limit := parsePagination(c)
	search := c.Query("q", "")

	repo := repository.GetGlobalFactory().GetEbookRepository()
	ebooks, err := repo.GetPublic(offset, limit, search)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load ebooks")
	}
	total, err := repo.CountPublic(search)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load ebooks")
	}

	return c.JSON(fiber.Map{
		"ebooks": serializeEbooks(ebooks),
		"total":  total,
	})
}

// HandleListMyEbooks returns the authenticated user's library
func HandleListMyEbooks(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	offset, limit := parsePagination(c)

	repo := repository.GetGlobalFactory().GetEbookRepository()
	ebooks, err := repo.GetByAuthor(userCtx.UserID, offset, limit)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load ebooks")
	}
	total, err := repo.CountByAuthor(userCtx.UserID)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load ebooks")
	}

	return c.JSON(fiber.Map{
		"ebooks": serializeEbooks(ebooks),
		"total":  total,
	})
}

// HandleListRecentEbooks returns the newest public ebooks for the discover feed
func HandleListRecentEbooks(c *fiber.Ctx) error {
	_, limit := parsePagination(c)

	ebooks, err := repository.GetGlobalFactory().GetEbookRepository().GetRecent(limit)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load ebooks")
	}
	return c.JSON(fiber.Map{"ebooks": serializeEbooks(ebooks)})
}

// HandleListPopularEbooks returns public ebooks ranked by views and downloads
func HandleListPopularEbooks(c *fiber.Ctx) error {
	_, limit := parsePagination(c)

	ebooks, err := repository.GetGlobalFactory().GetEbookRepository().GetPopular(limit)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load ebooks")
	}
	return c.JSON(fiber.Map{"ebooks": serializeEbooks(ebooks)})
}

// HandleGetEbook returns a single ebook. Private ebooks are only visible to
// their owner; existence is not leaked to others.
func HandleGetEbook(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	ebook, err := findAccessibleEbook(c.Params("uuid"), userCtx.UserID)
	if err != nil {
		return errorJSON(c, fiber.StatusNotFound, "not_found", "ebook not found")
	}

	if ebook.AuthorID != userCtx.UserID {
		if err := metrics.AddEbookView(ebook.ID); err != nil {
			log.Errorf("[Ebook] Failed to count view for %s: %v", ebook.UUID, err)
		}
	}

	response := serializeEbook(ebook)
	if ebook.CoverThumbKey != "" {
		if url, err := storage.GetClient().PresignDownload(c.Context(), ebook.CoverThumbKey, ""); err == nil {
			response["cover_thumb_url"] = url
		}
	}
	if ebook.CoverKey != "" {
		if url, err := storage.GetClient().PresignDownload(c.Context(), ebook.CoverKey, ""); err == nil {
			response["cover_url"] = url
		}
	}

	return c.JSON(response)
}

// HandleCreateEbook creates an ebook from a multipart upload. The form
// carries the file plus optional title, description, language and is_public
// fields; the title falls back to the file name.
func HandleCreateEbook(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "bad_request", "file field is required")
	}
	if fileHeader.Size > upload.MaxEbookSize {
		return errorJSON(c, fiber.StatusRequestEntityTooLarge, "file_too_large", "the ebook exceeds the maximum allowed size")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to read upload")
	}
	defer file.Close()

	head := make([]byte, 512)
	n, _ := file.Read(head)
	mime, format, err := upload.ValidateEbookBySniff(fileHeader.Filename, head[:n])
	if err != nil {
		return errorJSON(c, fiber.StatusUnprocessableEntity, "unsupported_format", err.Error())
	}
	if _, err := file.Seek(0, 0); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to read upload")
	}

	title := strings.TrimSpace(c.FormValue("title"))
	if title == "" {
		base := filepath.Base(fileHeader.Filename)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	ebook := &models.Ebook{
		AuthorID:         userCtx.UserID,
		Title:            title,
		Description:      c.FormValue("description"),
		Language:         c.FormValue("language"),
		Format:           format,
		FileSize:         fileHeader.Size,
		OriginalFilename: filepath.Base(fileHeader.Filename),
		IsPublic:         c.FormValue("is_public") == "true",
	}

	repo := repository.GetGlobalFactory().GetEbookRepository()
	if err := repo.Create(ebook); err != nil {
		log.Errorf("[Ebook] Failed to create ebook: %v", err)
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create ebook")
	}

	fileKey := storage.EbookKey(ebook.UUID, strings.ToLower(filepath.Ext(fileHeader.Filename)), time.Now())
	if err := storage.GetClient().Upload(c.Context(), fileKey, file, fileHeader.Size, mime); err != nil {
		log.Errorf("[Ebook] Failed to upload file for %s: %v", ebook.UUID, err)
		// Remove the orphaned row, the upload never landed
		_ = repo.Delete(ebook.ID)
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to store ebook file")
	}

	ebook.FileKey = fileKey
	if err := repo.Update(ebook); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create ebook")
	}

	return c.Status(fiber.StatusCreated).JSON(serializeEbook(ebook))
}

// HandleUpdateEbook updates metadata of an owned ebook
func HandleUpdateEbook(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	ebook, err := findOwnedEbook(c.Params("uuid"), userCtx.UserID)
	if err != nil {
		return errorJSON(c, fiber.StatusNotFound, "not_found", "ebook not found")
	}

	var req ebookUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return errorJSON(c, fiber.StatusBadRequest, "bad_request", "title must not be empty")
		}
		ebook.Title = title
	}
	if req.Description != nil {
		ebook.Description = *req.Description
	}
	if req.Language != nil {
		ebook.Language = *req.Language
	}
	if req.IsPublic != nil {
		ebook.IsPublic = *req.IsPublic
	}

	if err := repository.GetGlobalFactory().GetEbookRepository().Update(ebook); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to update ebook")
	}

	return c.JSON(serializeEbook(ebook))
}

// HandleDeleteEbook removes an owned ebook. Object deletion happens
// asynchronously so the API call stays fast.
func HandleDeleteEbook(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	ebook, err := findOwnedEbook(c.Params("uuid"), userCtx.UserID)
	if err != nil {
		return errorJSON(c, fiber.StatusNotFound, "not_found", "ebook not found")
	}

	if err := repository.GetGlobalFactory().GetEbookRepository().Delete(ebook.ID); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to delete ebook")
	}

	keys := []string{ebook.FileKey, ebook.CoverKey, ebook.CoverThumbKey}
	payload := jobqueue.StorageDeleteJobPayload{EbookUUID: ebook.UUID, ObjectKeys: keys}
	if _, err := jobqueue.GetManager().GetQueue().EnqueueJob(jobqueue.JobTypeStorageDelete, payload.ToMap()); err != nil {
		log.Errorf("[Ebook] Failed to enqueue storage delete for %s: %v", ebook.UUID, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// HandleUploadCover attaches or replaces the cover image of an owned ebook
// and enqueues thumbnail generation
func HandleUploadCover(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	ebook, err := findOwnedEbook(c.Params("uuid"), userCtx.UserID)
	if err != nil {
		return errorJSON(c, fiber.StatusNotFound, "not_found", "ebook not found")
	}

	fileHeader, err := c.FormFile("cover")
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "bad_request", "cover field is required")
	}
	if fileHeader.Size > upload.MaxCoverSize {
		return errorJSON(c, fiber.StatusRequestEntityTooLarge, "file_too_large", "the cover image exceeds the maximum allowed size")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to read upload")
	}
	defer file.Close()

	head := make([]byte, 512)
	n, _ := file.Read(head)
	mime, err := upload.ValidateCoverBySniff(fileHeader.Filename, head[:n])
	if err != nil {
		return errorJSON(c, fiber.StatusUnprocessableEntity, "unsupported_format", err.Error())
	}
	if _, err := file.Seek(0, 0); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to read upload")
	}

	coverKey := storage.CoverKey(ebook.UUID, strings.ToLower(filepath.Ext(fileHeader.Filename)))
	if err := storage.GetClient().Upload(c.Context(), coverKey, file, fileHeader.Size, mime); err != nil {
		log.Errorf("[Ebook] Failed to upload cover for %s: %v", ebook.UUID, err)
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to store cover image")
	}

	ebook.CoverKey = coverKey
	ebook.CoverThumbKey = ""
	if err := repository.GetGlobalFactory().GetEbookRepository().Update(ebook); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to update ebook")
	}

	payload := jobqueue.CoverThumbnailJobPayload{EbookID: ebook.ID, EbookUUID: ebook.UUID, CoverKey: coverKey}
	if _, err := jobqueue.GetManager().GetQueue().EnqueueJob(jobqueue.JobTypeCoverThumbnail, payload.ToMap()); err != nil {
		log.Errorf("[Ebook] Failed to enqueue thumbnail job for %s: %v", ebook.UUID, err)
	}

	return c.JSON(serializeEbook(ebook))
}

// HandleGetDownloadURL returns a presigned, time-limited download URL for
// the ebook file
func HandleGetDownloadURL(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	ebook, err := findAccessibleEbook(c.Params("uuid"), userCtx.UserID)
	if err != nil {
		return errorJSON(c, fiber.StatusNotFound, "not_found", "ebook not found")
	}
	if !ebook.HasFile() {
		return errorJSON(c, fiber.StatusNotFound, "not_found", "ebook has no file attached")
	}

	url, err := storage.GetClient().PresignDownload(c.Context(), ebook.FileKey, ebook.OriginalFilename)
	if err != nil {
		log.Errorf("[Ebook] Failed to presign download for %s: %v", ebook.UUID, err)
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create download URL")
	}

	if err := metrics.AddEbookDownload(ebook.ID); err != nil {
		log.Errorf("[Ebook] Failed to count download for %s: %v", ebook.UUID, err)
	}

	return c.JSON(fiber.Map{"url": url})
}

// findAccessibleEbook loads an ebook visible to the given user (owner or public)
func findAccessibleEbook(uuid string, userID uint) (*models.Ebook, error) {
	if uuid == "" {
		return nil, gorm.ErrRecordNotFound
	}
	ebook, err := repository.GetGlobalFactory().GetEbookRepository().GetByUUID(uuid)
	if err != nil {
		return nil, err
	}
	if !ebook.CanBeAccessedBy(userID) {
		return nil, gorm.ErrRecordNotFound
	}
	return ebook, nil
}

// findOwnedEbook loads an ebook only if the given user owns it
func findOwnedEbook(uuid string, userID uint) (*models.Ebook, error) {
	if uuid == "" {
		return nil, gorm.ErrRecordNotFound
	}
	ebook, err := repository.GetGlobalFactory().GetEbookRepository().GetByUUID(uuid)
	if err != nil {
		return nil, err
	}
	if ebook.AuthorID != userID {
		return nil, errors.New("not the owner")
	}
	return ebook, nil
}
