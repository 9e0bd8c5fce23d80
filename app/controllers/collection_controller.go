package controllers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/unreadapp/unread/app/models"
	"github.com/unreadapp/unread/app/repository"
	"github.com/unreadapp/unread/internal/pkg/usercontext"
)

type collectionRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	CoverURL    *string `json:"cover_url"`
	IsPublic    *bool   `json:"is_public"`
}

type collectionItemRequest struct {
	EbookUUID string `json:"ebook_uuid"`
}

type collectionReorderRequest struct {
	EbookUUIDs []string `json:"ebook_uuids"`
}

// HandleListPublicCollections returns public collections with pagination
func HandleListPublicCollections(c *fiber.Ctx) error {
	offset, limit := parsePagination(c)

	repo := repository.GetGlobalFactory().GetCollectionRepository()
	collections, err := repo.GetPublic(offset, limit)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load collections")
	}
	total, err := repo.CountPublic()
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load collections")
	}

	out := make([]fiber.Map, len(collections))
	for i := range collections {
		out[i] = serializeCollection(&collections[i])
	}

	return c.JSON(fiber.Map{
		"collections": out,
		"total":       total,
	})
}

// HandleListMyCollections returns the authenticated user's collections
func HandleListMyCollections(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	collections, err := repository.GetGlobalFactory().GetCollectionRepository().GetByAuthor(userCtx.UserID)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load collections")
	}

	out := make([]fiber.Map, len(collections))
	for i := range collections {
		out[i] = serializeCollection(&collections[i])
	}

	return c.JSON(fiber.Map{"collections": out})
}

// HandleGetCollection returns a collection including its ebooks in order
func HandleGetCollection(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	collection, err := findAccessibleCollection(c, userCtx.UserID)
	if err != nil {
		return errorJSON(c, fiber.StatusNotFound, "not_found", "collection not found")
	}

	repo := repository.GetGlobalFactory().GetCollectionRepository()
	ebooks, err := repo.GetEbooks(collection.ID)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load collection")
	}

	// Hide private ebooks of other users from shared collections
	visible := make([]models.Ebook, 0, len(ebooks))
	for _, e := range ebooks {
		if e.CanBeAccessedBy(userCtx.UserID) {
			visible = append(visible, e)
		}
	}

	response := serializeCollection(collection)
	response["ebooks"] = serializeEbooks(visible)
	return c.JSON(response)
}

// HandleCreateCollection creates a new collection for the authenticated user
func HandleCreateCollection(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req collectionRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		return errorJSON(c, fiber.StatusBadRequest, "bad_request", "name is required")
	}

	collection := &models.Collection{
		AuthorID: userCtx.UserID,
		Name:     strings.TrimSpace(*req.Name),
		IsPublic: true,
	}
	if req.Description != nil {
		collection.Description = *req.Description
	}
	if req.CoverURL != nil {
		collection.CoverURL = *req.CoverURL
	}
	if req.IsPublic != nil {
		collection.IsPublic = *req.IsPublic
	}

	if err := repository.GetGlobalFactory().GetCollectionRepository().Create(collection); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create collection")
	}

	return c.Status(fiber.StatusCreated).JSON(serializeCollection(collection))
}

// HandleUpdateCollection updates an owned collection
func HandleUpdateCollection(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	collection, err := findOwnedCollection(c, userCtx.UserID)
	if err != nil {
		return errorJSON(c, fiber.StatusNotFound, "not_found", "collection not found")
	}

	var req collectionRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return errorJSON(c, fiber.StatusBadRequest, "bad_request", "name must not be empty")
		}
		collection.Name = name
	}
	if req.Description != nil {
		collection.Description = *req.Description
	}
	if req.CoverURL != nil {
		collection.CoverURL = *req.CoverURL
	}
	if req.IsPublic != nil {
		collection.IsPublic = *req.IsPublic
	}

	if err := repository.GetGlobalFactory().GetCollectionRepository().Update(collection); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to update collection")
	}

	return c.JSON(serializeCollection(collection))
}

// HandleDeleteCollection removes an owned collection; its ebooks stay
func HandleDeleteCollection(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	collection, err := findOwnedCollection(c, userCtx.UserID)
	if err != nil {
		return errorJSON(c, fiber.StatusNotFound, "not_found", "collection not found")
	}

	if err := repository.GetGlobalFactory().GetCollectionRepository().Delete(collection.ID); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to delete collection")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// HandleAddCollectionEbook appends one of the user's accessible ebooks to an
// owned collection
func HandleAddCollectionEbook(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	collection, err := findOwnedCollection(c, userCtx.UserID)
	if err != nil {
		return errorJSON(c, fiber.StatusNotFound, "not_found", "collection not found")
	}

	var req collectionItemRequest
	if err := c.BodyParser(&req); err != nil || req.EbookUUID == "" {
		return errorJSON(c, fiber.StatusBadRequest, "bad_request", "ebook_uuid is required")
	}

	ebook, err := findAccessibleEbook(req.EbookUUID, userCtx.UserID)
	if err != nil {
		return errorJSON(c, fiber.StatusNotFound, "not_found", "ebook not found")
	}

	repo := repository.GetGlobalFactory().GetCollectionRepository()
	position, err := repo.NextPosition(collection.ID)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to update collection")
	}
	if err := repo.AddEbook(collection.ID, ebook.ID, position); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to update collection")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// HandleRemoveCollectionEbook removes an ebook from an owned collection
func HandleRemoveCollectionEbook(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	collection, err := findOwnedCollection(c, userCtx.UserID)
	if err != nil {
		return errorJSON(c, fiber.StatusNotFound, "not_found", "collection not found")
	}

	ebookRepo := repository.GetGlobalFactory().GetEbookRepository()
	ebook, err := ebookRepo.GetByUUID(c.Params("ebookUuid"))
	if err != nil {
		return errorJSON(c, fiber.StatusNotFound, "not_found", "ebook not found")
	}

	repo := repository.GetGlobalFactory().GetCollectionRepository()
	if err := repo.RemoveEbook(collection.ID, ebook.ID); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to update collection")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// HandleReorderCollection rewrites the order of an owned collection's ebooks
func HandleReorderCollection(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	collection, err := findOwnedCollection(c, userCtx.UserID)
	if err != nil {
		return errorJSON(c, fiber.StatusNotFound, "not_found", "collection not found")
	}

	var req collectionReorderRequest
	if err := c.BodyParser(&req); err != nil || len(req.EbookUUIDs) == 0 {
		return errorJSON(c, fiber.StatusBadRequest, "bad_request", "ebook_uuids is required")
	}

	ebookRepo := repository.GetGlobalFactory().GetEbookRepository()
	ids := make([]uint, 0, len(req.EbookUUIDs))
	for _, uuid := range req.EbookUUIDs {
		ebook, err := ebookRepo.GetByUUID(uuid)
		if err != nil {
			return errorJSON(c, fiber.StatusBadRequest, "bad_request", "unknown ebook in order list")
		}
		ids = append(ids, ebook.ID)
	}

	if err := repository.GetGlobalFactory().GetCollectionRepository().Reorder(collection.ID, ids); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to update collection")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func parseCollectionID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return uint(id), nil
}

func findAccessibleCollection(c *fiber.Ctx, userID uint) (*models.Collection, error) {
	id, err := parseCollectionID(c)
	if err != nil {
		return nil, err
	}
	collection, err := repository.GetGlobalFactory().GetCollectionRepository().GetByID(id)
	if err != nil {
		return nil, err
	}
	if !collection.CanBeAccessedBy(userID) {
		return nil, gorm.ErrRecordNotFound
	}
	return collection, nil
}

func findOwnedCollection(c *fiber.Ctx, userID uint) (*models.Collection, error) {
	id, err := parseCollectionID(c)
	if err != nil {
		return nil, err
	}
	collection, err := repository.GetGlobalFactory().GetCollectionRepository().GetByID(id)
	if err != nil {
		return nil, err
	}
	if collection.AuthorID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return collection, nil
}
