package repository

import (
	"gorm.io/gorm"

	"github.com/unreadapp/unread/app/models"
)

// shareLinkRepository implements the ShareLinkRepository interface
type shareLinkRepository struct {
	db *gorm.DB
}

// NewShareLinkRepository creates a new share-link repository instance
func NewShareLinkRepository(db *gorm.DB) ShareLinkRepository {
	return &shareLinkRepository{db: db}
}

// Create creates a new share link in the database
func (r *shareLinkRepository) Create(link *models.ShareLink) error {
	return r.db.Create(link).Error
}

// GetBySlug retrieves a share link by its slug, with the ebook preloaded
func (r *shareLinkRepository) GetBySlug(slug string) (*models.ShareLink, error) {
	var link models.ShareLink
	err := r.db.Preload("Ebook").Where("slug = ?", slug).First(&link).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// GetByAuthor retrieves all share links created by a user
func (r *shareLinkRepository) GetByAuthor(authorID uint) ([]models.ShareLink, error) {
	var links []models.ShareLink
	err := r.db.Preload("Ebook").Where("author_id = ?", authorID).
		Order("created_at DESC").Find(&links).Error
	return links, err
}

// Delete removes a share link by its ID
func (r *shareLinkRepository) Delete(id uint) error {
	return r.db.Delete(&models.ShareLink{}, id).Error
}

// IncrementAccessCount atomically bumps the access counter of a share link
func (r *shareLinkRepository) IncrementAccessCount(id uint) error {
	return r.db.Model(&models.ShareLink{}).Where("id = ?", id).
		UpdateColumn("access_count", gorm.Expr("access_count + 1")).Error
}
