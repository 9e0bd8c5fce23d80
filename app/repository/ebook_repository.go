package repository

import (
	"strings"

	"gorm.io/gorm"

	"github.com/unreadapp/unread/app/models"
)

// ebookRepository implements the EbookRepository interface
type ebookRepository struct {
	db *gorm.DB
}

// NewEbookRepository creates a new ebook repository instance
func NewEbookRepository(db *gorm.DB) EbookRepository {
	return &ebookRepository{db: db}
}

// Create creates a new ebook in the database
func (r *ebookRepository) Create(ebook *models.Ebook) error {
	return r.db.Create(ebook).Error
}

// GetByID retrieves an ebook by its ID
func (r *ebookRepository) GetByID(id uint) (*models.Ebook, error) {
	var ebook models.Ebook
	err := r.db.First(&ebook, id).Error
	if err != nil {
		return nil, err
	}
	return &ebook, nil
}

// GetByUUID retrieves an ebook by its UUID, with the author preloaded
func (r *ebookRepository) GetByUUID(uuid string) (*models.Ebook, error) {
	var ebook models.Ebook
	err := r.db.Preload("Author").Where("uuid = ?", uuid).First(&ebook).Error
	if err != nil {
		return nil, err
	}
	return &ebook, nil
}

// GetByAuthor retrieves a paginated list of an author's ebooks
func (r *ebookRepository) GetByAuthor(authorID uint, offset, limit int) ([]models.Ebook, error) {
	var ebooks []models.Ebook
	err := r.db.Where("author_id = ?", authorID).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&ebooks).Error
	return ebooks, err
}

// CountByAuthor returns the number of ebooks owned by the author
func (r *ebookRepository) CountByAuthor(authorID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Ebook{}).Where("author_id = ?", authorID).Count(&count).Error
	return count, err
}

// GetPublic retrieves public ebooks with pagination and optional title search
func (r *ebookRepository) GetPublic(offset, limit int, search string) ([]models.Ebook, error) {
	var ebooks []models.Ebook
	query := r.db.Preload("Author").Where("is_public = ?", true).
		Order("created_at DESC").Offset(offset).Limit(limit)
	if search != "" {
		pattern := "%" + strings.TrimSpace(search) + "%"
		query = query.Where("title LIKE ? OR description LIKE ?", pattern, pattern)
	}
	err := query.Find(&ebooks).Error
	return ebooks, err
}

// CountPublic returns the number of public ebooks matching the search
func (r *ebookRepository) CountPublic(search string) (int64, error) {
	var count int64
	query := r.db.Model(&models.Ebook{}).Where("is_public = ?", true)
	if search != "" {
		pattern := "%" + strings.TrimSpace(search) + "%"
		query = query.Where("title LIKE ? OR description LIKE ?", pattern, pattern)
	}
	err := query.Count(&count).Error
	return count, err
}

// GetRecent retrieves the most recently published public ebooks
func (r *ebookRepository) GetRecent(limit int) ([]models.Ebook, error) {
	var ebooks []models.Ebook
	err := r.db.Preload("Author").Where("is_public = ?", true).
		Order("created_at DESC").Limit(limit).Find(&ebooks).Error
	return ebooks, err
}

// GetPopular retrieves public ebooks ordered by view count
func (r *ebookRepository) GetPopular(limit int) ([]models.Ebook, error) {
	var ebooks []models.Ebook
	err := r.db.Preload("Author").Where("is_public = ?", true).
		Order("view_count DESC, download_count DESC").Limit(limit).Find(&ebooks).Error
	return ebooks, err
}

// Update updates an existing ebook in the database
func (r *ebookRepository) Update(ebook *models.Ebook) error {
	return r.db.Save(ebook).Error
}

// Delete soft deletes an ebook by its ID
func (r *ebookRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ebook_id = ?", id).Delete(&models.CollectionItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("ebook_id = ?", id).Delete(&models.ShareLink{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Ebook{}, id).Error
	})
}

// Count returns the total number of ebooks
func (r *ebookRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Ebook{}).Count(&count).Error
	return count, err
}
