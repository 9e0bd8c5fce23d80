package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/unreadapp/unread/app/models"
)

// collectionRepository implements the CollectionRepository interface
type collectionRepository struct {
	db *gorm.DB
}

// NewCollectionRepository creates a new collection repository instance
func NewCollectionRepository(db *gorm.DB) CollectionRepository {
	return &collectionRepository{db: db}
}

// Create creates a new collection in the database
func (r *collectionRepository) Create(collection *models.Collection) error {
	return r.db.Create(collection).Error
}

// GetByID retrieves a collection by its ID
func (r *collectionRepository) GetByID(id uint) (*models.Collection, error) {
	var collection models.Collection
	err := r.db.Preload("Author").First(&collection, id).Error
	if err != nil {
		return nil, err
	}
	return &collection, nil
}

// GetByAuthor retrieves all collections owned by a user
func (r *collectionRepository) GetByAuthor(authorID uint) ([]models.Collection, error) {
	var collections []models.Collection
	err := r.db.Where("author_id = ?", authorID).Order("created_at DESC").Find(&collections).Error
	return collections, err
}

// GetPublic retrieves public collections with pagination
func (r *collectionRepository) GetPublic(offset, limit int) ([]models.Collection, error) {
	var collections []models.Collection
	err := r.db.Preload("Author").Where("is_public = ?", true).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&collections).Error
	return collections, err
}

// CountPublic returns the number of public collections
func (r *collectionRepository) CountPublic() (int64, error) {
	var count int64
	err := r.db.Model(&models.Collection{}).Where("is_public = ?", true).Count(&count).Error
	return count, err
}

// Update updates an existing collection in the database
func (r *collectionRepository) Update(collection *models.Collection) error {
	return r.db.Save(collection).Error
}

// Delete soft deletes a collection and removes its item rows
func (r *collectionRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collection_id = ?", id).Delete(&models.CollectionItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Collection{}, id).Error
	})
}

// AddEbook inserts an ebook into a collection at the given position.
// Re-adding an existing ebook only updates its position.
func (r *collectionRepository) AddEbook(collectionID, ebookID uint, position int) error {
	item := models.CollectionItem{
		CollectionID: collectionID,
		EbookID:      ebookID,
		Position:     position,
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection_id"}, {Name: "ebook_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"position"}),
	}).Create(&item).Error
}

// RemoveEbook removes an ebook from a collection
func (r *collectionRepository) RemoveEbook(collectionID, ebookID uint) error {
	return r.db.Where("collection_id = ? AND ebook_id = ?", collectionID, ebookID).
		Delete(&models.CollectionItem{}).Error
}

// Reorder rewrites the positions of a collection's ebooks to match the given order
func (r *collectionRepository) Reorder(collectionID uint, ebookIDs []uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for i, ebookID := range ebookIDs {
			err := tx.Model(&models.CollectionItem{}).
				Where("collection_id = ? AND ebook_id = ?", collectionID, ebookID).
				Update("position", i).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// GetEbooks retrieves the ebooks of a collection ordered by their position
func (r *collectionRepository) GetEbooks(collectionID uint) ([]models.Ebook, error) {
	var ebooks []models.Ebook
	err := r.db.Joins("JOIN collection_items ON collection_items.ebook_id = ebooks.id").
		Where("collection_items.collection_id = ?", collectionID).
		Order("collection_items.position ASC").
		Find(&ebooks).Error
	return ebooks, err
}

// NextPosition returns the position for an ebook appended to the collection
func (r *collectionRepository) NextPosition(collectionID uint) (int, error) {
	var max *int
	err := r.db.Model(&models.CollectionItem{}).
		Where("collection_id = ?", collectionID).
		Select("MAX(position)").Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max + 1, nil
}
