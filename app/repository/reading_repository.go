package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/unreadapp/unread/app/models"
)

// readingRepository implements the ReadingRepository interface
type readingRepository struct {
	db *gorm.DB
}

// NewReadingRepository creates a new reading-progress repository instance
func NewReadingRepository(db *gorm.DB) ReadingRepository {
	return &readingRepository{db: db}
}

// Upsert creates a progress row or updates the existing one for the same
// user and ebook pair
func (r *readingRepository) Upsert(progress *models.ReadingProgress) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "ebook_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"position", "percentage", "last_read_at"}),
	}).Create(progress).Error
}

// GetByUserAndEbook retrieves a user's progress for a single ebook
func (r *readingRepository) GetByUserAndEbook(userID, ebookID uint) (*models.ReadingProgress, error) {
	var progress models.ReadingProgress
	err := r.db.Where("user_id = ? AND ebook_id = ?", userID, ebookID).First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// GetRecentByUser retrieves a user's most recently read ebooks
func (r *readingRepository) GetRecentByUser(userID uint, limit int) ([]models.ReadingProgress, error) {
	var entries []models.ReadingProgress
	err := r.db.Preload("Ebook").Where("user_id = ?", userID).
		Order("last_read_at DESC").Limit(limit).Find(&entries).Error
	return entries, err
}
