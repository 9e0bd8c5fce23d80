package models

import (
	"time"

	"gorm.io/gorm"
)

type Collection struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	AuthorID    uint           `gorm:"index" json:"author_id"`
	Author      User           `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name" validate:"required,min=1,max=255"`
	Description string         `gorm:"type:text" json:"description"`
	CoverURL    string         `gorm:"type:varchar(500)" json:"cover_url"`
	IsPublic    bool           `gorm:"default:true;index" json:"is_public"`
	Ebooks      []Ebook        `gorm:"many2many:collection_items;" json:"ebooks,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// CanBeAccessedBy reports whether the given user may view this collection.
func (c *Collection) CanBeAccessedBy(userID uint) bool {
	if c.IsPublic {
		return true
	}
	return userID != 0 && c.AuthorID == userID
}
