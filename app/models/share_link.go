package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/unreadapp/unread/internal/pkg/shortener"
)

const shareSlugLength = 10

// ShareLink grants read access to one ebook through a random slug,
// regardless of the ebook's visibility, until the link expires or is
// deleted.
type ShareLink struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Slug        string         `gorm:"type:varchar(32) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex;not null" json:"slug"`
	EbookID     uint           `gorm:"index" json:"ebook_id"`
	Ebook       Ebook          `gorm:"foreignKey:EbookID" json:"ebook,omitempty"`
	AuthorID    uint           `gorm:"index" json:"author_id"`
	ExpiresAt   *time.Time     `gorm:"type:timestamp;default:null" json:"expires_at,omitempty"`
	AccessCount int            `gorm:"default:0" json:"access_count"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate generates a random slug when none is set.
func (s *ShareLink) BeforeCreate(tx *gorm.DB) error {
	if s.Slug == "" {
		slug, err := shortener.GenerateSecureSlug(shareSlugLength)
		if err != nil {
			return err
		}
		s.Slug = slug
	}
	return nil
}

// IsExpired reports whether the link has passed its expiry.
func (s *ShareLink) IsExpired() bool {
	return s.ExpiresAt != nil && time.Now().After(*s.ExpiresAt)
}
