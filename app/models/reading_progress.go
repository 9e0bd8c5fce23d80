package models

import "time"

// ReadingProgress tracks how far a user has read an ebook. One row per
// (user, ebook).
type ReadingProgress struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"index:user_ebook,unique" json:"user_id"`
	EbookID    uint      `gorm:"index:user_ebook,unique" json:"ebook_id"`
	Ebook      Ebook     `gorm:"foreignKey:EbookID" json:"ebook,omitempty"`
	Position   string    `gorm:"type:varchar(255)" json:"position"` // format-specific locator (CFI, page)
	Percentage float64   `gorm:"type:decimal(5,2);default:0" json:"percentage" validate:"gte=0,lte=100"`
	LastReadAt time.Time `gorm:"autoUpdateTime" json:"last_read_at"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}
