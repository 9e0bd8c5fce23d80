package models

import "time"

// CollectionItem orders ebooks inside a collection.
type CollectionItem struct {
	CollectionID uint      `gorm:"primaryKey;autoIncrement:false" json:"collection_id"`
	EbookID      uint      `gorm:"primaryKey;autoIncrement:false" json:"ebook_id"`
	Position     int       `gorm:"default:0" json:"position"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}
