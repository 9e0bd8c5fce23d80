package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	FORMAT_EPUB = "epub"
	FORMAT_MOBI = "mobi"
	FORMAT_PDF  = "pdf"
)

type Ebook struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	UUID     string `gorm:"type:char(36) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex;not null" json:"uuid"`
	AuthorID uint   `gorm:"index" json:"author_id"`
	Author   User   `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	Title       string `gorm:"type:varchar(255);not null" json:"title" validate:"required,min=1,max=255"`
	Description string `gorm:"type:text" json:"description"`
	Language    string `gorm:"type:varchar(10);default:'en'" json:"language"`

	// File information, set once the ebook file has been uploaded
	Format           string `gorm:"type:varchar(10)" json:"format" validate:"omitempty,oneof=epub mobi pdf"`
	FileKey          string `gorm:"type:varchar(500)" json:"-"`
	FileSize         int64  `gorm:"type:bigint" json:"file_size"`
	OriginalFilename string `gorm:"type:varchar(255)" json:"original_filename"`

	CoverKey      string `gorm:"type:varchar(500)" json:"-"`
	CoverThumbKey string `gorm:"type:varchar(500)" json:"-"`

	IsPublic      bool `gorm:"default:false;index" json:"is_public"`
	ViewCount     int  `gorm:"default:0" json:"view_count"`
	DownloadCount int  `gorm:"default:0" json:"download_count"`

	Collections []Collection   `gorm:"many2many:collection_items;" json:"collections,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns a UUID when none is set.
func (e *Ebook) BeforeCreate(tx *gorm.DB) error {
	if e.UUID == "" {
		e.UUID = uuid.New().String()
	}
	return nil
}

// HasFile reports whether an ebook file has been uploaded yet.
func (e *Ebook) HasFile() bool {
	return e.FileKey != ""
}

// CanBeAccessedBy reports whether the given user may read this ebook.
// Public ebooks are readable by everyone including anonymous visitors.
func (e *Ebook) CanBeAccessedBy(userID uint) bool {
	if e.IsPublic {
		return true
	}
	return userID != 0 && e.AuthorID == userID
}
