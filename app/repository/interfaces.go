package repository

import (
	"gorm.io/gorm"

	"github.com/unreadapp/unread/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	GetByID(id uint) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	UsernameExists(username string) (bool, error)
	FindUserByIdentity(provider, providerUserID string) (*models.User, error)
	CreateUserWithIdentity(user *models.User, identity *models.Identity) error
	AttachIdentity(identity *models.Identity) error
	TouchLastLogin(userID uint) error
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int, search string) ([]models.User, error)
	Count() (int64, error)
}

// EbookRepository defines the interface for ebook-related database operations
type EbookRepository interface {
	Create(ebook *models.Ebook) error
	GetByID(id uint) (*models.Ebook, error)
	GetByUUID(uuid string) (*models.Ebook, error)
	GetByAuthor(authorID uint, offset, limit int) ([]models.Ebook, error)
	CountByAuthor(authorID uint) (int64, error)
	GetPublic(offset, limit int, search string) ([]models.Ebook, error)
	CountPublic(search string) (int64, error)
	GetRecent(limit int) ([]models.Ebook, error)
	GetPopular(limit int) ([]models.Ebook, error)
	Update(ebook *models.Ebook) error
	Delete(id uint) error
	Count() (int64, error)
}

// CollectionRepository defines the interface for collection-related database operations
type CollectionRepository interface {
	Create(collection *models.Collection) error
	GetByID(id uint) (*models.Collection, error)
	GetByAuthor(authorID uint) ([]models.Collection, error)
	GetPublic(offset, limit int) ([]models.Collection, error)
	CountPublic() (int64, error)
	Update(collection *models.Collection) error
	Delete(id uint) error
	AddEbook(collectionID, ebookID uint, position int) error
	RemoveEbook(collectionID, ebookID uint) error
	Reorder(collectionID uint, ebookIDs []uint) error
	GetEbooks(collectionID uint) ([]models.Ebook, error)
	NextPosition(collectionID uint) (int, error)
}

// ShareLinkRepository defines the interface for share-link database operations
type ShareLinkRepository interface {
	Create(link *models.ShareLink) error
	GetBySlug(slug string) (*models.ShareLink, error)
	GetByAuthor(authorID uint) ([]models.ShareLink, error)
	Delete(id uint) error
	IncrementAccessCount(id uint) error
}

// ReadingRepository defines the interface for reading-progress database operations
type ReadingRepository interface {
	Upsert(progress *models.ReadingProgress) error
	GetByUserAndEbook(userID, ebookID uint) (*models.ReadingProgress, error)
	GetRecentByUser(userID uint, limit int) ([]models.ReadingProgress, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User       UserRepository
	Ebook      EbookRepository
	Collection CollectionRepository
	ShareLink  ShareLinkRepository
	Reading    ReadingRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:       NewUserRepository(db),
		Ebook:      NewEbookRepository(db),
		Collection: NewCollectionRepository(db),
		ShareLink:  NewShareLinkRepository(db),
		Reading:    NewReadingRepository(db),
	}
}
