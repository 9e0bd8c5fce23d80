package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		db: db,
	}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

// GetUserRepository returns the user repository instance
func (f *Factory) GetUserRepository() UserRepository {
	return f.GetRepositories().User
}

// GetEbookRepository returns the ebook repository instance
func (f *Factory) GetEbookRepository() EbookRepository {
	return f.GetRepositories().Ebook
}

// GetCollectionRepository returns the collection repository instance
func (f *Factory) GetCollectionRepository() CollectionRepository {
	return f.GetRepositories().Collection
}

// GetShareLinkRepository returns the share-link repository instance
func (f *Factory) GetShareLinkRepository() ShareLinkRepository {
	return f.GetRepositories().ShareLink
}

// GetReadingRepository returns the reading-progress repository instance
func (f *Factory) GetReadingRepository() ReadingRepository {
	return f.GetRepositories().Reading
}

// Global factory instance
var globalFactory *Factory
var factoryOnce sync.Once

// InitializeFactory initializes the global repository factory
func InitializeFactory(db *gorm.DB) {
	factoryOnce.Do(func() {
		globalFactory = NewFactory(db)
	})
}

// GetGlobalFactory returns the global repository factory instance
func GetGlobalFactory() *Factory {
	if globalFactory == nil {
		panic("Repository factory not initialized. Call InitializeFactory first.")
	}
	return globalFactory
}

// GetGlobalRepositories returns the global repositories instance
func GetGlobalRepositories() *Repositories {
	return GetGlobalFactory().GetRepositories()
}
