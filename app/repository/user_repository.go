package repository

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/unreadapp/unread/app/models"
)

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.Preload("Identities").First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername retrieves a user by their username
func (r *userRepository) GetByUsername(username string) (*models.User, error) {
	var user models.User
	err := r.db.Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UsernameExists reports whether the username is already taken
func (r *userRepository) UsernameExists(username string) (bool, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

// FindUserByIdentity resolves a (provider, provider_user_id) binding to its user
func (r *userRepository) FindUserByIdentity(provider, providerUserID string) (*models.User, error) {
	var identity models.Identity
	err := r.db.Where("provider = ? AND provider_user_id = ?", provider, providerUserID).
		First(&identity).Error
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := r.db.Preload("Identities").First(&user, identity.UserID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUserWithIdentity creates a user and their first identity binding
// in one transaction. Either both rows are committed or neither is.
func (r *userRepository) CreateUserWithIdentity(user *models.User, identity *models.Identity) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		identity.UserID = user.ID
		if err := tx.Create(identity).Error; err != nil {
			return err
		}
		user.Identities = []models.Identity{*identity}
		return nil
	})
}

// AttachIdentity binds an additional provider identity to an existing user.
// The composite unique index rejects subjects already bound elsewhere.
func (r *userRepository) AttachIdentity(identity *models.Identity) error {
	return r.db.Create(identity).Error
}

// TouchLastLogin updates the last-login timestamp
func (r *userRepository) TouchLastLogin(userID uint) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("last_login_at", time.Now()).Error
}

// Update updates an existing user in the database
func (r *userRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// Delete soft deletes a user by their ID
func (r *userRepository) Delete(id uint) error {
	return r.db.Delete(&models.User{}, id).Error
}

// List retrieves a paginated list of users, optionally filtered by a
// username search
func (r *userRepository) List(offset, limit int, search string) ([]models.User, error) {
	var users []models.User
	query := r.db.Order("created_at DESC").Offset(offset).Limit(limit)
	if search != "" {
		pattern := "%" + strings.TrimSpace(search) + "%"
		query = query.Where("username LIKE ?", pattern)
	}
	err := query.Find(&users).Error
	return users, err
}

// Count returns the total number of users
func (r *userRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Count(&count).Error
	return count, err
}
