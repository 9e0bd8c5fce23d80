package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	ROLE_USER       = "user"
	ROLE_ADMIN      = "admin"
	STATUS_ACTIVE   = "active"
	STATUS_DISABLED = "disabled"
)

// User is an OAuth-only account. There is no local password; every user
// owns at least one Identity row created in the same transaction.
type User struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Username    string         `gorm:"uniqueIndex;type:varchar(50) CHARACTER SET utf8 COLLATE utf8_bin" json:"username" validate:"required,min=3,max=50,username"`
	Role        string         `gorm:"type:varchar(50);default:'user'" json:"role" validate:"oneof=user admin"`
	Status      string         `gorm:"type:varchar(50);default:'active'" json:"status" validate:"oneof=active disabled"`
	AvatarURL   string         `gorm:"type:varchar(500);default:null" json:"avatar_url" validate:"max=500"`
	LastLoginAt *time.Time     `gorm:"type:timestamp;default:null" json:"last_login_at"`
	Identities  []Identity     `gorm:"foreignKey:UserID" json:"identities,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

var userValidator = newUserValidator()

func newUserValidator() *validator.Validate {
	v := validator.New()
	// letters, digits, underscore and hyphen only
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		for _, r := range fl.Field().String() {
			switch {
			case r >= 'a' && r <= 'z':
			case r >= '0' && r <= '9':
			case r == '_' || r == '-':
			default:
				return false
			}
		}
		return true
	})
	return v
}

func (u *User) Validate() error {
	return userValidator.Struct(u)
}

// IsActive reports whether the user status is active
func (u *User) IsActive() bool {
	return u.Status == STATUS_ACTIVE
}

// ProviderList returns the provider names of all loaded identities
func (u *User) ProviderList() []string {
	providers := make([]string, 0, len(u.Identities))
	for _, id := range u.Identities {
		providers = append(providers, id.Provider)
	}
	return providers
}

// HasProvider reports whether an identity for the given provider is loaded.
func (u *User) HasProvider(provider string) bool {
	for _, id := range u.Identities {
		if id.Provider == provider {
			return true
		}
	}
	return false
}
