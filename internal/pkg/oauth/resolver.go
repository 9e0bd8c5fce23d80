package oauth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/unreadapp/unread/app/models"
	"github.com/unreadapp/unread/internal/pkg/utils"
)

const (
	maxUsernameLength  = 50
	maxCreateAttempts  = 3
	maxSuffixProbes    = 100
	fallbackNameLength = 8
)

// IdentityStore is the storage surface the resolver needs. The user
// repository implements it; tests substitute an in-memory fake.
type IdentityStore interface {
	FindUserByIdentity(provider, providerUserID string) (*models.User, error)
	CreateUserWithIdentity(user *models.User, identity *models.Identity) error
	AttachIdentity(identity *models.Identity) error
	UsernameExists(username string) (bool, error)
	TouchLastLogin(userID uint) error
	GetByID(id uint) (*models.User, error)
}

// Resolver maps a verified external identity to an internal user,
// creating one on first login. The (provider, provider_user_id) unique
// index is the only guard against concurrent first logins: a duplicate-
// key failure during create is re-read and treated as the found case.
type Resolver struct {
	store IdentityStore
}

func NewResolver(store IdentityStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the user owning the verified identity. When
// linkUserID is non-zero, an unknown identity is attached to that user
// instead of creating a new account (account linking).
func (r *Resolver) Resolve(ident *Identity, linkUserID uint) (*models.User, error) {
	user, err := r.store.FindUserByIdentity(ident.Provider, ident.ProviderUserID)
	if err == nil {
		if linkUserID != 0 && user.ID != linkUserID {
			return nil, ErrIdentityAlreadyLinked
		}
		if err := r.store.TouchLastLogin(user.ID); err != nil {
			return nil, fmt.Errorf("update last login: %w", err)
		}
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find identity: %w", err)
	}

	if linkUserID != 0 {
		return r.link(ident, linkUserID)
	}
	return r.create(ident)
}

func (r *Resolver) link(ident *Identity, userID uint) (*models.User, error) {
	err := r.store.AttachIdentity(&models.Identity{
		UserID:         userID,
		Provider:       ident.Provider,
		ProviderUserID: ident.ProviderUserID,
		Email:          ident.Email,
	})
	if err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("attach identity: %w", err)
		}
		// Lost a race: someone bound this subject first. Only fine when
		// the winner is the same user.
		owner, findErr := r.store.FindUserByIdentity(ident.Provider, ident.ProviderUserID)
		if findErr != nil {
			return nil, fmt.Errorf("attach identity: %w", err)
		}
		if owner.ID != userID {
			return nil, ErrIdentityAlreadyLinked
		}
	}
	return r.store.GetByID(userID)
}

func (r *Resolver) create(ident *Identity) (*models.User, error) {
	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		username, err := r.pickUsername(ident)
		if err != nil {
			return nil, err
		}

		avatarURL := ident.AvatarURL
		if avatarURL == "" && ident.Email != "" {
			avatarURL = utils.GetGravatarURL(ident.Email, 200)
		}

		now := time.Now()
		user := &models.User{
			Username:    username,
			Role:        models.ROLE_USER,
			Status:      models.STATUS_ACTIVE,
			AvatarURL:   avatarURL,
			LastLoginAt: &now,
		}
		identity := &models.Identity{
			Provider:       ident.Provider,
			ProviderUserID: ident.ProviderUserID,
			Email:          ident.Email,
		}

		err = r.store.CreateUserWithIdentity(user, identity)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("create user: %w", err)
		}

		// Either a concurrent first login for the same subject won, or
		// the username was taken between probe and insert. Re-read the
		// identity to tell the two apart.
		existing, findErr := r.store.FindUserByIdentity(ident.Provider, ident.ProviderUserID)
		if findErr == nil {
			if touchErr := r.store.TouchLastLogin(existing.ID); touchErr != nil {
				return nil, fmt.Errorf("update last login: %w", touchErr)
			}
			return existing, nil
		}
		if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("find identity after conflict: %w", findErr)
		}
		// Username collision; next attempt probes again.
	}
	return nil, fmt.Errorf("create user: username conflicts persist for %s/%s", ident.Provider, ident.ProviderUserID)
}

// pickUsername derives a username from the identity's display hints and
// disambiguates collisions with a numeric suffix: base, base_1, base_2.
func (r *Resolver) pickUsername(ident *Identity) (string, error) {
	base := usernameBase(ident)
	for i := 0; i < maxSuffixProbes; i++ {
		candidate := base
		if i > 0 {
			suffix := fmt.Sprintf("_%d", i)
			candidate = truncate(base, maxUsernameLength-len(suffix)) + suffix
		}
		taken, err := r.store.UsernameExists(candidate)
		if err != nil {
			return "", fmt.Errorf("check username: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free username for base %q", base)
}

func usernameBase(ident *Identity) string {
	var raw string
	switch {
	case ident.Email != "":
		raw = ident.Email
		if at := strings.IndexByte(raw, '@'); at > 0 {
			raw = raw[:at]
		}
	case ident.Name != "":
		raw = ident.Name
	default:
		raw = "user_" + truncate(ident.ProviderUserID, fallbackNameLength)
	}

	base := sanitizeUsername(raw)
	if len(base) < 3 {
		base = sanitizeUsername("user_" + truncate(ident.ProviderUserID, fallbackNameLength))
	}
	if len(base) < 3 {
		base = "user"
	}
	return truncate(base, maxUsernameLength)
}

func sanitizeUsername(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		case r == ' ' || r == '.':
			b.WriteByte('_')
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
