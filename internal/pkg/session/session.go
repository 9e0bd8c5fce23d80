package session

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/unreadapp/unread/internal/pkg/env"
)

// Session tokens are stateless HS256 JWTs carrying only the user id,
// issued-at and expiry. There is no server-side session record and no
// revocation list; tokens stay valid until they expire.

const minSecretLength = 32

var ErrInvalidSession = errors.New("invalid session token")

// Store signs and verifies session tokens.
type Store struct {
	secret []byte
	ttl    time.Duration
}

// NewStore builds a Store. A missing or short secret is a configuration
// error the caller must treat as fatal at startup.
func NewStore(secret string, ttl time.Duration) (*Store, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("session secret must be at least %d bytes, got %d", minSecretLength, len(secret))
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive, got %v", ttl)
	}
	return &Store{secret: []byte(secret), ttl: ttl}, nil
}

// Issue mints a signed session token for the given user.
func (s *Store) Issue(userID uint) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// TTL returns the configured token lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Verify checks signature and expiry and returns the embedded user id.
func (s *Store) Verify(token string) (uint, error) {
	claims := jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return 0, ErrInvalidSession
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || userID == 0 {
		return 0, ErrInvalidSession
	}
	return uint(userID), nil
}

var store *Store

// Setup initializes the global store from the environment. It panics on
// misconfiguration so a broken signing setup stops the service at boot
// instead of surfacing per request.
func Setup() {
	secret := env.MustGetEnv("SESSION_SECRET")

	ttl := 8 * 24 * time.Hour
	if raw := env.GetEnv("SESSION_TTL", ""); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			panic(fmt.Sprintf("invalid SESSION_TTL %q: %v", raw, err))
		}
		ttl = parsed
	}

	s, err := NewStore(secret, ttl)
	if err != nil {
		panic(err)
	}
	store = s
}

// GetStore returns the global session store.
func GetStore() *Store {
	if store == nil {
		panic("session store not initialized, call session.Setup first")
	}
	return store
}
