package oauth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/unreadapp/unread/internal/pkg/env"
)

const (
	ProviderGoogle = "google"
	ProviderApple  = "apple"
)

var (
	// ErrInvalidToken covers malformed, expired, tampered and
	// wrong-audience provider tokens.
	ErrInvalidToken = errors.New("invalid provider token")
	// ErrUnknownProvider is returned for provider names the registry
	// has no verifier for.
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrProviderUnavailable is returned when the provider's signing
	// keys could not be fetched.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrIdentityAlreadyLinked is returned when a subject id is already
	// bound to a different user during account linking.
	ErrIdentityAlreadyLinked = errors.New("identity already linked to another user")
)

// Identity is the verified result of a provider token. Every field
// originates from the verified token payload; nothing local is trusted.
type Identity struct {
	Provider       string
	ProviderUserID string
	Email          string
	Name           string
	AvatarURL      string
}

// Verifier validates an externally issued identity token against one
// provider. Implementations must check signature, issuer, audience and
// expiry.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// Registry selects a Verifier by provider name.
type Registry struct {
	verifiers map[string]Verifier
}

func NewRegistry() *Registry {
	return &Registry{verifiers: make(map[string]Verifier)}
}

// Register adds a verifier under the given provider name. Later
// registrations replace earlier ones.
func (r *Registry) Register(provider string, v Verifier) {
	r.verifiers[provider] = v
}

// Verify dispatches to the verifier registered for provider.
func (r *Registry) Verify(ctx context.Context, provider, token string) (*Identity, error) {
	v, ok := r.verifiers[provider]
	if !ok {
		return nil, ErrUnknownProvider
	}
	return v.Verify(ctx, token)
}

// Providers lists the registered provider names.
func (r *Registry) Providers() []string {
	names := make([]string, 0, len(r.verifiers))
	for name := range r.verifiers {
		names = append(names, name)
	}
	return names
}

// Setup builds the registry from environment configuration. Providers
// without a configured client id are skipped, so deployments can enable
// Google and Apple independently.
func Setup() *Registry {
	registry := NewRegistry()

	keyTTL := 15 * time.Minute
	if raw := env.GetEnv("OAUTH_KEY_CACHE_TTL", ""); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			keyTTL = parsed
		}
	}

	if clientID := env.GetEnv("GOOGLE_CLIENT_ID", ""); clientID != "" {
		registry.Register(ProviderGoogle, NewGoogleVerifier(clientID, NewKeyCache(googleJWKSURL, keyTTL)))
	}
	if clientID := env.GetEnv("APPLE_CLIENT_ID", ""); clientID != "" {
		registry.Register(ProviderApple, NewAppleVerifier(clientID, NewKeyCache(appleJWKSURL, keyTTL)))
	}

	return registry
}

var (
	globalRegistry *Registry
	registryOnce   sync.Once
)

// GetRegistry returns the global provider registry, building it from the
// environment on first use.
func GetRegistry() *Registry {
	registryOnce.Do(func() {
		globalRegistry = Setup()
	})
	return globalRegistry
}
