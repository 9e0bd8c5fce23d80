package oauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// verifyIDToken parses and validates a provider-signed ID token against
// the cached JWKS. Signature, audience and expiry are validated by the
// parser; the issuer is checked against the provider's allowed values.
// A signature failure triggers one forced key refresh before the token
// is rejected, so freshly rotated provider keys do not fail logins.
func verifyIDToken(ctx context.Context, keys *KeyCache, token, audience string, issuers []string) (jwt.MapClaims, error) {
	claims, err := parseIDToken(ctx, keys, token, audience)
	if err != nil {
		if errors.Is(err, ErrProviderUnavailable) {
			return nil, err
		}
		if !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		// Possible key rotation: refresh once and retry.
		if refreshErr := keys.ForceRefresh(ctx); refreshErr != nil {
			return nil, refreshErr
		}
		claims, err = parseIDToken(ctx, keys, token, audience)
		if err != nil {
			if errors.Is(err, ErrProviderUnavailable) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}

	issuer, _ := claims["iss"].(string)
	for _, allowed := range issuers {
		if issuer == allowed {
			return claims, nil
		}
	}
	return nil, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidToken, issuer)
}

func parseIDToken(ctx context.Context, keys *KeyCache, token, audience string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("token header has no key id")
		}
		return keys.Key(ctx, kid)
	},
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return v
}
