package oauth

import (
	"context"
	"fmt"
)

const googleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

var googleIssuers = []string{"https://accounts.google.com", "accounts.google.com"}

// GoogleVerifier validates Google Sign-In ID tokens.
type GoogleVerifier struct {
	clientID string
	keys     *KeyCache
}

func NewGoogleVerifier(clientID string, keys *KeyCache) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID, keys: keys}
}

func (v *GoogleVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	claims, err := verifyIDToken(ctx, v.keys, token, v.clientID, googleIssuers)
	if err != nil {
		return nil, err
	}

	sub := stringClaim(claims, "sub")
	if sub == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return &Identity{
		Provider:       ProviderGoogle,
		ProviderUserID: sub,
		Email:          stringClaim(claims, "email"),
		Name:           stringClaim(claims, "name"),
		AvatarURL:      stringClaim(claims, "picture"),
	}, nil
}
