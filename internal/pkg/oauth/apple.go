package oauth

import (
	"context"
	"fmt"
)

const appleJWKSURL = "https://appleid.apple.com/auth/keys"

var appleIssuers = []string{"https://appleid.apple.com"}

// AppleVerifier validates Sign in with Apple ID tokens. Apple hides the
// user's real address behind a private relay for most accounts and never
// provides name or picture claims in the token.
type AppleVerifier struct {
	clientID string
	keys     *KeyCache
}

func NewAppleVerifier(clientID string, keys *KeyCache) *AppleVerifier {
	return &AppleVerifier{clientID: clientID, keys: keys}
}

func (v *AppleVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	claims, err := verifyIDToken(ctx, v.keys, token, v.clientID, appleIssuers)
	if err != nil {
		return nil, err
	}

	sub := stringClaim(claims, "sub")
	if sub == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return &Identity{
		Provider:       ProviderApple,
		ProviderUserID: sub,
		Email:          stringClaim(claims, "email"),
	}, nil
}
