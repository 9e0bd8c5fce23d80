package oauth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testIssuer struct {
	key    *rsa.PrivateKey
	kid    string
	server *httptest.Server
	hits   atomic.Int64
}

// newTestIssuer spins up a JWKS endpoint serving one RSA key
func newTestIssuer(t *testing.T) *testIssuer {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	issuer := &testIssuer{key: key, kid: "test-key-1"}
	issuer.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		issuer.hits.Add(1)
		doc := map[string]interface{}{
			"keys": []map[string]string{
				{
					"kty": "RSA",
					"kid": issuer.kid,
					"use": "sig",
					"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
					"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
				},
			},
		}
		_ = json.NewEncoder(w).Encode(doc)
	}))
	t.Cleanup(issuer.server.Close)
	return issuer
}

func (ti *testIssuer) sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = ti.kid
	signed, err := token.SignedString(ti.key)
	require.NoError(t, err)
	return signed
}

func defaultClaims(audience, issuer string) jwt.MapClaims {
	return jwt.MapClaims{
		"iss": issuer,
		"aud": audience,
		"sub": "subject-123",
		"exp": time.Now().Add(time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}
}

func TestVerifyIDTokenValid(t *testing.T) {
	issuer := newTestIssuer(t)
	keys := NewKeyCache(issuer.server.URL, 15*time.Minute)

	token := issuer.sign(t, defaultClaims("client-id", "https://issuer.test"))

	claims, err := verifyIDToken(context.Background(), keys, token, "client-id", []string{"https://issuer.test"})
	require.NoError(t, err)
	assert.Equal(t, "subject-123", stringClaim(claims, "sub"))
}

func TestVerifyIDTokenExpired(t *testing.T) {
	issuer := newTestIssuer(t)
	keys := NewKeyCache(issuer.server.URL, 15*time.Minute)

	claims := defaultClaims("client-id", "https://issuer.test")
	claims["exp"] = time.Now().Add(-time.Hour).Unix()
	token := issuer.sign(t, claims)

	_, err := verifyIDToken(context.Background(), keys, token, "client-id", []string{"https://issuer.test"})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyIDTokenWrongAudience(t *testing.T) {
	issuer := newTestIssuer(t)
	keys := NewKeyCache(issuer.server.URL, 15*time.Minute)

	token := issuer.sign(t, defaultClaims("other-client", "https://issuer.test"))

	_, err := verifyIDToken(context.Background(), keys, token, "client-id", []string{"https://issuer.test"})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyIDTokenWrongIssuer(t *testing.T) {
	issuer := newTestIssuer(t)
	keys := NewKeyCache(issuer.server.URL, 15*time.Minute)

	token := issuer.sign(t, defaultClaims("client-id", "https://evil.test"))

	_, err := verifyIDToken(context.Background(), keys, token, "client-id", []string{"https://issuer.test"})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyIDTokenTampered(t *testing.T) {
	issuer := newTestIssuer(t)
	keys := NewKeyCache(issuer.server.URL, 15*time.Minute)

	token := issuer.sign(t, defaultClaims("client-id", "https://issuer.test"))
	tampered := token[:len(token)-4] + "AAAA"

	_, err := verifyIDToken(context.Background(), keys, tampered, "client-id", []string{"https://issuer.test"})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyIDTokenForeignKey(t *testing.T) {
	issuer := newTestIssuer(t)
	keys := NewKeyCache(issuer.server.URL, 15*time.Minute)

	// Token signed by a different key under the same kid
	foreign, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, defaultClaims("client-id", "https://issuer.test"))
	token.Header["kid"] = issuer.kid
	signed, err := token.SignedString(foreign)
	require.NoError(t, err)

	_, err = verifyIDToken(context.Background(), keys, signed, "client-id", []string{"https://issuer.test"})
	assert.ErrorIs(t, err, ErrInvalidToken)
	// One initial fetch plus one forced refresh after the signature failure
	assert.Equal(t, int64(2), issuer.hits.Load())
}

func TestVerifyIDTokenRejectsHS256(t *testing.T) {
	issuer := newTestIssuer(t)
	keys := NewKeyCache(issuer.server.URL, 15*time.Minute)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, defaultClaims("client-id", "https://issuer.test"))
	token.Header["kid"] = issuer.kid
	signed, err := token.SignedString([]byte("hmac-secret"))
	require.NoError(t, err)

	_, err = verifyIDToken(context.Background(), keys, signed, "client-id", []string{"https://issuer.test"})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestKeyCacheProviderDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	keys := NewKeyCache(server.URL, 15*time.Minute)
	_, err := keys.Key(context.Background(), "any")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestKeyCacheServesStaleKeyWhenProviderDown(t *testing.T) {
	issuer := newTestIssuer(t)
	keys := NewKeyCache(issuer.server.URL, time.Nanosecond)

	// Prime the cache
	_, err := keys.Key(context.Background(), issuer.kid)
	require.NoError(t, err)

	// Kill the endpoint; the stale key must still be served
	issuer.server.Close()
	time.Sleep(time.Millisecond)

	key, err := keys.Key(context.Background(), issuer.kid)
	require.NoError(t, err)
	assert.NotNil(t, key)
}

func TestKeyCacheUnknownKid(t *testing.T) {
	issuer := newTestIssuer(t)
	keys := NewKeyCache(issuer.server.URL, 15*time.Minute)

	_, err := keys.Key(context.Background(), "no-such-kid")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGoogleVerifierMapsClaims(t *testing.T) {
	issuer := newTestIssuer(t)
	keys := NewKeyCache(issuer.server.URL, 15*time.Minute)

	claims := defaultClaims("client-id", "https://accounts.google.com")
	claims["email"] = "reader@example.com"
	claims["name"] = "Avid Reader"
	claims["picture"] = "https://lh3.example.com/photo.jpg"
	token := issuer.sign(t, claims)

	verifier := NewGoogleVerifier("client-id", keys)
	ident, err := verifier.Verify(context.Background(), token)
	require.NoError(t, err)

	assert.Equal(t, ProviderGoogle, ident.Provider)
	assert.Equal(t, "subject-123", ident.ProviderUserID)
	assert.Equal(t, "reader@example.com", ident.Email)
	assert.Equal(t, "Avid Reader", ident.Name)
	assert.Equal(t, "https://lh3.example.com/photo.jpg", ident.AvatarURL)
}

func TestAppleVerifierMapsClaims(t *testing.T) {
	issuer := newTestIssuer(t)
	keys := NewKeyCache(issuer.server.URL, 15*time.Minute)

	claims := defaultClaims("client-id", "https://appleid.apple.com")
	claims["email"] = "relay@privaterelay.appleid.com"
	token := issuer.sign(t, claims)

	verifier := NewAppleVerifier("client-id", keys)
	ident, err := verifier.Verify(context.Background(), token)
	require.NoError(t, err)

	assert.Equal(t, ProviderApple, ident.Provider)
	assert.Equal(t, "subject-123", ident.ProviderUserID)
	assert.Equal(t, "relay@privaterelay.appleid.com", ident.Email)
	assert.Empty(t, ident.Name)
}

func TestRegistryUnknownProvider(t *testing.T) {
	registry := NewRegistry()
	_, err := registry.Verify(context.Background(), "facebook", "token")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}
