package session

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestNewStoreRejectsShortSecret(t *testing.T) {
	_, err := NewStore("too-short", time.Hour)
	assert.Error(t, err)
}

func TestNewStoreRejectsNonPositiveTTL(t *testing.T) {
	_, err := NewStore(testSecret, 0)
	assert.Error(t, err)
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	store, err := NewStore(testSecret, time.Hour)
	require.NoError(t, err)

	token, err := store.Issue(42)
	require.NoError(t, err)

	userID, err := store.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), userID)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	store, err := NewStore(testSecret, time.Hour)
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Hour)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "42",
		IssuedAt:  jwt.NewNumericDate(past),
		ExpiresAt: jwt.NewNumericDate(past.Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = store.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer, err := NewStore(testSecret, time.Hour)
	require.NoError(t, err)
	verifier, err := NewStore(strings.Repeat("x", 32), time.Hour)
	require.NoError(t, err)

	token, err := issuer.Issue(42)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	store, err := NewStore(testSecret, time.Hour)
	require.NoError(t, err)

	token, err := store.Issue(42)
	require.NoError(t, err)

	_, err = store.Verify(token[:len(token)-4] + "AAAA")
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	store, err := NewStore(testSecret, time.Hour)
	require.NoError(t, err)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := store.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidSession, "token %q", token)
	}
}

func TestVerifyRejectsNonNumericSubject(t *testing.T) {
	store, err := NewStore(testSecret, time.Hour)
	require.NoError(t, err)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "not-a-number",
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = store.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestVerifyRejectsUnsignedToken(t *testing.T) {
	store, err := NewStore(testSecret, time.Hour)
	require.NoError(t, err)

	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "42",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = store.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidSession)
}
