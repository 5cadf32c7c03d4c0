package slooze

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func signToken(t testing.TB, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func tokenFor(t testing.TB, actorID string) string {
	return signToken(t, jwt.SigningMethodHS256, testSecret, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actorID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
}

// TestTokenVerifierAccepts tests valid tokens
func TestTokenVerifierAccepts(t *testing.T) {
	v := NewTokenVerifier(testSecret)

	claims, err := v.Verify(tokenFor(t, "user-1"))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.ActorID())

	legacy := signToken(t, jwt.SigningMethodHS256, testSecret, &Claims{UserID: "user-2", Role: "MEMBER"})
	claims, err = v.Verify(legacy)
	require.NoError(t, err)
	assert.Equal(t, "user-2", claims.ActorID())
}

// TestTokenVerifierRejects tests invalid tokens
func TestTokenVerifierRejects(t *testing.T) {
	v := NewTokenVerifier(testSecret, WithIssuer("slooze"))

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong secret", signToken(t, jwt.SigningMethodHS256, []byte("other"), &Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "u", Issuer: "slooze"},
		})},
		{"wrong algorithm", signToken(t, jwt.SigningMethodHS512, testSecret, &Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "u", Issuer: "slooze"},
		})},
		{"expired", signToken(t, jwt.SigningMethodHS256, testSecret, &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "u",
				Issuer:    "slooze",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		})},
		{"wrong issuer", signToken(t, jwt.SigningMethodHS256, testSecret, &Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "u", Issuer: "someone-else"},
		})},
		{"no subject", signToken(t, jwt.SigningMethodHS256, testSecret, &Claims{
			RegisteredClaims: jwt.RegisteredClaims{Issuer: "slooze"},
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.token)
			assert.ErrorIs(t, err, ErrUnauthenticated)
		})
	}
}

// TestTokenVerifierLeeway tests tolerated clock skew
func TestTokenVerifierLeeway(t *testing.T) {
	token := signToken(t, jwt.SigningMethodHS256, testSecret, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-10 * time.Second)),
		},
	})

	_, err := NewTokenVerifier(testSecret).Verify(token)
	assert.Error(t, err)

	_, err = NewTokenVerifier(testSecret, WithLeeway(time.Minute)).Verify(token)
	assert.NoError(t, err)
}

// TestTokenVerifierUnconfigured tests that an empty secret rejects everything
func TestTokenVerifierUnconfigured(t *testing.T) {
	_, err := NewTokenVerifier(nil).Verify(tokenFor(t, "u"))
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

// TestBearerToken tests Authorization header parsing
func TestBearerToken(t *testing.T) {
	tok, ok := bearerToken("Bearer abc.def")
	assert.True(t, ok)
	assert.Equal(t, "abc.def", tok)

	tok, ok = bearerToken("bearer   xyz ")
	assert.True(t, ok)
	assert.Equal(t, "xyz", tok)

	for _, h := range []string{"", "Bearer", "Bearer ", "Basic abc", "abc"} {
		_, ok := bearerToken(h)
		assert.False(t, ok, h)
	}
}
