package slooze

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the bearer token payload. The subject names the actor; tokens issued by
// older clients carry the id in "userId" instead.
type Claims struct {
	UserID string `json:"userId,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// ActorID returns the subject, falling back to the legacy userId claim.
func (c *Claims) ActorID() string {
	if c.Subject != "" {
		return c.Subject
	}
	return c.UserID
}

// TokenVerifier validates HS256 bearer tokens. Token issuance belongs to the identity
// service and is not handled here.
type TokenVerifier struct {
	secret []byte
	issuer string
	leeway time.Duration
}

// TokenOption configures a TokenVerifier.
type TokenOption func(*TokenVerifier)

// WithIssuer requires the "iss" claim to match.
func WithIssuer(issuer string) TokenOption {
	return func(v *TokenVerifier) {
		v.issuer = issuer
	}
}

// WithLeeway tolerates clock skew when checking exp and nbf.
func WithLeeway(d time.Duration) TokenOption {
	return func(v *TokenVerifier) {
		v.leeway = d
	}
}

// NewTokenVerifier creates a verifier for tokens signed with secret.
func NewTokenVerifier(secret []byte, opts ...TokenOption) *TokenVerifier {
	v := &TokenVerifier{secret: secret}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify parses and validates a token and returns its claims.
func (v *TokenVerifier) Verify(token string) (*Claims, error) {
	if len(v.secret) == 0 {
		return nil, NewError(ErrUnauthenticated, "token verification is not configured")
	}

	parserOpts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(v.issuer))
	}
	if v.leeway > 0 {
		parserOpts = append(parserOpts, jwt.WithLeeway(v.leeway))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, parserOpts...)
	if err != nil {
		msg := "invalid token"
		if errors.Is(err, jwt.ErrTokenExpired) {
			msg = "token expired"
		}
		return nil, NewError(ErrUnauthenticated, msg)
	}
	if claims.ActorID() == "" {
		return nil, NewError(ErrUnauthenticated, "token has no subject")
	}
	return claims, nil
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header value.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
