package slooze

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/google/uuid"
)

// ActorResolver loads the actor named by a verified token.
type ActorResolver func(ctx context.Context, id string) (*Actor, error)

// Middleware provides HTTP middleware for authentication and operation checks.
type Middleware struct {
	service      *Service
	verifier     *TokenVerifier
	resolveActor ActorResolver
	errorHandler func(http.ResponseWriter, *http.Request, error)

	// Peers allowed to set X-Forwarded-For and X-Real-IP.
	trustedProxies []netip.Prefix
}

// MiddlewareOption configures the Middleware.
type MiddlewareOption func(*Middleware)

// NewMiddleware creates a new Middleware instance. Actors are resolved through the
// service's store unless WithActorResolver says otherwise.
//
// Example:
//
//	mw := slooze.NewMiddleware(service, slooze.NewTokenVerifier([]byte(secret)))
//	mux.Handle("POST /orders/{id}/pay",
//	    mw.Authenticate()(mw.RequireOperation(slooze.OpPayOrder)(payHandler)))
func NewMiddleware(service *Service, verifier *TokenVerifier, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{
		service:      service,
		verifier:     verifier,
		errorHandler: defaultErrorHandler,
	}
	if service != nil && service.store != nil {
		m.resolveActor = service.store.FindActor
	}

	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithActorResolver sets a custom function to load actors.
func WithActorResolver(fn ActorResolver) MiddlewareOption {
	return func(m *Middleware) {
		m.resolveActor = fn
	}
}

// WithErrorHandler sets a custom error handler for middleware.
func WithErrorHandler(fn func(http.ResponseWriter, *http.Request, error)) MiddlewareOption {
	return func(m *Middleware) {
		m.errorHandler = fn
	}
}

// WithTrustedProxies makes InjectAuditContext read the client address from
// X-Forwarded-For (first hop) or X-Real-IP when the direct peer is one of
// prefixes. Build prefixes with ParseTrustedProxies.
func WithTrustedProxies(prefixes ...netip.Prefix) MiddlewareOption {
	return func(m *Middleware) {
		m.trustedProxies = append(m.trustedProxies, prefixes...)
	}
}

// ParseTrustedProxies parses addresses and CIDR ranges such as "10.0.0.0/8" or
// "127.0.0.1".
func ParseTrustedProxies(entries []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", entry, err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", entry, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, err)
}

// Authenticate verifies the bearer token and stores the resolved Actor in context.
// The actor's role and region always come from the store, never from the token.
func (m *Middleware) Authenticate() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				m.errorHandler(w, r, NewError(ErrUnauthenticated, "missing bearer token"))
				return
			}
			if m.verifier == nil || m.resolveActor == nil {
				m.errorHandler(w, r, NewError(ErrUnauthenticated, "authentication is not configured"))
				return
			}

			claims, err := m.verifier.Verify(token)
			if err != nil {
				m.errorHandler(w, r, err)
				return
			}

			actor, err := m.resolveActor(r.Context(), claims.ActorID())
			if err != nil {
				if IsNotFound(err) {
					err = NewError(ErrUnauthenticated, "unknown actor")
				}
				m.errorHandler(w, r, err)
				return
			}

			ctx := WithActor(r.Context(), *actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireOperation creates middleware that requires the actor's role to be granted op.
// It also stores a Checker in context for use in handlers.
//
// Example:
//
//	mux.Handle("POST /restaurants", authenticated(mw.RequireOperation(slooze.OpCreateRestaurant)(h)))
func (m *Middleware) RequireOperation(op Operation) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := GetActor(r.Context())
			if !ok {
				m.errorHandler(w, r, ErrNoActor)
				return
			}

			checker := m.checker(actor)
			if err := checker.Authorize(op); err != nil {
				m.errorHandler(w, r, err)
				return
			}

			ctx := WithChecker(r.Context(), checker)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LoadChecker stores a Checker for the authenticated actor in context, without
// requiring any operation. Requests without an actor pass through unchanged.
func (m *Middleware) LoadChecker() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := GetActor(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			ctx := WithChecker(r.Context(), m.checker(actor))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (m *Middleware) checker(actor Actor) *Checker {
	if m.service != nil {
		return m.service.Checker(actor)
	}
	return NewChecker(actor, nil)
}

// InjectAuditContext extracts request metadata recorded in order history. The IP is
// the direct peer unless it is a trusted proxy. A request id is generated when the
// client does not send X-Request-ID, and echoed back.
func (m *Middleware) InjectAuditContext() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := m.clientIP(r)

			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", requestID)

			ctx := WithAuditContext(r.Context(), AuditContext{
				IPAddress: ip,
				UserAgent: r.UserAgent(),
				RequestID: requestID,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (m *Middleware) clientIP(r *http.Request) string {
	peer := r.RemoteAddr
	if host, _, err := net.SplitHostPort(peer); err == nil {
		peer = host
	}
	if !m.trustedPeer(peer) {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	return peer
}

func (m *Middleware) trustedPeer(peer string) bool {
	if len(m.trustedProxies) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(peer)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range m.trustedProxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
