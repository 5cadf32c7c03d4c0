package slooze

import (
	"context"
)

// Context keys for request values.
type contextKey string

const (
	contextKeyActor     contextKey = "slooze:actor"
	contextKeyIPAddress contextKey = "slooze:ip_address"
	contextKeyUserAgent contextKey = "slooze:user_agent"
	contextKeyRequestID contextKey = "slooze:request_id"
	contextKeyChecker   contextKey = "slooze:checker"
)

// WithActor adds the authenticated actor to the context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, contextKeyActor, actor)
}

// GetActor retrieves the authenticated actor from context.
func GetActor(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(contextKeyActor).(Actor)
	return a, ok
}

// MustGetActor retrieves the actor from context.
// Panics if not set.
func MustGetActor(ctx context.Context) Actor {
	a, ok := GetActor(ctx)
	if !ok {
		panic("slooze: actor not in context")
	}
	return a
}

// WithIPAddress adds the client IP address to the context (for order history).
func WithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, contextKeyIPAddress, ip)
}

// GetIPAddress retrieves the IP address from context.
func GetIPAddress(ctx context.Context) string {
	s, _ := ctx.Value(contextKeyIPAddress).(string)
	return s
}

// WithUserAgent adds the user agent to the context.
func WithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, contextKeyUserAgent, ua)
}

// GetUserAgent retrieves the user agent from context.
func GetUserAgent(ctx context.Context) string {
	s, _ := ctx.Value(contextKeyUserAgent).(string)
	return s
}

// WithRequestID adds a request ID to the context (for correlation).
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, requestID)
}

// GetRequestID retrieves the request ID from context.
func GetRequestID(ctx context.Context) string {
	s, _ := ctx.Value(contextKeyRequestID).(string)
	return s
}

// WithChecker adds a Checker to the context.
func WithChecker(ctx context.Context, checker *Checker) context.Context {
	return context.WithValue(ctx, contextKeyChecker, checker)
}

// FromContext retrieves the Checker from context.
// Returns nil if not set.
func FromContext(ctx context.Context) *Checker {
	c, _ := ctx.Value(contextKeyChecker).(*Checker)
	return c
}

// AuditContext holds the request metadata recorded with order events.
type AuditContext struct {
	ActorID   string
	IPAddress string
	UserAgent string
	RequestID string
}

// GetAuditContext extracts all audit information from context.
func GetAuditContext(ctx context.Context) AuditContext {
	ac := AuditContext{
		IPAddress: GetIPAddress(ctx),
		UserAgent: GetUserAgent(ctx),
		RequestID: GetRequestID(ctx),
	}
	if a, ok := GetActor(ctx); ok {
		ac.ActorID = a.ID
	}
	return ac
}

// WithAuditContext adds request metadata to context at once.
// ActorID is ignored; the actor is carried by WithActor.
func WithAuditContext(ctx context.Context, ac AuditContext) context.Context {
	if ac.IPAddress != "" {
		ctx = WithIPAddress(ctx, ac.IPAddress)
	}
	if ac.UserAgent != "" {
		ctx = WithUserAgent(ctx, ac.UserAgent)
	}
	if ac.RequestID != "" {
		ctx = WithRequestID(ctx, ac.RequestID)
	}
	return ctx
}
