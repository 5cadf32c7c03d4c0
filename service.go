package slooze

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Service is the authorization and order-lifecycle engine. Every operation takes the
// authenticated actor explicitly, checks the Authorization Gate, narrows reads with the
// Visibility Scoper and delegates persistence to the Store.
//
// Error Handling:
// Failures are *Error values wrapping one of the package sentinels; use errors.Is or
// KindOf to classify them. Validation always completes before the first write, so a
// rejected request never leaves a partial order behind.
//
//	order, err := service.PayOrder(ctx, actor, orderID)
//	switch {
//	case slooze.IsForbidden(err):
//	    // role not eligible, or order outside the manager's region
//	case slooze.IsInvalidTransition(err):
//	    // order was already PAID or CANCELLED
//	}
type Service struct {
	store   Store
	policy  *Policy
	logger  Logger
	metrics *Metrics
	now     func() time.Time
	newID   func() string
}

// ServiceOption configures the Service.
type ServiceOption func(*Service)

// WithPolicy replaces DefaultPolicy.
func WithPolicy(p *Policy) ServiceOption {
	return func(s *Service) {
		if p != nil {
			s.policy = p
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the prometheus collectors to update.
func WithMetrics(m *Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides the uuid generator used for new records.
func WithIDGenerator(fn func() string) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewService creates a new Service over store.
//
// Example:
//
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	service := slooze.NewService(slooze.NewBunStore(db),
//	    slooze.WithLogger(slooze.NewBasicLogger(os.Stdout, slooze.LevelInfo)),
//	    slooze.WithMetrics(slooze.NewMetrics(prometheus.DefaultRegisterer)),
//	)
func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		policy: DefaultPolicy,
		logger: NopLogger{},
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the persistence collaborator.
func (s *Service) Store() Store {
	return s.store
}

// Policy returns the role policy in use.
func (s *Service) Policy() *Policy {
	return s.policy
}

// Checker returns a Checker for actor bound to the service policy.
func (s *Service) Checker(actor Actor) *Checker {
	return NewChecker(actor, s.policy)
}

// authorize runs the gate for actor and op. Denials are logged and counted.
func (s *Service) authorize(ctx context.Context, actor Actor, op Operation) error {
	if actor.ID == "" {
		return NewError(ErrUnauthenticated, "no authenticated actor").WithOperation(op)
	}
	err := s.policy.Authorize(actor.Role, op)
	if err == nil {
		return nil
	}

	s.metrics.denied(op, actor.Role)
	s.log(ctx).Warn("authorization denied", "operation", op, "actor_id", actor.ID, "role", actor.Role)
	if e, ok := err.(*Error); ok {
		return e.WithActor(actor.ID)
	}
	return err
}

// outOfScope builds the Forbidden error for a mutation outside the actor's region.
func outOfScope(actor Actor, op Operation, entity, id string) error {
	return NewError(ErrForbidden, entity+" is outside the actor's region").
		WithEntity(entity, id).
		WithOperation(op).
		WithRole(actor.Role).
		WithActor(actor.ID)
}

// newEvent builds an order event stamped with the request's audit metadata.
func (s *Service) newEvent(ctx context.Context, actor Actor, orderID string, typ OrderEventType, from, to OrderStatus) *OrderEvent {
	audit := GetAuditContext(ctx)
	return &OrderEvent{
		ID:         s.newID(),
		OrderID:    orderID,
		Type:       typ,
		FromStatus: from,
		ToStatus:   to,
		Timestamp:  s.now(),
		ActorID:    actor.ID,
		IPAddress:  audit.IPAddress,
		UserAgent:  audit.UserAgent,
		RequestID:  audit.RequestID,
	}
}

func (s *Service) log(ctx context.Context) Logger {
	return s.logger.WithContext(ctx)
}

// track records the latency and outcome of op. errp points at the named error result.
func (s *Service) track(op Operation, start time.Time, errp *error) {
	s.metrics.observe(op, start, *errp)
}
