package slooze

import (
	"errors"
	"fmt"
)

// Sentinel errors for ordering operations.
var (
	// ErrForbidden is returned when the actor's role is not eligible for an operation,
	// or when a mutation targets a record outside the actor's region.
	ErrForbidden = errors.New("slooze: forbidden")

	// ErrNotFound is returned when a referenced entity does not exist or is not visible.
	ErrNotFound = errors.New("slooze: not found")

	// ErrInconsistentRestaurant is returned when order lines reference menu items
	// owned by a restaurant other than the order's restaurant.
	ErrInconsistentRestaurant = errors.New("slooze: inconsistent restaurant")

	// ErrInvalidQuantity is returned for a non-positive line quantity.
	ErrInvalidQuantity = errors.New("slooze: invalid quantity")

	// ErrInvalidTransition is returned when an order is not in a state that permits the
	// requested transition.
	ErrInvalidTransition = errors.New("slooze: invalid transition")

	// ErrInvalidInput is returned for malformed arguments (empty names, negative prices,
	// unknown regions, empty orders).
	ErrInvalidInput = errors.New("slooze: invalid input")

	// ErrAlreadyExists is returned when creating a record whose id is taken.
	ErrAlreadyExists = errors.New("slooze: already exists")

	// ErrUnauthenticated is returned by the transport when no valid credentials are present.
	ErrUnauthenticated = errors.New("slooze: unauthenticated")

	// ErrNoActor is returned when no actor is found in context.
	ErrNoActor = errors.New("slooze: no actor in context")

	// ErrDatabaseError is returned when a database operation fails.
	ErrDatabaseError = errors.New("slooze: database error")
)

// Error kinds as exposed to callers.
const (
	KindForbidden              = "Forbidden"
	KindNotFound               = "NotFound"
	KindInconsistentRestaurant = "InconsistentRestaurant"
	KindInvalidQuantity        = "InvalidQuantity"
	KindInvalidTransition      = "InvalidTransition"
	KindInvalidInput           = "InvalidInput"
	KindAlreadyExists          = "AlreadyExists"
	KindUnauthenticated        = "Unauthenticated"
	KindInternal               = "Internal"
)

var kinds = []struct {
	err  error
	kind string
}{
	{ErrForbidden, KindForbidden},
	{ErrNotFound, KindNotFound},
	{ErrInconsistentRestaurant, KindInconsistentRestaurant},
	{ErrInvalidQuantity, KindInvalidQuantity},
	{ErrInvalidTransition, KindInvalidTransition},
	{ErrInvalidInput, KindInvalidInput},
	{ErrAlreadyExists, KindAlreadyExists},
	{ErrUnauthenticated, KindUnauthenticated},
	{ErrNoActor, KindUnauthenticated},
}

// Error wraps a sentinel error with additional context.
type Error struct {
	Err       error  // Underlying sentinel error
	Message   string // Additional context
	Entity    string // Entity type involved ("order", "restaurant", ...)
	EntityID  string // Entity ID involved
	Operation string // Operation being attempted
	Role      string // Role of the actor (if applicable)
	ActorID   string // Actor who triggered the error (if applicable)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is checks if the error matches a target error.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// Kind returns the taxonomy name of the wrapped sentinel.
func (e *Error) Kind() string {
	return KindOf(e.Err)
}

// NewError creates a new Error with context.
func NewError(err error, message string) *Error {
	return &Error{
		Err:     err,
		Message: message,
	}
}

// WithEntity adds entity information to the error.
func (e *Error) WithEntity(entity, id string) *Error {
	e.Entity = entity
	e.EntityID = id
	return e
}

// WithOperation adds the attempted operation to the error.
func (e *Error) WithOperation(op Operation) *Error {
	e.Operation = string(op)
	return e
}

// WithRole adds role information to the error.
func (e *Error) WithRole(role Role) *Error {
	e.Role = string(role)
	return e
}

// WithActor adds actor information to the error.
func (e *Error) WithActor(actorID string) *Error {
	e.ActorID = actorID
	return e
}

// KindOf returns the error kind name for err, or KindInternal for anything that
// does not wrap one of the package sentinels.
func KindOf(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// notFound builds a NotFound error for an entity.
func notFound(entity, id string) *Error {
	return NewError(ErrNotFound, entity+" not found").WithEntity(entity, id)
}

// IsForbidden checks if an error is an authorization error.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsNotFound checks if an error is due to a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidTransition checks if an error is due to an illegal status transition.
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}

// IsValidationError checks if an error was raised while validating input.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInconsistentRestaurant) ||
		errors.Is(err, ErrInvalidInput)
}
