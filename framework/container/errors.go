package container

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// ── Sentinel errors ───────────────────────────────────────────────────────────

var (
	// ErrNotAFunction is returned when a registration's constructor is not
	// a function value.
	ErrNotAFunction = errors.New("container: constructor must be a function")

	// ErrBadConstructor is returned when a constructor does not return
	// (T) or (T, error), or is variadic.
	ErrBadConstructor = errors.New("container: constructor must return (T) or (T, error)")

	// ErrReturnMismatch is returned when the constructor's first return
	// value is not assignable to the abstract type being registered.
	ErrReturnMismatch = errors.New("container: constructor return type is not assignable to the abstract type")

	// ErrNilInstance is returned when Instance is given a nil value.
	ErrNilInstance = errors.New("container: instance must not be nil")

	// ErrBadAbstract is returned when Make is given a marker that is not a
	// pointer to the abstract type, e.g. Make(ctx, (*UserRepository)(nil)).
	ErrBadAbstract = errors.New("container: abstract marker must be a pointer, like (*Service)(nil)")

	// ErrNoScope is returned by EndScope when the context carries no scope.
	ErrNoScope = errors.New("container: no scope in context")

	// ErrScopeEnded is returned when resolving against, or re-ending, a
	// scope whose teardown already ran.
	ErrScopeEnded = errors.New("container: scope already ended")
)

// ── Resolution errors ─────────────────────────────────────────────────────────

// UnregisteredTypeError is returned when a type has no binding, no override,
// and cannot be self-constructed. It propagates, wrapped, through every
// enclosing resolve so the failing dependency path stays readable.
type UnregisteredTypeError struct {
	Key string
}

func (e *UnregisteredTypeError) Error() string {
	return fmt.Sprintf("container: no binding registered for [%s]", e.Key)
}

// CircularDependencyError is returned when a resolve re-enters a type that
// is already under construction. Chain holds the ordered path starting and
// ending at the repeated type.
type CircularDependencyError struct {
	Chain []string
}

func (e *CircularDependencyError) Error() string {
	return "container: circular dependency: " + strings.Join(e.Chain, " -> ")
}

// LifetimeConflictError is returned when constructing a singleton would
// capture a scoped instance, which would silently outlive its scope.
type LifetimeConflictError struct {
	Singleton string
	Scoped    string
}

func (e *LifetimeConflictError) Error() string {
	return fmt.Sprintf("container: singleton [%s] depends on scoped [%s]", e.Singleton, e.Scoped)
}

// ── Teardown errors ───────────────────────────────────────────────────────────

// DisposalError aggregates per-instance teardown failures. Teardown is best
// effort: every instance is visited and failures are collected rather than
// aborting, so a DisposalError never means instances were skipped.
type DisposalError struct {
	Errors []error
}

func (e *DisposalError) Error() string {
	msgs := lo.Map(e.Errors, func(err error, _ int) string { return err.Error() })
	return fmt.Sprintf("container: %d disposal failure(s): %s", len(e.Errors), strings.Join(msgs, "; "))
}

func (e *DisposalError) Unwrap() []error { return e.Errors }

// ── Validation errors ─────────────────────────────────────────────────────────

// ValidationError aggregates everything Validate found wrong with the
// registration table.
type ValidationError struct {
	Issues []error
}

func (e *ValidationError) Error() string {
	msgs := lo.Map(e.Issues, func(err error, _ int) string { return err.Error() })
	return fmt.Sprintf("container: %d validation issue(s): %s", len(e.Issues), strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() []error { return e.Issues }

// ── Predicates ────────────────────────────────────────────────────────────────

// IsUnregistered reports whether err is, or wraps, an UnregisteredTypeError.
func IsUnregistered(err error) bool {
	var target *UnregisteredTypeError
	return errors.As(err, &target)
}

// IsCircular reports whether err is, or wraps, a CircularDependencyError.
func IsCircular(err error) bool {
	var target *CircularDependencyError
	return errors.As(err, &target)
}
