package wrapz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Error kinds. Every failure produced by a wrapper unwraps to one of these,
// so callers branch with errors.Is.
var (
	// ErrCallLimitExceeded is the kind of *CallLimitError.
	ErrCallLimitExceeded = errors.New("call limit exceeded")
	// ErrInvalidArgumentType is returned by NewTakesNumbers on a non-numeric argument.
	ErrInvalidArgumentType = errors.New("arguments must be int or float")
	// ErrUnexpectedReturnType is returned by NewReturns on a type mismatch.
	ErrUnexpectedReturnType = errors.New("unexpected return type")
	// ErrPositionalTypeMismatch is returned by NewTypeCheck on a type mismatch.
	ErrPositionalTypeMismatch = errors.New("positional argument type mismatch")
	// ErrAttributeLookup is returned when a named attribute does not exist on an instance.
	ErrAttributeLookup = errors.New("attribute lookup failed")
	// ErrLimitExhausted is returned by a Limiter with a zero limit.
	ErrLimitExhausted = errors.New("instance limit exhausted")
	// ErrUnhashableIdentity is returned when an identity attribute cannot be used as a map key.
	ErrUnhashableIdentity = errors.New("identity value is not comparable")
	// ErrPanic marks a panic recovered from user code.
	ErrPanic = errors.New("panic recovered")
)

// Error provides rich context about a wrapped call or construction failure.
// It records the path through nested wrappers (outermost first), the
// arguments of the failing call, and timing information.
//
// Wrappers that see an *Error coming back from an inner component prepend
// their identity to Path rather than wrapping again, so a single Error
// describes the full stack.
type Error struct {
	Timestamp time.Time
	Err       error
	Args      Args
	Path      []Identity
	Duration  time.Duration
	Timeout   bool
	Canceled  bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	names := make([]string, len(e.Path))
	for i, id := range e.Path {
		names[i] = id.Name()
	}
	location := strings.Join(names, " -> ")
	if location == "" {
		location = "unknown"
	}

	if e.Timeout {
		return fmt.Sprintf("%s timed out after %v: %v", location, e.Duration, e.Err)
	}
	if e.Canceled {
		return fmt.Sprintf("%s canceled after %v: %v", location, e.Duration, e.Err)
	}
	return fmt.Sprintf("%s failed after %v: %v", location, e.Duration, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether the failure was caused by a deadline.
func (e *Error) IsTimeout() bool {
	return e.Timeout || errors.Is(e.Err, context.DeadlineExceeded)
}

// IsCanceled reports whether the failure was caused by cancellation.
func (e *Error) IsCanceled() bool {
	return e.Canceled || errors.Is(e.Err, context.Canceled)
}

// CallLimitError is returned once a CallLimiter's quota is spent.
type CallLimitError struct {
	Limit int
}

func (e *CallLimitError) Error() string {
	return fmt.Sprintf("number of calls exceeded (%d)", e.Limit)
}

// Is makes errors.Is(err, ErrCallLimitExceeded) hold.
func (*CallLimitError) Is(target error) bool {
	return target == ErrCallLimitExceeded
}

// wrapError attaches identity to err. When err is itself an *Error, a copy
// with identity prepended to its path is returned and err is left untouched.
// Anything else, including an *Error the caller wrapped with %w, is wrapped in
// a new *Error so the caller's context survives.
func wrapError(err error, identity Identity, args Args) error {
	return wrapErrorAt(err, identity, args, time.Now(), 0)
}

func wrapErrorAt(err error, identity Identity, args Args, now time.Time, elapsed time.Duration) error {
	if wErr, ok := err.(*Error); ok { //nolint:errorlint // only a bare envelope is extended
		out := *wErr
		out.Path = make([]Identity, 0, len(wErr.Path)+1)
		out.Path = append(out.Path, identity)
		out.Path = append(out.Path, wErr.Path...)
		return &out
	}
	return &Error{
		Timestamp: now,
		Err:       err,
		Args:      args,
		Path:      []Identity{identity},
		Duration:  elapsed,
		Timeout:   errors.Is(err, context.DeadlineExceeded),
		Canceled:  errors.Is(err, context.Canceled),
	}
}

// recoverFromPanic converts a panic in user code into an *Error.
// It must be deferred directly by the function whose results it fills.
func recoverFromPanic[R any](result *R, err *error, identity Identity, args Args) {
	r := recover()
	if r == nil {
		return
	}
	var zero R
	*result = zero
	*err = &Error{
		Timestamp: time.Now(),
		Err:       fmt.Errorf("%w: %s", ErrPanic, sanitizePanicMessage(r)),
		Args:      args,
		Path:      []Identity{identity},
	}
}

// sanitizePanicMessage keeps panic values from leaking unbounded text into
// error messages.
func sanitizePanicMessage(r any) string {
	msg := fmt.Sprintf("%v", r)
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	const maxLen = 200
	if len(msg) > maxLen {
		msg = msg[:maxLen] + "..."
	}
	return msg
}
