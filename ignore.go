package wrapz

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Metric keys for IgnoreErrors.
const (
	IgnoreCallsTotal      = metricz.Key("ignore.calls.total")
	IgnoreSuppressedTotal = metricz.Key("ignore.suppressed.total")
	IgnoreRaisedTotal     = metricz.Key("ignore.raised.total")
)

// Span and tag names for IgnoreErrors.
const (
	IgnoreCallSpan      = tracez.Key("ignore.call")
	IgnoreTagSuppressed = tracez.Tag("ignore.suppressed")
	IgnoreTagKind       = tracez.Tag("ignore.kind")

	// Hook event keys.
	IgnoreEventSuppressed = hookz.Key("ignore.suppressed")
)

// ErrorKind selects the errors an IgnoreErrors wrapper swallows.
// Matching is exact: a kind never matches an error that merely wraps it.
type ErrorKind interface {
	Match(err error) bool
	String() string
}

type sentinelKind struct {
	target error
}

// Sentinel returns a kind that matches err itself, compared with ==.
// An error wrapping err (fmt.Errorf("...: %w", err)) does not match.
func Sentinel(err error) ErrorKind {
	return sentinelKind{target: err}
}

func (k sentinelKind) Match(err error) bool { return err == k.target } //nolint:errorlint // exact match intended

func (k sentinelKind) String() string { return k.target.Error() }

type typeKind struct {
	typ reflect.Type
}

// KindOf returns a kind that matches errors whose dynamic type is exactly E.
//
//	type ValueError struct{ msg string }
//	func (e *ValueError) Error() string { return e.msg }
//
//	wrapz.KindOf[*ValueError]() // matches &ValueError{...}, not a wrapper around one
func KindOf[E error]() ErrorKind {
	return typeKind{typ: reflect.TypeFor[E]()}
}

func (k typeKind) Match(err error) bool { return reflect.TypeOf(err) == k.typ }

func (k typeKind) String() string {
	t := k.typ
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return k.typ.String()
}

// IgnoreEvent describes one suppressed error.
type IgnoreEvent struct {
	Name      Name
	Kind      string
	Error     error
	Args      Args
	Timestamp time.Time
}

// IgnoreErrors turns selected errors of the wrapped callable into no-ops.
//
// When the callable returns an error matching one of the configured kinds,
// IgnoreErrors returns the zero value of R and a nil error, and emits a single
// notice naming the kind: a capitan Info signal (SignalIgnoreHandled) and an
// IgnoreEvent to OnSuppressed handlers. Any other error is returned exactly as
// the callable produced it.
//
// The *Error envelope added by wrapz adapters is looked through before
// matching, so Apply-based callables can be wrapped directly. Recovered panics
// never match.
type IgnoreErrors[R any] struct {
	callable Callable[R]
	clock    clockz.Clock
	kinds    []ErrorKind
	identity Identity
	mu       sync.RWMutex

	metrics *metricz.Registry
	tracer  *tracez.Tracer
	hooks   *hookz.Hooks[IgnoreEvent]
}

// NewIgnoreErrors wraps callable so that errors of the given kinds are
// suppressed. Kinds are checked in order; the first match names the notice.
func NewIgnoreErrors[R any](identity Identity, callable Callable[R], kinds ...ErrorKind) *IgnoreErrors[R] {
	registry := metricz.New()
	registry.Counter(IgnoreCallsTotal)
	registry.Counter(IgnoreSuppressedTotal)
	registry.Counter(IgnoreRaisedTotal)

	return &IgnoreErrors[R]{
		identity: identity,
		callable: callable,
		kinds:    slices.Clone(kinds),
		metrics:  registry,
		tracer:   tracez.New(),
		hooks:    hookz.New[IgnoreEvent](),
	}
}

// Call implements Callable.
func (g *IgnoreErrors[R]) Call(ctx context.Context, args Args) (result R, err error) {
	defer recoverFromPanic(&result, &err, g.identity, args)

	ctx, span := g.tracer.StartSpan(ctx, IgnoreCallSpan)
	defer span.Finish()
	g.metrics.Counter(IgnoreCallsTotal).Inc()

	g.mu.RLock()
	callable := g.callable
	kinds := g.kinds
	clock := g.getClock()
	g.mu.RUnlock()

	result, err = callable.Call(ctx, args)
	if err == nil {
		span.SetTag(IgnoreTagSuppressed, "false")
		return result, nil
	}

	cause := unwrapEnvelope(err)
	for _, kind := range kinds {
		if !kind.Match(cause) {
			continue
		}
		name := kind.String()
		g.metrics.Counter(IgnoreSuppressedTotal).Inc()
		span.SetTag(IgnoreTagSuppressed, "true")
		span.SetTag(IgnoreTagKind, name)

		capitan.Info(ctx, SignalIgnoreHandled,
			FieldName.Field(g.identity.Name()),
			FieldIdentityID.Field(g.identity.ID().String()),
			FieldKind.Field(name),
			FieldMessage.Field(fmt.Sprintf("error %s handled", name)),
			FieldError.Field(cause.Error()),
		)
		_ = g.hooks.Emit(ctx, IgnoreEventSuppressed, IgnoreEvent{ //nolint:errcheck
			Name:      g.identity.Name(),
			Kind:      name,
			Error:     cause,
			Args:      args,
			Timestamp: clock.Now(),
		})

		var zero R
		return zero, nil
	}

	g.metrics.Counter(IgnoreRaisedTotal).Inc()
	span.SetTag(IgnoreTagSuppressed, "false")
	return result, err
}

// unwrapEnvelope strips *Error layers added by wrapz itself. User wrapping
// below them is left alone.
func unwrapEnvelope(err error) error {
	for {
		wErr, ok := err.(*Error) //nolint:errorlint // only wrapz's own layers
		if !ok {
			return err
		}
		err = wErr.Err
	}
}

// Kinds returns the configured kinds.
func (g *IgnoreErrors[R]) Kinds() []ErrorKind {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.kinds)
}

// Identity returns the identity of this wrapper.
func (g *IgnoreErrors[R]) Identity() Identity { return g.identity }

// WithClock sets a custom clock for testing.
func (g *IgnoreErrors[R]) WithClock(clock clockz.Clock) *IgnoreErrors[R] {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clock = clock
	return g
}

func (g *IgnoreErrors[R]) getClock() clockz.Clock {
	if g.clock == nil {
		return clockz.RealClock
	}
	return g.clock
}

// Metrics returns the metrics registry for this wrapper.
func (g *IgnoreErrors[R]) Metrics() *metricz.Registry { return g.metrics }

// Tracer returns the tracer for this wrapper.
func (g *IgnoreErrors[R]) Tracer() *tracez.Tracer { return g.tracer }

// OnSuppressed registers a handler for suppressed errors.
// Handlers run asynchronously.
func (g *IgnoreErrors[R]) OnSuppressed(handler func(context.Context, IgnoreEvent) error) error {
	_, err := g.hooks.Hook(IgnoreEventSuppressed, handler)
	return err
}

// Close releases observability resources.
func (g *IgnoreErrors[R]) Close() error {
	if g.tracer != nil {
		g.tracer.Close()
	}
	g.hooks.Close()
	return nil
}
