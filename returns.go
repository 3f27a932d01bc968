package wrapz

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Metric keys for Returns.
const (
	ReturnsCallsTotal    = metricz.Key("returns.calls.total")
	ReturnsRejectedTotal = metricz.Key("returns.rejected.total")
)

// Span and tag names for Returns.
const (
	ReturnsCallSpan   = tracez.Key("returns.call")
	ReturnsTagActual  = tracez.Tag("returns.actual")
	ReturnsTagMatched = tracez.Tag("returns.matched")
)

// TypeFor returns the reflect.Type of T. It is a shorthand for building the
// expected-type arguments of NewReturns and NewTypeCheck:
//
//	wrapz.NewTypeCheck(id, []reflect.Type{wrapz.TypeFor[int](), wrapz.TypeFor[string]()}, fn)
func TypeFor[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}

// Returns checks that the wrapped callable's result has exactly the expected
// dynamic type. It is not an assignability check: a *bytes.Buffer result fails
// a check for io.Reader, and 1.0 fails a check for int.
//
// Errors from the wrapped callable propagate without a type check.
type Returns[R any] struct {
	callable Callable[R]
	expected reflect.Type
	identity Identity
	metrics  *metricz.Registry
	tracer   *tracez.Tracer
	clock    clockz.Clock
	mu       sync.RWMutex
}

// NewReturns wraps callable with a result type check against expected.
// A nil expected type accepts only a nil result.
func NewReturns[R any](identity Identity, expected reflect.Type, callable Callable[R]) *Returns[R] {
	registry := metricz.New()
	registry.Counter(ReturnsCallsTotal)
	registry.Counter(ReturnsRejectedTotal)

	return &Returns[R]{
		identity: identity,
		expected: expected,
		callable: callable,
		metrics:  registry,
		tracer:   tracez.New(),
	}
}

// Call implements Callable.
func (r *Returns[R]) Call(ctx context.Context, args Args) (result R, err error) {
	defer recoverFromPanic(&result, &err, r.identity, args)

	clock := r.getClock()
	start := clock.Now()

	ctx, span := r.tracer.StartSpan(ctx, ReturnsCallSpan)
	defer span.Finish()
	r.metrics.Counter(ReturnsCallsTotal).Inc()

	result, err = r.callable.Call(ctx, args)
	if err != nil {
		return result, wrapErrorAt(err, r.identity, args, clock.Now(), clock.Since(start))
	}

	actual := reflect.TypeOf(result)
	span.SetTag(ReturnsTagActual, fmt.Sprint(actual))
	if actual != r.expected {
		r.metrics.Counter(ReturnsRejectedTotal).Inc()
		span.SetTag(ReturnsTagMatched, "false")
		var zero R
		return zero, &Error{
			Timestamp: clock.Now(),
			Err:       fmt.Errorf("%w: expected %v, got %v", ErrUnexpectedReturnType, r.expected, actual),
			Args:      args,
			Path:      []Identity{r.identity},
		}
	}
	span.SetTag(ReturnsTagMatched, "true")
	return result, nil
}

// Expected returns the type results are checked against.
func (r *Returns[R]) Expected() reflect.Type { return r.expected }

// WithClock sets a custom clock for testing.
func (r *Returns[R]) WithClock(clock clockz.Clock) *Returns[R] {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clock = clock
	return r
}

func (r *Returns[R]) getClock() clockz.Clock {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.clock == nil {
		return clockz.RealClock
	}
	return r.clock
}

// Identity returns the identity of this wrapper.
func (r *Returns[R]) Identity() Identity { return r.identity }

// Metrics returns the metrics registry for this wrapper.
func (r *Returns[R]) Metrics() *metricz.Registry { return r.metrics }

// Tracer returns the tracer for this wrapper.
func (r *Returns[R]) Tracer() *tracez.Tracer { return r.tracer }

// Close releases observability resources.
func (r *Returns[R]) Close() error {
	if r.tracer != nil {
		r.tracer.Close()
	}
	return nil
}
