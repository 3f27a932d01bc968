package wrapz

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Metric keys for TypeCheck.
const (
	TypeCheckCallsTotal    = metricz.Key("typecheck.calls.total")
	TypeCheckRejectedTotal = metricz.Key("typecheck.rejected.total")
)

// Span and tag names for TypeCheck.
const (
	TypeCheckCallSpan   = tracez.Key("typecheck.call")
	TypeCheckTagChecked = tracez.Tag("typecheck.checked")
	TypeCheckTagIndex   = tracez.Tag("typecheck.mismatch_index")
)

// TypeCheck validates positional arguments against a list of expected types.
// Argument i is compared with types[i] for every i below the shorter of the two
// lengths; extra arguments and extra types are ignored, and named arguments are
// never checked. Comparison is exact dynamic type equality.
type TypeCheck[R any] struct {
	callable Callable[R]
	types    []reflect.Type
	identity Identity
	metrics  *metricz.Registry
	tracer   *tracez.Tracer
	clock    clockz.Clock
	mu       sync.RWMutex
}

// NewTypeCheck wraps callable with a positional type check.
// The types slice is copied.
func NewTypeCheck[R any](identity Identity, types []reflect.Type, callable Callable[R]) *TypeCheck[R] {
	registry := metricz.New()
	registry.Counter(TypeCheckCallsTotal)
	registry.Counter(TypeCheckRejectedTotal)

	return &TypeCheck[R]{
		identity: identity,
		types:    slices.Clone(types),
		callable: callable,
		metrics:  registry,
		tracer:   tracez.New(),
	}
}

// Call implements Callable.
func (c *TypeCheck[R]) Call(ctx context.Context, args Args) (result R, err error) {
	defer recoverFromPanic(&result, &err, c.identity, args)

	clock := c.getClock()
	start := clock.Now()

	ctx, span := c.tracer.StartSpan(ctx, TypeCheckCallSpan)
	defer span.Finish()
	c.metrics.Counter(TypeCheckCallsTotal).Inc()

	n := min(len(args.Positional), len(c.types))
	span.SetTag(TypeCheckTagChecked, fmt.Sprint(n))
	for i := 0; i < n; i++ {
		actual := reflect.TypeOf(args.Positional[i])
		if actual != c.types[i] {
			c.metrics.Counter(TypeCheckRejectedTotal).Inc()
			span.SetTag(TypeCheckTagIndex, fmt.Sprint(i))
			return result, &Error{
				Timestamp: clock.Now(),
				Err: fmt.Errorf("%w: argument %d: expected %v, got %v",
					ErrPositionalTypeMismatch, i, c.types[i], actual),
				Args: args,
				Path: []Identity{c.identity},
			}
		}
	}

	result, err = c.callable.Call(ctx, args)
	if err != nil {
		return result, wrapErrorAt(err, c.identity, args, clock.Now(), clock.Since(start))
	}
	return result, nil
}

// Types returns a copy of the expected types.
func (c *TypeCheck[R]) Types() []reflect.Type { return slices.Clone(c.types) }

// WithClock sets a custom clock for testing.
func (c *TypeCheck[R]) WithClock(clock clockz.Clock) *TypeCheck[R] {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clock = clock
	return c
}

func (c *TypeCheck[R]) getClock() clockz.Clock {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.clock == nil {
		return clockz.RealClock
	}
	return c.clock
}

// Identity returns the identity of this wrapper.
func (c *TypeCheck[R]) Identity() Identity { return c.identity }

// Metrics returns the metrics registry for this wrapper.
func (c *TypeCheck[R]) Metrics() *metricz.Registry { return c.metrics }

// Tracer returns the tracer for this wrapper.
func (c *TypeCheck[R]) Tracer() *tracez.Tracer { return c.tracer }

// Close releases observability resources.
func (c *TypeCheck[R]) Close() error {
	if c.tracer != nil {
		c.tracer.Close()
	}
	return nil
}
