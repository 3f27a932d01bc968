package wrapz

import (
	"context"
	"fmt"
	"sync"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Metric keys for TakesNumbers.
const (
	TakesNumbersCallsTotal    = metricz.Key("takesnumbers.calls.total")
	TakesNumbersRejectedTotal = metricz.Key("takesnumbers.rejected.total")
)

// Span and tag names for TakesNumbers.
const (
	TakesNumbersCallSpan    = tracez.Key("takesnumbers.call")
	TakesNumbersTagRejected = tracez.Tag("takesnumbers.rejected")
)

// TakesNumbers only lets a call through when every argument, positional and
// named, is exactly an int or a float64. The check is on the dynamic type, so
// bool, int64, float32, named numeric types and nil are all rejected.
type TakesNumbers[R any] struct {
	callable Callable[R]
	identity Identity
	metrics  *metricz.Registry
	tracer   *tracez.Tracer
	clock    clockz.Clock
	mu       sync.RWMutex
}

// NewTakesNumbers wraps callable with a numeric argument gate.
func NewTakesNumbers[R any](identity Identity, callable Callable[R]) *TakesNumbers[R] {
	registry := metricz.New()
	registry.Counter(TakesNumbersCallsTotal)
	registry.Counter(TakesNumbersRejectedTotal)

	return &TakesNumbers[R]{
		identity: identity,
		callable: callable,
		metrics:  registry,
		tracer:   tracez.New(),
	}
}

// Call implements Callable.
func (g *TakesNumbers[R]) Call(ctx context.Context, args Args) (result R, err error) {
	defer recoverFromPanic(&result, &err, g.identity, args)

	clock := g.getClock()
	start := clock.Now()

	ctx, span := g.tracer.StartSpan(ctx, TakesNumbersCallSpan)
	defer span.Finish()
	g.metrics.Counter(TakesNumbersCallsTotal).Inc()

	for i, v := range args.Values() {
		if !isNumber(v) {
			g.metrics.Counter(TakesNumbersRejectedTotal).Inc()
			span.SetTag(TakesNumbersTagRejected, "true")
			return result, &Error{
				Timestamp: clock.Now(),
				Err:       fmt.Errorf("%w: argument %d is %T", ErrInvalidArgumentType, i, v),
				Args:      args,
				Path:      []Identity{g.identity},
			}
		}
	}
	span.SetTag(TakesNumbersTagRejected, "false")

	result, err = g.callable.Call(ctx, args)
	if err != nil {
		return result, wrapErrorAt(err, g.identity, args, clock.Now(), clock.Since(start))
	}
	return result, nil
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, float64:
		return true
	default:
		return false
	}
}

// WithClock sets a custom clock for testing.
func (g *TakesNumbers[R]) WithClock(clock clockz.Clock) *TakesNumbers[R] {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clock = clock
	return g
}

func (g *TakesNumbers[R]) getClock() clockz.Clock {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.clock == nil {
		return clockz.RealClock
	}
	return g.clock
}

// Identity returns the identity of this wrapper.
func (g *TakesNumbers[R]) Identity() Identity { return g.identity }

// Metrics returns the metrics registry for this wrapper.
func (g *TakesNumbers[R]) Metrics() *metricz.Registry { return g.metrics }

// Tracer returns the tracer for this wrapper.
func (g *TakesNumbers[R]) Tracer() *tracez.Tracer { return g.tracer }

// Close releases observability resources.
func (g *TakesNumbers[R]) Close() error {
	if g.tracer != nil {
		g.tracer.Close()
	}
	return nil
}
