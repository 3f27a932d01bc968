package wrapz

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Metric keys for CallLimiter observability.
const (
	CallLimiterCallsTotal    = metricz.Key("calllimiter.calls.total")
	CallLimiterAllowedTotal  = metricz.Key("calllimiter.allowed.total")
	CallLimiterRejectedTotal = metricz.Key("calllimiter.rejected.total")
	CallLimiterRemaining     = metricz.Key("calllimiter.remaining")
)

// Span and tag names for CallLimiter.
const (
	CallLimiterCallSpan = tracez.Key("calllimiter.call")

	CallLimiterTagAllowed   = tracez.Tag("calllimiter.allowed")
	CallLimiterTagRemaining = tracez.Tag("calllimiter.remaining")
	CallLimiterTagError     = tracez.Tag("calllimiter.error")

	// Hook event keys.
	CallLimiterEventExhausted = hookz.Key("calllimiter.exhausted")
)

// CallLimiterEvent is emitted when a call is rejected because the quota is spent.
type CallLimiterEvent struct {
	Name      Name
	Limit     int
	Args      Args
	Timestamp time.Time
}

// CallLimiter caps how many times the wrapped callable may be invoked.
// The quota is consumed before delegation and never restored: not by time,
// not by failures of the wrapped callable.
//
// CallLimiter is stateful. Create it once and share it; a fresh limiter per
// call never rejects anything.
//
//	var sendOnce = wrapz.NewCallLimiter(SendOnceID, 1, send)
//
//	_, err := sendOnce.Call(ctx, args) // delegates
//	_, err = sendOnce.Call(ctx, args)  // errors.Is(err, wrapz.ErrCallLimitExceeded)
type CallLimiter[R any] struct {
	callable  Callable[R]
	clock     clockz.Clock
	identity  Identity
	limit     int
	remaining int
	mu        sync.Mutex

	metrics *metricz.Registry
	tracer  *tracez.Tracer
	hooks   *hookz.Hooks[CallLimiterEvent]
}

// NewCallLimiter wraps callable so that it may be called at most n times.
// A negative n is treated as 0.
func NewCallLimiter[R any](identity Identity, n int, callable Callable[R]) *CallLimiter[R] {
	if n < 0 {
		n = 0
	}

	registry := metricz.New()
	registry.Counter(CallLimiterCallsTotal)
	registry.Counter(CallLimiterAllowedTotal)
	registry.Counter(CallLimiterRejectedTotal)
	registry.Gauge(CallLimiterRemaining).Set(float64(n))

	return &CallLimiter[R]{
		identity:  identity,
		callable:  callable,
		limit:     n,
		remaining: n,
		metrics:   registry,
		tracer:    tracez.New(),
		hooks:     hookz.New[CallLimiterEvent](),
	}
}

// Call implements Callable.
func (l *CallLimiter[R]) Call(ctx context.Context, args Args) (result R, err error) {
	defer recoverFromPanic(&result, &err, l.identity, args)

	ctx, span := l.tracer.StartSpan(ctx, CallLimiterCallSpan)
	defer span.Finish()

	l.metrics.Counter(CallLimiterCallsTotal).Inc()

	l.mu.Lock()
	clock := l.getClock()
	if l.remaining == 0 {
		limit := l.limit
		l.mu.Unlock()

		l.metrics.Counter(CallLimiterRejectedTotal).Inc()
		span.SetTag(CallLimiterTagAllowed, "false")

		capitan.Warn(ctx, SignalCallLimiterExhausted,
			FieldName.Field(l.identity.Name()),
			FieldIdentityID.Field(l.identity.ID().String()),
			FieldLimit.Field(limit),
		)
		_ = l.hooks.Emit(ctx, CallLimiterEventExhausted, CallLimiterEvent{ //nolint:errcheck
			Name:      l.identity.Name(),
			Limit:     limit,
			Args:      args,
			Timestamp: clock.Now(),
		})

		limitErr := &CallLimitError{Limit: limit}
		span.SetTag(CallLimiterTagError, limitErr.Error())
		return result, &Error{
			Timestamp: clock.Now(),
			Err:       limitErr,
			Args:      args,
			Path:      []Identity{l.identity},
		}
	}
	l.remaining--
	remaining := l.remaining
	callable := l.callable
	l.mu.Unlock()

	l.metrics.Counter(CallLimiterAllowedTotal).Inc()
	l.metrics.Gauge(CallLimiterRemaining).Set(float64(remaining))
	span.SetTag(CallLimiterTagAllowed, "true")
	span.SetTag(CallLimiterTagRemaining, strconv.Itoa(remaining))

	start := clock.Now()
	result, err = callable.Call(ctx, args)
	if err != nil {
		span.SetTag(CallLimiterTagError, err.Error())
		return result, wrapErrorAt(err, l.identity, args, clock.Now(), clock.Since(start))
	}
	return result, nil
}

// Remaining returns how many calls are still permitted.
func (l *CallLimiter[R]) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.remaining
}

// Limit returns the quota the limiter was created with.
func (l *CallLimiter[R]) Limit() int {
	return l.limit
}

// Identity returns the identity of this wrapper.
func (l *CallLimiter[R]) Identity() Identity {
	return l.identity
}

// Name returns the name of this wrapper.
func (l *CallLimiter[R]) Name() Name {
	return l.identity.Name()
}

// WithClock sets a custom clock for testing.
func (l *CallLimiter[R]) WithClock(clock clockz.Clock) *CallLimiter[R] {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clock = clock
	return l
}

func (l *CallLimiter[R]) getClock() clockz.Clock {
	if l.clock == nil {
		return clockz.RealClock
	}
	return l.clock
}

// Metrics returns the metrics registry for this wrapper.
func (l *CallLimiter[R]) Metrics() *metricz.Registry {
	return l.metrics
}

// Tracer returns the tracer for this wrapper.
func (l *CallLimiter[R]) Tracer() *tracez.Tracer {
	return l.tracer
}

// OnExhausted registers a handler for rejected calls.
// Handlers run asynchronously.
func (l *CallLimiter[R]) OnExhausted(handler func(context.Context, CallLimiterEvent) error) error {
	_, err := l.hooks.Hook(CallLimiterEventExhausted, handler)
	return err
}

// Close releases observability resources.
func (l *CallLimiter[R]) Close() error {
	if l.tracer != nil {
		l.tracer.Close()
	}
	l.hooks.Close()
	return nil
}
