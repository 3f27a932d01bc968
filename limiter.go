package wrapz

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Lookup selects which stored instance a full Limiter returns for an unknown
// identity value.
type Lookup int

const (
	// First returns the first instance ever stored.
	First Lookup = iota
	// Last returns the most recently stored instance.
	Last
)

func (l Lookup) String() string {
	switch l {
	case First:
		return "FIRST"
	case Last:
		return "LAST"
	default:
		return fmt.Sprintf("Lookup(%d)", int(l))
	}
}

// ParseLookup parses "FIRST" or "LAST", case-insensitively.
func ParseLookup(s string) (Lookup, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FIRST":
		return First, nil
	case "LAST":
		return Last, nil
	default:
		return First, fmt.Errorf("invalid lookup %q: want FIRST or LAST", s)
	}
}

// Metric keys for Limiter.
const (
	LimiterRequestsTotal   = metricz.Key("limiter.requests.total")
	LimiterStoredTotal     = metricz.Key("limiter.stored.total")
	LimiterDuplicatesTotal = metricz.Key("limiter.duplicates.total")
	LimiterOverflowsTotal  = metricz.Key("limiter.overflows.total")
	LimiterStored          = metricz.Key("limiter.stored")
)

// Span and tag names for Limiter.
const (
	LimiterNewSpan      = tracez.Key("limiter.new")
	LimiterTagKey       = tracez.Tag("limiter.key")
	LimiterTagOutcome   = tracez.Tag("limiter.outcome")
	LimiterTagError     = tracez.Tag("limiter.error")
	limiterOutcomeStore = "stored"
	limiterOutcomeDup   = "duplicate"
	limiterOutcomeFull  = "overflow"

	// Hook event keys.
	LimiterEventOverflow = hookz.Key("limiter.overflow")
)

// LimiterEvent is emitted when a full Limiter discards a candidate and
// returns a stored instance instead.
type LimiterEvent struct {
	Name      Name
	Key       any
	Lookup    Lookup
	Stored    int
	Timestamp time.Time
}

// Limiter caps the number of distinct instances a factory may produce.
// Instances are keyed by the value of one attribute (the identity attribute).
//
// Every call to New first builds a complete candidate through the wrapped
// factory, side effects included, then reads its identity value:
//  1. a known value returns the instance already stored for it;
//  2. if limit instances are stored, the candidate is discarded and the first
//     (First) or most recently stored (Last) instance is returned;
//  3. otherwise the candidate is stored and returned.
//
// Stored instances are never replaced or evicted. Side effects of discarded
// candidates are not undone.
//
//	var sessions = wrapz.NewLimiter(SessionsID, SessionClass, 2, "id", wrapz.Last)
type Limiter[T any] struct {
	factory Factory[T]
	clock   clockz.Clock
	unique  string
	keys    []any
	stored  map[any]*T
	lookup  Lookup
	limit   int
	mu      sync.Mutex

	identity Identity
	metrics  *metricz.Registry
	tracer   *tracez.Tracer
	hooks    *hookz.Hooks[LimiterEvent]
}

// NewLimiter wraps factory with an instance limit. A negative limit is
// treated as 0; a zero limit stores nothing and every construction fails
// with ErrLimitExhausted.
func NewLimiter[T any](identity Identity, factory Factory[T], limit int, unique string, lookup Lookup) *Limiter[T] {
	if limit < 0 {
		limit = 0
	}

	registry := metricz.New()
	registry.Counter(LimiterRequestsTotal)
	registry.Counter(LimiterStoredTotal)
	registry.Counter(LimiterDuplicatesTotal)
	registry.Counter(LimiterOverflowsTotal)
	registry.Gauge(LimiterStored)

	return &Limiter[T]{
		identity: identity,
		factory:  factory,
		limit:    limit,
		unique:   unique,
		lookup:   lookup,
		stored:   make(map[any]*T, limit),
		metrics:  registry,
		tracer:   tracez.New(),
		hooks:    hookz.New[LimiterEvent](),
	}
}

// New implements Factory.
func (l *Limiter[T]) New(ctx context.Context, args Args) (obj *T, err error) {
	defer recoverFromPanic(&obj, &err, l.identity, args)

	ctx, span := l.tracer.StartSpan(ctx, LimiterNewSpan)
	defer span.Finish()
	l.metrics.Counter(LimiterRequestsTotal).Inc()

	candidate, err := l.factory.New(ctx, args)
	if err != nil {
		span.SetTag(LimiterTagError, err.Error())
		return nil, wrapError(err, l.identity, args)
	}

	key, err := Attribute(candidate, l.unique)
	if err != nil {
		span.SetTag(LimiterTagError, err.Error())
		return nil, l.fail(err, args)
	}
	if !hashable(key) {
		err = fmt.Errorf("%w: %s is %T", ErrUnhashableIdentity, l.unique, key)
		span.SetTag(LimiterTagError, err.Error())
		return nil, l.fail(err, args)
	}
	span.SetTag(LimiterTagKey, fmt.Sprint(key))

	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.stored[key]; ok {
		l.metrics.Counter(LimiterDuplicatesTotal).Inc()
		span.SetTag(LimiterTagOutcome, limiterOutcomeDup)
		capitan.Info(ctx, SignalLimiterDuplicate,
			FieldName.Field(l.identity.Name()),
			FieldIdentityID.Field(l.identity.ID().String()),
			FieldUnique.Field(l.unique),
			FieldKey.Field(fmt.Sprint(key)),
		)
		return existing, nil
	}

	if len(l.keys) >= l.limit {
		if len(l.keys) == 0 {
			err = fmt.Errorf("%w: limit is 0", ErrLimitExhausted)
			span.SetTag(LimiterTagError, err.Error())
			return nil, l.fail(err, args)
		}

		pick := l.keys[0]
		if l.lookup == Last {
			pick = l.keys[len(l.keys)-1]
		}

		l.metrics.Counter(LimiterOverflowsTotal).Inc()
		span.SetTag(LimiterTagOutcome, limiterOutcomeFull)
		capitan.Warn(ctx, SignalLimiterOverflow,
			FieldName.Field(l.identity.Name()),
			FieldIdentityID.Field(l.identity.ID().String()),
			FieldUnique.Field(l.unique),
			FieldKey.Field(fmt.Sprint(key)),
			FieldLookup.Field(l.lookup.String()),
			FieldStored.Field(len(l.keys)),
			FieldLimit.Field(l.limit),
		)
		_ = l.hooks.Emit(ctx, LimiterEventOverflow, LimiterEvent{ //nolint:errcheck
			Name:      l.identity.Name(),
			Key:       key,
			Lookup:    l.lookup,
			Stored:    len(l.keys),
			Timestamp: l.getClock().Now(),
		})
		return l.stored[pick], nil
	}

	l.keys = append(l.keys, key)
	l.stored[key] = candidate
	l.metrics.Counter(LimiterStoredTotal).Inc()
	l.metrics.Gauge(LimiterStored).Set(float64(len(l.keys)))
	span.SetTag(LimiterTagOutcome, limiterOutcomeStore)
	return candidate, nil
}

// hashable reports whether key can be stored in a map. reflect.Value's
// Comparable also rejects interface fields holding uncomparable values.
func hashable(key any) bool {
	return key != nil && reflect.ValueOf(key).Comparable()
}

func (l *Limiter[T]) fail(err error, args Args) error {
	return &Error{
		Timestamp: l.getClock().Now(),
		Err:       err,
		Args:      args,
		Path:      []Identity{l.identity},
	}
}

// Len returns the number of stored instances.
func (l *Limiter[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.keys)
}

// Instances returns the stored instances in insertion order.
func (l *Limiter[T]) Instances() []*T {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*T, len(l.keys))
	for i, k := range l.keys {
		out[i] = l.stored[k]
	}
	return out
}

// Get returns the instance stored under key.
func (l *Limiter[T]) Get(key any) (*T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !hashable(key) {
		return nil, false
	}
	obj, ok := l.stored[key]
	return obj, ok
}

// Limit returns the configured capacity.
func (l *Limiter[T]) Limit() int { return l.limit }

// Unique returns the identity attribute name.
func (l *Limiter[T]) Unique() string { return l.unique }

// Lookup returns the overflow policy.
func (l *Limiter[T]) Lookup() Lookup { return l.lookup }

// Identity returns the identity of this wrapper.
func (l *Limiter[T]) Identity() Identity { return l.identity }

// WithClock sets a custom clock for testing.
func (l *Limiter[T]) WithClock(clock clockz.Clock) *Limiter[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clock = clock
	return l
}

func (l *Limiter[T]) getClock() clockz.Clock {
	if l.clock == nil {
		return clockz.RealClock
	}
	return l.clock
}

// Metrics returns the metrics registry for this wrapper.
func (l *Limiter[T]) Metrics() *metricz.Registry { return l.metrics }

// Tracer returns the tracer for this wrapper.
func (l *Limiter[T]) Tracer() *tracez.Tracer { return l.tracer }

// OnOverflow registers a handler for constructions resolved by the lookup
// policy. Handlers run asynchronously.
func (l *Limiter[T]) OnOverflow(handler func(context.Context, LimiterEvent) error) error {
	_, err := l.hooks.Hook(LimiterEventOverflow, handler)
	return err
}

// Close releases observability resources.
func (l *Limiter[T]) Close() error {
	if l.tracer != nil {
		l.tracer.Close()
	}
	l.hooks.Close()
	return nil
}
