package wrapz

import (
	"context"
	"slices"
	"sync"

	"github.com/zoobzio/metricz"
)

// Metric keys for Tracker.
const (
	TrackerInstancesTotal = metricz.Key("tracker.instances.total")
	TrackerFailuresTotal  = metricz.Key("tracker.failures.total")
)

// Tracker records every instance its constructor successfully initializes.
// The record belongs to the Tracker, so it is shared by all instances and
// lives as long as the Tracker does.
//
// Tracker wraps the initialize phase: an instance is appended after the inner
// initialization returns without error. Failed constructions leave no entry.
//
//	users := wrapz.TrackInstances(UserClass)
//	users.New(ctx, wrapz.Positional("ann"))
//	users.New(ctx, wrapz.Positional("bob"))
//	users.Instances() // [ann bob]
type Tracker[T any] struct {
	constructor Constructor[T]
	instances   []*T
	mu          sync.RWMutex
	metrics     *metricz.Registry
}

// TrackInstances wraps constructor with an instance record.
func TrackInstances[T any](constructor Constructor[T]) *Tracker[T] {
	registry := metricz.New()
	registry.Counter(TrackerInstancesTotal)
	registry.Counter(TrackerFailuresTotal)

	return &Tracker[T]{
		constructor: constructor,
		instances:   []*T{},
		metrics:     registry,
	}
}

// Allocate implements Constructor.
func (t *Tracker[T]) Allocate(ctx context.Context) (*T, error) {
	return t.constructor.Allocate(ctx)
}

// Initialize implements Constructor.
func (t *Tracker[T]) Initialize(ctx context.Context, obj *T, args Args) error {
	if err := t.constructor.Initialize(ctx, obj, args); err != nil {
		t.metrics.Counter(TrackerFailuresTotal).Inc()
		return err
	}

	t.mu.Lock()
	t.instances = append(t.instances, obj)
	t.mu.Unlock()

	t.metrics.Counter(TrackerInstancesTotal).Inc()
	return nil
}

// New implements Factory.
func (t *Tracker[T]) New(ctx context.Context, args Args) (*T, error) {
	return Construct[T](ctx, t, args)
}

// Instances returns the recorded instances in construction order.
// The slice is a copy; the instances are not.
func (t *Tracker[T]) Instances() []*T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.instances)
}

// Len returns the number of recorded instances.
func (t *Tracker[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.instances)
}

// Identity returns the identity of the wrapped constructor.
func (t *Tracker[T]) Identity() Identity { return t.constructor.Identity() }

// Metrics returns the metrics registry for this wrapper.
func (t *Tracker[T]) Metrics() *metricz.Registry { return t.metrics }
