package wrapz

import (
	"context"
	"sync"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/metricz"
)

// Metric keys for Singleton.
const (
	SingletonRequestsTotal = metricz.Key("singleton.requests.total")
	SingletonReusedTotal   = metricz.Key("singleton.reused.total")
)

// SingletonOption configures a Singleton.
type SingletonOption func(*singletonConfig)

type singletonConfig struct {
	reinitialize bool
}

// WithReinitialize makes every construction re-run initialization on the
// shared instance with the new arguments. By default initialization runs once.
func WithReinitialize() SingletonOption {
	return func(c *singletonConfig) {
		c.reinitialize = true
	}
}

// Singleton restricts its constructor to a single instance.
//
// Singleton wraps the allocate phase: the first request allocates and stores
// an instance, every later request gets the same pointer back, whatever the
// arguments. Initialization runs on the first construction only unless
// WithReinitialize is given.
//
// The slot is set once and never changes. If the first initialization fails,
// the instance stays in the slot and the next construction re-runs
// initialization on that same pointer.
type Singleton[T any] struct {
	constructor  Constructor[T]
	first        *T
	initialized  bool
	reinitialize bool
	mu           sync.Mutex
	metrics      *metricz.Registry
}

// NewSingleton wraps constructor.
func NewSingleton[T any](constructor Constructor[T], opts ...SingletonOption) *Singleton[T] {
	cfg := singletonConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	registry := metricz.New()
	registry.Counter(SingletonRequestsTotal)
	registry.Counter(SingletonReusedTotal)

	return &Singleton[T]{
		constructor:  constructor,
		reinitialize: cfg.reinitialize,
		metrics:      registry,
	}
}

// Allocate implements Constructor.
func (s *Singleton[T]) Allocate(ctx context.Context) (*T, error) {
	s.metrics.Counter(SingletonRequestsTotal).Inc()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.first != nil {
		s.metrics.Counter(SingletonReusedTotal).Inc()
		capitan.Info(ctx, SignalSingletonReused,
			FieldName.Field(s.constructor.Identity().Name()),
			FieldIdentityID.Field(s.constructor.Identity().ID().String()),
		)
		return s.first, nil
	}

	obj, err := s.constructor.Allocate(ctx)
	if err != nil {
		return nil, err
	}
	s.first = obj
	return obj, nil
}

// Initialize implements Constructor.
func (s *Singleton[T]) Initialize(ctx context.Context, obj *T, args Args) error {
	s.mu.Lock()
	skip := s.initialized && !s.reinitialize && obj == s.first
	s.mu.Unlock()
	if skip {
		return nil
	}

	if err := s.constructor.Initialize(ctx, obj, args); err != nil {
		return err
	}

	s.mu.Lock()
	if obj == s.first {
		s.initialized = true
	}
	s.mu.Unlock()
	return nil
}

// New implements Factory.
func (s *Singleton[T]) New(ctx context.Context, args Args) (*T, error) {
	return Construct[T](ctx, s, args)
}

// Instance returns the stored instance, if one has been initialized.
func (s *Singleton[T]) Instance() (*T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return nil, false
	}
	return s.first, true
}

// Identity returns the identity of the wrapped constructor.
func (s *Singleton[T]) Identity() Identity { return s.constructor.Identity() }

// Metrics returns the metrics registry for this wrapper.
func (s *Singleton[T]) Metrics() *metricz.Registry { return s.metrics }
