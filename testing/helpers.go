// Package testing provides test utilities and helpers for wrapz-based applications.
//
// This package includes mock callables and constructors, assertion helpers,
// and chaos testing tools to make testing wrapped functions easier.
//
// Example usage:
//
//	func TestQuota(t *testing.T) {
//		mock := testing.NewMockCallable[string](t, "mock-send")
//		mock.WithReturn("sent", nil)
//
//		limited := wrapz.NewCallLimiter(LimitID, 2, mock)
//		limited.Call(ctx, wrapz.Positional("a"))
//		limited.Call(ctx, wrapz.Positional("b"))
//		limited.Call(ctx, wrapz.Positional("c"))
//
//		testing.AssertCalled(t, mock, 2)
//	}
package testing

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	mathrand "math/rand"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zoobzio/wrapz"
)

// MockCallable provides a configurable mock implementation of wrapz.Callable[R].
// It tracks calls, allows configuring return values and delays, and provides
// assertion methods for testing wrapper behavior.
type MockCallable[R any] struct { //nolint:govet // fieldalignment: Test helper struct optimized for functionality over memory efficiency
	t           *testing.T
	identity    wrapz.Identity
	callCount   int64
	lastArgs    wrapz.Args
	returnVal   R
	returnErr   error
	delay       time.Duration
	panicMsg    string
	mu          sync.RWMutex
	callHistory []MockCall
	maxHistory  int
}

// MockCall represents a single call to a mock.
type MockCall struct {
	Args      wrapz.Args
	Timestamp time.Time
	Context   context.Context
}

// NewMockCallable creates a new mock callable for testing.
// The mock tracks all calls and provides configurable behavior.
func NewMockCallable[R any](t *testing.T, name string) *MockCallable[R] {
	return &MockCallable[R]{
		t:          t,
		identity:   wrapz.NewIdentity(name, "mock callable"),
		maxHistory: 100, // Keep last 100 calls by default
	}
}

// WithReturn configures the mock to return specific values.
// The mock will return these values for all subsequent calls.
func (m *MockCallable[R]) WithReturn(val R, err error) *MockCallable[R] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.returnVal = val
	m.returnErr = err
	return m
}

// WithDelay configures the mock to delay execution.
func (m *MockCallable[R]) WithDelay(d time.Duration) *MockCallable[R] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
	return m
}

// WithPanic configures the mock to panic with a specific message.
// This is useful for testing panic recovery in wrappers.
func (m *MockCallable[R]) WithPanic(msg string) *MockCallable[R] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panicMsg = msg
	return m
}

// WithHistorySize configures how many calls to keep in history.
// Set to 0 to disable history tracking.
func (m *MockCallable[R]) WithHistorySize(size int) *MockCallable[R] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxHistory = size
	if size == 0 {
		m.callHistory = nil
	} else if len(m.callHistory) > size {
		m.callHistory = m.callHistory[len(m.callHistory)-size:]
	}
	return m
}

// Identity returns the identity of the mock.
func (m *MockCallable[R]) Identity() wrapz.Identity {
	return m.identity
}

// Call implements wrapz.Callable[R]. It records the call and returns the
// configured values, potentially after a delay or panic.
func (m *MockCallable[R]) Call(ctx context.Context, args wrapz.Args) (R, error) {
	atomic.AddInt64(&m.callCount, 1)

	m.mu.Lock()
	m.lastArgs = args
	m.callHistory = record(m.callHistory, m.maxHistory, MockCall{
		Args:      args,
		Timestamp: time.Now(),
		Context:   ctx,
	})

	delay := m.delay
	returnVal := m.returnVal
	returnErr := m.returnErr
	panicMsg := m.panicMsg
	m.mu.Unlock()

	if panicMsg != "" {
		panic(panicMsg)
	}

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			var zero R
			return zero, ctx.Err()
		}
	}

	return returnVal, returnErr
}

func record(history []MockCall, limit int, call MockCall) []MockCall {
	if limit <= 0 {
		return history
	}
	history = append(history, call)
	if len(history) > limit {
		history = history[1:] // Remove oldest
	}
	return history
}

// CallCount returns the number of times Call has been invoked.
func (m *MockCallable[R]) CallCount() int {
	return int(atomic.LoadInt64(&m.callCount))
}

// LastArgs returns the arguments of the most recent call.
func (m *MockCallable[R]) LastArgs() wrapz.Args {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastArgs
}

// CallHistory returns a copy of all recorded calls.
// Returns nil if history tracking is disabled.
func (m *MockCallable[R]) CallHistory() []MockCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.maxHistory == 0 {
		return nil
	}
	history := make([]MockCall, len(m.callHistory))
	copy(history, m.callHistory)
	return history
}

// Reset clears all call tracking.
func (m *MockCallable[R]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	atomic.StoreInt64(&m.callCount, 0)
	m.lastArgs = wrapz.Args{}
	m.callHistory = nil
}

// MockConstructor is a wrapz.Constructor[T] that counts both construction
// phases and can be told to fail either one.
type MockConstructor[T any] struct {
	identity     wrapz.Identity
	init         func(*T, wrapz.Args)
	allocations  int64
	initializing int64
	allocErr     error
	initErr      error
	mu           sync.RWMutex
}

// NewMockConstructor creates a constructor whose instances start at the zero
// value of T. init, if non-nil, runs during initialization.
func NewMockConstructor[T any](name string, init func(*T, wrapz.Args)) *MockConstructor[T] {
	return &MockConstructor[T]{
		identity: wrapz.NewIdentity(name, "mock constructor"),
		init:     init,
	}
}

// WithAllocateError makes every Allocate fail with err.
func (m *MockConstructor[T]) WithAllocateError(err error) *MockConstructor[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allocErr = err
	return m
}

// WithInitializeError makes every Initialize fail with err.
func (m *MockConstructor[T]) WithInitializeError(err error) *MockConstructor[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initErr = err
	return m
}

// Allocate implements wrapz.Constructor.
func (m *MockConstructor[T]) Allocate(context.Context) (*T, error) {
	atomic.AddInt64(&m.allocations, 1)
	m.mu.RLock()
	err := m.allocErr
	m.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	return new(T), nil
}

// Initialize implements wrapz.Constructor.
func (m *MockConstructor[T]) Initialize(_ context.Context, obj *T, args wrapz.Args) error {
	atomic.AddInt64(&m.initializing, 1)
	m.mu.RLock()
	err := m.initErr
	m.mu.RUnlock()
	if err != nil {
		return err
	}
	if m.init != nil {
		m.init(obj, args)
	}
	return nil
}

// New implements wrapz.Factory.
func (m *MockConstructor[T]) New(ctx context.Context, args wrapz.Args) (*T, error) {
	return wrapz.Construct[T](ctx, m, args)
}

// Identity returns the identity of the mock.
func (m *MockConstructor[T]) Identity() wrapz.Identity {
	return m.identity
}

// Allocations returns the number of Allocate calls.
func (m *MockConstructor[T]) Allocations() int {
	return int(atomic.LoadInt64(&m.allocations))
}

// Initializations returns the number of Initialize calls.
func (m *MockConstructor[T]) Initializations() int {
	return int(atomic.LoadInt64(&m.initializing))
}

// Assertion Helpers

// AssertCalled verifies that a mock callable was called exactly n times.
func AssertCalled[R any](t *testing.T, mock *MockCallable[R], expectedCalls int) {
	t.Helper()
	actualCalls := mock.CallCount()
	if actualCalls != expectedCalls {
		t.Errorf("expected mock callable %s to be called %d times, but was called %d times",
			mock.identity.Name(), expectedCalls, actualCalls)
	}
}

// AssertNotCalled verifies that a mock callable was never called.
func AssertNotCalled[R any](t *testing.T, mock *MockCallable[R]) {
	t.Helper()
	AssertCalled(t, mock, 0)
}

// AssertCalledWith verifies that the most recent call received positional
// values equal (by reflect.DeepEqual) to expected.
func AssertCalledWith[R any](t *testing.T, mock *MockCallable[R], expected ...any) {
	t.Helper()
	if mock.CallCount() == 0 {
		t.Errorf("expected mock callable %s to be called with %v, but it was never called",
			mock.identity.Name(), expected)
		return
	}

	actual := mock.LastArgs().Positional
	if len(actual) == 0 && len(expected) == 0 {
		return
	}
	if !reflect.DeepEqual(actual, expected) {
		t.Errorf("expected mock callable %s to be called with %v, but was called with %v",
			mock.identity.Name(), expected, actual)
	}
}

// AssertCalledBetween verifies that a mock callable was called between min and max times.
func AssertCalledBetween[R any](t *testing.T, mock *MockCallable[R], minCalls, maxCalls int) {
	t.Helper()
	actualCalls := mock.CallCount()
	if actualCalls < minCalls || actualCalls > maxCalls {
		t.Errorf("expected mock callable %s to be called between %d and %d times, but was called %d times",
			mock.identity.Name(), minCalls, maxCalls, actualCalls)
	}
}

// AssertConstructed verifies the number of completed allocate phases.
func AssertConstructed[T any](t *testing.T, mock *MockConstructor[T], expected int) {
	t.Helper()
	if actual := mock.Allocations(); actual != expected {
		t.Errorf("expected mock constructor %s to allocate %d times, but allocated %d times",
			mock.identity.Name(), expected, actual)
	}
}

// ChaosCallable introduces controlled failures and panics for chaos testing.
// It wraps another callable and randomly injects faults at configured rates.
type ChaosCallable[R any] struct { //nolint:govet // fieldalignment: Test helper struct optimized for functionality over memory efficiency
	identity    wrapz.Identity
	wrapped     wrapz.Callable[R]
	failureRate float64
	panicRate   float64
	rng         *mathrand.Rand
	mu          sync.Mutex
	totalCalls  int64
	failedCalls int64
	panicCalls  int64
}

// ChaosConfig holds configuration for chaos testing.
type ChaosConfig struct {
	FailureRate float64 // Probability of returning an error (0.0 to 1.0)
	PanicRate   float64 // Probability of panicking (0.0 to 1.0)
	Seed        int64   // Random seed for reproducible chaos (0 for random seed)
}

// ErrChaos is returned by a ChaosCallable's injected failures.
var ErrChaos = errors.New("chaos callable induced failure")

// NewChaosCallable creates a chaos callable that wraps another callable.
func NewChaosCallable[R any](name string, wrapped wrapz.Callable[R], config ChaosConfig) *ChaosCallable[R] {
	seed := config.Seed
	if seed == 0 {
		var seedBytes [8]byte
		if _, err := rand.Read(seedBytes[:]); err != nil {
			seed = time.Now().UnixNano()
		} else {
			for _, b := range seedBytes {
				seed = seed<<8 | int64(b)
			}
		}
	}

	return &ChaosCallable[R]{
		identity:    wrapz.NewIdentity(name, "chaos callable"),
		wrapped:     wrapped,
		failureRate: config.FailureRate,
		panicRate:   config.PanicRate,
		rng:         mathrand.New(mathrand.NewSource(seed)), //nolint:gosec // G404: Test utility uses weak RNG for deterministic chaos scenarios
	}
}

// Identity returns the identity of the chaos callable.
func (c *ChaosCallable[R]) Identity() wrapz.Identity {
	return c.identity
}

// Call implements wrapz.Callable[R] with chaos injection.
func (c *ChaosCallable[R]) Call(ctx context.Context, args wrapz.Args) (R, error) {
	atomic.AddInt64(&c.totalCalls, 1)

	c.mu.Lock()
	doPanic := c.rng.Float64() < c.panicRate
	injectFailure := c.rng.Float64() < c.failureRate
	c.mu.Unlock()

	if doPanic {
		atomic.AddInt64(&c.panicCalls, 1)
		panic("chaos callable induced panic")
	}

	result, err := c.wrapped.Call(ctx, args)
	if injectFailure && err == nil {
		atomic.AddInt64(&c.failedCalls, 1)
		var zero R
		return zero, ErrChaos
	}
	return result, err
}

// Stats returns statistics about chaos injection.
func (c *ChaosCallable[R]) Stats() ChaosStats {
	return ChaosStats{
		TotalCalls:  atomic.LoadInt64(&c.totalCalls),
		FailedCalls: atomic.LoadInt64(&c.failedCalls),
		PanicCalls:  atomic.LoadInt64(&c.panicCalls),
	}
}

// ChaosStats holds statistics about chaos injection.
type ChaosStats struct {
	TotalCalls  int64
	FailedCalls int64
	PanicCalls  int64
}

// FailureRate returns the actual failure rate observed.
func (s ChaosStats) FailureRate() float64 {
	if s.TotalCalls == 0 {
		return 0
	}
	return float64(s.FailedCalls) / float64(s.TotalCalls)
}

// PanicRate returns the actual panic rate observed.
func (s ChaosStats) PanicRate() float64 {
	if s.TotalCalls == 0 {
		return 0
	}
	return float64(s.PanicCalls) / float64(s.TotalCalls)
}

// String returns a human-readable representation of the stats.
func (s ChaosStats) String() string {
	return fmt.Sprintf("ChaosStats{Total: %d, Failed: %d (%.1f%%), Panics: %d (%.1f%%)}",
		s.TotalCalls, s.FailedCalls, s.FailureRate()*100,
		s.PanicCalls, s.PanicRate()*100)
}

// Helper Functions

// WaitForCalls waits for a mock callable to be called at least n times,
// with a timeout. Returns true if the expected calls were reached.
func WaitForCalls[R any](mock *MockCallable[R], expectedCalls int, timeout time.Duration) bool {
	start := time.Now()
	for time.Since(start) < timeout {
		if mock.CallCount() >= expectedCalls {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

// ParallelTest runs a test function in parallel with multiple goroutines.
// Useful for testing the locking of stateful wrappers.
func ParallelTest(t *testing.T, goroutines int, testFunc func(int)) {
	t.Helper()

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for i := 0; i < goroutines; i++ {
		go func(id int) {
			defer wg.Done()
			testFunc(id)
		}(i)
	}

	wg.Wait()
}
