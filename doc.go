// Package wrapz provides behavioral wrappers for Go functions and constructors.
//
// # Overview
//
// wrapz attaches cross-cutting behavior to callables and types without
// touching their definitions: call quotas, argument and result type gates,
// error suppression, predicate algebra, instance tracking, singletons,
// synthesized debug strings and identity-keyed instance limits.
//
// Each wrapper is self-contained and owns its state. Wrappers of the same
// shape stack in any order.
//
// # Core Concepts
//
// Function wrappers work on Callable[R]:
//
//	type Callable[R any] interface {
//	    Call(context.Context, Args) (R, error)
//	    Identity() Identity
//	}
//
// Args carries positional and named arguments. Apply and Transform adapt
// plain functions into Callables.
//
// Constructor wrappers work on an explicit two-phase construction protocol:
//
//	type Constructor[T any] interface {
//	    Allocate(context.Context) (*T, error)
//	    Initialize(context.Context, *T, Args) error
//	    Identity() Identity
//	}
//
// Class is the base Constructor. TrackInstances wraps the initialize phase,
// NewSingleton wraps the allocate phase, NewAutoRepr leaves both alone, and
// NewLimiter wraps the whole construction through the Factory interface.
//
// # Function Wrappers
//
//	limited := wrapz.NewCallLimiter(LimitID, 3, fn)              // at most 3 calls
//	numeric := wrapz.NewTakesNumbers(NumbersID, fn)              // int/float64 args only
//	typed   := wrapz.NewReturns(ReturnsID, wrapz.TypeFor[int](), fn)
//	quiet   := wrapz.NewIgnoreErrors(QuietID, fn, wrapz.KindOf[*ValueError]())
//	checked := wrapz.NewTypeCheck(CheckID, []reflect.Type{wrapz.TypeFor[int]()}, fn)
//
//	lessOrEqual := isLess.Or(isEqual)
//	greater := isLess.Not().And(isEqual.Not())
//
// # Constructor Wrappers
//
//	tracked := wrapz.TrackInstances(UserClass)
//	config  := wrapz.NewSingleton(ConfigClass)
//	points  := wrapz.NewAutoRepr(PointClass, []string{"x"}, []string{"y"})
//	pool    := wrapz.NewLimiter(PoolID, ConnClass, 2, "id", wrapz.Last)
//
// # Error Handling
//
// Failures are returned as *Error, which records the path through nested
// wrappers and the arguments of the failing call. Branch on the kind with
// errors.Is:
//
//	_, err := limited.Call(ctx, args)
//	if errors.Is(err, wrapz.ErrCallLimitExceeded) {
//	    var limitErr *wrapz.CallLimitError
//	    errors.As(err, &limitErr) // limitErr.Limit
//	}
//
// IgnoreErrors is the one wrapper that recovers: matching errors become a
// zero result and a notice, everything else is returned untouched.
//
// # Observability
//
// Stateful wrappers expose a metricz registry (Metrics), a tracez tracer
// (Tracer), hookz events (OnExhausted, OnSuppressed, OnOverflow) and emit
// capitan signals. Call Close to release them.
//
// # Concurrency
//
// Wrappers guard their own fields, but wrapz makes no promise about
// concurrent use of composed wrappers: a Singleton's allocate and initialize
// phases, for instance, are not one atomic step. Serialize construction
// externally if several goroutines share a constructor.
package wrapz
