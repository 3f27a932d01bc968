package wrapz

import (
	"context"
	"slices"
)

// Callable defines the interface for anything that can be invoked with a set
// of arguments and produce a value of type R. Every function wrapper in wrapz
// both consumes and implements Callable, so wrappers stack freely:
//
//	limited := wrapz.NewCallLimiter(LimitID, 3,
//	    wrapz.NewTakesNumbers(NumbersID, add),
//	)
//
// Key design principles:
//   - Context support for cancellation of long-running callables
//   - Explicit error returns; wrappers never panic on user input
//   - Named components for debugging and error paths
type Callable[R any] interface {
	Call(context.Context, Args) (R, error)
	Identity() Identity
}

// Name is a type alias for wrapper names.
// Using this type encourages storing names as constants rather than
// using inline strings throughout your code.
type Name = string

// Kwarg is a single named argument.
type Kwarg struct {
	Name  string
	Value any
}

// Args carries the positional and named arguments of one call.
// Named arguments keep the order they were supplied in.
type Args struct {
	Positional []any
	Named      []Kwarg
}

// Positional builds an Args holding only positional values.
func Positional(values ...any) Args {
	return Args{Positional: values}
}

// With returns a copy of a with the named argument appended. An existing
// argument with the same name is replaced in place.
func (a Args) With(name string, value any) Args {
	out := Args{
		Positional: slices.Clone(a.Positional),
		Named:      slices.Clone(a.Named),
	}
	for i := range out.Named {
		if out.Named[i].Name == name {
			out.Named[i].Value = value
			return out
		}
	}
	out.Named = append(out.Named, Kwarg{Name: name, Value: value})
	return out
}

// Lookup returns the named argument called name.
func (a Args) Lookup(name string) (any, bool) {
	for _, kw := range a.Named {
		if kw.Name == name {
			return kw.Value, true
		}
	}
	return nil, false
}

// Len returns the total number of arguments.
func (a Args) Len() int {
	return len(a.Positional) + len(a.Named)
}

// Values returns every argument value, positional first, then named.
func (a Args) Values() []any {
	out := make([]any, 0, a.Len())
	out = append(out, a.Positional...)
	for _, kw := range a.Named {
		out = append(out, kw.Value)
	}
	return out
}

// Func is a named callable created by the adapter functions Apply and
// Transform. Func values are immutable; the fn field is private so every Func
// goes through an adapter and gets consistent error wrapping.
type Func[R any] struct {
	fn       func(context.Context, Args) (R, error)
	identity Identity
}

// Call implements Callable.
func (f Func[R]) Call(ctx context.Context, args Args) (R, error) {
	return f.fn(ctx, args)
}

// Identity returns the identity of the callable.
func (f Func[R]) Identity() Identity {
	return f.identity
}

// Name returns the name of the callable.
func (f Func[R]) Name() Name {
	return f.identity.Name()
}

// Constructor models object construction as two explicit phases so wrappers
// can intercept either one: Allocate produces a fresh (or reused) instance and
// Initialize runs the type's initialization logic on it.
//
// Class is the base implementation; TrackInstances, NewSingleton and
// NewAutoRepr each return a Constructor that overrides one phase and delegates
// the other.
type Constructor[T any] interface {
	Allocate(context.Context) (*T, error)
	Initialize(context.Context, *T, Args) error
	Identity() Identity
}

// Factory is the construction entry point: one call, one instance.
// Every Constructor wrapper is also a Factory through its New method.
type Factory[T any] interface {
	New(context.Context, Args) (*T, error)
	Identity() Identity
}

// Construct runs the allocate-then-initialize protocol on c.
// A failure in either phase returns a nil instance.
func Construct[T any](ctx context.Context, c Constructor[T], args Args) (obj *T, err error) {
	defer recoverFromPanic(&obj, &err, c.Identity(), args)

	obj, err = c.Allocate(ctx)
	if err != nil {
		return nil, wrapError(err, c.Identity(), args)
	}
	if err = c.Initialize(ctx, obj, args); err != nil {
		return nil, wrapError(err, c.Identity(), args)
	}
	return obj, nil
}
