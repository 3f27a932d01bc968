package wrapz

import (
	"context"
)

// Predicate wraps a boolean-valued function so it can be composed with And,
// Or and Not.
//
// And and Or produce plain Func[bool] values; only Not produces another
// *Predicate. Not always negates the predicate's own underlying function, so
// double negation and further composition keep working:
//
//	var (
//	    isEqual = wrapz.NewPredicate(EqualID, func(_ context.Context, a wrapz.Args) bool {
//	        return a.Positional[0] == a.Positional[1]
//	    })
//	    isLess = wrapz.NewPredicate(LessID, func(_ context.Context, a wrapz.Args) bool {
//	        return a.Positional[0].(int) < a.Positional[1].(int)
//	    })
//	)
//
//	lessOrEqual := isLess.Or(isEqual)           // lessOrEqual(1, 2) == true
//	greaterOrEqual := isLess.Not()              // greaterOrEqual(2, 1) == true
//	less := isLess.Not().Not().And(isLess)      // still a predicate chain
//
// Predicates hold no mutable state; every composition is a closure over its
// operands.
type Predicate struct {
	fn       func(context.Context, Args) bool
	identity Identity
}

// NewPredicate wraps fn.
func NewPredicate(identity Identity, fn func(context.Context, Args) bool) *Predicate {
	return &Predicate{identity: identity, fn: fn}
}

// Call implements Callable. A panic in fn is returned as an *Error.
func (p *Predicate) Call(ctx context.Context, args Args) (result bool, err error) {
	defer recoverFromPanic(&result, &err, p.identity, args)
	return p.fn(ctx, args), nil
}

// Test evaluates the predicate, treating a panic as false.
func (p *Predicate) Test(ctx context.Context, args Args) bool {
	ok, err := p.Call(ctx, args)
	return err == nil && ok
}

// Identity returns the identity of this predicate.
func (p *Predicate) Identity() Identity { return p.identity }

// And returns a callable evaluating p(args) && other(args).
func (p *Predicate) And(other Callable[bool]) Func[bool] {
	return And(p, other)
}

// Or returns a callable evaluating p(args) || other(args).
func (p *Predicate) Or(other Callable[bool]) Func[bool] {
	return Or(p, other)
}

// Not returns a new predicate negating p's underlying function.
func (p *Predicate) Not() *Predicate {
	fn := p.fn
	return &Predicate{
		identity: NewIdentity("not("+p.identity.Name()+")", p.identity.Description()),
		fn: func(ctx context.Context, args Args) bool {
			return !fn(ctx, args)
		},
	}
}

// And composes a and b with short-circuit evaluation: b is not called when a
// returns false or fails. An error from either operand stops evaluation and is
// returned with the composed callable prepended to its path.
func And(a, b Callable[bool]) Func[bool] {
	identity := NewIdentity("and("+a.Identity().Name()+", "+b.Identity().Name()+")", "")
	return Func[bool]{
		identity: identity,
		fn: func(ctx context.Context, args Args) (result bool, err error) {
			defer recoverFromPanic(&result, &err, identity, args)
			left, err := a.Call(ctx, args)
			if err != nil {
				return false, wrapError(err, identity, args)
			}
			if !left {
				return false, nil
			}
			right, err := b.Call(ctx, args)
			if err != nil {
				return false, wrapError(err, identity, args)
			}
			return right, nil
		},
	}
}

// Or composes a and b with short-circuit evaluation: b is not called when a
// returns true. An error from either operand stops evaluation.
func Or(a, b Callable[bool]) Func[bool] {
	identity := NewIdentity("or("+a.Identity().Name()+", "+b.Identity().Name()+")", "")
	return Func[bool]{
		identity: identity,
		fn: func(ctx context.Context, args Args) (result bool, err error) {
			defer recoverFromPanic(&result, &err, identity, args)
			left, err := a.Call(ctx, args)
			if err != nil {
				return false, wrapError(err, identity, args)
			}
			if left {
				return true, nil
			}
			right, err := b.Call(ctx, args)
			if err != nil {
				return false, wrapError(err, identity, args)
			}
			return right, nil
		},
	}
}
