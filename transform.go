package wrapz

import (
	"context"
)

// Transform creates a Func from a function that cannot fail.
//
// Example:
//
//	var AddID = wrapz.NewIdentity("add", "Adds two integers")
//	add := wrapz.Transform(AddID, func(_ context.Context, a wrapz.Args) int {
//	    return a.Positional[0].(int) + a.Positional[1].(int)
//	})
func Transform[R any](identity Identity, fn func(context.Context, Args) R) Func[R] {
	return Func[R]{
		identity: identity,
		fn: func(ctx context.Context, args Args) (result R, err error) {
			defer recoverFromPanic(&result, &err, identity, args)
			result = fn(ctx, args)
			return result, nil
		},
	}
}
