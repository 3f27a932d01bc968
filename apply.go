package wrapz

import (
	"context"
	"time"
)

// Apply creates a Func from a function that may fail.
// Failures come back as *Error with the Func's identity as the path, so
// outer wrappers can extend the path instead of re-wrapping.
//
// Example:
//
//	var DivideID = wrapz.NewIdentity("divide", "Divides the first argument by the second")
//	divide := wrapz.Apply(DivideID, func(_ context.Context, a wrapz.Args) (float64, error) {
//	    x, y := a.Positional[0].(float64), a.Positional[1].(float64)
//	    if y == 0 {
//	        return 0, errors.New("division by zero")
//	    }
//	    return x / y, nil
//	})
func Apply[R any](identity Identity, fn func(context.Context, Args) (R, error)) Func[R] {
	return Func[R]{
		identity: identity,
		fn: func(ctx context.Context, args Args) (result R, err error) {
			defer recoverFromPanic(&result, &err, identity, args)
			start := time.Now()
			result, err = fn(ctx, args)
			if err != nil {
				var zero R
				return zero, wrapErrorAt(err, identity, args, time.Now(), time.Since(start))
			}
			return result, nil
		},
	}
}
