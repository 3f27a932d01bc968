package wrapz

import (
	"context"
	"errors"
	"fmt"
)

// Shared fixtures for the wrapz tests.

// ValueError and KeyError stand in for distinct error kinds.
type ValueError struct{ msg string }

func (e *ValueError) Error() string { return "value error: " + e.msg }

type KeyError struct{ key string }

func (e *KeyError) Error() string { return fmt.Sprintf("key error: %q", e.key) }

var errSentinel = errors.New("sentinel")

func add() Func[int] {
	return Transform(NewIdentity("add", "Adds two ints"), func(_ context.Context, a Args) int {
		return a.Positional[0].(int) + a.Positional[1].(int)
	})
}

func constant[R any](v R) Func[R] {
	return Transform(NewIdentity("constant", ""), func(context.Context, Args) R {
		return v
	})
}

func failing[R any](err error) Func[R] {
	return Apply(NewIdentity("failing", ""), func(context.Context, Args) (R, error) {
		var zero R
		return zero, err
	})
}

func counting(calls *int) Func[string] {
	return Transform(NewIdentity("counting", ""), func(context.Context, Args) string {
		*calls++
		return "ok"
	})
}

// Point is the constructor fixture: Point(x, y=...).
type Point struct {
	X int `wrapz:"x"`
	Y int `wrapz:"y"`
}

func pointClass(inits *int) *Class[Point] {
	return NewClass(NewIdentity("Point", "A 2D Point"), func(_ context.Context, p *Point, a Args) error {
		if inits != nil {
			*inits++
		}
		if len(a.Positional) > 0 {
			x, ok := a.Positional[0].(int)
			if !ok {
				return fmt.Errorf("x must be int, got %T", a.Positional[0])
			}
			p.X = x
		}
		if v, ok := a.Lookup("y"); ok {
			p.Y = v.(int)
		} else if len(a.Positional) > 1 {
			p.Y = a.Positional[1].(int)
		}
		return nil
	})
}

// conn is the Limiter fixture, keyed by its id attribute.
type conn struct {
	ID   any `wrapz:"id"`
	Addr string
}

func connClass(built *int) *Class[conn] {
	return NewClass(NewIdentity("Conn", ""), func(_ context.Context, c *conn, a Args) error {
		if built != nil {
			*built++
		}
		if len(a.Positional) > 0 {
			c.ID = a.Positional[0]
		}
		if v, ok := a.Lookup("addr"); ok {
			c.Addr = v.(string)
		}
		return nil
	})
}
