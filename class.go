package wrapz

import (
	"context"
)

// Class is the base Constructor: allocation is new(T) and initialization is
// the supplied function. It stands in for a class definition that wrappers
// decorate without touching.
//
//	type Point struct{ X, Y int }
//
//	var PointClass = wrapz.NewClass(PointID, func(_ context.Context, p *Point, a wrapz.Args) error {
//	    p.X, p.Y = a.Positional[0].(int), a.Positional[1].(int)
//	    return nil
//	})
//
//	p, err := PointClass.New(ctx, wrapz.Positional(1, 2))
type Class[T any] struct {
	init     func(context.Context, *T, Args) error
	identity Identity
}

// NewClass creates a Class. A nil init leaves new instances at their zero value.
func NewClass[T any](identity Identity, init func(context.Context, *T, Args) error) *Class[T] {
	return &Class[T]{identity: identity, init: init}
}

// Allocate implements Constructor.
func (*Class[T]) Allocate(context.Context) (*T, error) {
	return new(T), nil
}

// Initialize implements Constructor.
func (c *Class[T]) Initialize(ctx context.Context, obj *T, args Args) error {
	if c.init == nil {
		return nil
	}
	return c.init(ctx, obj, args)
}

// New implements Factory.
func (c *Class[T]) New(ctx context.Context, args Args) (*T, error) {
	return Construct[T](ctx, c, args)
}

// Identity returns the identity of this class.
func (c *Class[T]) Identity() Identity { return c.identity }
