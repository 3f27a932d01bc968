package wrapz

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// AutoRepr gives instances of its constructor a synthesized debug string:
//
//	TypeName(v1, v2, name1=w1, name2=w2)
//
// Values come from the attributes listed in positional (rendered bare) and
// named (rendered as name=value), positional first, each formatted with %#v.
// Floats always carry a decimal point or an exponent, so 2.0 renders as "2.0"
// and stays distinct from the int 2.
// Both lists are copied at construction and never change.
//
// AutoRepr passes both construction phases straight through; it only adds
// Repr and Stringer.
//
//	points := wrapz.NewAutoRepr(PointClass, []string{"x"}, []string{"y"})
//	p, _ := points.New(ctx, wrapz.Positional(1, 2))
//	s, _ := points.Repr(p) // "Point(1, y=2)"
type AutoRepr[T any] struct {
	constructor Constructor[T]
	positional  []string
	named       []string
}

// NewAutoRepr wraps constructor with a repr built from the given attribute names.
func NewAutoRepr[T any](constructor Constructor[T], positional, named []string) *AutoRepr[T] {
	return &AutoRepr[T]{
		constructor: constructor,
		positional:  slices.Clone(positional),
		named:       slices.Clone(named),
	}
}

// Allocate implements Constructor.
func (r *AutoRepr[T]) Allocate(ctx context.Context) (*T, error) {
	return r.constructor.Allocate(ctx)
}

// Initialize implements Constructor.
func (r *AutoRepr[T]) Initialize(ctx context.Context, obj *T, args Args) error {
	return r.constructor.Initialize(ctx, obj, args)
}

// New implements Factory.
func (r *AutoRepr[T]) New(ctx context.Context, args Args) (*T, error) {
	return Construct[T](ctx, r, args)
}

// Repr renders obj. Attributes are read at call time; a missing one fails with
// ErrAttributeLookup.
func (r *AutoRepr[T]) Repr(obj *T) (string, error) {
	parts := make([]string, 0, len(r.positional)+len(r.named))
	for _, name := range r.positional {
		v, err := Attribute(obj, name)
		if err != nil {
			return "", err
		}
		parts = append(parts, reprValue(v))
	}
	for _, name := range r.named {
		v, err := Attribute(obj, name)
		if err != nil {
			return "", err
		}
		parts = append(parts, name+"="+reprValue(v))
	}
	return r.typeName() + "(" + strings.Join(parts, ", ") + ")", nil
}

// Stringer adapts obj for %v and %s. A failed lookup renders the error in
// place of the repr.
func (r *AutoRepr[T]) Stringer(obj *T) fmt.Stringer {
	return reprStringer[T]{repr: r, obj: obj}
}

type reprStringer[T any] struct {
	repr *AutoRepr[T]
	obj  *T
}

func (s reprStringer[T]) String() string {
	out, err := s.repr.Repr(s.obj)
	if err != nil {
		return "%!repr(" + err.Error() + ")"
	}
	return out
}

func reprValue(v any) string {
	switch f := v.(type) {
	case float64:
		return reprFloat(f, 64)
	case float32:
		return reprFloat(float64(f), 32)
	}
	return fmt.Sprintf("%#v", v)
}

// reprFloat switches to exponent form outside [1e-4, 1e16).
func reprFloat(f float64, bits int) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, bits)
	}
	if abs := math.Abs(f); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'g', -1, bits)
	}
	s := strconv.FormatFloat(f, 'f', -1, bits)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func (r *AutoRepr[T]) typeName() string {
	if name := reflect.TypeFor[T]().Name(); name != "" {
		return name
	}
	return r.constructor.Identity().Name()
}

// Positional returns the positional attribute names.
func (r *AutoRepr[T]) Positional() []string { return slices.Clone(r.positional) }

// Named returns the named attribute names.
func (r *AutoRepr[T]) Named() []string { return slices.Clone(r.named) }

// Identity returns the identity of the wrapped constructor.
func (r *AutoRepr[T]) Identity() Identity { return r.constructor.Identity() }
