package wrapz

import (
	"context"
	"errors"
	"testing"
)

func comparisons() (eq, lt *Predicate) {
	eq = NewPredicate(NewIdentity("eq", ""), func(_ context.Context, a Args) bool {
		return a.Positional[0] == a.Positional[1]
	})
	lt = NewPredicate(NewIdentity("lt", ""), func(_ context.Context, a Args) bool {
		return a.Positional[0].(int) < a.Positional[1].(int)
	})
	return eq, lt
}

func mustCall(t *testing.T, c Callable[bool], args Args) bool {
	t.Helper()
	v, err := c.Call(context.Background(), args)
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", c.Identity().Name(), err)
	}
	return v
}

func TestPredicate(t *testing.T) {
	eq, lt := comparisons()

	t.Run("Direct Call", func(t *testing.T) {
		if !mustCall(t, eq, Positional(1, 1)) {
			t.Error("eq(1, 1) should be true")
		}
		if mustCall(t, lt, Positional(2, 1)) {
			t.Error("lt(2, 1) should be false")
		}
	})

	t.Run("Or", func(t *testing.T) {
		if !mustCall(t, lt.Or(eq), Positional(1, 2)) {
			t.Error("(lt | eq)(1, 2) should be true")
		}
		if !mustCall(t, Or(lt, eq), Positional(2, 2)) {
			t.Error("(lt | eq)(2, 2) should be true")
		}
		if mustCall(t, lt.Or(eq), Positional(3, 2)) {
			t.Error("(lt | eq)(3, 2) should be false")
		}
	})

	t.Run("And", func(t *testing.T) {
		if mustCall(t, lt.And(eq), Positional(1, 2)) {
			t.Error("(lt & eq)(1, 2) should be false")
		}
		if !mustCall(t, And(lt.Not(), eq), Positional(2, 2)) {
			t.Error("(~lt & eq)(2, 2) should be true")
		}
	})

	t.Run("Not", func(t *testing.T) {
		if !mustCall(t, lt.Not(), Positional(2, 1)) {
			t.Error("(~lt)(2, 1) should be true")
		}
		if mustCall(t, lt.Not().Not(), Positional(2, 1)) {
			t.Error("(~~lt)(2, 1) should be false")
		}
	})

	t.Run("Double Negation Stays Composable", func(t *testing.T) {
		composed := lt.Not().Not().Or(eq)
		if !mustCall(t, composed, Positional(1, 2)) {
			t.Error("(~~lt | eq)(1, 2) should be true")
		}
		if mustCall(t, composed, Positional(3, 2)) {
			t.Error("(~~lt | eq)(3, 2) should be false")
		}
	})

	t.Run("And Short Circuits", func(t *testing.T) {
		called := false
		spy := NewPredicate(NewIdentity("spy", ""), func(context.Context, Args) bool {
			called = true
			return true
		})
		mustCall(t, lt.And(spy), Positional(2, 1))
		if called {
			t.Error("right operand should not run when left is false")
		}
		mustCall(t, lt.And(spy), Positional(1, 2))
		if !called {
			t.Error("right operand should run when left is true")
		}
	})

	t.Run("Or Short Circuits", func(t *testing.T) {
		called := false
		spy := NewPredicate(NewIdentity("spy", ""), func(context.Context, Args) bool {
			called = true
			return false
		})
		mustCall(t, lt.Or(spy), Positional(1, 2))
		if called {
			t.Error("right operand should not run when left is true")
		}
	})

	t.Run("Composed Results Are Reusable", func(t *testing.T) {
		le := lt.Or(eq)
		for i := 0; i < 3; i++ {
			if !mustCall(t, le, Positional(1, 1)) {
				t.Fatal("composition should be stateless")
			}
		}
	})

	t.Run("Errors Propagate", func(t *testing.T) {
		gated := NewTakesNumbers(NewIdentity("numeric", ""), Callable[bool](lt))
		defer gated.Close()

		_, err := And(gated, eq).Call(context.Background(), Positional("a", "b"))
		if !errors.Is(err, ErrInvalidArgumentType) {
			t.Errorf("expected ErrInvalidArgumentType, got %v", err)
		}
	})

	t.Run("Panic Is Error", func(t *testing.T) {
		_, err := lt.Call(context.Background(), Positional("a", "b"))
		if !errors.Is(err, ErrPanic) {
			t.Errorf("expected ErrPanic, got %v", err)
		}
		if lt.Test(context.Background(), Positional("a", "b")) {
			t.Error("Test should report false on panic")
		}
	})

	t.Run("Names", func(t *testing.T) {
		if got := lt.Not().Identity().Name(); got != "not(lt)" {
			t.Errorf("unexpected name %q", got)
		}
		if got := lt.And(eq).Name(); got != "and(lt, eq)" {
			t.Errorf("unexpected name %q", got)
		}
	})
}
