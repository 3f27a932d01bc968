package wrapz

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/zoobzio/clockz"
)

func TestTypeCheck(t *testing.T) {
	intString := []reflect.Type{TypeFor[int](), TypeFor[string]()}

	t.Run("Matching Arguments", func(t *testing.T) {
		calls := 0
		check := NewTypeCheck(NewIdentity("check", ""), intString, counting(&calls))
		defer check.Close()

		if _, err := check.Call(context.Background(), Positional(5, "a")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
	})

	t.Run("Mismatch Rejected", func(t *testing.T) {
		calls := 0
		check := NewTypeCheck(NewIdentity("check", ""), intString, counting(&calls))
		defer check.Close()

		_, err := check.Call(context.Background(), Positional(5, 5))
		if !errors.Is(err, ErrPositionalTypeMismatch) {
			t.Fatalf("expected ErrPositionalTypeMismatch, got %v", err)
		}
		if !strings.Contains(err.Error(), "argument 1") {
			t.Errorf("expected index in message, got %q", err.Error())
		}
		if calls != 0 {
			t.Error("wrapped callable should not run")
		}
	})

	t.Run("Extra Arguments Unchecked", func(t *testing.T) {
		check := NewTypeCheck(NewIdentity("check", ""), intString, constant("ok"))
		defer check.Close()

		if _, err := check.Call(context.Background(), Positional(5, "a", 99)); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("Extra Types Unchecked", func(t *testing.T) {
		check := NewTypeCheck(NewIdentity("check", ""), intString, constant("ok"))
		defer check.Close()

		if _, err := check.Call(context.Background(), Positional(5)); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("Named Arguments Passed Through", func(t *testing.T) {
		var seen Args
		capture := Transform(NewIdentity("capture", ""), func(_ context.Context, a Args) bool {
			seen = a
			return true
		})
		check := NewTypeCheck(NewIdentity("check", ""), intString, capture)
		defer check.Close()

		if _, err := check.Call(context.Background(), Positional(5, "a").With("flag", []int{1})); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v, ok := seen.Lookup("flag"); !ok || !reflect.DeepEqual(v, []int{1}) {
			t.Errorf("named argument not passed through: %v", seen)
		}
	})

	t.Run("Types Are Copied", func(t *testing.T) {
		types := []reflect.Type{TypeFor[int]()}
		check := NewTypeCheck(NewIdentity("check", ""), types, constant("ok"))
		defer check.Close()

		types[0] = TypeFor[string]()
		if _, err := check.Call(context.Background(), Positional(1)); err != nil {
			t.Errorf("mutating the input slice changed the check: %v", err)
		}
	})

	t.Run("Rejection Uses Clock", func(t *testing.T) {
		clock := clockz.NewFakeClock()
		clock.Advance(time.Hour)
		check := NewTypeCheck(NewIdentity("check", ""), intString, constant("ok")).WithClock(clock)
		defer check.Close()

		_, err := check.Call(context.Background(), Positional("x"))
		var wErr *Error
		if !errors.As(err, &wErr) {
			t.Fatalf("expected *Error, got %T", err)
		}
		if !wErr.Timestamp.Equal(clock.Now()) {
			t.Errorf("expected timestamp %v, got %v", clock.Now(), wErr.Timestamp)
		}
	})
}
