package benchmarks

import (
	"context"
	"reflect"
	"testing"

	"github.com/zoobzio/wrapz"
	wrapztesting "github.com/zoobzio/wrapz/testing"
)

// BenchmarkFunctionWrappers measures the overhead each wrapper adds to a call.
func BenchmarkFunctionWrappers(b *testing.B) {
	ctx := context.Background()
	args := wrapz.Positional(1, 2.5)
	add := wrapz.Transform(wrapz.NewIdentity("add", ""), func(_ context.Context, a wrapz.Args) float64 {
		return float64(a.Positional[0].(int)) + a.Positional[1].(float64)
	})

	run := func(b *testing.B, c wrapz.Callable[float64]) {
		b.Helper()
		b.ResetTimer()
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			if _, err := c.Call(ctx, args); err != nil {
				b.Fatal(err)
			}
		}
	}

	b.Run("Transform", func(b *testing.B) {
		run(b, add)
	})

	b.Run("TakesNumbers", func(b *testing.B) {
		w := wrapz.NewTakesNumbers(wrapz.NewIdentity("numbers", ""), add)
		defer w.Close()
		run(b, w)
	})

	b.Run("Returns", func(b *testing.B) {
		w := wrapz.NewReturns(wrapz.NewIdentity("returns", ""), wrapz.TypeFor[float64](), add)
		defer w.Close()
		run(b, w)
	})

	b.Run("TypeCheck", func(b *testing.B) {
		w := wrapz.NewTypeCheck(wrapz.NewIdentity("typecheck", ""),
			[]reflect.Type{wrapz.TypeFor[int](), wrapz.TypeFor[float64]()}, add)
		defer w.Close()
		run(b, w)
	})

	b.Run("CallLimiter", func(b *testing.B) {
		w := wrapz.NewCallLimiter(wrapz.NewIdentity("limit", ""), b.N, add)
		defer w.Close()
		run(b, w)
	})

	b.Run("IgnoreErrors_Suppressing", func(b *testing.B) {
		mock := wrapztesting.NewMockCallable[float64](nil, "failing").WithReturn(0, context.Canceled).WithHistorySize(0)
		w := wrapz.NewIgnoreErrors(wrapz.NewIdentity("quiet", ""), mock, wrapz.Sentinel(context.Canceled))
		defer w.Close()
		run(b, w)
	})
}

// BenchmarkConstructorWrappers measures construction through each wrapper.
func BenchmarkConstructorWrappers(b *testing.B) {
	ctx := context.Background()

	type item struct {
		ID int `wrapz:"id"`
	}
	class := wrapz.NewClass(wrapz.NewIdentity("Item", ""), func(_ context.Context, it *item, a wrapz.Args) error {
		it.ID = a.Positional[0].(int)
		return nil
	})

	run := func(b *testing.B, f wrapz.Factory[item]) {
		b.Helper()
		b.ResetTimer()
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			if _, err := f.New(ctx, wrapz.Positional(i%16)); err != nil {
				b.Fatal(err)
			}
		}
	}

	b.Run("Class", func(b *testing.B) { run(b, class) })
	b.Run("Singleton", func(b *testing.B) { run(b, wrapz.NewSingleton[item](class)) })
	b.Run("AutoRepr", func(b *testing.B) {
		run(b, wrapz.NewAutoRepr[item](class, []string{"id"}, nil))
	})
	b.Run("Limiter", func(b *testing.B) {
		l := wrapz.NewLimiter[item](wrapz.NewIdentity("items", ""), class, 8, "id", wrapz.First)
		defer l.Close()
		run(b, l)
	})
}
