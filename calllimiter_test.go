package wrapz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zoobzio/clockz"
)

func TestCallLimiter(t *testing.T) {
	t.Run("Permits Exactly N Calls", func(t *testing.T) {
		for _, n := range []int{0, 1, 3, 10} {
			calls := 0
			limiter := NewCallLimiter(NewIdentity("limit", ""), n, counting(&calls))

			for i := 0; i < n; i++ {
				if _, err := limiter.Call(context.Background(), Args{}); err != nil {
					t.Fatalf("n=%d: call %d: unexpected error: %v", n, i+1, err)
				}
			}

			_, err := limiter.Call(context.Background(), Args{})
			if !errors.Is(err, ErrCallLimitExceeded) {
				t.Fatalf("n=%d: expected ErrCallLimitExceeded, got %v", n, err)
			}
			if calls != n {
				t.Errorf("n=%d: expected %d delegated calls, got %d", n, n, calls)
			}
			limiter.Close()
		}
	})

	t.Run("Error Carries Original Limit", func(t *testing.T) {
		limiter := NewCallLimiter(NewIdentity("limit", ""), 2, add())
		defer limiter.Close()

		args := Positional(1, 2)
		limiter.Call(context.Background(), args)
		limiter.Call(context.Background(), args)
		_, err := limiter.Call(context.Background(), args)

		var limitErr *CallLimitError
		if !errors.As(err, &limitErr) {
			t.Fatalf("expected *CallLimitError, got %T", err)
		}
		if limitErr.Limit != 2 {
			t.Errorf("expected limit 2, got %d", limitErr.Limit)
		}
		if limitErr.Error() != "number of calls exceeded (2)" {
			t.Errorf("unexpected message %q", limitErr.Error())
		}

		var wErr *Error
		if !errors.As(err, &wErr) {
			t.Fatal("expected *Error envelope")
		}
		if len(wErr.Path) != 1 || wErr.Path[0].Name() != "limit" {
			t.Errorf("unexpected path %v", wErr.Path)
		}
	})

	t.Run("Returns Delegate Result", func(t *testing.T) {
		limiter := NewCallLimiter(NewIdentity("limit", ""), 1, add())
		defer limiter.Close()

		result, err := limiter.Call(context.Background(), Positional(2, 3))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result != 5 {
			t.Errorf("expected 5, got %d", result)
		}
	})

	t.Run("Quota Never Resets With Time", func(t *testing.T) {
		clock := clockz.NewFakeClock()
		limiter := NewCallLimiter(NewIdentity("limit", ""), 1, add()).WithClock(clock)
		defer limiter.Close()

		limiter.Call(context.Background(), Positional(1, 1))
		clock.Advance(24 * time.Hour)

		_, err := limiter.Call(context.Background(), Positional(1, 1))
		if !errors.Is(err, ErrCallLimitExceeded) {
			t.Fatalf("expected quota to stay exhausted, got %v", err)
		}
	})

	t.Run("Failing Calls Consume Quota", func(t *testing.T) {
		limiter := NewCallLimiter(NewIdentity("limit", ""), 2, failing[int](errSentinel))
		defer limiter.Close()

		for i := 0; i < 2; i++ {
			_, err := limiter.Call(context.Background(), Args{})
			if !errors.Is(err, errSentinel) {
				t.Fatalf("expected inner error, got %v", err)
			}
		}
		if limiter.Remaining() != 0 {
			t.Errorf("expected 0 remaining, got %d", limiter.Remaining())
		}
		_, err := limiter.Call(context.Background(), Args{})
		if !errors.Is(err, ErrCallLimitExceeded) {
			t.Errorf("expected ErrCallLimitExceeded, got %v", err)
		}
	})

	t.Run("Inner Error Path Is Extended", func(t *testing.T) {
		limiter := NewCallLimiter(NewIdentity("outer", ""), 1, failing[int](errSentinel))
		defer limiter.Close()

		_, err := limiter.Call(context.Background(), Args{})
		var wErr *Error
		if !errors.As(err, &wErr) {
			t.Fatal("expected *Error")
		}
		if len(wErr.Path) != 2 || wErr.Path[0].Name() != "outer" || wErr.Path[1].Name() != "failing" {
			t.Errorf("unexpected path %v", wErr.Path)
		}
	})

	t.Run("Negative Limit Clamped", func(t *testing.T) {
		limiter := NewCallLimiter(NewIdentity("limit", ""), -5, add())
		defer limiter.Close()

		if limiter.Limit() != 0 {
			t.Errorf("expected limit 0, got %d", limiter.Limit())
		}
		_, err := limiter.Call(context.Background(), Positional(1, 1))
		if !errors.Is(err, ErrCallLimitExceeded) {
			t.Errorf("expected ErrCallLimitExceeded, got %v", err)
		}
	})

	t.Run("Metrics", func(t *testing.T) {
		limiter := NewCallLimiter(NewIdentity("limit", ""), 2, add())
		defer limiter.Close()

		for i := 0; i < 3; i++ {
			limiter.Call(context.Background(), Positional(1, 1))
		}

		if v := limiter.Metrics().Counter(CallLimiterCallsTotal).Value(); v != 3 {
			t.Errorf("expected 3 calls, got %f", v)
		}
		if v := limiter.Metrics().Counter(CallLimiterAllowedTotal).Value(); v != 2 {
			t.Errorf("expected 2 allowed, got %f", v)
		}
		if v := limiter.Metrics().Counter(CallLimiterRejectedTotal).Value(); v != 1 {
			t.Errorf("expected 1 rejected, got %f", v)
		}
		if v := limiter.Metrics().Gauge(CallLimiterRemaining).Value(); v != 0 {
			t.Errorf("expected remaining gauge 0, got %f", v)
		}
	})

	t.Run("Exhausted Hook", func(t *testing.T) {
		limiter := NewCallLimiter(NewIdentity("limit", ""), 0, add())
		defer limiter.Close()

		events := make(chan CallLimiterEvent, 1)
		if err := limiter.OnExhausted(func(_ context.Context, e CallLimiterEvent) error {
			events <- e
			return nil
		}); err != nil {
			t.Fatalf("hook registration failed: %v", err)
		}

		limiter.Call(context.Background(), Positional(1, 1))

		select {
		case e := <-events:
			if e.Name != "limit" || e.Limit != 0 {
				t.Errorf("unexpected event %+v", e)
			}
		case <-time.After(time.Second):
			t.Fatal("expected exhausted event")
		}
	})

	t.Run("Recovers Panic", func(t *testing.T) {
		panicky := Transform(NewIdentity("panicky", ""), func(context.Context, Args) int {
			panic("boom")
		})
		limiter := NewCallLimiter(NewIdentity("limit", ""), 1, panicky)
		defer limiter.Close()

		_, err := limiter.Call(context.Background(), Args{})
		if !errors.Is(err, ErrPanic) {
			t.Errorf("expected ErrPanic, got %v", err)
		}
	})
}
