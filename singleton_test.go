package wrapz

import (
	"context"
	"testing"
)

func TestSingleton(t *testing.T) {
	t.Run("Same Instance Regardless Of Arguments", func(t *testing.T) {
		points := NewSingleton[Point](pointClass(nil))

		a, err := points.New(context.Background(), Positional(1, 2))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		b, err := points.New(context.Background(), Positional(3, 4))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a != b {
			t.Fatal("expected the same pointer")
		}
		if a.X != 1 || a.Y != 2 {
			t.Errorf("expected first arguments to stick, got %+v", *a)
		}
	})

	t.Run("Initializes Once By Default", func(t *testing.T) {
		inits := 0
		points := NewSingleton[Point](pointClass(&inits))

		for i := 0; i < 3; i++ {
			points.New(context.Background(), Positional(i))
		}
		if inits != 1 {
			t.Errorf("expected 1 initialization, got %d", inits)
		}
	})

	t.Run("Reinitialize Option", func(t *testing.T) {
		inits := 0
		points := NewSingleton[Point](pointClass(&inits), WithReinitialize())

		a, _ := points.New(context.Background(), Positional(1, 1))
		b, _ := points.New(context.Background(), Positional(5, 6))

		if a != b {
			t.Fatal("expected the same pointer")
		}
		if inits != 2 {
			t.Errorf("expected 2 initializations, got %d", inits)
		}
		if a.X != 5 || a.Y != 6 {
			t.Errorf("expected latest arguments applied, got %+v", *a)
		}
	})

	t.Run("Failed First Initialization Keeps Slot", func(t *testing.T) {
		alloc := &recordingAllocator{Class: pointClass(nil)}
		points := NewSingleton[Point](alloc)

		if _, err := points.New(context.Background(), Positional("bad")); err == nil {
			t.Fatal("expected error")
		}
		if _, ok := points.Instance(); ok {
			t.Fatal("failed initialization should not report an instance")
		}

		p, err := points.New(context.Background(), Positional(7))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(alloc.allocated) != 1 {
			t.Fatalf("expected 1 allocation, got %d", len(alloc.allocated))
		}
		if p != alloc.allocated[0] {
			t.Error("retry should initialize the instance already in the slot")
		}
		if p.X != 7 {
			t.Errorf("expected X=7, got %d", p.X)
		}
		stored, ok := points.Instance()
		if !ok || stored != p {
			t.Error("expected the instance to be stored")
		}
	})

	t.Run("Later Failure Keeps Instance", func(t *testing.T) {
		points := NewSingleton[Point](pointClass(nil), WithReinitialize())

		first, _ := points.New(context.Background(), Positional(1))
		if _, err := points.New(context.Background(), Positional("bad")); err == nil {
			t.Fatal("expected error")
		}
		again, err := points.New(context.Background(), Positional(2))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if again != first {
			t.Error("an initialized instance should never be replaced")
		}
	})

	t.Run("Wrapping A Tracker Records One Instance", func(t *testing.T) {
		tracked := TrackInstances[Point](pointClass(nil))
		points := NewSingleton[Point](tracked)

		for i := 0; i < 3; i++ {
			points.New(context.Background(), Positional(i))
		}
		if tracked.Len() != 1 {
			t.Errorf("expected 1 tracked instance, got %d", tracked.Len())
		}
	})

	t.Run("Metrics", func(t *testing.T) {
		points := NewSingleton[Point](pointClass(nil))
		for i := 0; i < 3; i++ {
			points.New(context.Background(), Positional(i))
		}
		if v := points.Metrics().Counter(SingletonRequestsTotal).Value(); v != 3 {
			t.Errorf("expected 3 requests, got %f", v)
		}
		if v := points.Metrics().Counter(SingletonReusedTotal).Value(); v != 2 {
			t.Errorf("expected 2 reuses, got %f", v)
		}
	})

	t.Run("Identity Of Wrapped Constructor", func(t *testing.T) {
		points := NewSingleton[Point](pointClass(nil))
		if points.Identity().Name() != "Point" {
			t.Errorf("unexpected identity %q", points.Identity().Name())
		}
	})
}

type recordingAllocator struct {
	*Class[Point]
	allocated []*Point
}

func (r *recordingAllocator) Allocate(ctx context.Context) (*Point, error) {
	p, err := r.Class.Allocate(ctx)
	if err == nil {
		r.allocated = append(r.allocated, p)
	}
	return p, err
}
