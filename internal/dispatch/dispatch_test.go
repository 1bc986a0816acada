package dispatch_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"adforge/internal/dispatch"
)

func succeed(ctx context.Context) (string, error) { return "ok", nil }

func TestCallIncrementsOnSuccessOnly(t *testing.T) {
	b := dispatch.NewBudget(nil, dispatch.WithSleep(func(time.Duration) {
		t.Fatal("unexpected cooldown")
	}))

	if _, ok := dispatch.Call(context.Background(), b, "query", succeed); !ok {
		t.Fatal("expected success")
	}
	if b.Count() != 1 {
		t.Fatalf("count = %d, want 1", b.Count())
	}

	result, ok := dispatch.Call(context.Background(), b, "mutate", func(ctx context.Context) (string, error) {
		return "", errors.New("denied")
	})
	if ok {
		t.Fatal("expected failure to report ok=false")
	}
	if result != "" {
		t.Fatalf("expected zero value on failure, got %q", result)
	}
	if b.Count() != 1 {
		t.Fatalf("failures must not consume budget, count = %d", b.Count())
	}
}

func TestCallErrReturnsTheFailure(t *testing.T) {
	b := dispatch.NewBudget(nil, dispatch.WithSleep(func(time.Duration) {
		t.Fatal("unexpected cooldown")
	}))

	boom := errors.New("boom")
	_, err := dispatch.CallErr(context.Background(), b, "mutate", func(ctx context.Context) (int, error) {
		return 0, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected underlying error, got %v", err)
	}
	if b.Count() != 0 {
		t.Fatalf("failures must not consume budget, count = %d", b.Count())
	}
}

func TestCeilingTriggersExactlyOneCooldown(t *testing.T) {
	var sleeps []time.Duration
	b := dispatch.NewBudget(nil,
		dispatch.WithCeiling(3),
		dispatch.WithCooldown(42*time.Minute),
		dispatch.WithSleep(func(d time.Duration) { sleeps = append(sleeps, d) }),
	)

	for i := 0; i < 3; i++ {
		if _, ok := dispatch.Call(context.Background(), b, "mutate", succeed); !ok {
			t.Fatal("expected success")
		}
	}
	if len(sleeps) != 0 {
		t.Fatalf("cooldown fired before ceiling: %v", sleeps)
	}
	if b.Count() != 3 {
		t.Fatalf("count = %d, want 3", b.Count())
	}

	// The call over the ceiling waits once, resets, then counts itself.
	if _, ok := dispatch.Call(context.Background(), b, "mutate", succeed); !ok {
		t.Fatal("expected success after cooldown")
	}
	if len(sleeps) != 1 || sleeps[0] != 42*time.Minute {
		t.Fatalf("expected exactly one 42m cooldown, got %v", sleeps)
	}
	if b.Count() != 1 {
		t.Fatalf("count after reset = %d, want 1", b.Count())
	}
}

func TestFailureAtCeilingStillCoolsDownButDoesNotCount(t *testing.T) {
	var sleeps int
	b := dispatch.NewBudget(nil,
		dispatch.WithCeiling(1),
		dispatch.WithSleep(func(time.Duration) { sleeps++ }),
	)
	dispatch.Call(context.Background(), b, "mutate", succeed)

	_, ok := dispatch.Call(context.Background(), b, "mutate", func(ctx context.Context) (int, error) {
		return 0, errors.New("boom")
	})
	if ok {
		t.Fatal("expected failure")
	}
	if sleeps != 1 {
		t.Fatalf("expected cooldown before the call, got %d", sleeps)
	}
	if b.Count() != 0 {
		t.Fatalf("failed call after reset must not count, count = %d", b.Count())
	}
}
