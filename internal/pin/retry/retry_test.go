package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestDoExhaustsBudget(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), 2, func(ctx context.Context) (string, error) {
		calls++
		return "", fmt.Errorf("attempt %d", calls)
	})
	if calls != 3 {
		t.Fatalf("calls=%d want 3", calls)
	}
	if err == nil || err.Error() != "attempt 3" {
		t.Fatalf("err=%v want last attempt error", err)
	}
}

func TestDoStopsOnSuccess(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), 2, func(ctx context.Context) (int, error) {
		calls++
		if calls == 2 {
			return 42, nil
		}
		return 0, errors.New("fail")
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if calls != 2 || got != 42 {
		t.Fatalf("calls=%d got=%d", calls, got)
	}
}

func TestDoZeroAndNegativeBudget(t *testing.T) {
	for _, budget := range []int{0, -3} {
		calls := 0
		_, _ = Do(context.Background(), budget, func(ctx context.Context) (int, error) {
			calls++
			return 0, errors.New("fail")
		})
		if calls != 1 {
			t.Fatalf("budget=%d calls=%d want 1", budget, calls)
		}
	}
}

func TestDoCancelledContextKeepsLastError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	boom := errors.New("boom")
	_, err := Do(ctx, 5, func(ctx context.Context) (int, error) {
		calls++
		cancel()
		return 0, boom
	}, WithBackoff(10*time.Millisecond))
	if calls != 1 {
		t.Fatalf("calls=%d want 1 after cancel", calls)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v want boom", err)
	}
}

func TestDoNotify(t *testing.T) {
	var seen []int
	_, _ = Do(context.Background(), 1, func(ctx context.Context) (int, error) {
		return 0, errors.New("x")
	}, WithNotify(func(attempt int, err error) { seen = append(seen, attempt) }))
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Fatalf("seen=%v", seen)
	}
}
