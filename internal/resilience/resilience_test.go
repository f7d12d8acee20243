package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
)

func TestRetryWithBackoff(t *testing.T) {
	cfg := Config{MaxRetries: 3, InitialBackoff: time.Millisecond}

	calls := 0
	err := RetryWithBackoff(context.Background(), cfg, func() error {
		calls++
		if calls < 3 {
			return errors.New("temporary")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RetryWithBackoff = %v, want nil", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryWithBackoffExhausts(t *testing.T) {
	cfg := Config{MaxRetries: 2, InitialBackoff: time.Millisecond}

	calls := 0
	err := RetryWithBackoff(context.Background(), cfg, func() error {
		calls++
		return errors.New("down")
	})
	if err == nil {
		t.Fatal("expected error after retries exhausted")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryWithBackoffStopsOnPermanent(t *testing.T) {
	cfg := Config{MaxRetries: 5, InitialBackoff: time.Millisecond}
	sentinel := errors.New("bad payload")

	calls := 0
	err := RetryWithBackoff(context.Background(), cfg, func() error {
		calls++
		return Permanent(sentinel)
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want %v", err, sentinel)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryWithBackoffZeroBackoff(t *testing.T) {
	calls := 0
	_ = RetryWithBackoff(context.Background(), Config{MaxRetries: 2}, func() error {
		calls++
		return errors.New("down")
	})
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryWithBackoffRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := RetryWithBackoff(ctx, Config{MaxRetries: 5, InitialBackoff: time.Second}, func() error {
		calls++
		return errors.New("down")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if calls != 0 {
		t.Errorf("calls = %d, want 0", calls)
	}
}

func TestCircuitBreakerOpens(t *testing.T) {
	cb := NewCircuitBreaker("test")
	for i := 0; i < 5; i++ {
		_, _ = cb.Execute(func() (any, error) { return nil, errors.New("down") })
	}
	if cb.State() != gobreaker.StateOpen {
		t.Fatalf("State() = %v, want open", cb.State())
	}
	_, err := cb.Execute(func() (any, error) { return nil, nil })
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("Execute on open breaker err = %v, want ErrOpenState", err)
	}
}

func TestDefaultConfigIsACopy(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxRetries != 2 || cfg.InitialBackoff != 250*time.Millisecond {
		t.Fatalf("DefaultConfig() = %+v", cfg)
	}
	cfg.MaxRetries = 9
	if DefaultConfig().MaxRetries != 2 {
		t.Fatal("changing a returned config leaked into the default")
	}
}
