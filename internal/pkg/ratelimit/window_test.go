package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestFixedWindow_AdmitsExactlyLimit(t *testing.T) {
	clk := clockwork.NewFakeClock()
	rl := NewFixedWindow(60, time.Minute, WithClock(clk))
	ctx := context.Background()

	for i := 1; i <= 60; i++ {
		d, _ := rl.Allow(ctx, "1.2.3.4")
		if !d.Allowed {
			t.Fatalf("request %d should be admitted", i)
		}
		if d.Remaining != 60-i {
			t.Fatalf("request %d: expected remaining %d, got %d", i, 60-i, d.Remaining)
		}
	}

	d, _ := rl.Allow(ctx, "1.2.3.4")
	if d.Allowed {
		t.Fatal("request 61 should be rejected")
	}
	if d.Remaining != 0 {
		t.Fatalf("expected remaining 0, got %d", d.Remaining)
	}
}

func TestFixedWindow_ResetsAfterWindow(t *testing.T) {
	clk := clockwork.NewFakeClock()
	rl := NewFixedWindow(2, time.Minute, WithClock(clk))
	ctx := context.Background()

	rl.Allow(ctx, "c")
	rl.Allow(ctx, "c")
	if d, _ := rl.Allow(ctx, "c"); d.Allowed {
		t.Fatal("third request should be rejected")
	}

	clk.Advance(time.Minute)

	d, _ := rl.Allow(ctx, "c")
	if !d.Allowed {
		t.Fatal("first request of the new window should be admitted")
	}
	if want := clk.Now().Add(time.Minute); !d.ResetAt.Equal(want) {
		t.Fatalf("expected reset %v, got %v", want, d.ResetAt)
	}
}

func TestFixedWindow_KeysAreIndependent(t *testing.T) {
	rl := NewFixedWindow(1, time.Minute, WithClock(clockwork.NewFakeClock()))
	ctx := context.Background()

	if d, _ := rl.Allow(ctx, "a"); !d.Allowed {
		t.Fatal("a should be admitted")
	}
	if d, _ := rl.Allow(ctx, "b"); !d.Allowed {
		t.Fatal("b should be admitted")
	}
	if d, _ := rl.Allow(ctx, "a"); d.Allowed {
		t.Fatal("second a should be rejected")
	}
}

func TestFixedWindow_SweepsExpired(t *testing.T) {
	clk := clockwork.NewFakeClock()
	rl := NewFixedWindow(5, time.Minute, WithClock(clk))
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		rl.Allow(ctx, k)
	}
	clk.Advance(2 * time.Minute)
	rl.Allow(ctx, "d")

	if n := rl.Len(); n != 1 {
		t.Fatalf("expected 1 live window after sweep, got %d", n)
	}
}

func TestFixedWindow_Concurrent(t *testing.T) {
	rl := NewFixedWindow(100, time.Minute, WithClock(clockwork.NewFakeClock()))
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
	)
	for i := 0; i < 250; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if d, _ := rl.Allow(ctx, "shared"); d.Allowed {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if admitted != 100 {
		t.Fatalf("expected exactly 100 admitted, got %d", admitted)
	}
}
