package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func TestGet_CachesUntilTTL(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1000, 0)}
	c := New(clk)
	calls := 0
	fetch := func(ctx context.Context) (interface{}, error) {
		calls++
		return calls, nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.Get(context.Background(), "a|segments|PENDING", time.Minute, fetch)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if v.(int) != 1 {
			t.Fatalf("Get = %v, want cached 1", v)
		}
	}
	if calls != 1 {
		t.Fatalf("fetch called %d times, want 1", calls)
	}

	clk.Advance(2 * time.Minute)
	v, err := c.Get(context.Background(), "a|segments|PENDING", time.Minute, fetch)
	if err != nil {
		t.Fatalf("Get after expiry: %v", err)
	}
	if v.(int) != 2 || calls != 2 {
		t.Fatalf("expired entry not refetched (v=%v calls=%d)", v, calls)
	}
}

func TestGet_DoesNotCacheErrors(t *testing.T) {
	c := New(&fakeClock{now: time.Unix(1000, 0)})
	calls := 0
	fetch := func(ctx context.Context) (interface{}, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("upstream down")
		}
		return "ok", nil
	}
	if _, err := c.Get(context.Background(), "k", time.Minute, fetch); err == nil {
		t.Fatalf("expected error")
	}
	v, err := c.Get(context.Background(), "k", time.Minute, fetch)
	if err != nil || v != "ok" {
		t.Fatalf("retry after error: v=%v err=%v", v, err)
	}
}

func TestGet_DeduplicatesConcurrentFetches(t *testing.T) {
	c := New(&fakeClock{now: time.Unix(1000, 0)})
	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(ctx context.Context) (interface{}, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
		}
		<-release
		return "shared", nil
	}

	var wg sync.WaitGroup
	results := make([]interface{}, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.Get(context.Background(), "dup", time.Minute, fetch)
			if err != nil {
				t.Errorf("Get: %v", err)
			}
			results[i] = v
		}(i)
	}
	<-started
	close(release)
	wg.Wait()

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("fetch ran %d times for concurrent identical queries, want 1", n)
	}
	for i, v := range results {
		if v != "shared" {
			t.Fatalf("results[%d] = %v", i, v)
		}
	}
}

func TestInvalidate_PrefixAndSubscribers(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1000, 0)}
	c := New(clk)
	c.Set("alice|segments|PENDING", 1, time.Hour)
	c.Set("alice|segments|ACCEPTED", 2, time.Hour)
	c.Set("alice|notifications", 3, time.Hour)
	c.Set("bob|segments|PENDING", 4, time.Hour)

	events, cancel := c.Subscribe()
	defer cancel()

	if n := c.Invalidate("alice|segments"); n != 2 {
		t.Fatalf("Invalidate dropped %d entries, want 2", n)
	}

	select {
	case got := <-events:
		if got != "alice|segments" {
			t.Fatalf("event = %q", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("no invalidation event delivered")
	}

	// Untouched keys still served from cache.
	v, err := c.Get(context.Background(), "bob|segments|PENDING", time.Hour, func(ctx context.Context) (interface{}, error) {
		t.Fatalf("fetch must not run for live entry")
		return nil, nil
	})
	if err != nil || v.(int) != 4 {
		t.Fatalf("bob entry lost: v=%v err=%v", v, err)
	}

	// Invalidated key refetches.
	refetched := false
	_, err = c.Get(context.Background(), "alice|segments|PENDING", time.Hour, func(ctx context.Context) (interface{}, error) {
		refetched = true
		return 9, nil
	})
	if err != nil || !refetched {
		t.Fatalf("invalidated key served stale value")
	}
}

func TestSet_OverwritesWithoutFetch(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1000, 0)}
	c := New(clk)
	c.Set("alice|unread", 7, time.Hour)
	v, err := c.Get(context.Background(), "alice|unread", time.Hour, func(ctx context.Context) (interface{}, error) {
		t.Fatalf("push-updated key must not refetch")
		return nil, nil
	})
	if err != nil || v.(int) != 7 {
		t.Fatalf("Set value not served: v=%v err=%v", v, err)
	}
}

func TestKey(t *testing.T) {
	if got := Key("alice", "segments", "PENDING"); got != "alice|segments|PENDING" {
		t.Fatalf("Key = %q", got)
	}
}
