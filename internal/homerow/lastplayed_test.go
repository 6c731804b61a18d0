package homerow

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/homeshelf-tv/homeshelf/internal/log"
)

func TestLastPlayedCacheMemoizes(t *testing.T) {
	var calls int32
	cache := NewLastPlayedCache(func(ctx context.Context, seriesID, itemID string) (int64, error) {
		atomic.AddInt32(&calls, 1)
		return 42, nil
	}, log.NullLogger())

	for i := 0; i < 3; i++ {
		got, err := cache.GetLastPlayed(context.Background(), "s1", "e1")
		if err != nil {
			t.Fatal(err)
		}
		if got != 42 {
			t.Fatalf("expected 42, got %d", got)
		}
	}

	if calls != 1 {
		t.Fatalf("expected a single loader call, got %d", calls)
	}
}

func TestLastPlayedCacheSingleFlightUnderConcurrency(t *testing.T) {
	var calls int32
	gate := make(chan struct{})

	cache := NewLastPlayedCache(func(ctx context.Context, seriesID, itemID string) (int64, error) {
		atomic.AddInt32(&calls, 1)
		<-gate
		return 7, nil
	}, log.NullLogger())

	const n = 8
	results := make([]int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := cache.GetLastPlayed(context.Background(), "s1", "e1")
			if err != nil {
				t.Errorf("caller %d: %v", i, err)
			}
			results[i] = v
		}(i)
	}

	// Let every caller reach the cache before the loader completes
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected one in-flight loader call, got %d", got)
	}
	for i, v := range results {
		if v != 7 {
			t.Fatalf("caller %d got %d, want 7", i, v)
		}
	}
}

func TestLastPlayedCacheDistinctKeys(t *testing.T) {
	var calls int32
	cache := NewLastPlayedCache(func(ctx context.Context, seriesID, itemID string) (int64, error) {
		atomic.AddInt32(&calls, 1)
		return 1, nil
	}, log.NullLogger())

	cache.GetLastPlayed(context.Background(), "s1", "e1")
	cache.GetLastPlayed(context.Background(), "s1", "e2")
	cache.GetLastPlayed(context.Background(), "s2", "e1")

	if calls != 3 {
		t.Fatalf("expected 3 loader calls, got %d", calls)
	}
	if cache.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", cache.Len())
	}
}

func TestLastPlayedCacheRetriesAfterError(t *testing.T) {
	var calls int32
	cache := NewLastPlayedCache(func(ctx context.Context, seriesID, itemID string) (int64, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return 0, errors.New("transient")
		}
		return 9, nil
	}, log.NullLogger())

	if _, err := cache.GetLastPlayed(context.Background(), "s1", "e1"); err == nil {
		t.Fatal("expected first call to fail")
	}

	got, err := cache.GetLastPlayed(context.Background(), "s1", "e1")
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if got != 9 {
		t.Fatalf("expected 9, got %d", got)
	}
	if calls != 2 {
		t.Fatalf("failed entry should not stick, got %d calls", calls)
	}
}

func TestLastPlayedCacheWaiterHonorsContext(t *testing.T) {
	gate := make(chan struct{})
	started := make(chan struct{})

	cache := NewLastPlayedCache(func(ctx context.Context, seriesID, itemID string) (int64, error) {
		close(started)
		<-gate
		return 1, nil
	}, log.NullLogger())

	go cache.GetLastPlayed(context.Background(), "s1", "e1")
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := cache.GetLastPlayed(ctx, "s1", "e1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}

	close(gate)
}

func TestLastPlayedCacheInvalidateSeries(t *testing.T) {
	cache := NewLastPlayedCache(func(ctx context.Context, seriesID, itemID string) (int64, error) {
		return 1, nil
	}, log.NullLogger())

	cache.GetLastPlayed(context.Background(), "s1", "e1")
	cache.GetLastPlayed(context.Background(), "s1", "e2")
	cache.GetLastPlayed(context.Background(), "s2", "e1")

	cache.InvalidateSeries("s1")

	if cache.Len() != 1 {
		t.Fatalf("expected only the other series to survive, got %d entries", cache.Len())
	}

	cache.InvalidateAll()
	if cache.Len() != 0 {
		t.Fatalf("expected empty cache, got %d entries", cache.Len())
	}
}
