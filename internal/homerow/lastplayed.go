package homerow

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	lastPlayedTTL        = 2 * time.Hour
	lastPlayedMaxEntries = 512
)

// LastPlayedLoader computes the last-played timestamp for one episode.
// Returns 0 when the item has never been played.
type LastPlayedLoader func(ctx context.Context, seriesID, itemID string) (int64, error)

// lastPlayedEntry is one memoized computation. The done channel closes when
// the value is ready; concurrent requesters for the same key wait on it
// instead of issuing a duplicate remote call.
type lastPlayedEntry struct {
	done    chan struct{}
	value   int64
	err     error
	expires time.Time
}

// LastPlayedCache memoizes last-played timestamps per (seriesID, itemID)
// with a bounded size and time-based expiry. At most one loader call is in
// flight per key.
type LastPlayedCache struct {
	loader LastPlayedLoader
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]*lastPlayedEntry
}

// NewLastPlayedCache creates a cache backed by the given loader
func NewLastPlayedCache(loader LastPlayedLoader, logger *slog.Logger) *LastPlayedCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &LastPlayedCache{
		loader:  loader,
		logger:  logger,
		entries: make(map[string]*lastPlayedEntry),
	}
}

func cacheKey(seriesID, itemID string) string {
	return seriesID + "|" + itemID
}

// GetLastPlayed returns the memoized last-played timestamp for the item,
// computing it lazily on first access. A second concurrent requester for the
// same key joins the in-flight computation rather than issuing another call.
func (c *LastPlayedCache) GetLastPlayed(ctx context.Context, seriesID, itemID string) (int64, error) {
	key := cacheKey(seriesID, itemID)
	now := time.Now()

	c.mu.Lock()
	entry, ok := c.entries[key]
	if ok {
		select {
		case <-entry.done:
			// Completed: honor TTL, and retry failed computations
			if entry.err == nil && now.Before(entry.expires) {
				c.mu.Unlock()
				return entry.value, nil
			}
			// Expired or errored, fall through and recompute
		default:
			// In flight: wait for it
			c.mu.Unlock()
			select {
			case <-entry.done:
				return entry.value, entry.err
			case <-ctx.Done():
				return 0, ctx.Err()
			}
		}
	}

	entry = &lastPlayedEntry{done: make(chan struct{})}
	c.evictLocked(now)
	c.entries[key] = entry
	c.mu.Unlock()

	value, err := c.loader(ctx, seriesID, itemID)

	entry.value = value
	entry.err = err
	entry.expires = time.Now().Add(lastPlayedTTL)
	close(entry.done)

	if err != nil {
		c.logger.Debug("last-played lookup failed", "seriesID", seriesID, "itemID", itemID, "error", err)
		// Drop failed entries so the next caller retries
		c.mu.Lock()
		if c.entries[key] == entry {
			delete(c.entries, key)
		}
		c.mu.Unlock()
	}

	return value, err
}

// evictLocked keeps the cache under its size cap. Expired entries go first;
// if none are expired the earliest-expiring entry is dropped.
func (c *LastPlayedCache) evictLocked(now time.Time) {
	if len(c.entries) < lastPlayedMaxEntries {
		return
	}

	var oldestKey string
	var oldest time.Time
	for k, e := range c.entries {
		select {
		case <-e.done:
		default:
			continue // Never evict in-flight computations
		}
		if now.After(e.expires) {
			delete(c.entries, k)
			continue
		}
		if oldestKey == "" || e.expires.Before(oldest) {
			oldestKey = k
			oldest = e.expires
		}
	}

	if len(c.entries) >= lastPlayedMaxEntries && oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// InvalidateSeries removes every cache entry belonging to a series. A single
// mark-played mutation can change the computed last-played time for every
// episode in that series.
func (c *LastPlayedCache) InvalidateSeries(seriesID string) {
	prefix := seriesID + "|"

	c.mu.Lock()
	defer c.mu.Unlock()

	for k := range c.entries {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(c.entries, k)
		}
	}
}

// InvalidateAll clears the entire cache; called whenever the active user or
// server changes
func (c *LastPlayedCache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]*lastPlayedEntry)
	c.mu.Unlock()
}

// Len returns the number of cached entries
func (c *LastPlayedCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
