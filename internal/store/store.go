package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/homeshelf-tv/homeshelf/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketLayouts = []byte("layouts")
)

// layoutEntry stores a resolved row layout with its fetch timestamp
type layoutEntry struct {
	Descriptors []domain.RowDescriptor `json:"descriptors"`
	FetchedAt   int64                  `json:"fetchedAt"`
}

// LayoutStore persists resolved home-row layouts per user using BoltDB.
// A layout survives restarts so the home screen can keep its last known
// shape while the companion service is unreachable.
type LayoutStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte
}

// NewLayoutStore opens (or creates) the layout database under baseCacheDir,
// namespaced by a hash of the server URL. An empty baseCacheDir yields a
// memory-only store with no persistence.
func NewLayoutStore(baseCacheDir, serverURL string) (*LayoutStore, error) {
	if baseCacheDir == "" {
		// Memory-only mode (no persistence)
		return &LayoutStore{cache: make(map[string][]byte)}, nil
	}

	dir := baseCacheDir
	if serverURL != "" {
		dir = filepath.Join(baseCacheDir, hashServerURL(serverURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "homeshelf.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketLayouts)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &LayoutStore{db: db, cache: make(map[string][]byte)}, nil
}

func hashServerURL(serverURL string) string {
	normalized := strings.TrimRight(strings.ToLower(serverURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

// Close releases the underlying database
func (s *LayoutStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *LayoutStore) get(bucket []byte, key string, dest interface{}) bool {
	cacheKey := string(bucket) + ":" + key

	// Check memory cache first
	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return json.Unmarshal(data, dest) == nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false
	}

	// Read from BoltDB
	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return false
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return json.Unmarshal(data, dest) == nil
}

func (s *LayoutStore) set(bucket []byte, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	cacheKey := string(bucket) + ":" + key

	// Update memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		return b.Put([]byte(key), data)
	})
}

func (s *LayoutStore) delete(bucket []byte, key string) {
	cacheKey := string(bucket) + ":" + key

	s.mu.Lock()
	delete(s.cache, cacheKey)
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b != nil {
			b.Delete([]byte(key))
		}
		return nil
	})
}

// === Layouts ===

// GetLayout returns the cached row descriptors for a user (or the global
// scope when userID is empty)
func (s *LayoutStore) GetLayout(userID string) ([]domain.RowDescriptor, bool) {
	var entry layoutEntry
	if !s.get(bucketLayouts, layoutKey(userID), &entry) {
		return nil, false
	}
	if len(entry.Descriptors) == 0 {
		return nil, false
	}
	return entry.Descriptors, true
}

// SaveLayout persists the resolved row descriptors for a user
func (s *LayoutStore) SaveLayout(userID string, descriptors []domain.RowDescriptor) error {
	entry := layoutEntry{
		Descriptors: descriptors,
		FetchedAt:   time.Now().Unix(),
	}
	return s.set(bucketLayouts, layoutKey(userID), entry)
}

// InvalidateLayout removes the cached layout for one user
func (s *LayoutStore) InvalidateLayout(userID string) {
	s.delete(bucketLayouts, layoutKey(userID))
}

// InvalidateAll clears everything; called when the active user or server changes
func (s *LayoutStore) InvalidateAll() {
	s.mu.Lock()
	s.cache = make(map[string][]byte)
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketLayouts)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func layoutKey(userID string) string {
	if userID == "" {
		return "global"
	}
	return "user:" + userID
}
