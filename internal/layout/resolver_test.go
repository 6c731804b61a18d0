package layout

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/homeshelf-tv/homeshelf/internal/domain"
	"github.com/homeshelf-tv/homeshelf/internal/log"
)

const layoutDoc = `{
	"Layout": [
		{
			"Type": "section",
			"Title": "Home",
			"Rows": [
				{"Type": "system", "Label": "", "EndpointParams": {"NativeRow": "ContinueWatchingCombined"}},
				{"Type": "system", "Label": "Top Picks", "EndpointParams": {"NativeRow": "Suggestions", "Weight": 3}},
				{"Type": "system", "EndpointParams": {"NativeRow": "SomeFutureFeed"}},
				{"Type": "hologram", "Label": "Nope"},
				{"Type": "collection", "Label": "Classics", "PluginId": "0123456789abcdef0123456789abcdef"}
			]
		}
	]
}`

// memCache is an in-memory LayoutCache
type memCache struct {
	layouts map[string][]domain.RowDescriptor
}

func newMemCache() *memCache {
	return &memCache{layouts: make(map[string][]domain.RowDescriptor)}
}

func (m *memCache) GetLayout(userID string) ([]domain.RowDescriptor, bool) {
	d, ok := m.layouts[userID]
	return d, ok
}

func (m *memCache) SaveLayout(userID string, descriptors []domain.RowDescriptor) error {
	m.layouts[userID] = descriptors
	return nil
}

func TestResolveParsesDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/HomeRows/Config" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("userId") != "user1" {
			t.Errorf("unexpected userId %q", r.URL.Query().Get("userId"))
		}
		if r.Header.Get("X-Emby-Token") != "token" {
			t.Error("missing token header")
		}
		w.Write([]byte(layoutDoc))
	}))
	defer server.Close()

	r := NewResolver(server.URL, "token", nil, log.NullLogger())
	descriptors, ok := r.Resolve(context.Background(), "user1")
	if !ok {
		t.Fatal("expected a resolved layout")
	}

	// Unknown feed names and unknown row types are dropped
	if len(descriptors) != 3 {
		t.Fatalf("expected 3 descriptors, got %d: %+v", len(descriptors), descriptors)
	}

	if descriptors[0].Kind != domain.RowSystem || descriptors[0].Feed != domain.FeedContinueWatchingCombined {
		t.Fatalf("row 0 wrong: %+v", descriptors[0])
	}
	if descriptors[1].Feed != domain.FeedSuggestions || descriptors[1].Label != "Top Picks" {
		t.Fatalf("row 1 wrong: %+v", descriptors[1])
	}
	if descriptors[2].Kind != domain.RowCollection || descriptors[2].CollectionID != "0123456789abcdef0123456789abcdef" {
		t.Fatalf("row 2 wrong: %+v", descriptors[2])
	}
}

func TestResolveIgnoresNonStringParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(layoutDoc))
	}))
	defer server.Close()

	r := NewResolver(server.URL, "token", nil, log.NullLogger())
	descriptors, _ := r.Resolve(context.Background(), "user1")

	params := descriptors[1].Params
	if params["NativeRow"] != "Suggestions" {
		t.Fatalf("string params should survive: %v", params)
	}
	if _, ok := params["Weight"]; ok {
		t.Fatalf("non-string params should be dropped: %v", params)
	}
}

func TestResolveFallsBackToGlobalScope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("userId") != "" {
			// User scope defines nothing
			w.Write([]byte(`{"Layout":[]}`))
			return
		}
		w.Write([]byte(layoutDoc))
	}))
	defer server.Close()

	r := NewResolver(server.URL, "token", nil, log.NullLogger())
	descriptors, ok := r.Resolve(context.Background(), "user1")
	if !ok || len(descriptors) != 3 {
		t.Fatalf("expected global layout fallback, got ok=%v, %d rows", ok, len(descriptors))
	}
}

func TestResolveSavesAndUsesCache(t *testing.T) {
	failing := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(layoutDoc))
	}))
	defer server.Close()

	cache := newMemCache()
	r := NewResolver(server.URL, "token", cache, log.NullLogger())

	if _, ok := r.Resolve(context.Background(), "user1"); !ok {
		t.Fatal("initial resolve should succeed")
	}
	if _, ok := cache.GetLayout("user1"); !ok {
		t.Fatal("successful resolve should populate the cache")
	}

	// The service goes away; the cached layout keeps working
	failing = true
	descriptors, ok := r.Resolve(context.Background(), "user1")
	if !ok || len(descriptors) != 3 {
		t.Fatalf("expected cached layout, got ok=%v, %d rows", ok, len(descriptors))
	}
}

func TestResolveNoLayoutAnywhere(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	r := NewResolver(server.URL, "token", newMemCache(), log.NullLogger())
	if _, ok := r.Resolve(context.Background(), "user1"); ok {
		t.Fatal("expected no layout")
	}
}

func TestResolveUnparseableDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer server.Close()

	r := NewResolver(server.URL, "token", nil, log.NullLogger())
	if _, ok := r.Resolve(context.Background(), "user1"); ok {
		t.Fatal("garbage documents must not produce a layout")
	}
}
