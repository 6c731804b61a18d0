package homerow

import (
	"context"
	"sync"

	"github.com/homeshelf-tv/homeshelf/internal/domain"
)

// mockRepo implements domain.HomeRepository with overridable functions and
// per-method call counting
type mockRepo struct {
	mu    sync.Mutex
	calls map[string]int

	resumeFn       func(ctx context.Context, limit int) ([]domain.MediaItem, error)
	nextUpFn       func(ctx context.Context, limit int, rewatching bool) ([]domain.MediaItem, error)
	latestFn       func(ctx context.Context, kind domain.ItemKind, limit int) ([]domain.MediaItem, error)
	releasedFn     func(ctx context.Context, limit int) ([]domain.MediaItem, error)
	suggestionsFn  func(ctx context.Context, limit int) ([]domain.MediaItem, error)
	similarFn      func(ctx context.Context, itemID string, limit int) ([]domain.MediaItem, error)
	topUnwatchedFn func(ctx context.Context, limit int) ([]domain.MediaItem, error)
	watchAgainFn   func(ctx context.Context, limit int) ([]domain.MediaItem, error)
	collectionFn   func(ctx context.Context, collectionID string, limit int) ([]domain.MediaItem, error)
	mediaItemFn    func(ctx context.Context, itemID string) (*domain.MediaItem, error)
	lastPlayedFn   func(ctx context.Context, seriesID string) (map[string]int64, error)
}

func newMockRepo() *mockRepo {
	return &mockRepo{calls: make(map[string]int)}
}

func (m *mockRepo) record(method string) {
	m.mu.Lock()
	m.calls[method]++
	m.mu.Unlock()
}

func (m *mockRepo) callCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *mockRepo) GetResumeItems(ctx context.Context, limit int) ([]domain.MediaItem, error) {
	m.record("GetResumeItems")
	if m.resumeFn != nil {
		return m.resumeFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockRepo) GetNextUp(ctx context.Context, limit int, rewatching bool) ([]domain.MediaItem, error) {
	m.record("GetNextUp")
	if m.nextUpFn != nil {
		return m.nextUpFn(ctx, limit, rewatching)
	}
	return nil, nil
}

func (m *mockRepo) GetLatest(ctx context.Context, kind domain.ItemKind, limit int) ([]domain.MediaItem, error) {
	m.record("GetLatest")
	if m.latestFn != nil {
		return m.latestFn(ctx, kind, limit)
	}
	return nil, nil
}

func (m *mockRepo) GetRecentlyReleased(ctx context.Context, limit int) ([]domain.MediaItem, error) {
	m.record("GetRecentlyReleased")
	if m.releasedFn != nil {
		return m.releasedFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockRepo) GetSuggestions(ctx context.Context, limit int) ([]domain.MediaItem, error) {
	m.record("GetSuggestions")
	if m.suggestionsFn != nil {
		return m.suggestionsFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockRepo) GetSimilar(ctx context.Context, itemID string, limit int) ([]domain.MediaItem, error) {
	m.record("GetSimilar")
	if m.similarFn != nil {
		return m.similarFn(ctx, itemID, limit)
	}
	return nil, nil
}

func (m *mockRepo) GetTopUnwatched(ctx context.Context, limit int) ([]domain.MediaItem, error) {
	m.record("GetTopUnwatched")
	if m.topUnwatchedFn != nil {
		return m.topUnwatchedFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockRepo) GetWatchAgain(ctx context.Context, limit int) ([]domain.MediaItem, error) {
	m.record("GetWatchAgain")
	if m.watchAgainFn != nil {
		return m.watchAgainFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockRepo) GetCollectionItems(ctx context.Context, collectionID string, limit int) ([]domain.MediaItem, error) {
	m.record("GetCollectionItems")
	if m.collectionFn != nil {
		return m.collectionFn(ctx, collectionID, limit)
	}
	return nil, nil
}

func (m *mockRepo) GetMediaItem(ctx context.Context, itemID string) (*domain.MediaItem, error) {
	m.record("GetMediaItem")
	if m.mediaItemFn != nil {
		return m.mediaItemFn(ctx, itemID)
	}
	return nil, domain.ErrItemNotFound
}

func (m *mockRepo) GetLastPlayedDates(ctx context.Context, seriesID string) (map[string]int64, error) {
	m.record("GetLastPlayedDates")
	if m.lastPlayedFn != nil {
		return m.lastPlayedFn(ctx, seriesID)
	}
	return nil, nil
}

// mockUserData implements domain.UserDataRepository
type mockUserData struct {
	mu    sync.Mutex
	calls map[string]int

	playedFn   func(ctx context.Context, itemID string) error
	favoriteFn func(ctx context.Context, itemID string) error
}

func newMockUserData() *mockUserData {
	return &mockUserData{calls: make(map[string]int)}
}

func (m *mockUserData) record(method string) {
	m.mu.Lock()
	m.calls[method]++
	m.mu.Unlock()
}

func (m *mockUserData) callCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *mockUserData) MarkPlayed(ctx context.Context, itemID string) error {
	m.record("MarkPlayed")
	if m.playedFn != nil {
		return m.playedFn(ctx, itemID)
	}
	return nil
}

func (m *mockUserData) MarkUnplayed(ctx context.Context, itemID string) error {
	m.record("MarkUnplayed")
	if m.playedFn != nil {
		return m.playedFn(ctx, itemID)
	}
	return nil
}

func (m *mockUserData) MarkFavorite(ctx context.Context, itemID string) error {
	m.record("MarkFavorite")
	if m.favoriteFn != nil {
		return m.favoriteFn(ctx, itemID)
	}
	return nil
}

func (m *mockUserData) UnmarkFavorite(ctx context.Context, itemID string) error {
	m.record("UnmarkFavorite")
	if m.favoriteFn != nil {
		return m.favoriteFn(ctx, itemID)
	}
	return nil
}

func item(id, title string) domain.MediaItem {
	return domain.MediaItem{ID: id, Title: title, Kind: domain.KindMovie}
}

func episode(id, title, seriesID string) domain.MediaItem {
	return domain.MediaItem{ID: id, Title: title, Kind: domain.KindEpisode, SeriesID: seriesID}
}
