package homerow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/homeshelf-tv/homeshelf/internal/domain"
	"github.com/homeshelf-tv/homeshelf/internal/log"
)

func newTestBuilder(repo domain.HomeRepository) *Builder {
	return NewBuilder(repo, 20, false, log.NullLogger())
}

func TestBuildRowEmptyFeedIsOmitted(t *testing.T) {
	repo := newMockRepo()
	b := newTestBuilder(repo)

	feeds := []domain.SystemFeed{
		domain.FeedContinueWatching,
		domain.FeedNextUp,
		domain.FeedContinueWatchingCombined,
		domain.FeedRecentlyAddedMovies,
		domain.FeedRecentlyAddedShows,
		domain.FeedRecentlyReleased,
		domain.FeedSuggestions,
		domain.FeedTopUnwatched,
		domain.FeedWatchItAgain,
		domain.FeedBecauseYouWatched,
	}

	for _, feed := range feeds {
		if row := b.BuildRow(context.Background(), domain.SystemRow(feed)); row != nil {
			t.Errorf("feed %s: expected nil for empty feed, got phase %s", feed.DefaultTitle(), row.Phase)
		}
	}
}

func TestBuildRowFetchErrorYieldsErrorRow(t *testing.T) {
	repo := newMockRepo()
	repo.releasedFn = func(ctx context.Context, limit int) ([]domain.MediaItem, error) {
		return nil, errors.New("boom")
	}
	b := newTestBuilder(repo)

	row := b.BuildRow(context.Background(), domain.SystemRow(domain.FeedRecentlyReleased))
	if row == nil {
		t.Fatal("expected error row, got nil")
	}
	if row.Phase != domain.RowError {
		t.Fatalf("expected error phase, got %s", row.Phase)
	}
	if row.Title != "Recently Released" {
		t.Fatalf("error row must keep its title, got %q", row.Title)
	}
	if row.Cause == nil {
		t.Fatal("error row must carry its cause")
	}
}

func TestBuildRowSuccessCapsItems(t *testing.T) {
	repo := newMockRepo()
	repo.releasedFn = func(ctx context.Context, limit int) ([]domain.MediaItem, error) {
		var items []domain.MediaItem
		for i := 0; i < 30; i++ {
			items = append(items, item(string(rune('a'+i)), "Item"))
		}
		return items, nil
	}
	b := NewBuilder(repo, 5, false, log.NullLogger())

	row := b.BuildRow(context.Background(), domain.SystemRow(domain.FeedRecentlyReleased))
	if row == nil || row.Phase != domain.RowSuccess {
		t.Fatal("expected success row")
	}
	if len(row.Items) != 5 {
		t.Fatalf("expected 5 items, got %d", len(row.Items))
	}
}

func TestBuildRowLabelOverridesTitle(t *testing.T) {
	repo := newMockRepo()
	repo.suggestionsFn = func(ctx context.Context, limit int) ([]domain.MediaItem, error) {
		return []domain.MediaItem{item("a", "A")}, nil
	}
	b := newTestBuilder(repo)

	desc := domain.SystemRow(domain.FeedSuggestions)
	desc.Label = "Picked For You"

	row := b.BuildRow(context.Background(), desc)
	if row == nil || row.Title != "Picked For You" {
		t.Fatalf("expected label title, got %+v", row)
	}
}

func TestPlaceholderTitleTranslatesLegacyLabel(t *testing.T) {
	b := newTestBuilder(newMockRepo())

	desc := domain.SystemRow(domain.FeedContinueWatching)
	desc.Label = "ContinueWatching"

	if got := b.PlaceholderTitle(desc); got != "Continue Watching" {
		t.Fatalf("expected legacy label translation, got %q", got)
	}
}

func TestBuildCombinedRow(t *testing.T) {
	repo := newMockRepo()
	repo.resumeFn = func(ctx context.Context, limit int) ([]domain.MediaItem, error) {
		return []domain.MediaItem{episode("e5", "Episode 5", "s1")}, nil
	}
	repo.nextUpFn = func(ctx context.Context, limit int, rewatching bool) ([]domain.MediaItem, error) {
		return []domain.MediaItem{
			episode("e6", "Episode 6", "s1"),
			episode("p1", "Pilot", "s2"),
		}, nil
	}
	b := newTestBuilder(repo)

	row := b.BuildRow(context.Background(), domain.SystemRow(domain.FeedContinueWatchingCombined))
	if row == nil || row.Phase != domain.RowSuccess {
		t.Fatal("expected success row")
	}
	assertOrder(t, row.Items, "e5", "p1")
	if row.Title != "Continue Watching" {
		t.Fatalf("unexpected title %q", row.Title)
	}
}

func TestBecauseYouWatchedDynamicTitle(t *testing.T) {
	repo := newMockRepo()
	repo.similarFn = func(ctx context.Context, itemID string, limit int) ([]domain.MediaItem, error) {
		if itemID != "basis1" {
			t.Fatalf("unexpected basis id %q", itemID)
		}
		return []domain.MediaItem{item("sim1", "Similar")}, nil
	}
	b := newTestBuilder(repo)

	desc := domain.SystemRow(domain.FeedBecauseYouWatched)
	desc.Params = map[string]string{
		domain.ParamBasedOnID:   "basis1",
		domain.ParamBasedOnName: "The Thing",
	}

	row := b.BuildRow(context.Background(), desc)
	if row == nil || row.Phase != domain.RowSuccess {
		t.Fatal("expected success row")
	}
	if row.Title != "Because You Watched The Thing" {
		t.Fatalf("unexpected title %q", row.Title)
	}
}

func TestBecauseYouWatchedTitleFallsBackOnLookupFailure(t *testing.T) {
	repo := newMockRepo()
	repo.similarFn = func(ctx context.Context, itemID string, limit int) ([]domain.MediaItem, error) {
		return []domain.MediaItem{item("sim1", "Similar")}, nil
	}
	repo.mediaItemFn = func(ctx context.Context, itemID string) (*domain.MediaItem, error) {
		return nil, domain.ErrItemNotFound
	}
	b := newTestBuilder(repo)

	desc := domain.SystemRow(domain.FeedBecauseYouWatched)
	desc.Params = map[string]string{domain.ParamBasedOnID: "basis1"}

	row := b.BuildRow(context.Background(), desc)
	if row == nil || row.Phase != domain.RowSuccess {
		t.Fatal("title lookup failure must not fail the row")
	}
	if row.Title != "Recommended For You" {
		t.Fatalf("expected default title fallback, got %q", row.Title)
	}
}

func TestBecauseYouWatchedBasisFromHistory(t *testing.T) {
	repo := newMockRepo()
	repo.watchAgainFn = func(ctx context.Context, limit int) ([]domain.MediaItem, error) {
		return []domain.MediaItem{item("hist1", "History")}, nil
	}
	repo.similarFn = func(ctx context.Context, itemID string, limit int) ([]domain.MediaItem, error) {
		if itemID != "hist1" {
			t.Fatalf("expected basis from watch history, got %q", itemID)
		}
		return []domain.MediaItem{item("sim1", "Similar")}, nil
	}
	b := newTestBuilder(repo)

	row := b.BuildRow(context.Background(), domain.SystemRow(domain.FeedBecauseYouWatched))
	if row == nil || row.Phase != domain.RowSuccess {
		t.Fatal("expected success row")
	}
}

func TestCollectionRowInvalidID(t *testing.T) {
	repo := newMockRepo()
	b := newTestBuilder(repo)

	row := b.BuildRow(context.Background(), domain.CollectionRow("not-a-uuid"))
	if row == nil {
		t.Fatal("invalid collection id must produce a visible error row")
	}
	if row.Phase != domain.RowError {
		t.Fatalf("expected error phase, got %s", row.Phase)
	}
	if !strings.Contains(row.Message, `"not-a-uuid"`) {
		t.Fatalf("error message should name the bad id, got %q", row.Message)
	}
	if repo.callCount("GetCollectionItems") != 0 {
		t.Fatal("no fetch should happen for an unparseable id")
	}
}

func TestCollectionRowAcceptsDashlessID(t *testing.T) {
	const dashless = "0123456789abcdef0123456789abcdef"

	repo := newMockRepo()
	repo.collectionFn = func(ctx context.Context, collectionID string, limit int) ([]domain.MediaItem, error) {
		if collectionID != dashless {
			t.Fatalf("expected normalized dashless id, got %q", collectionID)
		}
		return []domain.MediaItem{item("child", "Child")}, nil
	}
	repo.mediaItemFn = func(ctx context.Context, itemID string) (*domain.MediaItem, error) {
		return &domain.MediaItem{ID: itemID, Title: "My Box", Kind: domain.KindBoxSet}, nil
	}
	b := newTestBuilder(repo)

	// Canonical form normalizes to the dashless server form
	row := b.BuildRow(context.Background(), domain.CollectionRow("01234567-89ab-cdef-0123-456789abcdef"))
	if row == nil || row.Phase != domain.RowSuccess {
		t.Fatal("expected success row")
	}
}

func TestCollectionRowBoxSetGetsViewAll(t *testing.T) {
	const id = "0123456789abcdef0123456789abcdef"

	repo := newMockRepo()
	repo.collectionFn = func(ctx context.Context, collectionID string, limit int) ([]domain.MediaItem, error) {
		return []domain.MediaItem{item("child1", "Child 1"), item("child2", "Child 2")}, nil
	}
	repo.mediaItemFn = func(ctx context.Context, itemID string) (*domain.MediaItem, error) {
		return &domain.MediaItem{ID: itemID, Title: "Bond Collection", Kind: domain.KindBoxSet}, nil
	}
	b := newTestBuilder(repo)

	row := b.BuildRow(context.Background(), domain.CollectionRow(id))
	if row == nil || row.Phase != domain.RowSuccess {
		t.Fatal("expected success row")
	}
	if row.Title != "Bond Collection" {
		t.Fatalf("expected box set display name, got %q", row.Title)
	}

	last := row.Items[len(row.Items)-1]
	if last.Title != "View All" || last.Kind != domain.KindCollectionLink {
		t.Fatalf("expected trailing View All entry, got %+v", last)
	}
}

func TestCollectionRowEmptyIsOmitted(t *testing.T) {
	repo := newMockRepo()
	b := newTestBuilder(repo)

	row := b.BuildRow(context.Background(), domain.CollectionRow("0123456789abcdef0123456789abcdef"))
	if row != nil {
		t.Fatalf("empty collection should be omitted, got phase %s", row.Phase)
	}
}
