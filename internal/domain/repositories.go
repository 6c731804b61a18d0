package domain

import (
	"context"
)

// HomeRepository provides the per-feed queries that back home-screen rows.
// Each method issues one remote query and returns items already ordered by
// the server's recency/priority rules.
type HomeRepository interface {
	// GetResumeItems returns in-progress items, most recently played first
	GetResumeItems(ctx context.Context, limit int) ([]MediaItem, error)

	// GetNextUp returns the next unwatched episode per actively-watched series.
	// When rewatching is true the server also includes episodes of fully
	// watched series.
	GetNextUp(ctx context.Context, limit int, rewatching bool) ([]MediaItem, error)

	// GetLatest returns the most recently added items of the given kind
	// (KindMovie or KindSeries), newest first
	GetLatest(ctx context.Context, kind ItemKind, limit int) ([]MediaItem, error)

	// GetRecentlyReleased returns items ordered by premiere date, newest first
	GetRecentlyReleased(ctx context.Context, limit int) ([]MediaItem, error)

	// GetSuggestions returns server-computed suggestions for the user
	GetSuggestions(ctx context.Context, limit int) ([]MediaItem, error)

	// GetSimilar returns items similar to the given item
	GetSimilar(ctx context.Context, itemID string, limit int) ([]MediaItem, error)

	// GetTopUnwatched returns highly rated unwatched items
	GetTopUnwatched(ctx context.Context, limit int) ([]MediaItem, error)

	// GetWatchAgain returns fully watched items, most recently played first
	GetWatchAgain(ctx context.Context, limit int) ([]MediaItem, error)

	// GetCollectionItems returns the child items of a collection/box-set
	GetCollectionItems(ctx context.Context, collectionID string, limit int) ([]MediaItem, error)

	// GetMediaItem returns a single item by id, including current user data
	GetMediaItem(ctx context.Context, itemID string) (*MediaItem, error)

	// GetLastPlayedDates returns per-episode last-played timestamps for a series
	GetLastPlayedDates(ctx context.Context, seriesID string) (map[string]int64, error)
}

// UserDataRepository mutates per-user item state on the server
type UserDataRepository interface {
	// MarkPlayed marks an item as fully watched
	MarkPlayed(ctx context.Context, itemID string) error

	// MarkUnplayed marks an item as unwatched
	MarkUnplayed(ctx context.Context, itemID string) error

	// MarkFavorite adds an item to the user's favorites
	MarkFavorite(ctx context.Context, itemID string) error

	// UnmarkFavorite removes an item from the user's favorites
	UnmarkFavorite(ctx context.Context, itemID string) error
}

// AuthResult contains the result of a successful authentication
type AuthResult struct {
	Token    string // Access token for API calls
	UserID   string // User identifier
	Username string // Display username
}

// AuthFlow defines the interactive authentication flow against a media server.
// Implementations handle their own user interaction (prompting for
// credentials and so on).
type AuthFlow interface {
	// Run executes the authentication flow and returns credentials.
	// serverURL is the base URL of the media server.
	Run(ctx context.Context, serverURL string) (*AuthResult, error)
}
