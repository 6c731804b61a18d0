package jellyfin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/homeshelf-tv/homeshelf/internal/domain"
)

const (
	defaultTimeout = 60 * time.Second
	maxRetries     = 3
	baseRetryDelay = 500 * time.Millisecond

	itemFields = "Overview,DateCreated,PremiereDate,ParentId"
)

// Client implements domain.HomeRepository and domain.UserDataRepository
// against a Jellyfin-compatible server
type Client struct {
	baseURL    string
	token      string
	userID     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new Jellyfin API client
func NewClient(baseURL, token, userID string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		userID:  userID,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// BaseURL returns the server base URL the client was configured with
func (c *Client) BaseURL() string { return c.baseURL }

// UserID returns the authenticated user id
func (c *Client) UserID() string { return c.userID }

// doRequest performs an authenticated GET request to the Jellyfin API.
// Includes retry logic with exponential backoff for 5xx server errors.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values) ([]byte, error) {
	if c.userID == "" {
		return nil, domain.ErrNoUser
	}

	reqURL := fmt.Sprintf("%s%s", c.baseURL, path)
	if query != nil {
		reqURL = fmt.Sprintf("%s?%s", reqURL, query.Encode())
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		// Check context before each attempt
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		// Wait before retry (exponential backoff)
		if attempt > 0 {
			delay := baseRetryDelay * time.Duration(1<<(attempt-1)) // 500ms, 1s, 2s
			c.logger.Debug("retrying request", "attempt", attempt, "delay", delay, "url", reqURL)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Emby-Authorization", buildAuthHeader(c.token))

		c.logger.Debug("jellyfin request", "method", method, "path", path, "attempt", attempt)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Error("jellyfin request failed", "error", err)
			return nil, domain.ErrServerOffline
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode == http.StatusUnauthorized {
			return nil, domain.ErrAuthFailed
		}
		if resp.StatusCode == http.StatusNotFound {
			return nil, domain.ErrItemNotFound
		}

		// Retry on 5xx server errors
		if resp.StatusCode >= 500 && resp.StatusCode < 600 {
			lastErr = fmt.Errorf("server error: %d - %s", resp.StatusCode, string(body))
			c.logger.Warn("jellyfin server error, will retry",
				"status", resp.StatusCode,
				"attempt", attempt,
				"maxRetries", maxRetries,
				"path", path,
			)
			continue
		}

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
			c.logger.Error("jellyfin request error", "status", resp.StatusCode, "body", string(body))
			return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}

		return body, nil
	}

	c.logger.Error("jellyfin request failed after retries", "error", lastErr, "path", path)
	return nil, lastErr
}

// getItems performs a GET that returns a paginated ItemsResponse
func (c *Client) getItems(ctx context.Context, path string, query url.Values) ([]domain.MediaItem, error) {
	body, err := c.doRequest(ctx, http.MethodGet, path, query)
	if err != nil {
		return nil, err
	}

	var resp ItemsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return MapItems(resp.Items), nil
}

// GetResumeItems returns in-progress items, most recently played first
func (c *Client) GetResumeItems(ctx context.Context, limit int) ([]domain.MediaItem, error) {
	query := url.Values{}
	query.Set("Recursive", "true")
	query.Set("MediaTypes", "Video")
	query.Set("Fields", itemFields)
	if limit > 0 {
		query.Set("Limit", strconv.Itoa(limit))
	}

	path := fmt.Sprintf("/Users/%s/Items/Resume", c.userID)
	return c.getItems(ctx, path, query)
}

// GetNextUp returns the next unwatched episode per actively-watched series
func (c *Client) GetNextUp(ctx context.Context, limit int, rewatching bool) ([]domain.MediaItem, error) {
	query := url.Values{}
	query.Set("UserId", c.userID)
	query.Set("Fields", itemFields)
	if limit > 0 {
		query.Set("Limit", strconv.Itoa(limit))
	}
	if rewatching {
		query.Set("EnableRewatching", "true")
	}

	return c.getItems(ctx, "/Shows/NextUp", query)
}

// GetLatest returns the most recently added items of the given kind.
// The Latest endpoint returns a bare item array rather than an ItemsResponse.
func (c *Client) GetLatest(ctx context.Context, kind domain.ItemKind, limit int) ([]domain.MediaItem, error) {
	query := url.Values{}
	query.Set("Fields", itemFields)
	if limit > 0 {
		query.Set("Limit", strconv.Itoa(limit))
	}
	switch kind {
	case domain.KindSeries:
		query.Set("IncludeItemTypes", "Series")
	default:
		query.Set("IncludeItemTypes", "Movie")
	}

	path := fmt.Sprintf("/Users/%s/Items/Latest", c.userID)
	body, err := c.doRequest(ctx, http.MethodGet, path, query)
	if err != nil {
		return nil, err
	}

	var items []Item
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return MapItems(items), nil
}

// GetRecentlyReleased returns items ordered by premiere date, newest first
func (c *Client) GetRecentlyReleased(ctx context.Context, limit int) ([]domain.MediaItem, error) {
	query := url.Values{}
	query.Set("Recursive", "true")
	query.Set("IncludeItemTypes", "Movie,Series")
	query.Set("SortBy", "PremiereDate")
	query.Set("SortOrder", "Descending")
	query.Set("Fields", itemFields)
	if limit > 0 {
		query.Set("Limit", strconv.Itoa(limit))
	}

	path := fmt.Sprintf("/Users/%s/Items", c.userID)
	return c.getItems(ctx, path, query)
}

// GetSuggestions returns server-computed suggestions for the user
func (c *Client) GetSuggestions(ctx context.Context, limit int) ([]domain.MediaItem, error) {
	query := url.Values{}
	query.Set("Fields", itemFields)
	if limit > 0 {
		query.Set("Limit", strconv.Itoa(limit))
	}

	path := fmt.Sprintf("/Users/%s/Suggestions", c.userID)
	return c.getItems(ctx, path, query)
}

// GetSimilar returns items similar to the given item
func (c *Client) GetSimilar(ctx context.Context, itemID string, limit int) ([]domain.MediaItem, error) {
	query := url.Values{}
	query.Set("UserId", c.userID)
	query.Set("Fields", itemFields)
	if limit > 0 {
		query.Set("Limit", strconv.Itoa(limit))
	}

	path := fmt.Sprintf("/Items/%s/Similar", itemID)
	return c.getItems(ctx, path, query)
}

// GetTopUnwatched returns highly rated unwatched items
func (c *Client) GetTopUnwatched(ctx context.Context, limit int) ([]domain.MediaItem, error) {
	query := url.Values{}
	query.Set("Recursive", "true")
	query.Set("IncludeItemTypes", "Movie")
	query.Set("Filters", "IsUnplayed")
	query.Set("SortBy", "CommunityRating")
	query.Set("SortOrder", "Descending")
	query.Set("Fields", itemFields)
	if limit > 0 {
		query.Set("Limit", strconv.Itoa(limit))
	}

	path := fmt.Sprintf("/Users/%s/Items", c.userID)
	return c.getItems(ctx, path, query)
}

// GetWatchAgain returns fully watched items, most recently played first
func (c *Client) GetWatchAgain(ctx context.Context, limit int) ([]domain.MediaItem, error) {
	query := url.Values{}
	query.Set("Recursive", "true")
	query.Set("IncludeItemTypes", "Movie,Series")
	query.Set("Filters", "IsPlayed")
	query.Set("SortBy", "DatePlayed")
	query.Set("SortOrder", "Descending")
	query.Set("Fields", itemFields)
	if limit > 0 {
		query.Set("Limit", strconv.Itoa(limit))
	}

	path := fmt.Sprintf("/Users/%s/Items", c.userID)
	return c.getItems(ctx, path, query)
}

// GetCollectionItems returns the child items of a collection/box-set
func (c *Client) GetCollectionItems(ctx context.Context, collectionID string, limit int) ([]domain.MediaItem, error) {
	query := url.Values{}
	query.Set("ParentId", collectionID)
	query.Set("Fields", itemFields)
	if limit > 0 {
		query.Set("Limit", strconv.Itoa(limit))
	}

	path := fmt.Sprintf("/Users/%s/Items", c.userID)
	return c.getItems(ctx, path, query)
}

// GetMediaItem returns a single item by id, including current user data
func (c *Client) GetMediaItem(ctx context.Context, itemID string) (*domain.MediaItem, error) {
	query := url.Values{}
	query.Set("Fields", itemFields)

	path := fmt.Sprintf("/Users/%s/Items/%s", c.userID, itemID)
	body, err := c.doRequest(ctx, http.MethodGet, path, query)
	if err != nil {
		return nil, err
	}

	var item Item
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if item.ID == "" {
		return nil, domain.ErrItemNotFound
	}

	mapped := MapItem(item)
	return &mapped, nil
}

// GetLastPlayedDates returns per-episode last-played timestamps for a series
func (c *Client) GetLastPlayedDates(ctx context.Context, seriesID string) (map[string]int64, error) {
	query := url.Values{}
	query.Set("UserId", c.userID)
	query.Set("Fields", "UserData")

	path := fmt.Sprintf("/Shows/%s/Episodes", seriesID)
	body, err := c.doRequest(ctx, http.MethodGet, path, query)
	if err != nil {
		return nil, err
	}

	var resp ItemsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	dates := make(map[string]int64, len(resp.Items))
	for _, item := range resp.Items {
		if item.UserData == nil {
			continue
		}
		if ts := parseServerTime(item.UserData.LastPlayedDate); ts > 0 {
			dates[item.ID] = ts
		}
	}
	return dates, nil
}

// mutate issues a user-data mutation request with no response body of interest
func (c *Client) mutate(ctx context.Context, method, path string) error {
	if c.userID == "" {
		return domain.ErrNoUser
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Emby-Authorization", buildAuthHeader(c.token))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ErrServerOffline
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("mutation failed: status %d", resp.StatusCode)
	}

	return nil
}

// MarkPlayed marks an item as fully watched
func (c *Client) MarkPlayed(ctx context.Context, itemID string) error {
	return c.mutate(ctx, http.MethodPost, fmt.Sprintf("/Users/%s/PlayedItems/%s", c.userID, itemID))
}

// MarkUnplayed marks an item as unwatched
func (c *Client) MarkUnplayed(ctx context.Context, itemID string) error {
	return c.mutate(ctx, http.MethodDelete, fmt.Sprintf("/Users/%s/PlayedItems/%s", c.userID, itemID))
}

// MarkFavorite adds an item to the user's favorites
func (c *Client) MarkFavorite(ctx context.Context, itemID string) error {
	return c.mutate(ctx, http.MethodPost, fmt.Sprintf("/Users/%s/FavoriteItems/%s", c.userID, itemID))
}

// UnmarkFavorite removes an item from the user's favorites
func (c *Client) UnmarkFavorite(ctx context.Context, itemID string) error {
	return c.mutate(ctx, http.MethodDelete, fmt.Sprintf("/Users/%s/FavoriteItems/%s", c.userID, itemID))
}
