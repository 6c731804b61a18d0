package homerow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/homeshelf-tv/homeshelf/internal/domain"
)

// viewAllTitle is the synthetic trailing entry appended to box-set rows
const viewAllTitle = "View All"

// legacyContinueWatchingLabel is the label older layout plugins emit for the
// continue-watching row; it is translated to the current display title.
const legacyContinueWatchingLabel = "ContinueWatching"

// Builder turns a RowDescriptor into a terminal RowState by dispatching to
// the matching feed query, resolving the row title and applying the shared
// per-row item cap.
type Builder struct {
	repo        domain.HomeRepository
	logger      *slog.Logger
	itemsPerRow int
	rewatching  bool
}

// NewBuilder creates a row builder
func NewBuilder(repo domain.HomeRepository, itemsPerRow int, rewatching bool, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		repo:        repo,
		logger:      logger,
		itemsPerRow: itemsPerRow,
		rewatching:  rewatching,
	}
}

// PlaceholderTitle resolves the title shown while a row is still loading:
// the descriptor's explicit label (legacy labels translated), the feed's
// default, or a generic collection fallback.
func (b *Builder) PlaceholderTitle(desc domain.RowDescriptor) string {
	if desc.Label != "" {
		if desc.Label == legacyContinueWatchingLabel {
			return domain.FeedContinueWatching.DefaultTitle()
		}
		return desc.Label
	}
	if desc.Kind == domain.RowSystem {
		return desc.Feed.DefaultTitle()
	}
	return "Collection"
}

// BuildRow builds the terminal state for one row. A nil result means the row
// produced no items and is omitted entirely; empty rows are never shown.
// Failures never propagate: they are converted to an Error row carrying this
// row's own title so one failing row cannot abort its siblings.
func (b *Builder) BuildRow(ctx context.Context, desc domain.RowDescriptor) *domain.RowState {
	if desc.Kind == domain.RowCollection {
		return b.buildCollectionRow(ctx, desc)
	}
	return b.buildSystemRow(ctx, desc)
}

// buildSystemRow dispatches a built-in feed to its fetch adapter
func (b *Builder) buildSystemRow(ctx context.Context, desc domain.RowDescriptor) *domain.RowState {
	title := b.PlaceholderTitle(desc)

	items, err := b.fetchFeed(ctx, desc)
	if err != nil {
		b.logger.Warn("row fetch failed", "feed", desc.Feed.DefaultTitle(), "error", err)
		row := domain.ErrorRow(title, desc, "Failed to load row", err)
		return &row
	}

	items = capItems(items, b.itemsPerRow)
	if len(items) == 0 {
		return nil
	}

	// The BecauseYouWatched title depends on the fetched basis item
	if desc.Feed == domain.FeedBecauseYouWatched && desc.Label == "" {
		title = b.becauseYouWatchedTitle(ctx, desc, title)
	}

	row := domain.SuccessRow(title, desc, items)
	return &row
}

// fetchFeed issues the one or two remote queries backing a system feed
func (b *Builder) fetchFeed(ctx context.Context, desc domain.RowDescriptor) ([]domain.MediaItem, error) {
	limit := b.itemsPerRow

	switch desc.Feed {
	case domain.FeedContinueWatching:
		return b.repo.GetResumeItems(ctx, limit)
	case domain.FeedNextUp:
		return b.repo.GetNextUp(ctx, limit, b.rewatching)
	case domain.FeedContinueWatchingCombined:
		resume, err := b.repo.GetResumeItems(ctx, limit)
		if err != nil {
			return nil, err
		}
		nextUp, err := b.repo.GetNextUp(ctx, limit, b.rewatching)
		if err != nil {
			return nil, err
		}
		return BuildCombined(resume, nextUp), nil
	case domain.FeedRecentlyAddedMovies, domain.FeedLatestMovies:
		return b.repo.GetLatest(ctx, domain.KindMovie, limit)
	case domain.FeedRecentlyAddedShows, domain.FeedLatestShows:
		return b.repo.GetLatest(ctx, domain.KindSeries, limit)
	case domain.FeedRecentlyReleased:
		return b.repo.GetRecentlyReleased(ctx, limit)
	case domain.FeedSuggestions:
		return b.repo.GetSuggestions(ctx, limit)
	case domain.FeedTopUnwatched:
		return b.repo.GetTopUnwatched(ctx, limit)
	case domain.FeedWatchItAgain:
		return b.repo.GetWatchAgain(ctx, limit)
	case domain.FeedBecauseYouWatched:
		return b.fetchBecauseYouWatched(ctx, desc)
	default:
		return nil, fmt.Errorf("unrecognized system feed %d", desc.Feed)
	}
}

// fetchBecauseYouWatched resolves the basis item and fetches similar titles.
// When the layout carries no basis item, the most recently finished item
// stands in.
func (b *Builder) fetchBecauseYouWatched(ctx context.Context, desc domain.RowDescriptor) ([]domain.MediaItem, error) {
	basisID := desc.Params[domain.ParamBasedOnID]
	if basisID == "" {
		watched, err := b.repo.GetWatchAgain(ctx, 1)
		if err != nil {
			return nil, err
		}
		if len(watched) == 0 {
			return nil, nil
		}
		basisID = watched[0].ID
	}

	return b.repo.GetSimilar(ctx, basisID, b.itemsPerRow)
}

// becauseYouWatchedTitle formats the dynamic row title from the basis item's
// name, looking the item up when the layout did not supply a name. Lookup
// failure falls back to the default title silently (log only).
func (b *Builder) becauseYouWatchedTitle(ctx context.Context, desc domain.RowDescriptor, fallback string) string {
	name := desc.Params[domain.ParamBasedOnName]
	if name == "" {
		basisID := desc.Params[domain.ParamBasedOnID]
		if basisID == "" {
			return fallback
		}
		item, err := b.repo.GetMediaItem(ctx, basisID)
		if err != nil {
			b.logger.Debug("basis item lookup failed", "itemID", basisID, "error", err)
			return fallback
		}
		name = item.Title
	}
	return fmt.Sprintf("Because You Watched %s", name)
}

// buildCollectionRow resolves a collection id and fetches its children.
// An unparseable id yields an Error row, not a silent drop: it signals a
// fixable configuration problem the operator should see.
func (b *Builder) buildCollectionRow(ctx context.Context, desc domain.RowDescriptor) *domain.RowState {
	title := b.PlaceholderTitle(desc)

	collectionID, err := parseCollectionID(desc.CollectionID)
	if err != nil {
		b.logger.Warn("invalid collection id in layout", "id", desc.CollectionID, "error", err)
		row := domain.ErrorRow(title, desc,
			fmt.Sprintf("Invalid collection id %q in home row configuration", desc.CollectionID), err)
		return &row
	}

	items, err := b.repo.GetCollectionItems(ctx, collectionID, b.itemsPerRow)
	if err != nil {
		b.logger.Warn("collection fetch failed", "collectionID", collectionID, "error", err)
		row := domain.ErrorRow(title, desc, "Failed to load collection", err)
		return &row
	}

	items = capItems(items, b.itemsPerRow)
	if len(items) == 0 {
		return nil
	}

	// Box sets get their real display name and a trailing View All entry
	if desc.Label == "" {
		if collection, err := b.repo.GetMediaItem(ctx, collectionID); err == nil {
			if collection.Title != "" {
				title = collection.Title
			}
			if collection.Kind == domain.KindBoxSet {
				items = append(items, domain.MediaItem{
					ID:    collectionID,
					Title: viewAllTitle,
					Kind:  domain.KindCollectionLink,
				})
			}
		} else {
			b.logger.Debug("collection lookup failed", "collectionID", collectionID, "error", err)
		}
	}

	row := domain.SuccessRow(title, desc, items)
	return &row
}

// parseCollectionID accepts a canonical UUID string or a 32-character hex
// string without dashes and normalizes to the server's dashless form.
func parseCollectionID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("empty collection id")
	}

	id, err := uuid.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("collection id is not a UUID: %w", err)
	}

	return strings.ReplaceAll(id.String(), "-", ""), nil
}
