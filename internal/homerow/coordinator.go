package homerow

import (
	"context"
	"log/slog"
	"sync"

	"github.com/homeshelf-tv/homeshelf/internal/domain"
)

// ScreenState is the aggregate lifecycle of the home screen
type ScreenState int

const (
	ScreenIdle ScreenState = iota
	ScreenLoading
	ScreenReady
	ScreenError
)

// String returns a human-readable representation of the screen state
func (s ScreenState) String() string {
	switch s {
	case ScreenIdle:
		return "idle"
	case ScreenLoading:
		return "loading"
	case ScreenReady:
		return "ready"
	case ScreenError:
		return "error"
	default:
		return "unknown"
	}
}

// Snapshot is one immutable published view of the home screen: the ordered
// visible rows plus the aggregate state. Rows whose fetch produced no items
// are absent. Subscribers receive snapshots and must never mutate them.
type Snapshot struct {
	Generation uint64
	State      ScreenState
	Rows       []domain.RowState
	Err        error // ScreenError only: no row list could be established
}

// Subscriber receives every published snapshot. Callbacks run on the
// coordinator's goroutines and must return quickly; hand the snapshot off to
// a channel or message loop instead of doing work inline.
type Subscriber func(Snapshot)

// LayoutResolver supplies the ordered row descriptors for a user; the second
// result reports whether a custom layout exists. Satisfied by layout.Resolver.
type LayoutResolver interface {
	Resolve(ctx context.Context, userID string) ([]domain.RowDescriptor, bool)
}

// Options configures the home-screen coordinator from user preferences
type Options struct {
	UserID string
	// CombineContinueNext merges Continue Watching and Next Up into a
	// single row in the default layout
	CombineContinueNext bool
	// UseCustomLayout consults the layout resolver before the default rows
	UseCustomLayout bool
	// NativeContinueNext prepends the built-in continue/next rows above a
	// custom layout that does not already include them
	NativeContinueNext bool
}

// rowSlot is one position in the row order. The slot's identity is its index;
// completion order never reorders slots. A nil state marks a slot whose fetch
// produced no items, which hides it from published snapshots.
type rowSlot struct {
	desc  domain.RowDescriptor
	state *domain.RowState
}

// Coordinator owns the home screen's row list. It resolves the layout, fans
// out per-row fetches, applies single-item patches after mutations and
// publishes immutable snapshots to subscribers. All published row orders
// follow the resolved layout regardless of fetch completion order.
type Coordinator struct {
	repo       domain.HomeRepository
	userData   domain.UserDataRepository
	builder    *Builder
	resolver   LayoutResolver
	lastPlayed *LastPlayedCache
	logger     *slog.Logger
	opts       Options

	mu          sync.Mutex
	generation  uint64
	state       ScreenState
	err         error
	slots       []rowSlot
	pending     int
	cancel      context.CancelFunc
	closed      bool
	subscribers []Subscriber
}

// NewCoordinator creates a home-screen coordinator. resolver and lastPlayed
// may be nil, disabling custom layouts and last-played lookups respectively.
func NewCoordinator(
	repo domain.HomeRepository,
	userData domain.UserDataRepository,
	builder *Builder,
	resolver LayoutResolver,
	lastPlayed *LastPlayedCache,
	opts Options,
	logger *slog.Logger,
) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		repo:       repo,
		userData:   userData,
		builder:    builder,
		resolver:   resolver,
		lastPlayed: lastPlayed,
		logger:     logger,
		opts:       opts,
	}
}

// Subscribe registers a snapshot receiver. Subscribers added after a load has
// started receive the next published snapshot, not a replay.
func (c *Coordinator) Subscribe(fn Subscriber) {
	c.mu.Lock()
	c.subscribers = append(c.subscribers, fn)
	c.mu.Unlock()
}

// Snapshot returns the current published view
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Load resolves the row layout and starts one fetch per row. Placeholder rows
// publish immediately so the screen can render titles before any fetch
// completes; each row transitions independently as its fetch lands. Any load
// supersedes the previous one, and late results from a superseded load are
// dropped.
func (c *Coordinator) Load(ctx context.Context) {
	if c.opts.UserID == "" {
		c.mu.Lock()
		c.generation++
		c.state = ScreenError
		c.err = domain.ErrNoUser
		c.slots = nil
		c.pending = 0
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.publish(snap)
		return
	}

	descriptors := c.resolveLayout(ctx)

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	loadCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.generation++
	c.err = nil
	gen := c.generation
	c.state = ScreenLoading
	c.slots = make([]rowSlot, len(descriptors))
	c.pending = len(descriptors)
	for i, desc := range descriptors {
		row := domain.LoadingRow(c.builder.PlaceholderTitle(desc), desc)
		c.slots[i] = rowSlot{desc: desc, state: &row}
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.publish(snap)

	for i, desc := range descriptors {
		go c.loadRow(loadCtx, gen, i, desc)
	}

	if len(descriptors) == 0 {
		c.finishIfDone(gen)
	}
}

// Reload re-runs the full load, superseding any in-flight one
func (c *Coordinator) Reload(ctx context.Context) {
	c.Load(ctx)
}

// loadRow fetches one row and installs its terminal state at its fixed slot
func (c *Coordinator) loadRow(ctx context.Context, gen uint64, index int, desc domain.RowDescriptor) {
	state := c.builder.BuildRow(ctx, desc)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.slots[index].state = state
	c.pending--
	if c.pending == 0 {
		c.state = ScreenReady
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.publish(snap)
}

// finishIfDone marks an empty load ready
func (c *Coordinator) finishIfDone(gen uint64) {
	c.mu.Lock()
	if gen != c.generation || c.pending != 0 {
		c.mu.Unlock()
		return
	}
	c.state = ScreenReady
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.publish(snap)
}

// resolveLayout picks the row descriptors for this load: the custom layout
// when enabled and available, the built-in defaults otherwise
func (c *Coordinator) resolveLayout(ctx context.Context) []domain.RowDescriptor {
	if c.opts.UseCustomLayout && c.resolver != nil {
		if custom, ok := c.resolver.Resolve(ctx, c.opts.UserID); ok {
			if c.opts.NativeContinueNext {
				return prependNativeRows(custom, c.opts.CombineContinueNext)
			}
			return custom
		}
		c.logger.Debug("no custom layout, using defaults")
	}
	return DefaultRows(c.opts.CombineContinueNext)
}

// DefaultRows is the built-in home-screen layout used when no custom layout
// is configured
func DefaultRows(combineContinueNext bool) []domain.RowDescriptor {
	var rows []domain.RowDescriptor
	if combineContinueNext {
		rows = append(rows, domain.SystemRow(domain.FeedContinueWatchingCombined))
	} else {
		rows = append(rows,
			domain.SystemRow(domain.FeedContinueWatching),
			domain.SystemRow(domain.FeedNextUp),
		)
	}
	rows = append(rows,
		domain.SystemRow(domain.FeedRecentlyReleased),
		domain.SystemRow(domain.FeedRecentlyAddedMovies),
		domain.SystemRow(domain.FeedRecentlyAddedShows),
		domain.SystemRow(domain.FeedSuggestions),
		domain.SystemRow(domain.FeedTopUnwatched),
	)
	return rows
}

// prependNativeRows puts the built-in continue/next rows ahead of a custom
// layout unless the layout already carries them
func prependNativeRows(custom []domain.RowDescriptor, combine bool) []domain.RowDescriptor {
	hasContinueNext := false
	for _, desc := range custom {
		if desc.Kind != domain.RowSystem {
			continue
		}
		switch desc.Feed {
		case domain.FeedContinueWatching, domain.FeedNextUp, domain.FeedContinueWatchingCombined:
			hasContinueNext = true
		}
	}
	if hasContinueNext {
		return custom
	}

	var native []domain.RowDescriptor
	if combine {
		native = append(native, domain.SystemRow(domain.FeedContinueWatchingCombined))
	} else {
		native = append(native,
			domain.SystemRow(domain.FeedContinueWatching),
			domain.SystemRow(domain.FeedNextUp),
		)
	}
	return append(native, custom...)
}

// RefreshItem re-fetches one item and splices the fresh copy into every
// visible row that contains it, without disturbing any other item. Late
// results from a superseded load are dropped.
func (c *Coordinator) RefreshItem(ctx context.Context, itemID string) error {
	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()

	item, err := c.repo.GetMediaItem(ctx, itemID)
	if err != nil {
		c.logger.Warn("item refresh failed", "itemID", itemID, "error", err)
		return err
	}

	c.patchItem(gen, *item)
	return nil
}

// patchItem applies a single-item update to every row holding the item. A
// generation mismatch means a newer load owns the rows and the patch is
// stale, so it is discarded.
func (c *Coordinator) patchItem(gen uint64, item domain.MediaItem) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}

	patchedAny := false
	for i := range c.slots {
		if c.slots[i].state == nil {
			continue
		}
		if patched, ok := c.slots[i].state.PatchItem(item); ok {
			c.slots[i].state = &patched
			patchedAny = true
		}
	}

	if !patchedAny {
		c.mu.Unlock()
		return
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.publish(snap)
}

// SetWatched marks an item played or unplayed on the server, then patches the
// visible rows with the item's fresh state. Episode mutations also invalidate
// the series' memoized last-played times.
func (c *Coordinator) SetWatched(ctx context.Context, item domain.MediaItem, watched bool) error {
	var err error
	if watched {
		err = c.userData.MarkPlayed(ctx, item.ID)
	} else {
		err = c.userData.MarkUnplayed(ctx, item.ID)
	}
	if err != nil {
		return err
	}

	if c.lastPlayed != nil && item.SeriesID != "" {
		c.lastPlayed.InvalidateSeries(item.SeriesID)
	}

	return c.RefreshItem(ctx, item.ID)
}

// SetFavorite toggles an item's favorite flag on the server, then patches the
// visible rows with the item's fresh state
func (c *Coordinator) SetFavorite(ctx context.Context, item domain.MediaItem, favorite bool) error {
	var err error
	if favorite {
		err = c.userData.MarkFavorite(ctx, item.ID)
	} else {
		err = c.userData.UnmarkFavorite(ctx, item.ID)
	}
	if err != nil {
		return err
	}

	return c.RefreshItem(ctx, item.ID)
}

// HandleRemoteUserDataChange refreshes the rows for items another session
// changed, as reported over the server's push socket
func (c *Coordinator) HandleRemoteUserDataChange(ctx context.Context, itemIDs []string) {
	for _, id := range itemIDs {
		if c.containsItem(id) {
			if err := c.RefreshItem(ctx, id); err != nil {
				c.logger.Debug("remote item refresh failed", "itemID", id, "error", err)
			}
		}
	}
}

// containsItem reports whether any visible row holds the item
func (c *Coordinator) containsItem(itemID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.slots {
		if c.slots[i].state != nil && c.slots[i].state.IndexOf(itemID) >= 0 {
			return true
		}
	}
	return false
}

// ItemLastPlayed returns the memoized last-played timestamp for an episode,
// or 0 for items with no series context
func (c *Coordinator) ItemLastPlayed(ctx context.Context, item domain.MediaItem) (int64, error) {
	if c.lastPlayed == nil || item.SeriesID == "" {
		return 0, nil
	}
	return c.lastPlayed.GetLastPlayed(ctx, item.SeriesID, item.ID)
}

// snapshotLocked assembles the published view from the visible slots.
// Caller holds c.mu.
func (c *Coordinator) snapshotLocked() Snapshot {
	rows := make([]domain.RowState, 0, len(c.slots))
	for i := range c.slots {
		if c.slots[i].state != nil {
			rows = append(rows, *c.slots[i].state)
		}
	}
	return Snapshot{Generation: c.generation, State: c.state, Rows: rows, Err: c.err}
}

// publish delivers a snapshot to every subscriber
func (c *Coordinator) publish(snap Snapshot) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	subs := make([]Subscriber, len(c.subscribers))
	copy(subs, c.subscribers)
	c.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// Close stops publication and cancels in-flight fetches. Late row results
// and patches are dropped by the generation guard.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	c.generation++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()
}
