package domain

import "strings"

// SystemFeed names a built-in home-screen feed
type SystemFeed int

const (
	FeedUnknown SystemFeed = iota
	FeedContinueWatching
	FeedNextUp
	FeedContinueWatchingCombined
	FeedRecentlyAddedMovies
	FeedRecentlyAddedShows
	FeedRecentlyReleased
	FeedLatestMovies
	FeedLatestShows
	FeedBecauseYouWatched
	FeedWatchItAgain
	FeedSuggestions
	FeedTopUnwatched
)

// feedNames maps wire names (as used by the companion layout service) to feeds.
// Lookup is case-insensitive.
var feedNames = map[string]SystemFeed{
	"continuewatching":         FeedContinueWatching,
	"nextup":                   FeedNextUp,
	"continuewatchingcombined": FeedContinueWatchingCombined,
	"recentlyaddedmovies":      FeedRecentlyAddedMovies,
	"recentlyaddedshows":       FeedRecentlyAddedShows,
	"recentlyreleased":         FeedRecentlyReleased,
	"latestmovies":             FeedLatestMovies,
	"latestshows":              FeedLatestShows,
	"becauseyouwatched":        FeedBecauseYouWatched,
	"watchitagain":             FeedWatchItAgain,
	"suggestions":              FeedSuggestions,
	"topunwatched":             FeedTopUnwatched,
}

// ParseSystemFeed resolves a wire name to a SystemFeed.
// Unknown names return (FeedUnknown, false); callers drop the row.
func ParseSystemFeed(name string) (SystemFeed, bool) {
	feed, ok := feedNames[strings.ToLower(strings.TrimSpace(name))]
	return feed, ok
}

// DefaultTitle returns the display title used when a descriptor carries no label
func (f SystemFeed) DefaultTitle() string {
	switch f {
	case FeedContinueWatching, FeedContinueWatchingCombined:
		return "Continue Watching"
	case FeedNextUp:
		return "Next Up"
	case FeedRecentlyAddedMovies:
		return "Recently Added Movies"
	case FeedRecentlyAddedShows:
		return "Recently Added Shows"
	case FeedRecentlyReleased:
		return "Recently Released"
	case FeedLatestMovies:
		return "Latest Movies"
	case FeedLatestShows:
		return "Latest Shows"
	case FeedBecauseYouWatched:
		return "Recommended For You"
	case FeedWatchItAgain:
		return "Watch It Again"
	case FeedSuggestions:
		return "Suggestions"
	case FeedTopUnwatched:
		return "Top Unwatched"
	default:
		return "Home"
	}
}

// RowKind distinguishes the two descriptor variants
type RowKind int

const (
	RowSystem RowKind = iota
	RowCollection
)

// RowDescriptor describes one home-screen row's source, not its content.
// Exactly one variant is active: a system feed (Kind == RowSystem) or a
// server-side collection reference (Kind == RowCollection).
type RowDescriptor struct {
	Kind         RowKind           `json:"kind"`
	Feed         SystemFeed        `json:"feed,omitempty"`         // RowSystem only
	CollectionID string            `json:"collectionId,omitempty"` // RowCollection only, raw as received
	Label        string            `json:"label,omitempty"`        // Optional caller-supplied title override
	Params       map[string]string `json:"params,omitempty"`       // Free-form, e.g. the BecauseYouWatched basis item
}

// Descriptor param keys carried by the companion layout service
const (
	ParamBasedOnID   = "BasedOnId"
	ParamBasedOnName = "BasedOnName"
)

// SystemRow builds a descriptor for a built-in feed
func SystemRow(feed SystemFeed) RowDescriptor {
	return RowDescriptor{Kind: RowSystem, Feed: feed}
}

// CollectionRow builds a descriptor for a server-side collection
func CollectionRow(collectionID string) RowDescriptor {
	return RowDescriptor{Kind: RowCollection, CollectionID: collectionID}
}

// RowPhase is the lifecycle tag of a RowState
type RowPhase int

const (
	RowPending RowPhase = iota
	RowLoading
	RowSuccess
	RowError
)

// String returns a human-readable representation of the phase
func (p RowPhase) String() string {
	switch p {
	case RowPending:
		return "pending"
	case RowLoading:
		return "loading"
	case RowSuccess:
		return "success"
	case RowError:
		return "error"
	default:
		return "unknown"
	}
}

// RowState is the loading state of one displayable row: a tagged variant over
// Pending, Loading, Success(items) and Error(message, cause). The title is
// stable across transitions once first known. Success items are replaced
// wholesale on refresh; PatchItem is the single exception and splices one
// updated item in place.
type RowState struct {
	Phase      RowPhase
	Title      string
	Descriptor RowDescriptor
	Items      []MediaItem // RowSuccess only
	Message    string      // RowError only, human-readable
	Cause      error       // RowError only, underlying failure
}

// PendingRow creates a row slot that has not started loading
func PendingRow(title string, desc RowDescriptor) RowState {
	return RowState{Phase: RowPending, Title: title, Descriptor: desc}
}

// LoadingRow creates a row slot whose fetch is in flight
func LoadingRow(title string, desc RowDescriptor) RowState {
	return RowState{Phase: RowLoading, Title: title, Descriptor: desc}
}

// SuccessRow creates a terminal row with its fetched items
func SuccessRow(title string, desc RowDescriptor, items []MediaItem) RowState {
	return RowState{Phase: RowSuccess, Title: title, Descriptor: desc, Items: items}
}

// ErrorRow creates a terminal row carrying a failure
func ErrorRow(title string, desc RowDescriptor, message string, cause error) RowState {
	return RowState{Phase: RowError, Title: title, Descriptor: desc, Message: message, Cause: cause}
}

// PatchItem returns a copy of the row with the item matching updated.ID
// replaced at its existing position. Rows that are not Success, or that do
// not contain the item, are returned unchanged with ok == false.
func (r RowState) PatchItem(updated MediaItem) (RowState, bool) {
	if r.Phase != RowSuccess {
		return r, false
	}
	for i, item := range r.Items {
		if item.ID == updated.ID {
			items := make([]MediaItem, len(r.Items))
			copy(items, r.Items)
			items[i] = updated
			patched := r
			patched.Items = items
			return patched, true
		}
	}
	return r, false
}

// IndexOf returns the position of an item id within a Success row, or -1
func (r RowState) IndexOf(itemID string) int {
	if r.Phase != RowSuccess {
		return -1
	}
	for i, item := range r.Items {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}
