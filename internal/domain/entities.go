package domain

import (
	"fmt"
	"time"
)

// ItemKind distinguishes content types
type ItemKind int

const (
	KindMovie ItemKind = iota
	KindSeries
	KindEpisode
	KindBoxSet
	KindCollectionLink
)

// String returns the lowercase name of the kind
func (k ItemKind) String() string {
	switch k {
	case KindMovie:
		return "movie"
	case KindSeries:
		return "series"
	case KindEpisode:
		return "episode"
	case KindBoxSet:
		return "boxset"
	case KindCollectionLink:
		return "collection-link"
	default:
		return "unknown"
	}
}

// MediaItem represents one browsable item on a home-screen row.
// A MediaItem is immutable once mapped from a server response; a refresh
// produces a fresh value rather than mutating in place.
type MediaItem struct {
	ID       string        // Server-specific unique identifier
	Title    string        // Display title
	Kind     ItemKind      // Movie, Series, Episode, BoxSet
	Summary  string        // Plot synopsis
	Year     int           // Release year
	Duration time.Duration // Total runtime
	Position time.Duration // Resume position (0 when never started)
	IsPlayed bool          // Marked as watched
	Favorite bool          // Marked as favorite
	AddedAt  int64         // Unix timestamp when added to the library
	PlayedAt int64         // Unix timestamp of last playback, 0 if never

	// Episode-specific fields (empty for movies)
	SeriesID   string // Parent series ID
	SeriesName string // Parent series name
	SeasonNum  int    // Season number (0 = specials)
	EpisodeNum int    // Episode number within season

	// Rating (0-10 scale, audience/community rating)
	Rating float64
}

// WatchStatus returns the watch status of the media item
func (m MediaItem) WatchStatus() WatchStatus {
	if m.IsPlayed {
		return WatchStatusWatched
	}
	if m.Position > 0 {
		return WatchStatusInProgress
	}
	return WatchStatusUnwatched
}

// ShouldResume returns true if playback should resume from saved position
func (m MediaItem) ShouldResume() bool {
	return m.Position > 0 && !m.IsPlayed
}

// EpisodeCode returns the formatted episode code (e.g., "S01E05")
func (m MediaItem) EpisodeCode() string {
	if m.Kind != KindEpisode {
		return ""
	}
	return fmt.Sprintf("S%02dE%02d", m.SeasonNum, m.EpisodeNum)
}

// DisplayTitle returns the title prefixed with the series name for episodes
func (m MediaItem) DisplayTitle() string {
	if m.Kind == KindEpisode && m.SeriesName != "" {
		return fmt.Sprintf("%s - %s", m.SeriesName, m.Title)
	}
	return m.Title
}

// FormattedDuration returns the duration in a human-readable format
func (m MediaItem) FormattedDuration() string {
	h := int(m.Duration.Hours())
	mins := int(m.Duration.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, mins)
	}
	return fmt.Sprintf("%dm", mins)
}

// WatchStatus represents the viewing state of media
type WatchStatus int

const (
	WatchStatusUnwatched WatchStatus = iota
	WatchStatusInProgress
	WatchStatusWatched
)

// String returns a human-readable representation of the watch status
func (w WatchStatus) String() string {
	switch w {
	case WatchStatusUnwatched:
		return "Unwatched"
	case WatchStatusInProgress:
		return "In Progress"
	case WatchStatusWatched:
		return "Watched"
	default:
		return "Unknown"
	}
}
