package jellyfin

import (
	"time"

	"github.com/homeshelf-tv/homeshelf/internal/domain"
)

// Jellyfin reports durations and positions in ticks of 100 nanoseconds.
const ticksPerNanosecond = 100

// MapItem converts a Jellyfin item DTO into a domain MediaItem
func MapItem(item Item) domain.MediaItem {
	m := domain.MediaItem{
		ID:       item.ID,
		Title:    item.Name,
		Kind:     mapKind(item.Type),
		Summary:  item.Overview,
		Year:     item.ProductionYear,
		Duration: time.Duration(item.RunTimeTicks * ticksPerNanosecond),
		AddedAt:  parseServerTime(item.DateCreated),
		Rating:   item.CommunityRating,
	}

	if item.Type == "Episode" {
		m.SeriesID = item.SeriesID
		m.SeriesName = item.SeriesName
		m.SeasonNum = item.ParentIndexNumber
		m.EpisodeNum = item.IndexNumber
	}

	if ud := item.UserData; ud != nil {
		m.Position = time.Duration(ud.PlaybackPositionTicks * ticksPerNanosecond)
		m.IsPlayed = ud.Played
		m.Favorite = ud.IsFavorite
		m.PlayedAt = parseServerTime(ud.LastPlayedDate)
	}

	return m
}

// MapItems converts a slice of item DTOs, dropping entries with no id
func MapItems(items []Item) []domain.MediaItem {
	mapped := make([]domain.MediaItem, 0, len(items))
	for _, item := range items {
		if item.ID == "" {
			continue
		}
		mapped = append(mapped, MapItem(item))
	}
	return mapped
}

// mapKind translates Jellyfin's item type string to a domain kind
func mapKind(itemType string) domain.ItemKind {
	switch itemType {
	case "Movie":
		return domain.KindMovie
	case "Series":
		return domain.KindSeries
	case "Episode":
		return domain.KindEpisode
	case "BoxSet":
		return domain.KindBoxSet
	default:
		return domain.KindMovie
	}
}

// parseServerTime parses Jellyfin's RFC 3339 timestamps, returning 0 on
// absence or malformed input
func parseServerTime(value string) int64 {
	if value == "" {
		return 0
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, value); err != nil {
			return 0
		}
	}
	return t.Unix()
}
