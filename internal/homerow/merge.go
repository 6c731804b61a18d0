package homerow

import "github.com/homeshelf-tv/homeshelf/internal/domain"

// BuildCombined merges the continue-watching and next-up feeds into one
// deduplicated list. Both inputs arrive already ordered by the server's
// recency rules. Resume items keep their order and come first; next-up items
// follow, skipping any series the user is already resuming (an actively
// resumed series should not also show its "next episode" placeholder) and
// any item id already present.
//
// Pure function: empty inputs yield empty output. Callers apply the overall
// row size cap after combining.
func BuildCombined(resume, nextUp []domain.MediaItem) []domain.MediaItem {
	if len(resume) == 0 && len(nextUp) == 0 {
		return []domain.MediaItem{}
	}

	combined := make([]domain.MediaItem, 0, len(resume)+len(nextUp))

	resumeSeries := make(map[string]struct{}, len(resume))
	seen := make(map[string]struct{}, len(resume)+len(nextUp))

	for _, item := range resume {
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		if item.SeriesID != "" {
			resumeSeries[item.SeriesID] = struct{}{}
		}
		combined = append(combined, item)
	}

	for _, item := range nextUp {
		if _, dup := seen[item.ID]; dup {
			continue
		}
		if item.SeriesID != "" {
			if _, resuming := resumeSeries[item.SeriesID]; resuming {
				continue
			}
		}
		seen[item.ID] = struct{}{}
		combined = append(combined, item)
	}

	return combined
}

// capItems truncates a list to the row size limit; limit <= 0 means no cap
func capItems(items []domain.MediaItem, limit int) []domain.MediaItem {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
