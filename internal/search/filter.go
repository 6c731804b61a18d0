// Package search provides fuzzy filtering over the items currently loaded on
// the home screen, for the in-screen filter bar.
package search

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	lfuzzy "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sahilm/fuzzy"

	"github.com/homeshelf-tv/homeshelf/internal/domain"
)

// Entry ties one indexed item back to its home-screen position
type Entry struct {
	Item      domain.MediaItem
	RowIndex  int    // Position of the row in the visible row list
	RowTitle  string // Row title at index time
	ItemIndex int    // Position of the item within the row
}

// Result is one filter match with highlight metadata
type Result struct {
	Entry
	MatchedIndexes []int // Character positions that matched
	Score          int   // Lower is better
}

// filterSource implements sahilm/fuzzy.Source over the index entries
type filterSource struct {
	entries     []Entry
	lowerTitles []string
}

// String returns the lowercase display title at index i (implements fuzzy.Source)
func (s *filterSource) String(i int) string { return s.lowerTitles[i] }

// Len returns the number of entries (implements fuzzy.Source)
func (s *filterSource) Len() int { return len(s.entries) }

// Filter fuzzy-matches a query against the currently visible home-screen
// items. The index is rebuilt from each published snapshot, so results always
// point at live row/item positions.
type Filter struct {
	logger *slog.Logger

	mu     sync.RWMutex
	source *filterSource
}

// NewFilter creates an empty filter
func NewFilter(logger *slog.Logger) *Filter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Filter{
		logger: logger,
		source: &filterSource{},
	}
}

// IndexRows rebuilds the filter index from the visible rows. Items appearing
// on multiple rows are indexed once, at their first position.
func (f *Filter) IndexRows(rows []domain.RowState) {
	source := &filterSource{}
	seen := make(map[string]bool)

	for rowIdx, row := range rows {
		if row.Phase != domain.RowSuccess {
			continue
		}
		for itemIdx, item := range row.Items {
			if item.Kind == domain.KindCollectionLink || seen[item.ID] {
				continue
			}
			seen[item.ID] = true
			source.entries = append(source.entries, Entry{
				Item:      item,
				RowIndex:  rowIdx,
				RowTitle:  row.Title,
				ItemIndex: itemIdx,
			})
			source.lowerTitles = append(source.lowerTitles, strings.ToLower(item.DisplayTitle()))
		}
	}

	f.mu.Lock()
	f.source = source
	f.mu.Unlock()

	f.logger.Debug("filter index rebuilt", "items", source.Len())
}

// Len returns the number of indexed items
func (f *Filter) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.source.Len()
}

// Filter returns indexed items matching the query, best matches first
func (f *Filter) Filter(query string) []Result {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	f.mu.RLock()
	source := f.source
	f.mu.RUnlock()

	if source.Len() == 0 {
		return nil
	}

	matches := fuzzy.FindFrom(query, source)

	results := make([]Result, 0, len(matches))
	for _, match := range matches {
		results = append(results, Result{
			Entry:          source.entries[match.Index],
			MatchedIndexes: match.MatchedIndexes,
			Score:          matchScore(source.lowerTitles[match.Index], query),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score < results[j].Score
	})

	return results
}

// matchScore ranks a matched title against the query. Lower is better.
func matchScore(title, query string) int {
	if title == query {
		return 0
	}
	if strings.HasPrefix(title, query) {
		return 10
	}
	if strings.Contains(title, query) {
		return 50
	}
	return 100 + lfuzzy.LevenshteinDistance(query, title)
}
