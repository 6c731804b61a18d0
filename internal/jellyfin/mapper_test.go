package jellyfin

import (
	"testing"
	"time"

	"github.com/homeshelf-tv/homeshelf/internal/domain"
)

func TestMapItemMovie(t *testing.T) {
	item := Item{
		ID:              "m1",
		Name:            "The Movie",
		Type:            "Movie",
		Overview:        "A movie.",
		ProductionYear:  2020,
		RunTimeTicks:    72000000000, // 2 hours
		CommunityRating: 7.5,
		DateCreated:     "2024-03-01T10:00:00Z",
		UserData: &UserData{
			PlaybackPositionTicks: 36000000000, // 1 hour
			Played:                false,
			IsFavorite:            true,
			LastPlayedDate:        "2024-03-02T20:00:00Z",
		},
	}

	m := MapItem(item)

	if m.ID != "m1" || m.Title != "The Movie" || m.Kind != domain.KindMovie {
		t.Fatalf("basic fields wrong: %+v", m)
	}
	if m.Duration != 2*time.Hour {
		t.Fatalf("expected 2h duration, got %s", m.Duration)
	}
	if m.Position != time.Hour {
		t.Fatalf("expected 1h position, got %s", m.Position)
	}
	if !m.Favorite || m.IsPlayed {
		t.Fatalf("user data wrong: %+v", m)
	}
	if m.AddedAt == 0 || m.PlayedAt == 0 {
		t.Fatalf("timestamps should parse: %+v", m)
	}
	if m.Rating != 7.5 {
		t.Fatalf("rating wrong: %v", m.Rating)
	}
}

func TestMapItemEpisode(t *testing.T) {
	item := Item{
		ID:                "e1",
		Name:              "The One Where",
		Type:              "Episode",
		SeriesID:          "s1",
		SeriesName:        "Friends",
		ParentIndexNumber: 2,
		IndexNumber:       7,
	}

	m := MapItem(item)

	if m.Kind != domain.KindEpisode {
		t.Fatalf("expected episode kind, got %v", m.Kind)
	}
	if m.SeriesID != "s1" || m.SeriesName != "Friends" {
		t.Fatalf("series fields wrong: %+v", m)
	}
	if m.EpisodeCode() != "S02E07" {
		t.Fatalf("episode code wrong: %q", m.EpisodeCode())
	}
}

func TestMapItemSeriesFieldsOnlyForEpisodes(t *testing.T) {
	item := Item{ID: "m1", Name: "Movie", Type: "Movie", SeriesID: "spurious"}

	if m := MapItem(item); m.SeriesID != "" {
		t.Fatalf("movies must not carry series fields: %+v", m)
	}
}

func TestMapItemsDropsEmptyIDs(t *testing.T) {
	items := MapItems([]Item{
		{ID: "a", Name: "A", Type: "Movie"},
		{ID: "", Name: "Ghost", Type: "Movie"},
		{ID: "b", Name: "B", Type: "Series"},
	})

	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ID != "a" || items[1].ID != "b" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestMapKind(t *testing.T) {
	tests := []struct {
		in   string
		want domain.ItemKind
	}{
		{"Movie", domain.KindMovie},
		{"Series", domain.KindSeries},
		{"Episode", domain.KindEpisode},
		{"BoxSet", domain.KindBoxSet},
		{"SomethingNew", domain.KindMovie},
	}
	for _, tc := range tests {
		if got := mapKind(tc.in); got != tc.want {
			t.Errorf("mapKind(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseServerTime(t *testing.T) {
	if ts := parseServerTime("2024-03-01T10:00:00.1234567Z"); ts == 0 {
		t.Error("fractional seconds should parse")
	}
	if ts := parseServerTime("2024-03-01T10:00:00Z"); ts == 0 {
		t.Error("plain RFC 3339 should parse")
	}
	if ts := parseServerTime(""); ts != 0 {
		t.Error("empty input should be 0")
	}
	if ts := parseServerTime("garbage"); ts != 0 {
		t.Error("malformed input should be 0")
	}
}
