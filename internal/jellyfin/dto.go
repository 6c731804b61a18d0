package jellyfin

// AuthResponse represents the response from Jellyfin's AuthenticateByName endpoint
type AuthResponse struct {
	User        User   `json:"User"`
	AccessToken string `json:"AccessToken"`
	ServerID    string `json:"ServerId"`
}

// User represents a Jellyfin user
type User struct {
	ID          string `json:"Id"`
	Name        string `json:"Name"`
	ServerID    string `json:"ServerId"`
	HasPassword bool   `json:"HasPassword"`
}

// ItemsResponse represents a paginated list of items from Jellyfin
type ItemsResponse struct {
	Items            []Item `json:"Items"`
	TotalRecordCount int    `json:"TotalRecordCount"`
	StartIndex       int    `json:"StartIndex"`
}

// Item represents a media item from Jellyfin (movie, series, episode, box set)
type Item struct {
	ID                string    `json:"Id"`
	Name              string    `json:"Name"`
	Overview          string    `json:"Overview"`
	Type              string    `json:"Type"`
	CollectionType    string    `json:"CollectionType,omitempty"`
	DateCreated       string    `json:"DateCreated,omitempty"`
	PremiereDate      string    `json:"PremiereDate,omitempty"`
	ProductionYear    int       `json:"ProductionYear,omitempty"`
	RunTimeTicks      int64     `json:"RunTimeTicks,omitempty"` // Duration in 100-nanosecond units
	CommunityRating   float64   `json:"CommunityRating,omitempty"`
	ParentID          string    `json:"ParentId,omitempty"`
	SeriesID          string    `json:"SeriesId,omitempty"`
	SeriesName        string    `json:"SeriesName,omitempty"`
	ParentIndexNumber int       `json:"ParentIndexNumber,omitempty"` // Season number
	IndexNumber       int       `json:"IndexNumber,omitempty"`       // Episode number
	ChildCount        int       `json:"ChildCount,omitempty"`
	UserData          *UserData `json:"UserData,omitempty"`
}

// UserData contains user-specific data for an item (watch status, progress)
type UserData struct {
	PlaybackPositionTicks int64  `json:"PlaybackPositionTicks"` // Progress in 100-nanosecond units
	PlayCount             int    `json:"PlayCount"`
	IsFavorite            bool   `json:"IsFavorite"`
	Played                bool   `json:"Played"`
	LastPlayedDate        string `json:"LastPlayedDate,omitempty"`
	UnplayedItemCount     int    `json:"UnplayedItemCount,omitempty"`
}
